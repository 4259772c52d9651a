package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const productPage = `<!DOCTYPE html>
<html>
<head>
<title>Fallback Title | Shop</title>
<meta property="og:title" content="Linen Overshirt" />
<meta property="og:image" content="https://cdn.example.com/overshirt.jpg" />
</head>
<body><h1>Linen Overshirt</h1></body>
</html>`

func TestImportGarment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage)
	}))
	defer srv.Close()

	imp := NewImporter()
	g, err := imp.ImportGarment(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if g.Name != "Linen Overshirt" {
		t.Fatalf("expected og:title, got %q", g.Name)
	}
	if g.Image != "https://cdn.example.com/overshirt.jpg" {
		t.Fatalf("expected og:image, got %q", g.Image)
	}
	if g.ID == "" {
		t.Fatal("expected a generated garment id")
	}
}

func TestImportGarment_TitleFallback(t *testing.T) {
	page := `<html><head><title>Plain Tee</title>
<meta name="twitter:image" content="https://cdn.example.com/tee.jpg" />
</head><body></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	g, err := NewImporter().ImportGarment(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if g.Name != "Plain Tee" {
		t.Fatalf("expected title fallback, got %q", g.Name)
	}
	if g.Image != "https://cdn.example.com/tee.jpg" {
		t.Fatalf("expected twitter:image fallback, got %q", g.Image)
	}
}

func TestImportGarment_NoImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>No image here</title></head></html>`)
	}))
	defer srv.Close()

	if _, err := NewImporter().ImportGarment(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for a page without a product image")
	}
}
