package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/tryonfusion/studio/models"
)

// Importer extracts a garment from a retail product page. It only reads the
// statically served HTML (Open Graph tags), which every major storefront
// provides for link previews.
type Importer struct {
	Client *http.Client
}

func NewImporter() *Importer {
	return &Importer{
		Client: &http.Client{Timeout: 20 * time.Second},
	}
}

// ImportGarment fetches the product page and builds a Garment from its
// og:image and og:title tags. The image stays a remote URL; callers that
// want it pinned copy it to S3 themselves.
func (i *Importer) ImportGarment(ctx context.Context, productURL string) (*models.Garment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, productURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := i.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch product page, status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product page: %w", err)
	}

	image := metaContent(doc, "og:image")
	if image == "" {
		image = metaContent(doc, "twitter:image")
	}
	if image == "" {
		return nil, fmt.Errorf("no product image found on page")
	}

	name := metaContent(doc, "og:title")
	if name == "" {
		name = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if name == "" {
		name = "Imported garment"
	}

	return &models.Garment{
		ID:    uuid.New().String(),
		Name:  name,
		Image: image,
	}, nil
}

func metaContent(doc *goquery.Document, property string) string {
	sel := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, property, property)
	content, _ := doc.Find(sel).First().Attr("content")
	return strings.TrimSpace(content)
}
