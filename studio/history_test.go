package studio

import (
	"testing"

	"github.com/tryonfusion/studio/models"
)

func baseLayer(image string) models.OutfitLayer {
	return models.NewLayer(nil, models.DefaultPose(), image)
}

func garmentLayer(id, image string) models.OutfitLayer {
	g := &models.Garment{ID: id, Name: id, Image: "garments/" + id}
	return models.NewLayer(g, models.DefaultPose(), image)
}

func TestHistory_ActivePrefixInvariant(t *testing.T) {
	h := History{Layers: []models.OutfitLayer{baseLayer("m")}}

	check := func() {
		if got, want := len(h.Active()), h.Cursor+1; got != want {
			t.Fatalf("active length %d, cursor %d", got, h.Cursor)
		}
		if h.Active()[0].Garment != nil {
			t.Fatal("layer 0 must be the base layer")
		}
	}

	check()
	h.Append(garmentLayer("a", "img-a"))
	check()
	h.Append(garmentLayer("b", "img-b"))
	check()
	h.Retreat()
	check()
	h.Append(garmentLayer("c", "img-c"))
	check()
	h.Retreat()
	h.Retreat()
	check()
	if h.Cursor != 0 {
		t.Fatalf("expected cursor 0, got %d", h.Cursor)
	}
}

func TestHistory_AppendDiscardsRedoSuffix(t *testing.T) {
	h := History{Layers: []models.OutfitLayer{baseLayer("m")}}
	h.Append(garmentLayer("b", "img-b"))
	h.Append(garmentLayer("c", "img-c"))

	h.Retreat()
	h.Retreat()
	if h.Cursor != 0 {
		t.Fatalf("expected cursor 0, got %d", h.Cursor)
	}

	h.Append(garmentLayer("d", "img-d"))
	if len(h.Layers) != 2 {
		t.Fatalf("expected 2 layers after divergent edit, got %d", len(h.Layers))
	}
	if h.Layers[1].Garment.ID != "d" {
		t.Fatalf("expected layer d, got %s", h.Layers[1].Garment.ID)
	}
	if h.Cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", h.Cursor)
	}
}

func TestHistory_AdvanceIfMatches(t *testing.T) {
	h := History{Layers: []models.OutfitLayer{baseLayer("m")}}
	h.Append(garmentLayer("a", "img-a"))
	h.Retreat()

	if h.AdvanceIfMatches("other") {
		t.Fatal("advance must not match a different garment")
	}
	if h.Cursor != 0 {
		t.Fatalf("mismatched advance moved the cursor to %d", h.Cursor)
	}

	if !h.AdvanceIfMatches("a") {
		t.Fatal("advance should match the next layer's garment")
	}
	if h.Cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", h.Cursor)
	}

	// At the end of history there is nothing to advance onto.
	if h.AdvanceIfMatches("a") {
		t.Fatal("advance past the last layer must fail")
	}
}

func TestHistory_RetreatStopsAtBase(t *testing.T) {
	h := History{Layers: []models.OutfitLayer{baseLayer("m")}}
	if h.Retreat() {
		t.Fatal("retreat at the base layer must be a no-op")
	}
	if h.Cursor != 0 {
		t.Fatalf("expected cursor 0, got %d", h.Cursor)
	}
}

func TestHistory_ActiveGarmentIDs(t *testing.T) {
	h := History{Layers: []models.OutfitLayer{baseLayer("m")}}
	h.Append(garmentLayer("a", "img-a"))
	h.Append(garmentLayer("b", "img-b"))
	h.Retreat()

	ids := h.ActiveGarmentIDs()
	if len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("expected [a], got %v", ids)
	}
}
