package studio

import (
	"github.com/tryonfusion/studio/models"
)

// History is the ordered sequence of outfit layers with a cursor selecting
// the active prefix. Layer 0 is always the base model (nil garment).
// Invariant: 0 <= Cursor < len(Layers) whenever Layers is non-empty.
type History struct {
	Layers []models.OutfitLayer
	Cursor int
}

// Append discards any layers beyond the cursor, appends the new layer and
// advances the cursor onto it. Editing after an undo is a destructive
// branch: the old redo suffix is gone.
func (h *History) Append(layer models.OutfitLayer) {
	h.Layers = append(h.Layers[:h.Cursor+1], layer)
	h.Cursor = len(h.Layers) - 1
}

// AdvanceIfMatches is the redo shortcut: if the layer just beyond the cursor
// wears the given garment, move the cursor onto it and report true. No
// generation happens. Anything else leaves the history untouched.
func (h *History) AdvanceIfMatches(garmentID string) bool {
	next := h.Cursor + 1
	if next >= len(h.Layers) {
		return false
	}
	g := h.Layers[next].Garment
	if g == nil || g.ID != garmentID {
		return false
	}
	h.Cursor = next
	return true
}

// Retreat moves the cursor back one layer and reports whether it moved.
// The base layer can never be removed, so this is a no-op at 0.
func (h *History) Retreat() bool {
	if h.Cursor == 0 {
		return false
	}
	h.Cursor--
	return true
}

// Active returns the layers up to and including the cursor. Callers must
// treat the slice as read-only; Save clones it before storing.
func (h *History) Active() []models.OutfitLayer {
	if len(h.Layers) == 0 {
		return nil
	}
	return h.Layers[:h.Cursor+1]
}

// Current returns the layer at the cursor, or nil for an empty history.
func (h *History) Current() *models.OutfitLayer {
	if len(h.Layers) == 0 {
		return nil
	}
	return &h.Layers[h.Cursor]
}

// ActiveGarmentIDs lists the garment ids worn by the active layers, in
// application order. The base layer contributes nothing.
func (h *History) ActiveGarmentIDs() []string {
	ids := make([]string, 0, h.Cursor)
	for _, layer := range h.Active() {
		if layer.Garment != nil {
			ids = append(ids, layer.Garment.ID)
		}
	}
	return ids
}
