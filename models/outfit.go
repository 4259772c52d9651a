package models

import (
	"time"
)

// OutfitLayer is one step in the editing history: the garment applied at that
// step (nil for the base model layer) and the images generated for it, keyed
// by pose instruction. PoseOrder records insertion order; the first entry is
// the fallback image for poses that were never generated. Entries are only
// ever added, never removed.
type OutfitLayer struct {
	Garment    *Garment          `bson:"garment,omitempty" json:"garment,omitempty"`
	PoseImages map[string]string `bson:"pose_images" json:"pose_images"`
	PoseOrder  []string          `bson:"pose_order" json:"pose_order"`
}

// NewLayer creates a layer seeded with a single pose image. Every layer has
// at least one pose entry from creation.
func NewLayer(garment *Garment, pose, image string) OutfitLayer {
	return OutfitLayer{
		Garment:    garment,
		PoseImages: map[string]string{pose: image},
		PoseOrder:  []string{pose},
	}
}

// PoseImage returns the image for the given pose, falling back to the
// first-inserted pose image so callers always have something to display.
func (l *OutfitLayer) PoseImage(pose string) string {
	if img, ok := l.PoseImages[pose]; ok {
		return img
	}
	if len(l.PoseOrder) == 0 {
		return ""
	}
	return l.PoseImages[l.PoseOrder[0]]
}

// HasPose reports whether an image was generated for the given pose.
func (l *OutfitLayer) HasPose(pose string) bool {
	_, ok := l.PoseImages[pose]
	return ok
}

// SetPoseImage inserts or overwrites the image for a pose, preserving
// insertion order for the fallback.
func (l *OutfitLayer) SetPoseImage(pose, image string) {
	if l.PoseImages == nil {
		l.PoseImages = make(map[string]string)
	}
	if _, ok := l.PoseImages[pose]; !ok {
		l.PoseOrder = append(l.PoseOrder, pose)
	}
	l.PoseImages[pose] = image
}

// Clone returns a deep copy of the layer.
func (l OutfitLayer) Clone() OutfitLayer {
	c := OutfitLayer{
		PoseImages: make(map[string]string, len(l.PoseImages)),
		PoseOrder:  append([]string(nil), l.PoseOrder...),
	}
	if l.Garment != nil {
		g := *l.Garment
		c.Garment = &g
	}
	for k, v := range l.PoseImages {
		c.PoseImages[k] = v
	}
	return c
}

// CloneLayers deep-copies a slice of layers. Saved outfits must be value
// snapshots, never shared references into the live history.
func CloneLayers(layers []OutfitLayer) []OutfitLayer {
	if layers == nil {
		return nil
	}
	out := make([]OutfitLayer, len(layers))
	for i := range layers {
		out[i] = layers[i].Clone()
	}
	return out
}

// SavedOutfit is a named snapshot of the active layers, independent of the
// live session after creation.
type SavedOutfit struct {
	ID        string        `bson:"id" json:"id"`
	Name      string        `bson:"name" json:"name"`
	Preview   string        `bson:"preview" json:"preview"`
	Layers    []OutfitLayer `bson:"layers" json:"layers"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
}

// BaseImage returns the base-model image the outfit was created from, used to
// reject loading an outfit onto a different model.
func (o *SavedOutfit) BaseImage() string {
	if len(o.Layers) == 0 {
		return ""
	}
	return o.Layers[0].PoseImage(DefaultPose())
}

// SessionSnapshot is the durable-store record for one user's live session.
// It is written wholesale on every mutation and read once at resume.
type SessionSnapshot struct {
	UserID       string        `bson:"user_id" json:"user_id"`
	ModelImage   string        `bson:"model_image" json:"model_image"`
	History      []OutfitLayer `bson:"history" json:"history"`
	Wardrobe     []Garment     `bson:"wardrobe" json:"wardrobe"`
	CurrentIndex int           `bson:"current_index" json:"current_index"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}
