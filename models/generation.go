package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Generation kinds, one per gateway operation.
const (
	GenerationModel      = "model"
	GenerationGarment    = "garment"
	GenerationPose       = "pose"
	GenerationBackground = "background"
	GenerationEnhance    = "enhance"
)

// Generation records one successful image generation for the gallery.
type Generation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Kind      string             `bson:"kind" json:"kind"`
	ImageKey  string             `bson:"image_key" json:"image_key"`
	Status    string             `bson:"status" json:"status"` // e.g. "completed"
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	IsDeleted bool               `bson:"is_deleted" json:"is_deleted"` // Soft delete flag
}
