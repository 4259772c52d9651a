package store

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tryonfusion/studio/models"
	"github.com/tryonfusion/studio/studio"
	"github.com/tryonfusion/studio/utils"
)

const generationCollection = "generations"

// GenerationLog records successful generations in MongoDB for the gallery.
// Writes are best-effort; a lost record only means a gap in the gallery.
type GenerationLog struct{}

// NewGenerationLog returns the Mongo-backed gallery log.
func NewGenerationLog() *GenerationLog {
	return &GenerationLog{}
}

// Record inserts one generation record with its own timeout.
func (g *GenerationLog) Record(userID, kind, imageKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	record := models.Generation{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Kind:      kind,
		ImageKey:  imageKey,
		Status:    "completed",
		CreatedAt: time.Now(),
	}
	collection := utils.GetCollection(generationCollection)
	if _, err := collection.InsertOne(ctx, record); err != nil {
		log.Printf("failed to record generation for %s: %v", userID, err)
	}
}

// Compile-time interface check.
var _ studio.GenerationLog = (*GenerationLog)(nil)
