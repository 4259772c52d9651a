package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback represents user feedback on a generated look
type Feedback struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Message     string             `bson:"message" json:"message"`
	Rating      int                `bson:"rating,omitempty" json:"rating,omitempty"` // 1-5, 0 when not given
	ImageKey    string             `bson:"image_key,omitempty" json:"image_key,omitempty"`
	ContactBack bool               `bson:"contact_back" json:"contact_back"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
