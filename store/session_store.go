package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tryonfusion/studio/models"
	"github.com/tryonfusion/studio/studio"
	"github.com/tryonfusion/studio/utils"
)

const sessionCollection = "sessions"

// SessionStore persists session snapshots in MongoDB, one document per user,
// replaced wholesale on every write.
type SessionStore struct{}

// NewSessionStore returns the Mongo-backed durable session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Load reads the user's snapshot. A missing document is (nil, nil): the user
// simply has no active session.
func (s *SessionStore) Load(ctx context.Context, userID string) (*models.SessionSnapshot, error) {
	collection := utils.GetCollection(sessionCollection)

	var snap models.SessionSnapshot
	err := collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &snap, nil
}

// Save upserts the snapshot for its user.
func (s *SessionStore) Save(ctx context.Context, snap models.SessionSnapshot) error {
	collection := utils.GetCollection(sessionCollection)

	opts := options.Replace().SetUpsert(true)
	_, err := collection.ReplaceOne(ctx, bson.M{"user_id": snap.UserID}, snap, opts)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the user's snapshot. Deleting an absent document is fine.
func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	collection := utils.GetCollection(sessionCollection)

	_, err := collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ studio.SessionStore = (*SessionStore)(nil)
