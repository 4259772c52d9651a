package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tryonfusion/studio/models"
	"github.com/tryonfusion/studio/studio"
)

// OutfitStore keeps each user's saved-outfit catalog in Redis as a single
// JSON array under "outfits:{userID}", rewritten wholesale on every change.
type OutfitStore struct {
	client *redis.Client
}

// NewOutfitStore returns the Redis-backed catalog store.
func NewOutfitStore(client *redis.Client) *OutfitStore {
	return &OutfitStore{client: client}
}

func (s *OutfitStore) key(userID string) string {
	return fmt.Sprintf("outfits:%s", userID)
}

// List returns the catalog, newest first. A missing key is an empty catalog.
func (s *OutfitStore) List(ctx context.Context, userID string) ([]models.SavedOutfit, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read outfit catalog: %w", err)
	}

	var outfits []models.SavedOutfit
	if err := json.Unmarshal([]byte(raw), &outfits); err != nil {
		return nil, fmt.Errorf("failed to decode outfit catalog: %w", err)
	}
	return outfits, nil
}

// Put overwrites the whole catalog. An empty list deletes the key.
func (s *OutfitStore) Put(ctx context.Context, userID string, outfits []models.SavedOutfit) error {
	if len(outfits) == 0 {
		if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
			return fmt.Errorf("failed to clear outfit catalog: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(outfits)
	if err != nil {
		return fmt.Errorf("failed to encode outfit catalog: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write outfit catalog: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ studio.OutfitStore = (*OutfitStore)(nil)
