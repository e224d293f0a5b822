package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cv-studio/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "cv:draft:"

// DraftCache keeps the latest autosaved draft of each owner in Redis with a
// TTL. A nil client turns every call into a no-op miss.
type DraftCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDraftCache(rdb *redis.Client, ttl time.Duration) *DraftCache {
	return &DraftCache{rdb: rdb, ttl: ttl}
}

func draftKey(ownerID uuid.UUID) string { return draftKeyPrefix + ownerID.String() }

// Get returns nil without error on a cache miss.
func (c *DraftCache) Get(ctx context.Context, ownerID uuid.UUID) (*model.Document, error) {
	if c.rdb == nil {
		return nil, nil
	}
	raw, err := c.rdb.Get(ctx, draftKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get draft: %w", err)
	}
	return decodeDocument(raw)
}

func (c *DraftCache) Put(ctx context.Context, ownerID uuid.UUID, doc *model.Document) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := c.rdb.Set(ctx, draftKey(ownerID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft: %w", err)
	}
	return nil
}

func (c *DraftCache) Delete(ctx context.Context, ownerID uuid.UUID) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, draftKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("redis del draft: %w", err)
	}
	return nil
}
