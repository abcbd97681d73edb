package redis

import (
	"context"
	"errors"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
)

// HunterCache implements hunter.Cache on the generic Redis Cache.
// A miss surfaces as hunter.ErrNotFound; callers fall back to PostgreSQL.
type HunterCache struct {
	cache *Cache
}

// NewHunterCache creates a new HunterCache.
func NewHunterCache(cache *Cache) *HunterCache {
	return &HunterCache{cache: cache}
}

// Get gets a hunter from cache.
func (h *HunterCache) Get(ctx context.Context, hunterID string) (*hunter.Hunter, error) {
	var hn hunter.Hunter
	err := h.cache.Get(ctx, HunterKey(hunterID), &hn)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, hunter.ErrNotFound
		}
		return nil, err
	}
	return &hn, nil
}

// Set stores a hunter in cache.
func (h *HunterCache) Set(ctx context.Context, hn *hunter.Hunter, ttl time.Duration) error {
	if hn == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLHunterCache
	}
	return h.cache.Set(ctx, HunterKey(hn.ID), hn, ttl)
}

// Delete removes a hunter from cache.
func (h *HunterCache) Delete(ctx context.Context, hunterID string) error {
	return h.cache.Delete(ctx, HunterKey(hunterID))
}

// Invalidate removes every cached key of a hunter.
func (h *HunterCache) Invalidate(ctx context.Context, hunterID string) error {
	return h.cache.DeleteByPattern(ctx, HunterKey(hunterID)+"*")
}
