package redis

import (
	"context"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/activity"
)

// Deduplicator implements activity.Deduplicator with SETNX claims.
// A quantity-bearing command (workout, water, meal) carries a request_id;
// the first delivery claims the key and every replay inside the TTL loses
// the SETNX race and is dropped before any XP is granted.
type Deduplicator struct {
	cache *Cache
}

// NewDeduplicator creates a new Deduplicator.
func NewDeduplicator(cache *Cache) *Deduplicator {
	return &Deduplicator{cache: cache}
}

var _ activity.Deduplicator = (*Deduplicator)(nil)

// Claim atomically claims a request id. Returns true when the id is seen
// for the first time and false for a replay.
func (d *Deduplicator) Claim(ctx context.Context, hunterID, requestID string, ttl time.Duration) (bool, error) {
	if hunterID == "" || requestID == "" {
		return false, ErrCacheKeyEmpty
	}
	if ttl <= 0 {
		ttl = TTLDedup
	}

	return d.cache.Client().SetNX(ctx, DedupKey(hunterID, requestID), "1", ttl).Result()
}

// Release frees a claim so a retried command can claim it again. Used to
// roll back after the claimed operation failed.
func (d *Deduplicator) Release(ctx context.Context, hunterID, requestID string) error {
	if hunterID == "" || requestID == "" {
		return ErrCacheKeyEmpty
	}

	return d.cache.Client().Del(ctx, DedupKey(hunterID, requestID)).Err()
}
