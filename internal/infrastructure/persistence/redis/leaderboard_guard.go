package redis

import (
	"context"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/leaderboard"
	"github.com/taker-hub/taker-fitness-hub/pkg/circuitbreaker"
)

// GuardedLeaderboard wraps a leaderboard repository with a circuit
// breaker. Redis is a soft dependency for the hub: when it is down, XP
// application must keep working and ranking queries should fail fast
// instead of piling up timeouts.
type GuardedLeaderboard struct {
	inner   leaderboard.Repository
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedLeaderboard wraps inner with the given breaker.
func NewGuardedLeaderboard(inner leaderboard.Repository, breaker *circuitbreaker.CircuitBreaker) *GuardedLeaderboard {
	return &GuardedLeaderboard{inner: inner, breaker: breaker}
}

var _ leaderboard.Repository = (*GuardedLeaderboard)(nil)

// UpdateScore updates a hunter's score through the breaker.
func (g *GuardedLeaderboard) UpdateScore(ctx context.Context, hunterID string, totalXP int) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.UpdateScore(ctx, hunterID, totalXP)
	})
}

// GetRank returns a hunter's rank through the breaker.
func (g *GuardedLeaderboard) GetRank(ctx context.Context, hunterID string) (leaderboard.Rank, error) {
	var rank leaderboard.Rank
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		rank, innerErr = g.inner.GetRank(ctx, hunterID)
		return innerErr
	})
	return rank, err
}

// GetTop returns the top-N entries through the breaker.
func (g *GuardedLeaderboard) GetTop(ctx context.Context, n int) ([]*leaderboard.Entry, error) {
	var entries []*leaderboard.Entry
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		entries, innerErr = g.inner.GetTop(ctx, n)
		return innerErr
	})
	return entries, err
}

// GetAround returns the ranking window around a hunter through the breaker.
func (g *GuardedLeaderboard) GetAround(ctx context.Context, hunterID string, rangeSize int) ([]*leaderboard.Entry, error) {
	var entries []*leaderboard.Entry
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		entries, innerErr = g.inner.GetAround(ctx, hunterID, rangeSize)
		return innerErr
	})
	return entries, err
}

// Rebuild replaces the full ranking through the breaker.
func (g *GuardedLeaderboard) Rebuild(ctx context.Context, entries []*leaderboard.Entry) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Rebuild(ctx, entries)
	})
}

// Count returns the number of ranked hunters through the breaker.
func (g *GuardedLeaderboard) Count(ctx context.Context) (int, error) {
	var count int
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		count, innerErr = g.inner.Count(ctx)
		return innerErr
	})
	return count, err
}
