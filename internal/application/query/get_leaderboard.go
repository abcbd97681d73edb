package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/leaderboard"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// GetLeaderboardQuery requests the XP leaderboard.
type GetLeaderboardQuery struct {
	// Top is how many leading entries to return. Defaults to 10.
	Top int

	// AroundHunterID, when set, also returns the neighborhood of that
	// hunter so they can see who is just above and below.
	AroundHunterID string

	// AroundRange is how many neighbors on each side. Defaults to 2.
	AroundRange int
}

// Validate checks the query for correctness.
func (q GetLeaderboardQuery) Validate() error {
	if q.Top < 0 || q.Top > shared.MaxPageSize {
		return fmt.Errorf("%w: top must be between 0 and %d", shared.ErrInvalidInput, shared.MaxPageSize)
	}
	if q.AroundRange < 0 {
		return fmt.Errorf("%w: around range cannot be negative", shared.ErrInvalidInput)
	}
	return nil
}

// LeaderboardView is the assembled leaderboard response.
type LeaderboardView struct {
	// Top are the leading entries, best first.
	Top []*leaderboard.Entry

	// Around is the requested hunter's neighborhood (nil when not asked
	// or the hunter is not ranked).
	Around []*leaderboard.Entry

	// RequesterRank is the requested hunter's rank (0 when not ranked).
	RequesterRank int

	// TotalRanked is how many hunters are on the board.
	TotalRanked int
}

// GetLeaderboardHandler processes GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	repo   leaderboard.Repository
	logger *slog.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(repo leaderboard.Repository, logger *slog.Logger) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		repo:   repo,
		logger: logger.With("handler", "get_leaderboard"),
	}
}

// Handle executes the query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*LeaderboardView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	top := q.Top
	if top == 0 {
		top = 10
	}

	entries, err := h.repo.GetTop(ctx, top)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}

	view := &LeaderboardView{Top: entries}

	total, err := h.repo.Count(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to count ranked hunters", "error", err)
	} else {
		view.TotalRanked = total
	}

	if q.AroundHunterID == "" {
		return view, nil
	}

	rank, err := h.repo.GetRank(ctx, q.AroundHunterID)
	if err != nil {
		if errors.Is(err, leaderboard.ErrNotRanked) {
			return view, nil
		}
		return nil, fmt.Errorf("get leaderboard: rank: %w", err)
	}
	view.RequesterRank = int(rank)

	aroundRange := q.AroundRange
	if aroundRange == 0 {
		aroundRange = 2
	}
	around, err := h.repo.GetAround(ctx, q.AroundHunterID, aroundRange)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: around: %w", err)
	}
	view.Around = around

	return view, nil
}
