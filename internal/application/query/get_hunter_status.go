// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/achievement"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/leaderboard"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// statusCacheTTL is how long a hunter status snapshot stays cached.
const statusCacheTTL = 5 * time.Minute

// GetHunterStatusQuery requests the full status board of a hunter.
type GetHunterStatusQuery struct {
	// HunterID is the hunter to describe.
	HunterID string

	// RecentAchievements limits how many fresh unlocks to include.
	RecentAchievements int
}

// Validate checks the query for correctness.
func (q GetHunterStatusQuery) Validate() error {
	if q.HunterID == "" {
		return fmt.Errorf("%w: hunter ID is required", shared.ErrInvalidInput)
	}
	return nil
}

// HunterStatus is the aggregated status board.
type HunterStatus struct {
	// HunterID identifies the hunter.
	HunterID string

	// Name is the display name.
	Name string

	// Level and LevelTitle describe current rank progression.
	Level      int
	LevelTitle string

	// CurrentXP, XPToNextLevel and TotalXP describe XP progression.
	CurrentXP     int
	XPToNextLevel int
	TotalXP       int

	// AvailablePoints is how many stat points remain unspent.
	AvailablePoints int

	// Stats are the five attributes.
	Stats map[shared.StatKey]int

	// CurrentStreak and MaxStreak describe the daily clear series.
	CurrentStreak int
	MaxStreak     int

	// TotalWorkouts and TotalMissionsCompleted are lifetime counters.
	TotalWorkouts          int
	TotalMissionsCompleted int

	// Rank is the leaderboard position (0 when not ranked yet).
	Rank int

	// RecentAchievements are the latest unlocks, newest first.
	RecentAchievements []*achievement.Achievement
}

// GetHunterStatusHandler processes GetHunterStatusQuery.
type GetHunterStatusHandler struct {
	hunterRepo      hunter.Repository
	cache           hunter.Cache
	leaderboardRepo leaderboard.Repository
	achievementRepo achievement.Repository
	logger          *slog.Logger
}

// NewGetHunterStatusHandler creates a new GetHunterStatusHandler.
func NewGetHunterStatusHandler(
	hunterRepo hunter.Repository,
	cache hunter.Cache,
	leaderboardRepo leaderboard.Repository,
	achievementRepo achievement.Repository,
	logger *slog.Logger,
) *GetHunterStatusHandler {
	return &GetHunterStatusHandler{
		hunterRepo:      hunterRepo,
		cache:           cache,
		leaderboardRepo: leaderboardRepo,
		achievementRepo: achievementRepo,
		logger:          logger.With("handler", "get_hunter_status"),
	}
}

// Handle executes the query.
func (h *GetHunterStatusHandler) Handle(ctx context.Context, q GetHunterStatusQuery) (*HunterStatus, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	hn, err := h.loadHunter(ctx, q.HunterID)
	if err != nil {
		return nil, fmt.Errorf("get hunter status: %w", err)
	}

	status := &HunterStatus{
		HunterID:               hn.ID,
		Name:                   hn.Name,
		Level:                  hn.Level,
		LevelTitle:             hunter.LevelTitle(hn.Level),
		CurrentXP:              hn.CurrentXP,
		XPToNextLevel:          hunter.XPToNextLevel(hn.Level),
		TotalXP:                hn.TotalXP,
		AvailablePoints:        hn.AvailablePoints,
		Stats:                  hn.Stats.Clone(),
		CurrentStreak:          hn.CurrentStreak,
		MaxStreak:              hn.MaxStreak,
		TotalWorkouts:          hn.TotalWorkouts,
		TotalMissionsCompleted: hn.TotalMissionsCompleted,
	}

	if h.leaderboardRepo != nil {
		rank, err := h.leaderboardRepo.GetRank(ctx, hn.ID)
		switch {
		case err == nil:
			status.Rank = int(rank)
		case errors.Is(err, leaderboard.ErrNotRanked):
			// Fresh hunter, not an error.
		default:
			h.logger.WarnContext(ctx, "failed to resolve rank", "error", err)
		}
	}

	limit := q.RecentAchievements
	if limit <= 0 {
		limit = 5
	}
	if h.achievementRepo != nil {
		recent, err := h.achievementRepo.GetRecent(ctx, hn.ID, limit)
		if err != nil {
			h.logger.WarnContext(ctx, "failed to load achievements", "error", err)
		} else {
			status.RecentAchievements = recent
		}
	}

	return status, nil
}

// loadHunter reads through the profile cache when one is wired.
func (h *GetHunterStatusHandler) loadHunter(ctx context.Context, id string) (*hunter.Hunter, error) {
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	hn, err := h.hunterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, hn, statusCacheTTL); err != nil {
			h.logger.WarnContext(ctx, "failed to cache profile", "error", err)
		}
	}

	return hn, nil
}
