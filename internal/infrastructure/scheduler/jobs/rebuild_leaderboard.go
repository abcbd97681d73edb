package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob reconstructs the Redis leaderboard from the
// Postgres hunter roster. Incremental score updates keep the ranking
// fresh between runs; the periodic rebuild repairs drift after missed
// updates, renames, or profile deletions.
type RebuildLeaderboardJob struct {
	// Dependencies
	hunterRepo      hunter.Repository
	leaderboardRepo leaderboard.Repository
	logger          *slog.Logger

	// Configuration
	config RebuildLeaderboardConfig

	// State
	lastRebuildStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// PageSize is how many hunters to load per repository page.
	PageSize int

	// Timeout is the maximum duration for the rebuild operation.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		PageSize: 500,
		Timeout:  5 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt        time.Time
	CompletedAt      time.Time
	Duration         time.Duration
	TotalHunters     int
	RankChangesFound int
	Errors           []error
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	hunterRepo hunter.Repository,
	leaderboardRepo leaderboard.Repository,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.PageSize <= 0 {
		config.PageSize = 500
	}

	return &RebuildLeaderboardJob{
		hunterRepo:      hunterRepo,
		leaderboardRepo: leaderboardRepo,
		logger:          logger,
		config:          config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds the leaderboard from hunter profiles and records rank changes"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RebuildStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting rebuild_leaderboard job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	previousRanks := j.loadPreviousRanks(ctx)

	ranking := leaderboard.NewRanking()
	err := forEachHunter(ctx, j.hunterRepo, j.config.PageSize, func(h *hunter.Hunter) {
		stats.TotalHunters++

		entry, err := leaderboard.NewEntry(leaderboard.Rank(1), h.ID, h.Name, h.TotalXP, h.Level)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("entry for %s: %w", h.ID, err))
			return
		}
		entry.CurrentStreak = h.CurrentStreak
		entry.UpdatedAt = h.UpdatedAt

		if err := ranking.Add(entry); err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("add entry for %s: %w", h.ID, err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to get hunters: %w", err)
	}

	j.logger.Info("found hunters for leaderboard", "count", stats.TotalHunters)

	// Sort, assign shared ranks, and record movement since the last build.
	ranking.SortByXP()
	entries := ranking.All()
	for _, entry := range entries {
		prev, ok := previousRanks[entry.HunterID]
		if !ok {
			continue
		}
		entry.RankChange = leaderboard.RankChange(int(prev) - int(entry.Rank))
		if entry.RankChange != 0 {
			stats.RankChangesFound++
		}
	}

	if err := j.leaderboardRepo.Rebuild(ctx, entries); err != nil {
		return fmt.Errorf("failed to rebuild leaderboard: %w", err)
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRebuildStats.Store(stats)

	j.logger.Info("rebuild_leaderboard job completed",
		"duration", stats.Duration.String(),
		"total_hunters", stats.TotalHunters,
		"rank_changes", stats.RankChangesFound,
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("rebuild completed with %d errors", len(stats.Errors))
	}

	return nil
}

// loadPreviousRanks snapshots the current ranking before the rebuild
// replaces it. Best-effort: a cold leaderboard just means no rank deltas.
func (j *RebuildLeaderboardJob) loadPreviousRanks(ctx context.Context) map[string]leaderboard.Rank {
	ranks := make(map[string]leaderboard.Rank)

	total, err := j.leaderboardRepo.Count(ctx)
	if err != nil || total == 0 {
		return ranks
	}

	entries, err := j.leaderboardRepo.GetTop(ctx, total)
	if err != nil {
		j.logger.Warn("failed to snapshot previous ranking", "error", err)
		return ranks
	}

	for _, entry := range entries {
		ranks[entry.HunterID] = entry.Rank
	}
	return ranks
}

// LastRebuildStats returns statistics from the last rebuild.
func (j *RebuildLeaderboardJob) LastRebuildStats() *RebuildStats {
	stats := j.lastRebuildStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildStats)
}
