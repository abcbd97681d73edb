// Package jobs contains implementations of scheduled jobs for Taker Fitness Hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/application/command"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/mission"
	"github.com/taker-hub/taker-fitness-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE DAILY MISSIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// GenerateDailyMissionsJob creates the daily quest set for every hunter.
// It runs shortly after midnight so each hunter wakes up to a fresh board.
// Mission creation is idempotent per (hunter, key, date), so a rerun after
// a crash never duplicates quests.
type GenerateDailyMissionsJob struct {
	// Dependencies
	hunterRepo  hunter.Repository
	missionRepo mission.Repository
	idGen       command.IDGenerator
	logger      *slog.Logger

	// Configuration
	config GenerateDailyMissionsConfig

	// State
	lastRunStats atomic.Value // *GenerateStats
}

// GenerateDailyMissionsConfig contains configuration for the generation job.
type GenerateDailyMissionsConfig struct {
	// PageSize is how many hunters to load per repository page.
	PageSize int

	// Timeout is the maximum duration for the generation run.
	Timeout time.Duration
}

// DefaultGenerateDailyMissionsConfig returns sensible defaults.
func DefaultGenerateDailyMissionsConfig() GenerateDailyMissionsConfig {
	return GenerateDailyMissionsConfig{
		PageSize: 500,
		Timeout:  5 * time.Minute,
	}
}

// GenerateStats contains statistics from a generation run.
type GenerateStats struct {
	StartedAt        time.Time
	CompletedAt      time.Time
	Duration         time.Duration
	HuntersProcessed int
	BoardsGenerated  int
	Errors           []error
}

// NewGenerateDailyMissionsJob creates a new daily mission generation job.
func NewGenerateDailyMissionsJob(
	hunterRepo hunter.Repository,
	missionRepo mission.Repository,
	idGen command.IDGenerator,
	logger *slog.Logger,
	config GenerateDailyMissionsConfig,
) *GenerateDailyMissionsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.PageSize <= 0 {
		config.PageSize = 500
	}

	return &GenerateDailyMissionsJob{
		hunterRepo:  hunterRepo,
		missionRepo: missionRepo,
		idGen:       idGen,
		logger:      logger,
		config:      config,
	}
}

// Name returns the job name.
func (j *GenerateDailyMissionsJob) Name() string {
	return "generate_daily_missions"
}

// Description returns a human-readable description.
func (j *GenerateDailyMissionsJob) Description() string {
	return "Creates the daily quest board for every registered hunter"
}

// Run executes the generation job.
func (j *GenerateDailyMissionsJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &GenerateStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	today := timeutil.StartOfDay(timeutil.Now())
	j.logger.Info("starting generate_daily_missions job",
		"date", timeutil.FormatDateStr(today),
	)

	err := forEachHunter(ctx, j.hunterRepo, j.config.PageSize, func(h *hunter.Hunter) {
		stats.HuntersProcessed++

		missions, err := mission.BuildDaily(h.ID, today, j.idGen.GenerateID)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("build daily for %s: %w", h.ID, err))
			return
		}

		if err := j.missionRepo.CreateBatch(ctx, missions); err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("create batch for %s: %w", h.ID, err))
			return
		}

		stats.BoardsGenerated++
	})
	if err != nil {
		return fmt.Errorf("failed to list hunters: %w", err)
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("generate_daily_missions job completed",
		"duration", stats.Duration.String(),
		"hunters", stats.HuntersProcessed,
		"boards_generated", stats.BoardsGenerated,
		"errors", len(stats.Errors),
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("generation completed with %d errors", len(stats.Errors))
	}

	return nil
}

// LastRunStats returns statistics from the last run.
func (j *GenerateDailyMissionsJob) LastRunStats() *GenerateStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*GenerateStats)
}

// forEachHunter pages through the full hunter roster and invokes fn for
// every profile. Paging keeps memory bounded on large rosters.
func forEachHunter(ctx context.Context, repo hunter.Repository, pageSize int, fn func(h *hunter.Hunter)) error {
	opts := hunter.DefaultListOptions().WithLimit(pageSize)

	for offset := 0; ; offset += pageSize {
		page, err := repo.GetAll(ctx, opts.WithOffset(offset))
		if err != nil {
			return err
		}

		for _, h := range page {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn(h)
		}

		if len(page) < pageSize {
			return nil
		}
	}
}
