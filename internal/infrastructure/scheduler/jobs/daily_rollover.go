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
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
	"github.com/taker-hub/taker-fitness-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY ROLLOVER JOB
// ══════════════════════════════════════════════════════════════════════════════

// DailyRolloverJob closes out the previous day. It expires stale pending
// missions, charges the XP penalty for every required mission a hunter
// left unfinished, and breaks the streak of anyone who failed to clear
// their board. The System forgives nothing.
//
// Penalties go through the progress tracker so they land in the XP
// journal and the leaderboard exactly like any other delta.
type DailyRolloverJob struct {
	// Dependencies
	hunterRepo  hunter.Repository
	missionRepo mission.Repository
	tracker     *command.ProgressTracker
	publisher   shared.EventPublisher
	logger      *slog.Logger

	// Configuration
	config DailyRolloverConfig

	// State
	lastRunStats atomic.Value // *RolloverStats
}

// DailyRolloverConfig contains configuration for the rollover job.
type DailyRolloverConfig struct {
	// PageSize is how many hunters to load per repository page.
	PageSize int

	// ApplyPenalties charges penalty XP for missed required missions.
	ApplyPenalties bool

	// Timeout is the maximum duration for the rollover run.
	Timeout time.Duration
}

// DefaultDailyRolloverConfig returns sensible defaults.
func DefaultDailyRolloverConfig() DailyRolloverConfig {
	return DailyRolloverConfig{
		PageSize:       500,
		ApplyPenalties: true,
		Timeout:        10 * time.Minute,
	}
}

// RolloverStats contains statistics from a rollover run.
type RolloverStats struct {
	StartedAt        time.Time
	CompletedAt      time.Time
	Duration         time.Duration
	MissionsExpired  int
	PenaltiesApplied int
	PenaltyXPTotal   int
	StreaksBroken    int
	Errors           []error
}

// NewDailyRolloverJob creates a new daily rollover job.
func NewDailyRolloverJob(
	hunterRepo hunter.Repository,
	missionRepo mission.Repository,
	tracker *command.ProgressTracker,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config DailyRolloverConfig,
) *DailyRolloverJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.PageSize <= 0 {
		config.PageSize = 500
	}

	return &DailyRolloverJob{
		hunterRepo:  hunterRepo,
		missionRepo: missionRepo,
		tracker:     tracker,
		publisher:   publisher,
		logger:      logger,
		config:      config,
	}
}

// Name returns the job name.
func (j *DailyRolloverJob) Name() string {
	return "daily_rollover"
}

// Description returns a human-readable description.
func (j *DailyRolloverJob) Description() string {
	return "Expires stale missions, applies penalties, and breaks missed streaks"
}

// Run executes the rollover job.
func (j *DailyRolloverJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RolloverStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	today := timeutil.StartOfDay(timeutil.Now())
	yesterday := today.AddDate(0, 0, -1)

	j.logger.Info("starting daily_rollover job",
		"closing_date", timeutil.FormatDateStr(yesterday),
	)

	// Expire first: penalties below are read off the expired status, not
	// off the count returned here, so a rerun after a crash between the
	// two phases still charges whatever the first run left behind.
	expired, err := j.missionRepo.ExpirePending(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to expire pending missions: %w", err)
	}
	stats.MissionsExpired = expired
	j.logger.Info("expired stale missions", "count", expired)

	if j.config.ApplyPenalties {
		j.applyPenalties(ctx, yesterday, stats)
	}

	j.breakMissedStreaks(ctx, yesterday, stats)

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("daily_rollover job completed",
		"duration", stats.Duration.String(),
		"missions_expired", stats.MissionsExpired,
		"penalties_applied", stats.PenaltiesApplied,
		"penalty_xp_total", stats.PenaltyXPTotal,
		"streaks_broken", stats.StreaksBroken,
		"errors", len(stats.Errors),
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("rollover completed with %d errors", len(stats.Errors))
	}

	return nil
}

// applyPenalties charges the XP penalty for every required mission that
// expired on the closing day. The XP journal is the idempotency record:
// a mission whose penalty already landed is skipped, so reruns charge
// only what an interrupted run left behind.
func (j *DailyRolloverJob) applyPenalties(ctx context.Context, day time.Time, stats *RolloverStats) {
	err := forEachHunter(ctx, j.hunterRepo, j.config.PageSize, func(h *hunter.Hunter) {
		daily, err := j.missionRepo.GetDaily(ctx, h.ID, day)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("get daily for %s: %w", h.ID, err))
			return
		}

		for _, m := range daily {
			if !m.Required || m.Status != mission.StatusExpired || m.PenaltyXP >= 0 {
				continue
			}

			charged, err := j.tracker.HasJournaledXP(ctx, h.ID, command.SourceMissionPenalty, m.ID)
			if err != nil {
				stats.Errors = append(stats.Errors, fmt.Errorf("penalty check for %s mission %s: %w", h.ID, m.Key, err))
				continue
			}
			if charged {
				continue
			}

			_, result, err := j.tracker.ApplyXP(ctx, h.ID, m.PenaltyXP, command.SourceMissionPenalty, m.ID, "")
			if err != nil {
				stats.Errors = append(stats.Errors, fmt.Errorf("penalty for %s mission %s: %w", h.ID, m.Key, err))
				continue
			}

			stats.PenaltiesApplied++
			stats.PenaltyXPTotal += result.AppliedDelta

			j.logger.Debug("mission penalty applied",
				"hunter_id", h.ID,
				"mission", m.Key,
				"penalty", result.AppliedDelta,
			)
		}
	})
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Errorf("list hunters for penalties: %w", err))
	}
}

// breakMissedStreaks resets the streak of every hunter who did not clear
// the required board on the closing day.
func (j *DailyRolloverJob) breakMissedStreaks(ctx context.Context, day time.Time, stats *RolloverStats) {
	stale, err := j.hunterRepo.FindWithClearDateBefore(ctx, day)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Errorf("find stale streaks: %w", err))
		return
	}

	for _, h := range stale {
		if ctx.Err() != nil {
			stats.Errors = append(stats.Errors, ctx.Err())
			return
		}

		var previous int
		if _, err := j.tracker.Mutate(ctx, h.ID, func(loaded *hunter.Hunter) error {
			previous = loaded.BreakStreak()
			return nil
		}); err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("break streak for %s: %w", h.ID, err))
			continue
		}

		if previous == 0 {
			continue
		}

		stats.StreaksBroken++
		j.logger.Info("streak broken",
			"hunter_id", h.ID,
			"previous_streak", previous,
		)

		if j.publisher != nil {
			_ = j.publisher.Publish(shared.NewStreakBrokenEvent(h.ID, previous))
		}
	}
}

// LastRunStats returns statistics from the last run.
func (j *DailyRolloverJob) LastRunStats() *RolloverStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RolloverStats)
}
