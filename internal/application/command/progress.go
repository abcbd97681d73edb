// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/leaderboard"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
	"github.com/taker-hub/taker-fitness-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED COMMAND DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// IDGenerator generates unique identifiers for new records.
type IDGenerator interface {
	// GenerateID generates a new unique ID.
	GenerateID() string
}

// XP sources recorded in the history journal.
const (
	SourceWorkout        = "workout"
	SourceNutrition      = "nutrition"
	SourceMissionReward  = "mission_reward"
	SourceDailyBonus     = "daily_bonus"
	SourceRaidReward     = "raid_reward"
	SourceMissionPenalty = "mission_penalty"
)

// DedupTTL is how long a claimed request ID blocks redelivery.
const DedupTTL = 24 * time.Hour

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS TRACKER
// Applies XP deltas to hunter profiles under optimistic concurrency.
// A version conflict means another command won the race: reload and
// reapply on a fresh copy. Conflicts are transient, so the whole
// load-mutate-save cycle runs inside a retrier.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressTracker centralizes XP application and its side effects:
// history journal, leaderboard score, and progression events.
type ProgressTracker struct {
	hunterRepo      hunter.Repository
	historyRepo     hunter.HistoryRepository
	leaderboardRepo leaderboard.Repository
	publisher       shared.EventPublisher
	retrier         *retry.Retrier
}

// NewProgressTracker creates a new ProgressTracker.
func NewProgressTracker(
	hunterRepo hunter.Repository,
	historyRepo hunter.HistoryRepository,
	leaderboardRepo leaderboard.Repository,
	publisher shared.EventPublisher,
) *ProgressTracker {
	return &ProgressTracker{
		hunterRepo:      hunterRepo,
		historyRepo:     historyRepo,
		leaderboardRepo: leaderboardRepo,
		publisher:       publisher,
		retrier:         retry.VersionConflictRetrier(),
	}
}

// ApplyXP applies an XP delta to the hunter identified by hunterID.
// Returns the updated hunter and the application result.
func (t *ProgressTracker) ApplyXP(
	ctx context.Context,
	hunterID string,
	delta int,
	source, sourceID, correlationID string,
) (*hunter.Hunter, hunter.XPResult, error) {
	return t.ApplyXPWith(ctx, hunterID, delta, source, sourceID, correlationID, nil)
}

// ApplyXPWith applies an XP delta together with a companion mutation
// (counters, streaks) in the same atomic write. The mutation runs on
// every retry attempt, so it must be a pure state change.
func (t *ProgressTracker) ApplyXPWith(
	ctx context.Context,
	hunterID string,
	delta int,
	source, sourceID, correlationID string,
	also func(h *hunter.Hunter),
) (*hunter.Hunter, hunter.XPResult, error) {
	var (
		h      *hunter.Hunter
		result hunter.XPResult
	)

	err := t.retrier.Do(ctx, func(ctx context.Context) error {
		loaded, err := t.hunterRepo.GetByID(ctx, hunterID)
		if err != nil {
			return retry.Permanent(err)
		}

		if also != nil {
			also(loaded)
		}
		r := loaded.ApplyXP(delta)

		if err := t.hunterRepo.Update(ctx, loaded); err != nil {
			if errors.Is(err, hunter.ErrVersionConflict) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}

		h = loaded
		result = r
		return nil
	})
	if err != nil {
		return nil, hunter.XPResult{}, fmt.Errorf("progress: apply xp: %w", err)
	}

	t.recordAndPublish(ctx, h, result, source, sourceID, correlationID)
	return h, result, nil
}

// HasJournaledXP reports whether an XP grant for the given source and
// source ID was journaled. Without a journal there is no way to tell,
// so the tracker answers true and callers never re-drive a grant.
func (t *ProgressTracker) HasJournaledXP(ctx context.Context, hunterID, source, sourceID string) (bool, error) {
	if t.historyRepo == nil {
		return true, nil
	}
	return t.historyRepo.HasXPChange(ctx, hunterID, source, sourceID)
}

// Mutate runs an arbitrary mutation on the hunter under the same
// optimistic-concurrency retry loop. The mutation must be idempotent
// against a freshly loaded profile.
func (t *ProgressTracker) Mutate(
	ctx context.Context,
	hunterID string,
	mutate func(h *hunter.Hunter) error,
) (*hunter.Hunter, error) {
	var h *hunter.Hunter

	err := t.retrier.Do(ctx, func(ctx context.Context) error {
		loaded, err := t.hunterRepo.GetByID(ctx, hunterID)
		if err != nil {
			return retry.Permanent(err)
		}

		if err := mutate(loaded); err != nil {
			return retry.Permanent(err)
		}

		if err := t.hunterRepo.Update(ctx, loaded); err != nil {
			if errors.Is(err, hunter.ErrVersionConflict) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}

		h = loaded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("progress: mutate hunter: %w", err)
	}

	return h, nil
}

// recordAndPublish writes the XP journal entry, refreshes the
// leaderboard score, and publishes progression events. All three are
// best-effort: the profile change is already durable.
func (t *ProgressTracker) recordAndPublish(
	ctx context.Context,
	h *hunter.Hunter,
	result hunter.XPResult,
	source, sourceID, correlationID string,
) {
	if t.historyRepo != nil && result.AppliedDelta != 0 {
		_ = t.historyRepo.SaveXPChange(ctx, hunter.XPHistoryEntry{
			HunterID:     h.ID,
			Delta:        result.Delta,
			AppliedDelta: result.AppliedDelta,
			LevelAfter:   h.Level,
			Source:       source,
			SourceID:     sourceID,
			OccurredAt:   time.Now().UTC(),
		})
	}

	if t.leaderboardRepo != nil && result.AppliedDelta > 0 {
		_ = t.leaderboardRepo.UpdateScore(ctx, h.ID, h.TotalXP)
	}

	if t.publisher == nil {
		return
	}

	if result.AppliedDelta != 0 {
		event := shared.NewXPGainedEvent(h.ID, result.AppliedDelta, h.TotalXP, source, sourceID)
		if correlationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(correlationID)
		}
		_ = t.publisher.Publish(event)
	}

	if result.LeveledUp() {
		event := shared.NewLevelUpEvent(h.ID, result.OldLevel, result.NewLevel)
		if correlationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(correlationID)
		}
		_ = t.publisher.Publish(event)
	}
}
