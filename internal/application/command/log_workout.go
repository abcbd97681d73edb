package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/activity"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/mission"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// LogWorkoutCommand represents a request to record a completed workout
// and award XP for it.
type LogWorkoutCommand struct {
	// HunterID is the hunter who worked out.
	HunterID string

	// RequestID deduplicates retried deliveries. Empty disables dedup.
	RequestID string

	// WorkoutType is the kind of training ("flexiones", "correr"...).
	WorkoutType string

	// Intensity is the effort level: low, medium, high, extreme.
	Intensity string

	// DurationMinutes is how long the workout lasted.
	DurationMinutes int

	// Reps is the repetition count for countable exercises (optional).
	Reps int

	// Notes is a free-form note from the hunter (optional).
	Notes string

	// CorrelationID links resulting events to the originating request.
	CorrelationID string
}

// Validate checks the command for correctness.
func (c LogWorkoutCommand) Validate() error {
	if c.HunterID == "" {
		return fmt.Errorf("%w: hunter ID is required", shared.ErrInvalidInput)
	}
	if c.WorkoutType == "" {
		return fmt.Errorf("%w: workout type is required", shared.ErrInvalidInput)
	}
	if _, err := shared.NewIntensity(c.Intensity); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrInvalidIntensity, c.Intensity)
	}
	if c.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", shared.ErrInvalidInput)
	}
	if c.Reps < 0 {
		return fmt.Errorf("%w: reps cannot be negative", shared.ErrInvalidInput)
	}
	return nil
}

// LogWorkoutResult contains the outcome of logging a workout.
type LogWorkoutResult struct {
	// WorkoutID is the stored journal entry.
	WorkoutID string

	// XPGained is the XP awarded for this workout.
	XPGained int

	// LeveledUp is true when the workout pushed the hunter over a
	// level threshold.
	LeveledUp bool

	// NewLevel is the hunter level after the workout.
	NewLevel int

	// TotalWorkouts is the lifetime workout count after this one.
	TotalWorkouts int

	// Duplicate is true when the request was already processed and
	// nothing was changed.
	Duplicate bool
}

// LogWorkoutHandler processes LogWorkoutCommand.
type LogWorkoutHandler struct {
	tracker      *ProgressTracker
	activityRepo activity.Repository
	dedup        activity.Deduplicator
	missions     *AdvanceMissionHandler
	publisher    shared.EventPublisher
	idGen        IDGenerator
	logger       *slog.Logger
}

// NewLogWorkoutHandler creates a new LogWorkoutHandler.
func NewLogWorkoutHandler(
	tracker *ProgressTracker,
	activityRepo activity.Repository,
	dedup activity.Deduplicator,
	missions *AdvanceMissionHandler,
	publisher shared.EventPublisher,
	idGen IDGenerator,
	logger *slog.Logger,
) *LogWorkoutHandler {
	return &LogWorkoutHandler{
		tracker:      tracker,
		activityRepo: activityRepo,
		dedup:        dedup,
		missions:     missions,
		publisher:    publisher,
		idGen:        idGen,
		logger:       logger.With("handler", "log_workout"),
	}
}

// Handle executes the command.
func (h *LogWorkoutHandler) Handle(ctx context.Context, cmd LogWorkoutCommand) (*LogWorkoutResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if cmd.RequestID != "" && h.dedup != nil {
		claimed, err := h.dedup.Claim(ctx, cmd.HunterID, cmd.RequestID, DedupTTL)
		if err != nil {
			return nil, fmt.Errorf("log workout: dedup: %w", err)
		}
		if !claimed {
			h.logger.InfoContext(ctx, "duplicate request skipped",
				"hunter_id", cmd.HunterID,
				"request_id", cmd.RequestID,
			)
			return &LogWorkoutResult{Duplicate: true}, nil
		}
	}

	intensity, _ := shared.NewIntensity(cmd.Intensity)
	xp := hunter.WorkoutXP(intensity, cmd.DurationMinutes)
	workoutID := h.idGen.GenerateID()

	updated, result, err := h.tracker.ApplyXPWith(
		ctx, cmd.HunterID, xp, SourceWorkout, workoutID, cmd.CorrelationID,
		func(hn *hunter.Hunter) { hn.RecordWorkout() },
	)
	if err != nil {
		h.releaseClaim(ctx, cmd)
		return nil, fmt.Errorf("log workout: %w", err)
	}

	entry := activity.WorkoutEntry{
		ID:              workoutID,
		HunterID:        cmd.HunterID,
		WorkoutType:     cmd.WorkoutType,
		Intensity:       intensity,
		DurationMinutes: cmd.DurationMinutes,
		Reps:            cmd.Reps,
		XPGained:        xp,
		Notes:           cmd.Notes,
		OccurredAt:      time.Now().UTC(),
	}
	if err := h.activityRepo.SaveWorkout(ctx, entry); err != nil {
		h.logger.WarnContext(ctx, "failed to save workout entry", "error", err)
	}

	h.publishWorkoutLogged(cmd, updated, workoutID, xp)

	if h.missions != nil {
		h.missions.AutoAdvance(ctx, cmd.HunterID, mission.KeyEntrenar, cmd.DurationMinutes, cmd.CorrelationID)
		if cmd.Reps > 0 {
			h.missions.AutoAdvance(ctx, cmd.HunterID, cmd.WorkoutType, cmd.Reps, cmd.CorrelationID)
		}
	}

	h.logger.InfoContext(ctx, "workout logged",
		"hunter_id", cmd.HunterID,
		"workout_type", cmd.WorkoutType,
		"intensity", cmd.Intensity,
		"duration_min", cmd.DurationMinutes,
		"xp", xp,
	)

	return &LogWorkoutResult{
		WorkoutID:     workoutID,
		XPGained:      xp,
		LeveledUp:     result.LeveledUp(),
		NewLevel:      updated.Level,
		TotalWorkouts: updated.TotalWorkouts,
	}, nil
}

func (h *LogWorkoutHandler) publishWorkoutLogged(
	cmd LogWorkoutCommand,
	updated *hunter.Hunter,
	workoutID string,
	xp int,
) {
	if h.publisher == nil {
		return
	}

	logged := shared.NewWorkoutLoggedEvent(
		cmd.HunterID, workoutID, cmd.WorkoutType, cmd.Intensity,
		cmd.DurationMinutes, xp, updated.TotalWorkouts,
	)
	if cmd.CorrelationID != "" {
		logged.BaseEvent = logged.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.publisher.Publish(logged)
}

// releaseClaim frees the dedup slot so the client can retry after a
// failed attempt.
func (h *LogWorkoutHandler) releaseClaim(ctx context.Context, cmd LogWorkoutCommand) {
	if cmd.RequestID == "" || h.dedup == nil {
		return
	}
	if err := h.dedup.Release(ctx, cmd.HunterID, cmd.RequestID); err != nil {
		h.logger.WarnContext(ctx, "failed to release dedup claim", "error", err)
	}
}
