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

// LogNutritionCommand represents a request to record a meal. Healthy
// meals earn XP, unhealthy meals cost a little.
type LogNutritionCommand struct {
	// HunterID is the hunter who ate.
	HunterID string

	// RequestID deduplicates retried deliveries. Empty disables dedup.
	RequestID string

	// Description is a free-form meal description.
	Description string

	// Calories is an optional calorie estimate.
	Calories int

	// Healthy marks the meal as healthy.
	Healthy bool

	// CorrelationID links resulting events to the originating request.
	CorrelationID string
}

// Validate checks the command for correctness.
func (c LogNutritionCommand) Validate() error {
	if c.HunterID == "" {
		return fmt.Errorf("%w: hunter ID is required", shared.ErrInvalidInput)
	}
	return nil
}

// LogNutritionResult contains the outcome of logging a meal.
type LogNutritionResult struct {
	// EntryID is the stored journal entry.
	EntryID string

	// XPDelta is the XP change (positive or negative).
	XPDelta int

	// AppliedDelta is the XP change after clamping at zero.
	AppliedDelta int

	// NewLevel is the hunter level after the meal.
	NewLevel int

	// Duplicate is true when the request was already processed.
	Duplicate bool
}

// LogNutritionHandler processes LogNutritionCommand.
type LogNutritionHandler struct {
	tracker      *ProgressTracker
	activityRepo activity.Repository
	dedup        activity.Deduplicator
	missions     *AdvanceMissionHandler
	idGen        IDGenerator
	logger       *slog.Logger
}

// NewLogNutritionHandler creates a new LogNutritionHandler.
func NewLogNutritionHandler(
	tracker *ProgressTracker,
	activityRepo activity.Repository,
	dedup activity.Deduplicator,
	missions *AdvanceMissionHandler,
	idGen IDGenerator,
	logger *slog.Logger,
) *LogNutritionHandler {
	return &LogNutritionHandler{
		tracker:      tracker,
		activityRepo: activityRepo,
		dedup:        dedup,
		missions:     missions,
		idGen:        idGen,
		logger:       logger.With("handler", "log_nutrition"),
	}
}

// Handle executes the command.
func (h *LogNutritionHandler) Handle(ctx context.Context, cmd LogNutritionCommand) (*LogNutritionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if cmd.RequestID != "" && h.dedup != nil {
		claimed, err := h.dedup.Claim(ctx, cmd.HunterID, cmd.RequestID, DedupTTL)
		if err != nil {
			return nil, fmt.Errorf("log nutrition: dedup: %w", err)
		}
		if !claimed {
			return &LogNutritionResult{Duplicate: true}, nil
		}
	}

	entryID := h.idGen.GenerateID()
	delta := hunter.NutritionXP(cmd.Healthy)

	updated, result, err := h.tracker.ApplyXP(ctx, cmd.HunterID, delta, SourceNutrition, entryID, cmd.CorrelationID)
	if err != nil {
		return nil, fmt.Errorf("log nutrition: %w", err)
	}

	entry := activity.NutritionEntry{
		ID:          entryID,
		HunterID:    cmd.HunterID,
		Description: cmd.Description,
		Calories:    cmd.Calories,
		Healthy:     cmd.Healthy,
		XPDelta:     delta,
		OccurredAt:  time.Now().UTC(),
	}
	if err := h.activityRepo.SaveNutrition(ctx, entry); err != nil {
		h.logger.WarnContext(ctx, "failed to save nutrition entry", "error", err)
	}

	if cmd.Healthy && h.missions != nil {
		h.missions.AutoAdvance(ctx, cmd.HunterID, mission.KeyComer, 1, cmd.CorrelationID)
	}

	h.logger.InfoContext(ctx, "nutrition logged",
		"hunter_id", cmd.HunterID,
		"healthy", cmd.Healthy,
		"xp_delta", delta,
	)

	return &LogNutritionResult{
		EntryID:      entryID,
		XPDelta:      delta,
		AppliedDelta: result.AppliedDelta,
		NewLevel:     updated.Level,
	}, nil
}
