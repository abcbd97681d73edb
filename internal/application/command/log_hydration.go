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

// LogHydrationCommand represents a request to record drunk water.
type LogHydrationCommand struct {
	// HunterID is the hunter who drank.
	HunterID string

	// RequestID deduplicates retried deliveries. Empty disables dedup.
	RequestID string

	// AmountML is the amount of water in milliliters.
	AmountML int

	// DrinkType names the drink. Defaults to "agua".
	DrinkType string

	// CorrelationID links resulting events to the originating request.
	CorrelationID string
}

// Validate checks the command for correctness.
func (c LogHydrationCommand) Validate() error {
	if c.HunterID == "" {
		return fmt.Errorf("%w: hunter ID is required", shared.ErrInvalidInput)
	}
	if c.AmountML <= 0 {
		return fmt.Errorf("%w: amount must be positive", shared.ErrInvalidInput)
	}
	return nil
}

// LogHydrationResult contains the outcome of logging water intake.
type LogHydrationResult struct {
	// EntryID is the stored journal entry.
	EntryID string

	// TotalTodayML is the total water logged today, including this entry.
	TotalTodayML int

	// GoalML is the daily hydration goal.
	GoalML int

	// GoalReached is true when today's total meets the daily goal.
	GoalReached bool

	// Duplicate is true when the request was already processed.
	Duplicate bool
}

// LogHydrationHandler processes LogHydrationCommand.
type LogHydrationHandler struct {
	activityRepo activity.Repository
	dedup        activity.Deduplicator
	missions     *AdvanceMissionHandler
	idGen        IDGenerator
	logger       *slog.Logger
}

// NewLogHydrationHandler creates a new LogHydrationHandler.
func NewLogHydrationHandler(
	activityRepo activity.Repository,
	dedup activity.Deduplicator,
	missions *AdvanceMissionHandler,
	idGen IDGenerator,
	logger *slog.Logger,
) *LogHydrationHandler {
	return &LogHydrationHandler{
		activityRepo: activityRepo,
		dedup:        dedup,
		missions:     missions,
		idGen:        idGen,
		logger:       logger.With("handler", "log_hydration"),
	}
}

// Handle executes the command.
func (h *LogHydrationHandler) Handle(ctx context.Context, cmd LogHydrationCommand) (*LogHydrationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if cmd.RequestID != "" && h.dedup != nil {
		claimed, err := h.dedup.Claim(ctx, cmd.HunterID, cmd.RequestID, DedupTTL)
		if err != nil {
			return nil, fmt.Errorf("log hydration: dedup: %w", err)
		}
		if !claimed {
			return &LogHydrationResult{Duplicate: true}, nil
		}
	}

	drink := cmd.DrinkType
	if drink == "" {
		drink = "agua"
	}

	now := time.Now().UTC()
	entry := activity.HydrationEntry{
		ID:         h.idGen.GenerateID(),
		HunterID:   cmd.HunterID,
		AmountML:   cmd.AmountML,
		DrinkType:  drink,
		OccurredAt: now,
	}
	if err := h.activityRepo.SaveHydration(ctx, entry); err != nil {
		return nil, fmt.Errorf("log hydration: %w", err)
	}

	if h.missions != nil {
		h.missions.AutoAdvance(ctx, cmd.HunterID, mission.KeyAgua, cmd.AmountML, cmd.CorrelationID)
	}

	dayStart := shared.DayOf(now).From
	total, err := h.activityRepo.SumHydration(ctx, cmd.HunterID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to sum hydration", "error", err)
		total = cmd.AmountML
	}

	h.logger.InfoContext(ctx, "hydration logged",
		"hunter_id", cmd.HunterID,
		"amount_ml", cmd.AmountML,
		"total_today_ml", total,
	)

	return &LogHydrationResult{
		EntryID:      entry.ID,
		TotalTodayML: total,
		GoalML:       hunter.HydrationDailyGoalML,
		GoalReached:  total >= hunter.HydrationDailyGoalML,
	}, nil
}
