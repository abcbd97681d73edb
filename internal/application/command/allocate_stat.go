package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// AllocateStatCommand represents a request to spend one available
// stat point on a characteristic.
type AllocateStatCommand struct {
	// HunterID is the hunter spending the point.
	HunterID string

	// Stat is the characteristic key: str, agi, int, vit, cha.
	Stat string

	// CorrelationID links resulting events to the originating request.
	CorrelationID string
}

// Validate checks the command for correctness.
func (c AllocateStatCommand) Validate() error {
	if c.HunterID == "" {
		return fmt.Errorf("%w: hunter ID is required", shared.ErrInvalidInput)
	}
	if !shared.StatKey(c.Stat).IsValid() {
		return fmt.Errorf("%w: %s", shared.ErrInvalidStatKey, c.Stat)
	}
	return nil
}

// AllocateStatResult contains the outcome of a stat allocation.
type AllocateStatResult struct {
	// Stat is the allocated characteristic.
	Stat string

	// NewValue is the characteristic value after allocation.
	NewValue int

	// PointsLeft is how many points remain unspent.
	PointsLeft int
}

// AllocateStatHandler processes AllocateStatCommand.
type AllocateStatHandler struct {
	tracker     *ProgressTracker
	historyRepo hunter.HistoryRepository
	logger      *slog.Logger
}

// NewAllocateStatHandler creates a new AllocateStatHandler.
func NewAllocateStatHandler(
	tracker *ProgressTracker,
	historyRepo hunter.HistoryRepository,
	logger *slog.Logger,
) *AllocateStatHandler {
	return &AllocateStatHandler{
		tracker:     tracker,
		historyRepo: historyRepo,
		logger:      logger.With("handler", "allocate_stat"),
	}
}

// Handle executes the command.
func (h *AllocateStatHandler) Handle(ctx context.Context, cmd AllocateStatCommand) (*AllocateStatResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	key := shared.StatKey(cmd.Stat)

	updated, err := h.tracker.Mutate(ctx, cmd.HunterID, func(hn *hunter.Hunter) error {
		return hn.AllocateStat(key)
	})
	if err != nil {
		return nil, fmt.Errorf("allocate stat: %w", err)
	}

	if h.historyRepo != nil {
		_ = h.historyRepo.SaveStatChange(ctx, hunter.StatHistoryEntry{
			HunterID:   cmd.HunterID,
			Stat:       key,
			Delta:      1,
			OldValue:   updated.Stats[key] - 1,
			NewValue:   updated.Stats[key],
			Reason:     "allocation",
			OccurredAt: time.Now().UTC(),
		})
	}

	h.logger.InfoContext(ctx, "stat allocated",
		"hunter_id", cmd.HunterID,
		"stat", cmd.Stat,
		"new_value", updated.Stats[key],
		"points_left", updated.AvailablePoints,
	)

	return &AllocateStatResult{
		Stat:       cmd.Stat,
		NewValue:   updated.Stats[key],
		PointsLeft: updated.AvailablePoints,
	}, nil
}
