package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/mission"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// AdvanceMissionCommand represents a request to advance a daily
// mission's progress by a given amount.
type AdvanceMissionCommand struct {
	// HunterID is the mission owner.
	HunterID string

	// MissionKey is the stable key within the day ("agua", "entrenar"...).
	MissionKey string

	// Date is the mission day. Zero value means today (UTC).
	Date time.Time

	// Amount is the progress to add (ml, minutes, meals, reps).
	Amount int

	// CorrelationID links resulting events to the originating request.
	CorrelationID string
}

// Validate checks the command for correctness.
func (c AdvanceMissionCommand) Validate() error {
	if c.HunterID == "" {
		return fmt.Errorf("%w: hunter ID is required", shared.ErrInvalidInput)
	}
	if c.MissionKey == "" {
		return fmt.Errorf("%w: mission key is required", shared.ErrInvalidInput)
	}
	if c.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", shared.ErrInvalidInput)
	}
	return nil
}

// AdvanceMissionResult contains the outcome of a mission advancement.
type AdvanceMissionResult struct {
	// MissionID is the affected mission.
	MissionID string

	// Progress is the progress after advancement.
	Progress int

	// Target is the mission goal.
	Target int

	// JustCompleted is true when this command transitioned the mission
	// from pending to completed. XP is awarded exactly on this transition.
	JustCompleted bool

	// XPAwarded is the mission reward applied to the hunter.
	XPAwarded int

	// NewLevel is the hunter level after the reward (0 when no reward).
	NewLevel int

	// AllRequiredDone is true when every required mission of the day
	// is now completed.
	AllRequiredDone bool
}

// AdvanceMissionHandler processes AdvanceMissionCommand.
type AdvanceMissionHandler struct {
	missionRepo mission.Repository
	tracker     *ProgressTracker
	publisher   shared.EventPublisher
	logger      *slog.Logger

	// grantMu serializes the completion grant and its re-drive. The
	// journal entry is written after the XP grant lands, so the check
	// in redriveReward is only conclusive when no grant is in flight.
	grantMu sync.Mutex
}

// NewAdvanceMissionHandler creates a new AdvanceMissionHandler.
func NewAdvanceMissionHandler(
	missionRepo mission.Repository,
	tracker *ProgressTracker,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *AdvanceMissionHandler {
	return &AdvanceMissionHandler{
		missionRepo: missionRepo,
		tracker:     tracker,
		publisher:   publisher,
		logger:      logger.With("handler", "advance_mission"),
	}
}

// Handle executes the command.
func (h *AdvanceMissionHandler) Handle(ctx context.Context, cmd AdvanceMissionCommand) (*AdvanceMissionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	date := cmd.Date
	if date.IsZero() {
		date = shared.DayOf(time.Now().UTC()).From
	}

	m, err := h.missionRepo.GetByKey(ctx, cmd.HunterID, cmd.MissionKey, date)
	if err != nil {
		return nil, fmt.Errorf("advance mission: %w", err)
	}

	adv, err := m.Advance(cmd.Amount, time.Now().UTC())
	if err != nil {
		// The mission may have completed in an earlier attempt whose
		// reward never landed. Drive the grant to completion before
		// reporting the mission as done.
		if errors.Is(err, mission.ErrAlreadyCompleted) {
			return h.redriveReward(ctx, cmd, m)
		}
		return nil, fmt.Errorf("advance mission: %w", err)
	}

	if adv.JustCompleted {
		h.grantMu.Lock()
		defer h.grantMu.Unlock()
	}

	if err := h.missionRepo.Update(ctx, m); err != nil {
		// A concurrent command completed the mission first. The reward
		// belongs to that command, this one only reports saturation.
		if adv.JustCompleted && errors.Is(err, mission.ErrAlreadyCompleted) {
			h.logger.InfoContext(ctx, "mission completion lost race",
				"hunter_id", cmd.HunterID,
				"mission_key", cmd.MissionKey,
			)
			return &AdvanceMissionResult{
				MissionID: m.ID,
				Progress:  m.Progress,
				Target:    m.Target,
			}, nil
		}
		return nil, fmt.Errorf("advance mission: update: %w", err)
	}

	result := &AdvanceMissionResult{
		MissionID: m.ID,
		Progress:  m.Progress,
		Target:    m.Target,
	}

	if !adv.JustCompleted {
		return result, nil
	}

	result.JustCompleted = true
	result.XPAwarded = m.XPReward

	hunterAfter, _, err := h.tracker.ApplyXPWith(
		ctx, cmd.HunterID, m.XPReward, SourceMissionReward, m.ID, cmd.CorrelationID,
		func(hn *hunter.Hunter) { hn.RecordMissionCompleted() },
	)
	if err != nil {
		return nil, fmt.Errorf("advance mission: reward: %w", err)
	}
	result.NewLevel = hunterAfter.Level

	if h.publisher != nil {
		event := shared.NewMissionCompletedEvent(cmd.HunterID, m.ID, m.Key, m.ExerciseType, m.XPReward)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.publisher.Publish(event)
	}

	h.logger.InfoContext(ctx, "mission completed",
		"hunter_id", cmd.HunterID,
		"mission_key", m.Key,
		"xp_reward", m.XPReward,
	)

	daily, err := h.missionRepo.GetDaily(ctx, cmd.HunterID, date)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load daily missions", "error", err)
		return result, nil
	}

	if mission.AllRequiredCompleted(daily) {
		result.AllRequiredDone = true
		completed := 0
		for _, dm := range daily {
			if dm.IsCompleted() {
				completed++
			}
		}
		if h.publisher != nil {
			event := shared.NewAllRequiredCompletedEvent(cmd.HunterID, date, completed)
			if cmd.CorrelationID != "" {
				event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
			}
			_ = h.publisher.Publish(event)
		}
	}

	return result, nil
}

// redriveReward re-attempts the XP grant for an already completed
// mission. Completion and reward are separate writes: when the grant
// fails after the completion is persisted, a retried command lands here
// and the XP journal decides whether the reward is still owed.
func (h *AdvanceMissionHandler) redriveReward(
	ctx context.Context,
	cmd AdvanceMissionCommand,
	m *mission.Mission,
) (*AdvanceMissionResult, error) {
	if m.XPReward <= 0 {
		return nil, fmt.Errorf("advance mission: %w", mission.ErrAlreadyCompleted)
	}

	h.grantMu.Lock()
	defer h.grantMu.Unlock()

	granted, err := h.tracker.HasJournaledXP(ctx, cmd.HunterID, SourceMissionReward, m.ID)
	if err != nil {
		return nil, fmt.Errorf("advance mission: check reward journal: %w", err)
	}
	if granted {
		return nil, fmt.Errorf("advance mission: %w", mission.ErrAlreadyCompleted)
	}

	hunterAfter, _, err := h.tracker.ApplyXPWith(
		ctx, cmd.HunterID, m.XPReward, SourceMissionReward, m.ID, cmd.CorrelationID,
		func(hn *hunter.Hunter) { hn.RecordMissionCompleted() },
	)
	if err != nil {
		return nil, fmt.Errorf("advance mission: reward: %w", err)
	}

	h.logger.InfoContext(ctx, "recovered lost mission reward",
		"hunter_id", cmd.HunterID,
		"mission_key", m.Key,
		"xp_reward", m.XPReward,
	)

	return &AdvanceMissionResult{
		MissionID:     m.ID,
		Progress:      m.Progress,
		Target:        m.Target,
		JustCompleted: true,
		XPAwarded:     m.XPReward,
		NewLevel:      hunterAfter.Level,
	}, nil
}

// AutoAdvance advances a mission as a side effect of another command.
// Missing, expired and already completed missions are skipped silently.
func (h *AdvanceMissionHandler) AutoAdvance(ctx context.Context, hunterID, missionKey string, amount int, correlationID string) {
	if amount <= 0 {
		return
	}

	_, err := h.Handle(ctx, AdvanceMissionCommand{
		HunterID:      hunterID,
		MissionKey:    missionKey,
		Amount:        amount,
		CorrelationID: correlationID,
	})
	if err == nil {
		return
	}
	if errors.Is(err, mission.ErrNotFound) ||
		errors.Is(err, mission.ErrAlreadyCompleted) ||
		errors.Is(err, mission.ErrExpiredMission) {
		return
	}

	h.logger.WarnContext(ctx, "auto-advance failed",
		"hunter_id", hunterID,
		"mission_key", missionKey,
		"error", err,
	)
}
