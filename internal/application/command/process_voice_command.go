package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/activity"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/mission"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ParsedVoiceCommand is the structured form of a spoken phrase.
type ParsedVoiceCommand struct {
	// Intent is the recognized action.
	Intent activity.VoiceIntent

	// ExerciseType is the exercise for IntentExercise ("flexiones"...).
	ExerciseType string

	// Amount is reps for exercises or milliliters for hydration.
	Amount int

	// DurationMinutes is the training duration when the phrase names one.
	DurationMinutes int
}

// VoiceParser extracts a structured command from a Spanish transcript.
type VoiceParser interface {
	// Parse parses the transcript. Returns activity.ErrUnknownCommand
	// when no pattern matches.
	Parse(transcript string) (ParsedVoiceCommand, error)
}

// ProcessVoiceCommand represents a spoken phrase to interpret and apply.
type ProcessVoiceCommand struct {
	// HunterID is the speaker.
	HunterID string

	// RequestID deduplicates retried deliveries. Empty disables dedup.
	RequestID string

	// Transcript is the recognized speech text.
	Transcript string

	// CorrelationID links resulting events to the originating request.
	CorrelationID string
}

// Validate checks the command for correctness.
func (c ProcessVoiceCommand) Validate() error {
	if c.HunterID == "" {
		return fmt.Errorf("%w: hunter ID is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(c.Transcript) == "" {
		return fmt.Errorf("%w: transcript is required", shared.ErrInvalidInput)
	}
	return nil
}

// ProcessVoiceResult contains the outcome of a voice command.
type ProcessVoiceResult struct {
	// Intent is the recognized action (IntentUnknown when unrecognized).
	Intent activity.VoiceIntent

	// Recognized is false when the phrase matched no known pattern.
	Recognized bool

	// Response is the spoken reply for the hunter, in Spanish.
	Response string

	// XPGained is the XP awarded by the dispatched action.
	XPGained int
}

// ProcessVoiceHandler interprets voice transcripts and dispatches them
// to the matching activity command.
type ProcessVoiceHandler struct {
	parser       VoiceParser
	workouts     *LogWorkoutHandler
	hydration    *LogHydrationHandler
	hunterRepo   hunter.Repository
	missionRepo  mission.Repository
	activityRepo activity.Repository
	idGen        IDGenerator
	logger       *slog.Logger
}

// NewProcessVoiceHandler creates a new ProcessVoiceHandler.
func NewProcessVoiceHandler(
	parser VoiceParser,
	workouts *LogWorkoutHandler,
	hydration *LogHydrationHandler,
	hunterRepo hunter.Repository,
	missionRepo mission.Repository,
	activityRepo activity.Repository,
	idGen IDGenerator,
	logger *slog.Logger,
) *ProcessVoiceHandler {
	return &ProcessVoiceHandler{
		parser:       parser,
		workouts:     workouts,
		hydration:    hydration,
		hunterRepo:   hunterRepo,
		missionRepo:  missionRepo,
		activityRepo: activityRepo,
		idGen:        idGen,
		logger:       logger.With("handler", "process_voice"),
	}
}

// Handle executes the command.
func (h *ProcessVoiceHandler) Handle(ctx context.Context, cmd ProcessVoiceCommand) (*ProcessVoiceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	parsed, err := h.parser.Parse(cmd.Transcript)
	if err != nil {
		if errors.Is(err, activity.ErrUnknownCommand) {
			result := &ProcessVoiceResult{
				Intent:   activity.IntentUnknown,
				Response: "No te he entendido. Prueba con: 'hice 20 flexiones' o 'bebí 500 ml de agua'.",
			}
			h.saveEntry(ctx, cmd, parsed, result)
			return result, nil
		}
		return nil, fmt.Errorf("process voice: %w", err)
	}

	result, err := h.dispatch(ctx, cmd, parsed)
	if err != nil {
		return nil, fmt.Errorf("process voice: %w", err)
	}
	result.Intent = parsed.Intent
	result.Recognized = true

	h.saveEntry(ctx, cmd, parsed, result)

	h.logger.InfoContext(ctx, "voice command processed",
		"hunter_id", cmd.HunterID,
		"intent", string(parsed.Intent),
	)

	return result, nil
}

func (h *ProcessVoiceHandler) dispatch(ctx context.Context, cmd ProcessVoiceCommand, parsed ParsedVoiceCommand) (*ProcessVoiceResult, error) {
	switch parsed.Intent {
	case activity.IntentExercise:
		return h.handleExercise(ctx, cmd, parsed)
	case activity.IntentHydration:
		return h.handleHydration(ctx, cmd, parsed)
	case activity.IntentStatus:
		return h.handleStatus(ctx, cmd)
	case activity.IntentMissions:
		return h.handleMissions(ctx, cmd)
	default:
		return nil, activity.ErrUnknownCommand
	}
}

func (h *ProcessVoiceHandler) handleExercise(ctx context.Context, cmd ProcessVoiceCommand, parsed ParsedVoiceCommand) (*ProcessVoiceResult, error) {
	duration := parsed.DurationMinutes
	if duration <= 0 {
		// Countable exercises come in as reps. Roughly ten reps per
		// minute of effort.
		duration = parsed.Amount / 10
		if duration < 1 {
			duration = 1
		}
	}

	res, err := h.workouts.Handle(ctx, LogWorkoutCommand{
		HunterID:        cmd.HunterID,
		RequestID:       cmd.RequestID,
		WorkoutType:     parsed.ExerciseType,
		Intensity:       string(shared.IntensityMedium),
		DurationMinutes: duration,
		Reps:            parsed.Amount,
		CorrelationID:   cmd.CorrelationID,
	})
	if err != nil {
		return nil, err
	}

	response := fmt.Sprintf("¡Registrado! %s. Has ganado %d XP.", cmd.Transcript, res.XPGained)
	if res.LeveledUp {
		response = fmt.Sprintf("¡Registrado! Has ganado %d XP y has subido al nivel %d. ¡Sigue así, cazador!", res.XPGained, res.NewLevel)
	}

	return &ProcessVoiceResult{Response: response, XPGained: res.XPGained}, nil
}

func (h *ProcessVoiceHandler) handleHydration(ctx context.Context, cmd ProcessVoiceCommand, parsed ParsedVoiceCommand) (*ProcessVoiceResult, error) {
	res, err := h.hydration.Handle(ctx, LogHydrationCommand{
		HunterID:      cmd.HunterID,
		RequestID:     cmd.RequestID,
		AmountML:      parsed.Amount,
		CorrelationID: cmd.CorrelationID,
	})
	if err != nil {
		return nil, err
	}

	response := fmt.Sprintf("Hidratación registrada: %d ml. Llevas %d de %d ml hoy.", parsed.Amount, res.TotalTodayML, res.GoalML)
	if res.GoalReached {
		response = fmt.Sprintf("Hidratación registrada: %d ml. ¡Objetivo diario de agua completado!", parsed.Amount)
	}

	return &ProcessVoiceResult{Response: response}, nil
}

func (h *ProcessVoiceHandler) handleStatus(ctx context.Context, cmd ProcessVoiceCommand) (*ProcessVoiceResult, error) {
	hn, err := h.hunterRepo.GetByID(ctx, cmd.HunterID)
	if err != nil {
		return nil, err
	}

	response := fmt.Sprintf(
		"%s, nivel %d (%s). Llevas %d de %d XP hacia el siguiente nivel y una racha de %d días.",
		hn.Name, hn.Level, hunter.LevelTitle(hn.Level),
		hn.CurrentXP, hunter.XPToNextLevel(hn.Level), hn.CurrentStreak,
	)

	return &ProcessVoiceResult{Response: response}, nil
}

func (h *ProcessVoiceHandler) handleMissions(ctx context.Context, cmd ProcessVoiceCommand) (*ProcessVoiceResult, error) {
	today := shared.DayOf(time.Now().UTC()).From
	missions, err := h.missionRepo.GetDaily(ctx, cmd.HunterID, today)
	if err != nil {
		return nil, err
	}

	if len(missions) == 0 {
		return &ProcessVoiceResult{Response: "Hoy no tienes misiones pendientes."}, nil
	}

	var sb strings.Builder
	sb.WriteString("Misiones de hoy: ")
	for i, m := range missions {
		if i > 0 {
			sb.WriteString("; ")
		}
		if m.IsCompleted() {
			sb.WriteString(fmt.Sprintf("%s, completada", m.Title))
		} else {
			sb.WriteString(fmt.Sprintf("%s, %d de %d", m.Title, m.Progress, m.Target))
		}
	}
	sb.WriteString(".")

	return &ProcessVoiceResult{Response: sb.String()}, nil
}

func (h *ProcessVoiceHandler) saveEntry(ctx context.Context, cmd ProcessVoiceCommand, parsed ParsedVoiceCommand, result *ProcessVoiceResult) {
	entry := activity.VoiceCommandEntry{
		ID:           h.idGen.GenerateID(),
		HunterID:     cmd.HunterID,
		Transcript:   cmd.Transcript,
		Intent:       result.Intent,
		ExerciseType: parsed.ExerciseType,
		Amount:       parsed.Amount,
		Response:     result.Response,
		OccurredAt:   time.Now().UTC(),
	}
	if err := h.activityRepo.SaveVoiceCommand(ctx, entry); err != nil {
		h.logger.WarnContext(ctx, "failed to save voice command entry", "error", err)
	}
}
