package eventhandler

import (
	"context"
	"log/slog"

	"github.com/taker-hub/taker-fitness-hub/internal/application/saga"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON WORKOUT LOGGED HANDLER
// Обрабатывает событие записанной тренировки.
//
// Ключевые функции:
// 1. Продвижение рейдов workout_count — каждая тренировка бьёт босса
// 2. Проверка достижений — вехи по общему числу тренировок
//
// Опыт за тренировку уже начислен командой LogWorkout; здесь только
// побочные эффекты.
// ═══════════════════════════════════════════════════════════════════════════

// OnWorkoutLoggedHandler обрабатывает событие записанной тренировки.
type OnWorkoutLoggedHandler struct {
	raids        *raidProgressor
	achievements *saga.AchievementFlow
	logger       *slog.Logger
	config       WorkoutLoggedConfig
}

// WorkoutLoggedConfig содержит конфигурацию обработчика.
type WorkoutLoggedConfig struct {
	// AdvanceRaids — продвигать ли рейды workout_count.
	AdvanceRaids bool

	// CheckAchievements — проверять ли вехи после тренировки.
	CheckAchievements bool
}

// DefaultWorkoutLoggedConfig возвращает конфигурацию по умолчанию.
func DefaultWorkoutLoggedConfig() WorkoutLoggedConfig {
	return WorkoutLoggedConfig{
		AdvanceRaids:      true,
		CheckAchievements: true,
	}
}

// NewOnWorkoutLoggedHandler создаёт новый обработчик события тренировки.
func NewOnWorkoutLoggedHandler(
	raidRepo raid.Repository,
	achievements *saga.AchievementFlow,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config WorkoutLoggedConfig,
) *OnWorkoutLoggedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("handler", "on_workout_logged")

	return &OnWorkoutLoggedHandler{
		raids: &raidProgressor{
			raidRepo:  raidRepo,
			publisher: publisher,
			logger:    logger,
		},
		achievements: achievements,
		logger:       logger,
		config:       config,
	}
}

// Handle обрабатывает событие записанной тренировки.
// Реализует интерфейс shared.EventHandler.
func (h *OnWorkoutLoggedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	workoutEvent, ok := event.(shared.WorkoutLoggedEvent)
	if !ok {
		h.logger.Warn("received non-WorkoutLoggedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.logger.Info("processing workout logged event",
		"hunter_id", workoutEvent.HunterID,
		"workout_id", workoutEvent.WorkoutID,
		"total_workouts", workoutEvent.TotalWorkouts,
	)

	// 1. Каждая тренировка — один удар по боссам workout_count
	if h.config.AdvanceRaids {
		_, err := h.raids.advance(ctx, workoutEvent.HunterID, raid.BossWorkoutCount, 1)
		if err != nil {
			h.logger.Error("failed to advance workout raids",
				"hunter_id", workoutEvent.HunterID,
				"error", err,
			)
			// Продолжаем — награду за босса выдаст OnRaidCompleted при
			// следующем успешном продвижении
		}
	}

	// 2. Проверяем вехи по числу тренировок
	if h.config.CheckAchievements && h.achievements != nil {
		if _, err := h.achievements.CheckAfterWorkout(ctx, workoutEvent.HunterID); err != nil {
			h.logger.Error("failed to check workout achievements",
				"hunter_id", workoutEvent.HunterID,
				"error", err,
			)
		}
	}

	return nil
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnWorkoutLoggedHandler) EventType() shared.EventType {
	return shared.EventWorkoutLogged
}
