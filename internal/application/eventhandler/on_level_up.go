package eventhandler

import (
	"context"
	"log/slog"

	"github.com/taker-hub/taker-fitness-hub/internal/application/saga"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LEVEL UP HANDLER
// Обрабатывает событие повышения уровня охотника.
//
// Ключевые функции:
// 1. Синхронизация рейдов level_target — прогресс замещается новым уровнем
// 2. Проверка достижений — вехи по уровню (5, 10, 25, 50)
//
// Пакетное начисление опыта даёт одно событие со всем диапазоном уровней,
// поэтому sync по NewLevel закрывает все пересечённые цели разом.
// ═══════════════════════════════════════════════════════════════════════════

// OnLevelUpHandler обрабатывает событие повышения уровня.
type OnLevelUpHandler struct {
	raids        *raidProgressor
	achievements *saga.AchievementFlow
	logger       *slog.Logger
}

// NewOnLevelUpHandler создаёт новый обработчик события повышения уровня.
func NewOnLevelUpHandler(
	raidRepo raid.Repository,
	achievements *saga.AchievementFlow,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *OnLevelUpHandler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("handler", "on_level_up")

	return &OnLevelUpHandler{
		raids: &raidProgressor{
			raidRepo:  raidRepo,
			publisher: publisher,
			logger:    logger,
		},
		achievements: achievements,
		logger:       logger,
	}
}

// Handle обрабатывает событие повышения уровня.
// Реализует интерфейс shared.EventHandler.
func (h *OnLevelUpHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	levelEvent, ok := event.(shared.LevelUpEvent)
	if !ok {
		h.logger.Warn("received non-LevelUpEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.logger.Info("processing level up event",
		"hunter_id", levelEvent.HunterID,
		"old_level", levelEvent.OldLevel,
		"new_level", levelEvent.NewLevel,
	)

	// 1. Рейды level_target догоняют новый уровень
	_, err := h.raids.sync(ctx, levelEvent.HunterID, raid.BossLevelTarget, levelEvent.NewLevel)
	if err != nil {
		h.logger.Error("failed to sync level raids",
			"hunter_id", levelEvent.HunterID,
			"error", err,
		)
	}

	// 2. Проверяем вехи по уровню
	if h.achievements != nil {
		if _, err := h.achievements.CheckAfterLevelUp(ctx, levelEvent.HunterID); err != nil {
			h.logger.Error("failed to check level achievements",
				"hunter_id", levelEvent.HunterID,
				"error", err,
			)
		}
	}

	return nil
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnLevelUpHandler) EventType() shared.EventType {
	return shared.EventLevelUp
}
