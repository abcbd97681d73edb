package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taker-hub/taker-fitness-hub/internal/application/command"
	"github.com/taker-hub/taker-fitness-hub/internal/application/saga"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON DAILY CLEAR HANDLER
// Обрабатывает событие полного выполнения обязательных миссий дня.
//
// Ключевые функции:
// 1. Продление серии — AdvanceStreak идемпотентен в пределах дня
// 2. Бонус за полный день — начисляется только при реальном продлении серии
// 3. Синхронизация рейдов daily_streak
// 4. Проверка достижений — вехи по серии (3, 7, 30)
//
// Повторное событие за тот же день (гонка двух завершений миссий) не
// продлевает серию и не даёт второй бонус.
// ═══════════════════════════════════════════════════════════════════════════

// OnDailyClearHandler обрабатывает событие полного выполнения дня.
type OnDailyClearHandler struct {
	tracker      *command.ProgressTracker
	raids        *raidProgressor
	achievements *saga.AchievementFlow
	publisher    shared.EventPublisher
	logger       *slog.Logger
	config       DailyClearConfig
}

// DailyClearConfig содержит конфигурацию обработчика.
type DailyClearConfig struct {
	// BonusXP — бонус опыта за полное выполнение дня.
	BonusXP int
}

// DefaultDailyClearConfig возвращает конфигурацию по умолчанию.
func DefaultDailyClearConfig() DailyClearConfig {
	return DailyClearConfig{
		BonusXP: hunter.DailyClearBonusXP,
	}
}

// NewOnDailyClearHandler создаёт новый обработчик полного выполнения дня.
func NewOnDailyClearHandler(
	tracker *command.ProgressTracker,
	raidRepo raid.Repository,
	achievements *saga.AchievementFlow,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config DailyClearConfig,
) *OnDailyClearHandler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("handler", "on_daily_clear")

	if config.BonusXP <= 0 {
		config.BonusXP = hunter.DailyClearBonusXP
	}

	return &OnDailyClearHandler{
		tracker: tracker,
		raids: &raidProgressor{
			raidRepo:  raidRepo,
			publisher: publisher,
			logger:    logger,
		},
		achievements: achievements,
		publisher:    publisher,
		logger:       logger,
		config:       config,
	}
}

// Handle обрабатывает событие полного выполнения дня.
// Реализует интерфейс shared.EventHandler.
func (h *OnDailyClearHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	clearEvent, ok := event.(shared.AllRequiredCompletedEvent)
	if !ok {
		h.logger.Warn("received non-AllRequiredCompletedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.logger.Info("processing daily clear event",
		"hunter_id", clearEvent.HunterID,
		"date", clearEvent.Date.Format("2006-01-02"),
	)

	// 1. Продлеваем серию. Продление — единственный пропуск к бонусу:
	// повторное событие за тот же день ничего не меняет.
	var advanced bool
	updated, err := h.tracker.Mutate(ctx, clearEvent.HunterID, func(hn *hunter.Hunter) error {
		advanced = hn.AdvanceStreak(clearEvent.Date)
		return nil
	})
	if err != nil {
		h.logger.Error("failed to advance streak",
			"hunter_id", clearEvent.HunterID,
			"error", err,
		)
		return fmt.Errorf("advance streak: %w", err)
	}

	if !advanced {
		h.logger.Debug("day already cleared, skipping bonus",
			"hunter_id", clearEvent.HunterID,
			"date", clearEvent.Date.Format("2006-01-02"),
		)
		return nil
	}

	h.publishStreakUpdated(updated)

	// 2. Бонус за полный день
	sourceID := clearEvent.Date.Format("2006-01-02")
	_, _, err = h.tracker.ApplyXP(
		ctx, clearEvent.HunterID, h.config.BonusXP,
		command.SourceDailyBonus, sourceID, clearEvent.CorrelationID,
	)
	if err != nil {
		h.logger.Error("failed to award daily clear bonus",
			"hunter_id", clearEvent.HunterID,
			"error", err,
		)
	}

	// 3. Рейды daily_streak догоняют новую серию
	_, err = h.raids.sync(ctx, clearEvent.HunterID, raid.BossDailyStreak, updated.CurrentStreak)
	if err != nil {
		h.logger.Error("failed to sync streak raids",
			"hunter_id", clearEvent.HunterID,
			"error", err,
		)
	}

	// 4. Проверяем вехи по серии
	if h.achievements != nil {
		if _, err := h.achievements.CheckAfterStreak(ctx, clearEvent.HunterID); err != nil {
			h.logger.Error("failed to check streak achievements",
				"hunter_id", clearEvent.HunterID,
				"error", err,
			)
		}
	}

	return nil
}

// publishStreakUpdated публикует событие продления серии.
func (h *OnDailyClearHandler) publishStreakUpdated(hn *hunter.Hunter) {
	if h.publisher == nil {
		return
	}

	event := shared.NewStreakUpdatedEvent(hn.ID, hn.CurrentStreak, hn.MaxStreak)
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish streak updated event",
			"hunter_id", hn.ID,
			"error", err,
		)
	}
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnDailyClearHandler) EventType() shared.EventType {
	return shared.EventAllRequiredCompleted
}
