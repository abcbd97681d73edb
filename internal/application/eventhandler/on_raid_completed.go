package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/application/command"
	"github.com/taker-hub/taker-fitness-hub/internal/application/saga"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON RAID COMPLETED HANDLER
// Обрабатывает событие победы над боссом.
//
// Ключевые функции:
// 1. Награда — опыт и очки атрибутов из Reward рейда
// 2. Журнал атрибутов — запись с причиной boss_reward_<id>
// 3. Достижение за босса — boss_<id>, редкость от сложности рейда
//
// Событие публикуется ровно один раз (переход active -> completed),
// поэтому награда не дублируется. Достижение дополнительно защищено
// SaveIfAbsent на случай повторной доставки события.
// ═══════════════════════════════════════════════════════════════════════════

// OnRaidCompletedHandler обрабатывает событие победы над боссом.
type OnRaidCompletedHandler struct {
	tracker      *command.ProgressTracker
	raidRepo     raid.Repository
	historyRepo  hunter.HistoryRepository
	achievements *saga.AchievementFlow
	logger       *slog.Logger
}

// NewOnRaidCompletedHandler создаёт новый обработчик победы над боссом.
func NewOnRaidCompletedHandler(
	tracker *command.ProgressTracker,
	raidRepo raid.Repository,
	historyRepo hunter.HistoryRepository,
	achievements *saga.AchievementFlow,
	logger *slog.Logger,
) *OnRaidCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnRaidCompletedHandler{
		tracker:      tracker,
		raidRepo:     raidRepo,
		historyRepo:  historyRepo,
		achievements: achievements,
		logger:       logger.With("handler", "on_raid_completed"),
	}
}

// Handle обрабатывает событие победы над боссом.
// Реализует интерфейс shared.EventHandler.
func (h *OnRaidCompletedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	raidEvent, ok := event.(shared.RaidCompletedEvent)
	if !ok {
		h.logger.Warn("received non-RaidCompletedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.logger.Info("processing raid completed event",
		"hunter_id", raidEvent.HunterID,
		"raid_id", raidEvent.RaidID,
		"difficulty", raidEvent.Difficulty,
	)

	// Награда и achievement key берутся из самого рейда, не из события
	completed, err := h.raidRepo.GetByID(ctx, raidEvent.RaidID)
	if err != nil {
		h.logger.Error("failed to load completed raid",
			"raid_id", raidEvent.RaidID,
			"error", err,
		)
		return fmt.Errorf("get raid: %w", err)
	}

	// 1. Выдаём награду: опыт и очки атрибутов одной атомарной записью
	reward := completed.Reward
	updated, _, err := h.tracker.ApplyXPWith(
		ctx, raidEvent.HunterID, reward.XP,
		command.SourceRaidReward, completed.ID, raidEvent.CorrelationID,
		func(hn *hunter.Hunter) {
			for key, points := range reward.Stats {
				hn.Stats[key] += points
			}
		},
	)
	if err != nil {
		h.logger.Error("failed to grant raid reward",
			"hunter_id", raidEvent.HunterID,
			"raid_id", completed.ID,
			"error", err,
		)
		return fmt.Errorf("grant raid reward: %w", err)
	}

	// 2. Фиксируем изменения атрибутов в журнале: одна запись на атрибут
	if len(reward.Stats) > 0 {
		h.recordStatReward(ctx, updated, completed)
	}

	// 3. Чеканим достижение за босса
	if h.achievements != nil {
		if _, err := h.achievements.CheckAfterRaidVictory(ctx, raidEvent.HunterID, completed); err != nil {
			h.logger.Error("failed to mint boss achievement",
				"hunter_id", raidEvent.HunterID,
				"raid_id", completed.ID,
				"error", err,
			)
		}
	}

	h.logger.Info("raid reward granted",
		"hunter_id", raidEvent.HunterID,
		"raid_id", completed.ID,
		"xp", reward.XP,
		"stat_points", reward.TotalStatPoints(),
	)

	return nil
}

// recordStatReward пишет записи журнала атрибутов о награде за босса,
// по одной записи на каждый усиленный атрибут.
func (h *OnRaidCompletedHandler) recordStatReward(
	ctx context.Context,
	updated *hunter.Hunter,
	completed *raid.Raid,
) {
	if h.historyRepo == nil {
		return
	}

	now := time.Now().UTC()
	for key, points := range completed.Reward.Stats {
		newValue := updated.Stats[key]

		entry := hunter.StatHistoryEntry{
			HunterID:   updated.ID,
			Stat:       key,
			Delta:      points,
			OldValue:   newValue - points,
			NewValue:   newValue,
			Reason:     completed.RewardReason(),
			OccurredAt: now,
		}

		if err := h.historyRepo.SaveStatChange(ctx, entry); err != nil {
			h.logger.Warn("failed to record stat reward",
				"hunter_id", updated.ID,
				"stat", key,
				"raid_id", completed.ID,
				"error", err,
			)
		}
	}
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnRaidCompletedHandler) EventType() shared.EventType {
	return shared.EventRaidCompleted
}
