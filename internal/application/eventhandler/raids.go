// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// RAID PROGRESSOR
// Общая механика продвижения рейдов для обработчиков событий.
//
// Два режима продвижения:
//   - advance: накопительный счётчик (workout_count) — каждое событие
//     прибавляет к прогрессу
//   - sync: метрика-значение (level_target, daily_streak) — прогресс
//     замещается текущим значением и никогда не откатывается
//
// Переход active -> completed случается ровно один раз; проигравший
// гонку Update получает ErrAlreadyCompleted и молча пропускает босса.
// ═══════════════════════════════════════════════════════════════════════════

// raidProgressor продвигает активные рейды охотника и публикует события.
type raidProgressor struct {
	raidRepo  raid.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// advance увеличивает накопительный прогресс всех активных рейдов типа.
// Возвращает рейды, завершённые именно этим продвижением.
func (p *raidProgressor) advance(
	ctx context.Context,
	hunterID string,
	bossType raid.BossType,
	amount int,
) ([]*raid.Raid, error) {
	return p.progress(ctx, hunterID, bossType, func(r *raid.Raid, now time.Time) (raid.AdvanceResult, error) {
		return r.AdvanceBy(amount, now)
	})
}

// sync замещает прогресс всех активных рейдов типа текущим значением метрики.
func (p *raidProgressor) sync(
	ctx context.Context,
	hunterID string,
	bossType raid.BossType,
	value int,
) ([]*raid.Raid, error) {
	return p.progress(ctx, hunterID, bossType, func(r *raid.Raid, now time.Time) (raid.AdvanceResult, error) {
		return r.SyncTo(value, now)
	})
}

// progress применяет шаг продвижения к каждому активному рейду типа.
func (p *raidProgressor) progress(
	ctx context.Context,
	hunterID string,
	bossType raid.BossType,
	step func(r *raid.Raid, now time.Time) (raid.AdvanceResult, error),
) ([]*raid.Raid, error) {
	active, err := p.raidRepo.GetActiveByType(ctx, hunterID, bossType)
	if err != nil {
		return nil, fmt.Errorf("get active raids: %w", err)
	}

	now := time.Now().UTC()
	var completed []*raid.Raid

	for _, r := range active {
		before := r.Progress

		result, err := step(r, now)
		if err != nil {
			// Босс повержен между выборкой и продвижением
			if errors.Is(err, raid.ErrAlreadyCompleted) {
				continue
			}
			return completed, fmt.Errorf("advance raid %s: %w", r.ID, err)
		}

		if result.Progress == before && !result.JustCompleted {
			continue
		}

		if err := p.raidRepo.Update(ctx, r); err != nil {
			// Параллельный обработчик завершил рейд первым — награда уже его
			if errors.Is(err, raid.ErrAlreadyCompleted) {
				p.logger.Debug("raid completion lost race",
					"raid_id", r.ID,
					"hunter_id", hunterID,
				)
				continue
			}
			return completed, fmt.Errorf("update raid %s: %w", r.ID, err)
		}

		if result.JustCompleted {
			completed = append(completed, r)
			p.publishCompleted(r)
			continue
		}

		p.publishProgressed(r)
	}

	return completed, nil
}

// publishProgressed публикует событие продвижения рейда.
func (p *raidProgressor) publishProgressed(r *raid.Raid) {
	if p.publisher == nil {
		return
	}

	event := shared.NewRaidProgressedEvent(
		r.HunterID, r.ID, string(r.BossType), r.Progress, r.Target,
	)
	if err := p.publisher.Publish(event); err != nil {
		p.logger.Warn("failed to publish raid progressed event",
			"raid_id", r.ID,
			"error", err,
		)
	}
}

// publishCompleted публикует событие победы над боссом.
// Награду выдаёт обработчик OnRaidCompleted.
func (p *raidProgressor) publishCompleted(r *raid.Raid) {
	if p.publisher == nil {
		return
	}

	event := shared.NewRaidCompletedEvent(
		r.HunterID, r.ID, string(r.BossType), r.Difficulty.String(), r.Reward.XP,
	)
	if err := p.publisher.Publish(event); err != nil {
		p.logger.Error("failed to publish raid completed event",
			"raid_id", r.ID,
			"error", err,
		)
	}
}
