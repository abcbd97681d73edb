// Package raid содержит доменную модель босс-рейдов - долгосрочных
// испытаний охотника с наградами опыта и атрибутов.
package raid

import (
	"errors"
	"fmt"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// BossType определяет источник прогресса рейда.
type BossType string

const (
	// BossWorkoutCount - прогресс растёт на единицу с каждой тренировкой.
	BossWorkoutCount BossType = "workout_count"
	// BossLevelTarget - прогресс замещается текущим уровнем охотника.
	BossLevelTarget BossType = "level_target"
	// BossDailyStreak - прогресс замещается текущей серией дней.
	// Продвигается только полным выполнением дневных миссий.
	BossDailyStreak BossType = "daily_streak"
)

// IsValid проверяет, что тип босса корректен.
func (b BossType) IsValid() bool {
	switch b {
	case BossWorkoutCount, BossLevelTarget, BossDailyStreak:
		return true
	default:
		return false
	}
}

// IsCumulative возвращает true для типов с накопительным прогрессом.
// Для остальных прогресс замещается текущим значением метрики.
func (b BossType) IsCumulative() bool {
	return b == BossWorkoutCount
}

// Status определяет текущий статус рейда.
type Status string

const (
	// StatusActive - рейд идёт.
	StatusActive Status = "active"
	// StatusCompleted - босс повержен. Состояние терминальное.
	StatusCompleted Status = "completed"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusCompleted
}

// ══════════════════════════════════════════════════════════════════════════════
// REWARD
// ══════════════════════════════════════════════════════════════════════════════

// Reward описывает награду за победу над боссом.
type Reward struct {
	// XP - награда опыта.
	XP int

	// Stats - бонусы атрибутов: ключ -> положительная прибавка.
	// Один босс может усиливать несколько атрибутов сразу.
	Stats map[shared.StatKey]int
}

// IsValid проверяет корректность награды.
func (r Reward) IsValid() bool {
	if r.XP < 0 {
		return false
	}
	for key, points := range r.Stats {
		if !key.IsValid() || points <= 0 {
			return false
		}
	}
	return true
}

// TotalStatPoints возвращает суммарное количество очков атрибутов в награде.
func (r Reward) TotalStatPoints() int {
	total := 0
	for _, points := range r.Stats {
		total += points
	}
	return total
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: RAID
// ══════════════════════════════════════════════════════════════════════════════

// Raid - один босс-рейд охотника.
type Raid struct {
	// ID - уникальный идентификатор рейда (UUID).
	ID string

	// HunterID - идентификатор владельца.
	HunterID string

	// Key - стабильный ключ босса ("racha_de_fuego"...). Пара
	// (HunterID, Key) уникальна: повторный посев не создаёт дублей.
	Key string

	// Name - отображаемое имя босса.
	Name string

	// Description - описание испытания.
	Description string

	// BossType - источник прогресса.
	BossType BossType

	// Target - целевое значение.
	Target int

	// Progress - текущий прогресс. Никогда не превышает Target.
	Progress int

	// Difficulty - ранг сложности (E..SSS).
	Difficulty shared.Difficulty

	// Reward - награда за победу.
	Reward Reward

	// Status - текущий статус.
	Status Status

	// CompletedAt - время победы (нулевое для активных).
	CompletedAt time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNotFound - рейд не найден.
	ErrNotFound = errors.New("boss raid not found")

	// ErrAlreadyCompleted - босс уже повержен.
	ErrAlreadyCompleted = errors.New("boss raid already completed")

	// ErrInvalidBossType - неизвестный тип босса.
	ErrInvalidBossType = errors.New("invalid boss type")

	// ErrInvalidTarget - неположительная цель.
	ErrInvalidTarget = errors.New("raid target must be positive")

	// ErrInvalidReward - некорректная награда.
	ErrInvalidReward = errors.New("invalid raid reward")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewRaidParams содержит параметры для создания рейда.
type NewRaidParams struct {
	ID          string
	HunterID    string
	Key         string
	Name        string
	Description string
	BossType    BossType
	Target      int
	Difficulty  shared.Difficulty
	Reward      Reward
}

// NewRaid создаёт новый рейд с валидацией.
func NewRaid(params NewRaidParams) (*Raid, error) {
	if params.ID == "" {
		return nil, errors.New("raid id is required")
	}
	if params.HunterID == "" {
		return nil, errors.New("hunter id is required")
	}
	if params.Key == "" {
		return nil, errors.New("raid key is required")
	}
	if !params.BossType.IsValid() {
		return nil, ErrInvalidBossType
	}
	if params.Target <= 0 {
		return nil, ErrInvalidTarget
	}
	if !params.Difficulty.IsValid() {
		return nil, errors.New("invalid raid difficulty")
	}
	if !params.Reward.IsValid() {
		return nil, ErrInvalidReward
	}

	now := time.Now().UTC()

	return &Raid{
		ID:          params.ID,
		HunterID:    params.HunterID,
		Key:         params.Key,
		Name:        params.Name,
		Description: params.Description,
		BossType:    params.BossType,
		Target:      params.Target,
		Progress:    0,
		Difficulty:  params.Difficulty,
		Reward:      params.Reward,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// AdvanceResult описывает итог продвижения рейда.
type AdvanceResult struct {
	// Progress - прогресс после продвижения.
	Progress int

	// JustCompleted - босс повержен именно этим продвижением.
	// Переход active -> completed случается ровно один раз.
	JustCompleted bool
}

// AdvanceBy увеличивает накопительный прогресс на указанную величину.
// Прогресс насыщается на цели. Для поверженного босса возвращает
// ErrAlreadyCompleted.
func (r *Raid) AdvanceBy(amount int, now time.Time) (AdvanceResult, error) {
	if r.Status == StatusCompleted {
		return AdvanceResult{}, ErrAlreadyCompleted
	}
	if amount <= 0 {
		return AdvanceResult{Progress: r.Progress}, nil
	}
	return r.apply(r.Progress+amount, now), nil
}

// SyncTo замещает прогресс текущим значением метрики (уровень, серия).
// Прогресс не откатывается: меньшее значение игнорируется.
func (r *Raid) SyncTo(value int, now time.Time) (AdvanceResult, error) {
	if r.Status == StatusCompleted {
		return AdvanceResult{}, ErrAlreadyCompleted
	}
	if value <= r.Progress {
		return AdvanceResult{Progress: r.Progress}, nil
	}
	return r.apply(value, now), nil
}

// apply устанавливает прогресс с насыщением и проверяет победу.
func (r *Raid) apply(newProgress int, now time.Time) AdvanceResult {
	if newProgress > r.Target {
		newProgress = r.Target
	}

	r.Progress = newProgress
	r.UpdatedAt = now.UTC()

	result := AdvanceResult{Progress: r.Progress}
	if r.Progress >= r.Target {
		r.Status = StatusCompleted
		r.CompletedAt = now.UTC()
		result.JustCompleted = true
	}
	return result
}

// IsCompleted возвращает true, если босс повержен.
func (r *Raid) IsCompleted() bool {
	return r.Status == StatusCompleted
}

// AchievementKey возвращает ключ достижения за победу над боссом.
func (r *Raid) AchievementKey() string {
	return "boss_" + r.ID
}

// RewardReason возвращает причину для журнала атрибутов.
func (r *Raid) RewardReason() string {
	return "boss_reward_" + r.ID
}

// String возвращает строковое представление рейда для логирования.
func (r *Raid) String() string {
	return fmt.Sprintf(
		"Raid{ID: %s, Key: %s, Type: %s, Progress: %d/%d, Status: %s}",
		r.ID, r.Key, r.BossType, r.Progress, r.Target, r.Status,
	)
}
