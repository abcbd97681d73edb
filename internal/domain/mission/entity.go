// Package mission содержит доменную модель дневных миссий охотника.
// Миссии - это ежедневные задания с целью и наградой опыта.
package mission

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет текущий статус миссии.
type Status string

const (
	// StatusPending - миссия активна, цель не достигнута.
	StatusPending Status = "pending"
	// StatusCompleted - миссия выполнена. Состояние терминальное.
	StatusCompleted Status = "completed"
	// StatusExpired - день закончился, миссия не выполнена.
	StatusExpired Status = "expired"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true, если миссия больше не принимает прогресс.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// Kind определяет тип цели миссии.
type Kind string

const (
	// KindHydration - выпить воды (цель в миллилитрах).
	KindHydration Kind = "hydration"
	// KindTraining - тренироваться (цель в минутах).
	KindTraining Kind = "training"
	// KindSleep - спать (цель в часах).
	KindSleep Kind = "sleep"
	// KindNutrition - здоровые приёмы пищи (цель в штуках).
	KindNutrition Kind = "nutrition"
	// KindExercise - конкретное упражнение (цель в повторениях).
	KindExercise Kind = "exercise"
)

// IsValid проверяет, что тип корректен.
func (k Kind) IsValid() bool {
	switch k {
	case KindHydration, KindTraining, KindSleep, KindNutrition, KindExercise:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: MISSION
// ══════════════════════════════════════════════════════════════════════════════

// Mission - одно дневное задание охотника.
type Mission struct {
	// ID - уникальный идентификатор миссии (UUID).
	ID string

	// HunterID - идентификатор владельца.
	HunterID string

	// Key - стабильный ключ задания внутри дня ("agua", "entrenar"...).
	// Пара (HunterID, Key, Date) уникальна: повторная генерация дня
	// не создаёт дублей.
	Key string

	// Title - отображаемое название задания.
	Title string

	// Kind - тип цели.
	Kind Kind

	// ExerciseType - конкретное упражнение для KindExercise.
	ExerciseType string

	// Target - целевое значение (мл, минуты, часы, штуки, повторения).
	Target int

	// Progress - текущий прогресс. Никогда не превышает Target.
	Progress int

	// XPReward - награда опыта за выполнение.
	XPReward int

	// PenaltyXP - штраф опыта за просроченную обязательную миссию.
	// Ноль или отрицательное значение.
	PenaltyXP int

	// Required - обязательная миссия дня. Полное выполнение всех
	// обязательных миссий продвигает серию и даёт дневной бонус.
	Required bool

	// Date - день миссии (начало дня в UTC).
	Date time.Time

	// Status - текущий статус.
	Status Status

	// CompletedAt - время выполнения (нулевое для невыполненных).
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
	// ErrNotFound - миссия не найдена.
	ErrNotFound = errors.New("mission not found")

	// ErrAlreadyCompleted - миссия уже выполнена.
	ErrAlreadyCompleted = errors.New("mission already completed")

	// ErrExpiredMission - день миссии закончился.
	ErrExpiredMission = errors.New("mission expired")

	// ErrInvalidAmount - неположительная величина прогресса.
	ErrInvalidAmount = errors.New("progress amount must be positive")

	// ErrInvalidTarget - неположительная цель.
	ErrInvalidTarget = errors.New("mission target must be positive")

	// ErrInvalidKind - неизвестный тип миссии.
	ErrInvalidKind = errors.New("invalid mission kind")

	// ErrInvalidPenalty - положительный штраф.
	ErrInvalidPenalty = errors.New("mission penalty must be zero or negative")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewMissionParams содержит параметры для создания миссии.
type NewMissionParams struct {
	ID           string
	HunterID     string
	Key          string
	Title        string
	Kind         Kind
	ExerciseType string
	Target       int
	XPReward     int
	PenaltyXP    int
	Required     bool
	Date         time.Time
}

// NewMission создаёт новую миссию с валидацией.
func NewMission(params NewMissionParams) (*Mission, error) {
	if params.ID == "" {
		return nil, errors.New("mission id is required")
	}
	if params.HunterID == "" {
		return nil, errors.New("hunter id is required")
	}
	if params.Key == "" {
		return nil, errors.New("mission key is required")
	}
	if !params.Kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if params.Target <= 0 {
		return nil, ErrInvalidTarget
	}
	if params.PenaltyXP > 0 {
		return nil, ErrInvalidPenalty
	}

	now := time.Now().UTC()
	date := params.Date
	if date.IsZero() {
		date = now
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	return &Mission{
		ID:           params.ID,
		HunterID:     params.HunterID,
		Key:          params.Key,
		Title:        params.Title,
		Kind:         params.Kind,
		ExerciseType: params.ExerciseType,
		Target:       params.Target,
		Progress:     0,
		XPReward:     params.XPReward,
		PenaltyXP:    params.PenaltyXP,
		Required:     params.Required,
		Date:         date,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// AdvanceResult описывает итог продвижения прогресса миссии.
type AdvanceResult struct {
	// Applied - фактически зачтённый прогресс после насыщения.
	Applied int

	// JustCompleted - миссия выполнена именно этим продвижением.
	// Переход pending -> completed случается ровно один раз.
	JustCompleted bool
}

// Advance продвигает прогресс миссии на указанную величину.
// Прогресс насыщается на цели: излишек отбрасывается. Для уже
// выполненной миссии возвращает ErrAlreadyCompleted.
func (m *Mission) Advance(amount int, now time.Time) (AdvanceResult, error) {
	if amount <= 0 {
		return AdvanceResult{}, ErrInvalidAmount
	}
	if m.Status == StatusCompleted {
		return AdvanceResult{}, ErrAlreadyCompleted
	}
	if m.Status == StatusExpired {
		return AdvanceResult{}, ErrExpiredMission
	}

	newProgress := m.Progress + amount
	if newProgress > m.Target {
		newProgress = m.Target
	}

	result := AdvanceResult{Applied: newProgress - m.Progress}
	m.Progress = newProgress
	m.UpdatedAt = now.UTC()

	if m.Progress >= m.Target {
		m.Status = StatusCompleted
		m.CompletedAt = now.UTC()
		result.JustCompleted = true
	}

	return result, nil
}

// Expire помечает невыполненную миссию истёкшей. Выполненные не трогаем.
func (m *Mission) Expire(now time.Time) bool {
	if m.Status != StatusPending {
		return false
	}
	m.Status = StatusExpired
	m.UpdatedAt = now.UTC()
	return true
}

// IsCompleted возвращает true, если миссия выполнена.
func (m *Mission) IsCompleted() bool {
	return m.Status == StatusCompleted
}

// ProgressPercent возвращает прогресс в процентах (0-100).
func (m *Mission) ProgressPercent() int {
	if m.Target == 0 {
		return 0
	}
	return m.Progress * 100 / m.Target
}

// String возвращает строковое представление миссии для логирования.
func (m *Mission) String() string {
	return fmt.Sprintf(
		"Mission{ID: %s, Key: %s, Progress: %d/%d, Status: %s}",
		m.ID, m.Key, m.Progress, m.Target, m.Status,
	)
}

// AllRequiredCompleted проверяет, выполнены ли все обязательные миссии
// из набора. Пустой набор считается невыполненным.
func AllRequiredCompleted(missions []*Mission) bool {
	required := 0
	for _, m := range missions {
		if !m.Required {
			continue
		}
		required++
		if !m.IsCompleted() {
			return false
		}
	}
	return required > 0
}
