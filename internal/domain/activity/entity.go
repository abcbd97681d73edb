// Package activity содержит доменную модель журнала активности охотника:
// тренировки, питание, вода и голосовые команды.
package activity

import (
	"errors"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WORKOUT ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// WorkoutEntry - одна записанная тренировка.
type WorkoutEntry struct {
	// ID - уникальный идентификатор записи (UUID).
	ID string

	// HunterID - идентификатор владельца.
	HunterID string

	// WorkoutType - тип тренировки ("flexiones", "correr"...).
	WorkoutType string

	// Intensity - интенсивность.
	Intensity shared.Intensity

	// DurationMinutes - длительность в минутах.
	DurationMinutes int

	// Reps - число повторений (0, если неприменимо).
	Reps int

	// XPGained - начисленный опыт.
	XPGained int

	// Notes - произвольная заметка охотника.
	Notes string

	// OccurredAt - время тренировки.
	OccurredAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// NUTRITION ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// NutritionEntry - один приём пищи.
type NutritionEntry struct {
	// ID - уникальный идентификатор записи (UUID).
	ID string

	// HunterID - идентификатор владельца.
	HunterID string

	// Description - что съедено.
	Description string

	// Calories - оценка калорийности (0, если неизвестна).
	Calories int

	// Healthy - здоровый приём пищи.
	Healthy bool

	// XPDelta - дельта опыта (+2 здоровый, -1 вредный).
	XPDelta int

	// OccurredAt - время приёма пищи.
	OccurredAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HYDRATION ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// HydrationEntry - одна запись о выпитой воде.
type HydrationEntry struct {
	// ID - уникальный идентификатор записи (UUID).
	ID string

	// HunterID - идентификатор владельца.
	HunterID string

	// AmountML - объём в миллилитрах.
	AmountML int

	// DrinkType - тип напитка ("agua" по умолчанию).
	DrinkType string

	// OccurredAt - время записи.
	OccurredAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// VOICE COMMAND ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// VoiceIntent - распознанное намерение голосовой команды.
type VoiceIntent string

const (
	// IntentExercise - записать упражнение ("hice 20 flexiones").
	IntentExercise VoiceIntent = "exercise"
	// IntentHydration - записать воду ("tomé un vaso de agua").
	IntentHydration VoiceIntent = "hydration"
	// IntentStatus - запросить статус ("estado").
	IntentStatus VoiceIntent = "status"
	// IntentMissions - запросить миссии дня ("misiones").
	IntentMissions VoiceIntent = "missions"
	// IntentUnknown - команда не распознана.
	IntentUnknown VoiceIntent = "unknown"
)

// IsValid проверяет, что намерение корректно.
func (v VoiceIntent) IsValid() bool {
	switch v {
	case IntentExercise, IntentHydration, IntentStatus, IntentMissions, IntentUnknown:
		return true
	default:
		return false
	}
}

// VoiceCommandEntry - одна обработанная голосовая команда.
type VoiceCommandEntry struct {
	// ID - уникальный идентификатор записи (UUID).
	ID string

	// HunterID - идентификатор владельца.
	HunterID string

	// Transcript - исходный текст команды.
	Transcript string

	// Intent - распознанное намерение.
	Intent VoiceIntent

	// ExerciseType - распознанное упражнение (для IntentExercise).
	ExerciseType string

	// Amount - распознанная величина (повторения, миллилитры).
	Amount int

	// Response - текст ответа пользователю.
	Response string

	// OccurredAt - время команды.
	OccurredAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNotFound - запись не найдена.
	ErrNotFound = errors.New("activity entry not found")

	// ErrInvalidDuration - неположительная длительность тренировки.
	ErrInvalidDuration = errors.New("workout duration must be positive")

	// ErrInvalidAmount - неположительный объём.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrUnknownCommand - голосовая команда не распознана.
	ErrUnknownCommand = errors.New("voice command not recognized")
)
