// Package achievement содержит доменную модель достижений охотника.
// Достижение выдаётся ровно один раз: повторная выдача - тихий no-op.
package achievement

import (
	"errors"
	"fmt"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: ACHIEVEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Achievement - одно разблокированное достижение охотника.
type Achievement struct {
	// ID - уникальный идентификатор записи (UUID).
	ID string

	// HunterID - идентификатор владельца.
	HunterID string

	// Key - стабильный ключ достижения ("workout_10", "level_25",
	// "boss_<raid_id>"). Пара (HunterID, Key) уникальна.
	Key string

	// Title - отображаемое название.
	Title string

	// Description - описание.
	Description string

	// Rarity - редкость.
	Rarity shared.Rarity

	// UnlockedAt - время разблокировки.
	UnlockedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNotFound - достижение не найдено.
	ErrNotFound = errors.New("achievement not found")

	// ErrInvalidKey - пустой ключ достижения.
	ErrInvalidKey = errors.New("achievement key is required")

	// ErrInvalidRarity - неизвестная редкость.
	ErrInvalidRarity = errors.New("invalid achievement rarity")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewAchievementParams содержит параметры для создания достижения.
type NewAchievementParams struct {
	ID          string
	HunterID    string
	Key         string
	Title       string
	Description string
	Rarity      shared.Rarity
}

// NewAchievement создаёт новое достижение с валидацией.
func NewAchievement(params NewAchievementParams) (*Achievement, error) {
	if params.ID == "" {
		return nil, errors.New("achievement id is required")
	}
	if params.HunterID == "" {
		return nil, errors.New("hunter id is required")
	}
	if params.Key == "" {
		return nil, ErrInvalidKey
	}
	if !params.Rarity.IsValid() {
		return nil, ErrInvalidRarity
	}

	return &Achievement{
		ID:          params.ID,
		HunterID:    params.HunterID,
		Key:         params.Key,
		Title:       params.Title,
		Description: params.Description,
		Rarity:      params.Rarity,
		UnlockedAt:  time.Now().UTC(),
	}, nil
}

// String возвращает строковое представление достижения для логирования.
func (a *Achievement) String() string {
	return fmt.Sprintf(
		"Achievement{Key: %s, Rarity: %s, Hunter: %s}",
		a.Key, a.Rarity, a.HunterID,
	)
}
