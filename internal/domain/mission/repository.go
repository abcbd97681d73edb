package mission

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Реализация находится в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища миссий.
type Repository interface {
	// CreateBatch создаёт набор миссий. Уже существующие пары
	// (hunter_id, key, date) молча пропускаются - генерация дня
	// идемпотентна.
	CreateBatch(ctx context.Context, missions []*Mission) error

	// GetByID возвращает миссию по ID.
	// Возвращает ErrNotFound, если миссия не найдена.
	GetByID(ctx context.Context, id string) (*Mission, error)

	// GetByKey возвращает миссию охотника по ключу и дню.
	// Возвращает ErrNotFound, если миссия не найдена.
	GetByKey(ctx context.Context, hunterID, key string, date time.Time) (*Mission, error)

	// GetDaily возвращает все миссии охотника за день.
	GetDaily(ctx context.Context, hunterID string, date time.Time) ([]*Mission, error)

	// Update сохраняет миссию.
	// Возвращает ErrNotFound, если миссия не найдена.
	Update(ctx context.Context, m *Mission) error

	// ExpirePending помечает истёкшими все невыполненные миссии
	// строго раньше указанного дня. Возвращает число затронутых записей.
	ExpirePending(ctx context.Context, before time.Time) (int, error)

	// CountCompleted возвращает число выполненных миссий охотника за день.
	CountCompleted(ctx context.Context, hunterID string, date time.Time) (int, error)
}
