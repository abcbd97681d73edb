package activity

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища журнала активности.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Workouts
	// ─────────────────────────────────────────────────────────────────────────

	// SaveWorkout сохраняет тренировку.
	SaveWorkout(ctx context.Context, entry WorkoutEntry) error

	// GetWorkouts возвращает тренировки охотника за период.
	GetWorkouts(ctx context.Context, hunterID string, from, to time.Time) ([]WorkoutEntry, error)

	// CountWorkouts возвращает общее число тренировок охотника.
	CountWorkouts(ctx context.Context, hunterID string) (int, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Nutrition
	// ─────────────────────────────────────────────────────────────────────────

	// SaveNutrition сохраняет приём пищи.
	SaveNutrition(ctx context.Context, entry NutritionEntry) error

	// GetNutrition возвращает приёмы пищи охотника за период.
	GetNutrition(ctx context.Context, hunterID string, from, to time.Time) ([]NutritionEntry, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Hydration
	// ─────────────────────────────────────────────────────────────────────────

	// SaveHydration сохраняет запись о воде.
	SaveHydration(ctx context.Context, entry HydrationEntry) error

	// SumHydration возвращает суммарный объём воды охотника за период.
	SumHydration(ctx context.Context, hunterID string, from, to time.Time) (int, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Voice Commands
	// ─────────────────────────────────────────────────────────────────────────

	// SaveVoiceCommand сохраняет обработанную голосовую команду.
	SaveVoiceCommand(ctx context.Context, entry VoiceCommandEntry) error

	// GetVoiceCommands возвращает последние N голосовых команд охотника.
	GetVoiceCommands(ctx context.Context, hunterID string, limit int) ([]VoiceCommandEntry, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEDUPLICATOR
// Идемпотентность команд с величиной: повторная доставка с тем же
// request_id не должна начислять опыт дважды. Обычно реализуется
// через Redis SETNX с TTL.
// ══════════════════════════════════════════════════════════════════════════════

// Deduplicator определяет операции дедупликации запросов.
type Deduplicator interface {
	// Claim атомарно занимает request_id. Возвращает true, если
	// идентификатор занят впервые, и false для повтора.
	Claim(ctx context.Context, hunterID, requestID string, ttl time.Duration) (bool, error)

	// Release освобождает request_id (для отката после ошибки).
	Release(ctx context.Context, hunterID, requestID string) error
}
