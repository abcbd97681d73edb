package leaderboard

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Рейтинг живёт в Redis (sorted set по total_xp); перестройка из Postgres
// выполняется фоновой задачей.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища рейтинга.
type Repository interface {
	// UpdateScore обновляет опыт охотника в рейтинге.
	UpdateScore(ctx context.Context, hunterID string, totalXP int) error

	// GetRank возвращает позицию охотника (1 = первое место).
	// Возвращает 0, если охотник не в рейтинге.
	GetRank(ctx context.Context, hunterID string) (Rank, error)

	// GetTop возвращает топ-N записей.
	GetTop(ctx context.Context, n int) ([]*Entry, error)

	// GetAround возвращает соседей охотника по рангу (±rangeSize).
	GetAround(ctx context.Context, hunterID string, rangeSize int) ([]*Entry, error)

	// Rebuild полностью замещает рейтинг новым набором записей.
	Rebuild(ctx context.Context, entries []*Entry) error

	// Count возвращает число участников.
	Count(ctx context.Context) (int, error)
}
