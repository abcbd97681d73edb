package raid

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Реализация находится в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища рейдов.
type Repository interface {
	// CreateBatch создаёт набор рейдов. Уже существующие пары
	// (hunter_id, key) молча пропускаются - посев идемпотентен.
	CreateBatch(ctx context.Context, raids []*Raid) error

	// GetByID возвращает рейд по ID.
	// Возвращает ErrNotFound, если рейд не найден.
	GetByID(ctx context.Context, id string) (*Raid, error)

	// GetActive возвращает активные рейды охотника.
	GetActive(ctx context.Context, hunterID string) ([]*Raid, error)

	// GetActiveByType возвращает активные рейды охотника указанного типа.
	GetActiveByType(ctx context.Context, hunterID string, bossType BossType) ([]*Raid, error)

	// GetAll возвращает все рейды охотника.
	GetAll(ctx context.Context, hunterID string) ([]*Raid, error)

	// Update сохраняет рейд.
	// Возвращает ErrNotFound, если рейд не найден.
	Update(ctx context.Context, r *Raid) error
}
