package achievement

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Реализация находится в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища достижений.
type Repository interface {
	// SaveIfAbsent сохраняет достижение, если ключ ещё не разблокирован.
	// Возвращает true, если запись создана, и false для дубликата.
	// Повторная выдача - тихий no-op, без ошибки.
	SaveIfAbsent(ctx context.Context, a *Achievement) (bool, error)

	// GetByHunter возвращает все достижения охотника.
	GetByHunter(ctx context.Context, hunterID string) ([]*Achievement, error)

	// GetUnlockedKeys возвращает множество разблокированных ключей охотника.
	GetUnlockedKeys(ctx context.Context, hunterID string) (map[string]bool, error)

	// Has проверяет, разблокирован ли ключ.
	Has(ctx context.Context, hunterID, key string) (bool, error)

	// GetRecent возвращает последние достижения охотника, новые первыми.
	GetRecent(ctx context.Context, hunterID string, limit int) ([]*Achievement, error)

	// GetUnlockedSince возвращает недавние достижения всех охотников.
	GetUnlockedSince(ctx context.Context, since time.Time, limit int) ([]*Achievement, error)
}
