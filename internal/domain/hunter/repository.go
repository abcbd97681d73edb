package hunter

import (
	"context"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет основные операции CRUD для охотников.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD Operations
	// ─────────────────────────────────────────────────────────────────────────

	// Create создаёт нового охотника.
	// Возвращает ErrAlreadyExists, если охотник уже существует.
	Create(ctx context.Context, hunter *Hunter) error

	// GetByID возвращает охотника по внутреннему ID.
	// Возвращает ErrNotFound, если охотник не найден.
	GetByID(ctx context.Context, id string) (*Hunter, error)

	// GetByEmail возвращает охотника по адресу почты.
	// Возвращает ErrNotFound, если охотник не найден.
	GetByEmail(ctx context.Context, email Email) (*Hunter, error)

	// Update сохраняет охотника с проверкой версии.
	// Возвращает ErrVersionConflict, если профиль изменился с момента чтения,
	// и ErrNotFound, если охотник не найден. При успехе Version увеличивается.
	Update(ctx context.Context, hunter *Hunter) error

	// Delete удаляет охотника.
	// Возвращает ErrNotFound, если охотник не найден.
	Delete(ctx context.Context, id string) error

	// ─────────────────────────────────────────────────────────────────────────
	// Bulk Operations
	// ─────────────────────────────────────────────────────────────────────────

	// GetAll возвращает всех охотников с пагинацией.
	GetAll(ctx context.Context, opts ListOptions) ([]*Hunter, error)

	// GetByIDs возвращает охотников по списку ID.
	GetByIDs(ctx context.Context, ids []string) ([]*Hunter, error)

	// Count возвращает общее количество охотников.
	Count(ctx context.Context) (int, error)

	// FindWithClearDateBefore находит охотников с активной серией, чья
	// последняя дата полного выполнения строго раньше указанного дня.
	// Используется ночным обходом для сброса прерванных серий.
	FindWithClearDateBefore(ctx context.Context, day time.Time) ([]*Hunter, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Existence Checks
	// ─────────────────────────────────────────────────────────────────────────

	// Exists проверяет существование охотника по ID.
	Exists(ctx context.Context, id string) (bool, error)

	// ExistsByEmail проверяет существование по адресу почты.
	ExistsByEmail(ctx context.Context, email Email) (bool, error)
}

// ListOptions содержит параметры для пагинации и сортировки.
type ListOptions struct {
	// Offset - смещение (для пагинации).
	Offset int

	// Limit - максимальное количество записей.
	Limit int

	// SortBy - поле для сортировки.
	SortBy string

	// SortDesc - сортировка по убыванию.
	SortDesc bool
}

// DefaultListOptions возвращает параметры по умолчанию.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset:   0,
		Limit:    50,
		SortBy:   "total_xp",
		SortDesc: true,
	}
}

// WithOffset устанавливает смещение.
func (o ListOptions) WithOffset(offset int) ListOptions {
	o.Offset = offset
	return o
}

// WithLimit устанавливает лимит.
func (o ListOptions) WithLimit(limit int) ListOptions {
	o.Limit = limit
	return o
}

// ══════════════════════════════════════════════════════════════════════════════
// HISTORY REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// HistoryRepository определяет операции для журналов опыта и атрибутов.
type HistoryRepository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// XP History
	// ─────────────────────────────────────────────────────────────────────────

	// SaveXPChange сохраняет изменение опыта.
	SaveXPChange(ctx context.Context, entry XPHistoryEntry) error

	// GetXPHistory возвращает историю опыта охотника за период.
	GetXPHistory(ctx context.Context, hunterID string, from, to time.Time) ([]XPHistoryEntry, error)

	// GetRecentXPChanges возвращает последние N изменений опыта.
	GetRecentXPChanges(ctx context.Context, hunterID string, limit int) ([]XPHistoryEntry, error)

	// HasXPChange проверяет, есть ли запись с данными источником и
	// идентификатором источника. Используется для довыдачи наград.
	HasXPChange(ctx context.Context, hunterID, source, sourceID string) (bool, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Stat History
	// ─────────────────────────────────────────────────────────────────────────

	// SaveStatChange сохраняет изменение атрибута.
	SaveStatChange(ctx context.Context, entry StatHistoryEntry) error

	// GetStatHistory возвращает журнал атрибутов охотника.
	GetStatHistory(ctx context.Context, hunterID string, limit int) ([]StatHistoryEntry, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// Для кеширования часто запрашиваемых профилей (обычно Redis).
// ══════════════════════════════════════════════════════════════════════════════

// Cache определяет операции кеширования профилей охотников.
type Cache interface {
	// Get получает охотника из кеша.
	Get(ctx context.Context, hunterID string) (*Hunter, error)

	// Set сохраняет охотника в кеш.
	Set(ctx context.Context, hunter *Hunter, ttl time.Duration) error

	// Delete удаляет охотника из кеша.
	Delete(ctx context.Context, hunterID string) error

	// Invalidate инвалидирует все записи охотника в кеше.
	Invalidate(ctx context.Context, hunterID string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// STAT KEYS (re-export for callers)
// ══════════════════════════════════════════════════════════════════════════════

// ValidStatKey проверяет ключ атрибута по закрытому множеству.
func ValidStatKey(key string) (shared.StatKey, bool) {
	k, err := shared.NewStatKey(key)
	if err != nil {
		return "", false
	}
	return k, true
}
