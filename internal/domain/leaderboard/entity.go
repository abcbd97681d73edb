// Package leaderboard содержит доменную модель рейтинга охотников.
// Рейтинг строится по накопленному опыту за всё время.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию охотника в рейтинге. Начинается с 1.
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 возвращает true, если охотник в топ-10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// RankChange представляет изменение позиции в рейтинге.
// Положительное значение = подъём, отрицательное = падение.
type RankChange int

// Abs возвращает абсолютное значение изменения.
func (rc RankChange) Abs() int {
	if rc < 0 {
		return int(-rc)
	}
	return int(rc)
}

// String возвращает строковое представление изменения.
func (rc RankChange) String() string {
	switch {
	case rc > 0:
		return fmt.Sprintf("+%d", rc)
	case rc < 0:
		return fmt.Sprintf("%d", rc)
	default:
		return "±0"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry представляет одну запись в рейтинге.
type Entry struct {
	// Rank - текущая позиция в рейтинге.
	Rank Rank

	// HunterID - идентификатор охотника.
	HunterID string

	// Name - отображаемое имя охотника.
	Name string

	// TotalXP - накопленный опыт за всё время.
	TotalXP int

	// Level - текущий уровень.
	Level int

	// CurrentStreak - текущая серия дней.
	CurrentStreak int

	// RankChange - изменение позиции с прошлой перестройки.
	RankChange RankChange

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewEntry создаёт новую запись рейтинга с валидацией.
func NewEntry(rank Rank, hunterID, name string, totalXP, level int) (*Entry, error) {
	if !rank.IsValid() {
		return nil, ErrInvalidRank
	}
	if hunterID == "" {
		return nil, ErrInvalidHunterID
	}
	if totalXP < 0 {
		return nil, ErrInvalidXP
	}

	return &Entry{
		Rank:      rank,
		HunterID:  hunterID,
		Name:      name,
		TotalXP:   totalXP,
		Level:     level,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Clone создаёт копию записи.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String возвращает строковое представление для логирования.
func (e *Entry) String() string {
	return fmt.Sprintf(
		"Entry{Rank: %d, Name: %s, TotalXP: %d, Change: %s}",
		e.Rank, e.Name, e.TotalXP, e.RankChange.String(),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING (Ranked List)
// ══════════════════════════════════════════════════════════════════════════════

// Ranking представляет полный отсортированный список охотников.
type Ranking struct {
	entries []*Entry
	byID    map[string]*Entry
}

// NewRanking создаёт пустой Ranking.
func NewRanking() *Ranking {
	return &Ranking{
		entries: make([]*Entry, 0),
		byID:    make(map[string]*Entry),
	}
}

// Add добавляет запись в рейтинг (без автоматической сортировки).
func (r *Ranking) Add(entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if _, exists := r.byID[entry.HunterID]; exists {
		return ErrDuplicateHunter
	}

	r.entries = append(r.entries, entry)
	r.byID[entry.HunterID] = entry
	return nil
}

// SortByXP сортирует записи по опыту (по убыванию) и присваивает ранги.
// Одинаковый опыт даёт одинаковый ранг.
func (r *Ranking) SortByXP() {
	sort.Slice(r.entries, func(i, j int) bool {
		if r.entries[i].TotalXP != r.entries[j].TotalXP {
			return r.entries[i].TotalXP > r.entries[j].TotalXP
		}
		return r.entries[i].Name < r.entries[j].Name
	})

	currentRank := Rank(1)
	for i, entry := range r.entries {
		if i > 0 && entry.TotalXP == r.entries[i-1].TotalXP {
			entry.Rank = r.entries[i-1].Rank
		} else {
			entry.Rank = currentRank
		}
		currentRank = Rank(i + 2)
	}
}

// GetByID возвращает запись по ID охотника.
func (r *Ranking) GetByID(hunterID string) *Entry {
	return r.byID[hunterID]
}

// Top возвращает топ-N записей.
func (r *Ranking) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(r.entries) {
		n = len(r.entries)
	}
	result := make([]*Entry, n)
	copy(result, r.entries[:n])
	return result
}

// Neighbors возвращает соседей охотника по рангу (±rangeSize),
// включая его самого.
func (r *Ranking) Neighbors(hunterID string, rangeSize int) []*Entry {
	if r.GetByID(hunterID) == nil {
		return nil
	}

	var idx int
	for i, e := range r.entries {
		if e.HunterID == hunterID {
			idx = i
			break
		}
	}

	from := idx - rangeSize
	to := idx + rangeSize + 1
	if from < 0 {
		from = 0
	}
	if to > len(r.entries) {
		to = len(r.entries)
	}

	result := make([]*Entry, to-from)
	copy(result, r.entries[from:to])
	return result
}

// Count возвращает общее количество записей.
func (r *Ranking) Count() int {
	return len(r.entries)
}

// All возвращает все записи.
func (r *Ranking) All() []*Entry {
	result := make([]*Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidRank - невалидный ранг (должен быть положительным).
	ErrInvalidRank = errors.New("invalid rank: must be positive")

	// ErrInvalidHunterID - невалидный ID охотника.
	ErrInvalidHunterID = errors.New("invalid hunter id: cannot be empty")

	// ErrInvalidXP - невалидное значение опыта.
	ErrInvalidXP = errors.New("invalid xp: must be non-negative")

	// ErrNilEntry - попытка добавить nil запись.
	ErrNilEntry = errors.New("cannot add nil entry")

	// ErrDuplicateHunter - охотник уже есть в рейтинге.
	ErrDuplicateHunter = errors.New("hunter already exists in ranking")

	// ErrEmptyLeaderboard - рейтинг пуст.
	ErrEmptyLeaderboard = errors.New("leaderboard is empty")

	// ErrNotRanked - охотник ещё не попал в рейтинг.
	ErrNotRanked = errors.New("hunter is not ranked yet")
)
