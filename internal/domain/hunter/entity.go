// Package hunter содержит доменную модель охотника - пользователя
// фитнес-системы прокачки. Это ядро бизнес-логики, внешних зависимостей нет.
package hunter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Stats представляет пять атрибутов охотника.
// Ключи фиксированы: str, agi, int, vit, cha.
type Stats map[shared.StatKey]int

// BaseStatValue - стартовое значение каждого атрибута нового охотника.
const BaseStatValue = 1

// NewBaseStats возвращает стартовый набор атрибутов.
func NewBaseStats() Stats {
	stats := make(Stats, 5)
	for _, key := range shared.AllStatKeys() {
		stats[key] = BaseStatValue
	}
	return stats
}

// IsValid проверяет, что набор содержит ровно пять известных ключей
// с неотрицательными значениями.
func (s Stats) IsValid() bool {
	if len(s) != 5 {
		return false
	}
	for key, value := range s {
		if !key.IsValid() || value < 1 {
			return false
		}
	}
	return true
}

// Total возвращает суммарное количество очков во всех атрибутах.
func (s Stats) Total() int {
	total := 0
	for _, value := range s {
		total += value
	}
	return total
}

// Clone создаёт копию набора атрибутов.
func (s Stats) Clone() Stats {
	clone := make(Stats, len(s))
	for key, value := range s {
		clone[key] = value
	}
	return clone
}

// Email представляет адрес электронной почты охотника.
type Email string

// IsValid проверяет минимальную корректность адреса.
func (e Email) IsValid() bool {
	s := string(e)
	at := strings.Index(s, "@")
	return len(s) >= 5 && len(s) <= 255 && at > 0 && at < len(s)-3 && strings.Contains(s[at:], ".")
}

// String возвращает строковое представление адреса.
func (e Email) String() string {
	return string(e)
}

// Normalize возвращает нормализованный (в нижнем регистре) адрес.
func (e Email) Normalize() Email {
	return Email(strings.ToLower(strings.TrimSpace(string(e))))
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: HUNTER
// ══════════════════════════════════════════════════════════════════════════════

// Hunter - центральная сущность системы: профиль прокачки пользователя.
type Hunter struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Name - отображаемое имя охотника.
	Name string

	// Email - адрес электронной почты (используется при регистрации).
	Email Email

	// PasswordHash - bcrypt-хеш пароля. Пустой для профилей без аккаунта.
	PasswordHash string

	// Level - текущий уровень. Минимум 1, вниз не откатывается.
	Level int

	// CurrentXP - очки опыта внутри текущего уровня (0 <= CurrentXP < порог).
	CurrentXP int

	// TotalXP - накопленный опыт за всё время. Не уменьшается.
	TotalXP int

	// AvailablePoints - нераспределённые очки атрибутов (+1 за каждый уровень).
	AvailablePoints int

	// Stats - пять атрибутов охотника.
	Stats Stats

	// TotalWorkouts - общее число записанных тренировок.
	TotalWorkouts int

	// TotalMissionsCompleted - общее число выполненных миссий.
	TotalMissionsCompleted int

	// CurrentStreak - текущая серия дней с полным выполнением миссий.
	CurrentStreak int

	// MaxStreak - лучшая серия за всё время.
	MaxStreak int

	// LastClearDate - дата последнего полного выполнения дневных миссий.
	LastClearDate time.Time

	// Version - счётчик версий для оптимистичной блокировки.
	// Каждое успешное сохранение увеличивает его на единицу.
	Version int

	// CreatedAt - время создания профиля.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidName - невалидное имя охотника.
	ErrInvalidName = errors.New("invalid hunter name: must be 2-30 chars")

	// ErrInvalidEmail - невалидный адрес почты.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidStats - невалидный набор атрибутов.
	ErrInvalidStats = errors.New("invalid stats: expected five known non-negative attributes")

	// ErrNoPoints - нет свободных очков для распределения.
	ErrNoPoints = errors.New("no available stat points")

	// ErrUnknownStat - неизвестный ключ атрибута.
	ErrUnknownStat = errors.New("unknown stat key")

	// ErrNotFound - охотник не найден.
	ErrNotFound = errors.New("hunter not found")

	// ErrAlreadyExists - охотник уже существует.
	ErrAlreadyExists = errors.New("hunter already exists")

	// ErrVersionConflict - профиль изменился с момента чтения.
	ErrVersionConflict = errors.New("hunter profile version conflict")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewHunterParams содержит параметры для создания нового охотника.
type NewHunterParams struct {
	ID           string
	Name         string
	Email        Email
	PasswordHash string
}

// NewHunter создаёт нового охотника с валидацией всех полей.
// Новый профиль начинает с 1 уровня, нулевым опытом и базовыми атрибутами.
func NewHunter(params NewHunterParams) (*Hunter, error) {
	if params.ID == "" {
		return nil, errors.New("hunter id is required")
	}

	name := strings.TrimSpace(params.Name)
	if len(name) < 2 || len(name) > 30 {
		return nil, ErrInvalidName
	}

	email := params.Email.Normalize()
	if email != "" && !email.IsValid() {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()

	return &Hunter{
		ID:                     params.ID,
		Name:                   name,
		Email:                  email,
		PasswordHash:           params.PasswordHash,
		Level:                  1,
		CurrentXP:              0,
		TotalXP:                0,
		AvailablePoints:        0,
		Stats:                  NewBaseStats(),
		TotalWorkouts:          0,
		TotalMissionsCompleted: 0,
		CurrentStreak:          0,
		MaxStreak:              0,
		Version:                0,
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// AllocateStat тратит одно свободное очко на указанный атрибут.
func (h *Hunter) AllocateStat(key shared.StatKey) error {
	if !key.IsValid() {
		return ErrUnknownStat
	}
	if h.AvailablePoints <= 0 {
		return ErrNoPoints
	}

	h.AvailablePoints--
	h.Stats[key]++
	h.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordWorkout увеличивает счётчик тренировок.
func (h *Hunter) RecordWorkout() {
	h.TotalWorkouts++
	h.UpdatedAt = time.Now().UTC()
}

// RecordMissionCompleted увеличивает счётчик выполненных миссий.
func (h *Hunter) RecordMissionCompleted() {
	h.TotalMissionsCompleted++
	h.UpdatedAt = time.Now().UTC()
}

// AdvanceStreak продолжает серию после полного выполнения дневных миссий.
// Повторный вызов за тот же день ничего не меняет.
func (h *Hunter) AdvanceStreak(day time.Time) bool {
	dayOnly := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	if !h.LastClearDate.IsZero() && !dayOnly.After(h.LastClearDate) {
		return false
	}

	h.CurrentStreak++
	if h.CurrentStreak > h.MaxStreak {
		h.MaxStreak = h.CurrentStreak
	}
	h.LastClearDate = dayOnly
	h.UpdatedAt = time.Now().UTC()
	return true
}

// BreakStreak сбрасывает текущую серию. MaxStreak не трогаем.
// Возвращает длину прерванной серии.
func (h *Hunter) BreakStreak() int {
	previous := h.CurrentStreak
	h.CurrentStreak = 0
	h.UpdatedAt = time.Now().UTC()
	return previous
}

// String возвращает строковое представление охотника для логирования.
func (h *Hunter) String() string {
	return fmt.Sprintf(
		"Hunter{ID: %s, Name: %s, Level: %d, XP: %d/%d, Points: %d}",
		h.ID, h.Name, h.Level, h.CurrentXP, XPToNextLevel(h.Level), h.AvailablePoints,
	)
}

// Clone создаёт глубокую копию охотника.
func (h *Hunter) Clone() *Hunter {
	if h == nil {
		return nil
	}

	clone := *h
	clone.Stats = h.Stats.Clone()
	return &clone
}
