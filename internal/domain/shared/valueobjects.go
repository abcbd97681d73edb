// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// HunterID represents a unique hunter identifier (UUID format).
type HunterID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the hunter ID is a valid UUID.
func (h HunterID) IsValid() bool {
	return uuidRegex.MatchString(string(h))
}

// String returns the string representation.
func (h HunterID) String() string {
	return string(h)
}

// IsEmpty checks if the ID is empty.
func (h HunterID) IsEmpty() bool {
	return h == ""
}

// NewHunterID creates a new HunterID with validation.
func NewHunterID(id string) (HunterID, error) {
	hid := HunterID(strings.ToLower(strings.TrimSpace(id)))
	if !hid.IsValid() {
		return "", NewDomainError("shared", "NewHunterID", ErrInvalidID, "invalid hunter ID format")
	}
	return hid, nil
}

// HunterName represents a hunter's display name.
type HunterName string

// Display names: letters, digits, spaces, a few accents. 2 to 30 runes.
var hunterNameRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} _-]{1,29}$`)

// IsValid checks if the hunter name is valid.
func (n HunterName) IsValid() bool {
	return hunterNameRegex.MatchString(string(n))
}

// String returns the string representation.
func (n HunterName) String() string {
	return string(n)
}

// NewHunterName creates a new HunterName with validation.
func NewHunterName(name string) (HunterName, error) {
	n := HunterName(strings.TrimSpace(name))
	if !n.IsValid() {
		return "", ErrInvalidHunterName
	}
	return n, nil
}

// RequestID is a caller-supplied idempotency key for amount-based commands.
// Empty means the caller opted out of deduplication.
type RequestID string

// IsZero reports whether no request ID was supplied.
func (r RequestID) IsZero() bool {
	return r == ""
}

// String returns the string representation.
func (r RequestID) String() string {
	return string(r)
}

// ═══════════════════════════════════════════════════════════════════════════
// StatKey Value Object
// ═══════════════════════════════════════════════════════════════════════════

// StatKey identifies one of the five hunter attributes. The set is closed:
// persistence, rewards, and allocation all validate against it.
type StatKey string

const (
	StatStrength     StatKey = "str"
	StatAgility      StatKey = "agi"
	StatIntelligence StatKey = "int"
	StatVitality     StatKey = "vit"
	StatCharisma     StatKey = "cha"
)

// AllStatKeys returns every valid stat key in display order.
func AllStatKeys() []StatKey {
	return []StatKey{StatStrength, StatAgility, StatIntelligence, StatVitality, StatCharisma}
}

// IsValid checks if the stat key belongs to the closed set.
func (s StatKey) IsValid() bool {
	switch s {
	case StatStrength, StatAgility, StatIntelligence, StatVitality, StatCharisma:
		return true
	}
	return false
}

// String returns the string representation.
func (s StatKey) String() string {
	return string(s)
}

// Label returns the human-readable name of the stat.
func (s StatKey) Label() string {
	switch s {
	case StatStrength:
		return "Fuerza"
	case StatAgility:
		return "Agilidad"
	case StatIntelligence:
		return "Inteligencia"
	case StatVitality:
		return "Vitalidad"
	case StatCharisma:
		return "Carisma"
	default:
		return string(s)
	}
}

// NewStatKey creates a StatKey with validation.
func NewStatKey(key string) (StatKey, error) {
	k := StatKey(strings.ToLower(strings.TrimSpace(key)))
	if !k.IsValid() {
		return "", ErrInvalidStatKey
	}
	return k, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Intensity Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Intensity represents workout effort. It drives the XP formula:
// xp = floor(base * duration_minutes / 10).
type Intensity string

const (
	IntensityLow     Intensity = "low"
	IntensityMedium  Intensity = "medium"
	IntensityHigh    Intensity = "high"
	IntensityExtreme Intensity = "extreme"
)

// IsValid checks if the intensity is one of the known grades.
func (i Intensity) IsValid() bool {
	switch i {
	case IntensityLow, IntensityMedium, IntensityHigh, IntensityExtreme:
		return true
	}
	return false
}

// String returns the string representation.
func (i Intensity) String() string {
	return string(i)
}

// BaseXP returns the per-10-minutes XP base for this intensity.
func (i Intensity) BaseXP() int {
	switch i {
	case IntensityLow:
		return 1
	case IntensityMedium:
		return 2
	case IntensityHigh:
		return 3
	case IntensityExtreme:
		return 4
	default:
		return 0
	}
}

// NewIntensity creates an Intensity with validation.
func NewIntensity(value string) (Intensity, error) {
	i := Intensity(strings.ToLower(strings.TrimSpace(value)))
	if !i.IsValid() {
		return "", ErrInvalidIntensity
	}
	return i, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Rarity Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rarity grades achievements from common to mythic.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
)

// IsValid checks if the rarity is one of the known grades.
func (r Rarity) IsValid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary, RarityMythic:
		return true
	}
	return false
}

// String returns the string representation.
func (r Rarity) String() string {
	return string(r)
}

// Order returns a sortable weight, common lowest.
func (r Rarity) Order() int {
	switch r {
	case RarityCommon:
		return 0
	case RarityRare:
		return 1
	case RarityEpic:
		return 2
	case RarityLegendary:
		return 3
	case RarityMythic:
		return 4
	default:
		return -1
	}
}

// NewRarity creates a Rarity with validation.
func NewRarity(value string) (Rarity, error) {
	r := Rarity(strings.ToLower(strings.TrimSpace(value)))
	if !r.IsValid() {
		return "", ErrInvalidRarity
	}
	return r, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Difficulty Value Object (boss raids)
// ═══════════════════════════════════════════════════════════════════════════

// Difficulty is the hunter-rank scale used for boss raids, ordered E < D < C
// < B < A < S < SS < SSS.
type Difficulty string

const (
	DifficultyE   Difficulty = "E"
	DifficultyD   Difficulty = "D"
	DifficultyC   Difficulty = "C"
	DifficultyB   Difficulty = "B"
	DifficultyA   Difficulty = "A"
	DifficultyS   Difficulty = "S"
	DifficultySS  Difficulty = "SS"
	DifficultySSS Difficulty = "SSS"
)

// IsValid checks if the difficulty is one of the known ranks.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyE, DifficultyD, DifficultyC, DifficultyB,
		DifficultyA, DifficultyS, DifficultySS, DifficultySSS:
		return true
	}
	return false
}

// String returns the string representation.
func (d Difficulty) String() string {
	return string(d)
}

// Order returns a sortable weight, E lowest.
func (d Difficulty) Order() int {
	switch d {
	case DifficultyE:
		return 0
	case DifficultyD:
		return 1
	case DifficultyC:
		return 2
	case DifficultyB:
		return 3
	case DifficultyA:
		return 4
	case DifficultyS:
		return 5
	case DifficultySS:
		return 6
	case DifficultySSS:
		return 7
	default:
		return -1
	}
}

// RewardRarity maps the raid difficulty to the rarity of the achievement
// minted on clear: SSS is legendary, SS and S are epic, everything else rare.
func (d Difficulty) RewardRarity() Rarity {
	switch d {
	case DifficultySSS:
		return RarityLegendary
	case DifficultySS, DifficultyS:
		return RarityEpic
	default:
		return RarityRare
	}
}

// NewDifficulty creates a Difficulty with validation.
func NewDifficulty(value string) (Difficulty, error) {
	d := Difficulty(strings.ToUpper(strings.TrimSpace(value)))
	if !d.IsValid() {
		return "", NewDomainError("shared", "NewDifficulty", ErrInvalidInput, "unknown raid difficulty")
	}
	return d, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank represents a hunter's position in the leaderboard.
type Rank int

const (
	MinRank  Rank = 1
	Unranked Rank = 0 // Not yet ranked
)

// IsValid checks if the rank is valid.
func (r Rank) IsValid() bool {
	return r >= MinRank
}

// Int returns the underlying int value.
func (r Rank) Int() int {
	return int(r)
}

// IsUnranked checks if the hunter is not yet ranked.
func (r Rank) IsUnranked() bool {
	return r == Unranked
}

// IsTop returns true if the rank is in the top N.
func (r Rank) IsTop(n int) bool {
	return r.IsValid() && int(r) <= n
}

// Medal returns a medal emoji for top ranks.
func (r Rank) Medal() string {
	switch r {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// NewRank creates a new Rank with validation.
func NewRank(position int) (Rank, error) {
	if position < 0 {
		return Unranked, NewDomainError("shared", "NewRank", ErrNegativeValue, "rank cannot be negative")
	}
	return Rank(position), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a time period.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the time range is valid.
func (t TimeRange) IsValid() bool {
	return !t.From.IsZero() && !t.To.IsZero() && !t.From.After(t.To)
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.To.Sub(t.From)
}

// Contains checks if a time is within the range.
func (t TimeRange) Contains(tm time.Time) bool {
	return (tm.Equal(t.From) || tm.After(t.From)) && (tm.Equal(t.To) || tm.Before(t.To))
}

// NewTimeRange creates a new TimeRange with validation.
func NewTimeRange(from, to time.Time) (TimeRange, error) {
	tr := TimeRange{From: from, To: to}
	if !tr.IsValid() {
		return TimeRange{}, NewDomainError("shared", "NewTimeRange", ErrInvalidInput, "'from' must be before 'to'")
	}
	return tr, nil
}

// DayOf returns a TimeRange covering the calendar day of t in its location.
func DayOf(t time.Time) TimeRange {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.Add(24 * time.Hour).Add(-time.Nanosecond)
	return TimeRange{From: start, To: end}
}

// LastNDays returns a TimeRange for the last N days.
func LastNDays(n int) TimeRange {
	now := time.Now()
	return TimeRange{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}

// DateKey formats a time as the canonical YYYY-MM-DD bucket key used for
// daily missions and streak bookkeeping.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatXP renders an XP amount with its sign for user-facing messages.
func FormatXP(delta int) string {
	if delta >= 0 {
		return fmt.Sprintf("+%d XP", delta)
	}
	return fmt.Sprintf("%d XP", delta)
}
