package hunter

import (
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION FORMULAS
// ══════════════════════════════════════════════════════════════════════════════

// XPToNextLevel возвращает порог опыта для перехода с указанного уровня
// на следующий. Формула линейная: уровень * 100.
func XPToNextLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return level * 100
}

// WorkoutXP вычисляет опыт за тренировку:
// floor(база_интенсивности * минуты / 10).
func WorkoutXP(intensity shared.Intensity, durationMinutes int) int {
	if durationMinutes <= 0 {
		return 0
	}
	return intensity.BaseXP() * durationMinutes / 10
}

// Бонусы к опыту за питание.
const (
	// HealthyMealXP - приём здоровой пищи.
	HealthyMealXP = 2
	// UnhealthyMealXP - штраф за вредную еду. Опыт не уходит ниже нуля.
	UnhealthyMealXP = -1
)

// NutritionXP возвращает дельту опыта за приём пищи.
func NutritionXP(healthy bool) int {
	if healthy {
		return HealthyMealXP
	}
	return UnhealthyMealXP
}

// HydrationDailyGoalML - дневная цель по воде в миллилитрах.
const HydrationDailyGoalML = 2500

// DailyClearBonusXP - бонус за выполнение всех обязательных миссий дня.
const DailyClearBonusXP = 10

// ══════════════════════════════════════════════════════════════════════════════
// XP APPLICATION (Level-Up Loop)
// ══════════════════════════════════════════════════════════════════════════════

// XPResult описывает итог применения дельты опыта к профилю.
type XPResult struct {
	// Delta - запрошенная дельта (может быть отрицательной).
	Delta int

	// AppliedDelta - фактически применённая дельта после нижней границы.
	// Отличается от Delta только когда штраф упёрся в ноль.
	AppliedDelta int

	// OldLevel - уровень до применения.
	OldLevel int

	// NewLevel - уровень после применения.
	NewLevel int

	// LevelsGained - сколько уровней получено за один вызов.
	LevelsGained int

	// PointsGained - сколько очков атрибутов начислено (+1 за уровень).
	PointsGained int
}

// LeveledUp возвращает true, если был получен хотя бы один уровень.
func (r XPResult) LeveledUp() bool {
	return r.LevelsGained > 0
}

// ApplyXP применяет дельту опыта к профилю охотника.
//
// Положительная дельта может дать сразу несколько уровней: излишек
// переносится через цикл (currentXP -= порог; level++; points++), пока
// опыта хватает на очередной порог. Отрицательная дельта уменьшает опыт
// внутри уровня, но никогда не опускает его ниже нуля и не откатывает
// уровень. TotalXP учитывает только фактически применённый прирост.
func (h *Hunter) ApplyXP(delta int) XPResult {
	result := XPResult{
		Delta:    delta,
		OldLevel: h.Level,
	}

	newXP := h.CurrentXP + delta
	if newXP < 0 {
		// Штраф упёрся в ноль: применяем только часть дельты.
		result.AppliedDelta = -h.CurrentXP
		newXP = 0
	} else {
		result.AppliedDelta = delta
	}

	for newXP >= XPToNextLevel(h.Level) {
		newXP -= XPToNextLevel(h.Level)
		h.Level++
		h.AvailablePoints++
		result.LevelsGained++
		result.PointsGained++
	}

	h.CurrentXP = newXP
	if result.AppliedDelta > 0 {
		h.TotalXP += result.AppliedDelta
	}
	h.UpdatedAt = time.Now().UTC()

	result.NewLevel = h.Level
	return result
}

// ProgressToNextLevel возвращает прогресс к следующему уровню в процентах.
func (h *Hunter) ProgressToNextLevel() int {
	threshold := XPToNextLevel(h.Level)
	if threshold == 0 {
		return 100
	}
	return h.CurrentXP * 100 / threshold
}

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL TITLES
// ══════════════════════════════════════════════════════════════════════════════

// LevelTitle возвращает звание охотника для указанного уровня.
func LevelTitle(level int) string {
	switch {
	case level < 5:
		return "Cazador Novato"
	case level < 10:
		return "Cazador Emergente"
	case level < 25:
		return "Cazador de Élite"
	case level < 50:
		return "Cazador Legendario"
	default:
		return "Monarca de las Sombras"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STAT HISTORY
// ══════════════════════════════════════════════════════════════════════════════

// StatHistoryEntry - одна запись в журнале изменений атрибутов.
// Журнал объясняет, откуда взялось каждое очко.
type StatHistoryEntry struct {
	// HunterID - идентификатор охотника.
	HunterID string

	// Stat - изменённый атрибут.
	Stat shared.StatKey

	// Delta - величина изменения (обычно +1).
	Delta int

	// OldValue - значение атрибута до изменения.
	OldValue int

	// NewValue - значение атрибута после изменения.
	NewValue int

	// Reason - причина изменения: "allocation", "boss_reward_<id>".
	Reason string

	// OccurredAt - время изменения.
	OccurredAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// XP HISTORY
// ══════════════════════════════════════════════════════════════════════════════

// XPHistoryEntry - одна запись в журнале изменений опыта.
type XPHistoryEntry struct {
	// HunterID - идентификатор охотника.
	HunterID string

	// Delta - запрошенная дельта опыта.
	Delta int

	// AppliedDelta - фактически применённая дельта.
	AppliedDelta int

	// LevelAfter - уровень после применения.
	LevelAfter int

	// Source - источник: workout, nutrition, mission_reward, raid_reward,
	// daily_bonus, quest.
	Source string

	// SourceID - идентификатор источника (ID миссии, тренировки и т.п.).
	SourceID string

	// OccurredAt - время изменения.
	OccurredAt time.Time
}
