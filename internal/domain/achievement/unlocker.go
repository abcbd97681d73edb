package achievement

import (
	"fmt"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE CATALOGS
// ══════════════════════════════════════════════════════════════════════════════

// Definition описывает веху достижения.
type Definition struct {
	Key         string
	Title       string
	Description string
	Rarity      shared.Rarity
	Threshold   int
}

// WorkoutMilestones возвращает вехи по числу тренировок.
func WorkoutMilestones() []Definition {
	return []Definition{
		{"workout_1", "🗡️ Primera Cacería", "Completa tu primer entrenamiento", shared.RarityCommon, 1},
		{"workout_10", "⚔️ Cazador Dedicado", "Completa 10 entrenamientos", shared.RarityCommon, 10},
		{"workout_25", "🛡️ Veterano del Gimnasio", "Completa 25 entrenamientos", shared.RarityRare, 25},
		{"workout_50", "🔥 Máquina de Guerra", "Completa 50 entrenamientos", shared.RarityEpic, 50},
		{"workout_100", "👑 Leyenda Viviente", "Completa 100 entrenamientos", shared.RarityLegendary, 100},
	}
}

// LevelMilestones возвращает вехи по уровню.
func LevelMilestones() []Definition {
	return []Definition{
		{"level_5", "🌟 Cazador Emergente", "Alcanza el nivel 5", shared.RarityRare, 5},
		{"level_10", "⚡ Cazador de Élite", "Alcanza el nivel 10", shared.RarityEpic, 10},
		{"level_25", "💎 Cazador Legendario", "Alcanza el nivel 25", shared.RarityLegendary, 25},
		{"level_50", "🔱 Monarca de las Sombras", "Alcanza el nivel 50", shared.RarityMythic, 50},
	}
}

// StreakMilestones возвращает вехи по серии дней.
func StreakMilestones() []Definition {
	return []Definition{
		{"streak_3", "🔥 Tres Días de Fuego", "Mantén una racha de 3 días", shared.RarityCommon, 3},
		{"streak_7", "🔥 Semana Imparable", "Mantén una racha de 7 días", shared.RarityRare, 7},
		{"streak_30", "🔥 Voluntad de Hierro", "Mantén una racha de 30 días", shared.RarityLegendary, 30},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// UNLOCKER
// Чистая проверка условий: принимает текущие счётчики и уже
// разблокированные ключи, возвращает новые достижения.
// ══════════════════════════════════════════════════════════════════════════════

// Unlocker проверяет условия разблокировки достижений.
type Unlocker struct{}

// NewUnlocker создаёт проверщик достижений.
func NewUnlocker() *Unlocker {
	return &Unlocker{}
}

// Snapshot - счётчики охотника, по которым проверяются вехи.
type Snapshot struct {
	Level         int
	TotalWorkouts int
	CurrentStreak int
}

// Check возвращает определения всех вех, достигнутых снимком,
// но ещё не разблокированных. Один вызов может вернуть несколько вех:
// большой разовый прирост пересекает несколько порогов.
func (u *Unlocker) Check(snap Snapshot, unlocked map[string]bool) []Definition {
	var result []Definition

	check := func(defs []Definition, value int) {
		for _, def := range defs {
			if value >= def.Threshold && !unlocked[def.Key] {
				result = append(result, def)
			}
		}
	}

	check(WorkoutMilestones(), snap.TotalWorkouts)
	check(LevelMilestones(), snap.Level)
	check(StreakMilestones(), snap.CurrentStreak)

	return result
}

// ForBossVictory возвращает определение достижения за победу над боссом.
// Редкость выводится из сложности рейда.
func ForBossVictory(raidID, bossName string, difficulty shared.Difficulty) Definition {
	return Definition{
		Key:         "boss_" + raidID,
		Title:       fmt.Sprintf("⚔️ %s Derrotado", bossName),
		Description: fmt.Sprintf("Derrota al jefe %s", bossName),
		Rarity:      difficulty.RewardRarity(),
	}
}
