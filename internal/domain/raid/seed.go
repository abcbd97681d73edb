package raid

import (
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEED CATALOG
// Стартовый набор боссов для нового охотника.
// ══════════════════════════════════════════════════════════════════════════════

// Template описывает шаблон босса.
type Template struct {
	Key         string
	Name        string
	Description string
	BossType    BossType
	Target      int
	Difficulty  shared.Difficulty
	Reward      Reward
}

// Ключи стартовых боссов.
const (
	KeyRachaDeFuego   = "racha_de_fuego"
	KeyVelocistaSomra = "velocista_sombra"
	KeyFuerzaAbsoluta = "fuerza_absoluta"
)

// SeedTemplates возвращает стартовый набор боссов.
func SeedTemplates() []Template {
	return []Template{
		{
			Key:         KeyVelocistaSomra,
			Name:        "👤 Velocista Sombra",
			Description: "Completa tu primer entrenamiento",
			BossType:    BossWorkoutCount,
			Target:      1,
			Difficulty:  shared.DifficultyE,
			Reward:      Reward{XP: 25, Stats: map[shared.StatKey]int{shared.StatAgility: 1}},
		},
		{
			Key:         KeyRachaDeFuego,
			Name:        "🔥 Racha de Fuego",
			Description: "Completa todas tus misiones diarias 7 días seguidos",
			BossType:    BossDailyStreak,
			Target:      7,
			Difficulty:  shared.DifficultyA,
			Reward: Reward{XP: 100, Stats: map[shared.StatKey]int{
				shared.StatStrength: 2,
				shared.StatVitality: 1,
			}},
		},
		{
			Key:         KeyFuerzaAbsoluta,
			Name:        "💪 Fuerza Absoluta",
			Description: "Registra 50 entrenamientos",
			BossType:    BossWorkoutCount,
			Target:      50,
			Difficulty:  shared.DifficultyS,
			Reward: Reward{XP: 300, Stats: map[shared.StatKey]int{
				shared.StatStrength: 3,
				shared.StatVitality: 2,
			}},
		},
	}
}

// BuildSeed создаёт стартовые рейды для охотника из шаблонов.
// Идентификаторы назначает вызывающая сторона через idFn.
func BuildSeed(hunterID string, idFn func() string) ([]*Raid, error) {
	templates := SeedTemplates()
	raids := make([]*Raid, 0, len(templates))

	for _, tpl := range templates {
		r, err := NewRaid(NewRaidParams{
			ID:          idFn(),
			HunterID:    hunterID,
			Key:         tpl.Key,
			Name:        tpl.Name,
			Description: tpl.Description,
			BossType:    tpl.BossType,
			Target:      tpl.Target,
			Difficulty:  tpl.Difficulty,
			Reward:      tpl.Reward,
		})
		if err != nil {
			return nil, err
		}
		raids = append(raids, r)
	}

	return raids, nil
}
