package mission

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// DAILY QUEST CATALOG
// Стандартный набор дневных заданий. Генерируется каждому охотнику
// каждый день, ключи стабильны.
// ══════════════════════════════════════════════════════════════════════════════

// Template описывает шаблон дневного задания.
type Template struct {
	Key          string
	Title        string
	Kind         Kind
	ExerciseType string
	Target       int
	XPReward     int
	PenaltyXP    int
	Required     bool
}

// Ключи стандартных дневных заданий.
const (
	KeyAgua     = "agua"
	KeyEntrenar = "entrenar"
	KeyDormir   = "dormir"
	KeyComer    = "comer_saludable"

	// Бонусные задания дня. Невыполнение не ломает серию.
	KeyFlexiones   = "flexiones"
	KeyAbdominales = "abdominales"
)

// DailyTemplates возвращает стандартный набор дневных заданий:
// обязательная четвёрка плюс бонусные упражнения.
func DailyTemplates() []Template {
	return []Template{
		{KeyAgua, "💧 Beber 2L de agua", KindHydration, "", 2000, 5, -3, true},
		{KeyEntrenar, "⚔️ Entrenar 20 minutos", KindTraining, "", 20, 15, -5, true},
		{KeyDormir, "😴 Dormir 7 horas", KindSleep, "", 7, 10, -3, true},
		{KeyComer, "🍎 Comer saludable 3 veces", KindNutrition, "", 3, 8, -3, true},
		{KeyFlexiones, "💪 Hacer 30 flexiones", KindExercise, "flexiones", 30, 12, 0, false},
		{KeyAbdominales, "🔥 Hacer 40 abdominales", KindExercise, "abdominales", 40, 12, 0, false},
	}
}

// TemplateByKey возвращает шаблон по ключу.
func TemplateByKey(key string) (Template, bool) {
	for _, tpl := range DailyTemplates() {
		if tpl.Key == key {
			return tpl, true
		}
	}
	return Template{}, false
}

// BuildDaily создаёт набор дневных миссий для охотника из шаблонов.
// Идентификаторы назначает вызывающая сторона через idFn.
func BuildDaily(hunterID string, date time.Time, idFn func() string) ([]*Mission, error) {
	templates := DailyTemplates()
	missions := make([]*Mission, 0, len(templates))

	for _, tpl := range templates {
		m, err := NewMission(NewMissionParams{
			ID:           idFn(),
			HunterID:     hunterID,
			Key:          tpl.Key,
			Title:        tpl.Title,
			Kind:         tpl.Kind,
			ExerciseType: tpl.ExerciseType,
			Target:       tpl.Target,
			XPReward:     tpl.XPReward,
			PenaltyXP:    tpl.PenaltyXP,
			Required:     tpl.Required,
			Date:         date,
		})
		if err != nil {
			return nil, err
		}
		missions = append(missions, m)
	}

	return missions, nil
}
