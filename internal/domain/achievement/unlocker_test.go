package achievement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

func keysOf(defs []Definition) []string {
	keys := make([]string, 0, len(defs))
	for _, d := range defs {
		keys = append(keys, d.Key)
	}
	return keys
}

func TestCheck_FirstWorkout(t *testing.T) {
	u := NewUnlocker()

	defs := u.Check(Snapshot{Level: 1, TotalWorkouts: 1}, map[string]bool{})

	assert.Equal(t, []string{"workout_1"}, keysOf(defs))
	assert.Equal(t, shared.RarityCommon, defs[0].Rarity)
}

func TestCheck_SkipsUnlocked(t *testing.T) {
	u := NewUnlocker()
	unlocked := map[string]bool{"workout_1": true, "workout_10": true}

	defs := u.Check(Snapshot{Level: 1, TotalWorkouts: 12}, unlocked)

	assert.Empty(t, defs)
}

func TestCheck_CrossesMultipleThresholds(t *testing.T) {
	// A hunter whose counters jumped past several milestones at once
	// collects all of them in a single check.
	u := NewUnlocker()

	defs := u.Check(Snapshot{Level: 11, TotalWorkouts: 26, CurrentStreak: 7}, map[string]bool{})

	keys := keysOf(defs)
	assert.Contains(t, keys, "workout_1")
	assert.Contains(t, keys, "workout_10")
	assert.Contains(t, keys, "workout_25")
	assert.Contains(t, keys, "level_5")
	assert.Contains(t, keys, "level_10")
	assert.Contains(t, keys, "streak_3")
	assert.Contains(t, keys, "streak_7")
	assert.NotContains(t, keys, "workout_50")
	assert.NotContains(t, keys, "level_25")
	assert.NotContains(t, keys, "streak_30")
}

func TestMilestoneRarities(t *testing.T) {
	byKey := make(map[string]Definition)
	for _, d := range WorkoutMilestones() {
		byKey[d.Key] = d
	}
	for _, d := range LevelMilestones() {
		byKey[d.Key] = d
	}

	assert.Equal(t, shared.RarityCommon, byKey["workout_10"].Rarity)
	assert.Equal(t, shared.RarityRare, byKey["workout_25"].Rarity)
	assert.Equal(t, shared.RarityEpic, byKey["workout_50"].Rarity)
	assert.Equal(t, shared.RarityLegendary, byKey["workout_100"].Rarity)

	assert.Equal(t, shared.RarityRare, byKey["level_5"].Rarity)
	assert.Equal(t, shared.RarityEpic, byKey["level_10"].Rarity)
	assert.Equal(t, shared.RarityLegendary, byKey["level_25"].Rarity)
	assert.Equal(t, shared.RarityMythic, byKey["level_50"].Rarity)
}

func TestForBossVictory(t *testing.T) {
	def := ForBossVictory("raid-123", "Fuerza Absoluta", shared.DifficultyS)

	assert.Equal(t, "boss_raid-123", def.Key)
	assert.Equal(t, shared.RarityEpic, def.Rarity)
	assert.Contains(t, def.Title, "Fuerza Absoluta")
}

func TestNewAchievement_Validation(t *testing.T) {
	_, err := NewAchievement(NewAchievementParams{
		ID:       "id",
		HunterID: "hunter",
		Key:      "",
		Rarity:   shared.RarityRare,
	})
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewAchievement(NewAchievementParams{
		ID:       "id",
		HunterID: "hunter",
		Key:      "workout_1",
		Rarity:   shared.Rarity("divine"),
	})
	assert.ErrorIs(t, err, ErrInvalidRarity)
}
