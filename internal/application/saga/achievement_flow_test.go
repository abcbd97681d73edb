package saga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

type flowWiring struct {
	hunterRepo      *fakeHunterRepo
	achievementRepo *fakeAchievementRepo
	publisher       *fakePublisher
	flow            *AchievementFlow
}

func newFlowWiring(t *testing.T) *flowWiring {
	t.Helper()

	w := &flowWiring{
		hunterRepo:      newFakeHunterRepo(),
		achievementRepo: newFakeAchievementRepo(),
		publisher:       &fakePublisher{},
	}

	flow, err := NewAchievementFlowBuilder().
		WithHunterRepo(w.hunterRepo).
		WithAchievementRepo(w.achievementRepo).
		WithEventBus(w.publisher).
		WithIDGenerator(&fakeIDGen{}).
		WithLogger(testLogger()).
		Build()
	require.NoError(t, err)

	w.flow = flow
	return w
}

func (w *flowWiring) seedHunter(t *testing.T, level, workouts, streak int) *hunter.Hunter {
	t.Helper()

	h, err := hunter.NewHunter(hunter.NewHunterParams{
		ID:   "hunter-1",
		Name: "Taker",
	})
	require.NoError(t, err)

	h.Level = level
	h.TotalWorkouts = workouts
	h.CurrentStreak = streak
	require.NoError(t, w.hunterRepo.Create(context.Background(), h))
	return h
}

func unlockedKeys(result *AchievementCheckResult) []string {
	keys := make([]string, 0, len(result.Unlocked))
	for _, a := range result.Unlocked {
		keys = append(keys, a.Key)
	}
	return keys
}

func TestAchievementFlow_FirstWorkout(t *testing.T) {
	w := newFlowWiring(t)
	w.seedHunter(t, 1, 1, 0)

	result, err := w.flow.CheckAfterWorkout(context.Background(), "hunter-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"workout_1"}, unlockedKeys(result))
	assert.Len(t, w.publisher.ofType(shared.EventAchievementUnlocked), 1)
}

func TestAchievementFlow_NothingNew(t *testing.T) {
	w := newFlowWiring(t)
	w.seedHunter(t, 1, 0, 0)

	result, err := w.flow.CheckAfterLevelUp(context.Background(), "hunter-1")

	require.NoError(t, err)
	assert.Empty(t, result.Unlocked)
	assert.Empty(t, w.publisher.events)
}

func TestAchievementFlow_Idempotent(t *testing.T) {
	w := newFlowWiring(t)
	w.seedHunter(t, 1, 1, 0)
	ctx := context.Background()

	first, err := w.flow.CheckAfterWorkout(ctx, "hunter-1")
	require.NoError(t, err)
	require.Len(t, first.Unlocked, 1)

	second, err := w.flow.CheckAfterWorkout(ctx, "hunter-1")
	require.NoError(t, err)
	assert.Empty(t, second.Unlocked)
	assert.Len(t, w.publisher.ofType(shared.EventAchievementUnlocked), 1)
}

func TestAchievementFlow_CapsPerRun(t *testing.T) {
	w := newFlowWiring(t)
	// A veteran snapshot crosses every workout, level and streak milestone
	// at once: 5 + 4 + 3 = 12 candidates.
	w.seedHunter(t, 50, 100, 30)
	ctx := context.Background()

	first, err := w.flow.CheckAfterLevelUp(ctx, "hunter-1")
	require.NoError(t, err)
	assert.Len(t, first.Unlocked, 5)

	// The remainder is healed by subsequent triggers.
	second, err := w.flow.CheckAfterLevelUp(ctx, "hunter-1")
	require.NoError(t, err)
	assert.Len(t, second.Unlocked, 5)

	third, err := w.flow.CheckAfterLevelUp(ctx, "hunter-1")
	require.NoError(t, err)
	assert.Len(t, third.Unlocked, 2)

	keys, err := w.achievementRepo.GetUnlockedKeys(ctx, "hunter-1")
	require.NoError(t, err)
	assert.Len(t, keys, 12)
}

func TestAchievementFlow_BossVictory(t *testing.T) {
	w := newFlowWiring(t)
	w.seedHunter(t, 1, 0, 0)
	ctx := context.Background()

	boss, err := raid.NewRaid(raid.NewRaidParams{
		ID:         "raid-1",
		HunterID:   "hunter-1",
		Key:        "igris",
		Name:       "Igris el Caballero Rojo",
		BossType:   raid.BossWorkoutCount,
		Target:     10,
		Difficulty: shared.DifficultySSS,
		Reward:     raid.Reward{XP: 500},
	})
	require.NoError(t, err)

	result, err := w.flow.CheckAfterRaidVictory(ctx, "hunter-1", boss)

	require.NoError(t, err)
	require.Len(t, result.Unlocked, 1)
	assert.Equal(t, "boss_raid-1", result.Unlocked[0].Key)
	assert.Equal(t, shared.RarityLegendary, result.Unlocked[0].Rarity)

	// A replayed completion event grants nothing.
	again, err := w.flow.CheckAfterRaidVictory(ctx, "hunter-1", boss)
	require.NoError(t, err)
	assert.Empty(t, again.Unlocked)
}

func TestAchievementFlow_HunterNotFound(t *testing.T) {
	w := newFlowWiring(t)

	_, err := w.flow.CheckAfterWorkout(context.Background(), "ghost")

	require.Error(t, err)
	assert.ErrorIs(t, err, hunter.ErrNotFound)

	var flowErr *AchievementFlowError
	require.ErrorAs(t, err, &flowErr)
	assert.Equal(t, StepLoadHunter, flowErr.Step)
	assert.False(t, flowErr.IsRetryable())
}

func TestAchievementFlow_UnlockEventCarriesRarity(t *testing.T) {
	w := newFlowWiring(t)
	w.seedHunter(t, 1, 1, 0)

	_, err := w.flow.CheckAfterWorkout(context.Background(), "hunter-1")
	require.NoError(t, err)

	events := w.publisher.ofType(shared.EventAchievementUnlocked)
	require.Len(t, events, 1)

	unlocked, ok := events[0].(shared.AchievementUnlockedEvent)
	require.True(t, ok)
	assert.Equal(t, "workout_1", unlocked.AchievementKey)
	assert.Equal(t, string(shared.RarityCommon), unlocked.Rarity)
}
