package eventhandler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taker-hub/taker-fitness-hub/internal/application/command"
	"github.com/taker-hub/taker-fitness-hub/internal/application/saga"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

type handlerWiring struct {
	hunterRepo      *memHunterRepo
	raidRepo        *memRaidRepo
	achievementRepo *memAchievementRepo
	historyRepo     *memHistoryRepo
	publisher       *memPublisher
	tracker         *command.ProgressTracker
	achievements    *saga.AchievementFlow
}

func newHandlerWiring(t *testing.T) *handlerWiring {
	t.Helper()

	w := &handlerWiring{
		hunterRepo:      newMemHunterRepo(),
		raidRepo:        newMemRaidRepo(),
		achievementRepo: newMemAchievementRepo(),
		historyRepo:     &memHistoryRepo{},
		publisher:       &memPublisher{},
	}

	w.tracker = command.NewProgressTracker(w.hunterRepo, w.historyRepo, nil, w.publisher)

	flow, err := saga.NewAchievementFlowBuilder().
		WithHunterRepo(w.hunterRepo).
		WithAchievementRepo(w.achievementRepo).
		WithEventBus(w.publisher).
		WithIDGenerator(&seqIDGen{}).
		WithLogger(testLogger()).
		Build()
	require.NoError(t, err)
	w.achievements = flow

	return w
}

func (w *handlerWiring) seedHunter(t *testing.T, id string) *hunter.Hunter {
	t.Helper()

	h, err := hunter.NewHunter(hunter.NewHunterParams{ID: id, Name: "Taker"})
	require.NoError(t, err)
	require.NoError(t, w.hunterRepo.Create(context.Background(), h))
	return h
}

func (w *handlerWiring) seedRaid(t *testing.T, id, hunterID string, bossType raid.BossType, target int) *raid.Raid {
	t.Helper()

	r, err := raid.NewRaid(raid.NewRaidParams{
		ID:         id,
		HunterID:   hunterID,
		Key:        "test_" + id,
		Name:       "Jefe de Prueba",
		BossType:   bossType,
		Target:     target,
		Difficulty: shared.DifficultyS,
		Reward: raid.Reward{XP: 150, Stats: map[shared.StatKey]int{
			shared.StatStrength: 2,
			shared.StatVitality: 1,
		}},
	})
	require.NoError(t, err)
	require.NoError(t, w.raidRepo.CreateBatch(context.Background(), []*raid.Raid{r}))
	return r
}

// ─── OnWorkoutLogged ─────────────────────────────────────────────────────────

func TestOnWorkoutLogged_AdvancesRaidAndChecksAchievements(t *testing.T) {
	w := newHandlerWiring(t)
	h := w.seedHunter(t, "hunter-1")
	w.seedRaid(t, "raid-1", h.ID, raid.BossWorkoutCount, 3)

	h.RecordWorkout()
	require.NoError(t, w.hunterRepo.Update(context.Background(), h))

	handler := NewOnWorkoutLoggedHandler(
		w.raidRepo, w.achievements, w.publisher, testLogger(), DefaultWorkoutLoggedConfig())

	event := shared.NewWorkoutLoggedEvent(h.ID, "w-1", "correr", "medium", 30, 6, 1)
	require.NoError(t, handler.Handle(event))

	stored, err := w.raidRepo.GetByID(context.Background(), "raid-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Progress)
	assert.Equal(t, raid.StatusActive, stored.Status)
	assert.Len(t, w.publisher.ofType(shared.EventRaidProgressed), 1)

	// First workout milestone is minted by the achievement flow.
	has, err := w.achievementRepo.Has(context.Background(), h.ID, "workout_1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestOnWorkoutLogged_FinalBlowPublishesRaidCompleted(t *testing.T) {
	w := newHandlerWiring(t)
	h := w.seedHunter(t, "hunter-1")
	r := w.seedRaid(t, "raid-1", h.ID, raid.BossWorkoutCount, 1)

	handler := NewOnWorkoutLoggedHandler(
		w.raidRepo, w.achievements, w.publisher, testLogger(), DefaultWorkoutLoggedConfig())

	event := shared.NewWorkoutLoggedEvent(h.ID, "w-1", "flexiones", "high", 15, 4, 1)
	require.NoError(t, handler.Handle(event))

	stored, err := w.raidRepo.GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted())

	completed := w.publisher.ofType(shared.EventRaidCompleted)
	require.Len(t, completed, 1)
	raidEvent := completed[0].(shared.RaidCompletedEvent)
	assert.Equal(t, r.ID, raidEvent.RaidID)
	assert.Equal(t, 150, raidEvent.RewardXP)
}

func TestOnWorkoutLogged_IgnoresForeignEvent(t *testing.T) {
	w := newHandlerWiring(t)

	handler := NewOnWorkoutLoggedHandler(
		w.raidRepo, w.achievements, w.publisher, testLogger(), DefaultWorkoutLoggedConfig())

	require.NoError(t, handler.Handle(shared.NewLevelUpEvent("hunter-1", 1, 2)))
	assert.Empty(t, w.publisher.events)
}

// ─── OnLevelUp ───────────────────────────────────────────────────────────────

func TestOnLevelUp_SyncsLevelRaids(t *testing.T) {
	w := newHandlerWiring(t)
	h := w.seedHunter(t, "hunter-1")
	w.seedRaid(t, "raid-1", h.ID, raid.BossLevelTarget, 5)

	handler := NewOnLevelUpHandler(w.raidRepo, w.achievements, w.publisher, testLogger())

	require.NoError(t, handler.Handle(shared.NewLevelUpEvent(h.ID, 1, 3)))

	stored, err := w.raidRepo.GetByID(context.Background(), "raid-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Progress)
	assert.Equal(t, raid.StatusActive, stored.Status)

	// A multi-level batch grant closes the target in one sync.
	require.NoError(t, handler.Handle(shared.NewLevelUpEvent(h.ID, 3, 7)))

	stored, err = w.raidRepo.GetByID(context.Background(), "raid-1")
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted())
	assert.Equal(t, 5, stored.Progress)
}

func TestOnLevelUp_MintsLevelMilestone(t *testing.T) {
	w := newHandlerWiring(t)
	h := w.seedHunter(t, "hunter-1")

	h.Level = 5
	require.NoError(t, w.hunterRepo.Update(context.Background(), h))

	handler := NewOnLevelUpHandler(w.raidRepo, w.achievements, w.publisher, testLogger())
	require.NoError(t, handler.Handle(shared.NewLevelUpEvent(h.ID, 4, 5)))

	has, err := w.achievementRepo.Has(context.Background(), h.ID, "level_5")
	require.NoError(t, err)
	assert.True(t, has)
}

// ─── OnDailyClear ────────────────────────────────────────────────────────────

func TestOnDailyClear_AdvancesStreakAndAwardsBonus(t *testing.T) {
	w := newHandlerWiring(t)
	h := w.seedHunter(t, "hunter-1")
	w.seedRaid(t, "raid-1", h.ID, raid.BossDailyStreak, 7)

	handler := NewOnDailyClearHandler(
		w.tracker, w.raidRepo, w.achievements, w.publisher, testLogger(), DefaultDailyClearConfig())

	day := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	require.NoError(t, handler.Handle(shared.NewAllRequiredCompletedEvent(h.ID, day, 4)))

	updated, err := w.hunterRepo.GetByID(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentStreak)
	assert.Equal(t, hunter.DailyClearBonusXP, updated.TotalXP)

	assert.Len(t, w.publisher.ofType(shared.EventStreakUpdated), 1)
	assert.Len(t, w.publisher.ofType(shared.EventXPGained), 1)

	stored, err := w.raidRepo.GetByID(context.Background(), "raid-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Progress)
}

func TestOnDailyClear_SameDayReplayAwardsNothing(t *testing.T) {
	w := newHandlerWiring(t)
	h := w.seedHunter(t, "hunter-1")

	handler := NewOnDailyClearHandler(
		w.tracker, w.raidRepo, w.achievements, w.publisher, testLogger(), DefaultDailyClearConfig())

	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, handler.Handle(shared.NewAllRequiredCompletedEvent(h.ID, day, 4)))
	require.NoError(t, handler.Handle(shared.NewAllRequiredCompletedEvent(h.ID, day, 4)))

	updated, err := w.hunterRepo.GetByID(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentStreak)
	assert.Equal(t, hunter.DailyClearBonusXP, updated.TotalXP)
	assert.Len(t, w.publisher.ofType(shared.EventStreakUpdated), 1)
}

func TestOnDailyClear_StreakMilestone(t *testing.T) {
	w := newHandlerWiring(t)
	h := w.seedHunter(t, "hunter-1")

	h.CurrentStreak = 2
	h.MaxStreak = 2
	h.LastClearDate = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	require.NoError(t, w.hunterRepo.Update(context.Background(), h))

	handler := NewOnDailyClearHandler(
		w.tracker, w.raidRepo, w.achievements, w.publisher, testLogger(), DefaultDailyClearConfig())

	day := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)
	require.NoError(t, handler.Handle(shared.NewAllRequiredCompletedEvent(h.ID, day, 4)))

	has, err := w.achievementRepo.Has(context.Background(), h.ID, "streak_3")
	require.NoError(t, err)
	assert.True(t, has)
}

// ─── OnRaidCompleted ─────────────────────────────────────────────────────────

func TestOnRaidCompleted_GrantsRewardAndBossAchievement(t *testing.T) {
	w := newHandlerWiring(t)
	h := w.seedHunter(t, "hunter-1")
	r := w.seedRaid(t, "raid-1", h.ID, raid.BossWorkoutCount, 1)

	// Defeat the boss before the reward event arrives.
	_, err := r.AdvanceBy(1, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, w.raidRepo.Update(context.Background(), r))

	handler := NewOnRaidCompletedHandler(
		w.tracker, w.raidRepo, w.historyRepo, w.achievements, testLogger())

	event := shared.NewRaidCompletedEvent(h.ID, r.ID, string(r.BossType), r.Difficulty.String(), r.Reward.XP)
	require.NoError(t, handler.Handle(event))

	updated, err := w.hunterRepo.GetByID(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Equal(t, 150, updated.TotalXP)
	assert.Equal(t, 2, updated.Level) // 150 XP crosses the 100 XP first level
	assert.Equal(t, hunter.BaseStatValue+2, updated.Stats[shared.StatStrength])
	assert.Equal(t, hunter.BaseStatValue+1, updated.Stats[shared.StatVitality])

	// Every rewarded stat is journaled separately with the boss reason.
	history, err := w.historyRepo.GetStatHistory(context.Background(), h.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	deltaByStat := make(map[shared.StatKey]int)
	for _, entry := range history {
		assert.Equal(t, r.RewardReason(), entry.Reason)
		deltaByStat[entry.Stat] = entry.Delta
	}
	assert.Equal(t, map[shared.StatKey]int{
		shared.StatStrength: 2,
		shared.StatVitality: 1,
	}, deltaByStat)

	// Boss achievement minted with rarity derived from difficulty.
	has, err := w.achievementRepo.Has(context.Background(), h.ID, r.AchievementKey())
	require.NoError(t, err)
	assert.True(t, has)
}

func TestOnRaidCompleted_UnknownRaid(t *testing.T) {
	w := newHandlerWiring(t)
	w.seedHunter(t, "hunter-1")

	handler := NewOnRaidCompletedHandler(
		w.tracker, w.raidRepo, w.historyRepo, w.achievements, testLogger())

	event := shared.NewRaidCompletedEvent("hunter-1", "ghost-raid", "workout_count", "S", 100)
	err := handler.Handle(event)

	require.Error(t, err)
	assert.ErrorIs(t, err, raid.ErrNotFound)
}
