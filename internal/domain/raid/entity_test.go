package raid

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

func newTestRaid(t *testing.T, bossType BossType, target int) *Raid {
	t.Helper()
	r, err := NewRaid(NewRaidParams{
		ID:         "5b2c3d4e-0000-4000-8000-000000000001",
		HunterID:   "3f1a2b4c-0000-4000-8000-000000000001",
		Key:        "test_boss",
		Name:       "Test Boss",
		BossType:   bossType,
		Target:     target,
		Difficulty: shared.DifficultyS,
		Reward:     Reward{XP: 300, Stats: map[shared.StatKey]int{shared.StatStrength: 3}},
	})
	assert.NoError(t, err)
	return r
}

func TestAdvanceBy_Cumulative(t *testing.T) {
	r := newTestRaid(t, BossWorkoutCount, 3)
	now := time.Now()

	result, err := r.AdvanceBy(1, now)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Progress)
	assert.False(t, result.JustCompleted)

	result, err = r.AdvanceBy(1, now)
	assert.NoError(t, err)
	assert.Equal(t, 2, result.Progress)

	result, err = r.AdvanceBy(1, now)
	assert.NoError(t, err)
	assert.True(t, result.JustCompleted)
	assert.Equal(t, StatusCompleted, r.Status)
	assert.False(t, r.CompletedAt.IsZero())
}

func TestAdvanceBy_AfterCompletion(t *testing.T) {
	r := newTestRaid(t, BossWorkoutCount, 1)
	now := time.Now()

	result, err := r.AdvanceBy(1, now)
	assert.NoError(t, err)
	assert.True(t, result.JustCompleted)

	// Completion fires exactly once; later progress is rejected.
	_, err = r.AdvanceBy(1, now)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Equal(t, 1, r.Progress)
}

func TestSyncTo_ReplacesProgress(t *testing.T) {
	r := newTestRaid(t, BossLevelTarget, 10)
	now := time.Now()

	result, err := r.SyncTo(4, now)
	assert.NoError(t, err)
	assert.Equal(t, 4, result.Progress)

	// Lower values never roll progress back.
	result, err = r.SyncTo(2, now)
	assert.NoError(t, err)
	assert.Equal(t, 4, result.Progress)

	result, err = r.SyncTo(10, now)
	assert.NoError(t, err)
	assert.True(t, result.JustCompleted)
}

func TestSyncTo_SaturatesAtTarget(t *testing.T) {
	r := newTestRaid(t, BossDailyStreak, 7)

	result, err := r.SyncTo(12, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 7, result.Progress)
	assert.True(t, result.JustCompleted)
}

func TestAchievementKeyAndRewardReason(t *testing.T) {
	r := newTestRaid(t, BossWorkoutCount, 1)

	assert.Equal(t, "boss_"+r.ID, r.AchievementKey())
	assert.Equal(t, "boss_reward_"+r.ID, r.RewardReason())
}

func TestDifficultyRewardRarity(t *testing.T) {
	assert.Equal(t, shared.RarityLegendary, shared.DifficultySSS.RewardRarity())
	assert.Equal(t, shared.RarityEpic, shared.DifficultySS.RewardRarity())
	assert.Equal(t, shared.RarityEpic, shared.DifficultyS.RewardRarity())
	assert.Equal(t, shared.RarityRare, shared.DifficultyA.RewardRarity())
	assert.Equal(t, shared.RarityRare, shared.DifficultyE.RewardRarity())
}

func TestBuildSeed(t *testing.T) {
	n := 0
	idFn := func() string {
		n++
		return fmt.Sprintf("5b2c3d4e-0000-4000-8000-00000000000%d", n)
	}

	raids, err := BuildSeed("3f1a2b4c-0000-4000-8000-000000000001", idFn)
	assert.NoError(t, err)
	assert.Len(t, raids, 3)

	byKey := make(map[string]*Raid)
	for _, r := range raids {
		byKey[r.Key] = r
		assert.Equal(t, StatusActive, r.Status)
		assert.Equal(t, 0, r.Progress)
	}

	assert.Equal(t, BossWorkoutCount, byKey[KeyVelocistaSomra].BossType)
	assert.Equal(t, 1, byKey[KeyVelocistaSomra].Target)
	assert.Equal(t, BossDailyStreak, byKey[KeyRachaDeFuego].BossType)
	assert.Equal(t, 7, byKey[KeyRachaDeFuego].Target)
	assert.Equal(t, BossWorkoutCount, byKey[KeyFuerzaAbsoluta].BossType)
	assert.Equal(t, 50, byKey[KeyFuerzaAbsoluta].Target)
}

func TestBuildSeed_MultiStatRewards(t *testing.T) {
	n := 0
	idFn := func() string {
		n++
		return fmt.Sprintf("5b2c3d4e-0000-4000-8000-00000000000%d", n)
	}

	raids, err := BuildSeed("3f1a2b4c-0000-4000-8000-000000000001", idFn)
	assert.NoError(t, err)

	byKey := make(map[string]*Raid)
	for _, r := range raids {
		byKey[r.Key] = r
	}

	assert.Equal(t, map[shared.StatKey]int{shared.StatAgility: 1},
		byKey[KeyVelocistaSomra].Reward.Stats)
	assert.Equal(t, map[shared.StatKey]int{shared.StatStrength: 2, shared.StatVitality: 1},
		byKey[KeyRachaDeFuego].Reward.Stats)
	assert.Equal(t, map[shared.StatKey]int{shared.StatStrength: 3, shared.StatVitality: 2},
		byKey[KeyFuerzaAbsoluta].Reward.Stats)
	assert.Equal(t, 5, byKey[KeyFuerzaAbsoluta].Reward.TotalStatPoints())
}

func TestRewardIsValid(t *testing.T) {
	assert.True(t, Reward{XP: 100}.IsValid())
	assert.True(t, Reward{XP: 100, Stats: map[shared.StatKey]int{
		shared.StatStrength: 2,
		shared.StatVitality: 1,
	}}.IsValid())

	assert.False(t, Reward{XP: -1}.IsValid())
	assert.False(t, Reward{Stats: map[shared.StatKey]int{shared.StatStrength: 0}}.IsValid())
	assert.False(t, Reward{Stats: map[shared.StatKey]int{"luck": 1}}.IsValid())
}
