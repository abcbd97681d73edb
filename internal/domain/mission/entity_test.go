package mission

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestMission(t *testing.T, target int) *Mission {
	t.Helper()
	m, err := NewMission(NewMissionParams{
		ID:       "8a0c9d7e-0000-4000-8000-000000000001",
		HunterID: "3f1a2b4c-0000-4000-8000-000000000001",
		Key:      KeyEntrenar,
		Title:    "⚔️ Entrenar 20 minutos",
		Kind:     KindTraining,
		Target:   target,
		XPReward: 15,
		Required: true,
	})
	assert.NoError(t, err)
	return m
}

func TestAdvance_AccumulatesProgress(t *testing.T) {
	m := newTestMission(t, 20)
	now := time.Now()

	result, err := m.Advance(5, now)
	assert.NoError(t, err)
	assert.Equal(t, 5, result.Applied)
	assert.False(t, result.JustCompleted)
	assert.Equal(t, StatusPending, m.Status)
}

func TestAdvance_SaturatesAtTarget(t *testing.T) {
	m := newTestMission(t, 20)
	now := time.Now()

	result, err := m.Advance(50, now)
	assert.NoError(t, err)
	assert.Equal(t, 20, result.Applied)
	assert.True(t, result.JustCompleted)
	assert.Equal(t, 20, m.Progress)
	assert.Equal(t, StatusCompleted, m.Status)
	assert.False(t, m.CompletedAt.IsZero())
}

func TestAdvance_CompletedExactlyOnce(t *testing.T) {
	m := newTestMission(t, 20)
	now := time.Now()

	result, err := m.Advance(15, now)
	assert.NoError(t, err)
	assert.False(t, result.JustCompleted)

	result, err = m.Advance(5, now)
	assert.NoError(t, err)
	assert.True(t, result.JustCompleted)

	// Further progress on a completed mission is rejected.
	_, err = m.Advance(1, now)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Equal(t, 20, m.Progress)
}

func TestAdvance_RejectsNonPositiveAmount(t *testing.T) {
	m := newTestMission(t, 20)

	_, err := m.Advance(0, time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = m.Advance(-3, time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAdvance_ExpiredMission(t *testing.T) {
	m := newTestMission(t, 20)
	assert.True(t, m.Expire(time.Now()))

	_, err := m.Advance(5, time.Now())
	assert.ErrorIs(t, err, ErrExpiredMission)

	// Expiring twice is a no-op.
	assert.False(t, m.Expire(time.Now()))
}

func TestExpire_DoesNotTouchCompleted(t *testing.T) {
	m := newTestMission(t, 20)
	_, err := m.Advance(20, time.Now())
	assert.NoError(t, err)

	assert.False(t, m.Expire(time.Now()))
	assert.Equal(t, StatusCompleted, m.Status)
}

func TestAllRequiredCompleted(t *testing.T) {
	hunterID := "3f1a2b4c-0000-4000-8000-000000000001"
	n := 0
	idFn := func() string {
		n++
		return fmt.Sprintf("8a0c9d7e-0000-4000-8000-00000000000%d", n)
	}

	missions, err := BuildDaily(hunterID, time.Now(), idFn)
	assert.NoError(t, err)
	assert.Len(t, missions, 6)
	assert.False(t, AllRequiredCompleted(missions))

	now := time.Now()
	var required []*Mission
	for _, m := range missions {
		if m.Required {
			required = append(required, m)
		}
	}
	assert.Len(t, required, 4)

	for _, m := range required[:3] {
		_, err := m.Advance(m.Target, now)
		assert.NoError(t, err)
	}
	assert.False(t, AllRequiredCompleted(missions))

	// Невыполненные бонусные миссии не мешают полному выполнению дня.
	_, err = required[3].Advance(required[3].Target, now)
	assert.NoError(t, err)
	assert.True(t, AllRequiredCompleted(missions))
}

func TestAllRequiredCompleted_EmptySet(t *testing.T) {
	assert.False(t, AllRequiredCompleted(nil))
}

func TestDailyTemplates_Rewards(t *testing.T) {
	templates := DailyTemplates()
	assert.Len(t, templates, 6)

	byKey := make(map[string]Template)
	for _, tpl := range templates {
		byKey[tpl.Key] = tpl
	}

	assert.Equal(t, 5, byKey[KeyAgua].XPReward)
	assert.Equal(t, 2000, byKey[KeyAgua].Target)
	assert.Equal(t, 15, byKey[KeyEntrenar].XPReward)
	assert.Equal(t, 10, byKey[KeyDormir].XPReward)
	assert.Equal(t, 8, byKey[KeyComer].XPReward)
	assert.Equal(t, 3, byKey[KeyComer].Target)

	for _, tpl := range templates {
		if tpl.Required {
			assert.Negative(t, tpl.PenaltyXP, tpl.Key)
		} else {
			assert.Zero(t, tpl.PenaltyXP, tpl.Key)
		}
	}
}
