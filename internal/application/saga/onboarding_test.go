package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/mission"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

type onboardingWiring struct {
	hunterRepo  *fakeHunterRepo
	raidRepo    *fakeRaidRepo
	missionRepo *fakeMissionRepo
	publisher   *fakePublisher
	saga        *OnboardingSaga
}

func newOnboardingWiring(t *testing.T) *onboardingWiring {
	t.Helper()

	w := &onboardingWiring{
		hunterRepo:  newFakeHunterRepo(),
		raidRepo:    newFakeRaidRepo(),
		missionRepo: newFakeMissionRepo(),
		publisher:   &fakePublisher{},
	}

	saga, err := NewOnboardingSagaBuilder().
		WithHunterRepo(w.hunterRepo).
		WithRaidRepo(w.raidRepo).
		WithMissionRepo(w.missionRepo).
		WithEventBus(w.publisher).
		WithIDGenerator(&fakeIDGen{}).
		WithConfig(OnboardingSagaConfig{BcryptCost: bcrypt.MinCost}).
		Build()
	require.NoError(t, err)

	w.saga = saga
	return w
}

func TestOnboardingSaga_Success(t *testing.T) {
	w := newOnboardingWiring(t)
	ctx := context.Background()

	result, err := w.saga.Execute(ctx, OnboardingInput{
		Name:     "Sung Jin-Woo",
		Email:    "jinwoo@hunters.io",
		Password: "arise",
	})

	require.NoError(t, err)
	require.NotNil(t, result.Hunter)
	assert.Equal(t, "Sung Jin-Woo", result.Hunter.Name)
	assert.Equal(t, 1, result.Hunter.Level)
	assert.Equal(t, len(raid.SeedTemplates()), result.RaidsSeeded)
	assert.Equal(t, len(mission.DailyTemplates()), result.MissionsGenerated)

	// Password is stored hashed, never verbatim.
	assert.NotEqual(t, "arise", result.Hunter.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(result.Hunter.PasswordHash), []byte("arise")))

	// The quest board and bosses are persisted for the new hunter.
	daily, err := w.missionRepo.GetDaily(ctx, result.Hunter.ID, result.OnboardedAt)
	require.NoError(t, err)
	assert.Len(t, daily, len(mission.DailyTemplates()))

	active, err := w.raidRepo.GetActive(ctx, result.Hunter.ID)
	require.NoError(t, err)
	assert.Len(t, active, len(raid.SeedTemplates()))

	assert.Len(t, w.publisher.ofType(shared.EventHunterRegistered), 1)
}

func TestOnboardingSaga_GuestProfile(t *testing.T) {
	w := newOnboardingWiring(t)

	result, err := w.saga.Execute(context.Background(), OnboardingInput{
		Name: "Invitado",
	})

	require.NoError(t, err)
	assert.Empty(t, result.Hunter.Email)
	assert.Empty(t, result.Hunter.PasswordHash)
}

func TestOnboardingSaga_DuplicateEmail(t *testing.T) {
	w := newOnboardingWiring(t)
	ctx := context.Background()

	_, err := w.saga.Execute(ctx, OnboardingInput{
		Name:     "First",
		Email:    "taken@hunters.io",
		Password: "secret",
	})
	require.NoError(t, err)

	_, err = w.saga.Execute(ctx, OnboardingInput{
		Name:     "Second",
		Email:    "Taken@Hunters.io",
		Password: "secret",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)

	var sagaErr *OnboardingError
	require.ErrorAs(t, err, &sagaErr)
	assert.Equal(t, StepCheckExistence, sagaErr.Step)
	assert.False(t, sagaErr.IsRetryable())
}

func TestOnboardingSaga_RollbackOnMissionFailure(t *testing.T) {
	w := newOnboardingWiring(t)
	ctx := context.Background()
	w.missionRepo.createErr = errors.New("mission storage down")

	_, err := w.saga.Execute(ctx, OnboardingInput{Name: "Doomed"})

	require.Error(t, err)

	var sagaErr *OnboardingError
	require.ErrorAs(t, err, &sagaErr)
	assert.Equal(t, StepGenerateMissions, sagaErr.Step)
	assert.True(t, sagaErr.IsRetryable())

	// The partially created hunter is compensated away.
	count, err := w.hunterRepo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOnboardingSaga_Validation(t *testing.T) {
	w := newOnboardingWiring(t)

	_, err := w.saga.Execute(context.Background(), OnboardingInput{})
	require.Error(t, err)

	var sagaErr *OnboardingError
	require.ErrorAs(t, err, &sagaErr)
	assert.Equal(t, StepValidateInput, sagaErr.Step)
	assert.False(t, sagaErr.IsRetryable())

	_, err = w.saga.Execute(context.Background(), OnboardingInput{
		Name:  "No Password",
		Email: "nopass@hunters.io",
	})
	require.Error(t, err)
}

func TestOnboardingBuilder_MissingDeps(t *testing.T) {
	_, err := NewOnboardingSagaBuilder().Build()
	require.Error(t, err)

	_, err = NewOnboardingSagaBuilder().
		WithHunterRepo(newFakeHunterRepo()).
		WithRaidRepo(newFakeRaidRepo()).
		WithMissionRepo(newFakeMissionRepo()).
		Build()
	require.Error(t, err)
}
