// Package saga contains complex business processes that orchestrate
// multiple domain operations in a coordinated manner.
// Sagas ensure consistency across operations and handle compensation on failures.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/mission"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARDING SAGA
// Complex business process: Registration of a new hunter
// Flow: Validate → Check Existence → Create Hunter → Seed Boss Raids →
//
//	Generate Daily Missions → Publish Event
//
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingInput contains all data required to onboard a new hunter.
type OnboardingInput struct {
	// Name - display name of the hunter (required).
	Name string

	// Email - email for authentication (optional for guest profiles).
	Email string

	// Password - password for authentication (required when Email set).
	Password string
}

// Validate checks if the input is valid for onboarding.
func (i OnboardingInput) Validate() error {
	if i.Name == "" {
		return errors.New("onboarding: hunter name is required")
	}
	if i.Email != "" && i.Password == "" {
		return errors.New("onboarding: password is required with email")
	}
	return nil
}

// OnboardingResult contains the result of a successful onboarding.
type OnboardingResult struct {
	// Hunter - the newly created hunter entity.
	Hunter *hunter.Hunter

	// RaidsSeeded - how many starter boss raids were created.
	RaidsSeeded int

	// MissionsGenerated - how many daily missions were created.
	MissionsGenerated int

	// OnboardedAt - timestamp of successful onboarding.
	OnboardedAt time.Time
}

// OnboardingStep represents a step in the onboarding process.
type OnboardingStep string

const (
	StepValidateInput    OnboardingStep = "validate_input"
	StepCheckExistence   OnboardingStep = "check_existence"
	StepCreateHunter     OnboardingStep = "create_hunter"
	StepSeedRaids        OnboardingStep = "seed_raids"
	StepGenerateMissions OnboardingStep = "generate_missions"
	StepPublishEvent     OnboardingStep = "publish_event"
	StepComplete         OnboardingStep = "complete"
)

// OnboardingState tracks the current state of the onboarding saga.
type OnboardingState struct {
	CurrentStep OnboardingStep
	Input       OnboardingInput
	Hunter      *hunter.Hunter
	Raids       []*raid.Raid
	Missions    []*mission.Mission
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       error
	FailedStep  OnboardingStep
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	// GenerateID generates a new unique ID.
	GenerateID() string
}

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARDING SAGA IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingSaga orchestrates the complete hunter registration process.
// It follows the Saga pattern to ensure consistency across multiple operations.
//
// Philosophy: signup is the hunter's awakening. They leave it with a full
// quest board and their first bosses already waiting.
type OnboardingSaga struct {
	// Dependencies (injected via constructor)
	hunterRepo  hunter.Repository
	raidRepo    raid.Repository
	missionRepo mission.Repository
	eventBus    shared.EventPublisher
	idGenerator IDGenerator

	// Configuration
	bcryptCost int
}

// OnboardingSagaConfig contains configuration for the onboarding saga.
type OnboardingSagaConfig struct {
	BcryptCost int
}

// DefaultOnboardingConfig returns default configuration.
func DefaultOnboardingConfig() OnboardingSagaConfig {
	return OnboardingSagaConfig{
		BcryptCost: bcrypt.DefaultCost,
	}
}

// NewOnboardingSaga creates a new onboarding saga with all dependencies.
func NewOnboardingSaga(
	hunterRepo hunter.Repository,
	raidRepo raid.Repository,
	missionRepo mission.Repository,
	eventBus shared.EventPublisher,
	idGenerator IDGenerator,
	config OnboardingSagaConfig,
) *OnboardingSaga {
	return &OnboardingSaga{
		hunterRepo:  hunterRepo,
		raidRepo:    raidRepo,
		missionRepo: missionRepo,
		eventBus:    eventBus,
		idGenerator: idGenerator,
		bcryptCost:  config.BcryptCost,
	}
}

// Execute runs the complete onboarding process.
// It returns the result on success or an error with context about the failure.
func (s *OnboardingSaga) Execute(ctx context.Context, input OnboardingInput) (*OnboardingResult, error) {
	state := &OnboardingState{
		CurrentStep: StepValidateInput,
		Input:       input,
		StartedAt:   time.Now().UTC(),
	}

	// Step 1: Validate input
	if err := s.stepValidateInput(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 2: Check if hunter already exists
	state.CurrentStep = StepCheckExistence
	if err := s.stepCheckExistence(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 3: Create hunter entity
	state.CurrentStep = StepCreateHunter
	if err := s.stepCreateHunter(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 4: Seed starter boss raids
	state.CurrentStep = StepSeedRaids
	if err := s.stepSeedRaids(ctx, state); err != nil {
		s.rollbackHunterCreation(ctx, state)
		return nil, s.wrapError(state, err)
	}

	// Step 5: Generate the first daily quest board
	state.CurrentStep = StepGenerateMissions
	if err := s.stepGenerateMissions(ctx, state); err != nil {
		s.rollbackHunterCreation(ctx, state)
		return nil, s.wrapError(state, err)
	}

	// Step 6: Publish domain event
	state.CurrentStep = StepPublishEvent
	if err := s.stepPublishEvent(ctx, state); err != nil {
		// Non-critical - log but continue
		// Events can be replayed later
	}

	// Complete
	state.CurrentStep = StepComplete
	now := time.Now().UTC()
	state.CompletedAt = &now

	return &OnboardingResult{
		Hunter:            state.Hunter,
		RaidsSeeded:       len(state.Raids),
		MissionsGenerated: len(state.Missions),
		OnboardedAt:       now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA STEPS
// ══════════════════════════════════════════════════════════════════════════════

// stepValidateInput validates all input parameters.
func (s *OnboardingSaga) stepValidateInput(ctx context.Context, state *OnboardingState) error {
	if err := state.Input.Validate(); err != nil {
		state.FailedStep = StepValidateInput
		state.Error = err
		return err
	}
	return nil
}

// stepCheckExistence verifies the hunter doesn't already exist.
func (s *OnboardingSaga) stepCheckExistence(ctx context.Context, state *OnboardingState) error {
	if state.Input.Email == "" {
		return nil
	}

	email := hunter.Email(state.Input.Email).Normalize()
	exists, err := s.hunterRepo.ExistsByEmail(ctx, email)
	if err != nil {
		state.FailedStep = StepCheckExistence
		state.Error = fmt.Errorf("failed to check email existence: %w", err)
		return state.Error
	}
	if exists {
		state.FailedStep = StepCheckExistence
		state.Error = ErrEmailAlreadyRegistered
		return state.Error
	}

	return nil
}

// stepCreateHunter creates the hunter entity and persists it.
func (s *OnboardingSaga) stepCreateHunter(ctx context.Context, state *OnboardingState) error {
	passwordHash := ""
	if state.Input.Password != "" {
		hash, err := s.hashPassword(state.Input.Password)
		if err != nil {
			state.FailedStep = StepCreateHunter
			state.Error = fmt.Errorf("failed to hash password: %w", err)
			return state.Error
		}
		passwordHash = hash
	}

	newHunter, err := hunter.NewHunter(hunter.NewHunterParams{
		ID:           s.idGenerator.GenerateID(),
		Name:         state.Input.Name,
		Email:        hunter.Email(state.Input.Email),
		PasswordHash: passwordHash,
	})
	if err != nil {
		state.FailedStep = StepCreateHunter
		state.Error = fmt.Errorf("failed to create hunter entity: %w", err)
		return state.Error
	}

	if err := s.hunterRepo.Create(ctx, newHunter); err != nil {
		state.FailedStep = StepCreateHunter
		state.Error = fmt.Errorf("failed to persist hunter: %w", err)
		return state.Error
	}

	state.Hunter = newHunter
	return nil
}

// stepSeedRaids creates the starter boss raids for the new hunter.
// CreateBatch is idempotent on (hunter, key), so a retried saga does
// not duplicate bosses.
func (s *OnboardingSaga) stepSeedRaids(ctx context.Context, state *OnboardingState) error {
	raids, err := raid.BuildSeed(state.Hunter.ID, s.idGenerator.GenerateID)
	if err != nil {
		state.FailedStep = StepSeedRaids
		state.Error = fmt.Errorf("failed to build raid seed: %w", err)
		return state.Error
	}

	if err := s.raidRepo.CreateBatch(ctx, raids); err != nil {
		state.FailedStep = StepSeedRaids
		state.Error = fmt.Errorf("failed to persist raids: %w", err)
		return state.Error
	}

	state.Raids = raids
	return nil
}

// stepGenerateMissions creates today's quest board for the new hunter.
func (s *OnboardingSaga) stepGenerateMissions(ctx context.Context, state *OnboardingState) error {
	missions, err := mission.BuildDaily(state.Hunter.ID, time.Now().UTC(), s.idGenerator.GenerateID)
	if err != nil {
		state.FailedStep = StepGenerateMissions
		state.Error = fmt.Errorf("failed to build daily missions: %w", err)
		return state.Error
	}

	if err := s.missionRepo.CreateBatch(ctx, missions); err != nil {
		state.FailedStep = StepGenerateMissions
		state.Error = fmt.Errorf("failed to persist missions: %w", err)
		return state.Error
	}

	state.Missions = missions
	return nil
}

// stepPublishEvent publishes the HunterRegistered domain event.
func (s *OnboardingSaga) stepPublishEvent(ctx context.Context, state *OnboardingState) error {
	if s.eventBus == nil {
		return nil
	}

	event := shared.NewHunterRegisteredEvent(
		state.Hunter.ID,
		state.Hunter.Name,
		state.Hunter.Level,
	)

	if err := s.eventBus.Publish(event); err != nil {
		return fmt.Errorf("failed to publish hunter registered event: %w", err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// hashPassword hashes a raw password with bcrypt.
func (s *OnboardingSaga) hashPassword(password string) (string, error) {
	cost := s.bcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// rollbackHunterCreation attempts to delete a partially created hunter.
func (s *OnboardingSaga) rollbackHunterCreation(ctx context.Context, state *OnboardingState) {
	if state.Hunter == nil {
		return
	}

	// Attempt to delete the hunter
	_ = s.hunterRepo.Delete(ctx, state.Hunter.ID)

	// Note: In a more robust implementation, we would use
	// a proper compensation transaction or saga orchestrator
}

// wrapError wraps an error with saga context.
func (s *OnboardingSaga) wrapError(state *OnboardingState, err error) error {
	return &OnboardingError{
		Step:    state.FailedStep,
		Input:   state.Input,
		Cause:   err,
		Message: fmt.Sprintf("onboarding failed at step '%s': %v", state.FailedStep, err),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingError represents an error during the onboarding process.
type OnboardingError struct {
	Step    OnboardingStep
	Input   OnboardingInput
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *OnboardingError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *OnboardingError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if the error can be retried.
func (e *OnboardingError) IsRetryable() bool {
	// Validation and existence errors are not retryable
	if e.Step == StepValidateInput || e.Step == StepCheckExistence {
		return false
	}
	return !errors.Is(e.Cause, ErrEmailAlreadyRegistered)
}

// Saga-specific errors.
var (
	// ErrEmailAlreadyRegistered - email is already registered in the system.
	ErrEmailAlreadyRegistered = errors.New("onboarding: email already registered")

	// ErrOnboardingTimeout - onboarding process timed out.
	ErrOnboardingTimeout = errors.New("onboarding: process timed out")
)

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARDING SAGA BUILDER (Fluent API)
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingSagaBuilder provides a fluent API for building OnboardingSaga.
type OnboardingSagaBuilder struct {
	hunterRepo  hunter.Repository
	raidRepo    raid.Repository
	missionRepo mission.Repository
	eventBus    shared.EventPublisher
	idGenerator IDGenerator
	config      OnboardingSagaConfig
}

// NewOnboardingSagaBuilder creates a new builder.
func NewOnboardingSagaBuilder() *OnboardingSagaBuilder {
	return &OnboardingSagaBuilder{
		config: DefaultOnboardingConfig(),
	}
}

// WithHunterRepo sets the hunter repository.
func (b *OnboardingSagaBuilder) WithHunterRepo(repo hunter.Repository) *OnboardingSagaBuilder {
	b.hunterRepo = repo
	return b
}

// WithRaidRepo sets the raid repository.
func (b *OnboardingSagaBuilder) WithRaidRepo(repo raid.Repository) *OnboardingSagaBuilder {
	b.raidRepo = repo
	return b
}

// WithMissionRepo sets the mission repository.
func (b *OnboardingSagaBuilder) WithMissionRepo(repo mission.Repository) *OnboardingSagaBuilder {
	b.missionRepo = repo
	return b
}

// WithEventBus sets the event publisher.
func (b *OnboardingSagaBuilder) WithEventBus(bus shared.EventPublisher) *OnboardingSagaBuilder {
	b.eventBus = bus
	return b
}

// WithIDGenerator sets the ID generator.
func (b *OnboardingSagaBuilder) WithIDGenerator(gen IDGenerator) *OnboardingSagaBuilder {
	b.idGenerator = gen
	return b
}

// WithConfig sets the saga configuration.
func (b *OnboardingSagaBuilder) WithConfig(config OnboardingSagaConfig) *OnboardingSagaBuilder {
	b.config = config
	return b
}

// Build assembles the saga. Returns an error when a required
// dependency is missing.
func (b *OnboardingSagaBuilder) Build() (*OnboardingSaga, error) {
	if b.hunterRepo == nil {
		return nil, errors.New("onboarding builder: hunter repository is required")
	}
	if b.raidRepo == nil {
		return nil, errors.New("onboarding builder: raid repository is required")
	}
	if b.missionRepo == nil {
		return nil, errors.New("onboarding builder: mission repository is required")
	}
	if b.idGenerator == nil {
		return nil, errors.New("onboarding builder: id generator is required")
	}

	return NewOnboardingSaga(
		b.hunterRepo,
		b.raidRepo,
		b.missionRepo,
		b.eventBus,
		b.idGenerator,
		b.config,
	), nil
}
