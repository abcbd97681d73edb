package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/achievement"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT FLOW SAGA
// Complex business process: Checking and granting milestone achievements
// Flow: Load Hunter → Load Unlocked Keys → Check Milestones →
//
//	Grant Achievements → Publish Events
//
// ══════════════════════════════════════════════════════════════════════════════

// AchievementCheckInput contains the data for an achievement check run.
type AchievementCheckInput struct {
	// HunterID - whose achievements to check (required).
	HunterID string

	// TriggerEvent - what fired the check (e.g. "level_up", "workout_logged").
	// Used for logging and diagnostics only.
	TriggerEvent string

	// CompletedRaid - when set, the boss-victory achievement for this raid
	// is minted in addition to the milestone checks.
	CompletedRaid *raid.Raid
}

// Validate checks if the input is valid for an achievement check.
func (i AchievementCheckInput) Validate() error {
	if i.HunterID == "" {
		return errors.New("achievement flow: hunter id is required")
	}
	return nil
}

// AchievementCheckResult contains the result of a completed check run.
type AchievementCheckResult struct {
	// Unlocked - achievements granted during this run, may be empty.
	Unlocked []*achievement.Achievement

	// Skipped - how many candidates were lost to a concurrent run.
	Skipped int

	// CheckedAt - timestamp of the check.
	CheckedAt time.Time
}

// AchievementFlowStep represents a step in the achievement flow.
type AchievementFlowStep string

const (
	StepLoadHunter          AchievementFlowStep = "load_hunter"
	StepLoadUnlockedKeys    AchievementFlowStep = "load_unlocked_keys"
	StepCheckMilestones     AchievementFlowStep = "check_milestones"
	StepGrantAchievements   AchievementFlowStep = "grant_achievements"
	StepPublishAchievEvents AchievementFlowStep = "publish_achievement_events"
	StepFlowComplete        AchievementFlowStep = "complete"
)

// AchievementFlowState tracks the current state of the flow.
type AchievementFlowState struct {
	CurrentStep AchievementFlowStep
	Input       AchievementCheckInput
	Hunter      *hunter.Hunter
	Unlocked    map[string]bool
	Candidates  []achievement.Definition
	Granted     []*achievement.Achievement
	Skipped     int
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       error
	FailedStep  AchievementFlowStep
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT FLOW IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlow orchestrates the check-and-grant cycle for achievements.
// It is triggered after XP-relevant events (level up, workout, streak,
// raid victory) and guarantees each achievement is granted at most once.
//
// Philosophy: the System never forgets a milestone. Every trigger re-checks
// all catalogs, so a missed event is healed on the next one.
type AchievementFlow struct {
	// Dependencies (injected via constructor)
	hunterRepo      hunter.Repository
	achievementRepo achievement.Repository
	unlocker        *achievement.Unlocker
	eventBus        shared.EventPublisher
	idGenerator     IDGenerator
	logger          *slog.Logger

	// Configuration
	maxPerRun int
}

// AchievementFlowConfig contains configuration for the achievement flow.
type AchievementFlowConfig struct {
	// MaxPerRun caps how many achievements a single run may grant.
	// A burst of unlocks past the cap is picked up by the next trigger.
	MaxPerRun int
}

// DefaultAchievementFlowConfig returns default configuration.
func DefaultAchievementFlowConfig() AchievementFlowConfig {
	return AchievementFlowConfig{
		MaxPerRun: 5,
	}
}

// NewAchievementFlow creates a new achievement flow with all dependencies.
func NewAchievementFlow(
	hunterRepo hunter.Repository,
	achievementRepo achievement.Repository,
	eventBus shared.EventPublisher,
	idGenerator IDGenerator,
	logger *slog.Logger,
	config AchievementFlowConfig,
) *AchievementFlow {
	if config.MaxPerRun <= 0 {
		config.MaxPerRun = DefaultAchievementFlowConfig().MaxPerRun
	}
	return &AchievementFlow{
		hunterRepo:      hunterRepo,
		achievementRepo: achievementRepo,
		unlocker:        achievement.NewUnlocker(),
		eventBus:        eventBus,
		idGenerator:     idGenerator,
		logger:          logger.With("saga", "achievement_flow"),
		maxPerRun:       config.MaxPerRun,
	}
}

// Execute runs the complete achievement check process.
func (f *AchievementFlow) Execute(ctx context.Context, input AchievementCheckInput) (*AchievementCheckResult, error) {
	state := &AchievementFlowState{
		CurrentStep: StepLoadHunter,
		Input:       input,
		StartedAt:   time.Now().UTC(),
	}

	if err := input.Validate(); err != nil {
		state.FailedStep = StepLoadHunter
		state.Error = err
		return nil, f.wrapError(state, err)
	}

	// Step 1: Load the hunter snapshot
	if err := f.stepLoadHunter(ctx, state); err != nil {
		return nil, f.wrapError(state, err)
	}

	// Step 2: Load the already unlocked keys
	state.CurrentStep = StepLoadUnlockedKeys
	if err := f.stepLoadUnlockedKeys(ctx, state); err != nil {
		return nil, f.wrapError(state, err)
	}

	// Step 3: Check all milestone catalogs
	state.CurrentStep = StepCheckMilestones
	f.stepCheckMilestones(state)

	// Early exit: nothing new to grant
	if len(state.Candidates) == 0 {
		now := time.Now().UTC()
		state.CurrentStep = StepFlowComplete
		state.CompletedAt = &now
		return &AchievementCheckResult{CheckedAt: now}, nil
	}

	// Step 4: Grant the new achievements
	state.CurrentStep = StepGrantAchievements
	if err := f.stepGrantAchievements(ctx, state); err != nil {
		return nil, f.wrapError(state, err)
	}

	// Step 5: Publish domain events
	state.CurrentStep = StepPublishAchievEvents
	if err := f.stepPublishEvents(ctx, state); err != nil {
		// Non-critical - the achievements are already persisted
		f.logger.Warn("failed to publish achievement events",
			"hunter_id", input.HunterID,
			"error", err)
	}

	// Complete
	state.CurrentStep = StepFlowComplete
	now := time.Now().UTC()
	state.CompletedAt = &now

	f.logger.Info("achievements granted",
		"hunter_id", input.HunterID,
		"trigger", input.TriggerEvent,
		"granted", len(state.Granted),
		"skipped", state.Skipped)

	return &AchievementCheckResult{
		Unlocked:  state.Granted,
		Skipped:   state.Skipped,
		CheckedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CONVENIENCE TRIGGERS
// Thin wrappers so event handlers don't build the input by hand.
// ══════════════════════════════════════════════════════════════════════════════

// CheckAfterLevelUp runs the flow after a level up.
func (f *AchievementFlow) CheckAfterLevelUp(ctx context.Context, hunterID string) (*AchievementCheckResult, error) {
	return f.Execute(ctx, AchievementCheckInput{
		HunterID:     hunterID,
		TriggerEvent: string(shared.EventLevelUp),
	})
}

// CheckAfterWorkout runs the flow after a logged workout.
func (f *AchievementFlow) CheckAfterWorkout(ctx context.Context, hunterID string) (*AchievementCheckResult, error) {
	return f.Execute(ctx, AchievementCheckInput{
		HunterID:     hunterID,
		TriggerEvent: string(shared.EventWorkoutLogged),
	})
}

// CheckAfterStreak runs the flow after a streak update.
func (f *AchievementFlow) CheckAfterStreak(ctx context.Context, hunterID string) (*AchievementCheckResult, error) {
	return f.Execute(ctx, AchievementCheckInput{
		HunterID:     hunterID,
		TriggerEvent: string(shared.EventStreakUpdated),
	})
}

// CheckAfterRaidVictory runs the flow after a completed boss raid,
// minting the boss-specific achievement along with any crossed milestones.
func (f *AchievementFlow) CheckAfterRaidVictory(ctx context.Context, hunterID string, completed *raid.Raid) (*AchievementCheckResult, error) {
	return f.Execute(ctx, AchievementCheckInput{
		HunterID:      hunterID,
		TriggerEvent:  string(shared.EventRaidCompleted),
		CompletedRaid: completed,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA STEPS
// ══════════════════════════════════════════════════════════════════════════════

// stepLoadHunter loads the hunter whose counters will be checked.
func (f *AchievementFlow) stepLoadHunter(ctx context.Context, state *AchievementFlowState) error {
	h, err := f.hunterRepo.GetByID(ctx, state.Input.HunterID)
	if err != nil {
		state.FailedStep = StepLoadHunter
		state.Error = fmt.Errorf("failed to load hunter: %w", err)
		return state.Error
	}
	state.Hunter = h
	return nil
}

// stepLoadUnlockedKeys loads the set of already granted keys.
func (f *AchievementFlow) stepLoadUnlockedKeys(ctx context.Context, state *AchievementFlowState) error {
	unlocked, err := f.achievementRepo.GetUnlockedKeys(ctx, state.Input.HunterID)
	if err != nil {
		state.FailedStep = StepLoadUnlockedKeys
		state.Error = fmt.Errorf("failed to load unlocked keys: %w", err)
		return state.Error
	}
	state.Unlocked = unlocked
	return nil
}

// stepCheckMilestones evaluates the catalogs against the hunter snapshot.
// The run is capped at maxPerRun to keep a catch-up burst from flooding
// the feed; the remainder is granted on subsequent triggers.
func (f *AchievementFlow) stepCheckMilestones(state *AchievementFlowState) {
	snap := achievement.Snapshot{
		Level:         state.Hunter.Level,
		TotalWorkouts: state.Hunter.TotalWorkouts,
		CurrentStreak: state.Hunter.CurrentStreak,
	}

	candidates := f.unlocker.Check(snap, state.Unlocked)

	if r := state.Input.CompletedRaid; r != nil && !state.Unlocked[r.AchievementKey()] {
		candidates = append(candidates,
			achievement.ForBossVictory(r.ID, r.Name, r.Difficulty))
	}

	if len(candidates) > f.maxPerRun {
		candidates = candidates[:f.maxPerRun]
	}

	state.Candidates = candidates
}

// stepGrantAchievements persists each candidate. SaveIfAbsent returning
// false means a concurrent run won the grant; that candidate is skipped
// silently.
func (f *AchievementFlow) stepGrantAchievements(ctx context.Context, state *AchievementFlowState) error {
	for _, def := range state.Candidates {
		a, err := achievement.NewAchievement(achievement.NewAchievementParams{
			ID:          f.idGenerator.GenerateID(),
			HunterID:    state.Input.HunterID,
			Key:         def.Key,
			Title:       def.Title,
			Description: def.Description,
			Rarity:      def.Rarity,
		})
		if err != nil {
			state.FailedStep = StepGrantAchievements
			state.Error = fmt.Errorf("failed to build achievement %q: %w", def.Key, err)
			return state.Error
		}

		created, err := f.achievementRepo.SaveIfAbsent(ctx, a)
		if err != nil {
			state.FailedStep = StepGrantAchievements
			state.Error = fmt.Errorf("failed to persist achievement %q: %w", def.Key, err)
			return state.Error
		}
		if !created {
			state.Skipped++
			continue
		}

		state.Granted = append(state.Granted, a)
	}
	return nil
}

// stepPublishEvents publishes an AchievementUnlocked event per grant.
func (f *AchievementFlow) stepPublishEvents(ctx context.Context, state *AchievementFlowState) error {
	if f.eventBus == nil {
		return nil
	}

	var firstErr error
	for _, a := range state.Granted {
		event := shared.NewAchievementUnlockedEvent(a.HunterID, a.Key, a.Title, string(a.Rarity))
		if err := f.eventBus.Publish(event); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to publish unlock of %q: %w", a.Key, err)
		}
	}
	return firstErr
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlowError represents an error during the achievement flow.
type AchievementFlowError struct {
	Step     AchievementFlowStep
	HunterID string
	Cause    error
	Message  string
}

// Error implements the error interface.
func (e *AchievementFlowError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AchievementFlowError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if the error can be retried.
func (e *AchievementFlowError) IsRetryable() bool {
	// A missing hunter will not appear on retry
	return !errors.Is(e.Cause, hunter.ErrNotFound)
}

// wrapError wraps an error with saga context.
func (f *AchievementFlow) wrapError(state *AchievementFlowState, err error) error {
	return &AchievementFlowError{
		Step:     state.FailedStep,
		HunterID: state.Input.HunterID,
		Cause:    err,
		Message:  fmt.Sprintf("achievement flow failed at step '%s': %v", state.FailedStep, err),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT FLOW BUILDER (Fluent API)
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlowBuilder provides a fluent API for building AchievementFlow.
type AchievementFlowBuilder struct {
	hunterRepo      hunter.Repository
	achievementRepo achievement.Repository
	eventBus        shared.EventPublisher
	idGenerator     IDGenerator
	logger          *slog.Logger
	config          AchievementFlowConfig
}

// NewAchievementFlowBuilder creates a new builder.
func NewAchievementFlowBuilder() *AchievementFlowBuilder {
	return &AchievementFlowBuilder{
		config: DefaultAchievementFlowConfig(),
	}
}

// WithHunterRepo sets the hunter repository.
func (b *AchievementFlowBuilder) WithHunterRepo(repo hunter.Repository) *AchievementFlowBuilder {
	b.hunterRepo = repo
	return b
}

// WithAchievementRepo sets the achievement repository.
func (b *AchievementFlowBuilder) WithAchievementRepo(repo achievement.Repository) *AchievementFlowBuilder {
	b.achievementRepo = repo
	return b
}

// WithEventBus sets the event publisher.
func (b *AchievementFlowBuilder) WithEventBus(bus shared.EventPublisher) *AchievementFlowBuilder {
	b.eventBus = bus
	return b
}

// WithIDGenerator sets the ID generator.
func (b *AchievementFlowBuilder) WithIDGenerator(gen IDGenerator) *AchievementFlowBuilder {
	b.idGenerator = gen
	return b
}

// WithLogger sets the logger.
func (b *AchievementFlowBuilder) WithLogger(logger *slog.Logger) *AchievementFlowBuilder {
	b.logger = logger
	return b
}

// WithConfig sets the flow configuration.
func (b *AchievementFlowBuilder) WithConfig(config AchievementFlowConfig) *AchievementFlowBuilder {
	b.config = config
	return b
}

// Build assembles the flow. Returns an error when a required
// dependency is missing.
func (b *AchievementFlowBuilder) Build() (*AchievementFlow, error) {
	if b.hunterRepo == nil {
		return nil, errors.New("achievement flow builder: hunter repository is required")
	}
	if b.achievementRepo == nil {
		return nil, errors.New("achievement flow builder: achievement repository is required")
	}
	if b.idGenerator == nil {
		return nil, errors.New("achievement flow builder: id generator is required")
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	return NewAchievementFlow(
		b.hunterRepo,
		b.achievementRepo,
		b.eventBus,
		b.idGenerator,
		b.logger,
		b.config,
	), nil
}
