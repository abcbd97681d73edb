// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Hunter events
	EventHunterRegistered EventType = "hunter.registered"
	EventStatAllocated    EventType = "hunter.stat_allocated"

	// Progression events
	EventXPGained      EventType = "progression.xp_gained"
	EventLevelUp       EventType = "progression.level_up"
	EventStreakUpdated EventType = "progression.streak_updated"
	EventStreakBroken  EventType = "progression.streak_broken"

	// Mission events
	EventMissionCompleted     EventType = "mission.completed"
	EventAllRequiredCompleted EventType = "mission.all_required_completed"
	EventMissionsGenerated    EventType = "mission.generated"

	// Raid events
	EventRaidProgressed EventType = "raid.progressed"
	EventRaidCompleted  EventType = "raid.completed"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// Activity events (one per event source)
	EventWorkoutLogged      EventType = "activity.workout_logged"
	EventNutritionLogged    EventType = "activity.nutrition_logged"
	EventHydrationLogged    EventType = "activity.hydration_logged"
	EventVoiceCommandParsed EventType = "activity.voice_command_parsed"

	// Leaderboard events
	EventLeaderboardRebuilt EventType = "leaderboard.rebuilt"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Hunter Lifecycle Events
// ═══════════════════════════════════════════════════════════════════════════

// HunterRegisteredEvent is emitted when a new hunter completes signup.
type HunterRegisteredEvent struct {
	BaseEvent
	HunterID string `json:"hunter_id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
}

// Payload implements Event interface.
func (e HunterRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"hunter_id": e.HunterID,
		"name":      e.Name,
		"level":     e.Level,
	}
}

// NewHunterRegisteredEvent creates a new HunterRegisteredEvent.
func NewHunterRegisteredEvent(hunterID, name string, level int) HunterRegisteredEvent {
	return HunterRegisteredEvent{
		BaseEvent: NewBaseEvent(EventHunterRegistered, hunterID),
		HunterID:  hunterID,
		Name:      name,
		Level:     level,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted every time a hunter's XP changes, including
// negative nutrition deltas.
type XPGainedEvent struct {
	BaseEvent
	HunterID   string `json:"hunter_id"`
	Delta      int    `json:"delta"`
	NewTotalXP int    `json:"new_total_xp"`
	Source     string `json:"source"` // e.g. "workout", "mission_reward", "nutrition"
	SourceID   string `json:"source_id,omitempty"`
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"hunter_id":    e.HunterID,
		"delta":        e.Delta,
		"new_total_xp": e.NewTotalXP,
		"source":       e.Source,
		"source_id":    e.SourceID,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(hunterID string, delta, newTotal int, source, sourceID string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent:  NewBaseEvent(EventXPGained, hunterID),
		HunterID:   hunterID,
		Delta:      delta,
		NewTotalXP: newTotal,
		Source:     source,
		SourceID:   sourceID,
	}
}

// LevelUpEvent is emitted when a hunter gains one or more levels in a single
// XP application. A large batch grant produces exactly one event carrying the
// full range so milestone checks can unlock everything newly crossed.
type LevelUpEvent struct {
	BaseEvent
	HunterID     string `json:"hunter_id"`
	OldLevel     int    `json:"old_level"`
	NewLevel     int    `json:"new_level"`
	LevelsGained int    `json:"levels_gained"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"hunter_id":     e.HunterID,
		"old_level":     e.OldLevel,
		"new_level":     e.NewLevel,
		"levels_gained": e.LevelsGained,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(hunterID string, oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent:    NewBaseEvent(EventLevelUp, hunterID),
		HunterID:     hunterID,
		OldLevel:     oldLevel,
		NewLevel:     newLevel,
		LevelsGained: newLevel - oldLevel,
	}
}

// StreakUpdatedEvent is emitted when a hunter's daily streak advances.
type StreakUpdatedEvent struct {
	BaseEvent
	HunterID      string `json:"hunter_id"`
	CurrentStreak int    `json:"current_streak"`
	MaxStreak     int    `json:"max_streak"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"hunter_id":      e.HunterID,
		"current_streak": e.CurrentStreak,
		"max_streak":     e.MaxStreak,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(hunterID string, current, max int) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent:     NewBaseEvent(EventStreakUpdated, hunterID),
		HunterID:      hunterID,
		CurrentStreak: current,
		MaxStreak:     max,
	}
}

// StreakBrokenEvent is emitted when a hunter misses a day and loses the streak.
type StreakBrokenEvent struct {
	BaseEvent
	HunterID       string `json:"hunter_id"`
	PreviousStreak int    `json:"previous_streak"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"hunter_id":       e.HunterID,
		"previous_streak": e.PreviousStreak,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(hunterID string, previousStreak int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, hunterID),
		HunterID:       hunterID,
		PreviousStreak: previousStreak,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Mission Events
// ═══════════════════════════════════════════════════════════════════════════

// MissionCompletedEvent is emitted exactly once, on the pending -> completed
// transition of a mission.
type MissionCompletedEvent struct {
	BaseEvent
	HunterID     string `json:"hunter_id"`
	MissionID    string `json:"mission_id"`
	MissionType  string `json:"mission_type"`
	ExerciseType string `json:"exercise_type,omitempty"`
	XPReward     int    `json:"xp_reward"`
}

// Payload implements Event interface.
func (e MissionCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"hunter_id":     e.HunterID,
		"mission_id":    e.MissionID,
		"mission_type":  e.MissionType,
		"exercise_type": e.ExerciseType,
		"xp_reward":     e.XPReward,
	}
}

// NewMissionCompletedEvent creates a new MissionCompletedEvent.
func NewMissionCompletedEvent(hunterID, missionID, missionType, exerciseType string, xpReward int) MissionCompletedEvent {
	return MissionCompletedEvent{
		BaseEvent:    NewBaseEvent(EventMissionCompleted, hunterID),
		HunterID:     hunterID,
		MissionID:    missionID,
		MissionType:  missionType,
		ExerciseType: exerciseType,
		XPReward:     xpReward,
	}
}

// AllRequiredCompletedEvent is emitted when the last required mission of a
// day completes. This is the "daily clear" - a distinct event from individual
// mission completion, and the only thing that advances daily_streak raids.
type AllRequiredCompletedEvent struct {
	BaseEvent
	HunterID  string    `json:"hunter_id"`
	Date      time.Time `json:"date"`
	Completed int       `json:"completed"`
}

// Payload implements Event interface.
func (e AllRequiredCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"hunter_id": e.HunterID,
		"date":      e.Date.Format("2006-01-02"),
		"completed": e.Completed,
	}
}

// NewAllRequiredCompletedEvent creates a new AllRequiredCompletedEvent.
func NewAllRequiredCompletedEvent(hunterID string, date time.Time, completed int) AllRequiredCompletedEvent {
	return AllRequiredCompletedEvent{
		BaseEvent: NewBaseEvent(EventAllRequiredCompleted, hunterID),
		HunterID:  hunterID,
		Date:      date,
		Completed: completed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Raid Events
// ═══════════════════════════════════════════════════════════════════════════

// RaidProgressedEvent is emitted when an active boss raid gains progress
// without completing.
type RaidProgressedEvent struct {
	BaseEvent
	HunterID string `json:"hunter_id"`
	RaidID   string `json:"raid_id"`
	BossType string `json:"boss_type"`
	Progress int    `json:"progress"`
	Target   int    `json:"target"`
}

// Payload implements Event interface.
func (e RaidProgressedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"hunter_id": e.HunterID,
		"raid_id":   e.RaidID,
		"boss_type": e.BossType,
		"progress":  e.Progress,
		"target":    e.Target,
	}
}

// NewRaidProgressedEvent creates a new RaidProgressedEvent.
func NewRaidProgressedEvent(hunterID, raidID, bossType string, progress, target int) RaidProgressedEvent {
	return RaidProgressedEvent{
		BaseEvent: NewBaseEvent(EventRaidProgressed, hunterID),
		HunterID:  hunterID,
		RaidID:    raidID,
		BossType:  bossType,
		Progress:  progress,
		Target:    target,
	}
}

// RaidCompletedEvent is emitted exactly once when a boss raid reaches its
// target. Rewards are already applied by the time this event is published.
type RaidCompletedEvent struct {
	BaseEvent
	HunterID   string `json:"hunter_id"`
	RaidID     string `json:"raid_id"`
	BossType   string `json:"boss_type"`
	Difficulty string `json:"difficulty"`
	RewardXP   int    `json:"reward_xp"`
}

// Payload implements Event interface.
func (e RaidCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"hunter_id":  e.HunterID,
		"raid_id":    e.RaidID,
		"boss_type":  e.BossType,
		"difficulty": e.Difficulty,
		"reward_xp":  e.RewardXP,
	}
}

// NewRaidCompletedEvent creates a new RaidCompletedEvent.
func NewRaidCompletedEvent(hunterID, raidID, bossType, difficulty string, rewardXP int) RaidCompletedEvent {
	return RaidCompletedEvent{
		BaseEvent:  NewBaseEvent(EventRaidCompleted, hunterID),
		HunterID:   hunterID,
		RaidID:     raidID,
		BossType:   bossType,
		Difficulty: difficulty,
		RewardXP:   rewardXP,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted when an achievement is granted for the
// first time. Re-unlock attempts are silent no-ops and never produce events.
type AchievementUnlockedEvent struct {
	BaseEvent
	HunterID       string `json:"hunter_id"`
	AchievementKey string `json:"achievement_key"`
	Title          string `json:"title"`
	Rarity         string `json:"rarity"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"hunter_id":       e.HunterID,
		"achievement_key": e.AchievementKey,
		"title":           e.Title,
		"rarity":          e.Rarity,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(hunterID, key, title, rarity string) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:      NewBaseEvent(EventAchievementUnlocked, hunterID),
		HunterID:       hunterID,
		AchievementKey: key,
		Title:          title,
		Rarity:         rarity,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Activity Events
// ═══════════════════════════════════════════════════════════════════════════

// WorkoutLoggedEvent is emitted when a workout is recorded.
type WorkoutLoggedEvent struct {
	BaseEvent
	HunterID      string `json:"hunter_id"`
	WorkoutID     string `json:"workout_id"`
	WorkoutType   string `json:"workout_type"`
	Intensity     string `json:"intensity"`
	Duration      int    `json:"duration_minutes"`
	XPGained      int    `json:"xp_gained"`
	TotalWorkouts int    `json:"total_workouts"`
}

// Payload implements Event interface.
func (e WorkoutLoggedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"hunter_id":      e.HunterID,
		"workout_id":     e.WorkoutID,
		"workout_type":   e.WorkoutType,
		"intensity":      e.Intensity,
		"duration":       e.Duration,
		"xp_gained":      e.XPGained,
		"total_workouts": e.TotalWorkouts,
	}
}

// NewWorkoutLoggedEvent creates a new WorkoutLoggedEvent.
func NewWorkoutLoggedEvent(hunterID, workoutID, workoutType, intensity string, duration, xp, totalWorkouts int) WorkoutLoggedEvent {
	return WorkoutLoggedEvent{
		BaseEvent:     NewBaseEvent(EventWorkoutLogged, hunterID),
		HunterID:      hunterID,
		WorkoutID:     workoutID,
		WorkoutType:   workoutType,
		Intensity:     intensity,
		Duration:      duration,
		XPGained:      xp,
		TotalWorkouts: totalWorkouts,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
