package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollouts.
//
// The progression rules themselves are never flagged - a hunter's XP
// math must be deterministic. Flags gate the layers around the engine:
// penalties, bonus quests, voice input, notification volume.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	hunterOverrides map[string]map[string]bool // hunterID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Hunters are assigned based on hash of their ID
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	HunterID string
	IsAdmin  bool
}

// Predefined feature flag names.
const (
	// === Leaderboard Features ===
	FeatureLeaderboardRankChange = "leaderboard.rank_change" // Show rank changes (+2, -1)
	FeatureLeaderboardNeighbors  = "leaderboard.neighbors"   // Ranking window around a hunter

	// === Gamification Features ===
	FeatureGamificationStreaks      = "gamification.streaks"      // Daily streaks
	FeatureGamificationPenalties    = "gamification.penalties"    // XP penalty for missed required missions
	FeatureGamificationAchievements = "gamification.achievements" // Badges/achievements
	FeatureGamificationRaids        = "gamification.raids"        // Boss raids

	// === Mission Features ===
	FeatureMissionsBonusQuests = "missions.bonus_quests" // Optional exercise quests
	FeatureMissionsAutoAdvance = "missions.auto_advance" // Workouts/hydration advance missions

	// === Input Features ===
	FeatureVoiceCommands = "voice.commands" // Spanish voice transcript parsing

	// === Notification Features ===
	FeatureNotifyLevelUp      = "notify.level_up"      // "¡Has subido de nivel!"
	FeatureNotifyStreakBroken = "notify.streak_broken" // Streak loss messages
	FeatureNotifyAchievement  = "notify.achievement"   // Unlock announcements

	// === Experimental Features ===
	FeatureExperimentalAICoach    = "experimental.ai_coach"    // LLM workout suggestions
	FeatureExperimentalWeeklyRaid = "experimental.weekly_raid" // Rotating weekly boss
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:        make(map[string]*Feature),
		hunterOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureLeaderboardRankChange] = &Feature{
		Name:           FeatureLeaderboardRankChange,
		Description:    "Show rank changes in leaderboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardNeighbors] = &Feature{
		Name:           FeatureLeaderboardNeighbors,
		Description:    "Show ranking neighbors around a hunter",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Gamification - the core loop, enabled by default
	ff.features[FeatureGamificationStreaks] = &Feature{
		Name:           FeatureGamificationStreaks,
		Description:    "Track daily clear streaks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationPenalties] = &Feature{
		Name:           FeatureGamificationPenalties,
		Description:    "Charge XP for missed required missions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationAchievements] = &Feature{
		Name:           FeatureGamificationAchievements,
		Description:    "Unlock achievements",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationRaids] = &Feature{
		Name:           FeatureGamificationRaids,
		Description:    "Long-running boss raids",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Mission features
	ff.features[FeatureMissionsBonusQuests] = &Feature{
		Name:           FeatureMissionsBonusQuests,
		Description:    "Generate optional exercise quests",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureMissionsAutoAdvance] = &Feature{
		Name:           FeatureMissionsAutoAdvance,
		Description:    "Logged activity advances matching missions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Voice input
	ff.features[FeatureVoiceCommands] = &Feature{
		Name:           FeatureVoiceCommands,
		Description:    "Parse Spanish voice transcripts",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Notification features - carefully tuned to avoid spam
	ff.features[FeatureNotifyLevelUp] = &Feature{
		Name:           FeatureNotifyLevelUp,
		Description:    "Announce level ups",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyStreakBroken] = &Feature{
		Name:           FeatureNotifyStreakBroken,
		Description:    "Announce broken streaks",
		Enabled:        false, // Disabled by default - can be demotivating
		RolloutPercent: 0,
	}

	ff.features[FeatureNotifyAchievement] = &Feature{
		Name:           FeatureNotifyAchievement,
		Description:    "Announce unlocked achievements",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalAICoach] = &Feature{
		Name:           FeatureExperimentalAICoach,
		Description:    "AI-powered workout suggestions",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalWeeklyRaid] = &Feature{
		Name:           FeatureExperimentalWeeklyRaid,
		Description:    "Rotating weekly boss raid",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_VOICE_COMMANDS=true
// Example: FEATURE_MISSIONS_BONUS_QUESTS=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "voice.commands" -> "FEATURE_VOICE_COMMANDS"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check hunter overrides first
	if ctx != nil && ctx.HunterID != "" {
		if overrides, ok := ff.hunterOverrides[ctx.HunterID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.HunterID != "" {
		return ff.isInRollout(ctx.HunterID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a hunter is in the rollout percentage.
// Uses consistent hashing so hunters stay in their bucket.
func (ff *FeatureFlags) isInRollout(hunterID, featureName string, percent int) bool {
	// Create a consistent hash for this hunter+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(hunterID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a hunter.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !ff.IsEnabled(featureName, ctx) {
		return ""
	}

	if len(feature.Variants) == 0 || ctx == nil {
		return ""
	}

	// Use consistent hashing to assign variant
	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.HunterID))
	hash := h.Sum32()

	variantIndex := int(hash % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// SetHunterOverride sets a feature override for a specific hunter.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetHunterOverride(hunterID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.hunterOverrides[hunterID]; !ok {
		ff.hunterOverrides[hunterID] = make(map[string]bool)
	}
	ff.hunterOverrides[hunterID][featureName] = enabled
}

// ClearHunterOverrides removes all overrides for a hunter.
func (ff *FeatureFlags) ClearHunterOverrides(hunterID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.hunterOverrides, hunterID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// PenaltiesEnabled checks if missed missions should cost XP.
func (ff *FeatureFlags) PenaltiesEnabled() bool {
	return ff.IsEnabled(FeatureGamificationPenalties, nil)
}

// VoiceEnabled checks if voice transcripts should be processed.
func (ff *FeatureFlags) VoiceEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureVoiceCommands, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
