package postgres

// embeddedMigrations returns the forward schema history, oldest first.
// Versions are append-only: published SQL is never edited, schema changes
// get a new entry.
func embeddedMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_hunters", SQL: migration001SQL},
		{Version: 2, Name: "create_missions_and_raids", SQL: migration002SQL},
		{Version: 3, Name: "create_activity_log", SQL: migration003SQL},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE HUNTERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001SQL = `
-- Migration: Create hunters table
-- Version: 001

-- Main hunters table. The version column backs optimistic locking:
-- every UPDATE must match the version it read and bump it by one.
CREATE TABLE IF NOT EXISTS hunters (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL,
    email VARCHAR(255) UNIQUE,
    password_hash VARCHAR(100) NOT NULL DEFAULT '',
    level INTEGER NOT NULL DEFAULT 1,
    current_xp INTEGER NOT NULL DEFAULT 0,
    total_xp INTEGER NOT NULL DEFAULT 0,
    available_points INTEGER NOT NULL DEFAULT 0,
    stat_str INTEGER NOT NULL DEFAULT 1,
    stat_agi INTEGER NOT NULL DEFAULT 1,
    stat_int INTEGER NOT NULL DEFAULT 1,
    stat_vit INTEGER NOT NULL DEFAULT 1,
    stat_cha INTEGER NOT NULL DEFAULT 1,
    total_workouts INTEGER NOT NULL DEFAULT 0,
    total_missions_completed INTEGER NOT NULL DEFAULT 0,
    current_streak INTEGER NOT NULL DEFAULT 0,
    max_streak INTEGER NOT NULL DEFAULT 0,
    last_clear_date DATE,
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Constraints for data integrity
    CONSTRAINT valid_level CHECK (level >= 1),
    CONSTRAINT valid_current_xp CHECK (current_xp >= 0),
    CONSTRAINT valid_total_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_points CHECK (available_points >= 0),
    CONSTRAINT valid_streak CHECK (current_streak >= 0 AND max_streak >= current_streak)
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_hunters_email ON hunters(email) WHERE email IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_hunters_total_xp ON hunters(total_xp DESC);
CREATE INDEX IF NOT EXISTS idx_hunters_last_clear_date ON hunters(last_clear_date);

-- XP journal: every applied delta with its source
CREATE TABLE IF NOT EXISTS xp_history (
    id SERIAL PRIMARY KEY,
    hunter_id UUID NOT NULL REFERENCES hunters(id) ON DELETE CASCADE,
    delta INTEGER NOT NULL,
    applied_delta INTEGER NOT NULL,
    level_after INTEGER NOT NULL,
    source VARCHAR(30) NOT NULL,
    source_id VARCHAR(100),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_xp_history_hunter_id ON xp_history(hunter_id);
CREATE INDEX IF NOT EXISTS idx_xp_history_hunter_date ON xp_history(hunter_id, created_at DESC);

-- Stat journal: allocations and boss rewards
CREATE TABLE IF NOT EXISTS stat_history (
    id SERIAL PRIMARY KEY,
    hunter_id UUID NOT NULL REFERENCES hunters(id) ON DELETE CASCADE,
    stat VARCHAR(20) NOT NULL,
    delta INTEGER NOT NULL,
    old_value INTEGER NOT NULL,
    new_value INTEGER NOT NULL,
    reason VARCHAR(100) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_stat CHECK (stat IN ('str', 'agi', 'int', 'vit', 'cha'))
);

CREATE INDEX IF NOT EXISTS idx_stat_history_hunter_id ON stat_history(hunter_id, created_at DESC);

-- Achievements: the (hunter_id, key) unique pair makes grants exactly-once.
-- SaveIfAbsent relies on ON CONFLICT DO NOTHING against this constraint.
CREATE TABLE IF NOT EXISTS achievements (
    id UUID PRIMARY KEY,
    hunter_id UUID NOT NULL REFERENCES hunters(id) ON DELETE CASCADE,
    key VARCHAR(100) NOT NULL,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    rarity VARCHAR(20) NOT NULL,
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(hunter_id, key),
    CONSTRAINT valid_rarity CHECK (rarity IN ('common', 'rare', 'epic', 'legendary', 'mythic'))
);

CREATE INDEX IF NOT EXISTS idx_achievements_hunter_id ON achievements(hunter_id, unlocked_at DESC);
CREATE INDEX IF NOT EXISTS idx_achievements_unlocked_at ON achievements(unlocked_at DESC);
`


// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE MISSIONS AND RAIDS
// ══════════════════════════════════════════════════════════════════════════════

const migration002SQL = `
-- Migration: Create daily missions and boss raids
-- Version: 002

-- Daily missions. One row per (hunter, key, date); generation is
-- idempotent through the unique constraint.
CREATE TABLE IF NOT EXISTS missions (
    id UUID PRIMARY KEY,
    hunter_id UUID NOT NULL REFERENCES hunters(id) ON DELETE CASCADE,
    key VARCHAR(50) NOT NULL,
    title VARCHAR(200) NOT NULL,
    kind VARCHAR(20) NOT NULL,
    exercise_type VARCHAR(50) NOT NULL DEFAULT '',
    target INTEGER NOT NULL,
    progress INTEGER NOT NULL DEFAULT 0,
    xp_reward INTEGER NOT NULL,
    penalty_xp INTEGER NOT NULL DEFAULT 0,
    required BOOLEAN NOT NULL DEFAULT TRUE,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    date DATE NOT NULL,
    completed_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(hunter_id, key, date),
    CONSTRAINT valid_mission_status CHECK (status IN ('pending', 'completed', 'expired')),
    CONSTRAINT valid_mission_target CHECK (target > 0),
    CONSTRAINT valid_penalty CHECK (penalty_xp <= 0)
);

CREATE INDEX IF NOT EXISTS idx_missions_hunter_date ON missions(hunter_id, date);
CREATE INDEX IF NOT EXISTS idx_missions_pending ON missions(date) WHERE status = 'pending';

-- Boss raids. Seeding is idempotent on (hunter_id, key); the completion
-- UPDATE carries "AND status = 'active'" so the kill is counted once.
CREATE TABLE IF NOT EXISTS raids (
    id UUID PRIMARY KEY,
    hunter_id UUID NOT NULL REFERENCES hunters(id) ON DELETE CASCADE,
    key VARCHAR(50) NOT NULL,
    name VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    boss_type VARCHAR(30) NOT NULL,
    target INTEGER NOT NULL,
    progress INTEGER NOT NULL DEFAULT 0,
    difficulty VARCHAR(5) NOT NULL,
    reward_xp INTEGER NOT NULL,
    reward_stats JSONB NOT NULL DEFAULT '{}'::jsonb,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    completed_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(hunter_id, key),
    CONSTRAINT valid_raid_status CHECK (status IN ('active', 'completed')),
    CONSTRAINT valid_boss_type CHECK (boss_type IN ('workout_count', 'level_target', 'daily_streak')),
    CONSTRAINT valid_raid_target CHECK (target > 0)
);

CREATE INDEX IF NOT EXISTS idx_raids_hunter_id ON raids(hunter_id);
CREATE INDEX IF NOT EXISTS idx_raids_active ON raids(hunter_id, boss_type) WHERE status = 'active';
`


// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE ACTIVITY LOG
// ══════════════════════════════════════════════════════════════════════════════

const migration003SQL = `
-- Migration: Create activity log tables
-- Version: 003

CREATE TABLE IF NOT EXISTS workouts (
    id UUID PRIMARY KEY,
    hunter_id UUID NOT NULL REFERENCES hunters(id) ON DELETE CASCADE,
    workout_type VARCHAR(50) NOT NULL,
    intensity VARCHAR(20) NOT NULL,
    duration_minutes INTEGER NOT NULL,
    reps INTEGER NOT NULL DEFAULT 0,
    xp_gained INTEGER NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    logged_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_intensity CHECK (intensity IN ('low', 'medium', 'high', 'extreme')),
    CONSTRAINT valid_duration CHECK (duration_minutes > 0)
);

CREATE INDEX IF NOT EXISTS idx_workouts_hunter_date ON workouts(hunter_id, logged_at DESC);

CREATE TABLE IF NOT EXISTS nutrition_entries (
    id UUID PRIMARY KEY,
    hunter_id UUID NOT NULL REFERENCES hunters(id) ON DELETE CASCADE,
    description TEXT NOT NULL DEFAULT '',
    calories INTEGER NOT NULL DEFAULT 0,
    healthy BOOLEAN NOT NULL,
    xp_delta INTEGER NOT NULL,
    logged_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_nutrition_hunter_date ON nutrition_entries(hunter_id, logged_at DESC);

CREATE TABLE IF NOT EXISTS hydration_entries (
    id UUID PRIMARY KEY,
    hunter_id UUID NOT NULL REFERENCES hunters(id) ON DELETE CASCADE,
    amount_ml INTEGER NOT NULL,
    drink_type VARCHAR(30) NOT NULL DEFAULT 'agua',
    logged_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_amount CHECK (amount_ml > 0)
);

CREATE INDEX IF NOT EXISTS idx_hydration_hunter_date ON hydration_entries(hunter_id, logged_at DESC);

CREATE TABLE IF NOT EXISTS voice_commands (
    id UUID PRIMARY KEY,
    hunter_id UUID NOT NULL REFERENCES hunters(id) ON DELETE CASCADE,
    transcript TEXT NOT NULL,
    intent VARCHAR(30) NOT NULL,
    exercise_type VARCHAR(50) NOT NULL DEFAULT '',
    amount INTEGER NOT NULL DEFAULT 0,
    response TEXT NOT NULL DEFAULT '',
    logged_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_voice_commands_hunter_date ON voice_commands(hunter_id, logged_at DESC);
`

