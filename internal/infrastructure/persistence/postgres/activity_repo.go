package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/activity"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ActivityRepository implements activity.Repository for PostgreSQL.
// Activity rows are append-only; nothing here mutates history.
type ActivityRepository struct {
	conn *Connection
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(conn *Connection) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Workouts
// ─────────────────────────────────────────────────────────────────────────────

// SaveWorkout saves a workout entry.
func (r *ActivityRepository) SaveWorkout(ctx context.Context, entry activity.WorkoutEntry) error {
	query := `
		INSERT INTO workouts (id, hunter_id, workout_type, intensity, duration_minutes, reps, xp_gained, notes, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		entry.ID,
		entry.HunterID,
		entry.WorkoutType,
		string(entry.Intensity),
		entry.DurationMinutes,
		entry.Reps,
		entry.XPGained,
		entry.Notes,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workout: %w", err)
	}

	return nil
}

// GetWorkouts returns a hunter's workouts within a time range.
func (r *ActivityRepository) GetWorkouts(ctx context.Context, hunterID string, from, to time.Time) ([]activity.WorkoutEntry, error) {
	query := `
		SELECT id, hunter_id, workout_type, intensity, duration_minutes, reps, xp_gained, notes, logged_at
		FROM workouts
		WHERE hunter_id = $1 AND logged_at >= $2 AND logged_at <= $3
		ORDER BY logged_at DESC
	`

	rows, err := r.conn.Query(ctx, query, hunterID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get workouts: %w", err)
	}
	defer rows.Close()

	var entries []activity.WorkoutEntry
	for rows.Next() {
		var entry activity.WorkoutEntry
		var intensity string

		err := rows.Scan(
			&entry.ID,
			&entry.HunterID,
			&entry.WorkoutType,
			&intensity,
			&entry.DurationMinutes,
			&entry.Reps,
			&entry.XPGained,
			&entry.Notes,
			&entry.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}

		entry.Intensity = shared.Intensity(intensity)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// CountWorkouts returns the total number of a hunter's workouts.
func (r *ActivityRepository) CountWorkouts(ctx context.Context, hunterID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM workouts WHERE hunter_id = $1",
		hunterID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count workouts: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Nutrition
// ─────────────────────────────────────────────────────────────────────────────

// SaveNutrition saves a meal entry.
func (r *ActivityRepository) SaveNutrition(ctx context.Context, entry activity.NutritionEntry) error {
	query := `
		INSERT INTO nutrition_entries (id, hunter_id, description, calories, healthy, xp_delta, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		entry.ID,
		entry.HunterID,
		entry.Description,
		entry.Calories,
		entry.Healthy,
		entry.XPDelta,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save nutrition entry: %w", err)
	}

	return nil
}

// GetNutrition returns a hunter's meals within a time range.
func (r *ActivityRepository) GetNutrition(ctx context.Context, hunterID string, from, to time.Time) ([]activity.NutritionEntry, error) {
	query := `
		SELECT id, hunter_id, description, calories, healthy, xp_delta, logged_at
		FROM nutrition_entries
		WHERE hunter_id = $1 AND logged_at >= $2 AND logged_at <= $3
		ORDER BY logged_at DESC
	`

	rows, err := r.conn.Query(ctx, query, hunterID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get nutrition entries: %w", err)
	}
	defer rows.Close()

	var entries []activity.NutritionEntry
	for rows.Next() {
		var entry activity.NutritionEntry

		err := rows.Scan(
			&entry.ID,
			&entry.HunterID,
			&entry.Description,
			&entry.Calories,
			&entry.Healthy,
			&entry.XPDelta,
			&entry.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nutrition entry: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Hydration
// ─────────────────────────────────────────────────────────────────────────────

// SaveHydration saves a hydration entry.
func (r *ActivityRepository) SaveHydration(ctx context.Context, entry activity.HydrationEntry) error {
	query := `
		INSERT INTO hydration_entries (id, hunter_id, amount_ml, drink_type, logged_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query,
		entry.ID,
		entry.HunterID,
		entry.AmountML,
		entry.DrinkType,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save hydration entry: %w", err)
	}

	return nil
}

// GetHydration returns a hunter's hydration entries within a time range.
func (r *ActivityRepository) GetHydration(ctx context.Context, hunterID string, from, to time.Time) ([]activity.HydrationEntry, error) {
	query := `
		SELECT id, hunter_id, amount_ml, drink_type, logged_at
		FROM hydration_entries
		WHERE hunter_id = $1 AND logged_at >= $2 AND logged_at <= $3
		ORDER BY logged_at DESC
	`

	rows, err := r.conn.Query(ctx, query, hunterID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get hydration entries: %w", err)
	}
	defer rows.Close()

	var entries []activity.HydrationEntry
	for rows.Next() {
		var entry activity.HydrationEntry

		err := rows.Scan(
			&entry.ID,
			&entry.HunterID,
			&entry.AmountML,
			&entry.DrinkType,
			&entry.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hydration entry: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// SumHydration returns a hunter's total water intake within a time range.
func (r *ActivityRepository) SumHydration(ctx context.Context, hunterID string, from, to time.Time) (int, error) {
	var total int
	err := r.conn.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_ml), 0) FROM hydration_entries
		 WHERE hunter_id = $1 AND logged_at >= $2 AND logged_at <= $3`,
		hunterID, from, to,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum hydration: %w", err)
	}
	return total, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Voice Commands
// ─────────────────────────────────────────────────────────────────────────────

// SaveVoiceCommand saves a processed voice command.
func (r *ActivityRepository) SaveVoiceCommand(ctx context.Context, entry activity.VoiceCommandEntry) error {
	query := `
		INSERT INTO voice_commands (id, hunter_id, transcript, intent, exercise_type, amount, response, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		entry.ID,
		entry.HunterID,
		entry.Transcript,
		string(entry.Intent),
		entry.ExerciseType,
		entry.Amount,
		entry.Response,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save voice command: %w", err)
	}

	return nil
}

// GetVoiceCommands returns a hunter's latest voice commands.
func (r *ActivityRepository) GetVoiceCommands(ctx context.Context, hunterID string, limit int) ([]activity.VoiceCommandEntry, error) {
	query := `
		SELECT id, hunter_id, transcript, intent, exercise_type, amount, response, logged_at
		FROM voice_commands
		WHERE hunter_id = $1
		ORDER BY logged_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, hunterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get voice commands: %w", err)
	}
	defer rows.Close()

	var entries []activity.VoiceCommandEntry
	for rows.Next() {
		var entry activity.VoiceCommandEntry
		var intent string

		err := rows.Scan(
			&entry.ID,
			&entry.HunterID,
			&entry.Transcript,
			&intent,
			&entry.ExerciseType,
			&entry.Amount,
			&entry.Response,
			&entry.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voice command: %w", err)
		}

		entry.Intent = activity.VoiceIntent(intent)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
