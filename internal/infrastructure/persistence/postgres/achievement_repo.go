package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/achievement"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const achievementColumns = `id, hunter_id, key, title, description, rarity, unlocked_at`

// AchievementRepository implements achievement.Repository for PostgreSQL.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

// SaveIfAbsent stores an achievement unless the key is already unlocked.
// The (hunter_id, key) unique constraint decides the race: the insert
// either lands (true) or is a silent duplicate (false).
func (r *AchievementRepository) SaveIfAbsent(ctx context.Context, a *achievement.Achievement) (bool, error) {
	query := `
		INSERT INTO achievements (id, hunter_id, key, title, description, rarity, unlocked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (hunter_id, key) DO NOTHING
	`

	result, err := r.conn.Exec(ctx, query,
		a.ID,
		a.HunterID,
		a.Key,
		a.Title,
		a.Description,
		string(a.Rarity),
		a.UnlockedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to save achievement: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// GetByHunter returns all of a hunter's achievements.
func (r *AchievementRepository) GetByHunter(ctx context.Context, hunterID string) ([]*achievement.Achievement, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM achievements
		WHERE hunter_id = $1
		ORDER BY unlocked_at DESC
	`, achievementColumns)

	rows, err := r.conn.Query(ctx, query, hunterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	defer rows.Close()

	return r.scanAchievements(rows)
}

// GetUnlockedKeys returns the set of keys a hunter has unlocked.
func (r *AchievementRepository) GetUnlockedKeys(ctx context.Context, hunterID string) (map[string]bool, error) {
	rows, err := r.conn.Query(ctx,
		"SELECT key FROM achievements WHERE hunter_id = $1",
		hunterID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get unlocked keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan achievement key: %w", err)
		}
		keys[key] = true
	}

	return keys, rows.Err()
}

// Has checks whether a key is unlocked.
func (r *AchievementRepository) Has(ctx context.Context, hunterID, key string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM achievements WHERE hunter_id = $1 AND key = $2)",
		hunterID, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check achievement: %w", err)
	}
	return exists, nil
}

// GetRecent returns a hunter's latest achievements, newest first.
func (r *AchievementRepository) GetRecent(ctx context.Context, hunterID string, limit int) ([]*achievement.Achievement, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM achievements
		WHERE hunter_id = $1
		ORDER BY unlocked_at DESC
		LIMIT $2
	`, achievementColumns)

	rows, err := r.conn.Query(ctx, query, hunterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent achievements: %w", err)
	}
	defer rows.Close()

	return r.scanAchievements(rows)
}

// GetUnlockedSince returns recent achievements across all hunters.
func (r *AchievementRepository) GetUnlockedSince(ctx context.Context, since time.Time, limit int) ([]*achievement.Achievement, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM achievements
		WHERE unlocked_at >= $1
		ORDER BY unlocked_at DESC
		LIMIT $2
	`, achievementColumns)

	rows, err := r.conn.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements since: %w", err)
	}
	defer rows.Close()

	return r.scanAchievements(rows)
}

// scanAchievements scans multiple achievements from rows.
func (r *AchievementRepository) scanAchievements(rows pgx.Rows) ([]*achievement.Achievement, error) {
	var achievements []*achievement.Achievement

	for rows.Next() {
		var a achievement.Achievement
		var rarity string

		err := rows.Scan(
			&a.ID,
			&a.HunterID,
			&a.Key,
			&a.Title,
			&a.Description,
			&rarity,
			&a.UnlockedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}

		a.Rarity = shared.Rarity(rarity)
		achievements = append(achievements, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return achievements, nil
}
