package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/mission"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MISSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const missionColumns = `id, hunter_id, key, title, kind, exercise_type, target,
	   progress, xp_reward, penalty_xp, required, status, date,
	   completed_at, created_at, updated_at`

// MissionRepository implements mission.Repository for PostgreSQL.
type MissionRepository struct {
	conn *Connection
}

// NewMissionRepository creates a new MissionRepository.
func NewMissionRepository(conn *Connection) *MissionRepository {
	return &MissionRepository{conn: conn}
}

// CreateBatch inserts a set of missions. Existing (hunter_id, key, date)
// rows are silently skipped, which makes daily generation idempotent.
func (r *MissionRepository) CreateBatch(ctx context.Context, missions []*mission.Mission) error {
	if len(missions) == 0 {
		return nil
	}

	query := `
		INSERT INTO missions (
			id, hunter_id, key, title, kind, exercise_type, target, progress,
			xp_reward, penalty_xp, required, status, date, completed_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (hunter_id, key, date) DO NOTHING
	`

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		for _, m := range missions {
			_, err := tx.Exec(ctx, query,
				m.ID,
				m.HunterID,
				m.Key,
				m.Title,
				string(m.Kind),
				m.ExerciseType,
				m.Target,
				m.Progress,
				m.XPReward,
				m.PenaltyXP,
				m.Required,
				string(m.Status),
				missionDate(m.Date),
				dateOrNull(m.CompletedAt),
				m.CreatedAt,
				m.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to create mission %s: %w", m.Key, err)
			}
		}
		return nil
	})
}

// GetByID returns a mission by ID.
func (r *MissionRepository) GetByID(ctx context.Context, id string) (*mission.Mission, error) {
	query := fmt.Sprintf(`SELECT %s FROM missions WHERE id = $1`, missionColumns)

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanMission(row)
}

// GetByKey returns a hunter's mission by key and day.
func (r *MissionRepository) GetByKey(ctx context.Context, hunterID, key string, date time.Time) (*mission.Mission, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM missions
		WHERE hunter_id = $1 AND key = $2 AND date = $3
	`, missionColumns)

	row := r.conn.QueryRow(ctx, query, hunterID, key, missionDate(date))
	return r.scanMission(row)
}

// GetDaily returns all of a hunter's missions for a day.
func (r *MissionRepository) GetDaily(ctx context.Context, hunterID string, date time.Time) ([]*mission.Mission, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM missions
		WHERE hunter_id = $1 AND date = $2
		ORDER BY required DESC, key ASC
	`, missionColumns)

	rows, err := r.conn.Query(ctx, query, hunterID, missionDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to get daily missions: %w", err)
	}
	defer rows.Close()

	return r.scanMissions(rows)
}

// Update saves a mission. When the incoming mission transitions to
// completed, the write is guarded on status = 'pending' so the reward
// fires exactly once even under concurrent progress updates.
func (r *MissionRepository) Update(ctx context.Context, m *mission.Mission) error {
	query := `
		UPDATE missions SET
			progress = $1,
			status = $2,
			completed_at = $3,
			updated_at = $4
		WHERE id = $5
	`
	args := []interface{}{
		m.Progress,
		string(m.Status),
		dateOrNull(m.CompletedAt),
		time.Now().UTC(),
		m.ID,
	}

	completing := m.Status == mission.StatusCompleted
	if completing {
		query += " AND status = 'pending'"
	}

	result, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update mission: %w", err)
	}

	if result.RowsAffected() == 0 {
		if !completing {
			return mission.ErrNotFound
		}
		existing, getErr := r.GetByID(ctx, m.ID)
		if getErr != nil {
			return getErr
		}
		if existing.Status == mission.StatusCompleted {
			return mission.ErrAlreadyCompleted
		}
		return mission.ErrNotFound
	}

	return nil
}

// ExpirePending marks every unfinished mission strictly before the given
// day as expired. Returns the number of affected rows.
func (r *MissionRepository) ExpirePending(ctx context.Context, before time.Time) (int, error) {
	query := `
		UPDATE missions SET
			status = 'expired',
			updated_at = $1
		WHERE status = 'pending' AND date < $2
	`

	result, err := r.conn.Exec(ctx, query, time.Now().UTC(), missionDate(before))
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending missions: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// CountCompleted returns the number of missions a hunter completed on a day.
func (r *MissionRepository) CountCompleted(ctx context.Context, hunterID string, date time.Time) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM missions WHERE hunter_id = $1 AND date = $2 AND status = 'completed'",
		hunterID, missionDate(date),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed missions: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// scanMission scans a single mission from a row.
func (r *MissionRepository) scanMission(row pgx.Row) (*mission.Mission, error) {
	var m mission.Mission
	var kind, status string
	var completedAt *time.Time

	err := row.Scan(
		&m.ID,
		&m.HunterID,
		&m.Key,
		&m.Title,
		&kind,
		&m.ExerciseType,
		&m.Target,
		&m.Progress,
		&m.XPReward,
		&m.PenaltyXP,
		&m.Required,
		&status,
		&m.Date,
		&completedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, mission.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan mission: %w", err)
	}

	m.Kind = mission.Kind(kind)
	m.Status = mission.Status(status)
	if completedAt != nil {
		m.CompletedAt = *completedAt
	}

	return &m, nil
}

// scanMissions scans multiple missions from rows.
func (r *MissionRepository) scanMissions(rows pgx.Rows) ([]*mission.Mission, error) {
	var missions []*mission.Mission

	for rows.Next() {
		var m mission.Mission
		var kind, status string
		var completedAt *time.Time

		err := rows.Scan(
			&m.ID,
			&m.HunterID,
			&m.Key,
			&m.Title,
			&kind,
			&m.ExerciseType,
			&m.Target,
			&m.Progress,
			&m.XPReward,
			&m.PenaltyXP,
			&m.Required,
			&status,
			&m.Date,
			&completedAt,
			&m.CreatedAt,
			&m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}

		m.Kind = mission.Kind(kind)
		m.Status = mission.Status(status)
		if completedAt != nil {
			m.CompletedAt = *completedAt
		}

		missions = append(missions, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return missions, nil
}

// missionDate truncates a timestamp to the UTC day stored in the date column.
func missionDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
