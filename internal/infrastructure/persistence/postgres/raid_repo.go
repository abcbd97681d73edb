package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// RAID REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const raidColumns = `id, hunter_id, key, name, description, boss_type, target,
	   progress, difficulty, reward_xp, reward_stats,
	   status, completed_at, created_at, updated_at`

// RaidRepository implements raid.Repository for PostgreSQL.
type RaidRepository struct {
	conn *Connection
}

// NewRaidRepository creates a new RaidRepository.
func NewRaidRepository(conn *Connection) *RaidRepository {
	return &RaidRepository{conn: conn}
}

// CreateBatch inserts a set of raids. Existing (hunter_id, key) rows are
// silently skipped, which makes boss seeding idempotent.
func (r *RaidRepository) CreateBatch(ctx context.Context, raids []*raid.Raid) error {
	if len(raids) == 0 {
		return nil
	}

	query := `
		INSERT INTO raids (
			id, hunter_id, key, name, description, boss_type, target, progress,
			difficulty, reward_xp, reward_stats, status,
			completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (hunter_id, key) DO NOTHING
	`

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		for _, rd := range raids {
			rewardStats, err := marshalRewardStats(rd.Reward.Stats)
			if err != nil {
				return fmt.Errorf("failed to encode reward stats for raid %s: %w", rd.Key, err)
			}

			_, err = tx.Exec(ctx, query,
				rd.ID,
				rd.HunterID,
				rd.Key,
				rd.Name,
				rd.Description,
				string(rd.BossType),
				rd.Target,
				rd.Progress,
				rd.Difficulty.String(),
				rd.Reward.XP,
				rewardStats,
				string(rd.Status),
				dateOrNull(rd.CompletedAt),
				rd.CreatedAt,
				rd.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to create raid %s: %w", rd.Key, err)
			}
		}
		return nil
	})
}

// GetByID returns a raid by ID.
func (r *RaidRepository) GetByID(ctx context.Context, id string) (*raid.Raid, error) {
	query := fmt.Sprintf(`SELECT %s FROM raids WHERE id = $1`, raidColumns)

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanRaid(row)
}

// GetActive returns a hunter's active raids.
func (r *RaidRepository) GetActive(ctx context.Context, hunterID string) ([]*raid.Raid, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM raids
		WHERE hunter_id = $1 AND status = 'active'
		ORDER BY created_at ASC
	`, raidColumns)

	rows, err := r.conn.Query(ctx, query, hunterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active raids: %w", err)
	}
	defer rows.Close()

	return r.scanRaids(rows)
}

// GetActiveByType returns a hunter's active raids of the given boss type.
func (r *RaidRepository) GetActiveByType(ctx context.Context, hunterID string, bossType raid.BossType) ([]*raid.Raid, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM raids
		WHERE hunter_id = $1 AND status = 'active' AND boss_type = $2
		ORDER BY created_at ASC
	`, raidColumns)

	rows, err := r.conn.Query(ctx, query, hunterID, string(bossType))
	if err != nil {
		return nil, fmt.Errorf("failed to get active raids by type: %w", err)
	}
	defer rows.Close()

	return r.scanRaids(rows)
}

// GetAll returns all of a hunter's raids.
func (r *RaidRepository) GetAll(ctx context.Context, hunterID string) ([]*raid.Raid, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM raids
		WHERE hunter_id = $1
		ORDER BY created_at ASC
	`, raidColumns)

	rows, err := r.conn.Query(ctx, query, hunterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raids: %w", err)
	}
	defer rows.Close()

	return r.scanRaids(rows)
}

// Update saves a raid. When the incoming raid transitions to completed,
// the write is guarded on status = 'active' so concurrent progress events
// cannot count the same kill twice; the loser of the race gets
// raid.ErrAlreadyCompleted.
func (r *RaidRepository) Update(ctx context.Context, rd *raid.Raid) error {
	query := `
		UPDATE raids SET
			progress = $1,
			status = $2,
			completed_at = $3,
			updated_at = $4
		WHERE id = $5
	`
	args := []interface{}{
		rd.Progress,
		string(rd.Status),
		dateOrNull(rd.CompletedAt),
		time.Now().UTC(),
		rd.ID,
	}

	completing := rd.Status == raid.StatusCompleted
	if completing {
		query += " AND status = 'active'"
	}

	result, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update raid: %w", err)
	}

	if result.RowsAffected() == 0 {
		if !completing {
			return raid.ErrNotFound
		}
		existing, getErr := r.GetByID(ctx, rd.ID)
		if getErr != nil {
			return getErr
		}
		if existing.Status == raid.StatusCompleted {
			return raid.ErrAlreadyCompleted
		}
		return raid.ErrNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// scanRaid scans a single raid from a row.
func (r *RaidRepository) scanRaid(row pgx.Row) (*raid.Raid, error) {
	var rd raid.Raid
	var bossType, difficulty, status string
	var rewardStats []byte
	var completedAt *time.Time

	err := row.Scan(
		&rd.ID,
		&rd.HunterID,
		&rd.Key,
		&rd.Name,
		&rd.Description,
		&bossType,
		&rd.Target,
		&rd.Progress,
		&difficulty,
		&rd.Reward.XP,
		&rewardStats,
		&status,
		&completedAt,
		&rd.CreatedAt,
		&rd.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, raid.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan raid: %w", err)
	}

	rd.BossType = raid.BossType(bossType)
	rd.Difficulty = shared.Difficulty(difficulty)
	rd.Status = raid.Status(status)
	if rd.Reward.Stats, err = unmarshalRewardStats(rewardStats); err != nil {
		return nil, fmt.Errorf("failed to decode raid reward stats: %w", err)
	}
	if completedAt != nil {
		rd.CompletedAt = *completedAt
	}

	return &rd, nil
}

// scanRaids scans multiple raids from rows.
func (r *RaidRepository) scanRaids(rows pgx.Rows) ([]*raid.Raid, error) {
	var raids []*raid.Raid

	for rows.Next() {
		var rd raid.Raid
		var bossType, difficulty, status string
		var rewardStats []byte
		var completedAt *time.Time

		err := rows.Scan(
			&rd.ID,
			&rd.HunterID,
			&rd.Key,
			&rd.Name,
			&rd.Description,
			&bossType,
			&rd.Target,
			&rd.Progress,
			&difficulty,
			&rd.Reward.XP,
			&rewardStats,
			&status,
			&completedAt,
			&rd.CreatedAt,
			&rd.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raid: %w", err)
		}

		rd.BossType = raid.BossType(bossType)
		rd.Difficulty = shared.Difficulty(difficulty)
		rd.Status = raid.Status(status)
		if rd.Reward.Stats, err = unmarshalRewardStats(rewardStats); err != nil {
			return nil, fmt.Errorf("failed to decode raid reward stats: %w", err)
		}
		if completedAt != nil {
			rd.CompletedAt = *completedAt
		}

		raids = append(raids, &rd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return raids, nil
}

// marshalRewardStats encodes the reward stat map as JSONB payload.
func marshalRewardStats(stats map[shared.StatKey]int) ([]byte, error) {
	if len(stats) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(stats)
}

// unmarshalRewardStats decodes the JSONB payload back into the stat map.
// An empty object maps to nil so rewards without stat bonuses stay light.
func unmarshalRewardStats(payload []byte) (map[shared.StatKey]int, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	var stats map[shared.StatKey]int
	if err := json.Unmarshal(payload, &stats); err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, nil
	}
	return stats, nil
}
