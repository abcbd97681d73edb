package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// HUNTER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const hunterColumns = `id, name, email, password_hash, level, current_xp, total_xp,
	   available_points, stat_str, stat_agi, stat_int, stat_vit, stat_cha,
	   total_workouts, total_missions_completed, current_streak, max_streak,
	   last_clear_date, version, created_at, updated_at`

// HunterRepository implements hunter.Repository for PostgreSQL.
type HunterRepository struct {
	conn *Connection
}

// NewHunterRepository creates a new HunterRepository.
func NewHunterRepository(conn *Connection) *HunterRepository {
	return &HunterRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new hunter profile.
func (r *HunterRepository) Create(ctx context.Context, h *hunter.Hunter) error {
	query := `
		INSERT INTO hunters (
			id, name, email, password_hash, level, current_xp, total_xp,
			available_points, stat_str, stat_agi, stat_int, stat_vit, stat_cha,
			total_workouts, total_missions_completed, current_streak, max_streak,
			last_clear_date, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.conn.Exec(ctx, query,
		h.ID,
		h.Name,
		emailOrNull(h.Email),
		h.PasswordHash,
		h.Level,
		h.CurrentXP,
		h.TotalXP,
		h.AvailablePoints,
		h.Stats[shared.StatStrength],
		h.Stats[shared.StatAgility],
		h.Stats[shared.StatIntelligence],
		h.Stats[shared.StatVitality],
		h.Stats[shared.StatCharisma],
		h.TotalWorkouts,
		h.TotalMissionsCompleted,
		h.CurrentStreak,
		h.MaxStreak,
		dateOrNull(h.LastClearDate),
		h.Version,
		h.CreatedAt,
		h.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return hunter.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create hunter: %w", err)
	}

	return nil
}

// GetByID returns a hunter by internal ID.
func (r *HunterRepository) GetByID(ctx context.Context, id string) (*hunter.Hunter, error) {
	query := fmt.Sprintf(`SELECT %s FROM hunters WHERE id = $1`, hunterColumns)

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanHunter(row)
}

// GetByEmail returns a hunter by email address.
func (r *HunterRepository) GetByEmail(ctx context.Context, email hunter.Email) (*hunter.Hunter, error) {
	query := fmt.Sprintf(`SELECT %s FROM hunters WHERE email = $1`, hunterColumns)

	row := r.conn.QueryRow(ctx, query, email.Normalize().String())
	return r.scanHunter(row)
}

// Update saves a hunter using optimistic locking on the version column.
// The row is only written when the stored version matches the one the caller
// read; a mismatch means someone else won the race and the caller must reload.
func (r *HunterRepository) Update(ctx context.Context, h *hunter.Hunter) error {
	query := `
		UPDATE hunters SET
			name = $1,
			email = $2,
			password_hash = $3,
			level = $4,
			current_xp = $5,
			total_xp = $6,
			available_points = $7,
			stat_str = $8,
			stat_agi = $9,
			stat_int = $10,
			stat_vit = $11,
			stat_cha = $12,
			total_workouts = $13,
			total_missions_completed = $14,
			current_streak = $15,
			max_streak = $16,
			last_clear_date = $17,
			version = version + 1,
			updated_at = $18
		WHERE id = $19 AND version = $20
	`

	result, err := r.conn.Exec(ctx, query,
		h.Name,
		emailOrNull(h.Email),
		h.PasswordHash,
		h.Level,
		h.CurrentXP,
		h.TotalXP,
		h.AvailablePoints,
		h.Stats[shared.StatStrength],
		h.Stats[shared.StatAgility],
		h.Stats[shared.StatIntelligence],
		h.Stats[shared.StatVitality],
		h.Stats[shared.StatCharisma],
		h.TotalWorkouts,
		h.TotalMissionsCompleted,
		h.CurrentStreak,
		h.MaxStreak,
		dateOrNull(h.LastClearDate),
		time.Now().UTC(),
		h.ID,
		h.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update hunter: %w", err)
	}

	if result.RowsAffected() == 0 {
		exists, existsErr := r.Exists(ctx, h.ID)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			return hunter.ErrVersionConflict
		}
		return hunter.ErrNotFound
	}

	h.Version++
	return nil
}

// Delete removes a hunter profile.
func (r *HunterRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM hunters WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete hunter: %w", err)
	}

	if result.RowsAffected() == 0 {
		return hunter.ErrNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulk Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetAll returns all hunters with pagination.
func (r *HunterRepository) GetAll(ctx context.Context, opts hunter.ListOptions) ([]*hunter.Hunter, error) {
	query := fmt.Sprintf(`SELECT %s FROM hunters`, hunterColumns)
	query += r.buildOrderBy(opts)
	query += " LIMIT $1 OFFSET $2"

	rows, err := r.conn.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query hunters: %w", err)
	}
	defer rows.Close()

	return r.scanHunters(rows)
}

// GetByIDs returns hunters by a list of IDs.
func (r *HunterRepository) GetByIDs(ctx context.Context, ids []string) ([]*hunter.Hunter, error) {
	if len(ids) == 0 {
		return []*hunter.Hunter{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT %s FROM hunters WHERE id IN (%s)`,
		hunterColumns, strings.Join(placeholders, ", "))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hunters by ids: %w", err)
	}
	defer rows.Close()

	return r.scanHunters(rows)
}

// Count returns the total number of hunters.
func (r *HunterRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM hunters").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count hunters: %w", err)
	}
	return count, nil
}

// FindWithClearDateBefore finds hunters with an active streak whose last full
// clear happened strictly before the given day. The nightly rollover uses it
// to break stale streaks.
func (r *HunterRepository) FindWithClearDateBefore(ctx context.Context, day time.Time) ([]*hunter.Hunter, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	query := fmt.Sprintf(`
		SELECT %s FROM hunters
		WHERE current_streak > 0
		  AND (last_clear_date IS NULL OR last_clear_date < $1)
		ORDER BY last_clear_date ASC NULLS FIRST
	`, hunterColumns)

	rows, err := r.conn.Query(ctx, query, dayStart)
	if err != nil {
		return nil, fmt.Errorf("failed to find hunters with stale streaks: %w", err)
	}
	defer rows.Close()

	return r.scanHunters(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Existence Checks
// ─────────────────────────────────────────────────────────────────────────────

// Exists checks if a hunter exists by ID.
func (r *HunterRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM hunters WHERE id = $1)",
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check hunter existence: %w", err)
	}
	return exists, nil
}

// ExistsByEmail checks if a hunter exists by email.
func (r *HunterRepository) ExistsByEmail(ctx context.Context, email hunter.Email) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM hunters WHERE email = $1)",
		email.Normalize().String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check hunter existence by email: %w", err)
	}
	return exists, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HISTORY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// HistoryRepository implements hunter.HistoryRepository for PostgreSQL.
type HistoryRepository struct {
	conn *Connection
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(conn *Connection) *HistoryRepository {
	return &HistoryRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// XP History
// ─────────────────────────────────────────────────────────────────────────────

// SaveXPChange saves an XP change entry.
func (r *HistoryRepository) SaveXPChange(ctx context.Context, entry hunter.XPHistoryEntry) error {
	query := `
		INSERT INTO xp_history (hunter_id, delta, applied_delta, level_after, source, source_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		entry.HunterID,
		entry.Delta,
		entry.AppliedDelta,
		entry.LevelAfter,
		entry.Source,
		entry.SourceID,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save xp change: %w", err)
	}

	return nil
}

// GetXPHistory returns XP history for a hunter within a time range.
func (r *HistoryRepository) GetXPHistory(ctx context.Context, hunterID string, from, to time.Time) ([]hunter.XPHistoryEntry, error) {
	query := `
		SELECT hunter_id, delta, applied_delta, level_after, source, source_id, created_at
		FROM xp_history
		WHERE hunter_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC
	`

	rows, err := r.conn.Query(ctx, query, hunterID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get xp history: %w", err)
	}
	defer rows.Close()

	return r.scanXPHistoryEntries(rows)
}

// GetRecentXPChanges returns the most recent XP changes.
func (r *HistoryRepository) GetRecentXPChanges(ctx context.Context, hunterID string, limit int) ([]hunter.XPHistoryEntry, error) {
	query := `
		SELECT hunter_id, delta, applied_delta, level_after, source, source_id, created_at
		FROM xp_history
		WHERE hunter_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, hunterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent xp changes: %w", err)
	}
	defer rows.Close()

	return r.scanXPHistoryEntries(rows)
}

// HasXPChange reports whether an entry with the given source and source ID
// exists. Reward re-drives use this to decide whether a grant was applied.
func (r *HistoryRepository) HasXPChange(ctx context.Context, hunterID, source, sourceID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM xp_history
			WHERE hunter_id = $1 AND source = $2 AND source_id = $3
		)
	`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, hunterID, source, sourceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check xp change: %w", err)
	}

	return exists, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Stat History
// ─────────────────────────────────────────────────────────────────────────────

// SaveStatChange saves a stat change entry.
func (r *HistoryRepository) SaveStatChange(ctx context.Context, entry hunter.StatHistoryEntry) error {
	query := `
		INSERT INTO stat_history (hunter_id, stat, delta, old_value, new_value, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		entry.HunterID,
		string(entry.Stat),
		entry.Delta,
		entry.OldValue,
		entry.NewValue,
		entry.Reason,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save stat change: %w", err)
	}

	return nil
}

// GetStatHistory returns the stat journal for a hunter.
func (r *HistoryRepository) GetStatHistory(ctx context.Context, hunterID string, limit int) ([]hunter.StatHistoryEntry, error) {
	query := `
		SELECT hunter_id, stat, delta, old_value, new_value, reason, created_at
		FROM stat_history
		WHERE hunter_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, hunterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get stat history: %w", err)
	}
	defer rows.Close()

	var entries []hunter.StatHistoryEntry
	for rows.Next() {
		var entry hunter.StatHistoryEntry
		var stat string

		err := rows.Scan(
			&entry.HunterID,
			&stat,
			&entry.Delta,
			&entry.OldValue,
			&entry.NewValue,
			&entry.Reason,
			&entry.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stat history entry: %w", err)
		}

		entry.Stat = shared.StatKey(stat)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// scanHunter scans a single hunter from a row.
func (r *HunterRepository) scanHunter(row pgx.Row) (*hunter.Hunter, error) {
	var h hunter.Hunter
	var email *string
	var str, agi, intel, vit, cha int
	var lastClear *time.Time

	err := row.Scan(
		&h.ID,
		&h.Name,
		&email,
		&h.PasswordHash,
		&h.Level,
		&h.CurrentXP,
		&h.TotalXP,
		&h.AvailablePoints,
		&str,
		&agi,
		&intel,
		&vit,
		&cha,
		&h.TotalWorkouts,
		&h.TotalMissionsCompleted,
		&h.CurrentStreak,
		&h.MaxStreak,
		&lastClear,
		&h.Version,
		&h.CreatedAt,
		&h.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, hunter.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan hunter: %w", err)
	}

	if email != nil {
		h.Email = hunter.Email(*email)
	}
	if lastClear != nil {
		h.LastClearDate = *lastClear
	}
	h.Stats = hunter.Stats{
		shared.StatStrength:     str,
		shared.StatAgility:      agi,
		shared.StatIntelligence: intel,
		shared.StatVitality:     vit,
		shared.StatCharisma:     cha,
	}

	return &h, nil
}

// scanHunters scans multiple hunters from rows.
func (r *HunterRepository) scanHunters(rows pgx.Rows) ([]*hunter.Hunter, error) {
	var hunters []*hunter.Hunter

	for rows.Next() {
		var h hunter.Hunter
		var email *string
		var str, agi, intel, vit, cha int
		var lastClear *time.Time

		err := rows.Scan(
			&h.ID,
			&h.Name,
			&email,
			&h.PasswordHash,
			&h.Level,
			&h.CurrentXP,
			&h.TotalXP,
			&h.AvailablePoints,
			&str,
			&agi,
			&intel,
			&vit,
			&cha,
			&h.TotalWorkouts,
			&h.TotalMissionsCompleted,
			&h.CurrentStreak,
			&h.MaxStreak,
			&lastClear,
			&h.Version,
			&h.CreatedAt,
			&h.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hunter: %w", err)
		}

		if email != nil {
			h.Email = hunter.Email(*email)
		}
		if lastClear != nil {
			h.LastClearDate = *lastClear
		}
		h.Stats = hunter.Stats{
			shared.StatStrength:     str,
			shared.StatAgility:      agi,
			shared.StatIntelligence: intel,
			shared.StatVitality:     vit,
			shared.StatCharisma:     cha,
		}

		hunters = append(hunters, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return hunters, nil
}

// buildOrderBy builds ORDER BY clause.
func (r *HunterRepository) buildOrderBy(opts hunter.ListOptions) string {
	orderField := "total_xp"
	validFields := map[string]string{
		"total_xp":       "total_xp",
		"xp":             "total_xp",
		"level":          "level",
		"name":           "name",
		"current_streak": "current_streak",
		"streak":         "current_streak",
		"created_at":     "created_at",
	}

	if field, ok := validFields[opts.SortBy]; ok {
		orderField = field
	}

	direction := "DESC"
	if !opts.SortDesc {
		direction = "ASC"
	}

	return fmt.Sprintf(" ORDER BY %s %s", orderField, direction)
}

// scanXPHistoryEntries scans XP history entries from rows.
func (r *HistoryRepository) scanXPHistoryEntries(rows pgx.Rows) ([]hunter.XPHistoryEntry, error) {
	var entries []hunter.XPHistoryEntry
	for rows.Next() {
		var entry hunter.XPHistoryEntry

		err := rows.Scan(
			&entry.HunterID,
			&entry.Delta,
			&entry.AppliedDelta,
			&entry.LevelAfter,
			&entry.Source,
			&entry.SourceID,
			&entry.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan xp history entry: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// emailOrNull maps an empty email to NULL so the unique index only applies
// to registered profiles.
func emailOrNull(email hunter.Email) *string {
	if email == "" {
		return nil
	}
	s := email.Normalize().String()
	return &s
}

// dateOrNull maps the zero time to NULL.
func dateOrNull(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
