package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/leaderboard"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository on Redis Sorted Sets.
//
// Architecture:
//   - Sorted Set "leaderboard:alltime" stores hunterID -> TotalXP
//   - Hash "leaderboard:info" stores hunterID -> entry JSON (name, level, streak)
//
// Ranks are shared: hunters with equal TotalXP occupy the same position,
// computed as 1 + the number of hunters with strictly more XP. This keeps
// rank lookups at O(log N) while matching the domain's tie semantics.
type LeaderboardRepository struct {
	cache *Cache
}

// Key patterns for the leaderboard.
const (
	keyLeaderboardScores = "leaderboard:alltime"
	keyLeaderboardInfo   = "leaderboard:info"
)

// entryInfo is the JSON payload stored in the info hash.
type entryInfo struct {
	Name          string    `json:"name"`
	Level         int       `json:"level"`
	CurrentStreak int       `json:"current_streak"`
	RankChange    int       `json:"rank_change"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(cache *Cache) *LeaderboardRepository {
	return &LeaderboardRepository{cache: cache}
}

// ─────────────────────────────────────────────────────────────────────────────
// Write Operations
// ─────────────────────────────────────────────────────────────────────────────

// UpdateScore updates a hunter's total XP in the ranking.
// Display details stay as they were until the next rebuild.
func (l *LeaderboardRepository) UpdateScore(ctx context.Context, hunterID string, totalXP int) error {
	if hunterID == "" {
		return leaderboard.ErrInvalidHunterID
	}

	return l.cache.Client().ZAdd(ctx, keyLeaderboardScores, redis.Z{
		Score:  float64(totalXP),
		Member: hunterID,
	}).Err()
}

// Rebuild fully replaces the ranking with a new set of entries.
func (l *LeaderboardRepository) Rebuild(ctx context.Context, entries []*leaderboard.Entry) error {
	pipe := l.cache.Client().TxPipeline()

	pipe.Del(ctx, keyLeaderboardScores, keyLeaderboardInfo)

	if len(entries) > 0 {
		zMembers := make([]redis.Z, 0, len(entries))
		hashData := make(map[string]interface{}, len(entries))

		for _, entry := range entries {
			if entry == nil || entry.HunterID == "" {
				continue
			}

			zMembers = append(zMembers, redis.Z{
				Score:  float64(entry.TotalXP),
				Member: entry.HunterID,
			})

			info := entryInfo{
				Name:          entry.Name,
				Level:         entry.Level,
				CurrentStreak: entry.CurrentStreak,
				RankChange:    int(entry.RankChange),
				UpdatedAt:     entry.UpdatedAt,
			}
			data, err := json.Marshal(info)
			if err != nil {
				return fmt.Errorf("failed to marshal leaderboard entry: %w", err)
			}
			hashData[entry.HunterID] = data
		}

		if len(zMembers) > 0 {
			pipe.ZAdd(ctx, keyLeaderboardScores, zMembers...)
		}
		if len(hashData) > 0 {
			pipe.HSet(ctx, keyLeaderboardInfo, hashData)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Read Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetRank returns a hunter's position (1 = first place), 0 if not ranked.
func (l *LeaderboardRepository) GetRank(ctx context.Context, hunterID string) (leaderboard.Rank, error) {
	if hunterID == "" {
		return 0, leaderboard.ErrInvalidHunterID
	}

	score, err := l.cache.Client().ZScore(ctx, keyLeaderboardScores, hunterID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	return l.sharedRank(ctx, score)
}

// GetTop returns the top-N entries.
func (l *LeaderboardRepository) GetTop(ctx context.Context, n int) ([]*leaderboard.Entry, error) {
	if n <= 0 {
		return []*leaderboard.Entry{}, nil
	}

	members, err := l.cache.Client().ZRevRangeWithScores(ctx, keyLeaderboardScores, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	return l.buildEntries(ctx, members, 1)
}

// GetAround returns a hunter's rank neighborhood (±rangeSize), including
// the hunter themselves. Returns ErrNotRanked for unknown hunters.
func (l *LeaderboardRepository) GetAround(ctx context.Context, hunterID string, rangeSize int) ([]*leaderboard.Entry, error) {
	if hunterID == "" {
		return nil, leaderboard.ErrInvalidHunterID
	}
	if rangeSize < 0 {
		rangeSize = 0
	}

	idx, err := l.cache.Client().ZRevRank(ctx, keyLeaderboardScores, hunterID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, leaderboard.ErrNotRanked
		}
		return nil, err
	}

	start := idx - int64(rangeSize)
	if start < 0 {
		start = 0
	}
	end := idx + int64(rangeSize)

	members, err := l.cache.Client().ZRevRangeWithScores(ctx, keyLeaderboardScores, start, end).Result()
	if err != nil {
		return nil, err
	}

	return l.buildEntries(ctx, members, start+1)
}

// Count returns the number of ranked hunters.
func (l *LeaderboardRepository) Count(ctx context.Context) (int, error) {
	count, err := l.cache.Client().ZCard(ctx, keyLeaderboardScores).Result()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// sharedRank computes the tie-aware rank for a score: one plus the number
// of hunters with strictly more XP.
func (l *LeaderboardRepository) sharedRank(ctx context.Context, score float64) (leaderboard.Rank, error) {
	higher, err := l.cache.Client().ZCount(ctx, keyLeaderboardScores,
		fmt.Sprintf("(%f", score), "+inf").Result()
	if err != nil {
		return 0, err
	}
	return leaderboard.Rank(higher + 1), nil
}

// buildEntries assembles domain entries from scored members. positionBase is
// the 1-based position of the first member; ties collapse to a shared rank.
func (l *LeaderboardRepository) buildEntries(ctx context.Context, members []redis.Z, positionBase int64) ([]*leaderboard.Entry, error) {
	if len(members) == 0 {
		return []*leaderboard.Entry{}, nil
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.Member.(string)
	}

	infos, err := l.cache.Client().HMGet(ctx, keyLeaderboardInfo, ids...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*leaderboard.Entry, 0, len(members))
	for i, m := range members {
		entry := &leaderboard.Entry{
			HunterID: ids[i],
			TotalXP:  int(m.Score),
		}

		if infos[i] != nil {
			if str, ok := infos[i].(string); ok {
				var info entryInfo
				if err := json.Unmarshal([]byte(str), &info); err == nil {
					entry.Name = info.Name
					entry.Level = info.Level
					entry.CurrentStreak = info.CurrentStreak
					entry.RankChange = leaderboard.RankChange(info.RankChange)
					entry.UpdatedAt = info.UpdatedAt
				}
			}
		}

		switch {
		case i == 0:
			// The window may start mid-tie, so resolve the first rank
			// against the full set.
			rank, err := l.sharedRank(ctx, m.Score)
			if err != nil {
				return nil, err
			}
			entry.Rank = rank
		case m.Score == members[i-1].Score:
			entry.Rank = entries[i-1].Rank
		default:
			// A strictly lower score: everything above it in the full
			// set has strictly more XP.
			entry.Rank = leaderboard.Rank(positionBase + int64(i))
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
