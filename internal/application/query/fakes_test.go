package query

import (
	"context"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/achievement"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/activity"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/leaderboard"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/mission"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// Read-only fakes for the query handler tests. Queries never mutate, so
// these skip the locking the command-side fakes carry.

type stubHunterRepo struct {
	hunters map[string]*hunter.Hunter
}

func newStubHunterRepo(hunters ...*hunter.Hunter) *stubHunterRepo {
	r := &stubHunterRepo{hunters: make(map[string]*hunter.Hunter)}
	for _, h := range hunters {
		r.hunters[h.ID] = h
	}
	return r
}

func (r *stubHunterRepo) Create(_ context.Context, _ *hunter.Hunter) error { return nil }

func (r *stubHunterRepo) GetByID(_ context.Context, id string) (*hunter.Hunter, error) {
	if h, ok := r.hunters[id]; ok {
		return h.Clone(), nil
	}
	return nil, hunter.ErrNotFound
}

func (r *stubHunterRepo) GetByEmail(_ context.Context, _ hunter.Email) (*hunter.Hunter, error) {
	return nil, hunter.ErrNotFound
}

func (r *stubHunterRepo) Update(_ context.Context, _ *hunter.Hunter) error { return nil }
func (r *stubHunterRepo) Delete(_ context.Context, _ string) error         { return nil }

func (r *stubHunterRepo) GetAll(_ context.Context, _ hunter.ListOptions) ([]*hunter.Hunter, error) {
	return nil, nil
}

func (r *stubHunterRepo) GetByIDs(_ context.Context, _ []string) ([]*hunter.Hunter, error) {
	return nil, nil
}

func (r *stubHunterRepo) Count(_ context.Context) (int, error) { return len(r.hunters), nil }

func (r *stubHunterRepo) FindWithClearDateBefore(_ context.Context, _ time.Time) ([]*hunter.Hunter, error) {
	return nil, nil
}

func (r *stubHunterRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := r.hunters[id]
	return ok, nil
}

func (r *stubHunterRepo) ExistsByEmail(_ context.Context, _ hunter.Email) (bool, error) {
	return false, nil
}

type stubMissionRepo struct {
	missions []*mission.Mission
}

func (r *stubMissionRepo) CreateBatch(_ context.Context, _ []*mission.Mission) error { return nil }

func (r *stubMissionRepo) GetByID(_ context.Context, _ string) (*mission.Mission, error) {
	return nil, mission.ErrNotFound
}

func (r *stubMissionRepo) GetByKey(_ context.Context, _, _ string, _ time.Time) (*mission.Mission, error) {
	return nil, mission.ErrNotFound
}

func (r *stubMissionRepo) GetDaily(_ context.Context, hunterID string, date time.Time) ([]*mission.Mission, error) {
	day := shared.DayOf(date)
	var out []*mission.Mission
	for _, m := range r.missions {
		if m.HunterID == hunterID && day.Contains(m.Date) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubMissionRepo) Update(_ context.Context, _ *mission.Mission) error { return nil }

func (r *stubMissionRepo) ExpirePending(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (r *stubMissionRepo) CountCompleted(_ context.Context, _ string, _ time.Time) (int, error) {
	return 0, nil
}

type stubRaidRepo struct {
	raids []*raid.Raid
}

func (r *stubRaidRepo) CreateBatch(_ context.Context, _ []*raid.Raid) error { return nil }

func (r *stubRaidRepo) GetByID(_ context.Context, _ string) (*raid.Raid, error) {
	return nil, raid.ErrNotFound
}

func (r *stubRaidRepo) GetActive(_ context.Context, hunterID string) ([]*raid.Raid, error) {
	var out []*raid.Raid
	for _, rd := range r.raids {
		if rd.HunterID == hunterID {
			out = append(out, rd)
		}
	}
	return out, nil
}

func (r *stubRaidRepo) GetActiveByType(_ context.Context, _ string, _ raid.BossType) ([]*raid.Raid, error) {
	return nil, nil
}

func (r *stubRaidRepo) GetAll(_ context.Context, _ string) ([]*raid.Raid, error) {
	return r.raids, nil
}

func (r *stubRaidRepo) Update(_ context.Context, _ *raid.Raid) error { return nil }

type stubActivityRepo struct {
	hydrationML int
}

func (r *stubActivityRepo) SaveWorkout(_ context.Context, _ activity.WorkoutEntry) error { return nil }

func (r *stubActivityRepo) GetWorkouts(_ context.Context, _ string, _, _ time.Time) ([]activity.WorkoutEntry, error) {
	return nil, nil
}

func (r *stubActivityRepo) CountWorkouts(_ context.Context, _ string) (int, error) { return 0, nil }

func (r *stubActivityRepo) SaveNutrition(_ context.Context, _ activity.NutritionEntry) error {
	return nil
}

func (r *stubActivityRepo) GetNutrition(_ context.Context, _ string, _, _ time.Time) ([]activity.NutritionEntry, error) {
	return nil, nil
}

func (r *stubActivityRepo) SaveHydration(_ context.Context, _ activity.HydrationEntry) error {
	return nil
}

func (r *stubActivityRepo) SumHydration(_ context.Context, _ string, _, _ time.Time) (int, error) {
	return r.hydrationML, nil
}

func (r *stubActivityRepo) SaveVoiceCommand(_ context.Context, _ activity.VoiceCommandEntry) error {
	return nil
}

func (r *stubActivityRepo) GetVoiceCommands(_ context.Context, _ string, _ int) ([]activity.VoiceCommandEntry, error) {
	return nil, nil
}

type stubLeaderboard struct {
	top   []*leaderboard.Entry
	ranks map[string]leaderboard.Rank

	around []*leaderboard.Entry
}

func (l *stubLeaderboard) UpdateScore(_ context.Context, _ string, _ int) error { return nil }

func (l *stubLeaderboard) GetRank(_ context.Context, hunterID string) (leaderboard.Rank, error) {
	if rank, ok := l.ranks[hunterID]; ok {
		return rank, nil
	}
	return 0, leaderboard.ErrNotRanked
}

func (l *stubLeaderboard) GetTop(_ context.Context, n int) ([]*leaderboard.Entry, error) {
	if n > len(l.top) {
		n = len(l.top)
	}
	return l.top[:n], nil
}

func (l *stubLeaderboard) GetAround(_ context.Context, _ string, _ int) ([]*leaderboard.Entry, error) {
	return l.around, nil
}

func (l *stubLeaderboard) Rebuild(_ context.Context, _ []*leaderboard.Entry) error { return nil }

func (l *stubLeaderboard) Count(_ context.Context) (int, error) { return len(l.top), nil }

type stubAchievementRepo struct {
	recent []*achievement.Achievement
}

func (r *stubAchievementRepo) SaveIfAbsent(_ context.Context, _ *achievement.Achievement) (bool, error) {
	return false, nil
}

func (r *stubAchievementRepo) GetByHunter(_ context.Context, _ string) ([]*achievement.Achievement, error) {
	return nil, nil
}

func (r *stubAchievementRepo) GetUnlockedKeys(_ context.Context, _ string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func (r *stubAchievementRepo) Has(_ context.Context, _, _ string) (bool, error) { return false, nil }

func (r *stubAchievementRepo) GetRecent(_ context.Context, _ string, limit int) ([]*achievement.Achievement, error) {
	if limit > len(r.recent) {
		limit = len(r.recent)
	}
	return r.recent[:limit], nil
}

func (r *stubAchievementRepo) GetUnlockedSince(_ context.Context, _ time.Time, _ int) ([]*achievement.Achievement, error) {
	return nil, nil
}

// stubHunterCache counts hits and misses so tests can assert the
// read-through path.
type stubHunterCache struct {
	cached map[string]*hunter.Hunter

	gets int
	sets int
}

func newStubHunterCache() *stubHunterCache {
	return &stubHunterCache{cached: make(map[string]*hunter.Hunter)}
}

func (c *stubHunterCache) Get(_ context.Context, hunterID string) (*hunter.Hunter, error) {
	c.gets++
	if h, ok := c.cached[hunterID]; ok {
		return h.Clone(), nil
	}
	return nil, hunter.ErrNotFound
}

func (c *stubHunterCache) Set(_ context.Context, h *hunter.Hunter, _ time.Duration) error {
	c.sets++
	c.cached[h.ID] = h.Clone()
	return nil
}

func (c *stubHunterCache) Delete(_ context.Context, hunterID string) error {
	delete(c.cached, hunterID)
	return nil
}

func (c *stubHunterCache) Invalidate(_ context.Context, hunterID string) error {
	delete(c.cached, hunterID)
	return nil
}
