package saga

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/achievement"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/mission"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// In-memory fakes for saga tests.

var (
	_ hunter.Repository      = (*fakeHunterRepo)(nil)
	_ raid.Repository        = (*fakeRaidRepo)(nil)
	_ mission.Repository     = (*fakeMissionRepo)(nil)
	_ achievement.Repository = (*fakeAchievementRepo)(nil)
	_ shared.EventPublisher  = (*fakePublisher)(nil)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ─── hunter repository ───────────────────────────────────────────────────────

type fakeHunterRepo struct {
	mu      sync.Mutex
	hunters map[string]*hunter.Hunter
}

func newFakeHunterRepo() *fakeHunterRepo {
	return &fakeHunterRepo{hunters: make(map[string]*hunter.Hunter)}
}

func (r *fakeHunterRepo) Create(ctx context.Context, h *hunter.Hunter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hunters[h.ID] = h
	return nil
}

func (r *fakeHunterRepo) GetByID(ctx context.Context, id string) (*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hunters[id]
	if !ok {
		return nil, hunter.ErrNotFound
	}
	return h, nil
}

func (r *fakeHunterRepo) GetByEmail(ctx context.Context, email hunter.Email) (*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hunters {
		if h.Email.Normalize() == email.Normalize() {
			return h, nil
		}
	}
	return nil, hunter.ErrNotFound
}

func (r *fakeHunterRepo) Update(ctx context.Context, h *hunter.Hunter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hunters[h.ID]; !ok {
		return hunter.ErrNotFound
	}
	r.hunters[h.ID] = h
	return nil
}

func (r *fakeHunterRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hunters, id)
	return nil
}

func (r *fakeHunterRepo) GetAll(ctx context.Context, opts hunter.ListOptions) ([]*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*hunter.Hunter, 0, len(r.hunters))
	for _, h := range r.hunters {
		out = append(out, h)
	}
	return out, nil
}

func (r *fakeHunterRepo) GetByIDs(ctx context.Context, ids []string) ([]*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*hunter.Hunter
	for _, id := range ids {
		if h, ok := r.hunters[id]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeHunterRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hunters), nil
}

func (r *fakeHunterRepo) FindWithClearDateBefore(ctx context.Context, day time.Time) ([]*hunter.Hunter, error) {
	return nil, nil
}

func (r *fakeHunterRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.hunters[id]
	return ok, nil
}

func (r *fakeHunterRepo) ExistsByEmail(ctx context.Context, email hunter.Email) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == hunter.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

// ─── raid repository ─────────────────────────────────────────────────────────

type fakeRaidRepo struct {
	mu        sync.Mutex
	raids     map[string]*raid.Raid
	createErr error
}

func newFakeRaidRepo() *fakeRaidRepo {
	return &fakeRaidRepo{raids: make(map[string]*raid.Raid)}
}

func (r *fakeRaidRepo) CreateBatch(ctx context.Context, raids []*raid.Raid) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rd := range raids {
		r.raids[rd.ID] = rd
	}
	return nil
}

func (r *fakeRaidRepo) GetByID(ctx context.Context, id string) (*raid.Raid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd, ok := r.raids[id]
	if !ok {
		return nil, raid.ErrNotFound
	}
	return rd, nil
}

func (r *fakeRaidRepo) GetActive(ctx context.Context, hunterID string) ([]*raid.Raid, error) {
	return r.filter(hunterID, func(rd *raid.Raid) bool {
		return rd.Status == raid.StatusActive
	}), nil
}

func (r *fakeRaidRepo) GetActiveByType(ctx context.Context, hunterID string, bossType raid.BossType) ([]*raid.Raid, error) {
	return r.filter(hunterID, func(rd *raid.Raid) bool {
		return rd.Status == raid.StatusActive && rd.BossType == bossType
	}), nil
}

func (r *fakeRaidRepo) GetAll(ctx context.Context, hunterID string) ([]*raid.Raid, error) {
	return r.filter(hunterID, func(*raid.Raid) bool { return true }), nil
}

func (r *fakeRaidRepo) Update(ctx context.Context, rd *raid.Raid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.raids[rd.ID]; !ok {
		return raid.ErrNotFound
	}
	r.raids[rd.ID] = rd
	return nil
}

func (r *fakeRaidRepo) filter(hunterID string, keep func(*raid.Raid) bool) []*raid.Raid {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*raid.Raid
	for _, rd := range r.raids {
		if rd.HunterID == hunterID && keep(rd) {
			out = append(out, rd)
		}
	}
	return out
}

// ─── mission repository ──────────────────────────────────────────────────────

type fakeMissionRepo struct {
	mu        sync.Mutex
	missions  map[string]*mission.Mission
	createErr error
}

func newFakeMissionRepo() *fakeMissionRepo {
	return &fakeMissionRepo{missions: make(map[string]*mission.Mission)}
}

func (r *fakeMissionRepo) CreateBatch(ctx context.Context, missions []*mission.Mission) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range missions {
		r.missions[m.ID] = m
	}
	return nil
}

func (r *fakeMissionRepo) GetByID(ctx context.Context, id string) (*mission.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[id]
	if !ok {
		return nil, mission.ErrNotFound
	}
	return m, nil
}

func (r *fakeMissionRepo) GetByKey(ctx context.Context, hunterID, key string, date time.Time) (*mission.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := shared.DayOf(date)
	for _, m := range r.missions {
		if m.HunterID == hunterID && m.Key == key && day.Contains(m.Date) {
			return m, nil
		}
	}
	return nil, mission.ErrNotFound
}

func (r *fakeMissionRepo) GetDaily(ctx context.Context, hunterID string, date time.Time) ([]*mission.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := shared.DayOf(date)
	var out []*mission.Mission
	for _, m := range r.missions {
		if m.HunterID == hunterID && day.Contains(m.Date) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMissionRepo) Update(ctx context.Context, m *mission.Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.missions[m.ID]; !ok {
		return mission.ErrNotFound
	}
	r.missions[m.ID] = m
	return nil
}

func (r *fakeMissionRepo) ExpirePending(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

func (r *fakeMissionRepo) CountCompleted(ctx context.Context, hunterID string, date time.Time) (int, error) {
	daily, _ := r.GetDaily(ctx, hunterID, date)
	n := 0
	for _, m := range daily {
		if m.Status == mission.StatusCompleted {
			n++
		}
	}
	return n, nil
}

// ─── achievement repository ──────────────────────────────────────────────────

type fakeAchievementRepo struct {
	mu       sync.Mutex
	byHunter map[string]map[string]*achievement.Achievement
}

func newFakeAchievementRepo() *fakeAchievementRepo {
	return &fakeAchievementRepo{byHunter: make(map[string]map[string]*achievement.Achievement)}
}

func (r *fakeAchievementRepo) SaveIfAbsent(ctx context.Context, a *achievement.Achievement) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys, ok := r.byHunter[a.HunterID]
	if !ok {
		keys = make(map[string]*achievement.Achievement)
		r.byHunter[a.HunterID] = keys
	}
	if _, exists := keys[a.Key]; exists {
		return false, nil
	}
	keys[a.Key] = a
	return true, nil
}

func (r *fakeAchievementRepo) GetByHunter(ctx context.Context, hunterID string) ([]*achievement.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*achievement.Achievement
	for _, a := range r.byHunter[hunterID] {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAchievementRepo) GetUnlockedKeys(ctx context.Context, hunterID string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(r.byHunter[hunterID]))
	for key := range r.byHunter[hunterID] {
		out[key] = true
	}
	return out, nil
}

func (r *fakeAchievementRepo) Has(ctx context.Context, hunterID, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byHunter[hunterID][key]
	return ok, nil
}

func (r *fakeAchievementRepo) GetRecent(ctx context.Context, hunterID string, limit int) ([]*achievement.Achievement, error) {
	return r.GetByHunter(ctx, hunterID)
}

func (r *fakeAchievementRepo) GetUnlockedSince(ctx context.Context, since time.Time, limit int) ([]*achievement.Achievement, error) {
	return nil, nil
}

// ─── event publisher ─────────────────────────────────────────────────────────

type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) ofType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

// ─── id generator ────────────────────────────────────────────────────────────

type fakeIDGen struct {
	mu   sync.Mutex
	next int
}

func (g *fakeIDGen) GenerateID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("saga-id-%04d", g.next)
}
