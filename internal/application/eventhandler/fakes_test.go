package eventhandler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/achievement"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// In-memory fakes for event handler tests.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ─── hunter repository ───────────────────────────────────────────────────────

type memHunterRepo struct {
	mu      sync.Mutex
	hunters map[string]*hunter.Hunter
}

func newMemHunterRepo() *memHunterRepo {
	return &memHunterRepo{hunters: make(map[string]*hunter.Hunter)}
}

func (r *memHunterRepo) Create(ctx context.Context, h *hunter.Hunter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hunters[h.ID] = h.Clone()
	return nil
}

func (r *memHunterRepo) GetByID(ctx context.Context, id string) (*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hunters[id]
	if !ok {
		return nil, hunter.ErrNotFound
	}
	return h.Clone(), nil
}

func (r *memHunterRepo) GetByEmail(ctx context.Context, email hunter.Email) (*hunter.Hunter, error) {
	return nil, hunter.ErrNotFound
}

func (r *memHunterRepo) Update(ctx context.Context, h *hunter.Hunter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.hunters[h.ID]
	if !ok {
		return hunter.ErrNotFound
	}
	if stored.Version != h.Version {
		return hunter.ErrVersionConflict
	}
	updated := h.Clone()
	updated.Version++
	r.hunters[h.ID] = updated
	return nil
}

func (r *memHunterRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hunters, id)
	return nil
}

func (r *memHunterRepo) GetAll(ctx context.Context, opts hunter.ListOptions) ([]*hunter.Hunter, error) {
	return nil, nil
}

func (r *memHunterRepo) GetByIDs(ctx context.Context, ids []string) ([]*hunter.Hunter, error) {
	return nil, nil
}

func (r *memHunterRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hunters), nil
}

func (r *memHunterRepo) FindWithClearDateBefore(ctx context.Context, day time.Time) ([]*hunter.Hunter, error) {
	return nil, nil
}

func (r *memHunterRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.hunters[id]
	return ok, nil
}

func (r *memHunterRepo) ExistsByEmail(ctx context.Context, email hunter.Email) (bool, error) {
	return false, nil
}

// ─── raid repository ─────────────────────────────────────────────────────────

// memRaidRepo guards the active -> completed transition the way the
// Postgres implementation does: a second completing update loses the race.
type memRaidRepo struct {
	mu    sync.Mutex
	raids map[string]*raid.Raid
}

func newMemRaidRepo() *memRaidRepo {
	return &memRaidRepo{raids: make(map[string]*raid.Raid)}
}

func (r *memRaidRepo) CreateBatch(ctx context.Context, raids []*raid.Raid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rd := range raids {
		r.raids[rd.ID] = rd
	}
	return nil
}

func (r *memRaidRepo) GetByID(ctx context.Context, id string) (*raid.Raid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd, ok := r.raids[id]
	if !ok {
		return nil, raid.ErrNotFound
	}
	cp := *rd
	return &cp, nil
}

func (r *memRaidRepo) GetActive(ctx context.Context, hunterID string) ([]*raid.Raid, error) {
	return r.filter(hunterID, func(rd *raid.Raid) bool {
		return rd.Status == raid.StatusActive
	}), nil
}

func (r *memRaidRepo) GetActiveByType(ctx context.Context, hunterID string, bossType raid.BossType) ([]*raid.Raid, error) {
	return r.filter(hunterID, func(rd *raid.Raid) bool {
		return rd.Status == raid.StatusActive && rd.BossType == bossType
	}), nil
}

func (r *memRaidRepo) GetAll(ctx context.Context, hunterID string) ([]*raid.Raid, error) {
	return r.filter(hunterID, func(*raid.Raid) bool { return true }), nil
}

func (r *memRaidRepo) Update(ctx context.Context, rd *raid.Raid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.raids[rd.ID]
	if !ok {
		return raid.ErrNotFound
	}
	if stored.Status == raid.StatusCompleted && rd.Status == raid.StatusCompleted {
		return raid.ErrAlreadyCompleted
	}
	r.raids[rd.ID] = rd
	return nil
}

func (r *memRaidRepo) filter(hunterID string, keep func(*raid.Raid) bool) []*raid.Raid {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*raid.Raid
	for _, rd := range r.raids {
		if rd.HunterID == hunterID && keep(rd) {
			cp := *rd
			out = append(out, &cp)
		}
	}
	return out
}

// ─── achievement repository ──────────────────────────────────────────────────

type memAchievementRepo struct {
	mu       sync.Mutex
	byHunter map[string]map[string]*achievement.Achievement
}

func newMemAchievementRepo() *memAchievementRepo {
	return &memAchievementRepo{byHunter: make(map[string]map[string]*achievement.Achievement)}
}

func (r *memAchievementRepo) SaveIfAbsent(ctx context.Context, a *achievement.Achievement) (bool, error) {
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

func (r *memAchievementRepo) GetByHunter(ctx context.Context, hunterID string) ([]*achievement.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*achievement.Achievement
	for _, a := range r.byHunter[hunterID] {
		out = append(out, a)
	}
	return out, nil
}

func (r *memAchievementRepo) GetUnlockedKeys(ctx context.Context, hunterID string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(r.byHunter[hunterID]))
	for key := range r.byHunter[hunterID] {
		out[key] = true
	}
	return out, nil
}

func (r *memAchievementRepo) Has(ctx context.Context, hunterID, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byHunter[hunterID][key]
	return ok, nil
}

func (r *memAchievementRepo) GetRecent(ctx context.Context, hunterID string, limit int) ([]*achievement.Achievement, error) {
	return r.GetByHunter(ctx, hunterID)
}

func (r *memAchievementRepo) GetUnlockedSince(ctx context.Context, since time.Time, limit int) ([]*achievement.Achievement, error) {
	return nil, nil
}

// ─── history repository ──────────────────────────────────────────────────────

type memHistoryRepo struct {
	mu          sync.Mutex
	xpChanges   []hunter.XPHistoryEntry
	statChanges []hunter.StatHistoryEntry
}

func (r *memHistoryRepo) SaveXPChange(ctx context.Context, entry hunter.XPHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.xpChanges = append(r.xpChanges, entry)
	return nil
}

func (r *memHistoryRepo) GetXPHistory(ctx context.Context, hunterID string, from, to time.Time) ([]hunter.XPHistoryEntry, error) {
	return nil, nil
}

func (r *memHistoryRepo) GetRecentXPChanges(ctx context.Context, hunterID string, limit int) ([]hunter.XPHistoryEntry, error) {
	return nil, nil
}

func (r *memHistoryRepo) HasXPChange(ctx context.Context, hunterID, source, sourceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.xpChanges {
		if e.HunterID == hunterID && e.Source == source && e.SourceID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memHistoryRepo) SaveStatChange(ctx context.Context, entry hunter.StatHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statChanges = append(r.statChanges, entry)
	return nil
}

func (r *memHistoryRepo) GetStatHistory(ctx context.Context, hunterID string, limit int) ([]hunter.StatHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]hunter.StatHistoryEntry(nil), r.statChanges...), nil
}

// ─── event publisher ─────────────────────────────────────────────────────────

type memPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *memPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *memPublisher) ofType(t shared.EventType) []shared.Event {
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

type seqIDGen struct {
	mu   sync.Mutex
	next int
}

func (g *seqIDGen) GenerateID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("eh-id-%04d", g.next)
}
