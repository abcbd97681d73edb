package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/leaderboard"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/mission"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// In-memory fakes shared by the job tests. The hunter repo keeps a stable
// insertion order so paging assertions are deterministic.

type fakeHunterRepo struct {
	mu      sync.Mutex
	order   []string
	hunters map[string]*hunter.Hunter

	getAllCalls int
}

func newFakeHunterRepo(hunters ...*hunter.Hunter) *fakeHunterRepo {
	r := &fakeHunterRepo{hunters: make(map[string]*hunter.Hunter)}
	for _, h := range hunters {
		r.order = append(r.order, h.ID)
		r.hunters[h.ID] = h.Clone()
	}
	return r
}

func (r *fakeHunterRepo) Create(_ context.Context, h *hunter.Hunter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hunters[h.ID]; ok {
		return hunter.ErrAlreadyExists
	}
	r.order = append(r.order, h.ID)
	r.hunters[h.ID] = h.Clone()
	return nil
}

func (r *fakeHunterRepo) GetByID(_ context.Context, id string) (*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hunters[id]
	if !ok {
		return nil, hunter.ErrNotFound
	}
	return h.Clone(), nil
}

func (r *fakeHunterRepo) GetByEmail(_ context.Context, email hunter.Email) (*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hunters {
		if h.Email == email {
			return h.Clone(), nil
		}
	}
	return nil, hunter.ErrNotFound
}

func (r *fakeHunterRepo) Update(_ context.Context, h *hunter.Hunter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.hunters[h.ID]
	if !ok {
		return hunter.ErrNotFound
	}
	if stored.Version != h.Version {
		return hunter.ErrVersionConflict
	}
	h.Version++
	r.hunters[h.ID] = h.Clone()
	return nil
}

func (r *fakeHunterRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hunters[id]; !ok {
		return hunter.ErrNotFound
	}
	delete(r.hunters, id)
	for i, stored := range r.order {
		if stored == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeHunterRepo) GetAll(_ context.Context, opts hunter.ListOptions) ([]*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getAllCalls++

	if opts.Offset >= len(r.order) {
		return nil, nil
	}
	end := opts.Offset + opts.Limit
	if opts.Limit <= 0 || end > len(r.order) {
		end = len(r.order)
	}

	out := make([]*hunter.Hunter, 0, end-opts.Offset)
	for _, id := range r.order[opts.Offset:end] {
		out = append(out, r.hunters[id].Clone())
	}
	return out, nil
}

func (r *fakeHunterRepo) GetByIDs(_ context.Context, ids []string) ([]*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*hunter.Hunter, 0, len(ids))
	for _, id := range ids {
		if h, ok := r.hunters[id]; ok {
			out = append(out, h.Clone())
		}
	}
	return out, nil
}

func (r *fakeHunterRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order), nil
}

func (r *fakeHunterRepo) FindWithClearDateBefore(_ context.Context, day time.Time) ([]*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*hunter.Hunter
	for _, id := range r.order {
		h := r.hunters[id]
		if h.CurrentStreak > 0 && h.LastClearDate.Before(day) {
			out = append(out, h.Clone())
		}
	}
	return out, nil
}

func (r *fakeHunterRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.hunters[id]
	return ok, nil
}

func (r *fakeHunterRepo) ExistsByEmail(_ context.Context, email hunter.Email) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hunters {
		if h.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeMissionRepo struct {
	mu       sync.Mutex
	missions []*mission.Mission
}

func newFakeMissionRepo(missions ...*mission.Mission) *fakeMissionRepo {
	return &fakeMissionRepo{missions: missions}
}

// CreateBatch mirrors the postgres repository: existing (hunter, key, date)
// rows are silently skipped.
func (r *fakeMissionRepo) CreateBatch(_ context.Context, missions []*mission.Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range missions {
		if r.find(m.HunterID, m.Key, m.Date) != nil {
			continue
		}
		r.missions = append(r.missions, m)
	}
	return nil
}

func (r *fakeMissionRepo) find(hunterID, key string, date time.Time) *mission.Mission {
	day := shared.DayOf(date)
	for _, m := range r.missions {
		if m.HunterID == hunterID && m.Key == key && day.Contains(m.Date) {
			return m
		}
	}
	return nil
}

func (r *fakeMissionRepo) GetByID(_ context.Context, id string) (*mission.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.missions {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, mission.ErrNotFound
}

func (r *fakeMissionRepo) GetByKey(_ context.Context, hunterID, key string, date time.Time) (*mission.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.find(hunterID, key, date); m != nil {
		return m, nil
	}
	return nil, mission.ErrNotFound
}

func (r *fakeMissionRepo) GetDaily(_ context.Context, hunterID string, date time.Time) ([]*mission.Mission, error) {
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

func (r *fakeMissionRepo) Update(_ context.Context, updated *mission.Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.missions {
		if m.ID == updated.ID {
			r.missions[i] = updated
			return nil
		}
	}
	return mission.ErrNotFound
}

func (r *fakeMissionRepo) ExpirePending(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.missions {
		if m.Status == mission.StatusPending && m.Date.Before(before) {
			m.Status = mission.StatusExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeMissionRepo) CountCompleted(_ context.Context, hunterID string, date time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := shared.DayOf(date)
	n := 0
	for _, m := range r.missions {
		if m.HunterID == hunterID && day.Contains(m.Date) && m.Status == mission.StatusCompleted {
			n++
		}
	}
	return n, nil
}

type fakeHistoryRepo struct {
	mu        sync.Mutex
	xpEntries []hunter.XPHistoryEntry
}

func (r *fakeHistoryRepo) SaveXPChange(_ context.Context, e hunter.XPHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.xpEntries = append(r.xpEntries, e)
	return nil
}

func (r *fakeHistoryRepo) GetXPHistory(_ context.Context, hunterID string, from, to time.Time) ([]hunter.XPHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []hunter.XPHistoryEntry
	for _, e := range r.xpEntries {
		if e.HunterID == hunterID && !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) GetRecentXPChanges(_ context.Context, hunterID string, limit int) ([]hunter.XPHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []hunter.XPHistoryEntry
	for i := len(r.xpEntries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.xpEntries[i].HunterID == hunterID {
			out = append(out, r.xpEntries[i])
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) HasXPChange(_ context.Context, hunterID, source, sourceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.xpEntries {
		if e.HunterID == hunterID && e.Source == source && e.SourceID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeHistoryRepo) SaveStatChange(_ context.Context, e hunter.StatHistoryEntry) error {
	return nil
}

func (r *fakeHistoryRepo) GetStatHistory(_ context.Context, hunterID string, limit int) ([]hunter.StatHistoryEntry, error) {
	return nil, nil
}

func (r *fakeHistoryRepo) bySource(source string) []hunter.XPHistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []hunter.XPHistoryEntry
	for _, e := range r.xpEntries {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}

type fakeLeaderboard struct {
	mu      sync.Mutex
	entries []*leaderboard.Entry
}

func (l *fakeLeaderboard) UpdateScore(_ context.Context, hunterID string, totalXP int) error {
	return nil
}

func (l *fakeLeaderboard) GetRank(_ context.Context, hunterID string) (leaderboard.Rank, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.HunterID == hunterID {
			return e.Rank, nil
		}
	}
	return 0, leaderboard.ErrNotRanked
}

func (l *fakeLeaderboard) GetTop(_ context.Context, n int) ([]*leaderboard.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > len(l.entries) {
		n = len(l.entries)
	}
	return l.entries[:n], nil
}

func (l *fakeLeaderboard) GetAround(_ context.Context, hunterID string, rangeSize int) ([]*leaderboard.Entry, error) {
	return nil, nil
}

func (l *fakeLeaderboard) Rebuild(_ context.Context, entries []*leaderboard.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	return nil
}

func (l *fakeLeaderboard) Count(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries), nil
}

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

func (p *fakePublisher) ofType(eventType shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) GenerateID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%04d", g.n)
}
