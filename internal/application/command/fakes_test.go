package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/activity"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/leaderboard"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/mission"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// In-memory fakes shared by command handler tests.

type memHunterRepo struct {
	mu      sync.Mutex
	hunters map[string]*hunter.Hunter

	// conflicts makes the next N Update calls fail with ErrVersionConflict.
	conflicts int
}

func newMemHunterRepo(hunters ...*hunter.Hunter) *memHunterRepo {
	r := &memHunterRepo{hunters: make(map[string]*hunter.Hunter)}
	for _, h := range hunters {
		r.hunters[h.ID] = h.Clone()
	}
	return r
}

func (r *memHunterRepo) Create(_ context.Context, h *hunter.Hunter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hunters[h.ID]; ok {
		return hunter.ErrAlreadyExists
	}
	r.hunters[h.ID] = h.Clone()
	return nil
}

func (r *memHunterRepo) GetByID(_ context.Context, id string) (*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hunters[id]
	if !ok {
		return nil, hunter.ErrNotFound
	}
	return h.Clone(), nil
}

func (r *memHunterRepo) GetByEmail(_ context.Context, email hunter.Email) (*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hunters {
		if h.Email == email {
			return h.Clone(), nil
		}
	}
	return nil, hunter.ErrNotFound
}

func (r *memHunterRepo) Update(_ context.Context, h *hunter.Hunter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts > 0 {
		r.conflicts--
		return hunter.ErrVersionConflict
	}
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

func (r *memHunterRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hunters[id]; !ok {
		return hunter.ErrNotFound
	}
	delete(r.hunters, id)
	return nil
}

func (r *memHunterRepo) GetAll(_ context.Context, _ hunter.ListOptions) ([]*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*hunter.Hunter, 0, len(r.hunters))
	for _, h := range r.hunters {
		out = append(out, h.Clone())
	}
	return out, nil
}

func (r *memHunterRepo) GetByIDs(_ context.Context, ids []string) ([]*hunter.Hunter, error) {
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

func (r *memHunterRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hunters), nil
}

func (r *memHunterRepo) FindWithClearDateBefore(_ context.Context, day time.Time) ([]*hunter.Hunter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*hunter.Hunter
	for _, h := range r.hunters {
		if h.CurrentStreak > 0 && h.LastClearDate.Before(day) {
			out = append(out, h.Clone())
		}
	}
	return out, nil
}

func (r *memHunterRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.hunters[id]
	return ok, nil
}

func (r *memHunterRepo) ExistsByEmail(_ context.Context, email hunter.Email) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hunters {
		if h.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type memMissionRepo struct {
	mu       sync.Mutex
	missions map[string]*mission.Mission
}

func newMemMissionRepo(missions ...*mission.Mission) *memMissionRepo {
	r := &memMissionRepo{missions: make(map[string]*mission.Mission)}
	for _, m := range missions {
		cp := *m
		r.missions[m.ID] = &cp
	}
	return r
}

func (r *memMissionRepo) CreateBatch(_ context.Context, missions []*mission.Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range missions {
		exists := false
		for _, stored := range r.missions {
			if stored.HunterID == m.HunterID && stored.Key == m.Key && stored.Date.Equal(m.Date) {
				exists = true
				break
			}
		}
		if !exists {
			cp := *m
			r.missions[m.ID] = &cp
		}
	}
	return nil
}

func (r *memMissionRepo) GetByID(_ context.Context, id string) (*mission.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[id]
	if !ok {
		return nil, mission.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMissionRepo) GetByKey(_ context.Context, hunterID, key string, date time.Time) (*mission.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.missions {
		if m.HunterID == hunterID && m.Key == key && m.Date.Equal(date) {
			cp := *m
			return &cp, nil
		}
	}
	return nil, mission.ErrNotFound
}

func (r *memMissionRepo) GetDaily(_ context.Context, hunterID string, date time.Time) ([]*mission.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*mission.Mission
	for _, m := range r.missions {
		if m.HunterID == hunterID && m.Date.Equal(date) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMissionRepo) Update(_ context.Context, m *mission.Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.missions[m.ID]
	if !ok {
		return mission.ErrNotFound
	}
	// Completion is a one-way transition. A second writer that also
	// observed pending loses.
	if stored.Status == mission.StatusCompleted && m.Status == mission.StatusCompleted {
		return mission.ErrAlreadyCompleted
	}
	cp := *m
	r.missions[m.ID] = &cp
	return nil
}

func (r *memMissionRepo) ExpirePending(_ context.Context, before time.Time) (int, error) {
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

func (r *memMissionRepo) CountCompleted(_ context.Context, hunterID string, date time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.missions {
		if m.HunterID == hunterID && m.Date.Equal(date) && m.Status == mission.StatusCompleted {
			n++
		}
	}
	return n, nil
}

type memActivityRepo struct {
	mu        sync.Mutex
	workouts  []activity.WorkoutEntry
	meals     []activity.NutritionEntry
	hydration []activity.HydrationEntry
	voice     []activity.VoiceCommandEntry
}

func (r *memActivityRepo) SaveWorkout(_ context.Context, e activity.WorkoutEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workouts = append(r.workouts, e)
	return nil
}

func (r *memActivityRepo) GetWorkouts(_ context.Context, hunterID string, from, to time.Time) ([]activity.WorkoutEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []activity.WorkoutEntry
	for _, e := range r.workouts {
		if e.HunterID == hunterID && !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memActivityRepo) CountWorkouts(_ context.Context, hunterID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.workouts {
		if e.HunterID == hunterID {
			n++
		}
	}
	return n, nil
}

func (r *memActivityRepo) SaveNutrition(_ context.Context, e activity.NutritionEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meals = append(r.meals, e)
	return nil
}

func (r *memActivityRepo) GetNutrition(_ context.Context, hunterID string, from, to time.Time) ([]activity.NutritionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []activity.NutritionEntry
	for _, e := range r.meals {
		if e.HunterID == hunterID && !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memActivityRepo) SaveHydration(_ context.Context, e activity.HydrationEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hydration = append(r.hydration, e)
	return nil
}

func (r *memActivityRepo) SumHydration(_ context.Context, hunterID string, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, e := range r.hydration {
		if e.HunterID == hunterID && !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			sum += e.AmountML
		}
	}
	return sum, nil
}

func (r *memActivityRepo) SaveVoiceCommand(_ context.Context, e activity.VoiceCommandEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voice = append(r.voice, e)
	return nil
}

func (r *memActivityRepo) GetVoiceCommands(_ context.Context, hunterID string, limit int) ([]activity.VoiceCommandEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []activity.VoiceCommandEntry
	for i := len(r.voice) - 1; i >= 0 && len(out) < limit; i-- {
		if r.voice[i].HunterID == hunterID {
			out = append(out, r.voice[i])
		}
	}
	return out, nil
}

type memDedup struct {
	mu     sync.Mutex
	claims map[string]bool
}

func newMemDedup() *memDedup {
	return &memDedup{claims: make(map[string]bool)}
}

func (d *memDedup) Claim(_ context.Context, hunterID, requestID string, _ time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := hunterID + ":" + requestID
	if d.claims[key] {
		return false, nil
	}
	d.claims[key] = true
	return true, nil
}

func (d *memDedup) Release(_ context.Context, hunterID, requestID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claims, hunterID+":"+requestID)
	return nil
}

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

func (p *memPublisher) ofType(eventType shared.EventType) []shared.Event {
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

type memHistoryRepo struct {
	mu         sync.Mutex
	xpEntries  []hunter.XPHistoryEntry
	statEvents []hunter.StatHistoryEntry
}

func (r *memHistoryRepo) SaveXPChange(_ context.Context, e hunter.XPHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.xpEntries = append(r.xpEntries, e)
	return nil
}

func (r *memHistoryRepo) GetXPHistory(_ context.Context, hunterID string, from, to time.Time) ([]hunter.XPHistoryEntry, error) {
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

func (r *memHistoryRepo) GetRecentXPChanges(_ context.Context, hunterID string, limit int) ([]hunter.XPHistoryEntry, error) {
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

func (r *memHistoryRepo) HasXPChange(_ context.Context, hunterID, source, sourceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.xpEntries {
		if e.HunterID == hunterID && e.Source == source && e.SourceID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memHistoryRepo) SaveStatChange(_ context.Context, e hunter.StatHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statEvents = append(r.statEvents, e)
	return nil
}

func (r *memHistoryRepo) GetStatHistory(_ context.Context, hunterID string, limit int) ([]hunter.StatHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []hunter.StatHistoryEntry
	for i := len(r.statEvents) - 1; i >= 0 && len(out) < limit; i-- {
		if r.statEvents[i].HunterID == hunterID {
			out = append(out, r.statEvents[i])
		}
	}
	return out, nil
}

type memLeaderboard struct {
	mu     sync.Mutex
	scores map[string]int
}

func newMemLeaderboard() *memLeaderboard {
	return &memLeaderboard{scores: make(map[string]int)}
}

func (l *memLeaderboard) UpdateScore(_ context.Context, hunterID string, totalXP int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scores[hunterID] = totalXP
	return nil
}

func (l *memLeaderboard) GetRank(_ context.Context, hunterID string) (leaderboard.Rank, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	score, ok := l.scores[hunterID]
	if !ok {
		return 0, leaderboard.ErrNotRanked
	}
	rank := 1
	for _, s := range l.scores {
		if s > score {
			rank++
		}
	}
	return leaderboard.Rank(rank), nil
}

func (l *memLeaderboard) GetTop(_ context.Context, _ int) ([]*leaderboard.Entry, error) {
	return nil, nil
}

func (l *memLeaderboard) GetAround(_ context.Context, _ string, _ int) ([]*leaderboard.Entry, error) {
	return nil, nil
}

func (l *memLeaderboard) Rebuild(_ context.Context, entries []*leaderboard.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scores = make(map[string]int)
	for _, e := range entries {
		l.scores[e.HunterID] = e.TotalXP
	}
	return nil
}

func (l *memLeaderboard) Count(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.scores), nil
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
