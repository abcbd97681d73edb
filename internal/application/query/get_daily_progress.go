package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/activity"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/hunter"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/mission"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/raid"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// GetDailyProgressQuery requests the daily quest board of a hunter.
type GetDailyProgressQuery struct {
	// HunterID is the hunter to describe.
	HunterID string

	// Date is the day of interest. Zero value means today (UTC).
	Date time.Time
}

// Validate checks the query for correctness.
func (q GetDailyProgressQuery) Validate() error {
	if q.HunterID == "" {
		return fmt.Errorf("%w: hunter ID is required", shared.ErrInvalidInput)
	}
	return nil
}

// MissionProgress is one mission on the daily board.
type MissionProgress struct {
	// MissionID identifies the mission.
	MissionID string

	// Key is the stable mission key within the day.
	Key string

	// Title is the display title.
	Title string

	// Progress and Target describe how far along the mission is.
	Progress int
	Target   int

	// Percent is Progress relative to Target, 0-100.
	Percent int

	// XPReward is the completion reward.
	XPReward int

	// Required marks missions that gate the daily streak.
	Required bool

	// Completed is true for finished missions.
	Completed bool
}

// RaidProgress is one open boss raid on the board.
type RaidProgress struct {
	// RaidID identifies the raid.
	RaidID string

	// Title is the boss title.
	Title string

	// Difficulty is the boss difficulty label (E..SSS).
	Difficulty string

	// Progress and Target describe raid advancement.
	Progress int
	Target   int

	// RewardXP is the completion reward.
	RewardXP int
}

// DailyProgress is the aggregated daily board.
type DailyProgress struct {
	// HunterID identifies the hunter.
	HunterID string

	// Date is the day described (start of day, UTC).
	Date time.Time

	// Missions are the day's missions, required first.
	Missions []MissionProgress

	// RequiredTotal and RequiredCompleted count the streak-gating missions.
	RequiredTotal     int
	RequiredCompleted int

	// AllRequiredDone is true when the day is fully cleared.
	AllRequiredDone bool

	// HydrationML and HydrationGoalML describe water intake.
	HydrationML     int
	HydrationGoalML int

	// ActiveRaids are the open boss raids.
	ActiveRaids []RaidProgress

	// CurrentStreak is the hunter's daily clear series.
	CurrentStreak int
}

// GetDailyProgressHandler processes GetDailyProgressQuery.
type GetDailyProgressHandler struct {
	hunterRepo   hunter.Repository
	missionRepo  mission.Repository
	raidRepo     raid.Repository
	activityRepo activity.Repository
	logger       *slog.Logger
}

// NewGetDailyProgressHandler creates a new GetDailyProgressHandler.
func NewGetDailyProgressHandler(
	hunterRepo hunter.Repository,
	missionRepo mission.Repository,
	raidRepo raid.Repository,
	activityRepo activity.Repository,
	logger *slog.Logger,
) *GetDailyProgressHandler {
	return &GetDailyProgressHandler{
		hunterRepo:   hunterRepo,
		missionRepo:  missionRepo,
		raidRepo:     raidRepo,
		activityRepo: activityRepo,
		logger:       logger.With("handler", "get_daily_progress"),
	}
}

// Handle executes the query.
func (h *GetDailyProgressHandler) Handle(ctx context.Context, q GetDailyProgressQuery) (*DailyProgress, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	date := q.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	date = shared.DayOf(date).From

	hn, err := h.hunterRepo.GetByID(ctx, q.HunterID)
	if err != nil {
		return nil, fmt.Errorf("get daily progress: %w", err)
	}

	missions, err := h.missionRepo.GetDaily(ctx, q.HunterID, date)
	if err != nil {
		return nil, fmt.Errorf("get daily progress: missions: %w", err)
	}

	progress := &DailyProgress{
		HunterID:        q.HunterID,
		Date:            date,
		HydrationGoalML: hunter.HydrationDailyGoalML,
		CurrentStreak:   hn.CurrentStreak,
		AllRequiredDone: mission.AllRequiredCompleted(missions),
	}

	for _, m := range missions {
		mp := MissionProgress{
			MissionID: m.ID,
			Key:       m.Key,
			Title:     m.Title,
			Progress:  m.Progress,
			Target:    m.Target,
			Percent:   m.ProgressPercent(),
			XPReward:  m.XPReward,
			Required:  m.Required,
			Completed: m.IsCompleted(),
		}
		if m.Required {
			progress.RequiredTotal++
			if mp.Completed {
				progress.RequiredCompleted++
			}
			progress.Missions = append([]MissionProgress{mp}, progress.Missions...)
		} else {
			progress.Missions = append(progress.Missions, mp)
		}
	}

	sum, err := h.activityRepo.SumHydration(ctx, q.HunterID, date, date.Add(24*time.Hour))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to sum hydration", "error", err)
	} else {
		progress.HydrationML = sum
	}

	raids, err := h.raidRepo.GetActive(ctx, q.HunterID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load raids", "error", err)
		return progress, nil
	}
	for _, r := range raids {
		progress.ActiveRaids = append(progress.ActiveRaids, RaidProgress{
			RaidID:     r.ID,
			Title:      r.Name,
			Difficulty: r.Difficulty.String(),
			Progress:   r.Progress,
			Target:     r.Target,
			RewardXP:   r.Reward.XP,
		})
	}

	return progress, nil
}
