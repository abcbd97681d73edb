package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression_Valid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"rollover at five past midnight", "5 0 * * *"},
		{"mission generation", "15 0 * * *"},
		{"every ten minutes", "*/10 * * * *"},
		{"range with step", "0-30/15 8 * * 1-5"},
		{"explicit list", "0,30 9,18 * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce, err := ParseCronExpression(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, ce.String())
		})
	}
}

func TestParseCronExpression_Invalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"too few fields", "5 0 * *"},
		{"too many fields", "5 0 * * * *"},
		{"minute out of range", "60 0 * * *"},
		{"hour out of range", "0 24 * * *"},
		{"garbage", "not a cron"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCronExpression(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestCronExpression_NextDailyRun(t *testing.T) {
	ce, err := ParseCronExpression("5 0 * * *")
	require.NoError(t, err)

	// Mid-day: next run is five past midnight tomorrow.
	after := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	next := ce.Next(after)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 5, 0, 0, time.UTC), next)

	// Just before the run: fires the same night.
	after = time.Date(2026, 3, 10, 0, 3, 0, 0, time.UTC)
	next = ce.Next(after)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 5, 0, 0, time.UTC), next)
}

func TestCronExpression_NextSkipsNonMatchingDays(t *testing.T) {
	ce, err := ParseCronExpression("0 0 1 * *")
	require.NoError(t, err)

	after := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), ce.Next(after))
}

func TestCronExpression_NextWithStep(t *testing.T) {
	ce, err := ParseCronExpression("*/10 * * * *")
	require.NoError(t, err)

	after := time.Date(2026, 3, 10, 14, 12, 0, 0, time.UTC)
	next := ce.Next(after)
	assert.Equal(t, time.Date(2026, 3, 10, 14, 20, 0, 0, time.UTC), next)
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(10 * time.Minute)

	at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(10*time.Minute), s.Next(at))
	assert.Contains(t, s.String(), "10m")
}

type noopJob struct {
	name string
	runs int
}

func (j *noopJob) Name() string { return j.name }

func (j *noopJob) Description() string { return "test job" }

func (j *noopJob) Run(context.Context) error {
	j.runs++
	return nil
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())

	err := s.Register(&noopJob{name: "rollover"}, NewIntervalSchedule(time.Hour))
	assert.NoError(t, err)

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&noopJob{name: "missions"}, nil), ErrNilSchedule)
}

func TestScheduler_RunNowIgnoresSchedule(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	job := &noopJob{name: "missions"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "missions")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, job.runs)
	assert.Equal(t, result, s.LastResult("missions"))

	_, err = s.RunNow(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	require.NoError(t, s.Register(&noopJob{name: "rollover"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}
