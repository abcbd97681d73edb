package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronExpression is a parsed 5-field cron schedule
// (minute hour day-of-month month day-of-week) used for the nightly
// rollover and mission generation. Fields accept *, */n, n, n-m,
// n-m/s and comma-separated lists of any of those.
//
// It implements Schedule, so it plugs straight into Scheduler.Register.
type CronExpression struct {
	raw     string
	minute  [60]bool
	hour    [24]bool
	day     [32]bool // 1-31
	month   [13]bool // 1-12
	weekday [7]bool  // 0 = Sunday
}

// ParseCronExpression parses a 5-field cron expression.
func ParseCronExpression(expr string) (*CronExpression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid cron expression: expected 5 fields, got %d", len(fields))
	}

	ce := &CronExpression{raw: expr}
	specs := []struct {
		name     string
		field    string
		set      []bool
		min, max int
	}{
		{"minute", fields[0], ce.minute[:], 0, 59},
		{"hour", fields[1], ce.hour[:], 0, 23},
		{"day", fields[2], ce.day[:], 1, 31},
		{"month", fields[3], ce.month[:], 1, 12},
		{"weekday", fields[4], ce.weekday[:], 0, 6},
	}

	for _, spec := range specs {
		if err := parseField(spec.field, spec.set, spec.min, spec.max); err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", spec.name, err)
		}
	}

	return ce, nil
}

// parseField marks every value the field covers in set. A field is a
// comma-separated list of terms; each term is a wildcard, a single
// value or a range, optionally with a /step suffix.
func parseField(field string, set []bool, min, max int) error {
	for _, term := range strings.Split(field, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			return fmt.Errorf("empty term in %q", field)
		}

		step := 1
		if base, stepPart, ok := strings.Cut(term, "/"); ok {
			v, err := strconv.Atoi(stepPart)
			if err != nil || v <= 0 {
				return fmt.Errorf("invalid step in %q", term)
			}
			term, step = base, v
		}

		start, end := min, max
		switch {
		case term == "*":
			// full range
		case strings.Contains(term, "-"):
			first, second, _ := strings.Cut(term, "-")
			var err error
			if start, err = strconv.Atoi(first); err != nil {
				return fmt.Errorf("invalid range start %q", first)
			}
			if end, err = strconv.Atoi(second); err != nil {
				return fmt.Errorf("invalid range end %q", second)
			}
		default:
			v, err := strconv.Atoi(term)
			if err != nil {
				return fmt.Errorf("invalid value %q", term)
			}
			if v < min || v > max {
				return fmt.Errorf("value out of range [%d-%d]: %d", min, max, v)
			}
			start, end = v, v
			if step > 1 {
				// "n/s" runs from n to the end of the range
				end = max
			}
		}

		if start > end {
			return fmt.Errorf("inverted range in %q", term)
		}
		for v := start; v <= end; v += step {
			if v >= min && v <= max {
				set[v] = true
			}
		}
	}

	return nil
}

// String returns the original expression text.
func (ce *CronExpression) String() string {
	return ce.raw
}

// Next returns the first time strictly after the given one that
// matches the expression. Non-matching days are skipped whole, so the
// scan is cheap even for sparse schedules like "0 0 1 * *".
func (ce *CronExpression) Next(after time.Time) time.Time {
	t := after.Truncate(time.Minute).Add(time.Minute)

	// A valid expression matches at least once a year.
	limit := t.AddDate(1, 0, 1)
	for t.Before(limit) {
		if !ce.matchesDay(t) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
			continue
		}
		if !ce.hour[t.Hour()] {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
			continue
		}
		if !ce.minute[t.Minute()] {
			t = t.Add(time.Minute)
			continue
		}
		return t
	}

	return time.Time{}
}

func (ce *CronExpression) matchesDay(t time.Time) bool {
	return ce.month[int(t.Month())] && ce.day[t.Day()] && ce.weekday[int(t.Weekday())]
}
