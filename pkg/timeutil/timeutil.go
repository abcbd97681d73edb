// Package timeutil provides day-boundary utilities for Taker Fitness Hub.
// Daily missions, streaks, and rollover jobs all operate on calendar days,
// so every consumer must agree on where a day starts. The hub keys days in
// UTC. No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// Date creates a UTC time with the given date at midnight.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns the start of the day (00:00:00) in UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in UTC.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in UTC.
func StartOfWeek(t time.Time) time.Time {
	u := t.UTC()
	weekday := int(u.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	daysToSubtract := weekday - 1 // Monday = 1
	return StartOfDay(u.AddDate(0, 0, -daysToSubtract))
}

// EndOfWeek returns the end of the week (Sunday 23:59:59) in UTC.
func EndOfWeek(t time.Time) time.Time {
	start := StartOfWeek(t)
	return EndOfDay(start.AddDate(0, 0, 6))
}

// IsToday checks if the given time falls on the current UTC day.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// IsYesterday checks if the given time falls on the previous UTC day.
func IsYesterday(t time.Time) bool {
	return IsSameDay(t, Now().AddDate(0, 0, -1))
}

// DaysSince calculates the number of whole days since the given time.
func DaysSince(t time.Time) int {
	now := StartOfDay(Now())
	then := StartOfDay(t)
	duration := now.Sub(then)
	return int(duration.Hours() / 24)
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
	// FormatHumanDate is a human-readable format.
	FormatHumanDate = "2 January 2006"
	// FormatShortDate is a short format (Jan 2).
	FormatShortDate = "Jan 2"
)

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in UTC.
// Mission dates and dedup keys use this representation.
func FormatDateStr(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// FormatTimeStr formats a time as a time string (HH:MM) in UTC.
func FormatTimeStr(t time.Time) string {
	return t.UTC().Format(FormatTime)
}

// FormatDateTimeStr formats a time as a datetime string in UTC.
func FormatDateTimeStr(t time.Time) string {
	return t.UTC().Format(FormatDateTime)
}

// FormatRelative returns a human-readable relative time string in Spanish,
// matching the language of all hunter-facing messages.
func FormatRelative(t time.Time) string {
	now := Now()
	duration := now.Sub(t.UTC())

	if duration < 0 {
		return formatFutureDuration(-duration)
	}

	return formatPastDuration(duration)
}

func formatPastDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "ahora mismo"
	case d < time.Hour:
		return fmt.Sprintf("hace %d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("hace %d h", int(d.Hours()))
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "ayer"
		}
		return fmt.Sprintf("hace %d días", days)
	case d < 30*24*time.Hour:
		return fmt.Sprintf("hace %d semanas", int(d.Hours()/24/7))
	default:
		months := int(d.Hours() / 24 / 30)
		if months < 12 {
			return fmt.Sprintf("hace %d meses", months)
		}
		return fmt.Sprintf("hace %d años", months/12)
	}
}

func formatFutureDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "ahora"
	case d < time.Hour:
		return fmt.Sprintf("en %d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("en %d h", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "mañana"
		}
		return fmt.Sprintf("en %d días", days)
	}
}

// ParseDate parses a date string (YYYY-MM-DD) as a UTC midnight.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, time.UTC)
}

// Streak-related utilities for daily clear tracking.

// IsSameDay checks if two times are on the same UTC day.
func IsSameDay(t1, t2 time.Time) bool {
	u1, u2 := t1.UTC(), t2.UTC()
	return u1.Year() == u2.Year() && u1.YearDay() == u2.YearDay()
}

// IsConsecutiveDay checks if t2 is the day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	nextDay := t1.UTC().AddDate(0, 0, 1)
	return IsSameDay(nextDay, t2)
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	u1 := StartOfDay(t1)
	u2 := StartOfDay(t2)
	days := int(u2.Sub(u1).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Reminder timing helpers.

// IsSafeReminderTime checks if it's appropriate to nudge a hunter (9:00-22:00).
func IsSafeReminderTime(t time.Time) bool {
	hour := t.UTC().Hour()
	return hour >= 9 && hour < 22
}

// NextSafeReminderTime returns the next time when a nudge is appropriate.
func NextSafeReminderTime(t time.Time) time.Time {
	u := t.UTC()
	hour := u.Hour()

	if hour < 9 {
		return time.Date(u.Year(), u.Month(), u.Day(), 9, 0, 0, 0, time.UTC)
	} else if hour >= 22 {
		tomorrow := u.AddDate(0, 0, 1)
		return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 9, 0, 0, 0, time.UTC)
	}

	return u
}
