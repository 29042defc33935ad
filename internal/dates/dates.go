// Package dates parses the time arguments accepted by history filters and
// formats run times for display.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the canonical date format.
const DateLayout = "2006-01-02"

var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsValidDate checks if a string is a valid YYYY-MM-DD date.
func IsValidDate(s string) bool {
	if !dateRegex.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !IsValidDate(s) {
		return time.Time{}, fmt.Errorf("invalid date: %q", s)
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// ParseDatetime parses a datetime in one of the accepted formats:
//   - RFC3339 (e.g. 2025-01-01T10:30:00Z)
//   - YYYY-MM-DDTHH:MM
//   - YYYY-MM-DDTHH:MM:SS
//
// Formats without an offset are read in loc.
func ParseDatetime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("invalid datetime: empty")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, format := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(format, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime: %q", s)
}

// ParseSince parses a lower time bound. It accepts:
//   - "today", "yesterday" (start of that day)
//   - a duration back from now, e.g. "90m" or "48h"
//   - YYYY-MM-DD (start of that day)
//   - a datetime accepted by ParseDatetime
func ParseSince(arg string, now time.Time) (time.Time, error) {
	value := strings.ToLower(strings.TrimSpace(arg))
	switch value {
	case "":
		return time.Time{}, fmt.Errorf("empty time value")
	case "today":
		return StartOfDay(now), nil
	case "yesterday":
		return StartOfDay(now).AddDate(0, 0, -1), nil
	}

	if d, err := time.ParseDuration(value); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("duration must not be negative: %q", arg)
		}
		return now.Add(-d), nil
	}
	if IsValidDate(value) {
		return ParseDate(value, now.Location())
	}
	if t, err := ParseDatetime(strings.ToUpper(value), now.Location()); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use today, yesterday, a duration like 2h, YYYY-MM-DD or YYYY-MM-DDTHH:MM", arg)
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Describe formats t for humans relative to now: "today 14:03:00",
// "yesterday 09:12:44", or a full date and time.
func Describe(t, now time.Time) string {
	t = t.In(now.Location())
	day := StartOfDay(t)
	today := StartOfDay(now)
	switch {
	case day.Equal(today):
		return "today " + t.Format("15:04:05")
	case day.Equal(today.AddDate(0, 0, -1)):
		return "yesterday " + t.Format("15:04:05")
	}
	return t.Format("2006-01-02 15:04:05")
}
