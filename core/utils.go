package core

import (
	"math"
	"strings"
	"time"
)

// DateFormat is the wire format for calendar days.
const DateFormat = "2006-01-02"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// BeginningOfDay normalizes `t` to midnight UTC of its calendar day.
// Attendance dates are compared at day granularity only.
func BeginningOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns midnight UTC of the day after `t`'s calendar day.
// Day lookups use the half-open interval [BeginningOfDay(t), NextDay(t)).
func NextDay(t time.Time) time.Time {
	return BeginningOfDay(t).AddDate(0, 0, 1)
}

// MonthInterval returns the half-open [first day of month, first day of next month) interval.
func MonthInterval(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// ParseDate parses a calendar day; a full RFC3339 timestamp is accepted
// and truncated to its day.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateFormat, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return BeginningOfDay(t), nil
}

// Percentage computes part/total*100 rounded to 2 decimal places; 0 when total is 0.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}
