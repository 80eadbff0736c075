// Package period computes the date windows the tracker aggregates over:
// plain calendar months and billing cycles anchored on a fixed day of month.
// Everything here is pure; engines and analytics compose on top.
package period

import (
	"time"

	"kiguca/internal/core"
)

// Range is an inclusive date window. Start is the first instant of its day,
// End the last instant of its day.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CalendarMonthRange returns the first and last instant of the month
// containing t.
func CalendarMonthRange(t time.Time) Range {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return Range{Start: start, End: endOfDay(start.AddDate(0, 1, -1))}
}

// AnchoredMonthRange returns the billing cycle containing t for a cycle that
// starts on anchorDay of each month and ends the instant before the next
// anchor. If t's day-of-month is before the anchor, the cycle began the
// previous month. An anchor with no counterpart in a month (31 in April)
// clamps to that month's last day; anchors below 1 are treated as 1.
func AnchoredMonthRange(t time.Time, anchorDay int) Range {
	if anchorDay < 1 {
		anchorDay = 1
	}
	y, m, _ := t.Date()
	startY, startM := y, m
	if t.Day() < clampDay(anchorDay, y, m) {
		startY, startM = prevMonth(y, m)
	}
	start := time.Date(startY, startM, clampDay(anchorDay, startY, startM), 0, 0, 0, 0, time.UTC)

	nextY, nextM := nextMonth(startY, startM)
	nextAnchor := time.Date(nextY, nextM, clampDay(anchorDay, nextY, nextM), 0, 0, 0, 0, time.UTC)
	return Range{Start: start, End: nextAnchor.Add(-time.Nanosecond)}
}

// IsWithin reports whether an ISO date (YYYY-MM-DD, or a full RFC 3339
// timestamp) falls inside r, bounds inclusive.
func IsWithin(dateISO string, r Range) bool {
	t, ok := parseISO(dateISO)
	if !ok {
		return false
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// RemainingDays counts whole days from today (inclusive) through the end of
// r, floored at zero once the range has passed.
func RemainingDays(r Range, today time.Time) int {
	t0 := startOfDay(today)
	t1 := startOfDay(r.End)
	if t1.Before(t0) {
		return 0
	}
	return int(t1.Sub(t0).Hours()/24) + 1
}

func parseISO(s string) (time.Time, bool) {
	if t, err := time.Parse(core.DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

// clampDay degrades an out-of-range anchor to the month's last valid day
// instead of letting time.Date roll it into the next month.
func clampDay(day, year int, month time.Month) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

func prevMonth(y int, m time.Month) (int, time.Month) {
	if m == time.January {
		return y - 1, time.December
	}
	return y, m - 1
}

func nextMonth(y int, m time.Month) (int, time.Month) {
	if m == time.December {
		return y + 1, time.January
	}
	return y, m + 1
}
