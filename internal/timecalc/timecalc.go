package timecalc

import (
	"fmt"
	"time"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
)

// PeriodBoundary holds the instants that open the current local day, week
// (Sunday-based) and month. All three come from one reference time and one
// location.
type PeriodBoundary struct {
	StartOfDay   time.Time
	StartOfWeek  time.Time
	StartOfMonth time.Time
}

// Boundaries computes the local day, week and month starts for now in loc.
// A nil loc is treated as UTC; callers resolve zone identifiers first.
func Boundaries(now time.Time, loc *time.Location) PeriodBoundary {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	y, m, d := local.Date()
	wd := int(local.Weekday()) // Sunday=0

	// time.Date resolves the offset for the wall clock it is given, so each
	// boundary gets the offset in force on its own date.
	return PeriodBoundary{
		StartOfDay:   midnight(y, m, d, loc),
		StartOfWeek:  midnight(y, m, d-wd, loc),
		StartOfMonth: midnight(y, m, 1, loc),
	}
}

// midnight returns the first instant of the local date. Zones that skip
// midnight on a transition day start that day at the first valid wall time;
// zones that repeat midnight start it at the earlier 00:00.
func midnight(y int, m time.Month, d int, loc *time.Location) time.Time {
	// d may be <= 0 or past the month end.
	y, m, d = time.Date(y, m, d, 12, 0, 0, 0, loc).Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if _, _, td := t.Date(); td != d {
		// Midnight fell into a gap and resolved to the previous evening.
		t = t.Add(time.Hour)
	}
	if _, _, ed := t.Add(-time.Hour).In(loc).Date(); ed == d {
		// Clocks fell back at midnight; the day began at the first 00:00.
		t = t.Add(-time.Hour)
	}
	return t.UTC()
}

// ElapsedSeconds returns the whole seconds from start to end, never negative.
func ElapsedSeconds(start, end time.Time) int64 {
	secs := int64(end.Sub(start) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// WorkedSeconds returns the billable seconds of a shift. Closed shifts lose
// their break; an open shift counts up to now with no break deducted.
func WorkedSeconds(s model.Shift, now time.Time) int64 {
	if s.ClockOut == nil {
		return ElapsedSeconds(s.ClockIn, now)
	}
	worked := ElapsedSeconds(s.ClockIn, *s.ClockOut) - int64(s.BreakMinutes)*60
	if worked < 0 {
		return 0
	}
	return worked
}

// LocalDate returns the calendar date of t in loc.
func LocalDate(t time.Time, loc *time.Location) (int, time.Month, int) {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Date()
}

// SameLocalDay reports whether a and b fall on the same calendar day in loc.
func SameLocalDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := LocalDate(a, loc)
	by, bm, bd := LocalDate(b, loc)
	return ay == by && am == bm && ad == bd
}

// WeekRange returns the Sunday midnight starting the local week of t and the
// Sunday midnight starting the next one.
func WeekRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := Boundaries(t, loc).StartOfWeek
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := start.In(loc).Date()
	return start, midnight(y, m, d+7, loc)
}

// MonthRange returns the local month that is offset months away from t's
// month as a half-open [start, end) pair. offset -1 is last month.
func MonthRange(t time.Time, loc *time.Location, offset int) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, _ := t.In(loc).Date()
	return midnight(y, m+time.Month(offset), 1, loc), midnight(y, m+time.Month(offset+1), 1, loc)
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatHours formats seconds as decimal hours with one digit, e.g. "8.5h".
func FormatHours(seconds int64) string {
	return fmt.Sprintf("%.1fh", float64(seconds)/3600)
}
