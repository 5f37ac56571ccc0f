// Package summary folds shifts and mileage entries into period totals.
package summary

import (
	"time"

	"github.com/Tiliavir/nanny-time-tracker/internal/logger"
	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/timecalc"
)

const (
	// OvertimeThreshold is the weekly worked time after which overtime accrues.
	OvertimeThreshold = 40 * 3600

	// SkewTolerance is how far a clock-out may precede its clock-in before
	// the shift is treated as malformed rather than as clock skew.
	SkewTolerance = 60 * time.Second
)

// PeriodSummary holds worked seconds per period.
type PeriodSummary struct {
	TodaySeconds    int64 `json:"today_seconds"`
	WeekSeconds     int64 `json:"week_seconds"`
	MonthSeconds    int64 `json:"month_seconds"`
	OvertimeSeconds int64 `json:"overtime_seconds"`
	Skipped         int   `json:"skipped"`
}

// Summarize totals the closed shifts in records against b. Shifts are
// bucketed by the local date of their clock-in in loc; open shifts are
// ignored. Malformed shifts are skipped and logged.
func Summarize(records []model.Shift, b timecalc.PeriodBoundary, now time.Time, loc *time.Location) PeriodSummary {
	if loc == nil {
		loc = time.UTC
	}
	log := logger.Named("summary")

	var s PeriodSummary
	for _, r := range records {
		if r.Open() {
			continue
		}
		if reason := malformed(r); reason != "" {
			log.Warn().Str("shift_id", r.ID).Str("reason", reason).
				Time("clock_in", r.ClockIn).Time("clock_out", *r.ClockOut).
				Msg("skipping malformed shift")
			s.Skipped++
			continue
		}

		worked := timecalc.WorkedSeconds(r, now)
		if timecalc.SameLocalDay(r.ClockIn, b.StartOfDay, loc) {
			s.TodaySeconds += worked
		}
		if !r.ClockIn.Before(b.StartOfWeek) {
			s.WeekSeconds += worked
		}
		if !r.ClockIn.Before(b.StartOfMonth) {
			s.MonthSeconds += worked
		}
	}

	if s.WeekSeconds > OvertimeThreshold {
		s.OvertimeSeconds = s.WeekSeconds - OvertimeThreshold
	}
	return s
}

func malformed(r model.Shift) string {
	switch {
	case r.ClockIn.IsZero():
		return "missing clock-in"
	case r.BreakMinutes < 0:
		return "negative break"
	case r.ClockOut.Before(r.ClockIn.Add(-SkewTolerance)):
		return "clock-out before clock-in"
	}
	return ""
}

// SinceForBoundary returns the earliest clock-in Summarize can count for b,
// which is the week start when the week began in the previous month.
func SinceForBoundary(b timecalc.PeriodBoundary) time.Time {
	if b.StartOfWeek.Before(b.StartOfMonth) {
		return b.StartOfWeek
	}
	return b.StartOfMonth
}
