package summary_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/summary"
	"github.com/Tiliavir/nanny-time-tracker/internal/timecalc"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("zoneinfo not available: %v", err)
	}
	return loc
}

func closed(id string, start time.Time, d time.Duration, breakMin int) model.Shift {
	end := start.Add(d)
	return model.Shift{ID: id, UserID: "u1", ClockIn: start, ClockOut: &end, BreakMinutes: breakMin}
}

func TestSummarizeSingleShiftToday(t *testing.T) {
	loc := newYork(t)
	now := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC) // 18:00 EST
	b := timecalc.Boundaries(now, loc)

	rec := closed("s1", time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC), 8*time.Hour+30*time.Minute, 30)
	got := summary.Summarize([]model.Shift{rec}, b, now, loc)

	assert.Equal(t, summary.PeriodSummary{
		TodaySeconds: 28800,
		WeekSeconds:  28800,
		MonthSeconds: 28800,
	}, got)
}

func TestSummarizeOvertime(t *testing.T) {
	loc := newYork(t)
	// Thursday 2024-01-18; the week started Sunday 2024-01-14.
	now := time.Date(2024, 1, 18, 22, 0, 0, 0, time.UTC)
	b := timecalc.Boundaries(now, loc)

	records := []model.Shift{
		closed("a", time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC), 15*time.Hour, 0),
		closed("b", time.Date(2024, 1, 16, 13, 0, 0, 0, time.UTC), 15*time.Hour+30*time.Minute, 30),
		closed("c", time.Date(2024, 1, 17, 13, 0, 0, 0, time.UTC), 15*time.Hour+time.Hour, 60),
	}
	got := summary.Summarize(records, b, now, loc)

	assert.Equal(t, int64(45*3600), got.WeekSeconds)
	assert.Equal(t, int64(18000), got.OvertimeSeconds)
	assert.Equal(t, int64(0), got.TodaySeconds)
}

func TestSummarizeBucketsByLocalDate(t *testing.T) {
	loc := newYork(t)
	now := time.Date(2024, 1, 17, 15, 0, 0, 0, time.UTC) // Wed 10:00 EST
	b := timecalc.Boundaries(now, loc)

	records := []model.Shift{
		// 2024-01-17 04:00 UTC is 23:00 on the 16th in New York: not today.
		closed("late", time.Date(2024, 1, 17, 4, 0, 0, 0, time.UTC), time.Hour, 0),
		// 2024-01-17 06:00 UTC is 01:00 on the 17th: today.
		closed("early", time.Date(2024, 1, 17, 6, 0, 0, 0, time.UTC), 2*time.Hour, 0),
		// Saturday before the week started.
		closed("sat", time.Date(2024, 1, 13, 15, 0, 0, 0, time.UTC), 4*time.Hour, 0),
	}
	got := summary.Summarize(records, b, now, loc)

	assert.Equal(t, int64(2*3600), got.TodaySeconds)
	assert.Equal(t, int64(3*3600), got.WeekSeconds)
	assert.Equal(t, int64(7*3600), got.MonthSeconds)
}

func TestSummarizeWeekStraddlingMonth(t *testing.T) {
	loc := newYork(t)
	// Thursday 2024-02-01; the week began Sunday 2024-01-28.
	now := time.Date(2024, 2, 1, 20, 0, 0, 0, time.UTC)
	b := timecalc.Boundaries(now, loc)
	require.True(t, b.StartOfWeek.Before(b.StartOfMonth))

	records := []model.Shift{
		closed("jan", time.Date(2024, 1, 30, 14, 0, 0, 0, time.UTC), 10*time.Hour, 0),
		closed("feb", time.Date(2024, 2, 1, 14, 0, 0, 0, time.UTC), 5*time.Hour, 0),
	}
	got := summary.Summarize(records, b, now, loc)

	assert.Equal(t, int64(15*3600), got.WeekSeconds)
	assert.Equal(t, int64(5*3600), got.MonthSeconds)
	assert.Equal(t, int64(5*3600), got.TodaySeconds)
	assert.Equal(t, b.StartOfWeek, summary.SinceForBoundary(b))
}

func TestSummarizeSkipsOpenAndMalformed(t *testing.T) {
	loc := newYork(t)
	now := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	b := timecalc.Boundaries(now, loc)
	start := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	skewEnd := start.Add(-30 * time.Second)
	badEnd := start.Add(-2 * time.Hour)

	records := []model.Shift{
		{ID: "open", ClockIn: start},
		{ID: "skew", ClockIn: start, ClockOut: &skewEnd},
		{ID: "backwards", ClockIn: start, ClockOut: &badEnd},
		closed("neg-break", start, time.Hour, -5),
		closed("ok", start, time.Hour, 0),
	}
	got := summary.Summarize(records, b, now, loc)

	assert.Equal(t, int64(3600), got.TodaySeconds)
	assert.Equal(t, 2, got.Skipped)
}

func TestSummarizeEmpty(t *testing.T) {
	now := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	got := summary.Summarize(nil, timecalc.Boundaries(now, time.UTC), now, time.UTC)
	assert.Equal(t, summary.PeriodSummary{}, got)
}

func TestSummarizeIdempotentAndOrderIndependent(t *testing.T) {
	loc := newYork(t)
	now := time.Date(2024, 1, 19, 22, 0, 0, 0, time.UTC)
	b := timecalc.Boundaries(now, loc)

	var records []model.Shift
	for i := 0; i < 20; i++ {
		start := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC).Add(time.Duration(i) * 22 * time.Hour)
		records = append(records, closed("r", start, time.Duration(3+i%6)*time.Hour, i%4*15))
	}

	first := summary.Summarize(records, b, now, loc)
	second := summary.Summarize(records, b, now, loc)
	assert.Equal(t, first, second)

	shuffled := append([]model.Shift(nil), records...)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	assert.Equal(t, first, summary.Summarize(shuffled, b, now, loc))
}

func TestMileage(t *testing.T) {
	entries := []model.MileageEntry{
		{Miles: 10, RatePerMile: 0.67},
		{Miles: 5.5, RatePerMile: 0.5},
		{Miles: 2},  // rate defaults to IRS
		{Miles: -3}, // ignored
	}
	got := summary.Mileage(entries)

	assert.Equal(t, 3, got.Trips)
	assert.InDelta(t, 17.5, got.Miles, 1e-9)
	assert.InDelta(t, 6.7+2.75+1.34, got.Reimbursement, 1e-9)
}
