package timecalc_test

import (
	"testing"
	"time"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/timecalc"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("zoneinfo for %s not available: %v", name, err)
	}
	return loc
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{60, "1m"},
		{90, "1m"},
		{3600, "1h 0m"},
		{3661, "1h 1m"},
		{5400, "1h 30m"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDuration(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatDurationHHMMSS(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{61, "00:01:01"},
		{3661, "01:01:01"},
		{-5, "00:00:00"},
		{45 * 3600, "45:00:00"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDurationHHMMSS(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDurationHHMMSS(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	if got := timecalc.FormatHours(28800); got != "8.0h" {
		t.Errorf("FormatHours(28800) = %q, want %q", got, "8.0h")
	}
	if got := timecalc.FormatHours(5400); got != "1.5h" {
		t.Errorf("FormatHours(5400) = %q, want %q", got, "1.5h")
	}
}

func TestElapsedSeconds(t *testing.T) {
	a := time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC)
	b := a.Add(90*time.Minute + 500*time.Millisecond)

	if got := timecalc.ElapsedSeconds(a, b); got != 5400 {
		t.Errorf("ElapsedSeconds(a, b) = %d, want 5400", got)
	}
	if got := timecalc.ElapsedSeconds(b, a); got != 0 {
		t.Errorf("ElapsedSeconds(b, a) = %d, want 0 (clamped)", got)
	}
	if got := timecalc.ElapsedSeconds(a, a); got != 0 {
		t.Errorf("ElapsedSeconds(a, a) = %d, want 0", got)
	}
}

func TestElapsedSecondsOpenShiftDisplay(t *testing.T) {
	now := time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)
	start := now.Add(-3661 * time.Second)

	secs := timecalc.ElapsedSeconds(start, now)
	if secs != 3661 {
		t.Fatalf("ElapsedSeconds = %d, want 3661", secs)
	}
	if got := timecalc.FormatDurationHHMMSS(secs); got != "01:01:01" {
		t.Errorf("display = %q, want %q", got, "01:01:01")
	}
}

func TestWorkedSeconds(t *testing.T) {
	start := time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 15, 21, 30, 0, 0, time.UTC)
	now := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)

	tests := []struct {
		name  string
		shift model.Shift
		want  int64
	}{
		{"closed with break", model.Shift{ClockIn: start, ClockOut: &end, BreakMinutes: 30}, 28800},
		{"closed no break", model.Shift{ClockIn: start, ClockOut: &end}, 30600},
		{"break longer than shift", model.Shift{ClockIn: start, ClockOut: &end, BreakMinutes: 600}, 0},
		{"end before start", model.Shift{ClockIn: start, ClockOut: &before}, 0},
		{"open shift ignores break", model.Shift{ClockIn: start, BreakMinutes: 30}, 36000},
		{"open shift in the future", model.Shift{ClockIn: now.Add(time.Minute)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := timecalc.WorkedSeconds(tt.shift, now); got != tt.want {
				t.Errorf("WorkedSeconds = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWorkedSecondsMonotonic(t *testing.T) {
	start := time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC)
	now := start.Add(24 * time.Hour)

	prev := int64(-1)
	for span := 0; span <= 600; span += 15 {
		end := start.Add(time.Duration(span) * time.Minute)
		got := timecalc.WorkedSeconds(model.Shift{ClockIn: start, ClockOut: &end, BreakMinutes: 45}, now)
		if got < prev {
			t.Fatalf("span %dm: worked %d decreased from %d", span, got, prev)
		}
		prev = got
	}

	end := start.Add(8 * time.Hour)
	prev = int64(1 << 62)
	for brk := 0; brk <= 600; brk += 10 {
		got := timecalc.WorkedSeconds(model.Shift{ClockIn: start, ClockOut: &end, BreakMinutes: brk}, now)
		if got > prev || got < 0 {
			t.Fatalf("break %dm: worked %d not in [0, %d]", brk, got, prev)
		}
		prev = got
	}
}

func TestBoundariesNewYork(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	// Wednesday 2024-01-17 15:00 EST.
	now := time.Date(2024, 1, 17, 20, 0, 0, 0, time.UTC)
	b := timecalc.Boundaries(now, ny)

	wantDay := time.Date(2024, 1, 17, 5, 0, 0, 0, time.UTC)
	wantWeek := time.Date(2024, 1, 14, 5, 0, 0, 0, time.UTC)
	wantMonth := time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)

	if !b.StartOfDay.Equal(wantDay) {
		t.Errorf("StartOfDay = %v, want %v", b.StartOfDay, wantDay)
	}
	if !b.StartOfWeek.Equal(wantWeek) {
		t.Errorf("StartOfWeek = %v, want %v", b.StartOfWeek, wantWeek)
	}
	if !b.StartOfMonth.Equal(wantMonth) {
		t.Errorf("StartOfMonth = %v, want %v", b.StartOfMonth, wantMonth)
	}
}

func TestBoundariesLocalDateDiffersFromUTC(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	// 2024-02-01 03:00 UTC is still January 31 in New York.
	now := time.Date(2024, 2, 1, 3, 0, 0, 0, time.UTC)
	b := timecalc.Boundaries(now, ny)

	if want := time.Date(2024, 1, 31, 5, 0, 0, 0, time.UTC); !b.StartOfDay.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", b.StartOfDay, want)
	}
	if want := time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC); !b.StartOfMonth.Equal(want) {
		t.Errorf("StartOfMonth = %v, want %v", b.StartOfMonth, want)
	}
}

func TestBoundariesSpringForward(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	// 2024-03-10 is the spring-forward date; 12:00 EDT = 16:00 UTC.
	now := time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC)
	b := timecalc.Boundaries(now, ny)

	local := b.StartOfDay.In(ny)
	if local.Hour() != 0 || local.Minute() != 0 || local.Day() != 10 {
		t.Errorf("StartOfDay local = %v, want 2024-03-10 00:00", local)
	}
	// Midnight on the transition date is still EST (UTC-5).
	if want := time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC); !b.StartOfDay.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", b.StartOfDay, want)
	}

	// A day after the change the offset is EDT (UTC-4).
	b = timecalc.Boundaries(time.Date(2024, 3, 11, 16, 0, 0, 0, time.UTC), ny)
	if want := time.Date(2024, 3, 11, 4, 0, 0, 0, time.UTC); !b.StartOfDay.Equal(want) {
		t.Errorf("StartOfDay after DST = %v, want %v", b.StartOfDay, want)
	}
	// The week began before the change, so its start keeps the EST offset.
	if want := time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC); !b.StartOfWeek.Equal(want) {
		t.Errorf("StartOfWeek after DST = %v, want %v", b.StartOfWeek, want)
	}
}

func TestBoundariesMidnightGap(t *testing.T) {
	// Havana springs forward at 00:00, so 2024-03-10 has no local midnight.
	havana := mustLoad(t, "America/Havana")
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	b := timecalc.Boundaries(now, havana)

	local := b.StartOfDay.In(havana)
	if local.Day() != 10 || local.Hour() != 1 {
		t.Errorf("StartOfDay local = %v, want 2024-03-10 01:00", local)
	}
}

func TestBoundariesRepeatedMidnight(t *testing.T) {
	// Gaza fell back from 01:00 +03 to 00:00 +02 on 2018-10-27, so the day
	// has two midnights and starts at the first.
	gaza := mustLoad(t, "Asia/Gaza")
	now := time.Date(2018, 10, 27, 20, 0, 0, 0, time.UTC)
	b := timecalc.Boundaries(now, gaza)

	if want := time.Date(2018, 10, 26, 21, 0, 0, 0, time.UTC); !b.StartOfDay.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", b.StartOfDay, want)
	}
}

func TestBoundariesStartAtFirstInstantOfDay(t *testing.T) {
	zones := []string{"America/Havana", "Asia/Gaza", "Asia/Beirut", "America/Santiago",
		"America/Asuncion", "America/New_York", "Europe/Berlin"}
	start := time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	for _, name := range zones {
		loc := mustLoad(t, name)
		for now := start; now.Before(end); now = now.Add(18*time.Hour + 30*time.Minute) {
			b := timecalc.Boundaries(now, loc)
			y, m, d := now.In(loc).Date()
			if sy, sm, sd := b.StartOfDay.In(loc).Date(); sy != y || sm != m || sd != d {
				t.Fatalf("%s %v: StartOfDay %v is not on the local date", name, now, b.StartOfDay.In(loc))
			}
			if _, _, pd := b.StartOfDay.Add(-time.Second).In(loc).Date(); pd == d {
				t.Fatalf("%s %v: StartOfDay %v is not the first instant of the day", name, now, b.StartOfDay.In(loc))
			}
		}
	}
}

func TestBoundariesInvariants(t *testing.T) {
	zones := []string{"UTC", "America/New_York", "America/Los_Angeles", "Pacific/Honolulu",
		"Europe/Berlin", "Asia/Tokyo", "Australia/Sydney", "Pacific/Kiritimati"}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, name := range zones {
		loc := mustLoad(t, name)
		for h := 0; h < 24*400; h += 7 {
			now := start.Add(time.Duration(h) * time.Hour)
			b := timecalc.Boundaries(now, loc)

			if b.StartOfDay.After(now) {
				t.Fatalf("%s %v: StartOfDay %v after now", name, now, b.StartOfDay)
			}
			if b.StartOfWeek.After(b.StartOfDay) || b.StartOfMonth.After(b.StartOfDay) {
				t.Fatalf("%s %v: boundaries out of order %+v", name, now, b)
			}
			local := now.In(loc)
			if local.Day() > int(local.Weekday()) && b.StartOfMonth.After(b.StartOfWeek) {
				t.Fatalf("%s %v: week inside month but StartOfMonth %v after StartOfWeek %v",
					name, now, b.StartOfMonth, b.StartOfWeek)
			}
			if d := b.StartOfWeek.In(loc); d.Weekday() != time.Sunday || d.Hour() != 0 {
				t.Fatalf("%s %v: StartOfWeek %v is not Sunday midnight", name, now, d)
			}
			if d := b.StartOfMonth.In(loc); d.Day() != 1 || d.Hour() != 0 {
				t.Fatalf("%s %v: StartOfMonth %v is not the 1st at midnight", name, now, d)
			}
		}
	}
}

func TestBoundariesNilLocation(t *testing.T) {
	now := time.Date(2024, 1, 17, 20, 0, 0, 0, time.UTC)
	b := timecalc.Boundaries(now, nil)
	if want := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC); !b.StartOfDay.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", b.StartOfDay, want)
	}
}

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday.
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	from, to := timecalc.WeekRange(fri, time.UTC)

	wantFrom := time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if !from.Equal(wantFrom) {
		t.Errorf("WeekRange from = %v, want %v", from, wantFrom)
	}
	if !to.Equal(wantTo) {
		t.Errorf("WeekRange to = %v, want %v", to, wantTo)
	}
}

func TestMonthRange(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	now := time.Date(2024, 1, 17, 20, 0, 0, 0, time.UTC)

	from, to := timecalc.MonthRange(now, ny, -1)
	if want := time.Date(2023, 12, 1, 5, 0, 0, 0, time.UTC); !from.Equal(want) {
		t.Errorf("last month from = %v, want %v", from, want)
	}
	if want := time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC); !to.Equal(want) {
		t.Errorf("last month to = %v, want %v", to, want)
	}

	from, to = timecalc.MonthRange(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC), ny, 0)
	if want := time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC); !from.Equal(want) {
		t.Errorf("March from = %v, want %v", from, want)
	}
	if want := time.Date(2024, 4, 1, 4, 0, 0, 0, time.UTC); !to.Equal(want) {
		t.Errorf("March to = %v, want %v", to, want)
	}
}

func TestSameLocalDay(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	a := time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC) // 08:00 EST
	b := time.Date(2024, 1, 16, 3, 0, 0, 0, time.UTC)  // 22:00 EST same day
	c := time.Date(2024, 1, 16, 6, 0, 0, 0, time.UTC)  // 01:00 EST next day

	if !timecalc.SameLocalDay(a, b, ny) {
		t.Error("SameLocalDay: expected same local day for a and b")
	}
	if timecalc.SameLocalDay(a, c, ny) {
		t.Error("SameLocalDay: expected different local day for a and c")
	}
	if timecalc.SameLocalDay(a, b, time.UTC) {
		t.Error("SameLocalDay: a and b are different UTC days")
	}
}
