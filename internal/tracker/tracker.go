// Package tracker combines the record store, the user's zone and the clock
// into the operations the CLI exposes: clocking in and out, live status,
// period summaries and mileage totals.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tiliavir/nanny-time-tracker/internal/logger"
	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/storage"
	"github.com/Tiliavir/nanny-time-tracker/internal/summary"
	"github.com/Tiliavir/nanny-time-tracker/internal/timecalc"
	"github.com/Tiliavir/nanny-time-tracker/internal/validate"
	"github.com/Tiliavir/nanny-time-tracker/internal/zone"
)

// ErrInvalidBreak is returned by ClockOut for a break outside 0..1440 minutes.
var ErrInvalidBreak = errors.New("break must be between 0 and 1440 minutes")

// Deps are the collaborators of a Service. Shifts and Mileage may be nil
// when the caller only needs summaries.
type Deps struct {
	Records  RecordSource
	Zones    ZoneSource
	Shifts   ShiftStore
	Mileage  MileageSource
	Resolver *zone.Resolver
	Clock    Clock
}

// Service implements the tracker operations.
type Service struct {
	records  RecordSource
	zones    ZoneSource
	shifts   ShiftStore
	mileage  MileageSource
	resolver *zone.Resolver
	clock    Clock
}

// NewService returns a Service. A nil Resolver falls back to DefaultZone and
// a nil Clock to the system clock.
func NewService(d Deps) *Service {
	if d.Resolver == nil {
		d.Resolver = zone.NewResolver(zone.DefaultZone)
	}
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	return &Service{
		records:  d.Records,
		zones:    d.Zones,
		shifts:   d.Shifts,
		mileage:  d.Mileage,
		resolver: d.Resolver,
		clock:    d.Clock,
	}
}

// Zone is the zone a user's periods are computed in.
type Zone struct {
	Location *time.Location
	// Fallback is true when the user had no usable zone of their own.
	Fallback bool
}

// Name returns the IANA identifier of the zone.
func (z Zone) Name() string { return z.Location.String() }

// Zone resolves the user's zone: profile, then configured default, then the
// machine's zone, then UTC.
func (s *Service) Zone(ctx context.Context, userID string) Zone {
	var id string
	if s.zones != nil {
		var err error
		id, err = s.zones.UserZone(ctx, userID)
		if err != nil && !errors.Is(err, storage.ErrNotConfigured) {
			logger.Named("tracker").Warn().Err(err).Str("user", userID).Msg("could not load user zone")
		}
	}
	loc, ok := s.resolver.Resolve(id)
	return Zone{Location: loc, Fallback: !ok}
}

// Report is a period summary together with the context it was computed in.
type Report struct {
	summary.PeriodSummary
	Boundary timecalc.PeriodBoundary
	Zone     Zone
	Now      time.Time
}

// Summary totals the user's closed shifts for today, this week and this month.
// A store without the shifts table yields an empty summary.
func (s *Service) Summary(ctx context.Context, userID string) (Report, error) {
	now := s.clock.Now()
	z := s.Zone(ctx, userID)
	b := timecalc.Boundaries(now, z.Location)

	records, err := s.records.ClosedShiftsSince(ctx, userID, summary.SinceForBoundary(b))
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Named("tracker").Info().Str("user", userID).Msg("record store not set up, reporting empty summary")
		records = nil
	case err != nil:
		return Report{}, fmt.Errorf("loading shifts: %w", err)
	}

	return Report{
		PeriodSummary: summary.Summarize(records, b, now, z.Location),
		Boundary:      b,
		Zone:          z,
		Now:           now,
	}, nil
}

// Status describes the user's current shift, if any.
type Status struct {
	Active         *model.Shift
	ElapsedSeconds int64
	Zone           Zone
	Now            time.Time
}

// Status reports the open shift and how long it has been running.
func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	now := s.clock.Now()
	st := Status{Zone: s.Zone(ctx, userID), Now: now}

	active, err := s.shifts.ActiveShift(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		return st, nil
	case err != nil:
		return Status{}, fmt.Errorf("loading open shift: %w", err)
	}
	if active != nil {
		st.Active = active
		st.ElapsedSeconds = s.Elapsed(*active)
	}
	return st, nil
}

// Elapsed returns the seconds an open shift has been running, or the worked
// seconds of a closed one.
func (s *Service) Elapsed(sh model.Shift) int64 {
	return timecalc.WorkedSeconds(sh, s.clock.Now())
}

// ClockIn starts a shift now.
func (s *Service) ClockIn(ctx context.Context, userID string, notes *string) (model.Shift, error) {
	sh, err := s.shifts.ClockIn(ctx, userID, s.clock.Now(), notes)
	if err != nil {
		return model.Shift{}, err
	}
	logger.Named("tracker").Debug().Str("user", userID).Str("shift_id", sh.ID).Msg("clocked in")
	return sh, nil
}

// ClockOut ends the open shift now with the given break.
func (s *Service) ClockOut(ctx context.Context, userID string, breakMinutes int, notes *string) (model.Shift, error) {
	if err := validate.Var(breakMinutes, "gte=0,lte=1440"); err != nil {
		return model.Shift{}, ErrInvalidBreak
	}
	sh, err := s.shifts.ClockOut(ctx, userID, s.clock.Now(), breakMinutes, notes)
	if err != nil {
		return model.Shift{}, err
	}
	logger.Named("tracker").Debug().Str("user", userID).Str("shift_id", sh.ID).
		Int64("worked_seconds", timecalc.WorkedSeconds(sh, s.clock.Now())).Msg("clocked out")
	return sh, nil
}

// MileageReport holds this month's and last month's mileage totals.
type MileageReport struct {
	ThisMonth      summary.MileageTotals
	LastMonth      summary.MileageTotals
	ThisMonthStart time.Time
	LastMonthStart time.Time
}

// MileageSummary totals the user's trips for the current and previous local
// month.
func (s *Service) MileageSummary(ctx context.Context, userID string) (MileageReport, error) {
	now := s.clock.Now()
	loc := s.Zone(ctx, userID).Location

	var r MileageReport
	for _, p := range []struct {
		offset int
		totals *summary.MileageTotals
		start  *time.Time
	}{
		{0, &r.ThisMonth, &r.ThisMonthStart},
		{-1, &r.LastMonth, &r.LastMonthStart},
	} {
		from, to := timecalc.MonthRange(now, loc, p.offset)
		entries, err := s.mileage.MileageBetween(ctx, userID, DateKey(from, loc), DateKey(to, loc))
		switch {
		case errors.Is(err, storage.ErrNotConfigured):
			entries = nil
		case err != nil:
			return MileageReport{}, fmt.Errorf("loading mileage: %w", err)
		}
		*p.totals = summary.Mileage(entries)
		*p.start = from
	}
	return r, nil
}

// DateKey formats t as the YYYY-MM-DD local date used for mileage and updates.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}
