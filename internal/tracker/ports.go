package tracker

import (
	"context"
	"time"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
)

// RecordSource supplies a user's closed shifts.
type RecordSource interface {
	ClosedShiftsSince(ctx context.Context, userID string, since time.Time) ([]model.Shift, error)
}

// ZoneSource supplies the zone id stored for a user; "" means none.
type ZoneSource interface {
	UserZone(ctx context.Context, userID string) (string, error)
}

// ShiftStore opens and closes shifts.
type ShiftStore interface {
	ClockIn(ctx context.Context, userID string, at time.Time, notes *string) (model.Shift, error)
	ClockOut(ctx context.Context, userID string, at time.Time, breakMinutes int, notes *string) (model.Shift, error)
	ActiveShift(ctx context.Context, userID string) (*model.Shift, error)
}

// MileageSource supplies trips by date range (YYYY-MM-DD, half-open).
type MileageSource interface {
	MileageBetween(ctx context.Context, userID, from, to string) ([]model.MileageEntry, error)
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
