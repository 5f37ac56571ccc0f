// Package tzformat renders instants as wall-clock strings in a user's zone.
// Formatting never fails: unknown zones are rendered in the fallback zone.
package tzformat

import (
	"sync"
	"time"

	"github.com/Tiliavir/nanny-time-tracker/internal/zone"
)

const (
	clockLayout    = "03:04:05 PM"
	dateLayout     = "Jan 2, 2006"
	dateTimeLayout = "Jan 2, 2006, 03:04 PM"
)

// Formatter formats instants using a zone resolver.
type Formatter struct {
	zones *zone.Resolver
}

// New returns a Formatter backed by zones.
func New(zones *zone.Resolver) *Formatter {
	return &Formatter{zones: zones}
}

// ClockTime renders t as "08:00:00 AM".
func (f *Formatter) ClockTime(t time.Time, zoneID string) string {
	return f.in(t, zoneID).Format(clockLayout)
}

// CalendarDate renders t as "Jan 15, 2024".
func (f *Formatter) CalendarDate(t time.Time, zoneID string) string {
	return f.in(t, zoneID).Format(dateLayout)
}

// DateTime renders t as "Jan 15, 2024, 08:00 AM".
func (f *Formatter) DateTime(t time.Time, zoneID string) string {
	return f.in(t, zoneID).Format(dateTimeLayout)
}

func (f *Formatter) in(t time.Time, zoneID string) time.Time {
	loc, _ := f.zones.Resolve(zoneID)
	return t.In(loc)
}

var (
	defaultOnce sync.Once
	defaultFmt  *Formatter
)

func std() *Formatter {
	defaultOnce.Do(func() {
		defaultFmt = New(zone.NewResolver(zone.DefaultZone))
	})
	return defaultFmt
}

// ClockTime formats t with the package default formatter.
func ClockTime(t time.Time, zoneID string) string { return std().ClockTime(t, zoneID) }

// CalendarDate formats t with the package default formatter.
func CalendarDate(t time.Time, zoneID string) string { return std().CalendarDate(t, zoneID) }

// DateTime formats t with the package default formatter.
func DateTime(t time.Time, zoneID string) string { return std().DateTime(t, zoneID) }
