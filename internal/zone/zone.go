// Package zone resolves user time zone identifiers to locations.
//
// Resolution never fails: an unknown or empty identifier falls back to the
// configured default zone, then to the zone detected on this machine, and
// finally to UTC.
package zone

import (
	"os"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/Tiliavir/nanny-time-tracker/internal/logger"
)

// DefaultZone is used when neither the user nor the config names a zone.
const DefaultZone = "America/New_York"

// Resolver turns zone identifiers into locations with fallbacks.
type Resolver struct {
	fallback string
	cache    *otter.Cache[string, *time.Location]
}

// NewResolver returns a Resolver falling back to fallback (DefaultZone when
// empty or invalid).
func NewResolver(fallback string) *Resolver {
	r := &Resolver{
		cache: otter.Must(&otter.Options[string, *time.Location]{
			MaximumSize: 512,
		}),
	}
	if _, ok := r.load(fallback); !ok {
		if fallback != "" {
			logger.Named("zone").Warn().Str("zone", fallback).Str("using", DefaultZone).
				Msg("configured default zone is invalid")
		}
		fallback = DefaultZone
	}
	r.fallback = fallback
	return r
}

// Fallback returns the zone identifier used for unknown zones.
func (r *Resolver) Fallback() string {
	return r.fallback
}

// Resolve returns the location for id. ok is false when a fallback was used.
func (r *Resolver) Resolve(id string) (*time.Location, bool) {
	if loc, ok := r.load(id); ok {
		return loc, true
	}
	log := logger.Named("zone")
	if id != "" {
		log.Debug().Str("zone", id).Str("fallback", r.fallback).Msg("invalid zone, using fallback")
	}
	if loc, ok := r.load(r.fallback); ok {
		return loc, false
	}
	if name := Detect(); name != "" {
		if loc, ok := r.load(name); ok {
			return loc, false
		}
	}
	log.Warn().Str("zone", id).Msg("no usable zone found, using UTC")
	return time.UTC, false
}

// Name resolves id and returns the identifier that was actually used.
func (r *Resolver) Name(id string) string {
	loc, _ := r.Resolve(id)
	return loc.String()
}

func (r *Resolver) load(id string) (*time.Location, bool) {
	id = strings.TrimSpace(id)
	// "Local" would silently follow the machine zone; it is not a user zone.
	if id == "" || id == "Local" {
		return nil, false
	}
	if loc, ok := r.cache.GetIfPresent(id); ok {
		return loc, true
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, false
	}
	r.cache.Set(id, loc)
	return loc, true
}

// Valid reports whether id names a loadable zone.
func Valid(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || id == "Local" {
		return false
	}
	_, err := time.LoadLocation(id)
	return err == nil
}

// Detect returns the IANA name of the machine's zone, or "" if unknown.
// It tries time.Local, $TZ and the /etc/localtime symlink in that order.
func Detect() string {
	if name := time.Local.String(); name != "Local" && name != "" && Valid(name) {
		return name
	}
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" && Valid(tz) {
		return tz
	}
	if link, err := os.Readlink("/etc/localtime"); err == nil {
		if parts := strings.SplitN(link, "/zoneinfo/", 2); len(parts) == 2 && Valid(parts[1]) {
			return parts[1]
		}
	}
	return ""
}
