package calendar

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Tiliavir/nanny-time-tracker/internal/logger"
	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/timecalc"
)

// ShiftStore is the part of the record store the import writes to.
type ShiftStore interface {
	ShiftByExternalID(ctx context.Context, userID, externalID string) (*model.Shift, error)
	UpsertShift(ctx context.Context, sh model.Shift) (model.Shift, error)
}

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Updated  int
	Filtered int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	UserID string
	DryRun bool
	// Category, when set, limits the import to events carrying it.
	Category string
	// Location is the zone event times are read in when they carry no offset.
	Location *time.Location
	// Out receives one progress line per event. Nil discards them.
	Out io.Writer
}

// parseGraphTime parses a Graph dateTime. Graph omits the zone suffix when a
// Prefer: outlook.timezone header is set, so those are read in loc.
func parseGraphTime(dt string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	// Graph returns fractional seconds: "2026-02-27T09:00:00.0000000"
	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// buildNotes combines subject, bodyPreview and location into shift notes.
func buildNotes(event Event) *string {
	var parts []string
	for _, p := range []string{event.Subject, event.BodyPreview, event.Location.DisplayName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	s := strings.Join(parts, "\n")
	return &s
}

// shouldSkip returns true if the event is not working time.
func shouldSkip(event Event, category string) bool {
	switch {
	case event.IsCancelled, event.IsAllDay:
		return true
	case event.Sensitivity == "private":
		return true
	case event.ShowAs == "free":
		return true
	case event.Start.DateTime == "" || event.End.DateTime == "":
		return true
	case category != "" && !hasCategory(event, category):
		return true
	}
	return false
}

func hasCategory(event Event, category string) bool {
	for _, c := range event.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// MapEventToShift converts a Graph event into a closed manual shift.
func MapEventToShift(event Event, userID string, loc *time.Location) (model.Shift, error) {
	start, err := parseGraphTime(event.Start.DateTime, loc)
	if err != nil {
		return model.Shift{}, fmt.Errorf("parsing start time: %w", err)
	}
	end, err := parseGraphTime(event.End.DateTime, loc)
	if err != nil {
		return model.Shift{}, fmt.Errorf("parsing end time: %w", err)
	}
	if end.Before(start) {
		return model.Shift{}, fmt.Errorf("event ends before it starts")
	}

	start = start.UTC().Truncate(time.Second)
	end = end.UTC().Truncate(time.Second)
	return model.Shift{
		UserID:      userID,
		ClockIn:     start,
		ClockOut:    &end,
		ManualEntry: true,
		ExternalID:  event.ID,
		Notes:       buildNotes(event),
	}, nil
}

func sameShift(a, b model.Shift) bool {
	if !a.ClockIn.Equal(b.ClockIn) || a.ClockOut == nil || b.ClockOut == nil || !a.ClockOut.Equal(*b.ClockOut) {
		return false
	}
	switch {
	case a.Notes == nil && b.Notes == nil:
		return true
	case a.Notes == nil || b.Notes == nil:
		return false
	}
	return *a.Notes == *b.Notes
}

// SyncEvents imports events as shifts, updating shifts imported earlier from
// the same event and leaving everything else alone.
func SyncEvents(ctx context.Context, store ShiftStore, events []Event, opts SyncOptions) (SyncResult, error) {
	log := logger.Named("calendar")
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	var result SyncResult
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if shouldSkip(event, opts.Category) {
			log.Debug().Str("event", event.ID).Str("subject", event.Subject).Msg("event filtered")
			result.Filtered++
			continue
		}

		shift, err := MapEventToShift(event, opts.UserID, opts.Location)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}
		dur := timecalc.FormatDuration(timecalc.ElapsedSeconds(shift.ClockIn, *shift.ClockOut))

		found, err := store.ShiftByExternalID(ctx, opts.UserID, event.ID)
		if err != nil {
			fmt.Fprintf(out, "  ! Error loading %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}

		if found != nil {
			if sameShift(*found, shift) {
				fmt.Fprintf(out, "  – Skipped:  %s (already exists)\n", event.Subject)
				result.Skipped++
				continue
			}
			// Keep the stored id and any break entered since the last import.
			shift.ID = found.ID
			shift.BreakMinutes = found.BreakMinutes
			if !opts.DryRun {
				if _, err := store.UpsertShift(ctx, shift); err != nil {
					fmt.Fprintf(out, "  ! Error updating %q: %v\n", event.Subject, err)
					result.Errors++
					continue
				}
			}
			fmt.Fprintf(out, "  ↑ Updated:  %s (%s)\n", event.Subject, dur)
			result.Updated++
			continue
		}

		if !opts.DryRun {
			if _, err := store.UpsertShift(ctx, shift); err != nil {
				fmt.Fprintf(out, "  ! Error saving %q: %v\n", event.Subject, err)
				result.Errors++
				continue
			}
		}
		fmt.Fprintf(out, "  ✓ Imported: %s (%s)\n", event.Subject, dur)
		result.Imported++
	}

	return result, nil
}
