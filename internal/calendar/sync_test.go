package calendar_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/nanny-time-tracker/internal/calendar"
	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/storage"
)

func makeEvent(id, subject, start, end string) calendar.Event {
	return calendar.Event{
		ID:          id,
		Subject:     subject,
		Sensitivity: "normal",
		ShowAs:      "busy",
		Start:       calendar.Instant{DateTime: start, TimeZone: "UTC"},
		End:         calendar.Instant{DateTime: end, TimeZone: "UTC"},
	}
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	ctx := context.Background()
	s, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "ntt.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func storedShifts(t *testing.T, s *storage.Store) []model.Shift {
	t.Helper()
	shifts, err := s.ClosedShiftsSince(context.Background(), "me", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ClosedShiftsSince: %v", err)
	}
	return shifts
}

func TestMapEventToShift(t *testing.T) {
	event := makeEvent("ext-id-1", "Afternoon with the kids", "2026-02-27T13:00:00.0000000", "2026-02-27T18:30:00.0000000")
	shift, err := calendar.MapEventToShift(event, "me", time.UTC)
	if err != nil {
		t.Fatalf("MapEventToShift: %v", err)
	}
	if shift.ExternalID != "ext-id-1" {
		t.Errorf("ExternalID = %q, want %q", shift.ExternalID, "ext-id-1")
	}
	if !shift.ManualEntry {
		t.Error("imported shift should be a manual entry")
	}
	if shift.Notes == nil || *shift.Notes != "Afternoon with the kids" {
		t.Errorf("Notes = %v, want subject", shift.Notes)
	}
	if shift.ClockOut == nil || shift.ClockOut.Sub(shift.ClockIn) != 5*time.Hour+30*time.Minute {
		t.Errorf("duration = %v, want 5h30m", shift.ClockOut)
	}
}

func TestMapEventToShift_Zone(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatal(err)
	}
	event := makeEvent("ext-id-1", "Morning", "2026-02-27T08:00:00", "2026-02-27T12:00:00")
	shift, err := calendar.MapEventToShift(event, "me", loc)
	if err != nil {
		t.Fatalf("MapEventToShift: %v", err)
	}
	want := time.Date(2026, 2, 27, 14, 0, 0, 0, time.UTC)
	if !shift.ClockIn.Equal(want) {
		t.Errorf("ClockIn = %v, want %v", shift.ClockIn, want)
	}
}

func TestMapEventToShift_WithLocation(t *testing.T) {
	event := makeEvent("ext-id-2", "Swim lesson", "2026-02-27T10:00:00", "2026-02-27T11:00:00")
	event.BodyPreview = "Bring towels"
	event.Location.DisplayName = "YMCA"

	shift, err := calendar.MapEventToShift(event, "me", time.UTC)
	if err != nil {
		t.Fatalf("MapEventToShift: %v", err)
	}
	if shift.Notes == nil || *shift.Notes != "Swim lesson\nBring towels\nYMCA" {
		t.Errorf("Notes = %v, want subject, body and location", shift.Notes)
	}
}

func TestMapEventToShift_EndBeforeStart(t *testing.T) {
	event := makeEvent("x", "Backwards", "2026-02-27T11:00:00", "2026-02-27T10:00:00")
	if _, err := calendar.MapEventToShift(event, "me", time.UTC); err == nil {
		t.Fatal("expected error for event ending before it starts")
	}
}

func TestSyncEvents_Import(t *testing.T) {
	s := openStore(t)
	events := []calendar.Event{
		makeEvent("ext-1", "Nanny shift", "2026-02-27T09:00:00", "2026-02-27T17:00:00"),
	}
	var out bytes.Buffer

	result, err := calendar.SyncEvents(context.Background(), s, events, calendar.SyncOptions{UserID: "me", Location: time.UTC, Out: &out})
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("Imported = %d, want 1", result.Imported)
	}
	if !strings.Contains(out.String(), "Imported: Nanny shift (8h 0m)") {
		t.Errorf("progress output = %q", out.String())
	}

	shifts := storedShifts(t, s)
	if len(shifts) != 1 {
		t.Fatalf("shifts = %d, want 1", len(shifts))
	}
	if shifts[0].ExternalID != "ext-1" {
		t.Errorf("ExternalID = %q, want %q", shifts[0].ExternalID, "ext-1")
	}
}

func TestSyncEvents_Idempotent(t *testing.T) {
	s := openStore(t)
	events := []calendar.Event{
		makeEvent("ext-1", "Nanny shift", "2026-02-27T09:00:00", "2026-02-27T17:00:00"),
	}
	opts := calendar.SyncOptions{UserID: "me", Location: time.UTC}

	r1, err := calendar.SyncEvents(context.Background(), s, events, opts)
	if err != nil {
		t.Fatalf("first SyncEvents: %v", err)
	}
	if r1.Imported != 1 {
		t.Errorf("first sync: Imported = %d, want 1", r1.Imported)
	}

	r2, err := calendar.SyncEvents(context.Background(), s, events, opts)
	if err != nil {
		t.Fatalf("second SyncEvents: %v", err)
	}
	if r2.Imported != 0 {
		t.Errorf("second sync: Imported = %d, want 0 (idempotent)", r2.Imported)
	}
	if r2.Skipped != 1 {
		t.Errorf("second sync: Skipped = %d, want 1", r2.Skipped)
	}
	if n := len(storedShifts(t, s)); n != 1 {
		t.Fatalf("shifts = %d after 2 syncs, want 1", n)
	}
}

func TestSyncEvents_Update(t *testing.T) {
	s := openStore(t)
	event := makeEvent("ext-1", "Nanny shift", "2026-02-27T09:00:00", "2026-02-27T17:00:00")
	opts := calendar.SyncOptions{UserID: "me", Location: time.UTC}

	if _, err := calendar.SyncEvents(context.Background(), s, []calendar.Event{event}, opts); err != nil {
		t.Fatalf("first SyncEvents: %v", err)
	}

	event.End.DateTime = "2026-02-27T18:00:00"
	r2, err := calendar.SyncEvents(context.Background(), s, []calendar.Event{event}, opts)
	if err != nil {
		t.Fatalf("second SyncEvents: %v", err)
	}
	if r2.Updated != 1 {
		t.Errorf("Updated = %d, want 1", r2.Updated)
	}

	shifts := storedShifts(t, s)
	if len(shifts) != 1 {
		t.Fatalf("shifts = %d, want 1", len(shifts))
	}
	want := time.Date(2026, 2, 27, 18, 0, 0, 0, time.UTC)
	if !shifts[0].ClockOut.Equal(want) {
		t.Errorf("ClockOut = %v, want %v", shifts[0].ClockOut, want)
	}
}

func TestSyncEvents_SkipFiltered(t *testing.T) {
	tests := []struct {
		name     string
		category string
		event    calendar.Event
	}{
		{
			name: "cancelled",
			event: func() calendar.Event {
				e := makeEvent("c1", "Cancelled", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
				e.IsCancelled = true
				return e
			}(),
		},
		{
			name: "all-day",
			event: func() calendar.Event {
				e := makeEvent("c2", "All Day", "2026-02-27T00:00:00", "2026-02-28T00:00:00")
				e.IsAllDay = true
				return e
			}(),
		},
		{
			name: "private",
			event: func() calendar.Event {
				e := makeEvent("c3", "Private", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
				e.Sensitivity = "private"
				return e
			}(),
		},
		{
			name: "free",
			event: func() calendar.Event {
				e := makeEvent("c4", "Free Block", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
				e.ShowAs = "free"
				return e
			}(),
		},
		{
			name:     "other category",
			category: "Nanny",
			event: func() calendar.Event {
				e := makeEvent("c5", "Dentist", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
				e.Categories = []string{"Personal"}
				return e
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openStore(t)
			opts := calendar.SyncOptions{UserID: "me", Category: tt.category}
			r, err := calendar.SyncEvents(context.Background(), s, []calendar.Event{tt.event}, opts)
			if err != nil {
				t.Fatalf("SyncEvents: %v", err)
			}
			if r.Imported != 0 || r.Filtered != 1 {
				t.Errorf("%s event: Imported = %d, Filtered = %d; want 0, 1", tt.name, r.Imported, r.Filtered)
			}
		})
	}
}

func TestSyncEvents_CategoryMatch(t *testing.T) {
	s := openStore(t)
	e := makeEvent("n1", "Nanny shift", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
	e.Categories = []string{"nanny"}

	r, err := calendar.SyncEvents(context.Background(), s, []calendar.Event{e}, calendar.SyncOptions{UserID: "me", Category: "Nanny"})
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if r.Imported != 1 {
		t.Errorf("Imported = %d, want 1", r.Imported)
	}
}

func TestSyncEvents_DryRun(t *testing.T) {
	s := openStore(t)
	events := []calendar.Event{
		makeEvent("ext-dry", "Dry Run Event", "2026-02-27T09:00:00", "2026-02-27T10:00:00"),
	}

	result, err := calendar.SyncEvents(context.Background(), s, events, calendar.SyncOptions{UserID: "me", DryRun: true})
	if err != nil {
		t.Fatalf("SyncEvents dry-run: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("dry-run Imported = %d, want 1", result.Imported)
	}
	if n := len(storedShifts(t, s)); n != 0 {
		t.Errorf("dry-run wrote %d shifts, want 0", n)
	}
}

func TestSyncEvents_PreservesManualShifts(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	in := time.Date(2026, 2, 27, 7, 0, 0, 0, time.UTC)
	out := in.Add(time.Hour)
	if _, err := s.UpsertShift(ctx, model.Shift{UserID: "me", ClockIn: in, ClockOut: &out, ManualEntry: true}); err != nil {
		t.Fatalf("inserting manual shift: %v", err)
	}

	events := []calendar.Event{
		makeEvent("ext-1", "Afternoon", "2026-02-27T13:00:00", "2026-02-27T17:00:00"),
	}
	if _, err := calendar.SyncEvents(ctx, s, events, calendar.SyncOptions{UserID: "me"}); err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}

	shifts := storedShifts(t, s)
	if len(shifts) != 2 {
		t.Fatalf("shifts = %d, want 2 (manual + imported)", len(shifts))
	}
	if shifts[0].ExternalID != "" || !shifts[0].ClockIn.Equal(in) {
		t.Errorf("manual shift changed: %+v", shifts[0])
	}
}
