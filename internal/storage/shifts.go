package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
)

const shiftColumns = `id, user_id, clock_in, clock_out, break_duration, manual_entry, external_id, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (model.Shift, error) {
	var (
		s          model.Shift
		clockOut   sql.NullTime
		externalID sql.NullString
		notes      sql.NullString
	)
	err := row.Scan(&s.ID, &s.UserID, &s.ClockIn, &clockOut, &s.BreakMinutes, &s.ManualEntry,
		&externalID, &notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Shift{}, err
	}
	s.ClockIn = s.ClockIn.UTC()
	s.ClockOut = timePtr(clockOut)
	s.ExternalID = externalID.String
	s.Notes = stringPtr(notes)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

func (s *Store) queryShifts(ctx context.Context, op, query string, args ...any) ([]model.Shift, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, wrap(err, op)
	}
	defer rows.Close()

	var shifts []model.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, wrap(err, op)
		}
		shifts = append(shifts, sh)
	}
	return shifts, wrap(rows.Err(), op)
}

// ClockIn opens a new shift at the given instant. It fails with
// ErrShiftActive if the user already has an open shift.
func (s *Store) ClockIn(ctx context.Context, userID string, at time.Time, notes *string) (model.Shift, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Shift{}, wrap(err, "starting clock-in")
	}
	defer func() { _ = tx.Rollback() }()

	var open int
	err = tx.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(*) FROM time_entries WHERE user_id = ? AND clock_out IS NULL`),
		userID).Scan(&open)
	if err != nil {
		return model.Shift{}, wrap(err, "checking open shift")
	}
	if open > 0 {
		return model.Shift{}, ErrShiftActive
	}

	now := ts(time.Now())
	sh := model.Shift{
		ID:        uuid.NewString(),
		UserID:    userID,
		ClockIn:   ts(at),
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO time_entries (`+shiftColumns+`)
		VALUES (?, ?, ?, NULL, 0, ?, NULL, ?, ?, ?)`),
		sh.ID, sh.UserID, sh.ClockIn, false, nullString(notes), sh.CreatedAt, sh.UpdatedAt)
	if err != nil {
		// The partial unique index catches a concurrent clock-in.
		if isUniqueViolation(err) {
			return model.Shift{}, ErrShiftActive
		}
		return model.Shift{}, wrap(err, "clocking in")
	}
	if err := tx.Commit(); err != nil {
		return model.Shift{}, wrap(err, "committing clock-in")
	}
	return sh, nil
}

// ClockOut closes the user's open shift at the given instant, recording the
// break taken. Notes, when non-nil, are appended to any existing notes.
func (s *Store) ClockOut(ctx context.Context, userID string, at time.Time, breakMinutes int, notes *string) (model.Shift, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Shift{}, wrap(err, "starting clock-out")
	}
	defer func() { _ = tx.Rollback() }()

	sh, err := scanShift(tx.QueryRowContext(ctx, s.rebind(`SELECT `+shiftColumns+`
		FROM time_entries WHERE user_id = ? AND clock_out IS NULL
		ORDER BY clock_in DESC LIMIT 1`), userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Shift{}, ErrNoActiveShift
	}
	if err != nil {
		return model.Shift{}, wrap(err, "loading open shift")
	}

	if notes != nil && *notes != "" {
		if sh.Notes != nil && *sh.Notes != "" {
			merged := *sh.Notes + "\n" + *notes
			sh.Notes = &merged
		} else {
			sh.Notes = notes
		}
	}
	end := ts(at)
	sh.ClockOut = &end
	sh.BreakMinutes = breakMinutes
	sh.UpdatedAt = ts(time.Now())

	_, err = tx.ExecContext(ctx, s.rebind(`UPDATE time_entries
		SET clock_out = ?, break_duration = ?, notes = ?, updated_at = ?
		WHERE id = ?`),
		end, breakMinutes, nullString(sh.Notes), sh.UpdatedAt, sh.ID)
	if err != nil {
		return model.Shift{}, wrap(err, "clocking out")
	}
	if err := tx.Commit(); err != nil {
		return model.Shift{}, wrap(err, "committing clock-out")
	}
	return sh, nil
}

// ActiveShift returns the user's open shift, or nil if there is none.
func (s *Store) ActiveShift(ctx context.Context, userID string) (*model.Shift, error) {
	sh, err := scanShift(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+shiftColumns+`
		FROM time_entries WHERE user_id = ? AND clock_out IS NULL
		ORDER BY clock_in DESC LIMIT 1`), userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "loading open shift")
	}
	return &sh, nil
}

// ClosedShiftsSince returns the user's closed shifts that started at or after since.
func (s *Store) ClosedShiftsSince(ctx context.Context, userID string, since time.Time) ([]model.Shift, error) {
	return s.queryShifts(ctx, "loading closed shifts", `SELECT `+shiftColumns+`
		FROM time_entries
		WHERE user_id = ? AND clock_out IS NOT NULL AND clock_in >= ?
		ORDER BY clock_in`, userID, ts(since))
}

// ShiftsBetween returns all of the user's shifts, open or closed, that
// started in [from, to).
func (s *Store) ShiftsBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Shift, error) {
	return s.queryShifts(ctx, "loading shifts", `SELECT `+shiftColumns+`
		FROM time_entries
		WHERE user_id = ? AND clock_in >= ? AND clock_in < ?
		ORDER BY clock_in`, userID, ts(from), ts(to))
}

// ShiftByExternalID returns the shift imported from the given external
// source id, or nil.
func (s *Store) ShiftByExternalID(ctx context.Context, userID, externalID string) (*model.Shift, error) {
	sh, err := scanShift(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+shiftColumns+`
		FROM time_entries WHERE user_id = ? AND external_id = ?`), userID, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "loading shift by external id")
	}
	return &sh, nil
}

// UpsertShift inserts a manual or imported shift, or replaces the stored shift
// with the same ID. An empty ID gets a fresh one.
func (s *Store) UpsertShift(ctx context.Context, sh model.Shift) (model.Shift, error) {
	now := ts(time.Now())
	sh.ClockIn = ts(sh.ClockIn)
	sh.UpdatedAt = now

	if sh.ID != "" {
		res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE time_entries
			SET clock_in = ?, clock_out = ?, break_duration = ?, manual_entry = ?, external_id = ?, notes = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`),
			sh.ClockIn, nullTime(sh.ClockOut), sh.BreakMinutes, sh.ManualEntry,
			nullString(optional(sh.ExternalID)), nullString(sh.Notes), sh.UpdatedAt, sh.ID, sh.UserID)
		if err != nil {
			if isUniqueViolation(err) && sh.Open() {
				return model.Shift{}, ErrShiftActive
			}
			return model.Shift{}, wrap(err, "updating shift")
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return sh, nil
		}
	} else {
		sh.ID = uuid.NewString()
	}

	sh.CreatedAt = now
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO time_entries (`+shiftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		sh.ID, sh.UserID, sh.ClockIn, nullTime(sh.ClockOut), sh.BreakMinutes, sh.ManualEntry,
		nullString(optional(sh.ExternalID)), nullString(sh.Notes), sh.CreatedAt, sh.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) && sh.Open() {
			return model.Shift{}, ErrShiftActive
		}
		return model.Shift{}, wrap(err, "saving shift")
	}
	if sh.ClockOut != nil {
		end := ts(*sh.ClockOut)
		sh.ClockOut = &end
	}
	return sh, nil
}

// DeleteShift removes one of the user's shifts.
func (s *Store) DeleteShift(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM time_entries WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return wrap(err, "deleting shift")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
