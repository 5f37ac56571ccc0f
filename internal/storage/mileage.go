package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
)

const mileageColumns = `id, user_id, date, miles, start_location, end_location, purpose, rate_per_mile, created_at`

// AddMileage stores a new trip and returns it with its ID set.
func (s *Store) AddMileage(ctx context.Context, m model.MileageEntry) (model.MileageEntry, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = ts(time.Now())
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO mileage_entries (`+mileageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.UserID, m.Date, m.Miles, m.StartLocation, m.EndLocation, m.Purpose, m.RatePerMile, m.CreatedAt)
	if err != nil {
		return model.MileageEntry{}, wrap(err, "adding mileage")
	}
	return m, nil
}

// MileageBetween returns trips dated in [from, to). Dates are YYYY-MM-DD,
// which sort lexically.
func (s *Store) MileageBetween(ctx context.Context, userID, from, to string) ([]model.MileageEntry, error) {
	return s.queryMileage(ctx, `SELECT `+mileageColumns+` FROM mileage_entries
		WHERE user_id = ? AND date >= ? AND date < ?
		ORDER BY date, created_at`, userID, from, to)
}

// RecentMileage returns the user's latest trips, newest first.
func (s *Store) RecentMileage(ctx context.Context, userID string, limit int) ([]model.MileageEntry, error) {
	return s.queryMileage(ctx, `SELECT `+mileageColumns+` FROM mileage_entries
		WHERE user_id = ?
		ORDER BY date DESC, created_at DESC
		LIMIT ?`, userID, limit)
}

func (s *Store) queryMileage(ctx context.Context, query string, args ...any) ([]model.MileageEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, wrap(err, "loading mileage")
	}
	defer rows.Close()

	var out []model.MileageEntry
	for rows.Next() {
		var m model.MileageEntry
		if err := rows.Scan(&m.ID, &m.UserID, &m.Date, &m.Miles, &m.StartLocation, &m.EndLocation,
			&m.Purpose, &m.RatePerMile, &m.CreatedAt); err != nil {
			return nil, wrap(err, "loading mileage")
		}
		m.CreatedAt = m.CreatedAt.UTC()
		out = append(out, m)
	}
	return out, wrap(rows.Err(), "loading mileage")
}
