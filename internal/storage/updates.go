package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
)

// AddDailyUpdate stores a new update and returns it with its ID set.
func (s *Store) AddDailyUpdate(ctx context.Context, u model.DailyUpdate) (model.DailyUpdate, error) {
	u.ID = uuid.NewString()
	u.CreatedAt = ts(time.Now())
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO daily_updates
		(id, user_id, message, photo_url, update_type, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.UserID, nullString(u.Message), nullString(u.PhotoPath), string(u.Type), u.Date, u.CreatedAt)
	if err != nil {
		return model.DailyUpdate{}, wrap(err, "adding daily update")
	}
	return u, nil
}

// DailyUpdates returns the user's latest updates, newest first.
func (s *Store) DailyUpdates(ctx context.Context, userID string, limit int) ([]model.DailyUpdate, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, user_id, message, photo_url, update_type, date, created_at
		FROM daily_updates WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?`), userID, limit)
	if err != nil {
		return nil, wrap(err, "loading daily updates")
	}
	defer rows.Close()

	var out []model.DailyUpdate
	for rows.Next() {
		var (
			u          model.DailyUpdate
			msg, photo sql.NullString
			kind       string
		)
		if err := rows.Scan(&u.ID, &u.UserID, &msg, &photo, &kind, &u.Date, &u.CreatedAt); err != nil {
			return nil, wrap(err, "loading daily updates")
		}
		u.Message = stringPtr(msg)
		u.PhotoPath = stringPtr(photo)
		u.Type = model.UpdateType(kind)
		u.CreatedAt = u.CreatedAt.UTC()
		out = append(out, u)
	}
	return out, wrap(rows.Err(), "loading daily updates")
}
