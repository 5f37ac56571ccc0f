package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
)

// Profile returns the stored profile for userID, or ErrNotFound.
func (s *Store) Profile(ctx context.Context, userID string) (model.Profile, error) {
	var (
		p       model.Profile
		rate    sql.NullFloat64
		picture sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, first_name, last_name, hourly_rate, timezone,
		pto_balance_vacation, pto_balance_sick, pto_balance_personal, profile_picture_url, created_at, updated_at
		FROM profiles WHERE id = ?`), userID).
		Scan(&p.UserID, &p.FirstName, &p.LastName, &rate, &p.Timezone,
			&p.PTOBalanceVacation, &p.PTOBalanceSick, &p.PTOBalancePersonal, &picture, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, wrap(err, "loading profile")
	}
	if rate.Valid {
		p.HourlyRate = &rate.Float64
	}
	p.PicturePath = stringPtr(picture)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// SaveProfile creates or replaces the profile for p.UserID.
func (s *Store) SaveProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	now := ts(time.Now())
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.CreatedAt = ts(p.CreatedAt)
	p.UpdatedAt = now

	var rate sql.NullFloat64
	if p.HourlyRate != nil {
		rate = sql.NullFloat64{Float64: *p.HourlyRate, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO profiles (id, first_name, last_name, hourly_rate, timezone,
		pto_balance_vacation, pto_balance_sick, pto_balance_personal, profile_picture_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			hourly_rate = excluded.hourly_rate,
			timezone = excluded.timezone,
			pto_balance_vacation = excluded.pto_balance_vacation,
			pto_balance_sick = excluded.pto_balance_sick,
			pto_balance_personal = excluded.pto_balance_personal,
			profile_picture_url = excluded.profile_picture_url,
			updated_at = excluded.updated_at`),
		p.UserID, p.FirstName, p.LastName, rate, p.Timezone,
		p.PTOBalanceVacation, p.PTOBalanceSick, p.PTOBalancePersonal, nullString(p.PicturePath), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return model.Profile{}, wrap(err, "saving profile")
	}
	return p, nil
}

// UserZone returns the zone id stored on the user's profile, or "" when the
// user has no profile or no zone set.
func (s *Store) UserZone(ctx context.Context, userID string) (string, error) {
	var tz string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT timezone FROM profiles WHERE id = ?`), userID).Scan(&tz)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", wrap(err, "loading profile zone")
	}
	return tz, nil
}
