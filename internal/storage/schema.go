package storage

import (
	"context"
	"fmt"
	"strings"
)

// column types that differ between the two dialects
type dialect struct {
	timestamp string
	real      string
	boolean   string
}

var dialects = map[string]dialect{
	DriverSQLite:   {timestamp: "TIMESTAMP", real: "REAL", boolean: "BOOLEAN"},
	DriverPostgres: {timestamp: "TIMESTAMPTZ", real: "DOUBLE PRECISION", boolean: "BOOLEAN"},
}

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id                   TEXT PRIMARY KEY,
	first_name           TEXT NOT NULL DEFAULT '',
	last_name            TEXT NOT NULL DEFAULT '',
	hourly_rate          {{real}},
	timezone             TEXT NOT NULL DEFAULT '',
	pto_balance_vacation {{real}} NOT NULL DEFAULT 0,
	pto_balance_sick     {{real}} NOT NULL DEFAULT 0,
	pto_balance_personal {{real}} NOT NULL DEFAULT 0,
	profile_picture_url  TEXT,
	created_at           {{timestamp}} NOT NULL,
	updated_at           {{timestamp}} NOT NULL
);

CREATE TABLE IF NOT EXISTS time_entries (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	clock_in       {{timestamp}} NOT NULL,
	clock_out      {{timestamp}},
	break_duration INTEGER NOT NULL DEFAULT 0 CHECK (break_duration >= 0),
	manual_entry   {{boolean}} NOT NULL DEFAULT FALSE,
	external_id    TEXT,
	notes          TEXT,
	created_at     {{timestamp}} NOT NULL,
	updated_at     {{timestamp}} NOT NULL
);

CREATE INDEX IF NOT EXISTS time_entries_user_clock_in ON time_entries (user_id, clock_in);

CREATE UNIQUE INDEX IF NOT EXISTS time_entries_one_open_shift
	ON time_entries (user_id) WHERE clock_out IS NULL;

CREATE UNIQUE INDEX IF NOT EXISTS time_entries_external_id
	ON time_entries (user_id, external_id);

CREATE TABLE IF NOT EXISTS mileage_entries (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	date           TEXT NOT NULL,
	miles          {{real}} NOT NULL CHECK (miles > 0),
	start_location TEXT NOT NULL DEFAULT '',
	end_location   TEXT NOT NULL DEFAULT '',
	purpose        TEXT NOT NULL DEFAULT '',
	rate_per_mile  {{real}} NOT NULL,
	created_at     {{timestamp}} NOT NULL
);

CREATE INDEX IF NOT EXISTS mileage_entries_user_date ON mileage_entries (user_id, date);

CREATE TABLE IF NOT EXISTS daily_updates (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	message     TEXT,
	photo_url   TEXT,
	update_type TEXT NOT NULL,
	date        TEXT NOT NULL,
	created_at  {{timestamp}} NOT NULL
);

CREATE INDEX IF NOT EXISTS daily_updates_user_created ON daily_updates (user_id, created_at);

CREATE TABLE IF NOT EXISTS families (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	family_code TEXT NOT NULL UNIQUE,
	created_by  TEXT NOT NULL,
	created_at  {{timestamp}} NOT NULL,
	updated_at  {{timestamp}} NOT NULL
);

CREATE TABLE IF NOT EXISTS family_members (
	id          TEXT PRIMARY KEY,
	family_id   TEXT NOT NULL REFERENCES families (id) ON DELETE CASCADE,
	user_id     TEXT NOT NULL,
	role        TEXT NOT NULL CHECK (role IN ('parent', 'nanny')),
	hourly_rate {{real}},
	is_active   {{boolean}} NOT NULL DEFAULT TRUE,
	joined_at   {{timestamp}} NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS family_members_family_user ON family_members (family_id, user_id);

CREATE INDEX IF NOT EXISTS family_members_user ON family_members (user_id);

CREATE TABLE IF NOT EXISTS invitations (
	id          TEXT PRIMARY KEY,
	family_id   TEXT NOT NULL REFERENCES families (id) ON DELETE CASCADE,
	email       TEXT NOT NULL,
	role        TEXT NOT NULL CHECK (role IN ('parent', 'nanny')),
	hourly_rate {{real}},
	invited_by  TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending',
	created_at  {{timestamp}} NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS invitations_one_pending
	ON invitations (family_id, email) WHERE status = 'pending';
`

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	d, ok := dialects[s.driver]
	if !ok {
		return fmt.Errorf("storage error: no schema for driver %q", s.driver)
	}
	ddl := strings.NewReplacer(
		"{{timestamp}}", d.timestamp,
		"{{real}}", d.real,
		"{{boolean}}", d.boolean,
	).Replace(schema)

	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("storage error migrating schema: %w", err)
		}
	}

	// Columns added after the first release.
	for _, c := range []struct{ table, column, typ string }{
		{"profiles", "profile_picture_url", "TEXT"},
	} {
		if err := s.addColumn(ctx, c.table, c.column, c.typ); err != nil {
			return err
		}
	}
	return nil
}

// addColumn adds table.column unless the table already has it.
func (s *Store) addColumn(ctx context.Context, table, column, typ string) error {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+table+" LIMIT 0")
	if err != nil {
		return fmt.Errorf("storage error migrating schema: %w", err)
	}
	cols, err := rows.Columns()
	_ = rows.Close()
	if err != nil {
		return fmt.Errorf("storage error migrating schema: %w", err)
	}
	for _, c := range cols {
		if strings.EqualFold(c, column) {
			return nil
		}
	}
	if _, err := s.db.ExecContext(ctx, "ALTER TABLE "+table+" ADD COLUMN "+column+" "+typ); err != nil {
		return fmt.Errorf("storage error adding %s.%s: %w", table, column, err)
	}
	return nil
}
