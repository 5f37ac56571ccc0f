// Package storage persists profiles, shifts, mileage and daily updates in a
// relational database: a local SQLite file or a hosted Postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"

	"github.com/Tiliavir/nanny-time-tracker/internal/logger"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

var (
	// ErrNotConfigured means a table is missing: the database has not been
	// set up (run `ntt init` / Migrate).
	ErrNotConfigured = errors.New("storage not configured: table missing, run `ntt init`")
	// ErrShiftActive is returned when clocking in while a shift is open.
	ErrShiftActive = errors.New("a shift is already in progress")
	// ErrNoActiveShift is returned when clocking out with no open shift.
	ErrNoActiveShift = errors.New("no shift in progress")
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotMember is returned when a user acts on a family they do not belong to.
	ErrNotMember = errors.New("not a member of this family")
	// ErrAlreadyMember is returned when joining a family twice.
	ErrAlreadyMember = errors.New("already a member of this family")
	// ErrInvitePending is returned when an address already has an open invitation.
	ErrInvitePending = errors.New("an invitation for this address is already pending")
	// ErrRoleRequired is returned when joining without a role and without an invitation.
	ErrRoleRequired = errors.New("a role is required when there is no pending invitation")
)

const (
	pgUndefinedTable  = "42P01"
	pgUniqueViolation = "23505"
)

// Store is a database-backed record store.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database named by driver and dsn and verifies the
// connection, retrying transient failures. For sqlite3 an empty dsn is not
// allowed; callers pass a file path.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	log := logger.Named("storage")

	switch driver {
	case DriverSQLite:
		if dsn == "" {
			return nil, fmt.Errorf("storage error: empty sqlite path")
		}
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
				return nil, fmt.Errorf("storage error creating directories: %w", err)
			}
		}
		dsn = "file:" + dsn + "?_foreign_keys=on&_busy_timeout=5000"
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("storage error: pgx driver needs a postgres:// DSN")
		}
	default:
		return nil, fmt.Errorf("storage error: unsupported driver %q (want %s or %s)", driver, DriverSQLite, DriverPostgres)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage error opening %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer keeps SQLite from returning SQLITE_BUSY between our own connections.
		db.SetMaxOpenConns(1)
	}

	err = retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(4),
		retry.Delay(250*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Uint("attempt", n+1).Str("driver", driver).Err(err).Msg("retrying database ping")
		}),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage error connecting to %s: %w", driver, err)
	}

	log.Debug().Str("driver", driver).Msg("database connected")
	return &Store{db: db, driver: driver}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the database driver name.
func (s *Store) Driver() string {
	return s.driver
}

// rebind turns ? placeholders into $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// wrap classifies driver errors into the package's sentinel errors.
func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if isUndefinedTable(err) {
		return fmt.Errorf("storage error %s: %w", op, ErrNotConfigured)
	}
	return fmt.Errorf("storage error %s: %w", op, err)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedTable
	}
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return strings.HasPrefix(sqlErr.Error(), "no such table")
	}
	return strings.Contains(err.Error(), "no such table")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// ts normalises instants before they are written: UTC, whole seconds.
func ts(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: ts(*t), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time.UTC()
	return &v
}
