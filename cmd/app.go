package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Tiliavir/nanny-time-tracker/internal/config"
	"github.com/Tiliavir/nanny-time-tracker/internal/logger"
	"github.com/Tiliavir/nanny-time-tracker/internal/storage"
	"github.com/Tiliavir/nanny-time-tracker/internal/tracker"
	"github.com/Tiliavir/nanny-time-tracker/internal/tzformat"
	"github.com/Tiliavir/nanny-time-tracker/internal/zone"
)

// app bundles what a command needs once the database is open.
type app struct {
	dir    string
	user   string
	store  *storage.Store
	zones  *zone.Resolver
	format *tzformat.Formatter
	svc    *tracker.Service

	closeOnce sync.Once
}

// openApp opens the configured store. SQLite databases are migrated on open;
// Postgres needs an explicit `ntt init`.
func openApp(ctx context.Context, migrate bool) (*app, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	dsn := cfg.Database.DSN
	if cfg.Database.Driver == storage.DriverSQLite && dsn == "" {
		dsn = filepath.Join(dir, "ntt.db")
	}
	store, err := storage.Open(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if migrate || store.Driver() == storage.DriverSQLite {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	zones := zone.NewResolver(cfg.Timezone.Default)
	logger.Named("cmd").Debug().Str("driver", store.Driver()).Str("user", cfg.UserID).
		Str("default_zone", zones.Fallback()).Msg("store opened")

	return &app{
		dir:    dir,
		user:   cfg.UserID,
		store:  store,
		zones:  zones,
		format: tzformat.New(zones),
		svc: tracker.NewService(tracker.Deps{
			Records:  store,
			Zones:    store,
			Shifts:   store,
			Mileage:  store,
			Resolver: zones,
		}),
	}, nil
}

// mustApp is openApp for commands: storage errors exit with status 2.
func mustApp(ctx context.Context) *app {
	a, err := openApp(ctx, false)
	if err != nil {
		fail(err)
	}
	atExit(a.close)
	return a
}

func (a *app) close() {
	a.closeOnce.Do(func() { _ = a.store.Close() })
}

// fail prints err and exits: 1 for user errors, 2 for storage errors.
func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	code := 2
	switch {
	case errors.Is(err, storage.ErrShiftActive),
		errors.Is(err, storage.ErrNoActiveShift),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrNotMember),
		errors.Is(err, storage.ErrAlreadyMember),
		errors.Is(err, storage.ErrInvitePending),
		errors.Is(err, storage.ErrRoleRequired),
		errors.Is(err, tracker.ErrInvalidBreak):
		code = 1
	}
	exit(code)
}

// usageFail prints a user error and exits with status 1.
func usageFail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	exit(1)
}

var (
	osExit   = os.Exit
	exitMu   sync.Mutex
	exitRuns []func()
)

// atExit registers fn to run before the process exits through exit.
func atExit(fn func()) {
	exitMu.Lock()
	defer exitMu.Unlock()
	exitRuns = append(exitRuns, fn)
}

// exit runs the registered cleanups, newest first, then ends the process.
func exit(code int) {
	exitMu.Lock()
	runs := exitRuns
	exitRuns = nil
	exitMu.Unlock()

	for i := len(runs) - 1; i >= 0; i-- {
		runs[i]()
	}
	osExit(code)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
