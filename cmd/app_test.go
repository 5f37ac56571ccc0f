package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/nanny-time-tracker/internal/storage"
	"github.com/Tiliavir/nanny-time-tracker/internal/tracker"
)

// stubExit replaces os.Exit for the test and returns the recorded codes.
func stubExit(t *testing.T) *[]int {
	t.Helper()
	var codes []int
	osExit = func(code int) { codes = append(codes, code) }
	t.Cleanup(func() {
		osExit = os.Exit
		exitRuns = nil
	})
	return &codes
}

func TestFailClosesStoreBeforeExit(t *testing.T) {
	codes := stubExit(t)
	ctx := context.Background()
	s, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "ntt.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))

	a := &app{store: s}
	atExit(a.close)
	fail(errors.New("boom"))

	assert.Equal(t, []int{2}, *codes)
	_, err = s.ActiveShift(ctx, "me")
	assert.ErrorContains(t, err, "database is closed")

	// The deferred close in a command must not panic afterwards.
	a.close()
}

func TestFailExitCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrShiftActive, 1},
		{fmt.Errorf("clocking out: %w", storage.ErrNoActiveShift), 1},
		{storage.ErrNotMember, 1},
		{storage.ErrAlreadyMember, 1},
		{tracker.ErrInvalidBreak, 1},
		{storage.ErrNotConfigured, 2},
		{errors.New("disk full"), 2},
	}
	for _, tt := range tests {
		codes := stubExit(t)
		fail(tt.err)
		assert.Equal(t, []int{tt.want}, *codes, tt.err.Error())
	}
}

func TestExitRunsCleanupsNewestFirst(t *testing.T) {
	codes := stubExit(t)
	var order []string
	atExit(func() { order = append(order, "first") })
	atExit(func() { order = append(order, "second") })

	usageFail("bad flag %q", "--x")

	assert.Equal(t, []string{"second", "first"}, order)
	assert.Equal(t, []int{1}, *codes)
	assert.Empty(t, exitRuns)
}
