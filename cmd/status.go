package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/timecalc"
	"github.com/Tiliavir/nanny-time-tracker/internal/tracker"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running shift",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Keep the elapsed time ticking until interrupted")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := mustApp(ctx)
	defer a.close()

	st, err := a.svc.Status(ctx, a.user)
	if err != nil {
		fail(err)
	}

	if st.Active == nil {
		r, err := a.svc.Summary(ctx, a.user)
		if err != nil {
			fail(err)
		}
		fmt.Println("Not clocked in.")
		fmt.Printf("Today: %s worked.\n", timecalc.FormatDuration(r.TodaySeconds))
		return nil
	}

	zoneID := st.Zone.Name()
	color.New(color.FgGreen, color.Bold).Println("Clocked in")
	fmt.Printf("  Since:   %s\n", a.format.DateTime(st.Active.ClockIn, zoneID))
	if st.Active.Notes != nil {
		fmt.Printf("  Notes:   %s\n", *st.Active.Notes)
	}
	if !statusWatch {
		fmt.Printf("  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(st.ElapsedSeconds))
		return nil
	}

	watchElapsed(ctx, os.Stdout, a.svc, *st.Active, time.Second)
	fmt.Println()
	return nil
}

// watchElapsed rewrites the elapsed line every interval until ctx is done.
func watchElapsed(ctx context.Context, w io.Writer, svc *tracker.Service, sh model.Shift, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		fmt.Fprintf(w, "\r  Elapsed: %s", timecalc.FormatDurationHHMMSS(svc.Elapsed(sh)))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
