package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/timecalc"
	"github.com/Tiliavir/nanny-time-tracker/internal/tracker"
	"github.com/Tiliavir/nanny-time-tracker/internal/tzformat"
)

var (
	listToday bool
	listWeek  bool
	listMonth bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List shifts",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listToday, "today", false, "Show today's shifts (default)")
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Show this week's shifts")
	listCmd.Flags().BoolVar(&listMonth, "month", false, "Show this month's shifts")
}

// periodRange returns the local day, week or month containing now.
func periodRange(now time.Time, loc *time.Location, week, month bool) (time.Time, time.Time) {
	switch {
	case month:
		return timecalc.MonthRange(now, loc, 0)
	case week:
		return timecalc.WeekRange(now, loc)
	default:
		start := timecalc.Boundaries(now, loc).StartOfDay
		return start, timecalc.Boundaries(start.In(loc).Add(36*time.Hour), loc).StartOfDay
	}
}

func loadShifts(ctx context.Context, a *app, week, month bool) ([]model.Shift, tracker.Zone) {
	z := a.svc.Zone(ctx, a.user)
	from, to := periodRange(time.Now(), z.Location, week, month)
	shifts, err := a.store.ShiftsBetween(ctx, a.user, from, to)
	if err != nil {
		fail(err)
	}
	return shifts, z
}

func runList(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd.Context())
	defer a.close()

	shifts, z := loadShifts(cmd.Context(), a, listWeek, listMonth)
	printList(os.Stdout, a.format, shifts, z.Name(), time.Now())
	return nil
}

// printList groups shifts by local date and prints them.
func printList(w io.Writer, f *tzformat.Formatter, shifts []model.Shift, zoneID string, now time.Time) {
	if len(shifts) == 0 {
		fmt.Fprintln(w, "No shifts found.")
		return
	}

	var currentDay string
	for _, s := range shifts {
		day := f.CalendarDate(s.ClockIn, zoneID)
		if day != currentDay {
			fmt.Fprintln(w, day)
			currentDay = day
		}

		startStr := f.ClockTime(s.ClockIn, zoneID)
		endStr := "ongoing"
		if s.ClockOut != nil {
			endStr = f.ClockTime(*s.ClockOut, zoneID)
		}
		durStr := fmt.Sprintf(" (%s)", timecalc.FormatDuration(timecalc.WorkedSeconds(s, now)))

		extra := ""
		if s.BreakMinutes > 0 {
			extra += fmt.Sprintf("  break %dm", s.BreakMinutes)
		}
		if s.ExternalID != "" {
			extra += "  [outlook]"
		}
		if s.Notes != nil {
			extra += "  " + firstLine(*s.Notes)
		}

		fmt.Fprintf(w, "  %s–%s%s%s\n", startStr, endStr, durStr, extra)
	}
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i] + " …"
		}
	}
	return s
}
