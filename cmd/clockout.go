package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/nanny-time-tracker/internal/timecalc"
)

var (
	clockOutBreak int
	clockOutNotes string
)

var clockOutCmd = &cobra.Command{
	Use:     "clockout",
	Aliases: []string{"out"},
	Short:   "End the running shift",
	Args:    cobra.NoArgs,
	RunE:    runClockOut,
}

func init() {
	clockOutCmd.Flags().IntVar(&clockOutBreak, "break", 0, "Break taken during the shift, in minutes")
	clockOutCmd.Flags().StringVar(&clockOutNotes, "notes", "", "Append a note to the shift")
}

func runClockOut(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd.Context())
	defer a.close()

	sh, err := a.svc.ClockOut(cmd.Context(), a.user, clockOutBreak, optionalString(clockOutNotes))
	if err != nil {
		fail(err)
	}

	elapsed := timecalc.ElapsedSeconds(sh.ClockIn, *sh.ClockOut)
	fmt.Printf("Clocked out. Elapsed: %s", formatElapsed(elapsed))
	if sh.BreakMinutes > 0 {
		fmt.Printf(", break %dm, worked %s", sh.BreakMinutes, formatElapsed(a.svc.Elapsed(sh)))
	}
	fmt.Println()
	return nil
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
