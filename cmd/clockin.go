package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clockInNotes string

var clockInCmd = &cobra.Command{
	Use:     "clockin",
	Aliases: []string{"in"},
	Short:   "Start a shift",
	Args:    cobra.NoArgs,
	RunE:    runClockIn,
}

func init() {
	clockInCmd.Flags().StringVar(&clockInNotes, "notes", "", "Optional note for the shift")
}

func runClockIn(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd.Context())
	defer a.close()

	sh, err := a.svc.ClockIn(cmd.Context(), a.user, optionalString(clockInNotes))
	if err != nil {
		fail(err)
	}

	z := a.svc.Zone(cmd.Context(), a.user)
	fmt.Printf("Clocked in at %s (%s)\n", a.format.ClockTime(sh.ClockIn, z.Name()), z.Name())
	return nil
}
