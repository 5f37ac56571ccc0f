package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/nanny-time-tracker/internal/zone"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "List suggested time zones",
	Long: `zones lists common time zones. Any IANA zone name is accepted by
ntt profile set --timezone, not only these.`,
	Args: cobra.NoArgs,
	RunE: runZones,
}

func runZones(cmd *cobra.Command, args []string) error {
	printZones(os.Stdout, zone.Options(), zone.Detect(), time.Now())
	return nil
}

func printZones(w io.Writer, options []zone.Option, detected string, now time.Time) {
	var region string
	for _, o := range options {
		if o.Region != region {
			fmt.Fprintln(w, o.Region)
			region = o.Region
		}
		offset := ""
		if loc, err := time.LoadLocation(o.Value); err == nil {
			offset = now.In(loc).Format("-07:00")
		}
		marker := ""
		if o.Value == detected {
			marker = "  (this machine)"
		}
		fmt.Fprintf(w, "  %-22s%-22s%s%s\n", o.Value, o.Label, offset, marker)
	}
	if detected != "" && zone.Info(detected, now).Region == "Other" {
		fmt.Fprintf(w, "\nThis machine: %s\n", zone.Info(detected, now).Label)
	}
}
