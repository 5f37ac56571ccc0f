package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/timecalc"
)

var (
	exportFormat string
	exportMonth  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export this week's shifts to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
	exportCmd.Flags().BoolVar(&exportMonth, "month", false, "Export this month instead of this week")
}

func runExport(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd.Context())
	defer a.close()

	shifts, z := loadShifts(cmd.Context(), a, !exportMonth, exportMonth)
	now := time.Now()

	switch exportFormat {
	case "json":
		data, err := json.MarshalIndent(shifts, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error encoding JSON:", err)
			exit(2)
		}
		fmt.Println(string(data))
	case "md":
		printList(os.Stdout, a.format, shifts, z.Name(), now)
	default: // csv
		printCSV(os.Stdout, shifts, z.Location, now)
	}
	return nil
}

func printCSV(w io.Writer, shifts []model.Shift, loc *time.Location, now time.Time) {
	fmt.Fprintln(w, "date,clock_in,clock_out,break_minutes,worked_minutes,source,notes")
	for _, s := range shifts {
		date := s.ClockIn.In(loc).Format("2006-01-02")
		endStr := ""
		if s.ClockOut != nil {
			endStr = s.ClockOut.In(loc).Format(time.RFC3339)
		}
		source := "clock"
		switch {
		case s.ExternalID != "":
			source = "outlook"
		case s.ManualEntry:
			source = "manual"
		}
		notes := ""
		if s.Notes != nil {
			notes = *s.Notes
		}
		fmt.Fprintf(w, "%s,%s,%s,%d,%d,%s,%s\n",
			csvEscape(date),
			csvEscape(s.ClockIn.In(loc).Format(time.RFC3339)),
			csvEscape(endStr),
			s.BreakMinutes,
			timecalc.WorkedSeconds(s, now)/60,
			source,
			csvEscape(notes),
		)
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
