package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Tiliavir/nanny-time-tracker/internal/storage"
	"github.com/Tiliavir/nanny-time-tracker/internal/summary"
	"github.com/Tiliavir/nanny-time-tracker/internal/timecalc"
	"github.com/Tiliavir/nanny-time-tracker/internal/tracker"
)

var summaryFormat string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show hours worked today, this week and this month",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryFormat, "format", "md", "Output format: md, json")
}

// money formats dollar amounts with US digit grouping.
var money = message.NewPrinter(language.AmericanEnglish)

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := mustApp(ctx)
	defer a.close()

	r, err := a.svc.Summary(ctx, a.user)
	if err != nil {
		fail(err)
	}

	var rate *float64
	p, err := a.store.Profile(ctx, a.user)
	switch {
	case err == nil:
		rate = p.HourlyRate
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrNotConfigured):
	default:
		fail(err)
	}

	switch summaryFormat {
	case "json":
		return printSummaryJSON(os.Stdout, r, rate)
	default:
		printSummary(os.Stdout, r, rate, a.format.CalendarDate(r.Boundary.StartOfWeek, r.Zone.Name()))
	}
	return nil
}

func printSummary(w io.Writer, r tracker.Report, rate *float64, weekOf string) {
	fmt.Fprintf(w, "Week of %s (%s)\n", weekOf, r.Zone.Name())
	fmt.Fprintln(w, "--------------------------------")
	row := func(c *color.Color, label string, seconds int64) {
		fmt.Fprintf(w, "%-20s%s\n", label, c.Sprint(timecalc.FormatHours(seconds)))
	}
	row(color.New(color.FgBlue), "Today", r.TodaySeconds)
	row(color.New(color.FgGreen), "This week", r.WeekSeconds)
	row(color.New(color.FgMagenta), "This month", r.MonthSeconds)

	overtime := color.New(color.FgHiBlack)
	if r.OvertimeSeconds > 0 {
		overtime = color.New(color.FgYellow, color.Bold)
	}
	row(overtime, "Overtime", r.OvertimeSeconds)
	if spansMonths(r) {
		prev := r.Boundary.StartOfWeek.In(r.Zone.Location).Format("January")
		fmt.Fprintf(w, "Note: this week began in %s; those days count toward the week and overtime but not this month.\n", prev)
	}

	if rate != nil {
		fmt.Fprintln(w, "--------------------------------")
		fmt.Fprintf(w, "%-20s%s\n", "Est. pay this week", money.Sprintf("$%.2f", pay(r.WeekSeconds, *rate)))
		fmt.Fprintf(w, "%-20s%s\n", "Est. pay this month", money.Sprintf("$%.2f", pay(r.MonthSeconds, *rate)))
	}
	if r.Skipped > 0 {
		color.New(color.FgYellow).Fprintf(w, "%d malformed shift(s) ignored\n", r.Skipped)
	}
}

// spansMonths reports whether the current week started before this month.
func spansMonths(r tracker.Report) bool {
	return r.Boundary.StartOfWeek.Before(r.Boundary.StartOfMonth)
}

func pay(seconds int64, rate float64) float64 {
	return float64(seconds) / 3600 * rate
}

type summaryJSON struct {
	summary.PeriodSummary
	Zone         string `json:"zone"`
	StartOfDay   string `json:"start_of_day"`
	StartOfWeek  string `json:"start_of_week"`
	StartOfMonth string `json:"start_of_month"`
	// WeekSpansMonths is set when week_seconds includes days of the previous month.
	WeekSpansMonths bool     `json:"week_spans_months"`
	HourlyRate      *float64 `json:"hourly_rate,omitempty"`
}

func printSummaryJSON(w io.Writer, r tracker.Report, rate *float64) error {
	const layout = "2006-01-02T15:04:05Z07:00"
	loc := r.Zone.Location
	out := summaryJSON{
		PeriodSummary:   r.PeriodSummary,
		Zone:            r.Zone.Name(),
		StartOfDay:      r.Boundary.StartOfDay.In(loc).Format(layout),
		StartOfWeek:     r.Boundary.StartOfWeek.In(loc).Format(layout),
		StartOfMonth:    r.Boundary.StartOfMonth.In(loc).Format(layout),
		WeekSpansMonths: spansMonths(r),
		HourlyRate:      rate,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
