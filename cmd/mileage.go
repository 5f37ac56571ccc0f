package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/summary"
	"github.com/Tiliavir/nanny-time-tracker/internal/tracker"
	"github.com/Tiliavir/nanny-time-tracker/internal/validate"
)

var (
	mileageDate    string
	mileageFrom    string
	mileageTo      string
	mileagePurpose string
	mileageRate    float64
	mileageLimit   int
)

var mileageCmd = &cobra.Command{
	Use:   "mileage",
	Short: "Log and review work trips",
}

var mileageAddCmd = &cobra.Command{
	Use:   "add <miles>",
	Short: "Log a trip",
	Args:  cobra.ExactArgs(1),
	RunE:  runMileageAdd,
}

var mileageListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent trips",
	Args:  cobra.NoArgs,
	RunE:  runMileageList,
}

var mileageSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show miles and reimbursement for this and last month",
	Args:  cobra.NoArgs,
	RunE:  runMileageSummary,
}

func init() {
	mileageAddCmd.Flags().StringVar(&mileageDate, "date", "", "Trip date (YYYY-MM-DD); defaults to today")
	mileageAddCmd.Flags().StringVar(&mileageFrom, "from", "", "Start location")
	mileageAddCmd.Flags().StringVar(&mileageTo, "to", "", "End location")
	mileageAddCmd.Flags().StringVar(&mileagePurpose, "purpose", "", "Trip purpose (e.g. grocery shopping, doctor visit)")
	mileageAddCmd.Flags().Float64Var(&mileageRate, "rate", 0, "Reimbursement per mile (default from config)")
	mileageListCmd.Flags().IntVar(&mileageLimit, "limit", 10, "Number of trips to show")

	mileageCmd.AddCommand(mileageAddCmd)
	mileageCmd.AddCommand(mileageListCmd)
	mileageCmd.AddCommand(mileageSummaryCmd)
}

func runMileageAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	miles, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		usageFail("invalid miles %q: %v", args[0], err)
	}

	a := mustApp(ctx)
	defer a.close()

	date := mileageDate
	if date == "" {
		date = tracker.DateKey(time.Now(), a.svc.Zone(ctx, a.user).Location)
	}
	rate := mileageRate
	if rate <= 0 {
		rate = cfg.Mileage.RatePerMile
	}

	entry := model.MileageEntry{
		UserID:        a.user,
		Date:          date,
		Miles:         miles,
		StartLocation: mileageFrom,
		EndLocation:   mileageTo,
		Purpose:       mileagePurpose,
		RatePerMile:   rate,
	}
	if err := validate.Struct(entry); err != nil {
		usageFail("invalid trip: %v", err)
	}

	saved, err := a.store.AddMileage(ctx, entry)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Logged %.1f miles on %s: %s reimbursement\n",
		saved.Miles, saved.Date, money.Sprintf("$%.2f", saved.Reimbursement()))
	return nil
}

func runMileageList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := mustApp(ctx)
	defer a.close()

	entries, err := a.store.RecentMileage(ctx, a.user, mileageLimit)
	if err != nil {
		fail(err)
	}
	printMileage(os.Stdout, entries)
	return nil
}

func printMileage(w io.Writer, entries []model.MileageEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No trips logged.")
		return
	}
	for _, e := range entries {
		route := ""
		switch {
		case e.StartLocation != "" && e.EndLocation != "":
			route = "  " + e.StartLocation + " → " + e.EndLocation
		case e.EndLocation != "":
			route = "  → " + e.EndLocation
		}
		purpose := ""
		if e.Purpose != "" {
			purpose = "  " + e.Purpose
		}
		fmt.Fprintf(w, "%s  %6.1f mi  %9s%s%s\n",
			e.Date, e.Miles, money.Sprintf("$%.2f", e.Reimbursement()), route, purpose)
	}
}

func runMileageSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := mustApp(ctx)
	defer a.close()

	r, err := a.svc.MileageSummary(ctx, a.user)
	if err != nil {
		fail(err)
	}
	loc := a.svc.Zone(ctx, a.user).Location
	printMileageSummary(os.Stdout,
		r.ThisMonthStart.In(loc).Format("January 2006"), r.ThisMonth,
		r.LastMonthStart.In(loc).Format("January 2006"), r.LastMonth)
	return nil
}

func printMileageSummary(w io.Writer, thisLabel string, this summary.MileageTotals, lastLabel string, last summary.MileageTotals) {
	for _, p := range []struct {
		label  string
		totals summary.MileageTotals
	}{{thisLabel, this}, {lastLabel, last}} {
		fmt.Fprintln(w, p.label)
		fmt.Fprintf(w, "  %-16s%.1f\n", "Miles", p.totals.Miles)
		fmt.Fprintf(w, "  %-16s%s\n", "Reimbursement", money.Sprintf("$%.2f", p.totals.Reimbursement))
		fmt.Fprintf(w, "  %-16s%d\n", "Trips", p.totals.Trips)
	}
}
