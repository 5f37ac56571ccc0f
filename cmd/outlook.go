package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/nanny-time-tracker/internal/calendar"
	"github.com/Tiliavir/nanny-time-tracker/internal/timecalc"
)

var (
	outlookSyncFrom     string
	outlookSyncTo       string
	outlookSyncDate     string
	outlookSyncDryRun   bool
	outlookSyncCategory string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import Outlook calendar events as shifts",
	Long: `sync signs in to Microsoft 365 with a device code, reads your calendar and
records busy events as shifts. Events already imported are updated in place.`,
	Args: cobra.NoArgs,
	RunE: runOutlookSync,
}

func init() {
	outlookSyncCmd.Flags().StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned operations without writing")
	outlookSyncCmd.Flags().StringVar(&outlookSyncCategory, "category", "", "Only import events with this category (default from config)")
	outlookCmd.AddCommand(outlookSyncCmd)
}

// syncRange turns the date flags into a [from, to) range of whole local days.
func syncRange(date, fromStr, toStr string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	day := func(s string) (time.Time, error) {
		d, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			return time.Time{}, err
		}
		return timecalc.Boundaries(d, loc).StartOfDay, nil
	}
	nextDay := func(t time.Time) time.Time {
		return timecalc.Boundaries(t.In(loc).Add(36*time.Hour), loc).StartOfDay
	}

	switch {
	case date != "":
		d, err := day(date)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --date value %q: %w", date, err)
		}
		return d, nextDay(d), nil

	case fromStr != "" || toStr != "":
		if fromStr == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("--from is required when --to is specified")
		}
		from, err := day(fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from value %q: %w", fromStr, err)
		}
		last := timecalc.Boundaries(now, loc).StartOfDay
		if toStr != "" {
			if last, err = day(toStr); err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid --to value %q: %w", toStr, err)
			}
		}
		to := nextDay(last)
		if !to.After(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("--to must not be before --from")
		}
		return from, to, nil
	}

	today := timecalc.Boundaries(now, loc).StartOfDay
	return today, nextDay(today), nil
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := mustApp(ctx)
	defer a.close()

	z := a.svc.Zone(ctx, a.user)
	from, to, err := syncRange(outlookSyncDate, outlookSyncFrom, outlookSyncTo, time.Now(), z.Location)
	if err != nil {
		usageFail("%v", err)
	}

	category := cfg.Outlook.Category
	if outlookSyncCategory != "" {
		category = outlookSyncCategory
	}

	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Printf("Syncing Outlook events (%s → %s, %s)%s...\n",
		a.format.CalendarDate(from, z.Name()), a.format.CalendarDate(to.Add(-time.Second), z.Name()), z.Name(), dryTag)
	fmt.Println()

	auth := &calendar.Auth{Dir: a.dir, TenantID: cfg.Outlook.TenantID, ClientID: cfg.Outlook.ClientID}
	tok, err := auth.Token(ctx)
	if err != nil {
		usageFail("Authentication failed: %v", err)
	}

	events, err := calendar.NewClient(ctx, auth, tok).CalendarView(ctx, from, to, z.Name())
	if err != nil {
		usageFail("Failed to fetch calendar events: %v", err)
	}

	result, err := calendar.SyncEvents(ctx, a.store, events, calendar.SyncOptions{
		UserID:   a.user,
		DryRun:   outlookSyncDryRun,
		Category: category,
		Location: z.Location,
		Out:      os.Stdout,
	})
	if err != nil {
		fail(err)
	}

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  %d imported\n", result.Imported)
	fmt.Printf("  %d skipped\n", result.Skipped)
	fmt.Printf("  %d updated\n", result.Updated)
	fmt.Printf("  %d filtered\n", result.Filtered)
	if result.Errors > 0 {
		fmt.Printf("  %d errors\n", result.Errors)
		exit(2)
	}
	return nil
}
