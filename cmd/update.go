package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/storage"
	"github.com/Tiliavir/nanny-time-tracker/internal/tracker"
	"github.com/Tiliavir/nanny-time-tracker/internal/tzformat"
	"github.com/Tiliavir/nanny-time-tracker/internal/validate"
)

var (
	updateType  string
	updatePhoto string
	updateLimit int
	updateKind  string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Share daily updates with the family",
}

var updateAddCmd = &cobra.Command{
	Use:   "add [message]",
	Short: "Post an update",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUpdateAdd,
}

var updateListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent updates",
	Args:  cobra.NoArgs,
	RunE:  runUpdateList,
}

func init() {
	updateAddCmd.Flags().StringVar(&updateType, "type", string(model.UpdateGeneral), "Update type: "+updateTypeNames())
	updateAddCmd.Flags().StringVar(&updatePhoto, "photo", "", "Attach a photo (JPEG, PNG, GIF, WebP or HEIC, up to 10 MB)")
	updateListCmd.Flags().IntVar(&updateLimit, "limit", 20, "Number of updates to show")
	updateListCmd.Flags().StringVar(&updateKind, "type", "", "Only show updates of this type")

	updateCmd.AddCommand(updateAddCmd)
	updateCmd.AddCommand(updateListCmd)
}

func updateTypeNames() string {
	names := make([]string, len(model.UpdateTypes))
	for i, t := range model.UpdateTypes {
		names[i] = string(t.Type)
	}
	return strings.Join(names, ", ")
}

func runUpdateAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	u := model.DailyUpdate{Type: model.UpdateType(updateType)}
	if len(args) == 1 {
		u.Message = optionalString(strings.TrimSpace(args[0]))
	}
	if updatePhoto != "" {
		if err := storage.CheckPhoto(updatePhoto); err != nil {
			usageFail("%v", err)
		}
		u.PhotoPath = &updatePhoto
	}

	a := mustApp(ctx)
	defer a.close()

	u.UserID = a.user
	u.Date = tracker.DateKey(time.Now(), a.svc.Zone(ctx, a.user).Location)
	if err := validate.Struct(u); err != nil {
		usageFail("invalid update: %v", err)
	}

	if u.PhotoPath != nil {
		stored, err := storage.NewPhotos(a.dir).Save(a.user, *u.PhotoPath)
		if err != nil {
			fail(err)
		}
		u.PhotoPath = &stored
	}

	saved, err := a.store.AddDailyUpdate(ctx, u)
	if err != nil {
		fail(err)
	}
	info := saved.Type.Info()
	fmt.Printf("%s %s posted for %s\n", info.Emoji, info.Label, saved.Date)
	return nil
}

func runUpdateList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := mustApp(ctx)
	defer a.close()

	updates, err := a.store.DailyUpdates(ctx, a.user, updateLimit)
	if err != nil {
		fail(err)
	}
	z := a.svc.Zone(ctx, a.user)
	printUpdates(os.Stdout, a.format, filterUpdates(updates, model.UpdateType(updateKind)), z.Name())
	return nil
}

func filterUpdates(updates []model.DailyUpdate, kind model.UpdateType) []model.DailyUpdate {
	if kind == "" {
		return updates
	}
	var out []model.DailyUpdate
	for _, u := range updates {
		if u.Type == kind {
			out = append(out, u)
		}
	}
	return out
}

func printUpdates(w io.Writer, f *tzformat.Formatter, updates []model.DailyUpdate, zoneID string) {
	if len(updates) == 0 {
		fmt.Fprintln(w, "No updates yet.")
		return
	}
	for _, u := range updates {
		info := u.Type.Info()
		fmt.Fprintf(w, "%s %s  %s\n", info.Emoji, info.Label, f.DateTime(u.CreatedAt, zoneID))
		if u.Message != nil {
			for _, line := range strings.Split(*u.Message, "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
		if u.PhotoPath != nil {
			fmt.Fprintf(w, "  📷 %s\n", *u.PhotoPath)
		}
	}
}
