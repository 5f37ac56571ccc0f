package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Tiliavir/nanny-time-tracker/internal/logger"
	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/storage"
	"github.com/Tiliavir/nanny-time-tracker/internal/validate"
	"github.com/Tiliavir/nanny-time-tracker/internal/zone"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change your profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change profile fields",
	Long: `set updates only the fields whose flags are given, e.g.

  ntt profile set --first ana --rate 22.50 --timezone America/Chicago`,
	Args: cobra.NoArgs,
	RunE: runProfileSet,
}

var profilePhotoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Set or remove your profile picture",
}

var profilePhotoSetCmd = &cobra.Command{
	Use:   "set <file>",
	Short: "Use an image as your profile picture (JPG, PNG or WebP, up to 5 MB)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilePhotoSet,
}

var profilePhotoRmCmd = &cobra.Command{
	Use:     "rm",
	Aliases: []string{"remove"},
	Short:   "Remove your profile picture",
	Args:    cobra.NoArgs,
	RunE:    runProfilePhotoRm,
}

func init() {
	f := profileSetCmd.Flags()
	f.String("first", "", "First name")
	f.String("last", "", "Last name")
	f.Float64("rate", 0, "Hourly rate in dollars")
	f.String("timezone", "", "IANA time zone, e.g. America/Chicago (see `ntt zones`)")
	f.Float64("vacation", 0, "Vacation balance in hours")
	f.Float64("sick", 0, "Sick leave balance in hours")
	f.Float64("personal", 0, "Personal time balance in hours")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profilePhotoCmd.AddCommand(profilePhotoSetCmd)
	profilePhotoCmd.AddCommand(profilePhotoRmCmd)
	profileCmd.AddCommand(profilePhotoCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := mustApp(ctx)
	defer a.close()

	p, err := a.store.Profile(ctx, a.user)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fmt.Println("No profile yet. Create one with: ntt profile set --first <name> --timezone <zone>")
		return nil
	case err != nil:
		fail(err)
	}
	printProfile(os.Stdout, p, a.zones.Fallback(), time.Now())
	return nil
}

func printProfile(w io.Writer, p model.Profile, fallback string, now time.Time) {
	fmt.Fprintf(w, "%-14s%s\n", "Name", p.DisplayName())
	rate := "not set"
	if p.HourlyRate != nil {
		rate = money.Sprintf("$%.2f/h", *p.HourlyRate)
	}
	fmt.Fprintf(w, "%-14s%s\n", "Hourly rate", rate)

	tz := zone.Info(fallback, now).Label + " (default)"
	if p.Timezone != "" {
		tz = zone.Info(p.Timezone, now).Label
	}
	fmt.Fprintf(w, "%-14s%s\n", "Time zone", tz)
	fmt.Fprintf(w, "%-14s%.1fh vacation, %.1fh sick, %.1fh personal\n", "PTO",
		p.PTOBalanceVacation, p.PTOBalanceSick, p.PTOBalancePersonal)
	picture := "none"
	if p.PicturePath != nil {
		picture = *p.PicturePath
	}
	fmt.Fprintf(w, "%-14s%s\n", "Picture", picture)
}

// nameCase capitalises names the way they are typed on a form.
var nameCase = cases.Title(language.English)

func runProfileSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	f := cmd.Flags()
	if f.NFlag() == 0 {
		usageFail("nothing to change; see ntt profile set --help")
	}

	a := mustApp(ctx)
	defer a.close()

	p := loadProfile(cmd, a)

	if f.Changed("first") {
		v, _ := f.GetString("first")
		p.FirstName = nameCase.String(strings.TrimSpace(v))
	}
	if f.Changed("last") {
		v, _ := f.GetString("last")
		p.LastName = nameCase.String(strings.TrimSpace(v))
	}
	if f.Changed("rate") {
		v, _ := f.GetFloat64("rate")
		p.HourlyRate = &v
	}
	if f.Changed("timezone") {
		v, _ := f.GetString("timezone")
		v = strings.TrimSpace(v)
		if v != "" && !zone.Valid(v) {
			usageFail("unknown time zone %q; see ntt zones", v)
		}
		p.Timezone = v
	}
	for name, dst := range map[string]*float64{
		"vacation": &p.PTOBalanceVacation,
		"sick":     &p.PTOBalanceSick,
		"personal": &p.PTOBalancePersonal,
	} {
		if f.Changed(name) {
			*dst, _ = f.GetFloat64(name)
		}
	}

	if err := validate.Struct(p); err != nil {
		usageFail("invalid profile: %v", err)
	}
	saved, err := a.store.SaveProfile(ctx, p)
	if err != nil {
		fail(err)
	}
	fmt.Println("Profile saved.")
	printProfile(os.Stdout, saved, a.zones.Fallback(), time.Now())
	return nil
}

// loadProfile returns the user's profile, or an empty one to fill in.
func loadProfile(cmd *cobra.Command, a *app) model.Profile {
	p, err := a.store.Profile(cmd.Context(), a.user)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return model.Profile{UserID: a.user}
	case err != nil:
		fail(err)
	}
	return p
}

func runProfilePhotoSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := storage.CheckProfilePicture(args[0]); err != nil {
		usageFail("%v", err)
	}

	a := mustApp(ctx)
	defer a.close()

	p := loadProfile(cmd, a)
	photos := storage.NewPhotos(a.dir)
	stored, err := photos.SaveProfilePicture(a.user, args[0])
	if err != nil {
		fail(err)
	}
	old := p.PicturePath
	p.PicturePath = &stored
	if _, err := a.store.SaveProfile(ctx, p); err != nil {
		_ = photos.Remove(stored)
		fail(err)
	}
	if old != nil {
		if err := photos.Remove(*old); err != nil {
			logger.Named("cmd").Warn().Err(err).Str("path", *old).Msg("could not remove previous profile picture")
		}
	}
	fmt.Println("Profile picture updated.")
	return nil
}

func runProfilePhotoRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := mustApp(ctx)
	defer a.close()

	p := loadProfile(cmd, a)
	if p.PicturePath == nil {
		fmt.Println("No profile picture to remove.")
		return nil
	}
	old := *p.PicturePath
	p.PicturePath = nil
	if _, err := a.store.SaveProfile(ctx, p); err != nil {
		fail(err)
	}
	if err := storage.NewPhotos(a.dir).Remove(old); err != nil {
		logger.Named("cmd").Warn().Err(err).Str("path", old).Msg("could not remove profile picture file")
	}
	fmt.Println("Profile picture removed.")
	return nil
}
