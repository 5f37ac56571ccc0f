package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/storage"
	"github.com/Tiliavir/nanny-time-tracker/internal/tzformat"
	"github.com/Tiliavir/nanny-time-tracker/internal/validate"
)

var (
	familySelect      string
	familyDescription string
	familyRole        string
	familyRate        float64
	familyEmail       string
)

var familyCmd = &cobra.Command{
	Use:   "family",
	Short: "Manage families, members and invitations",
}

var familyCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a family and join it",
	Args:  cobra.ExactArgs(1),
	RunE:  runFamilyCreate,
}

var familyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your families",
	Args:  cobra.NoArgs,
	RunE:  runFamilyList,
}

var familyMembersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the members and open invitations of a family",
	Args:  cobra.NoArgs,
	RunE:  runFamilyMembers,
}

var familyInviteCmd = &cobra.Command{
	Use:   "invite <email>",
	Short: "Invite someone to a family",
	Long: `invite records an invitation for an e-mail address. Share the family code
with the invitee; joining with --email picks up the role and rate set here.`,
	Args: cobra.ExactArgs(1),
	RunE: runFamilyInvite,
}

var familyCodeCmd = &cobra.Command{
	Use:   "code",
	Short: "Show the code others use to join a family",
	Args:  cobra.NoArgs,
	RunE:  runFamilyCode,
}

var familyJoinCmd = &cobra.Command{
	Use:   "join <code>",
	Short: "Join a family with its code",
	Args:  cobra.ExactArgs(1),
	RunE:  runFamilyJoin,
}

func init() {
	for _, c := range []*cobra.Command{familyMembersCmd, familyInviteCmd, familyCodeCmd} {
		c.Flags().StringVar(&familySelect, "family", "", "Family code or id (default: your first family)")
	}
	familyCreateCmd.Flags().StringVar(&familyDescription, "description", "", "Short description")
	for _, c := range []*cobra.Command{familyCreateCmd, familyInviteCmd, familyJoinCmd} {
		c.Flags().StringVar(&familyRole, "role", "", "Role: parent or nanny")
		c.Flags().Float64Var(&familyRate, "rate", 0, "Hourly rate in dollars (nannies only)")
	}
	familyJoinCmd.Flags().StringVar(&familyEmail, "email", "", "Address a pending invitation was sent to")

	familyCmd.AddCommand(familyCreateCmd)
	familyCmd.AddCommand(familyListCmd)
	familyCmd.AddCommand(familyMembersCmd)
	familyCmd.AddCommand(familyInviteCmd)
	familyCmd.AddCommand(familyCodeCmd)
	familyCmd.AddCommand(familyJoinCmd)
}

// roleFlags returns the --role and --rate values. The rate is kept only
// when it was given.
func roleFlags(cmd *cobra.Command, fallback model.Role) (model.Role, *float64) {
	role := model.Role(strings.ToLower(strings.TrimSpace(familyRole)))
	if role == "" {
		role = fallback
	}
	if role != "" {
		if err := validate.Var(string(role), "oneof=parent nanny"); err != nil {
			usageFail("invalid --role %q: want parent or nanny", familyRole)
		}
	}
	var rate *float64
	if cmd.Flags().Changed("rate") {
		if familyRate < 0 {
			usageFail("--rate must not be negative")
		}
		v := familyRate
		rate = &v
	}
	return role, rate
}

// pickFamily selects a family by code or id; an empty selector picks the first.
func pickFamily(families []model.Family, sel string) (model.Family, error) {
	if len(families) == 0 {
		return model.Family{}, fmt.Errorf("you haven't joined any families yet; create one with: ntt family create <name>")
	}
	if sel == "" {
		return families[0], nil
	}
	code := storage.NormalizeFamilyCode(sel)
	for _, f := range families {
		if f.Code == code || f.ID == sel {
			return f, nil
		}
	}
	return model.Family{}, fmt.Errorf("family %q: %w", sel, storage.ErrNotMember)
}

func selectedFamily(cmd *cobra.Command, a *app) model.Family {
	families, err := a.store.UserFamilies(cmd.Context(), a.user)
	if err != nil {
		fail(err)
	}
	f, err := pickFamily(families, familySelect)
	if err != nil {
		if errors.Is(err, storage.ErrNotMember) {
			fail(err)
		}
		usageFail("%v", err)
	}
	return f
}

func runFamilyCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	role, rate := roleFlags(cmd, model.RoleParent)

	a := mustApp(ctx)
	defer a.close()

	f := model.Family{
		Name:        strings.TrimSpace(args[0]),
		Description: optionalString(strings.TrimSpace(familyDescription)),
		CreatedBy:   a.user,
	}
	if err := validate.Struct(f); err != nil {
		usageFail("invalid family: %v", err)
	}
	created, err := a.store.CreateFamily(ctx, f, role, rate)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Created %s. You joined as %s.\n", created.Name, role.Label())
	printFamilyCode(os.Stdout, created)
	return nil
}

func runFamilyList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := mustApp(ctx)
	defer a.close()

	families, err := a.store.UserFamilies(ctx, a.user)
	if err != nil && !errors.Is(err, storage.ErrNotConfigured) {
		fail(err)
	}
	printFamilies(os.Stdout, families)
	return nil
}

func printFamilies(w io.Writer, families []model.Family) {
	if len(families) == 0 {
		fmt.Fprintln(w, "No families yet. Create one with: ntt family create <name>")
		return
	}
	for i, f := range families {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-10s %s\n", marker, f.Code, f.Name)
		if f.Description != nil {
			fmt.Fprintf(w, "  %-10s %s\n", "", *f.Description)
		}
	}
}

func runFamilyMembers(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := mustApp(ctx)
	defer a.close()

	f := selectedFamily(cmd, a)
	members, err := a.store.FamilyMembers(ctx, f.ID)
	if err != nil {
		fail(err)
	}
	invites, err := a.store.PendingInvitations(ctx, f.ID)
	if err != nil {
		fail(err)
	}
	z := a.svc.Zone(ctx, a.user)
	printMembers(os.Stdout, a.format, z.Name(), f, members, invites)
	return nil
}

func printMembers(w io.Writer, tf *tzformat.Formatter, zoneID string, f model.Family, members []model.FamilyMember, invites []model.Invitation) {
	fmt.Fprintf(w, "%s (%s)\n", f.Name, f.Code)
	for _, m := range members {
		rate := ""
		if m.Role == model.RoleNanny && m.HourlyRate != nil {
			rate = money.Sprintf("  $%.2f/hr", *m.HourlyRate)
		}
		fmt.Fprintf(w, "  [%-2s] %-24s %-6s%s  Joined %s\n",
			m.Initials(), m.DisplayName(), m.Role.Label(), rate, tf.CalendarDate(m.JoinedAt, zoneID))
	}
	if len(invites) == 0 {
		return
	}
	fmt.Fprintln(w, "Pending invitations:")
	for _, inv := range invites {
		rate := ""
		if inv.Role == model.RoleNanny && inv.HourlyRate != nil {
			rate = money.Sprintf("  $%.2f/hr", *inv.HourlyRate)
		}
		fmt.Fprintf(w, "  %-29s %-6s%s  Sent %s\n", inv.Email, inv.Role.Label(), rate, tf.CalendarDate(inv.CreatedAt, zoneID))
	}
}

func runFamilyInvite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	role, rate := roleFlags(cmd, "")
	if role == "" {
		usageFail("--role is required (parent or nanny)")
	}

	a := mustApp(ctx)
	defer a.close()

	f := selectedFamily(cmd, a)
	inv := model.Invitation{
		FamilyID:   f.ID,
		Email:      strings.TrimSpace(args[0]),
		Role:       role,
		HourlyRate: rate,
		InvitedBy:  a.user,
	}
	if err := validate.Struct(inv); err != nil {
		usageFail("invalid invitation: %v", err)
	}
	saved, err := a.store.InviteToFamily(ctx, inv)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Invitation for %s to join %s as %s recorded.\n", saved.Email, f.Name, saved.Role.Label())
	fmt.Printf("Send them the code %s; they join with:\n  ntt family join %s --email %s\n", f.Code, f.Code, saved.Email)
	return nil
}

func runFamilyCode(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd.Context())
	defer a.close()

	printFamilyCode(os.Stdout, selectedFamily(cmd, a))
	return nil
}

func printFamilyCode(w io.Writer, f model.Family) {
	fmt.Fprintf(w, "Family code for %s: %s\n", f.Name, f.Code)
	fmt.Fprintln(w, "Share this code with others to join your family: ntt family join "+f.Code)
}

func runFamilyJoin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	role, rate := roleFlags(cmd, "")

	a := mustApp(ctx)
	defer a.close()

	f, m, err := a.store.JoinFamily(ctx, storage.JoinRequest{
		Code:       args[0],
		UserID:     a.user,
		Email:      familyEmail,
		Role:       role,
		HourlyRate: rate,
	})
	if err != nil {
		fail(err)
	}
	fmt.Printf("Joined %s as %s.\n", f.Name, m.Role.Label())
	return nil
}
