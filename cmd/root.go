package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/nanny-time-tracker/internal/config"
	"github.com/Tiliavir/nanny-time-tracker/internal/logger"
)

var (
	cfg      config.Config
	userFlag string
)

var rootCmd = &cobra.Command{
	Use:   "ntt",
	Short: "Nanny Time Tracker – clock in, clock out, see your hours",
	Long: `ntt tracks a nanny's shifts, mileage and daily updates for the family.
Totals for today, this week and this month are computed in your own time zone.
Data lives in ~/.ntt/ (SQLite) or a Postgres database named in ~/.ntt/config.json.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "User to act as (default from config, NTT_USER)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(clockInCmd)
	rootCmd.AddCommand(clockOutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(mileageCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(familyCmd)
	rootCmd.AddCommand(zonesCmd)
	rootCmd.AddCommand(outlookCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if userFlag != "" {
		cfg.UserID = userFlag
	}
	return nil
}
