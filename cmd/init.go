package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database tables",
	Long: `init creates any missing tables and indexes. SQLite databases are
set up automatically; run this once against a new Postgres database.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		fail(err)
	}
	defer a.close()

	fmt.Printf("Database ready (%s).\n", a.store.Driver())
	return nil
}
