package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/soinechankit/Soinech-CRM/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or inspect database migrations",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if cfg.Database.DSN == "" {
			return errors.New("database.url is required")
		}
		db, err := app.OpenDB(cmd.Context(), cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		return app.Migrate(cmd.Context(), db, args[0], log)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
