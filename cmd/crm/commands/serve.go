package commands

import (
	"github.com/spf13/cobra"

	"github.com/soinechankit/Soinech-CRM/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the reminder scheduler",
	Long: `Starts the HTTP API. Pending migrations are applied first, and the
follow-up reminder job runs on reminders.spec while the server is up.

Stops gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if err := app.Run(cmd.Context(), cfg, log); err != nil {
			log.WithError(err).Errorf("server stopped")
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
