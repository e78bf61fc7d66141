package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soinechankit/Soinech-CRM/internal/app"
)

var importOwner string

var importLeadsCmd = &cobra.Command{
	Use:   "import-leads <file.csv>",
	Short: "Bulk-load leads from a CSV export",
	Long: `Reads a lead CSV in the same column layout the API exports and creates
one lead per row, owned by and assigned to --owner. Bad rows are reported
with their line number and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if importOwner == "" {
			return errors.New("--owner is required")
		}
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		db, err := app.OpenDB(cmd.Context(), cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		s, err := app.Build(db, cfg, log)
		if err != nil {
			return err
		}
		res, err := s.Leads.ImportCSV(cmd.Context(), f, importOwner)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "imported %d, skipped %d, errors %d\n", res.Imported, res.Skipped, len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  line %d: %s\n", e.Line, e.Message)
		}
		return nil
	},
}

func init() {
	importLeadsCmd.Flags().StringVar(&importOwner, "owner", "", "user id that owns the imported leads")
	rootCmd.AddCommand(importLeadsCmd)
}
