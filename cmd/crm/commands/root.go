package commands

import (
	"github.com/spf13/cobra"

	"github.com/soinechankit/Soinech-CRM/internal/config"
	"github.com/soinechankit/Soinech-CRM/internal/logger"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "crm",
	Short: "Soinech CRM server and admin tools",
	Long: `Soinech CRM

Leads, deals, the sales pipeline and reporting behind a JSON API.

Examples:
  crm serve
  crm migrate status
  crm import-leads leads.csv --owner <user-id>`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once by main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $CRM_CONFIG or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// setup loads config and builds the logger every command shares.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return cfg, logger.New(logger.Options{Level: level, Format: cfg.Log.Format}), nil
}
