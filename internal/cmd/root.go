package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/runger/rfmseg/internal/config"
	"github.com/runger/rfmseg/internal/log"
	"github.com/runger/rfmseg/internal/storage"
)

const (
	groupAnalysis = "analysis"
	groupSetup    = "setup"
)

var rootCmd = &cobra.Command{
	Use:   "rfmseg",
	Short: "RFM customer segmentation for e-commerce order data",
	Long: `rfmseg - RFM customer segmentation for e-commerce order data
  - load customers, orders and payments into a local store
  - cluster customers by recency, frequency and monetary value
  - label each cluster with a marketing persona`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupAnalysis, Title: "Analysis Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)
}

// loadConfig loads the configuration, falling back to defaults when no
// config file exists yet.
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// newLogger builds the command logger from the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	return log.New(&log.Config{Level: log.ParseLevel(cfg.Log.Level)})
}

// openStore opens the analysis store at the configured path.
func openStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	return storage.NewSQLiteStore(cfg.StorePath())
}
