// Package cmd implements the CLI commands for the pricescout server.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pricescout/pricescout/internal/config"
	"github.com/pricescout/pricescout/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pricescout",
	Short: "Track product prices and alert on drops",
	Long: "pricescout extracts product data (title, image, price) from retail " +
		"pages, keeps a per-product price history, and raises an alert when a " +
		"price drops far enough below its historical high.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger from the logging config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	return logger.New(logger.Options{
		Level:  cfg.Level,
		Format: cfg.Format,
	})
}
