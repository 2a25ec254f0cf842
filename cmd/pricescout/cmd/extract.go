package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pricescout/pricescout/internal/config"
	"github.com/pricescout/pricescout/internal/fetch"
)

func extractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract a product from a page and print it as JSON",
		Long: "Loads the page with the headless browser, runs the extraction " +
			"cascade, and prints the extracted product without tracking it.",
		Args: cobra.ExactArgs(1),
		RunE: runExtract,
	}
}

func init() {
	rootCmd.AddCommand(extractCommand())
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg.Logging)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pipeline, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	loader, err := fetch.NewBrowserLoader(
		fetch.WithPageTimeout(cfg.Recheck.PageTimeout),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("launching headless browser: %w", err)
	}
	defer loader.Close()

	doc, err := loader.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("loading page: %w", err)
	}

	product, err := pipeline.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extracting: %w", err)
	}
	if product == nil {
		return fmt.Errorf("no complete product could be extracted from %s", args[0])
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(product)
}
