package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pricescout/pricescout/internal/config"
	"github.com/pricescout/pricescout/internal/engine"
	"github.com/pricescout/pricescout/internal/fetch"
)

var recheckCmd = &cobra.Command{
	Use:   "recheck",
	Short: "Run one price recheck sweep over all tracked products",
	RunE:  runRecheck,
}

func init() {
	rootCmd.AddCommand(recheckCmd)
}

func runRecheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg.Logging)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
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

	hist := buildHistory(st, buildNotifier(cfg, logger), cfg, logger)

	recheck := engine.NewEngine(st, loader, pipeline, hist,
		engine.WithLogger(logger),
		engine.WithRateLimit(cfg.Recheck.RateLimit.PerSecond, cfg.Recheck.RateLimit.Burst),
	)

	return recheck.RunRecheck(ctx)
}
