package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pricescout/pricescout/internal/api"
	"github.com/pricescout/pricescout/internal/config"
	"github.com/pricescout/pricescout/internal/engine"
	"github.com/pricescout/pricescout/internal/fetch"
	"github.com/pricescout/pricescout/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and recheck scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg.Logging)
	ctx := context.Background()

	if cfg.Tracing.Enabled {
		shutdown, err := telemetry.SetupTracing(ctx, cfg.Tracing.Endpoint, Version)
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Error("trace shutdown failed", "error", err)
			}
		}()
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

	notifier := buildNotifier(cfg, logger)
	hist := buildHistory(st, notifier, cfg, logger)

	// The headless browser is optional: without it the extract endpoint
	// requires pre-fetched HTML and the recheck loop stays off.
	var loader fetch.Loader
	if cfg.Recheck.Enabled {
		browser, err := fetch.NewBrowserLoader(
			fetch.WithPageTimeout(cfg.Recheck.PageTimeout),
			fetch.WithLogger(logger),
		)
		if err != nil {
			logger.Warn("headless browser unavailable, rechecks disabled", "error", err)
		} else {
			loader = browser
			defer browser.Close()
		}
	}

	var scheduler *engine.Scheduler
	if loader != nil {
		recheck := engine.NewEngine(st, loader, pipeline, hist,
			engine.WithLogger(logger),
			engine.WithRateLimit(cfg.Recheck.RateLimit.PerSecond, cfg.Recheck.RateLimit.Burst),
		)

		scheduler, err = engine.NewScheduler(recheck, cfg.Recheck.Interval, logger)
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		scheduler.Start()
	}

	e := api.NewRouter(api.Deps{
		Store:    st,
		History:  hist,
		Pipeline: pipeline,
		Loader:   loader,
		Logger:   logger,
		Version:  Version,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
