package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pricescout/pricescout/internal/config"
	"github.com/pricescout/pricescout/internal/extract"
	"github.com/pricescout/pricescout/internal/history"
	"github.com/pricescout/pricescout/internal/notify"
	"github.com/pricescout/pricescout/internal/store"
)

// buildStore opens the configured datastore backend.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return st, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

// buildPipeline assembles the extraction cascade in its fixed order:
// site selectors, scoring ruleset, Open Graph fallback.
func buildPipeline(cfg *config.Config, log *slog.Logger) (*extract.Pipeline, error) {
	rulesetCfg, err := cfg.Extraction.RulesetConfig()
	if err != nil {
		return nil, fmt.Errorf("building ruleset config: %w", err)
	}

	return extract.NewPipeline(
		[]extract.Method{
			extract.NewSiteSelector(extract.DefaultSelectorTable()),
			extract.NewRuleset(rulesetCfg),
			extract.NewOpenGraph(),
		},
		extract.WithLogger(log),
		extract.WithTelemetry(extract.NewLogTelemetry(log)),
	), nil
}

// buildNotifier picks the notification backend from config.
func buildNotifier(cfg *config.Config, log *slog.Logger) notify.Notifier {
	if cfg.Notifications.Discord.Enabled {
		return notify.NewDiscordNotifier(cfg.Notifications.Discord.WebhookURL)
	}
	return notify.NewNoOpNotifier(log)
}

// buildHistory wires the price-history and alert engine.
func buildHistory(st store.Store, n notify.Notifier, cfg *config.Config, log *slog.Logger) *history.Engine {
	return history.NewEngine(st, n, history.Config{
		PercentThreshold:  cfg.Alerts.PercentThreshold,
		AbsoluteThreshold: cfg.Alerts.AbsoluteThreshold,
	}, history.WithLogger(log))
}
