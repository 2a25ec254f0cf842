// Package engine orchestrates background price rechecks: each tracked
// product's page is re-fetched, re-extracted, and folded into the price
// history on a schedule.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/pricescout/pricescout/internal/extract"
	"github.com/pricescout/pricescout/internal/fetch"
	"github.com/pricescout/pricescout/internal/history"
	"github.com/pricescout/pricescout/internal/metrics"
	"github.com/pricescout/pricescout/internal/store"
	domain "github.com/pricescout/pricescout/pkg/types"
)

// Engine re-checks tracked products sequentially. Each product is fetched,
// extracted, and recorded before the next one starts, so at most one
// background page load is in flight at a time.
type Engine struct {
	store    store.Store
	loader   fetch.Loader
	pipeline *extract.Pipeline
	history  *history.Engine
	limiter  *rate.Limiter
	log      *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRateLimit bounds how fast rechecks hit remote sites.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(e *Engine) {
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewEngine creates a recheck engine with injected dependencies.
func NewEngine(
	st store.Store,
	loader fetch.Loader,
	pipeline *extract.Pipeline,
	hist *history.Engine,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:    st,
		loader:   loader,
		pipeline: pipeline,
		history:  hist,
		limiter:  rate.NewLimiter(rate.Limit(0.5), 1),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunRecheck walks every tracked product once. Per-product failures are
// logged and counted but do not stop the sweep.
func (e *Engine) RunRecheck(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.RecheckDuration.Observe(time.Since(start).Seconds())
	}()

	products, err := e.store.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("listing products: %w", err)
	}

	e.log.Info("recheck sweep starting", "products", len(products))

	for i := range products {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		p := &products[i]
		if err := e.recheckProduct(ctx, p); err != nil {
			metrics.RecheckErrorsTotal.Inc()
			e.log.Error("recheck failed", "product_id", p.ID, "url", p.URL, "error", err)
		}
	}

	return nil
}

// recheckProduct loads one product page and records the freshly extracted
// price. A page where every extraction method comes up empty is not an
// error; the observation is simply skipped.
func (e *Engine) recheckProduct(ctx context.Context, p *domain.Product) error {
	doc, err := e.loader.Load(ctx, p.URL)
	if err != nil {
		return fmt.Errorf("loading page: %w", err)
	}

	result, err := e.pipeline.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extracting: %w", err)
	}
	if result == nil {
		e.log.Warn("no extraction result", "product_id", p.ID, "url", p.URL)
		return nil
	}

	entry, err := e.history.RecordObservation(ctx, p.ID, result.Price, result.Date)
	if err != nil {
		return fmt.Errorf("recording observation: %w", err)
	}

	if entry != nil {
		e.log.Info("price change recorded",
			"product_id", p.ID,
			"amount", result.Price.String(),
			"method", string(result.Method),
		)
	}
	return nil
}
