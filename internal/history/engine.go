// Package history implements the price-history and alert engine: it folds
// price observations into the append-only per-product series and raises
// price-drop alerts when a drop clears both configured thresholds.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pricescout/pricescout/internal/metrics"
	"github.com/pricescout/pricescout/internal/notify"
	"github.com/pricescout/pricescout/internal/store"
	"github.com/pricescout/pricescout/pkg/money"
	domain "github.com/pricescout/pricescout/pkg/types"
)

// Config holds the alert gating thresholds. A drop qualifies only when it
// clears BOTH thresholds: at least PercentThreshold of the high price AND
// at least AbsoluteThreshold in subunits.
type Config struct {
	PercentThreshold  float64
	AbsoluteThreshold money.Cents
}

// DefaultConfig returns the shipped alert thresholds: a 5% drop that is
// also worth at least two dollars.
func DefaultConfig() Config {
	return Config{
		PercentThreshold:  0.05,
		AbsoluteThreshold: 200,
	}
}

// Validate checks the thresholds for sanity.
func (c Config) Validate() error {
	if c.PercentThreshold < 0 || c.PercentThreshold > 1 {
		return fmt.Errorf("percent threshold %v outside [0, 1]", c.PercentThreshold)
	}
	if c.AbsoluteThreshold < 0 {
		return fmt.Errorf("absolute threshold %d is negative", c.AbsoluteThreshold)
	}
	return nil
}

// Engine is the single entry point for mutating tracked price state.
// All observations go through RecordObservation, which serializes them
// internally so same-product updates apply in call order.
type Engine struct {
	store    store.Store
	notifier notify.Notifier
	cfg      Config
	log      *slog.Logger
	now      func() time.Time

	mu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a history engine over the given store and notifier.
func NewEngine(st store.Store, n notify.Notifier, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		notifier: n,
		cfg:      cfg,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Track registers an extracted product for price tracking and records its
// first observation, so a tracked product always has at least one entry.
// Tracking an already-tracked URL refreshes display fields and records the
// price as a regular observation.
func (e *Engine) Track(
	ctx context.Context,
	extracted *domain.ExtractedProduct,
) (*domain.Product, error) {
	if !extracted.Complete() {
		return nil, errors.New("refusing to track a partial extraction")
	}

	p := &domain.Product{
		ID:    domain.ProductID(extracted.URL),
		Title: extracted.Title,
		URL:   domain.CanonicalURL(extracted.URL),
		Image: extracted.Image,
	}

	_, err := e.store.GetProduct(ctx, p.ID)
	isNew := errors.Is(err, store.ErrNotFound)
	if err != nil && !isNew {
		return nil, fmt.Errorf("checking product: %w", err)
	}

	if err := e.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	if _, err := e.RecordObservation(ctx, p.ID, extracted.Price, extracted.Date); err != nil {
		// A product without a single entry must not survive. Roll back
		// the create; a pre-existing product keeps its history.
		if isNew {
			if delErr := e.store.DeleteProduct(ctx, p.ID); delErr != nil {
				e.log.Error("rolling back product create", "product_id", p.ID, "error", delErr)
			}
		}
		return nil, err
	}
	return p, nil
}

// Untrack removes a product and all of its history and alerts.
func (e *Engine) Untrack(ctx context.Context, productID string) error {
	return e.store.DeleteProduct(ctx, productID)
}

// RecordObservation folds one price observation into the product's history.
// An amount equal to the latest stored amount is dropped (consecutive-dedup
// invariant) and returns a nil entry. Otherwise a new entry is appended and
// alert eligibility is evaluated.
func (e *Engine) RecordObservation(
	ctx context.Context,
	productID string,
	amount money.Cents,
	observedAt time.Time,
) (*domain.PriceEntry, error) {
	if !amount.Valid() {
		return nil, fmt.Errorf("invalid amount for product %s", productID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	metrics.ObservationsTotal.Inc()

	latest, err := e.store.LatestPriceEntry(ctx, productID)
	switch {
	case err == nil:
		if latest.Amount == amount {
			e.log.Debug("price unchanged, observation dropped",
				"product_id", productID,
				"amount", amount.String(),
			)
			return nil, nil
		}
	case errors.Is(err, store.ErrNotFound):
		// First observation for this product.
	default:
		return nil, fmt.Errorf("fetching latest entry: %w", err)
	}

	entry := &domain.PriceEntry{
		ID:        uuid.NewString(),
		ProductID: productID,
		Amount:    amount,
		Date:      observedAt.UTC(),
	}
	if err := e.store.AppendPriceEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("appending entry: %w", err)
	}
	metrics.EntriesAppendedTotal.Inc()

	if err := e.evaluateAlert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// AcknowledgeAlert records that the user acted on an alert: it is marked
// shown and deactivated, which opens a fresh high-water window for future
// alerts on the same product.
func (e *Engine) AcknowledgeAlert(ctx context.Context, alertID string) error {
	if err := e.store.MarkAlertShown(ctx, alertID); err != nil {
		return fmt.Errorf("marking alert shown: %w", err)
	}
	if err := e.store.DeactivateAlert(ctx, alertID, e.now().UTC()); err != nil {
		return fmt.Errorf("deactivating alert: %w", err)
	}
	return nil
}

// evaluateAlert raises an alert for the new entry when the drop from the
// current high-water mark clears both thresholds. At most one active alert
// exists per product; a deactivated alert bounds the high-water window so
// stale highs cannot retrigger.
func (e *Engine) evaluateAlert(ctx context.Context, entry *domain.PriceEntry) error {
	_, err := e.store.ActiveAlert(ctx, entry.ProductID)
	switch {
	case err == nil:
		// Never duplicate an active alert.
		return nil
	case errors.Is(err, store.ErrNotFound):
	default:
		return fmt.Errorf("checking active alert: %w", err)
	}

	since, err := e.alertWindowStart(ctx, entry.ProductID)
	if err != nil {
		return err
	}

	high, err := e.store.HighWaterMark(ctx, entry.ProductID, since)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("fetching high-water mark: %w", err)
	}

	drop := high - entry.Amount
	if drop < e.cfg.AbsoluteThreshold {
		return nil
	}
	if float64(drop) < e.cfg.PercentThreshold*float64(high) {
		return nil
	}

	alert := &domain.PriceAlert{
		ID:              uuid.NewString(),
		ProductID:       entry.ProductID,
		PriceID:         entry.ID,
		Active:          true,
		Shown:           false,
		HighPriceAmount: high,
	}
	if err := e.store.CreateAlert(ctx, alert); err != nil {
		return fmt.Errorf("creating alert: %w", err)
	}
	metrics.AlertsActivatedTotal.Inc()

	e.log.Info("price-drop alert activated",
		"product_id", entry.ProductID,
		"was", high.String(),
		"now", entry.Amount.String(),
	)

	e.deliver(ctx, alert, entry.Amount)
	return nil
}

// alertWindowStart returns the start of the high-water window: the moment
// the product's last alert was deactivated, or the beginning of time when
// no alert exists yet.
func (e *Engine) alertWindowStart(ctx context.Context, productID string) (time.Time, error) {
	last, err := e.store.LatestAlert(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("fetching latest alert: %w", err)
	}
	if last.DeactivatedAt != nil {
		return *last.DeactivatedAt, nil
	}
	return last.CreatedAt, nil
}

// deliver sends the notification and flips Shown on success. Delivery
// failure leaves Shown false so a later delivery pass can retry; it never
// fails the observation itself.
func (e *Engine) deliver(ctx context.Context, alert *domain.PriceAlert, newAmount money.Cents) {
	product, err := e.store.GetProduct(ctx, alert.ProductID)
	if err != nil {
		e.log.Error("loading product for notification", "error", err)
		return
	}

	err = e.notifier.SendPriceDrop(ctx, notify.PriceDropPayload{
		ProductTitle: product.Title,
		ProductURL:   product.URL,
		ImageURL:     product.Image,
		HighAmount:   alert.HighPriceAmount,
		NewAmount:    newAmount,
	})
	if err != nil {
		e.log.Error("sending price-drop notification", "error", err)
		return
	}

	if err := e.store.MarkAlertShown(ctx, alert.ID); err != nil {
		e.log.Error("marking alert shown", "error", err)
	}
}
