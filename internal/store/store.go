// Package store defines the datastore abstraction for pricescout.
// All business logic depends on the Store interface, never on concrete
// implementations: PostgresStore for deployments, MemoryStore for tests
// and single-process runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/pricescout/pricescout/pkg/money"
	domain "github.com/pricescout/pricescout/pkg/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// EntryQuery defines optional filters for price-history queries.
type EntryQuery struct {
	Since  *time.Time
	Until  *time.Time
	Limit  int // default 100
	Offset int
	Order  string // "asc" or "desc" by observation time; default "asc"
}

// Store defines all data access operations for pricescout.
//
// Same-product price observations must be applied in increasing-timestamp
// order; callers serialize them (the history engine does).
type Store interface {
	// Products
	CreateProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductByURL(ctx context.Context, url string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// DeleteProduct removes the product along with its price entries
	// and alerts.
	DeleteProduct(ctx context.Context, id string) error

	// Price entries
	AppendPriceEntry(ctx context.Context, e *domain.PriceEntry) error
	LatestPriceEntry(ctx context.Context, productID string) (*domain.PriceEntry, error)
	ListPriceEntries(ctx context.Context, productID string, q *EntryQuery) ([]domain.PriceEntry, error)
	// HighWaterMark returns the highest amount observed for the product
	// at or after since. ErrNotFound when no entry falls in the window.
	HighWaterMark(ctx context.Context, productID string, since time.Time) (money.Cents, error)

	// Alerts
	CreateAlert(ctx context.Context, a *domain.PriceAlert) error
	GetAlert(ctx context.Context, id string) (*domain.PriceAlert, error)
	// ActiveAlert returns the product's single active alert, or ErrNotFound.
	ActiveAlert(ctx context.Context, productID string) (*domain.PriceAlert, error)
	// LatestAlert returns the product's most recently created alert
	// regardless of state, or ErrNotFound.
	LatestAlert(ctx context.Context, productID string) (*domain.PriceAlert, error)
	ListAlerts(ctx context.Context, activeOnly bool) ([]domain.PriceAlert, error)
	MarkAlertShown(ctx context.Context, id string) error
	DeactivateAlert(ctx context.Context, id string, at time.Time) error

	// State resync. Snapshot copies the entire tracked state; ReplaceState
	// overwrites it wholesale. Replacing is idempotent and distinct from
	// incremental appends.
	Snapshot(ctx context.Context) (*domain.StateSnapshot, error)
	ReplaceState(ctx context.Context, snap *domain.StateSnapshot) error

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
