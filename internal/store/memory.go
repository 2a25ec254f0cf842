package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pricescout/pricescout/pkg/money"
	domain "github.com/pricescout/pricescout/pkg/types"
)

// MemoryStore is an in-process Store for tests and single-node runs.
// All methods copy records on the way in and out so callers can never
// alias internal state.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	entries  map[string][]domain.PriceEntry // productID -> entries, append order
	alerts   []domain.PriceAlert
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]domain.Product),
		entries:  make(map[string][]domain.PriceEntry),
	}
}

// CreateProduct inserts a product, refreshing display fields on re-track.
func (s *MemoryStore) CreateProduct(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.products[p.ID]; ok {
		existing.Title = p.Title
		existing.Image = p.Image
		s.products[p.ID] = existing
		p.CreatedAt = existing.CreatedAt
		return nil
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.products[p.ID] = *p
	return nil
}

// GetProduct retrieves a product by its ID.
func (s *MemoryStore) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// GetProductByURL retrieves a product by its tracked URL.
func (s *MemoryStore) GetProductByURL(_ context.Context, url string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.URL == url {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// ListProducts returns all tracked products, oldest first.
func (s *MemoryStore) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.Before(products[j].CreatedAt)
		}
		return products[i].ID < products[j].ID
	})
	return products, nil
}

// DeleteProduct removes a product along with its entries and alerts.
func (s *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	delete(s.entries, id)

	kept := s.alerts[:0]
	for _, a := range s.alerts {
		if a.ProductID != id {
			kept = append(kept, a)
		}
	}
	s.alerts = kept
	return nil
}

// AppendPriceEntry inserts a new price observation.
func (s *MemoryStore) AppendPriceEntry(_ context.Context, e *domain.PriceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[e.ProductID] = append(s.entries[e.ProductID], *e)
	return nil
}

// LatestPriceEntry returns the most recent observation for a product.
func (s *MemoryStore) LatestPriceEntry(
	_ context.Context,
	productID string,
) (*domain.PriceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries[productID]
	if len(entries) == 0 {
		return nil, ErrNotFound
	}

	latest := entries[0]
	for _, e := range entries[1:] {
		if !e.Date.Before(latest.Date) {
			latest = e
		}
	}
	return &latest, nil
}

// ListPriceEntries returns a product's price history with optional filters.
func (s *MemoryStore) ListPriceEntries(
	_ context.Context,
	productID string,
	q *EntryQuery,
) ([]domain.PriceEntry, error) {
	if q == nil {
		q = &EntryQuery{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []domain.PriceEntry
	for _, e := range s.entries[productID] {
		if q.Since != nil && e.Date.Before(*q.Since) {
			continue
		}
		if q.Until != nil && e.Date.After(*q.Until) {
			continue
		}
		entries = append(entries, e)
	}

	desc := strings.EqualFold(q.Order, "desc")
	sort.Slice(entries, func(i, j int) bool {
		if desc {
			i, j = j, i
		}
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].ID < entries[j].ID
	})

	offset := max(q.Offset, 0)
	if offset >= len(entries) {
		return nil, nil
	}
	entries = entries[offset:]

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// HighWaterMark returns the highest amount observed at or after since.
func (s *MemoryStore) HighWaterMark(
	_ context.Context,
	productID string,
	since time.Time,
) (money.Cents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	high := money.Invalid
	for _, e := range s.entries[productID] {
		if e.Date.Before(since) {
			continue
		}
		if e.Amount > high {
			high = e.Amount
		}
	}
	if !high.Valid() {
		return money.Invalid, ErrNotFound
	}
	return high, nil
}

// CreateAlert inserts a new price alert.
func (s *MemoryStore) CreateAlert(_ context.Context, a *domain.PriceAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.alerts = append(s.alerts, *a)
	return nil
}

// GetAlert retrieves an alert by its ID.
func (s *MemoryStore) GetAlert(_ context.Context, id string) (*domain.PriceAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.alerts {
		if a.ID == id {
			return cloneAlert(a), nil
		}
	}
	return nil, ErrNotFound
}

// ActiveAlert returns the product's single active alert.
func (s *MemoryStore) ActiveAlert(
	_ context.Context,
	productID string,
) (*domain.PriceAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.alerts {
		if a.ProductID == productID && a.Active {
			return cloneAlert(a), nil
		}
	}
	return nil, ErrNotFound
}

// LatestAlert returns the product's most recently created alert.
func (s *MemoryStore) LatestAlert(
	_ context.Context,
	productID string,
) (*domain.PriceAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.PriceAlert
	for i := range s.alerts {
		a := s.alerts[i]
		if a.ProductID != productID {
			continue
		}
		if latest == nil || !a.CreatedAt.Before(latest.CreatedAt) {
			latest = cloneAlert(a)
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

// ListAlerts returns alerts, newest first, optionally active only.
func (s *MemoryStore) ListAlerts(
	_ context.Context,
	activeOnly bool,
) ([]domain.PriceAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var alerts []domain.PriceAlert
	for _, a := range s.alerts {
		if activeOnly && !a.Active {
			continue
		}
		alerts = append(alerts, *cloneAlert(a))
	}
	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
		}
		return alerts[i].ID > alerts[j].ID
	})
	return alerts, nil
}

// MarkAlertShown records that the alert's notification was delivered.
func (s *MemoryStore) MarkAlertShown(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Shown = true
			return nil
		}
	}
	return ErrNotFound
}

// DeactivateAlert flips the alert inactive at the given time.
func (s *MemoryStore) DeactivateAlert(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Active = false
			t := at
			s.alerts[i].DeactivatedAt = &t
			return nil
		}
	}
	return ErrNotFound
}

// Snapshot copies the entire tracked state.
func (s *MemoryStore) Snapshot(_ context.Context) (*domain.StateSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &domain.StateSnapshot{}
	for _, p := range s.products {
		snap.Products = append(snap.Products, p)
	}
	sort.Slice(snap.Products, func(i, j int) bool {
		return snap.Products[i].ID < snap.Products[j].ID
	})

	for _, entries := range s.entries {
		snap.Entries = append(snap.Entries, entries...)
	}
	sort.Slice(snap.Entries, func(i, j int) bool {
		if !snap.Entries[i].Date.Equal(snap.Entries[j].Date) {
			return snap.Entries[i].Date.Before(snap.Entries[j].Date)
		}
		return snap.Entries[i].ID < snap.Entries[j].ID
	})

	for _, a := range s.alerts {
		snap.Alerts = append(snap.Alerts, *cloneAlert(a))
	}
	return snap, nil
}

// ReplaceState overwrites the entire tracked state from a snapshot.
func (s *MemoryStore) ReplaceState(_ context.Context, snap *domain.StateSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = make(map[string]domain.Product, len(snap.Products))
	for _, p := range snap.Products {
		s.products[p.ID] = p
	}

	s.entries = make(map[string][]domain.PriceEntry)
	for _, e := range snap.Entries {
		s.entries[e.ProductID] = append(s.entries[e.ProductID], e)
	}

	s.alerts = nil
	for _, a := range snap.Alerts {
		s.alerts = append(s.alerts, *cloneAlert(a))
	}
	return nil
}

// Migrate is a no-op for the in-memory store.
func (s *MemoryStore) Migrate(context.Context) error { return nil }

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// cloneAlert deep-copies an alert, including the deactivation timestamp.
func cloneAlert(a domain.PriceAlert) *domain.PriceAlert {
	if a.DeactivatedAt != nil {
		t := *a.DeactivatedAt
		a.DeactivatedAt = &t
	}
	return &a
}
