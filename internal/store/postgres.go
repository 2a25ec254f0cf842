package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pricescout/pricescout/pkg/money"
	domain "github.com/pricescout/pricescout/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// CreateProduct inserts a product, refreshing display fields when the same
// URL-derived ID is tracked again.
func (s *PostgresStore) CreateProduct(ctx context.Context, p *domain.Product) error {
	args := pgx.NamedArgs{
		"id":    p.ID,
		"title": p.Title,
		"url":   p.URL,
		"image": p.Image,
	}

	if err := s.pool.QueryRow(ctx, queryCreateProduct, args).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by its ID.
func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p := &domain.Product{}
	err := scanProduct(s.pool.QueryRow(ctx, queryGetProduct, id), p)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

// GetProductByURL retrieves a product by its tracked URL.
func (s *PostgresStore) GetProductByURL(ctx context.Context, url string) (*domain.Product, error) {
	p := &domain.Product{}
	err := scanProduct(s.pool.QueryRow(ctx, queryGetProductByURL, url), p)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

// ListProducts returns all tracked products, oldest first.
func (s *PostgresStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx, queryListProducts)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// DeleteProduct removes a product; entries and alerts cascade in the schema.
func (s *PostgresStore) DeleteProduct(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, queryDeleteProduct, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendPriceEntry inserts a new price observation.
func (s *PostgresStore) AppendPriceEntry(ctx context.Context, e *domain.PriceEntry) error {
	args := pgx.NamedArgs{
		"id":          e.ID,
		"product_id":  e.ProductID,
		"amount":      int64(e.Amount),
		"observed_at": e.Date,
	}

	if _, err := s.pool.Exec(ctx, queryAppendPriceEntry, args); err != nil {
		return fmt.Errorf("appending price entry: %w", err)
	}
	return nil
}

// LatestPriceEntry returns the most recent observation for a product.
func (s *PostgresStore) LatestPriceEntry(
	ctx context.Context,
	productID string,
) (*domain.PriceEntry, error) {
	e := &domain.PriceEntry{}
	err := scanPriceEntry(s.pool.QueryRow(ctx, queryLatestPriceEntry, productID), e)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return e, nil
}

// ListPriceEntries returns a product's price history with optional filters.
func (s *PostgresStore) ListPriceEntries(
	ctx context.Context,
	productID string,
	q *EntryQuery,
) ([]domain.PriceEntry, error) {
	if q == nil {
		q = &EntryQuery{}
	}
	dataSQL, extra := q.ToSQL()
	args := append([]any{productID}, extra...)

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("querying price entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.PriceEntry
	for rows.Next() {
		var e domain.PriceEntry
		if err := scanPriceEntry(rows, &e); err != nil {
			return nil, fmt.Errorf("scanning price entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// HighWaterMark returns the highest amount observed at or after since.
func (s *PostgresStore) HighWaterMark(
	ctx context.Context,
	productID string,
	since time.Time,
) (money.Cents, error) {
	var high *int64
	if err := s.pool.QueryRow(ctx, queryHighWaterMark, productID, since).Scan(&high); err != nil {
		return money.Invalid, fmt.Errorf("querying high-water mark: %w", err)
	}
	if high == nil {
		return money.Invalid, ErrNotFound
	}
	return money.Cents(*high), nil
}

// CreateAlert inserts a new price alert.
func (s *PostgresStore) CreateAlert(ctx context.Context, a *domain.PriceAlert) error {
	args := pgx.NamedArgs{
		"id":                a.ID,
		"product_id":        a.ProductID,
		"price_id":          a.PriceID,
		"active":            a.Active,
		"shown":             a.Shown,
		"high_price_amount": int64(a.HighPriceAmount),
	}

	if err := s.pool.QueryRow(ctx, queryCreateAlert, args).Scan(&a.CreatedAt); err != nil {
		return fmt.Errorf("creating alert: %w", err)
	}
	return nil
}

// GetAlert retrieves an alert by its ID.
func (s *PostgresStore) GetAlert(ctx context.Context, id string) (*domain.PriceAlert, error) {
	a := &domain.PriceAlert{}
	err := scanAlert(s.pool.QueryRow(ctx, queryGetAlert, id), a)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return a, nil
}

// ActiveAlert returns the product's single active alert.
func (s *PostgresStore) ActiveAlert(
	ctx context.Context,
	productID string,
) (*domain.PriceAlert, error) {
	a := &domain.PriceAlert{}
	err := scanAlert(s.pool.QueryRow(ctx, queryActiveAlert, productID), a)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return a, nil
}

// LatestAlert returns the product's most recently created alert.
func (s *PostgresStore) LatestAlert(
	ctx context.Context,
	productID string,
) (*domain.PriceAlert, error) {
	a := &domain.PriceAlert{}
	err := scanAlert(s.pool.QueryRow(ctx, queryLatestAlert, productID), a)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return a, nil
}

// ListAlerts returns alerts, optionally filtered to active ones.
func (s *PostgresStore) ListAlerts(
	ctx context.Context,
	activeOnly bool,
) ([]domain.PriceAlert, error) {
	query := queryListAlertsAll
	if activeOnly {
		query = queryListAlertsActive
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.PriceAlert
	for rows.Next() {
		var a domain.PriceAlert
		if err := scanAlert(rows, &a); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// MarkAlertShown records that the alert's notification was delivered.
func (s *PostgresStore) MarkAlertShown(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, queryMarkAlertShown, id)
	if err != nil {
		return fmt.Errorf("marking alert shown: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateAlert flips the alert inactive at the given time.
func (s *PostgresStore) DeactivateAlert(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, queryDeactivateAlert, id, at)
	if err != nil {
		return fmt.Errorf("deactivating alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Snapshot copies the entire tracked state in one transaction.
func (s *PostgresStore) Snapshot(ctx context.Context) (*domain.StateSnapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	snap := &domain.StateSnapshot{}

	rows, err := tx.Query(ctx, queryListProducts)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		snap.Products = append(snap.Products, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, querySnapshotEntries)
	if err != nil {
		return nil, fmt.Errorf("querying price entries: %w", err)
	}
	for rows.Next() {
		var e domain.PriceEntry
		if err := scanPriceEntry(rows, &e); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning price entry: %w", err)
		}
		snap.Entries = append(snap.Entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, queryListAlertsAll)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	for rows.Next() {
		var a domain.PriceAlert
		if err := scanAlert(rows, &a); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		snap.Alerts = append(snap.Alerts, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snap, tx.Commit(ctx)
}

// ReplaceState overwrites the entire tracked state from a snapshot.
func (s *PostgresStore) ReplaceState(ctx context.Context, snap *domain.StateSnapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning replace tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Alert and entry rows cascade off products.
	if _, err := tx.Exec(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("clearing products: %w", err)
	}

	for i := range snap.Products {
		p := &snap.Products[i]
		args := pgx.NamedArgs{
			"id":         p.ID,
			"title":      p.Title,
			"url":        p.URL,
			"image":      p.Image,
			"created_at": p.CreatedAt,
		}
		if _, err := tx.Exec(ctx, queryInsertSnapshotProduct, args); err != nil {
			return fmt.Errorf("restoring product %s: %w", p.ID, err)
		}
	}

	for i := range snap.Entries {
		e := &snap.Entries[i]
		args := pgx.NamedArgs{
			"id":          e.ID,
			"product_id":  e.ProductID,
			"amount":      int64(e.Amount),
			"observed_at": e.Date,
		}
		if _, err := tx.Exec(ctx, queryAppendPriceEntry, args); err != nil {
			return fmt.Errorf("restoring price entry %s: %w", e.ID, err)
		}
	}

	for i := range snap.Alerts {
		a := &snap.Alerts[i]
		args := pgx.NamedArgs{
			"id":                a.ID,
			"product_id":        a.ProductID,
			"price_id":          a.PriceID,
			"active":            a.Active,
			"shown":             a.Shown,
			"high_price_amount": int64(a.HighPriceAmount),
			"created_at":        a.CreatedAt,
			"deactivated_at":    a.DeactivatedAt,
		}
		if _, err := tx.Exec(ctx, queryInsertSnapshotAlert, args); err != nil {
			return fmt.Errorf("restoring alert %s: %w", a.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// scannable abstracts pgx.Row and pgx.Rows for reuse.
type scannable interface {
	Scan(dest ...any) error
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func scanProduct(row scannable, p *domain.Product) error {
	return row.Scan(&p.ID, &p.Title, &p.URL, &p.Image, &p.CreatedAt)
}

func scanPriceEntry(row scannable, e *domain.PriceEntry) error {
	var amount int64
	if err := row.Scan(&e.ID, &e.ProductID, &amount, &e.Date); err != nil {
		return err
	}
	e.Amount = money.Cents(amount)
	return nil
}

func scanAlert(row scannable, a *domain.PriceAlert) error {
	var high int64
	if err := row.Scan(
		&a.ID, &a.ProductID, &a.PriceID, &a.Active, &a.Shown,
		&high, &a.CreatedAt, &a.DeactivatedAt,
	); err != nil {
		return err
	}
	a.HighPriceAmount = money.Cents(high)
	return nil
}
