// Package domain defines the core business types for price-scout.
package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pricescout/pricescout/pkg/money"
)

// ExtractionMethod identifies which extraction strategy produced a result.
type ExtractionMethod string

// Extraction method constants, in pipeline priority order.
const (
	MethodSiteSelector ExtractionMethod = "site_selector"
	MethodRuleset      ExtractionMethod = "ruleset"
	MethodOpenGraph    ExtractionMethod = "open_graph"
)

// ExtractedProduct is the result of a single extraction pass against a page.
// It is produced fresh per attempt and is never partially valid: extraction
// methods return either a fully populated record or nothing.
type ExtractedProduct struct {
	Title  string           `json:"title"`
	Image  string           `json:"image"`
	Price  money.Cents      `json:"price"`
	URL    string           `json:"url"`
	Date   time.Time        `json:"date"`
	Method ExtractionMethod `json:"method,omitempty"`
}

// Complete reports whether every required feature is populated.
func (p *ExtractedProduct) Complete() bool {
	if p == nil {
		return false
	}
	return p.Title != "" &&
		p.Image != "" &&
		p.URL != "" &&
		!p.Date.IsZero() &&
		p.Price.Valid()
}

// Product is a tracked product. Its ID is derived deterministically from the
// canonical product URL, so re-extraction of the same URL maps to the same
// Product.
type Product struct {
	ID        string    `json:"id"         db:"id"`
	Title     string    `json:"title"      db:"title"`
	URL       string    `json:"url"        db:"url"`
	Image     string    `json:"image"      db:"image"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PriceEntry is one observation in a product's append-only price history.
// Consecutive entries for the same product never carry equal amounts.
type PriceEntry struct {
	ID        string      `json:"id"         db:"id"`
	ProductID string      `json:"product_id" db:"product_id"`
	Amount    money.Cents `json:"amount"     db:"amount"`
	Date      time.Time   `json:"date"       db:"date"`
}

// PriceAlert records a qualifying price drop relative to the historical high.
// Shown flips true once the user-facing notification has been delivered
// (at most once per alert). Active flips false once the user acts on it.
type PriceAlert struct {
	ID              string      `json:"id"                       db:"id"`
	ProductID       string      `json:"product_id"               db:"product_id"`
	PriceID         string      `json:"price_id"                 db:"price_id"`
	Active          bool        `json:"active"                   db:"active"`
	Shown           bool        `json:"shown"                    db:"shown"`
	HighPriceAmount money.Cents `json:"high_price_amount"        db:"high_price_amount"`
	CreatedAt       time.Time   `json:"created_at"               db:"created_at"`
	DeactivatedAt   *time.Time  `json:"deactivated_at,omitempty" db:"deactivated_at"`
}

// StateSnapshot is a serializable copy of the entire tracked-product state.
// Replacing state from a snapshot is an idempotent resync, distinct from
// incremental appends.
type StateSnapshot struct {
	Products []Product    `json:"products"`
	Entries  []PriceEntry `json:"entries"`
	Alerts   []PriceAlert `json:"alerts"`
}

// ProductID derives the stable product identifier from a product URL.
// The URL is canonicalized (lowercased host, fragment stripped) and hashed
// into a name-based UUID so equal pages always map to the same ID.
func ProductID(rawURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(CanonicalURL(rawURL))).String()
}

// CanonicalURL normalizes a product URL for identity purposes.
// Unparseable URLs are returned trimmed but otherwise as-is.
func CanonicalURL(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String()
}
