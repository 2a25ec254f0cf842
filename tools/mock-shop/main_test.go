package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestMux(s *shop) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products/{slug}", pageHandler(logger, s))
	mux.HandleFunc("POST /admin/drop/{slug}", dropHandler(logger, s))
	return mux
}

func TestPageHandler(t *testing.T) {
	mux := newTestMux(newShop(defaultCatalog))

	req := httptest.NewRequest(http.MethodGet, "/products/widget", http.NoBody)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`og:title" content="Widget Deluxe"`,
		`og:price:amount" content="109.99"`,
		`og:image" content="/images/widget.jpg"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestPageHandlerUnknownProduct(t *testing.T) {
	mux := newTestMux(newShop(defaultCatalog))

	req := httptest.NewRequest(http.MethodGet, "/products/nope", http.NoBody)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDropHandler(t *testing.T) {
	s := newShop(defaultCatalog)
	mux := newTestMux(s)

	req := httptest.NewRequest(http.MethodPost, "/admin/drop/widget?pct=10", http.NoBody)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}

	// 10999 minus 10% (integer math) = 9900.
	if resp.Amount != 9900 {
		t.Errorf("amount = %d, want 9900", resp.Amount)
	}

	p, _ := s.get("widget")
	if p.Amount != 9900 {
		t.Errorf("stored amount = %d, want 9900", p.Amount)
	}
}

func TestDropHandlerRejectsBadPct(t *testing.T) {
	mux := newTestMux(newShop(defaultCatalog))

	req := httptest.NewRequest(http.MethodPost, "/admin/drop/widget?pct=150", http.NoBody)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
