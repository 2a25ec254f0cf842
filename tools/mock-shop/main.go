// Package main implements a mock retail shop for local development.
// It serves product pages with Open Graph metadata so extraction and
// recheck runs can be exercised without touching real retailer sites.
// Prices drift downward over time to make alert flows reproducible.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

type product struct {
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Image  string `json:"image"`
	Amount int64  `json:"amount"` // minor units
}

// catalog is the set of products served when no fixture file is given.
var defaultCatalog = []product{
	{Slug: "widget", Title: "Widget Deluxe", Image: "/images/widget.jpg", Amount: 10999},
	{Slug: "gadget", Title: "Gadget Pro 9", Image: "/images/gadget.jpg", Amount: 4500},
	{Slug: "doohickey", Title: "Doohickey Mini", Image: "/images/doohickey.jpg", Amount: 1250},
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <meta property="og:title" content="{{.Title}}">
  <meta property="og:image" content="{{.Image}}">
  <meta property="og:price:amount" content="{{.Price}}">
</head>
<body>
  <h1>{{.Title}}</h1>
  <img src="{{.Image}}" alt="{{.Title}}">
  <span class="price">${{.Price}}</span>
</body>
</html>`))

// shop holds mutable product state behind a lock so the drop endpoint and
// page handler can race safely.
type shop struct {
	mu       sync.Mutex
	products map[string]*product
}

func newShop(catalog []product) *shop {
	s := &shop{products: make(map[string]*product, len(catalog))}
	for i := range catalog {
		p := catalog[i]
		s.products[p.Slug] = &p
	}
	return s
}

func (s *shop) get(slug string) (product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[slug]
	if !ok {
		return product{}, false
	}
	return *p, true
}

// drop lowers a product's price by pct percent and returns the new amount.
func (s *shop) drop(slug string, pct int) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[slug]
	if !ok {
		return 0, false
	}
	p.Amount -= p.Amount * int64(pct) / 100
	return p.Amount, true
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "", "optional JSON catalog fixture")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	catalog := defaultCatalog
	if *fixtureFile != "" {
		loaded, err := loadCatalog(*fixtureFile)
		if err != nil {
			logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
			os.Exit(1)
		}
		catalog = loaded
	}
	logger.Info("loaded catalog", "products", len(catalog))

	s := newShop(catalog)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products/{slug}", pageHandler(logger, s))
	mux.HandleFunc("POST /admin/drop/{slug}", dropHandler(logger, s))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock shop", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadCatalog(path string) ([]product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var catalog []product
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return catalog, nil
}

// pageHandler renders a product page with Open Graph metadata.
func pageHandler(logger *slog.Logger, s *shop) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		p, ok := s.get(slug)
		if !ok {
			http.NotFound(w, r)
			return
		}

		data := struct {
			Title string
			Image string
			Price string
		}{
			Title: p.Title,
			Image: p.Image,
			Price: fmt.Sprintf("%d.%02d", p.Amount/100, p.Amount%100),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTemplate.Execute(w, data); err != nil {
			logger.Error("rendering page", "slug", slug, "error", err)
		}
	}
}

// dropHandler lowers a product's price so alert flows can be triggered on
// demand, e.g. POST /admin/drop/widget?pct=10.
func dropHandler(logger *slog.Logger, s *shop) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")

		pct := 10
		if v := r.URL.Query().Get("pct"); v != "" {
			if _, err := fmt.Sscanf(v, "%d", &pct); err != nil || pct < 1 || pct > 99 {
				http.Error(w, "pct must be 1-99", http.StatusBadRequest)
				return
			}
		}

		amount, ok := s.drop(slug, pct)
		if !ok {
			http.NotFound(w, r)
			return
		}

		logger.Info("price dropped", "slug", slug, "pct", pct, "amount", amount)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"slug": slug, "amount": amount})
	}
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
