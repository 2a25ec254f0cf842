// Package api assembles the pricescout HTTP server: Echo for the
// operational endpoints, Huma for the versioned JSON API.
package api

import (
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pricescout/pricescout/internal/api/handlers"
	"github.com/pricescout/pricescout/internal/api/middleware"
	"github.com/pricescout/pricescout/internal/extract"
	"github.com/pricescout/pricescout/internal/fetch"
	"github.com/pricescout/pricescout/internal/history"
	"github.com/pricescout/pricescout/internal/store"
)

// Deps carries the server's wired dependencies. Loader may be nil when no
// headless browser is available; the extract endpoint then requires
// pre-fetched HTML.
type Deps struct {
	Store    store.Store
	History  *history.Engine
	Pipeline *extract.Pipeline
	Loader   fetch.Loader
	Logger   *slog.Logger
	Version  string
}

// NewRouter builds the Echo instance with middleware, operational
// endpoints, and all versioned API routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLog(deps.Logger, middleware.SkipPaths("/healthz", "/readyz", "/metrics")))
	e.Use(middleware.Recovery(deps.Logger))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(deps.Store)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("pricescout API", deps.Version))

	handlers.RegisterExtractRoutes(api, handlers.NewExtractHandler(deps.Pipeline, deps.Loader))
	handlers.RegisterProductRoutes(api, handlers.NewProductsHandler(deps.Store, deps.History))
	handlers.RegisterPriceRoutes(api, handlers.NewPricesHandler(deps.Store, deps.History))
	handlers.RegisterAlertRoutes(api, handlers.NewAlertsHandler(deps.Store, deps.History))

	return e
}
