// Package api assembles the HTTP server: probes, Prometheus metrics and the
// Huma-described JSON API.
package api

import (
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/listing-tracker/internal/api/handlers"
	mw "github.com/donaldgifford/listing-tracker/internal/api/middleware"
)

// Deps are the backends the API exposes. Runner may be nil in processes
// that do not run pipelines; the trigger routes are then not registered.
type Deps struct {
	Jobs      handlers.JobStore
	Runs      handlers.RunLister
	Listings  handlers.ListingLister
	Providers handlers.ProviderLister
	Runner    handlers.Runner
	Pingers   []handlers.Pinger
}

// NewServer builds the Echo instance with every route registered.
func NewServer(deps Deps, version string, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(mw.Recovery(log))
	e.Use(mw.Tracing())
	e.Use(mw.RequestLog(log))
	e.Use(mw.Metrics())

	health := handlers.NewHealthHandler(deps.Pingers...)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("Listing Tracker API", version))

	if deps.Jobs != nil {
		handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(deps.Jobs))
	}
	if deps.Runs != nil {
		handlers.RegisterRunRoutes(api, handlers.NewRunsHandler(deps.Runs))
	}
	if deps.Listings != nil {
		handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(deps.Listings))
	}
	if deps.Providers != nil {
		handlers.RegisterProviderRoutes(api, deps.Providers)
	}
	if deps.Runner != nil {
		handlers.RegisterTriggerRoutes(api, handlers.NewTriggerHandler(deps.Runner))
	}

	return e
}
