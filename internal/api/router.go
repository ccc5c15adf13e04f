// Package api provides the HTTP API for EnviCheck.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/envicheck/envicheck/internal/api/handler"
	"github.com/envicheck/envicheck/internal/api/middleware"
	"github.com/envicheck/envicheck/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Reports builds environment reports; usually *environment.Service.
	Reports handler.ReportService
	// Cache exposes report cache statistics on /v1/ops/status. Optional.
	Cache handler.CacheStatsSource

	// Warmup exposes warm-up run statistics on /v1/ops/status. Optional.
	Warmup handler.WarmupStatsSource
	// Geocoder backs /api/search. The route is not mounted when nil.
	Geocoder handler.Searcher
	// Registry reports provider circuit state. Optional.
	Registry *resilience.Registry

	RequireTLS bool
}

// NewRouter creates a new chi router with all routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "envicheck-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.Cache, cfg.Warmup)
	pageHandler := handler.NewPageHandler(cfg.Version, cfg.Logger)
	aqiHandler := handler.NewAQIHandler()

	reportRateLimit := middleware.RateLimitByIP(middleware.ReportRateLimit)     // 60 req/min
	searchRateLimit := middleware.RateLimitByIP(middleware.SearchRateLimit)     // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	// Map page
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentSecurityPolicy(middleware.PageContentSecurityPolicy))
		r.Get("/", pageHandler.Index)
		r.Get("/static/*", pageHandler.Static)
	})

	if cfg.Reports != nil {
		envHandler := handler.NewEnvironmentHandler(cfg.Reports, cfg.Logger)

		// Legacy endpoint kept for older pages.
		r.With(reportRateLimit).Get("/info", envHandler.GetEnvironment)

		r.Route("/api", func(r chi.Router) {
			r.With(reportRateLimit).Get("/environment", envHandler.GetEnvironment)
			r.With(reportRateLimit).Get("/popup", envHandler.GetPopup)
			r.With(standardRateLimit).Get("/aqi/bands", aqiHandler.GetBands)
			if cfg.Geocoder != nil {
				searchHandler := handler.NewSearchHandler(cfg.Geocoder, cfg.Logger)
				r.With(searchRateLimit).Get("/search", searchHandler.Search)
			}
		})
	} else {
		r.With(standardRateLimit).Get("/api/aqi/bands", aqiHandler.GetBands)
	}

	r.Route("/v1/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
	})

	return r
}
