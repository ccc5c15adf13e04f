// Package main provides the entrypoint for the EnviCheck API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/envicheck/envicheck/internal/airquality"
	"github.com/envicheck/envicheck/internal/airquality/waqi"
	"github.com/envicheck/envicheck/internal/api"
	"github.com/envicheck/envicheck/internal/api/handler"
	"github.com/envicheck/envicheck/internal/api/middleware"
	"github.com/envicheck/envicheck/internal/config"
	"github.com/envicheck/envicheck/internal/environment"
	"github.com/envicheck/envicheck/internal/geocode"
	"github.com/envicheck/envicheck/internal/geocode/googlemaps"
	"github.com/envicheck/envicheck/internal/geocode/nominatim"
	"github.com/envicheck/envicheck/internal/photo"
	"github.com/envicheck/envicheck/internal/photo/unsplash"
	"github.com/envicheck/envicheck/internal/provider/resilience"
	"github.com/envicheck/envicheck/internal/telemetry"
	"github.com/envicheck/envicheck/internal/warmup"
	"github.com/envicheck/envicheck/internal/weather"
	"github.com/envicheck/envicheck/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "envicheck-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting EnviCheck API")

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	providerMetrics, err := resilience.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	registry := resilience.NewRegistry()
	providers := providerSet{
		registry: registry,
		metrics:  providerMetrics,
		timeout:  cfg.ProviderTimeout,
	}

	geocoder := providers.geocoder(cfg, log)
	airQuality := providers.airQuality(cfg, log)
	weatherProvider := providers.weather(cfg, log)
	photos := providers.photos(cfg, log)

	envService := environment.NewService(environment.ServiceConfig{
		Geocoder:        geocoder,
		AirQuality:      airQuality,
		Weather:         weatherProvider,
		Photos:          photos,
		Logger:          log,
		CacheTTL:        cfg.ReportCacheTTL,
		CacheGridSize:   cfg.CacheGridSize,
		StaleIfErrorTTL: cfg.StaleIfErrorTTL,
		FetchTimeout:    cfg.ProviderTimeout,
	})
	log.Info().
		Strs("providers", envService.ProviderNames()).
		Dur("cache_ttl", cfg.ReportCacheTTL).
		Msg("environment service initialized")

	// Optional cache warm-up
	var (
		scheduler   *warmup.Scheduler
		warmupStats handler.WarmupStatsSource
	)
	if cfg.WarmupSchedule != "" {
		job := warmup.NewJob(warmup.JobConfig{
			Config: warmup.Config{
				Targets:     warmup.PointsTarget(cfg.WarmupPoints),
				Concurrency: 3,
				Timeout:     30 * time.Second,
			},
			Logger:    log,
			Refresher: envService,
		})
		scheduler, err = warmup.NewScheduler(cfg.WarmupSchedule, job, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create warm-up scheduler")
		}
		scheduler.Start()
		warmupStats = job
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Reports:     envService,
		Cache:       envService,
		Warmup:      warmupStats,
		Geocoder:    geocoder,
		Registry:    registry,
		RequireTLS:  cfg.RequireTLS,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("warm-up scheduler did not stop in time")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// providerSet builds provider clients that share one health registry and
// metrics instance.
type providerSet struct {
	registry *resilience.Registry
	metrics  *resilience.Metrics
	timeout  time.Duration
}

func (p providerSet) client(name string) *resilience.Client {
	c := resilience.DefaultClientConfig(name)
	c.Timeout = p.timeout
	c.Registry = p.registry
	c.Metrics = p.metrics
	return resilience.NewClient(c)
}

func (p providerSet) geocoder(cfg config.Config, log zerolog.Logger) geocode.Geocoder {
	if cfg.GoogleMapsAPIKey != "" {
		g, err := googlemaps.NewClient(googlemaps.ClientConfig{
			APIKey:     cfg.GoogleMapsAPIKey,
			HTTPClient: p.client(googlemaps.ProviderName).StandardClient(),
		})
		if err == nil {
			log.Info().Str("provider", googlemaps.ProviderName).Msg("geocoder configured")
			return g
		}
		p.registry.Unregister(googlemaps.ProviderName)
		log.Warn().Err(err).Msg("google maps geocoder unavailable, falling back to nominatim")
	}

	log.Info().Str("provider", nominatim.ProviderName).Msg("geocoder configured")
	return nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:    cfg.NominatimBaseURL,
		UserAgent:  cfg.NominatimUserAgent,
		HTTPClient: p.client(nominatim.ProviderName),
	})
}

func (p providerSet) airQuality(cfg config.Config, log zerolog.Logger) airquality.Provider {
	if cfg.WAQIToken == "" {
		log.Warn().Msg("WAQI_TOKEN not set - air quality disabled")
		return nil
	}
	return waqi.NewClient(waqi.ClientConfig{
		Token:      cfg.WAQIToken,
		BaseURL:    cfg.WAQIBaseURL,
		HTTPClient: p.client(waqi.ProviderName),
	})
}

func (p providerSet) weather(cfg config.Config, log zerolog.Logger) weather.Provider {
	if cfg.OpenWeatherAPIKey == "" {
		log.Warn().Msg("OPENWEATHER_API_KEY not set - weather disabled")
		return nil
	}
	return openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     cfg.OpenWeatherAPIKey,
		BaseURL:    cfg.OpenWeatherBaseURL,
		HTTPClient: p.client(openweathermap.ProviderName),
	})
}

func (p providerSet) photos(cfg config.Config, log zerolog.Logger) photo.Provider {
	if cfg.UnsplashAccessKey == "" {
		log.Warn().Msg("UNSPLASH_ACCESS_KEY not set - location photos disabled")
		return nil
	}
	return unsplash.NewClient(unsplash.ClientConfig{
		AccessKey:  cfg.UnsplashAccessKey,
		BaseURL:    cfg.UnsplashBaseURL,
		HTTPClient: p.client(unsplash.ProviderName),
	})
}
