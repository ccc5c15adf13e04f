// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/envicheck/envicheck/internal/geo"
)

// Config is the API server configuration.
type Config struct {
	Port         string
	Env          string
	OTelEnabled  bool
	OTLPEndpoint string
	RequireTLS   bool

	WAQIToken          string
	WAQIBaseURL        string
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	UnsplashAccessKey  string
	UnsplashBaseURL    string
	GoogleMapsAPIKey   string
	NominatimBaseURL   string
	NominatimUserAgent string

	ProviderTimeout time.Duration
	ReportCacheTTL  time.Duration
	StaleIfErrorTTL time.Duration
	CacheGridSize   float64

	// WarmupSchedule is a cron expression; warm-up is disabled when empty.
	WarmupSchedule string
	WarmupPoints   []geo.Coordinate
}

// LoadDotEnv loads variables from the given .env files (".env" when none
// are given) without overriding variables already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	var errs []error

	cfg := Config{
		Port:               getEnvOrDefault("APP_PORT", "8080"),
		Env:                getEnvOrDefault("APP_ENV", "development"),
		OTelEnabled:        parseBool("OTEL_ENABLED", false, &errs),
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		RequireTLS:         parseBool("REQUIRE_TLS", false, &errs),
		WAQIToken:          os.Getenv("WAQI_TOKEN"),
		WAQIBaseURL:        os.Getenv("WAQI_BASE_URL"),
		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: os.Getenv("OPENWEATHER_BASE_URL"),
		UnsplashAccessKey:  os.Getenv("UNSPLASH_ACCESS_KEY"),
		UnsplashBaseURL:    os.Getenv("UNSPLASH_BASE_URL"),
		GoogleMapsAPIKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),
		NominatimBaseURL:   os.Getenv("NOMINATIM_BASE_URL"),
		NominatimUserAgent: os.Getenv("NOMINATIM_USER_AGENT"),
		ProviderTimeout:    parseDuration("PROVIDER_TIMEOUT", 8*time.Second, &errs),
		ReportCacheTTL:     parseDuration("REPORT_CACHE_TTL", 10*time.Minute, &errs),
		StaleIfErrorTTL:    parseDuration("REPORT_STALE_IF_ERROR_TTL", time.Hour, &errs),
		CacheGridSize:      parseFloat("REPORT_CACHE_GRID_SIZE", 0.01, &errs),
		WarmupSchedule:     strings.TrimSpace(os.Getenv("WARMUP_SCHEDULE")),
	}

	points, err := ParsePoints(os.Getenv("WARMUP_POINTS"))
	if err != nil {
		errs = append(errs, fmt.Errorf("WARMUP_POINTS: %w", err))
	}
	cfg.WarmupPoints = points

	if cfg.CacheGridSize <= 0 {
		errs = append(errs, errors.New("REPORT_CACHE_GRID_SIZE: must be positive"))
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// ParsePoints parses "lat,lon;lat,lon" into coordinates.
func ParsePoints(raw string) ([]geo.Coordinate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var points []geo.Coordinate
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		lat, lon, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("%q: expected lat,lon", pair)
		}
		c, err := geo.Parse(strings.TrimSpace(lat), strings.TrimSpace(lon))
		if err != nil {
			return nil, fmt.Errorf("%q: %w", pair, err)
		}
		points = append(points, c)
	}
	return points, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func parseDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func parseFloat(key string, def float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}
