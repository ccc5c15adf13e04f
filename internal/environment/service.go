package environment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/envicheck/envicheck/internal/airquality"
	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/geocode"
	"github.com/envicheck/envicheck/internal/photo"
	"github.com/envicheck/envicheck/internal/weather"
)

// Service errors.
var (
	// ErrAllProvidersFailed is returned when no provider produced data and
	// no usable cached report exists.
	ErrAllProvidersFailed = errors.New("all environment providers failed")
)

// ServiceConfig holds configuration for the environment service.
// Any provider may be nil, in which case its section is never populated.
type ServiceConfig struct {
	Geocoder   geocode.Geocoder
	AirQuality airquality.Provider
	Weather    weather.Provider
	Photos     photo.Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long a report is served from cache (default: 10 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.01).
	// Points within the same grid cell share a cached report.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale reports when every provider
	// fails (default: 1 hour).
	StaleIfErrorTTL time.Duration

	// FetchTimeout bounds one aggregation across all providers (default: 8 seconds).
	FetchTimeout time.Duration
}

// Service builds environment reports with caching.
type Service struct {
	geocoder        geocode.Geocoder
	airQuality      airquality.Provider
	weather         weather.Provider
	photos          photo.Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	fetchTimeout    time.Duration

	group singleflight.Group

	mu              sync.RWMutex
	cache           map[string]*cachedReport
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cachedReport struct {
	report    *Report
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new environment service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01 // ~1.1km at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 1 * time.Hour
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 8 * time.Second
	}

	return &Service{
		geocoder:        cfg.Geocoder,
		airQuality:      cfg.AirQuality,
		weather:         cfg.Weather,
		photos:          cfg.Photos,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		fetchTimeout:    fetchTimeout,
		cache:           make(map[string]*cachedReport),
		cleanupInterval: 5 * time.Minute,
	}
}

// GetReport returns the environment report for a coordinate.
// Uses a cached report for the coordinate's grid cell if one is fresh.
func (s *Service) GetReport(ctx context.Context, coord geo.Coordinate) (*Report, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	key := coord.GridKey(s.cacheGridSize)

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.report.withCoordinates(coord), nil
	}
	s.mu.RUnlock()

	// Concurrent requests for one cell share a single aggregation.
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetchReport(ctx, coord, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Report).withCoordinates(coord), nil
}

// Refresh rebuilds the report for a coordinate, bypassing a fresh cache entry.
func (s *Service) Refresh(ctx context.Context, coord geo.Coordinate) (*Report, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	key := coord.GridKey(s.cacheGridSize)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetchReport(ctx, coord, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Report).withCoordinates(coord), nil
}

// fetchReport aggregates providers and updates the cache.
func (s *Service) fetchReport(ctx context.Context, coord geo.Coordinate, key string) (*Report, error) {
	// The aggregation is shared, so it must not die with the first caller.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
	defer cancel()

	s.logger.Debug().
		Float64("lat", coord.Lat).
		Float64("lon", coord.Lon).
		Msg("aggregating environment report")

	report, attempted, failed := s.aggregate(ctx, coord)

	if attempted > 0 && failed == attempted {
		s.mu.RLock()
		cached, ok := s.cache[key]
		s.mu.RUnlock()
		if ok && time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Msg("serving stale environment report due to provider errors")
			return cached.report, nil
		}
		return nil, ErrAllProvidersFailed
	}

	now := time.Now()
	s.mu.Lock()
	s.cache[key] = &cachedReport{
		report:    report,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}
	s.cleanupIfNeeded()
	s.mu.Unlock()

	return report, nil
}

// aggregate calls every configured provider concurrently. The photo search
// runs after reverse geocoding since its keyword is the place name.
func (s *Service) aggregate(ctx context.Context, coord geo.Coordinate) (report *Report, attempted, failed int) {
	report = &Report{}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	record := func(provider string, err error) {
		mu.Lock()
		defer mu.Unlock()
		attempted++
		if err != nil {
			failed++
			s.logger.Warn().Err(err).
				Str("provider", provider).
				Float64("lat", coord.Lat).
				Float64("lon", coord.Lon).
				Msg("provider failed, omitting section")
		}
	}

	if s.geocoder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			place, err := s.geocoder.Reverse(ctx, coord)
			record(s.geocoder.Name(), err)
			if err != nil {
				if s.photos != nil {
					record(s.photos.Name(), fmt.Errorf("no place name for photo search: %w", err))
				}
				return
			}
			mu.Lock()
			report.Location = locationFromPlace(place)
			mu.Unlock()

			if s.photos == nil {
				return
			}
			keyword := geocode.ShortName(place.DisplayName)
			if keyword == "" {
				keyword = place.Name
			}
			p, err := s.photos.Search(ctx, keyword)
			record(s.photos.Name(), err)
			if err != nil {
				return
			}
			mu.Lock()
			report.Image = imageFromPhoto(p)
			mu.Unlock()
		}()
	}

	if s.airQuality != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reading, err := s.airQuality.GetReading(ctx, coord)
			record(s.airQuality.Name(), err)
			if err != nil {
				return
			}
			mu.Lock()
			report.AirQuality = airQualityFromReading(reading)
			mu.Unlock()
		}()
	}

	if s.weather != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs, err := s.weather.GetCurrentWeather(ctx, coord)
			record(s.weather.Name(), err)
			if err != nil {
				return
			}
			mu.Lock()
			report.Weather = weatherFromObservation(obs)
			mu.Unlock()
		}()
	}

	wg.Wait()
	return report, attempted, failed
}

// cleanupIfNeeded removes entries too old to be served even as stale.
// Caller must hold s.mu.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired report cache entries")
	}
}

// InvalidateCache clears all cached reports.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedReport)
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		}
	}

	return CacheStats{
		Entries:      len(s.cache),
		FreshEntries: fresh,
		Providers:    s.ProviderNames(),
	}
}

// ProviderNames lists the configured providers.
func (s *Service) ProviderNames() []string {
	var names []string
	if s.geocoder != nil {
		names = append(names, s.geocoder.Name())
	}
	if s.airQuality != nil {
		names = append(names, s.airQuality.Name())
	}
	if s.weather != nil {
		names = append(names, s.weather.Name())
	}
	if s.photos != nil {
		names = append(names, s.photos.Name())
	}
	return names
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries      int      `json:"entries"`
	FreshEntries int      `json:"fresh_entries"`
	Providers    []string `json:"providers"`
}
