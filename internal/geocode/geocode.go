// Package geocode resolves free-text place names to coordinates and
// coordinates back to place names.
package geocode

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/envicheck/envicheck/internal/geo"
)

// Geocoding errors.
var (
	ErrNoResults           = errors.New("no geocoding results")
	ErrEmptyQuery          = errors.New("empty search query")
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	ErrRateLimited         = errors.New("geocoding provider rate limit exceeded")
)

// RateLimitedError is returned when the provider rejects a request with 429.
// RetryAfter is zero when the provider gave no hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return ErrRateLimited.Error() + ", retry after " + e.RetryAfter.String()
	}
	return ErrRateLimited.Error()
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// Place is a resolved location.
type Place struct {
	// Name is the short name shown as a title, e.g. "Paris".
	Name string `json:"name"`

	// DisplayName is the full, comma-separated address.
	DisplayName string `json:"display_name"`

	Coordinate geo.Coordinate `json:"coordinate"`
}

// Geocoder is implemented by every geocoding backend.
type Geocoder interface {
	// Search resolves free text to candidate places, best match first.
	// Returns ErrNoResults when nothing matched.
	Search(ctx context.Context, query string, limit int) ([]Place, error)

	// Reverse resolves a coordinate to the nearest named place.
	Reverse(ctx context.Context, coord geo.Coordinate) (*Place, error)

	// Name returns the provider name for logging.
	Name() string
}

// ShortName returns the first comma-separated component of a display name.
func ShortName(displayName string) string {
	first, _, _ := strings.Cut(displayName, ",")
	return strings.TrimSpace(first)
}
