// Package googlemaps provides a geocoder backed by the Google Maps
// Geocoding API.
package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/geocode"
)

// ProviderName identifies this geocoder.
const ProviderName = "googlemaps"

// ClientConfig holds configuration for the Google Maps geocoder.
type ClientConfig struct {
	// APIKey is the Google Maps API key (required).
	APIKey string

	// BaseURL overrides the Maps API host, for tests.
	BaseURL string

	// HTTPClient is passed to the maps client when set.
	HTTPClient *http.Client
}

// Client geocodes through googlemaps.github.io/maps.
type Client struct {
	maps *maps.Client
}

// NewClient creates a new Google Maps geocoder.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("googlemaps: API key is required")
	}

	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, maps.WithHTTPClient(cfg.HTTPClient))
	}

	mc, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &Client{maps: mc}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Search forward-geocodes an address or place name.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]geocode.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, geocode.ErrEmptyQuery
	}

	results, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", geocode.ErrProviderUnavailable, err)
	}
	if len(results) == 0 {
		return nil, geocode.ErrNoResults
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	places := make([]geocode.Place, 0, len(results))
	for i := range results {
		places = append(places, toPlace(&results[i]))
	}
	return places, nil
}

// Reverse resolves a coordinate to the best matching address.
func (c *Client) Reverse(ctx context.Context, coord geo.Coordinate) (*geocode.Place, error) {
	results, err := c.maps.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: coord.Lat, Lng: coord.Lon},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", geocode.ErrProviderUnavailable, err)
	}
	if len(results) == 0 {
		return nil, geocode.ErrNoResults
	}

	p := toPlace(&results[0])
	p.Coordinate = coord
	return &p, nil
}

// toPlace prefers the locality component as the short name.
func toPlace(r *maps.GeocodingResult) geocode.Place {
	name := ""
	for _, comp := range r.AddressComponents {
		for _, typ := range comp.Types {
			if typ == "locality" {
				name = comp.LongName
				break
			}
		}
		if name != "" {
			break
		}
	}
	if name == "" {
		name = geocode.ShortName(r.FormattedAddress)
	}

	return geocode.Place{
		Name:        name,
		DisplayName: r.FormattedAddress,
		Coordinate: geo.Coordinate{
			Lat: r.Geometry.Location.Lat,
			Lon: r.Geometry.Location.Lng,
		},
	}
}
