// Package nominatim provides a geocoder backed by the OpenStreetMap
// Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/geocode"
	"github.com/envicheck/envicheck/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoder.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies the application, as required by the
	// Nominatim usage policy.
	DefaultUserAgent = "EnviCheck/1.0"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// UserAgent defaults to DefaultUserAgent.
	UserAgent string

	// HTTPClient is the HTTP client to use. If nil, a resilient client is created.
	HTTPClient HTTPDoer
}

// Client is a Nominatim API client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient HTTPDoer
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type place struct {
	PlaceID     int64  `json:"place_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Error       string `json:"error"`
}

// Search resolves free text to places.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]geocode.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, geocode.ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var results []place
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, geocode.ErrNoResults
	}

	places := make([]geocode.Place, 0, len(results))
	for i := range results {
		p, err := results[i].toPlace()
		if err != nil {
			return nil, err
		}
		places = append(places, *p)
	}
	return places, nil
}

// Reverse resolves a coordinate to a place.
func (c *Client) Reverse(ctx context.Context, coord geo.Coordinate) (*geocode.Place, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", geo.FormatDegrees(coord.Lat))
	params.Set("lon", geo.FormatDegrees(coord.Lon))

	var result place
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		return nil, err
	}
	// Nominatim answers 200 with an error field for open water and the like.
	if result.Error != "" || result.DisplayName == "" {
		return nil, geocode.ErrNoResults
	}

	p, err := result.toPlace()
	if err != nil {
		return nil, err
	}
	// Keep the exact queried coordinate rather than the snapped OSM object.
	p.Coordinate = coord
	return p, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", geocode.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &geocode.RateLimitedError{RetryAfter: retryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d from %s", geocode.ErrProviderUnavailable, resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// retryAfter parses the delay-seconds form of Retry-After.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func (p *place) toPlace() (*geocode.Place, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon %q: %w", p.Lon, err)
	}

	name := p.Name
	if name == "" {
		name = geocode.ShortName(p.DisplayName)
	}

	return &geocode.Place{
		Name:        name,
		DisplayName: p.DisplayName,
		Coordinate:  geo.Coordinate{Lat: lat, Lon: lon},
	}, nil
}
