package inspector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/geocode"
	"github.com/envicheck/envicheck/internal/provider/resilience"
)

// SearchPath is the backend endpoint that proxies place searches.
const SearchPath = "/api/search"

// HTTPSearcher resolves place names through the backend search endpoint.
type HTTPSearcher struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewHTTPSearcher creates a backend searcher. It shares FetcherConfig with
// the fetcher since both talk to the same backend.
func NewHTTPSearcher(cfg FetcherConfig) *HTTPSearcher {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:      "backend-search",
			Timeout:   DefaultFetchTimeout,
			NoRetry:   true,
			NoBreaker: true,
		})
	}

	return &HTTPSearcher{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}
}

type searchResponse struct {
	Results []struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Point       struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"point"`
	} `json:"results"`
}

// Search returns up to limit places for query, or geocode.ErrNoResults.
func (s *HTTPSearcher) Search(ctx context.Context, query string, limit int) ([]geocode.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, geocode.ErrEmptyQuery
	}
	if limit < 1 {
		limit = 1
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+SearchPath+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err, Timeout: isTimeout(ctx, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Err: err, Timeout: isTimeout(ctx, err)}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, geocode.ErrNoResults
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: errorField(body)}
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(payload.Results) == 0 {
		return nil, geocode.ErrNoResults
	}

	places := make([]geocode.Place, 0, len(payload.Results))
	for _, r := range payload.Results {
		places = append(places, geocode.Place{
			Name:        r.Name,
			DisplayName: r.DisplayName,
			Coordinate:  geo.Coordinate{Lat: r.Point.Lat, Lon: r.Point.Lon},
		})
	}
	return places, nil
}

var _ Geocoder = (*HTTPSearcher)(nil)
