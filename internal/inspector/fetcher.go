package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/envicheck/envicheck/internal/environment"
	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/provider/resilience"
)

// EnvironmentPath is the backend endpoint that serves reports.
const EnvironmentPath = "/api/environment"

const maxBodyBytes = 1 << 20

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetcherConfig holds configuration for the backend fetcher.
type FetcherConfig struct {
	// BaseURL is the backend root, e.g. "http://localhost:8080".
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a non-retrying
	// resilient client is created.
	HTTPClient HTTPDoer
}

// HTTPFetcher fetches environment reports from the backend.
type HTTPFetcher struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewHTTPFetcher creates a backend fetcher.
func NewHTTPFetcher(cfg FetcherConfig) *HTTPFetcher {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:      "backend",
			Timeout:   DefaultFetchTimeout,
			NoRetry:   true,
			NoBreaker: true,
		})
	}

	return &HTTPFetcher{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}
}

// Fetch requests the report for coord. Errors are one of NetworkError,
// HTTPError or ParseError.
func (f *HTTPFetcher) Fetch(ctx context.Context, coord geo.Coordinate) (*environment.Report, error) {
	params := url.Values{}
	params.Set("lat", geo.FormatDegrees(coord.Lat))
	params.Set("lon", geo.FormatDegrees(coord.Lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+EnvironmentPath+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err, Timeout: isTimeout(ctx, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Err: err, Timeout: isTimeout(ctx, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: errorField(body)}
	}

	var report environment.Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, &ParseError{Err: err}
	}
	if report.Error != "" {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: report.Error}
	}

	return &report, nil
}

// errorField extracts the "error" string from a JSON error body, if any.
func errorField(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Detail
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

var _ Fetcher = (*HTTPFetcher)(nil)
