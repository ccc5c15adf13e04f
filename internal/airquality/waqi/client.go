// Package waqi provides an air quality provider backed by the World Air
// Quality Index project API.
package waqi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/envicheck/envicheck/internal/airquality"
	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "waqi"

	// DefaultBaseURL is the WAQI API base URL.
	DefaultBaseURL = "https://api.waqi.info"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the WAQI client.
type ClientConfig struct {
	// Token is the WAQI API token (required).
	Token string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a resilient client is created.
	HTTPClient HTTPDoer
}

// Client is a WAQI API client.
type Client struct {
	token      string
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new WAQI client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		token:      cfg.Token,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// API response types.

type feedResponse struct {
	Status string `json:"status"`
	// Data is an object on success and an error string otherwise.
	Data json.RawMessage `json:"data"`
}

type feedData struct {
	// AQI is a number, or "-" when the station has no current value.
	AQI  json.RawMessage `json:"aqi"`
	City struct {
		Name string    `json:"name"`
		Geo  []float64 `json:"geo"`
	} `json:"city"`
	DominentPol string `json:"dominentpol"`
	Time        struct {
		ISO string `json:"iso"`
		V   int64  `json:"v"`
	} `json:"time"`
}

// GetReading fetches the reading from the station nearest to the coordinate.
func (c *Client) GetReading(ctx context.Context, coord geo.Coordinate) (*airquality.Reading, error) {
	reqURL := fmt.Sprintf("%s/feed/geo:%s;%s/?token=%s",
		c.baseURL, geo.FormatDegrees(coord.Lat), geo.FormatDegrees(coord.Lon), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", airquality.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", airquality.ErrProviderUnavailable, resp.StatusCode)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if feed.Status != "ok" {
		var msg string
		_ = json.Unmarshal(feed.Data, &msg)
		return nil, fmt.Errorf("%w: status %q: %s", airquality.ErrProviderUnavailable, feed.Status, msg)
	}

	var data feedData
	if err := json.Unmarshal(feed.Data, &data); err != nil {
		return nil, fmt.Errorf("decoding feed data: %w", err)
	}

	return toReading(&data)
}

func toReading(data *feedData) (*airquality.Reading, error) {
	value, err := strconv.Atoi(strings.Trim(string(data.AQI), `"`))
	if err != nil {
		return nil, airquality.ErrNoData
	}

	reading := &airquality.Reading{
		AQI:               value,
		Station:           data.City.Name,
		DominantPollutant: mapPollutant(data.DominentPol),
		FetchedAt:         time.Now(),
	}

	if len(data.City.Geo) == 2 {
		reading.StationLocation = geo.Coordinate{Lat: data.City.Geo[0], Lon: data.City.Geo[1]}
	}

	if data.Time.ISO != "" {
		if t, err := time.Parse(time.RFC3339, data.Time.ISO); err == nil {
			reading.ObservedAt = t
		}
	}
	if reading.ObservedAt.IsZero() && data.Time.V > 0 {
		reading.ObservedAt = time.Unix(data.Time.V, 0)
	}

	return reading, nil
}

// mapPollutant maps WAQI pollutant codes to domain pollutants.
func mapPollutant(code string) airquality.Pollutant {
	switch strings.ToLower(code) {
	case "pm25":
		return airquality.PollutantPM25
	case "pm10":
		return airquality.PollutantPM10
	case "no2":
		return airquality.PollutantNO2
	case "o3":
		return airquality.PollutantO3
	case "so2":
		return airquality.PollutantSO2
	case "co":
		return airquality.PollutantCO
	default:
		return ""
	}
}
