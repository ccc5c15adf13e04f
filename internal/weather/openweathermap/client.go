package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/provider/resilience"
	"github.com/envicheck/envicheck/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// DefaultIconBaseURL serves condition icons by code.
	DefaultIconBaseURL = "https://openweathermap.org/img/wn"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap API).
	BaseURL string

	// IconBaseURL is where icon images are served from (optional).
	IconBaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey      string
	baseURL     string
	iconBaseURL string
	httpClient  HTTPDoer
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	iconBaseURL := cfg.IconBaseURL
	if iconBaseURL == "" {
		iconBaseURL = DefaultIconBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		iconBaseURL: strings.TrimSuffix(iconBaseURL, "/"),
		httpClient:  httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetCurrentWeather fetches current weather for a location.
func (c *Client) GetCurrentWeather(ctx context.Context, coord geo.Coordinate) (*weather.Observation, error) {
	params := url.Values{}
	params.Set("lat", geo.FormatDegrees(coord.Lat))
	params.Set("lon", geo.FormatDegrees(coord.Lon))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	reqURL := c.baseURL + "/weather?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, weather.ErrNoDataForLocation
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status code: %d", weather.ErrProviderUnavailable, resp.StatusCode)
	}

	var owmResp currentWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&owmResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.toObservation(&owmResp), nil
}

// toObservation converts OpenWeatherMap response to domain model.
func (c *Client) toObservation(resp *currentWeatherResponse) *weather.Observation {
	obs := &weather.Observation{
		Location:      geo.Coordinate{Lat: resp.Coord.Lat, Lon: resp.Coord.Lon},
		Temperature:   resp.Main.Temp,
		FeelsLike:     resp.Main.FeelsLike,
		Humidity:      resp.Main.Humidity,
		WindSpeed:     resp.Wind.Speed,
		WindDirection: resp.Wind.Deg,
		WindGust:      resp.Wind.Gust,
		Pressure:      resp.Main.Pressure,
		FetchedAt:     time.Now(),
	}
	if resp.Dt > 0 {
		obs.ObservedAt = time.Unix(resp.Dt, 0)
	}

	if len(resp.Weather) > 0 {
		w := resp.Weather[0]
		obs.Condition = mapCondition(w.Main)
		obs.Description = w.Description
		if w.Icon != "" {
			obs.IconURL = fmt.Sprintf("%s/%s@2x.png", c.iconBaseURL, w.Icon)
		}
	} else {
		obs.Condition = weather.ConditionUnknown
	}

	return obs
}

// mapCondition maps OpenWeatherMap condition to domain condition.
func mapCondition(owmCondition string) weather.Condition {
	switch owmCondition {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionClouds
	case "Rain":
		return weather.ConditionRain
	case "Drizzle":
		return weather.ConditionDrizzle
	case "Thunderstorm":
		return weather.ConditionThunderstorm
	case "Snow":
		return weather.ConditionSnow
	case "Mist":
		return weather.ConditionMist
	case "Fog":
		return weather.ConditionFog
	case "Haze", "Dust", "Sand", "Ash", "Squall", "Tornado", "Smoke":
		return weather.ConditionHaze
	default:
		return weather.ConditionUnknown
	}
}

// OpenWeatherMap API response structures.

type currentWeatherResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
	Dt   int64  `json:"dt"`
	Name string `json:"name"`
}
