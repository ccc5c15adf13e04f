package openweathermap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/provider/resilience"
	"github.com/envicheck/envicheck/internal/weather"
	"github.com/envicheck/envicheck/internal/weather/openweathermap"
)

var paris = geo.Coordinate{Lat: 48.8566, Lon: 2.3522}

func TestClient_GetCurrentWeather(t *testing.T) {
	observed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "48.8566", r.URL.Query().Get("lat"))
		assert.Equal(t, "2.3522", r.URL.Query().Get("lon"))
		assert.Equal(t, "****", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		response := map[string]interface{}{
			"coord": map[string]float64{
				"lat": 48.8566,
				"lon": 2.3522,
			},
			"weather": []map[string]interface{}{
				{
					"id":          800,
					"main":        "Clear",
					"description": "clear sky",
					"icon":        "01d",
				},
			},
			"main": map[string]float64{
				"temp":       18.5,
				"feels_like": 17.8,
				"pressure":   1015.0,
				"humidity":   72.0,
			},
			"wind": map[string]float64{
				"speed": 4.5,
				"deg":   220.0,
				"gust":  7.2,
			},
			"dt":   observed.Unix(),
			"name": "Paris",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	obs, err := client.GetCurrentWeather(context.Background(), paris)
	require.NoError(t, err)
	require.NotNil(t, obs)

	assert.Equal(t, paris, obs.Location)
	assert.Equal(t, 18.5, obs.Temperature)
	assert.Equal(t, 17.8, obs.FeelsLike)
	assert.Equal(t, 72.0, obs.Humidity)
	assert.Equal(t, 4.5, obs.WindSpeed)
	assert.Equal(t, 220.0, obs.WindDirection)
	assert.Equal(t, 7.2, obs.WindGust)
	assert.Equal(t, 1015.0, obs.Pressure)
	assert.Equal(t, weather.ConditionClear, obs.Condition)
	assert.Equal(t, "clear sky", obs.Description)
	assert.Equal(t, "https://openweathermap.org/img/wn/01d@2x.png", obs.IconURL)
	assert.True(t, observed.Equal(obs.ObservedAt))
}

func TestClient_GetCurrentWeather_AllConditions(t *testing.T) {
	conditions := []struct {
		owmMain  string
		expected weather.Condition
	}{
		{"Clear", weather.ConditionClear},
		{"Clouds", weather.ConditionClouds},
		{"Rain", weather.ConditionRain},
		{"Drizzle", weather.ConditionDrizzle},
		{"Thunderstorm", weather.ConditionThunderstorm},
		{"Snow", weather.ConditionSnow},
		{"Mist", weather.ConditionMist},
		{"Fog", weather.ConditionFog},
		{"Haze", weather.ConditionHaze},
		{"Dust", weather.ConditionHaze},
		{"Smoke", weather.ConditionHaze},
		{"Unknown", weather.ConditionUnknown},
	}

	for _, tc := range conditions {
		t.Run(tc.owmMain, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				response := map[string]interface{}{
					"coord": map[string]float64{"lat": 52.0, "lon": 4.0},
					"weather": []map[string]interface{}{
						{"main": tc.owmMain, "description": "test"},
					},
					"main": map[string]float64{"temp": 20.0, "humidity": 50.0, "pressure": 1013.0},
					"wind": map[string]float64{"speed": 5.0, "deg": 180.0},
					"dt":   time.Now().Unix(),
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(response)
			}))
			defer server.Close()

			client := openweathermap.NewClient(openweathermap.ClientConfig{
				APIKey:     "****",
				BaseURL:    server.URL,
				HTTPClient: server.Client(),
			})

			obs, err := client.GetCurrentWeather(context.Background(), geo.Coordinate{Lat: 52.0, Lon: 4.0})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, obs.Condition)
			assert.Empty(t, obs.IconURL)
		})
	}
}

func TestClient_GetCurrentWeather_NoConditions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"coord":{"lat":1,"lon":2},"main":{"temp":3}}`))
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	obs, err := client.GetCurrentWeather(context.Background(), geo.Coordinate{Lat: 1, Lon: 2})
	require.NoError(t, err)
	assert.Equal(t, weather.ConditionUnknown, obs.Condition)
	assert.Empty(t, obs.Description)
	assert.True(t, obs.ObservedAt.IsZero())
}

func TestClient_GetCurrentWeather_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	_, err := client.GetCurrentWeather(context.Background(), paris)
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_GetCurrentWeather_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	_, err := client.GetCurrentWeather(context.Background(), paris)
	assert.ErrorIs(t, err, weather.ErrNoDataForLocation)
}

func TestClient_GetCurrentWeather_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetCurrentWeather(ctx, paris)
	require.Error(t, err)
}

func TestClient_Name(t *testing.T) {
	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey: "****",
	})

	assert.Equal(t, "openweathermap", client.Name())
}
