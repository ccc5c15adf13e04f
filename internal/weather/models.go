// Package weather provides current weather conditions for a coordinate.
package weather

import (
	"context"
	"errors"
	"time"

	"github.com/envicheck/envicheck/internal/geo"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrNoDataForLocation   = errors.New("no weather data for location")
)

// Observation represents weather data at a specific point and time.
type Observation struct {
	Location geo.Coordinate

	// Temperature and FeelsLike in Celsius
	Temperature float64
	FeelsLike   float64

	// Humidity percentage (0-100)
	Humidity float64

	// Wind data
	WindSpeed     float64 // m/s
	WindDirection float64 // degrees (0-360, 0=N, 90=E, 180=S, 270=W)
	WindGust      float64 // m/s (optional, 0 if not available)

	// Atmospheric pressure in hPa
	Pressure float64

	Condition   Condition
	Description string

	// IconURL points at the provider's condition icon, empty if unknown.
	IconURL string

	// Timestamps
	ObservedAt time.Time
	FetchedAt  time.Time
}

// Provider defines the interface for weather data providers.
type Provider interface {
	// GetCurrentWeather fetches current weather for a location.
	GetCurrentWeather(ctx context.Context, coord geo.Coordinate) (*Observation, error)

	// Name returns the provider name for logging.
	Name() string
}

// Condition represents the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionFog          Condition = "FOG"
	ConditionHaze         Condition = "HAZE"
	ConditionUnknown      Condition = "UNKNOWN"
)

// WindCategory is a coarse description of wind speed.
type WindCategory string

const (
	WindCalm     WindCategory = "CALM"     // < 1 m/s
	WindLight    WindCategory = "LIGHT"    // 1-3 m/s
	WindModerate WindCategory = "MODERATE" // 3-8 m/s
	WindStrong   WindCategory = "STRONG"   // > 8 m/s
)

// CategorizeWind returns the wind category for a speed in m/s.
func CategorizeWind(speed float64) WindCategory {
	switch {
	case speed < 1:
		return WindCalm
	case speed < 3:
		return WindLight
	case speed < 8:
		return WindModerate
	default:
		return WindStrong
	}
}

// GetWindCategory returns the wind category for the observation.
func (o *Observation) GetWindCategory() WindCategory {
	return CategorizeWind(o.WindSpeed)
}
