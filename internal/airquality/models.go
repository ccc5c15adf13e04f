// Package airquality provides air quality readings for a coordinate.
package airquality

import (
	"context"
	"errors"
	"time"

	"github.com/envicheck/envicheck/internal/geo"
)

// Provider errors.
var (
	ErrNoData              = errors.New("no air quality data for location")
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
)

// Pollutant represents an air quality pollutant type.
type Pollutant string

const (
	PollutantNO2  Pollutant = "NO2"
	PollutantPM25 Pollutant = "PM25"
	PollutantPM10 Pollutant = "PM10"
	PollutantO3   Pollutant = "O3"
	PollutantSO2  Pollutant = "SO2"
	PollutantCO   Pollutant = "CO"
)

// Reading is the AQI reported by the station nearest to a coordinate.
type Reading struct {
	AQI int

	// Station is the name of the monitoring station the value came from.
	Station string

	// StationLocation may be the zero value when the provider omits it.
	StationLocation geo.Coordinate

	DominantPollutant Pollutant

	ObservedAt time.Time
	FetchedAt  time.Time
}

// Provider defines the interface for air quality data providers.
type Provider interface {
	// GetReading returns the reading nearest to the coordinate.
	GetReading(ctx context.Context, coord geo.Coordinate) (*Reading, error)

	// Name returns the provider name for logging.
	Name() string
}
