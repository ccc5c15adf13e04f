// Package geo holds the coordinate type shared by providers, the backend and
// the inspector.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidCoordinates is returned for latitudes outside [-90,90],
// longitudes outside [-180,180], or non-finite values.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the coordinate is on the globe.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return ErrInvalidCoordinates
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// String formats the coordinate for display with six decimals.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Lat, c.Lon)
}

// FormatDegrees renders a degree value with the shortest representation that
// parses back to the same float64, for use in query strings.
func FormatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Parse builds a coordinate from query-string values and validates it.
func Parse(lat, lon string) (Coordinate, error) {
	if lat == "" || lon == "" {
		return Coordinate{}, fmt.Errorf("%w: lat and lon are required", ErrInvalidCoordinates)
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: lat: %v", ErrInvalidCoordinates, err)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: lon: %v", ErrInvalidCoordinates, err)
	}
	c := Coordinate{Lat: la, Lon: lo}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// GridKey snaps the coordinate to a grid cell of the given size in degrees.
// Points in the same cell share a key.
func (c Coordinate) GridKey(size float64) string {
	gridLat := math.Floor(c.Lat/size) * size
	gridLon := math.Floor(c.Lon/size) * size
	return fmt.Sprintf("%.4f:%.4f", gridLat, gridLon)
}
