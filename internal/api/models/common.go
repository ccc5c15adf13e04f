// Package models provides request and response models for the EnviCheck API.
package models

import "time"

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp is a helper type for time.Time with custom JSON formatting.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	// Remove quotes
	s := string(data[1 : len(data)-1])
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SearchResult is one geocoding match.
type SearchResult struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Point       Point  `json:"point"`
}

// SearchResults is the response of the search endpoint.
type SearchResults struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// AQIBand is one row of the AQI legend.
type AQIBand struct {
	Min         int    `json:"min"`
	Max         *int   `json:"max,omitempty"`
	Category    string `json:"category"`
	StyleClass  string `json:"style_class"`
	Description string `json:"description"`
}

// AQIBands is the response of the AQI legend endpoint.
type AQIBands struct {
	Bands []AQIBand `json:"bands"`
}
