// Package environment aggregates location, air quality, weather and photo
// data for a coordinate into a single report.
package environment

import (
	"github.com/envicheck/envicheck/internal/airquality"
	"github.com/envicheck/envicheck/internal/aqi"
	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/geocode"
	"github.com/envicheck/envicheck/internal/photo"
	"github.com/envicheck/envicheck/internal/weather"
)

// Report is the environment report for one coordinate. Every section is
// optional; a provider that fails leaves its section nil.
type Report struct {
	Location    *Location       `json:"location,omitempty"`
	AirQuality  *AirQuality     `json:"air_quality,omitempty"`
	Weather     *Weather        `json:"weather,omitempty"`
	Image       *Image          `json:"image,omitempty"`
	Coordinates *geo.Coordinate `json:"coordinates,omitempty"`

	// Error carries a failure message in error bodies.
	Error string `json:"error,omitempty"`
}

// Location names the place nearest to the coordinate.
type Location struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// AirQuality is the air quality section.
type AirQuality struct {
	AQI               *int   `json:"aqi,omitempty"`
	Category          string `json:"category,omitempty"`
	StyleClass        string `json:"style_class,omitempty"`
	Description       string `json:"description,omitempty"`
	Station           string `json:"station,omitempty"`
	DominantPollutant string `json:"dominant_pollutant,omitempty"`
}

// Weather is the weather section.
type Weather struct {
	Temperature *Temperature `json:"temperature,omitempty"`
	Description string       `json:"description,omitempty"`
	// Condition is the coarse condition group, e.g. "RAIN".
	Condition string   `json:"condition,omitempty"`
	Icon      string   `json:"icon,omitempty"`
	Humidity  *float64 `json:"humidity,omitempty"`
	Pressure  *float64 `json:"pressure,omitempty"` // hPa
	Wind      *Wind    `json:"wind,omitempty"`
}

// Temperature values are in Celsius.
type Temperature struct {
	Current   *float64 `json:"current,omitempty"`
	FeelsLike *float64 `json:"feels_like,omitempty"`
}

// Wind speed and gust are in m/s, direction in degrees (0 = from north).
type Wind struct {
	Speed     *float64 `json:"speed,omitempty"`
	Gust      *float64 `json:"gust,omitempty"`
	Direction *float64 `json:"direction,omitempty"`
	Category  string   `json:"category,omitempty"`
}

// Image is a representative photo of the location.
type Image struct {
	URL    string  `json:"url,omitempty"`
	Credit *Credit `json:"credit,omitempty"`
}

// Credit attributes an image to its author.
type Credit struct {
	Name string `json:"name,omitempty"`
	Link string `json:"link,omitempty"`
}

// AQIValue returns the AQI and whether one is present.
func (r *Report) AQIValue() (int, bool) {
	if r == nil || r.AirQuality == nil || r.AirQuality.AQI == nil {
		return 0, false
	}
	return *r.AirQuality.AQI, true
}

// SectionCount returns how many data sections the report carries.
func (r *Report) SectionCount() int {
	if r == nil {
		return 0
	}
	n := 0
	if r.Location != nil {
		n++
	}
	if r.AirQuality != nil {
		n++
	}
	if r.Weather != nil {
		n++
	}
	if r.Image != nil {
		n++
	}
	return n
}

// withCoordinates returns a shallow copy of r stamped with coord.
func (r *Report) withCoordinates(coord geo.Coordinate) *Report {
	out := *r
	out.Coordinates = &coord
	return &out
}

func locationFromPlace(p *geocode.Place) *Location {
	return &Location{
		Name:        p.Name,
		DisplayName: p.DisplayName,
	}
}

func airQualityFromReading(r *airquality.Reading) *AirQuality {
	value := r.AQI
	band := aqi.Classify(value)
	return &AirQuality{
		AQI:               &value,
		Category:          band.Category,
		StyleClass:        band.StyleClass,
		Description:       band.Description,
		Station:           r.Station,
		DominantPollutant: string(r.DominantPollutant),
	}
}

func weatherFromObservation(o *weather.Observation) *Weather {
	current, feelsLike := o.Temperature, o.FeelsLike
	humidity, speed := o.Humidity, o.WindSpeed
	w := &Weather{
		Temperature: &Temperature{Current: &current, FeelsLike: &feelsLike},
		Description: o.Description,
		Icon:        o.IconURL,
		Humidity:    &humidity,
		Wind:        &Wind{Speed: &speed, Category: string(o.GetWindCategory())},
	}
	if o.Condition != "" && o.Condition != weather.ConditionUnknown {
		w.Condition = string(o.Condition)
	}
	// Zero means the provider omitted the value.
	if o.Pressure > 0 {
		pressure := o.Pressure
		w.Pressure = &pressure
	}
	if o.WindGust > 0 {
		gust := o.WindGust
		w.Wind.Gust = &gust
	}
	if speed > 0 {
		direction := o.WindDirection
		w.Wind.Direction = &direction
	}
	return w
}

func imageFromPhoto(p *photo.Photo) *Image {
	img := &Image{URL: p.URL}
	if p.Photographer != "" || p.PageURL != "" {
		img.Credit = &Credit{Name: p.Photographer, Link: p.PageURL}
	}
	return img
}
