// Package render turns an environment report into a display-ready panel.
//
// Rendering is pure: the same report and coordinate always produce the same
// panel, and any absent field is replaced by placeholder text. A nil report
// is valid input.
package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/envicheck/envicheck/internal/aqi"
	"github.com/envicheck/envicheck/internal/environment"
	"github.com/envicheck/envicheck/internal/geo"
)

// Placeholder texts for absent fields.
const (
	UnknownLocation    = "Unknown location"
	UnknownValue       = "--"
	UnknownCategory    = "Unknown"
	UnknownDescription = "Unknown"
	UnknownTemperature = "--°C"
	UnknownHumidity    = "--%"
	UnknownWind        = "-- m/s"
	LoadingMessage     = "Loading environmental data..."
)

// Kind distinguishes the three panel variants.
type Kind string

const (
	KindLoading Kind = "loading"
	KindReport  Kind = "report"
	KindFailure Kind = "failure"
)

// Panel is the rendered content of a marker popup or data panel.
type Panel struct {
	Kind Kind

	Title       string
	Subtitle    string
	Coordinates string

	AQI            string
	Category       string
	StyleClass     string
	AQIDescription string

	Temperature string
	FeelsLike   string
	Condition   string
	IconURL     string
	Humidity    string
	Wind        string

	// WindDetail and Pressure are empty when the report lacks them.
	WindDetail string
	Pressure   string

	ShowImage  bool
	ImageURL   string
	CreditName string
	CreditLink string

	// Message is set on loading and failure panels.
	Message string
}

// Render builds the panel for a report fetched for coord.
func Render(report *environment.Report, coord geo.Coordinate) Panel {
	p := Panel{
		Kind:        KindReport,
		Title:       UnknownLocation,
		Coordinates: coord.String(),
		AQI:         UnknownValue,
		Category:    UnknownCategory,
		StyleClass:  aqi.ClassUnknown,
		Temperature: UnknownTemperature,
		FeelsLike:   UnknownTemperature,
		Condition:   UnknownDescription,
		Humidity:    UnknownHumidity,
		Wind:        UnknownWind,
	}
	if report == nil {
		return p
	}

	if loc := report.Location; loc != nil {
		if loc.Name != "" {
			p.Title = loc.Name
		}
		p.Subtitle = loc.DisplayName
	}

	var value *int
	if report.AirQuality != nil {
		value = report.AirQuality.AQI
	}
	if band, ok := aqi.ClassifyOptional(value); ok {
		p.AQI = strconv.Itoa(*value)
		p.Category = band.Category
		p.StyleClass = band.StyleClass
		p.AQIDescription = band.Description
	}

	if w := report.Weather; w != nil {
		if t := w.Temperature; t != nil {
			p.Temperature = celsius(t.Current)
			p.FeelsLike = celsius(t.FeelsLike)
		}
		switch {
		case w.Description != "":
			p.Condition = w.Description
		case w.Condition != "":
			p.Condition = capitalize(w.Condition)
		}
		p.IconURL = w.Icon
		if w.Humidity != nil {
			p.Humidity = formatNumber(*w.Humidity) + "%"
		}
		if w.Pressure != nil {
			p.Pressure = formatNumber(*w.Pressure) + " hPa"
		}
		if w.Wind != nil {
			if w.Wind.Speed != nil {
				p.Wind = formatNumber(*w.Wind.Speed) + " m/s"
			}
			p.WindDetail = windDetail(w.Wind)
		}
	}

	if img := report.Image; img != nil && img.URL != "" {
		p.ShowImage = true
		p.ImageURL = img.URL
		if img.Credit != nil {
			p.CreditName = img.Credit.Name
			p.CreditLink = img.Credit.Link
		}
	}

	return p
}

// Loading returns the placeholder panel shown while a report is fetched.
func Loading(coord geo.Coordinate) Panel {
	return Panel{
		Kind:        KindLoading,
		Title:       UnknownLocation,
		Coordinates: coord.String(),
		Message:     LoadingMessage,
	}
}

// Failure returns a panel carrying an error message.
func Failure(message string) Panel {
	return Panel{
		Kind:    KindFailure,
		Title:   "Error",
		Message: message,
	}
}

// windDetail describes the wind as e.g. "moderate, from SW, gusts 7.2 m/s".
func windDetail(w *environment.Wind) string {
	var parts []string
	if w.Category != "" {
		parts = append(parts, strings.ToLower(w.Category))
	}
	if w.Direction != nil && !math.IsNaN(*w.Direction) && !math.IsInf(*w.Direction, 0) {
		parts = append(parts, "from "+compass(*w.Direction))
	}
	if w.Gust != nil {
		parts = append(parts, "gusts "+formatNumber(*w.Gust)+" m/s")
	}
	return strings.Join(parts, ", ")
}

var compassPoints = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// compass maps a bearing in degrees to one of eight compass points.
func compass(degrees float64) string {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	return compassPoints[int(math.Floor(d/45+0.5))%len(compassPoints)]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// celsius rounds half up to whole degrees.
func celsius(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return UnknownTemperature
	}
	return strconv.FormatFloat(math.Floor(*v+0.5), 'f', 0, 64) + "°C"
}

func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return UnknownValue
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
