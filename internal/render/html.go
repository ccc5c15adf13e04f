package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var panelTemplate = template.Must(template.ParseFS(templateFS, "templates/panel.html.tmpl"))

// HTML renders the panel as an escaped HTML fragment.
func HTML(p Panel) (string, error) {
	var buf bytes.Buffer
	if err := panelTemplate.ExecuteTemplate(&buf, "panel", p); err != nil {
		return "", fmt.Errorf("render panel: %w", err)
	}
	return buf.String(), nil
}

// Text renders the panel for a terminal.
func Text(p Panel) string {
	var b strings.Builder

	switch p.Kind {
	case KindLoading:
		fmt.Fprintf(&b, "%s\n", p.Message)
		if p.Coordinates != "" {
			fmt.Fprintf(&b, "Coordinates: %s\n", p.Coordinates)
		}
		return b.String()
	case KindFailure:
		fmt.Fprintf(&b, "%s: %s\n", p.Title, p.Message)
		return b.String()
	}

	fmt.Fprintf(&b, "%s\n", p.Title)
	if p.Subtitle != "" {
		fmt.Fprintf(&b, "%s\n", p.Subtitle)
	}
	fmt.Fprintf(&b, "Coordinates: %s\n\n", p.Coordinates)

	fmt.Fprintf(&b, "Air quality\n")
	fmt.Fprintf(&b, "  AQI:        %s (%s)\n", p.AQI, p.Category)
	if p.AQIDescription != "" {
		fmt.Fprintf(&b, "  %s\n", p.AQIDescription)
	}

	fmt.Fprintf(&b, "\nWeather\n")
	fmt.Fprintf(&b, "  Conditions: %s\n", p.Condition)
	fmt.Fprintf(&b, "  Temp:       %s (feels like %s)\n", p.Temperature, p.FeelsLike)
	fmt.Fprintf(&b, "  Humidity:   %s\n", p.Humidity)
	if p.WindDetail != "" {
		fmt.Fprintf(&b, "  Wind:       %s (%s)\n", p.Wind, p.WindDetail)
	} else {
		fmt.Fprintf(&b, "  Wind:       %s\n", p.Wind)
	}
	if p.Pressure != "" {
		fmt.Fprintf(&b, "  Pressure:   %s\n", p.Pressure)
	}

	if p.ShowImage {
		fmt.Fprintf(&b, "\nPhoto: %s\n", p.ImageURL)
		if p.CreditName != "" {
			fmt.Fprintf(&b, "  by %s %s\n", p.CreditName, p.CreditLink)
		}
	}

	return b.String()
}
