// Package aqi classifies Air Quality Index values into the six US EPA
// categories used across the inspector.
package aqi

// Style classes applied to the AQI category element on the page.
const (
	ClassGood               = "aqi-good"
	ClassModerate           = "aqi-moderate"
	ClassUnhealthySensitive = "aqi-unhealthy-sensitive"
	ClassUnhealthy          = "aqi-unhealthy"
	ClassVeryUnhealthy      = "aqi-very-unhealthy"
	ClassHazardous          = "aqi-hazardous"
	ClassUnknown            = "aqi-unknown"
)

// Band is one row of the AQI category table.
type Band struct {
	// Max is the inclusive upper bound of the band. The last band has no
	// upper bound and reports Unbounded as true.
	Max       int    `json:"max"`
	Unbounded bool   `json:"unbounded,omitempty"`
	Category  string `json:"category"`
	// StyleClass is the CSS class the page uses to colour the category.
	StyleClass  string `json:"style_class"`
	Description string `json:"description"`
}

// bands is ordered ascending by Max; the first band whose Max is >= the
// value wins, and anything past the last bounded band is hazardous.
var bands = [...]Band{
	{
		Max:         50,
		Category:    "Good",
		StyleClass:  ClassGood,
		Description: "Air quality is satisfactory, and air pollution poses little or no risk.",
	},
	{
		Max:         100,
		Category:    "Moderate",
		StyleClass:  ClassModerate,
		Description: "Air quality is acceptable. However, there may be a risk for some people, particularly those who are unusually sensitive to air pollution.",
	},
	{
		Max:         150,
		Category:    "Unhealthy for Sensitive Groups",
		StyleClass:  ClassUnhealthySensitive,
		Description: "Members of sensitive groups may experience health effects. The general public is less likely to be affected.",
	},
	{
		Max:         200,
		Category:    "Unhealthy",
		StyleClass:  ClassUnhealthy,
		Description: "Some members of the general public may experience health effects; members of sensitive groups may experience more serious health effects.",
	},
	{
		Max:         300,
		Category:    "Very Unhealthy",
		StyleClass:  ClassVeryUnhealthy,
		Description: "Health alert: The risk of health effects is increased for everyone.",
	},
	{
		Unbounded:   true,
		Category:    "Hazardous",
		StyleClass:  ClassHazardous,
		Description: "Health warning of emergency conditions: everyone is more likely to be affected.",
	},
}

// Unknown is returned by ClassifyOptional when no AQI value is available.
var Unknown = Band{
	Unbounded:   true,
	Category:    "Data not available",
	StyleClass:  ClassUnknown,
	Description: "No air quality measurement is available for this location.",
}

// Classify returns the band for an AQI value. It is defined for every int:
// negative values fall into the first band.
func Classify(value int) Band {
	for _, b := range bands {
		if b.Unbounded || value <= b.Max {
			return b
		}
	}
	return bands[len(bands)-1]
}

// ClassifyOptional classifies a possibly absent value. The second return is
// false when value is nil, in which case the Unknown band is returned.
func ClassifyOptional(value *int) (Band, bool) {
	if value == nil {
		return Unknown, false
	}
	return Classify(*value), true
}

// Bands returns a copy of the category table in ascending order.
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands[:])
	return out
}
