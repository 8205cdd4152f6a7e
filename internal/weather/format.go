package weather

import (
	"strconv"
	"strings"
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// USCenter is used for states without a known center.
var USCenter = Coordinates{Latitude: 39.8283, Longitude: -98.5795}

var stateCenters = map[string]Coordinates{
	"CA": {Latitude: 36.7783, Longitude: -119.4179},
	"NY": {Latitude: 43.0000, Longitude: -75.0000},
	"TX": {Latitude: 31.0000, Longitude: -100.0000},
	"FL": {Latitude: 27.9944, Longitude: -81.7603},
}

// StateCenter returns approximate center coordinates for a state code.
// Unknown states fall back to USCenter.
func StateCenter(state string) Coordinates {
	if c, ok := stateCenters[strings.ToUpper(state)]; ok {
		return c
	}

	return USCenter
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}

	return v
}

// FormatAlert renders an alert as a block of labelled lines.
func FormatAlert(a Alert) string {
	p := a.Properties

	return strings.Join([]string{
		"Event: " + orDefault(p.Event, "Unknown"),
		"Area: " + orDefault(p.AreaDesc, "Unknown"),
		"Severity: " + orDefault(p.Severity, "Unknown"),
		"Status: " + orDefault(p.Status, "Unknown"),
		"Headline: " + orDefault(p.Headline, "No headline"),
		"---",
	}, "\n")
}

// FormatPeriod renders a forecast period as a block of labelled lines.
func FormatPeriod(p Period) string {
	temp := "Unknown"
	if p.Temperature != nil {
		temp = strconv.Itoa(*p.Temperature)
	}

	return strings.Join([]string{
		orDefault(p.Name, "Unknown") + ":",
		"Temperature: " + temp + "°" + orDefault(p.TemperatureUnit, "F"),
		"Wind: " + orDefault(p.WindSpeed, "Unknown") + " " + p.WindDirection,
		orDefault(p.ShortForecast, "No forecast available"),
		"---",
	}, "\n")
}
