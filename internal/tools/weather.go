package tools

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/toolbridge-go/internal/weather"
)

type weatherTools struct {
	client *weather.Client
	log    *slog.Logger
}

type stateArgs struct {
	State string `json:"state"`
}

func (a stateArgs) code() (string, error) {
	code := strings.ToUpper(strings.TrimSpace(a.State))
	if len(code) != 2 {
		return "", fmt.Errorf("state must be a two-letter code, got %q", a.State)
	}

	return code, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (w *weatherTools) alerts(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args stateArgs
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	code, err := args.code()
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	w.log.Debug("Fetching alerts", "state", code)

	alerts, err := w.client.Alerts(ctx, code)
	if err != nil {
		w.log.Warn("Alerts request failed", "state", code, "error", err)

		return ErrorResult("Failed to retrieve alerts data"), nil
	}

	if len(alerts) == 0 {
		return TextResult("No active alerts for " + code), nil
	}

	return TextResult(fmt.Sprintf("Active alerts for %s:\n\n%s", code, formatAlerts(alerts))), nil
}

func formatAlerts(alerts []weather.Alert) string {
	formatted := make([]string, 0, len(alerts))
	for _, a := range alerts {
		formatted = append(formatted, weather.FormatAlert(a))
	}

	return strings.Join(formatted, "\n")
}

type forecastArgs struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (w *weatherTools) forecast(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args forecastArgs
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	switch {
	case args.Latitude == nil || args.Longitude == nil:
		return ErrorResult("latitude and longitude are required"), nil
	case *args.Latitude < -90 || *args.Latitude > 90:
		return ErrorResult("latitude must be between -90 and 90"), nil
	case *args.Longitude < -180 || *args.Longitude > 180:
		return ErrorResult("longitude must be between -180 and 180"), nil
	}

	lat, lon := *args.Latitude, *args.Longitude

	forecastURL, err := w.client.Point(ctx, lat, lon)
	if stderrors.Is(err, weather.ErrNoForecastURL) {
		return ErrorResult("Failed to get forecast URL from grid point data"), nil
	}

	if err != nil {
		w.log.Warn("Points request failed", "latitude", lat, "longitude", lon, "error", err)

		return ErrorResult(fmt.Sprintf(
			"Failed to retrieve grid point data for coordinates: %s, %s.", formatCoord(lat), formatCoord(lon),
		)), nil
	}

	periods, err := w.client.Forecast(ctx, forecastURL)
	if err != nil {
		w.log.Warn("Forecast request failed", "url", forecastURL, "error", err)

		return ErrorResult("Failed to retrieve forecast data"), nil
	}

	if len(periods) == 0 {
		return TextResult("No forecast periods available"), nil
	}

	formatted := make([]string, 0, len(periods))
	for _, p := range periods {
		formatted = append(formatted, weather.FormatPeriod(p))
	}

	return TextResult(fmt.Sprintf("Forecast for %s, %s:\n\n%s",
		formatCoord(lat), formatCoord(lon), strings.Join(formatted, "\n"))), nil
}

// stateSummary chains an alerts lookup with a forecast for the state center.
func (w *weatherTools) stateSummary(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args stateArgs
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	code, err := args.code()
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	alerts, err := w.client.Alerts(ctx, code)
	if err != nil {
		w.log.Warn("Alerts request failed", "state", code, "error", err)
	}

	if len(alerts) == 0 {
		return TextResult("No active alerts for " + code), nil
	}

	var forecastText string

	center := weather.StateCenter(code)

	forecastURL, err := w.client.Point(ctx, center.Latitude, center.Longitude)
	if err == nil {
		periods, ferr := w.client.Forecast(ctx, forecastURL)
		if ferr == nil && len(periods) > 0 {
			forecastText = fmt.Sprintf("Sample forecast for state center: %s: %s",
				periods[0].Name, periods[0].DetailedForecast)
		} else if ferr != nil {
			w.log.Warn("Forecast request failed", "url", forecastURL, "error", ferr)
		}
	} else {
		w.log.Warn("Points request failed", "state", code, "error", err)
	}

	return TextResult(fmt.Sprintf("Active alerts for %s:\n%s\n\n%s", code, formatAlerts(alerts), forecastText)), nil
}
