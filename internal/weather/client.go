// Package weather is a small client for the National Weather Service API.
package weather

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public NWS API endpoint.
	DefaultBaseURL = "https://api.weather.gov"

	// DefaultUserAgent identifies the client to the NWS API, which rejects
	// requests without one.
	DefaultUserAgent = "weather-app/1.0"

	// DefaultTimeout bounds a single NWS request.
	DefaultTimeout = 10 * time.Second

	acceptHeader = "application/geo+json"

	// maxBodySize caps decoded responses.
	maxBodySize = 8 << 20
)

// ErrNoForecastURL indicates a points response without a forecast link.
var ErrNoForecastURL = stderrors.New("grid point data has no forecast URL")

// StatusError reports a non-2xx NWS response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nws request %s: HTTP error status %d", e.URL, e.StatusCode)
}

// Client fetches alerts and forecasts from the NWS API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	log       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates an NWS client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		http:      &http.Client{Timeout: DefaultTimeout},
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.log = c.log.With("component", "weather")

	return c
}

// Alert is one active alert feature.
type Alert struct {
	Properties AlertProperties `json:"properties"`
}

// AlertProperties are the alert fields used for display.
type AlertProperties struct {
	Event    string `json:"event"`
	AreaDesc string `json:"areaDesc"`
	Severity string `json:"severity"`
	Status   string `json:"status"`
	Headline string `json:"headline"`
}

// Period is one forecast period.
type Period struct {
	Name             string `json:"name"`
	Temperature      *int   `json:"temperature"`
	TemperatureUnit  string `json:"temperatureUnit"`
	WindSpeed        string `json:"windSpeed"`
	WindDirection    string `json:"windDirection"`
	ShortForecast    string `json:"shortForecast"`
	DetailedForecast string `json:"detailedForecast"`
}

// Alerts returns the active alerts for a two-letter state code.
func (c *Client) Alerts(ctx context.Context, state string) ([]Alert, error) {
	u := fmt.Sprintf("%s/alerts?area=%s", c.baseURL, url.QueryEscape(strings.ToUpper(state)))

	var body struct {
		Features []Alert `json:"features"`
	}

	if err := c.get(ctx, u, &body); err != nil {
		return nil, err
	}

	return body.Features, nil
}

// Point resolves coordinates to the forecast URL of their grid point.
func (c *Client) Point(ctx context.Context, latitude, longitude float64) (string, error) {
	u := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, latitude, longitude)

	var body struct {
		Properties struct {
			Forecast string `json:"forecast"`
		} `json:"properties"`
	}

	if err := c.get(ctx, u, &body); err != nil {
		return "", err
	}

	if body.Properties.Forecast == "" {
		return "", ErrNoForecastURL
	}

	return body.Properties.Forecast, nil
}

// Forecast fetches the periods of a forecast URL returned by Point.
func (c *Client) Forecast(ctx context.Context, forecastURL string) ([]Period, error) {
	var body struct {
		Properties struct {
			Periods []Period `json:"periods"`
		} `json:"properties"`
	}

	if err := c.get(ctx, forecastURL, &body); err != nil {
		return nil, err
	}

	return body.Properties.Periods, nil
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build nws request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptHeader)

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("NWS request failed", "url", u, "error", err)

		return fmt.Errorf("nws request %s: %w", u, err)
	}
	defer resp.Body.Close()

	c.log.Debug("NWS response", "url", u, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

		return &StatusError{StatusCode: resp.StatusCode, URL: u}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return fmt.Errorf("decode nws response %s: %w", u, err)
	}

	return nil
}
