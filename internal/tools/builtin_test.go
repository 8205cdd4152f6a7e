package tools

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/toolbridge-go/internal/catalog"
	"github.com/wagiedev/toolbridge-go/internal/logbuf"
	"github.com/wagiedev/toolbridge-go/internal/store"
	"github.com/wagiedev/toolbridge-go/internal/weather"
)

// fakeNWS serves canned NWS responses for CA and an empty alert list for
// every other state.
func fakeNWS(t *testing.T) *weather.Client {
	t.Helper()

	var base string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/alerts" && r.URL.Query().Get("area") == "CA":
			_, _ = w.Write([]byte(`{"features":[{"properties":{"event":"Heat Advisory","areaDesc":"Fresno","severity":"Moderate","status":"Actual","headline":"Hot"}}]}`))
		case r.URL.Path == "/alerts":
			_, _ = w.Write([]byte(`{"features":[]}`))
		case strings.HasPrefix(r.URL.Path, "/points/0.0000"):
			w.WriteHeader(http.StatusNotFound)
		case strings.HasPrefix(r.URL.Path, "/points/"):
			_, _ = w.Write([]byte(`{"properties":{"forecast":"` + base + `/forecast"}}`))
		case r.URL.Path == "/forecast":
			_, _ = w.Write([]byte(`{"properties":{"periods":[{"name":"Today","temperature":80,"temperatureUnit":"F","windSpeed":"5 mph","windDirection":"W","shortForecast":"Sunny","detailedForecast":"Sunny and warm."}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	base = srv.URL

	return weather.NewClient(weather.WithBaseURL(srv.URL))
}

func newBuiltins(t *testing.T, deps Deps) *Registry {
	t.Helper()

	if deps.Weather == nil {
		deps.Weather = fakeNWS(t)
	}

	r := NewRegistry(nil)
	Register(r, deps)

	return r
}

func call(t *testing.T, r *Registry, name string, args map[string]any) (string, bool) {
	t.Helper()

	result, err := r.Call(context.Background(), name, args)
	require.NoError(t, err)

	return ResultText(result), result.IsError
}

func TestRegister_AllCatalogTools(t *testing.T) {
	r := newBuiltins(t, Deps{})

	var names []string
	for _, tool := range r.Tools() {
		names = append(names, tool.Name)
		assert.NotNil(t, tool.InputSchema)
	}

	assert.Equal(t, catalog.Names(), names)
}

func TestWeatherTools(t *testing.T) {
	r := newBuiltins(t, Deps{})

	text, isErr := call(t, r, "get-alerts", map[string]any{"state": "ca"})
	assert.False(t, isErr)
	assert.True(t, strings.HasPrefix(text, "Active alerts for CA:\n\nEvent: Heat Advisory"), text)

	text, _ = call(t, r, "get-alerts", map[string]any{"state": "NY"})
	assert.Equal(t, "No active alerts for NY", text)

	text, isErr = call(t, r, "get-alerts", map[string]any{"state": "California"})
	assert.True(t, isErr)
	assert.Contains(t, text, "two-letter")

	text, isErr = call(t, r, "get-forecast", map[string]any{"latitude": 36.5, "longitude": -119})
	assert.False(t, isErr)
	assert.Equal(t, "Forecast for 36.5, -119:\n\nToday:\nTemperature: 80°F\nWind: 5 mph W\nSunny\n---", text)

	text, isErr = call(t, r, "get-forecast", map[string]any{"latitude": 0, "longitude": 0})
	assert.True(t, isErr)
	assert.Equal(t, "Failed to retrieve grid point data for coordinates: 0, 0.", text)

	_, isErr = call(t, r, "get-forecast", map[string]any{"latitude": 95, "longitude": 0})
	assert.True(t, isErr)

	_, isErr = call(t, r, "get-forecast", map[string]any{"latitude": 10})
	assert.True(t, isErr)

	text, _ = call(t, r, "get-state-forecast-summary", map[string]any{"state": "CA"})
	assert.Contains(t, text, "Active alerts for CA:\nEvent: Heat Advisory")
	assert.True(t, strings.HasSuffix(text, "\n\nSample forecast for state center: Today: Sunny and warm."), text)

	text, _ = call(t, r, "get-state-forecast-summary", map[string]any{"state": "TX"})
	assert.Equal(t, "No active alerts for TX", text)
}

func TestDemoTools(t *testing.T) {
	r := newBuiltins(t, Deps{})

	text, _ := call(t, r, "get-news-headlines", map[string]any{"topic": "sports"})
	assert.Equal(t, "Top headlines for 'sports':\n- News 1\n- News 2\n- News 3", text)

	text, _ = call(t, r, "get-stock-price", map[string]any{"symbol": "TSLA"})
	assert.Equal(t, "Current price for TSLA: $123.45 (demo)", text)

	text, _ = call(t, r, "plan-trip", map[string]any{"destination": "Paris", "date": "2025-06-01"})
	assert.Equal(t, "Trip plan for Paris on 2025-06-01:\n\n"+
		"Weather:\nSunny, 75F (mocked)\n\n"+
		"News:\nTop headlines for 'Paris':\n- News 1\n- News 2\n- News 3\n\n"+
		"Finance:\nCurrent price for AAPL: $123.45 (demo)", text)

	text, _ = call(t, r, "llm-summarize", map[string]any{"text": strings.Repeat("abcdefghij", 5)})
	assert.Equal(t, "Summary: "+strings.Repeat("abcdefghij", 4)+"... (simulated)", text)

	text, _ = call(t, r, "llm-summarize", map[string]any{"text": "short"})
	assert.Equal(t, "Summary: short... (simulated)", text)

	text, _ = call(t, r, "multi-agent-demo", nil)
	assert.Equal(t, "Agent A: gathers data\nAgent B: analyzes\nAgent C: reports\n(Demo)", text)

	text, _ = call(t, r, "multi-agent-demo", map[string]any{"task": "ship it"})
	assert.True(t, strings.HasPrefix(text, "Task: ship it\nAgent A"))
}

func TestChainTools(t *testing.T) {
	r := newBuiltins(t, Deps{})

	text, isErr := call(t, r, "chain-tools", map[string]any{
		"first":  "get-stock-price",
		"second": "llm-summarize",
		"args":   map[string]any{"symbol": "AAPL", "text": "hello"},
	})
	assert.False(t, isErr)
	assert.Equal(t, "Results of get-stock-price:\nCurrent price for AAPL: $123.45 (demo)\n\n"+
		"Results of llm-summarize:\nSummary: hello... (simulated)", text)

	text, isErr = call(t, r, "chain-tools", map[string]any{"first": "get-logs", "second": "nope"})
	assert.True(t, isErr)
	assert.Equal(t, "Tool not found: nope", text)

	_, isErr = call(t, r, "chain-tools", map[string]any{"first": "chain-tools", "second": "get-logs"})
	assert.True(t, isErr)
}

func TestMemoryTools(t *testing.T) {
	r := newBuiltins(t, Deps{Store: store.NewMemory()})

	text, _ := call(t, r, "recall-preference", map[string]any{"key": "unit"})
	assert.Equal(t, "Preference: unit = (not set)", text)

	text, _ = call(t, r, "remember-preference", map[string]any{"key": "unit", "value": "celsius"})
	assert.Equal(t, "Preference stored: unit = celsius", text)

	text, _ = call(t, r, "recall-preference", map[string]any{"key": "unit"})
	assert.Equal(t, "Preference: unit = celsius", text)

	_, isErr := call(t, r, "remember-preference", map[string]any{"value": "x"})
	assert.True(t, isErr)
}

func TestLongTask(t *testing.T) {
	var slept []time.Duration

	r := newBuiltins(t, Deps{Sleep: func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)

		return ctx.Err()
	}})

	text, isErr := call(t, r, "long-task", map[string]any{"seconds": 2.5})
	assert.False(t, isErr)
	assert.Equal(t, "Long task completed after 2.5 seconds.", text)
	assert.Equal(t, []time.Duration{2500 * time.Millisecond}, slept)

	for _, bad := range []map[string]any{{"seconds": 0}, {"seconds": 31}, {}} {
		_, isErr = call(t, r, "long-task", bad)
		assert.True(t, isErr, "args %v", bad)
	}
}

func TestLongTask_Cancelled(t *testing.T) {
	r := newBuiltins(t, Deps{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := r.Call(ctx, "long-task", map[string]any{"seconds": 30})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, ResultText(result), "interrupted")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGetLogs(t *testing.T) {
	t.Run("without buffer", func(t *testing.T) {
		r := newBuiltins(t, Deps{})

		text, _ := call(t, r, "get-logs", nil)
		assert.Equal(t, nominalLogLine, text)
	})

	t.Run("with buffer", func(t *testing.T) {
		buf := logbuf.NewBuffer(10)
		log := slog.New(logbuf.NewHandler(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug}), buf))

		log.Info("server started")
		log.Error("upstream failed", "status", 503)

		r := newBuiltins(t, Deps{Logs: buf})

		text, _ := call(t, r, "get-logs", nil)
		assert.Contains(t, text, "Recent server logs (2):")
		assert.Contains(t, text, "[INFO] server started")

		text, _ = call(t, r, "get-logs", map[string]any{"level": "error"})
		assert.Contains(t, text, "Recent server logs (1):")
		assert.Contains(t, text, "[ERROR] upstream failed status=503")

		_, isErr := call(t, r, "get-logs", map[string]any{"level": "loud"})
		assert.True(t, isErr)
	})
}
