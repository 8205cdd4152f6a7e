package proxy

import (
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes recorded in toolbridge_calls_total.
const (
	outcomeOK        = "ok"
	outcomeToolError = "tool_error"
	outcomeTimeout   = "timeout"
	outcomeRPCError  = "rpc_error"
	outcomeFailed    = "failed"
	outcomeCancelled = "cancelled"
)

type metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toolbridge_calls_total",
			Help: "Tool calls proxied, by tool and outcome.",
		}, []string{"tool", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "toolbridge_call_duration_seconds",
			Help:    "Time from request to tool server answer.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"tool"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "toolbridge_sessions_inflight",
			Help: "Tool server sessions currently running.",
		}),
	}

	reg.MustRegister(m.calls, m.duration, m.inflight)

	return m
}

func (m *metrics) observe(tool, outcome string, elapsed time.Duration) {
	m.calls.WithLabelValues(tool, outcome).Inc()
	m.duration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// resultOutcome tells a successful call from one whose tool reported an error.
func resultOutcome(raw json.RawMessage) string {
	var result struct {
		IsError bool `json:"isError"`
	}

	if json.Unmarshal(raw, &result) == nil && result.IsError {
		return outcomeToolError
	}

	return outcomeOK
}
