package tools

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/toolbridge-go/internal/catalog"
	"github.com/wagiedev/toolbridge-go/internal/logbuf"
	"github.com/wagiedev/toolbridge-go/internal/store"
	"github.com/wagiedev/toolbridge-go/internal/weather"
)

// Deps are the collaborators of the built-in tools.
type Deps struct {
	// Weather is the NWS client. Nil means a client for the public API.
	Weather *weather.Client

	// Store holds remembered preferences. Nil means a fresh in-memory store.
	Store store.Store

	// Logs is read by get-logs. Nil means get-logs reports a fixed status line.
	Logs *logbuf.Buffer

	// Sleep waits for d or until ctx is done. Nil means a timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error

	// Logger is used by tools that log their progress.
	Logger *slog.Logger
}

func (d *Deps) withDefaults() {
	if d.Weather == nil {
		d.Weather = weather.NewClient(weather.WithLogger(d.Logger))
	}

	if d.Store == nil {
		d.Store = store.NewMemory()
	}

	if d.Sleep == nil {
		d.Sleep = sleep
	}

	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register adds every built-in tool to r. Tool names, descriptions and input
// schemas come from the catalog.
func Register(r *Registry, deps Deps) {
	deps.withDefaults()

	log := deps.Logger.With("component", "tools")

	w := &weatherTools{client: deps.Weather, log: log}
	m := &memoryTools{store: deps.Store}
	d := &demoTools{resolver: r, logs: deps.Logs, sleep: deps.Sleep, log: log}

	handlers := map[string]Handler{
		"get-alerts":                 w.alerts,
		"get-forecast":               w.forecast,
		"get-state-forecast-summary": w.stateSummary,
		"get-news-headlines":         d.news,
		"get-stock-price":            d.stockPrice,
		"plan-trip":                  d.planTrip,
		"chain-tools":                d.chain,
		"remember-preference":        m.remember,
		"recall-preference":          m.recall,
		"long-task":                  d.longTask,
		"get-logs":                   d.getLogs,
		"llm-summarize":              d.summarize,
		"multi-agent-demo":           d.multiAgent,
	}

	for _, entry := range catalog.All() {
		handler, ok := handlers[entry.Name]
		if !ok {
			log.Warn("Catalog tool has no implementation", "tool", entry.Name)

			continue
		}

		r.Add(catalogTool(entry), handler)
	}
}

func catalogTool(entry catalog.Entry) *mcp.Tool {
	return NewTool(entry.Name, entry.Description, entry.InputSchema())
}
