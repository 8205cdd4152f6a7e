package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/toolbridge-go/internal/logbuf"
)

const (
	minTaskSeconds = 1
	maxTaskSeconds = 30

	// summaryRunes is how much of the input the simulated summary keeps.
	summaryRunes = 40

	// maxLogLines bounds the get-logs output.
	maxLogLines = 50

	nominalLogLine = "[Log] All systems nominal (demo log)"
)

type demoTools struct {
	resolver Resolver
	logs     *logbuf.Buffer
	sleep    func(ctx context.Context, d time.Duration) error
	log      *slog.Logger
}

func (d *demoTools) news(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Topic string `json:"topic"`
	}
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	return TextResult(fmt.Sprintf("Top headlines for '%s':\n- News 1\n- News 2\n- News 3", args.Topic)), nil
}

func (d *demoTools) stockPrice(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Symbol string `json:"symbol"`
	}
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	return TextResult(fmt.Sprintf("Current price for %s: $123.45 (demo)", args.Symbol)), nil
}

// planTrip combines a mocked weather report with the news and stock tools.
func (d *demoTools) planTrip(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Destination string `json:"destination"`
		Date        string `json:"date"`
	}
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	d.log.Debug("Planning trip", "destination", args.Destination, "date", args.Date)

	news, err := d.run(ctx, "get-news-headlines", map[string]any{"topic": args.Destination})
	if err != nil {
		return nil, err
	}

	stock, err := d.run(ctx, "get-stock-price", map[string]any{"symbol": "AAPL"})
	if err != nil {
		return nil, err
	}

	return TextResult(fmt.Sprintf(
		"Trip plan for %s on %s:\n\nWeather:\nSunny, 75F (mocked)\n\nNews:\n%s\n\nFinance:\n%s",
		args.Destination, args.Date, news, stock,
	)), nil
}

// run calls another tool through the resolver and returns its text.
func (d *demoTools) run(ctx context.Context, name string, args map[string]any) (string, error) {
	handler, ok := d.resolver.Resolve(name)
	if !ok {
		return "", fmt.Errorf("tool not found: %s", name)
	}

	result, err := invoke(ctx, handler, name, args)
	if err != nil {
		return "", err
	}

	return ResultText(result), nil
}

func (d *demoTools) chain(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		First  string         `json:"first"`
		Second string         `json:"second"`
		Args   map[string]any `json:"args"`
	}
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	for _, name := range []string{args.First, args.Second} {
		if name == "chain-tools" {
			return ErrorResult("chain-tools cannot chain itself"), nil
		}

		if _, ok := d.resolver.Resolve(name); !ok {
			return ErrorResult("Tool not found: " + name), nil
		}
	}

	first, err := d.run(ctx, args.First, args.Args)
	if err != nil {
		return nil, err
	}

	second, err := d.run(ctx, args.Second, args.Args)
	if err != nil {
		return nil, err
	}

	return TextResult(fmt.Sprintf("Results of %s:\n%s\n\nResults of %s:\n%s",
		args.First, first, args.Second, second)), nil
}

func (d *demoTools) longTask(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Seconds *float64 `json:"seconds"`
	}
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	if args.Seconds == nil || *args.Seconds < minTaskSeconds || *args.Seconds > maxTaskSeconds {
		return ErrorResult(fmt.Sprintf("seconds must be between %d and %d", minTaskSeconds, maxTaskSeconds)), nil
	}

	seconds := *args.Seconds

	d.log.Info("Long task started", "seconds", seconds)

	if err := d.sleep(ctx, time.Duration(seconds*float64(time.Second))); err != nil {
		return nil, fmt.Errorf("long task interrupted: %w", err)
	}

	return TextResult(fmt.Sprintf("Long task completed after %s seconds.",
		strconv.FormatFloat(seconds, 'f', -1, 64))), nil
}

func (d *demoTools) getLogs(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Level string `json:"level"`
	}
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	minLevel := slog.LevelDebug

	if args.Level != "" {
		if err := minLevel.UnmarshalText([]byte(args.Level)); err != nil {
			return ErrorResult(fmt.Sprintf("unknown log level %q", args.Level)), nil
		}
	}

	if d.logs == nil {
		return TextResult(nominalLogLine), nil
	}

	records := d.logs.AtLeast(minLevel)
	if len(records) == 0 {
		return TextResult(nominalLogLine), nil
	}

	if len(records) > maxLogLines {
		records = records[len(records)-maxLogLines:]
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, fmt.Sprintf("Recent server logs (%d):", len(records)))

	for _, r := range records {
		lines = append(lines, r.String())
	}

	return TextResult(strings.Join(lines, "\n")), nil
}

func (d *demoTools) summarize(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Text string `json:"text"`
	}
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	text := []rune(args.Text)
	if len(text) > summaryRunes {
		text = text[:summaryRunes]
	}

	return TextResult(fmt.Sprintf("Summary: %s... (simulated)", string(text))), nil
}

func (d *demoTools) multiAgent(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Task string `json:"task"`
	}
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	text := "Agent A: gathers data\nAgent B: analyzes\nAgent C: reports\n(Demo)"
	if args.Task != "" {
		text = "Task: " + args.Task + "\n" + text
	}

	return TextResult(text), nil
}
