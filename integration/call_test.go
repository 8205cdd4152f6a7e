//go:build integration

package integration

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/toolbridge-go"
)

func TestServerVersion(t *testing.T) {
	serverOptions(t)

	out, err := exec.Command(serverPath, "-version").Output()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", strings.TrimSpace(string(out)))
}

func TestCall_DemoTools(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := toolbridge.CallTool(ctx, "get-stock-price", map[string]any{"symbol": "AAPL"}, serverOptions(t)...)
	if err != nil {
		skipIfServerNotInstalled(t, err)
		t.Fatalf("Call failed: %v", err)
	}

	assert.False(t, result.IsError)
	assert.Equal(t, "Current price for AAPL: $123.45 (demo)", toolbridge.ResultText(result))
}

func TestCall_ToolErrorIsResult(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := toolbridge.CallTool(ctx, "get-logs", map[string]any{"level": "loud"}, serverOptions(t)...)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestCall_UnknownToolIsRPCError(t *testing.T) {
	_, err := toolbridge.Call(context.Background(), "no-such-tool", nil, serverOptions(t)...)

	rpcErr, ok := errors.AsType[*toolbridge.RPCError](err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, 2, rpcErr.ID)
}

func TestCall_TimeoutKillsServer(t *testing.T) {
	start := time.Now()

	_, err := toolbridge.Call(context.Background(), "long-task", map[string]any{"seconds": 20},
		serverOptions(t, toolbridge.WithTimeout(time.Second))...)

	require.ErrorIs(t, err, toolbridge.ErrTimeout)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestCall_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(500*time.Millisecond, cancel)

	_, err := toolbridge.Call(ctx, "long-task", map[string]any{"seconds": 20}, serverOptions(t)...)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCall_StderrBanner(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)

	_, err := toolbridge.Call(context.Background(), "multi-agent-demo", nil,
		serverOptions(t, toolbridge.WithStderr(func(line string) {
			mu.Lock()
			defer mu.Unlock()

			lines = append(lines, line)
		}))...)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()

	assert.Contains(t, lines, "Weather MCP Server running on stdio")
}

func TestCall_Concurrent(t *testing.T) {
	opts := serverOptions(t)

	var wg sync.WaitGroup

	for _, topic := range []string{"go", "rust", "zig", "c"} {
		wg.Go(func() {
			result, err := toolbridge.CallTool(context.Background(), "get-news-headlines",
				map[string]any{"topic": topic}, opts...)
			if !assert.NoError(t, err) {
				return
			}

			assert.Contains(t, toolbridge.ResultText(result), "Top headlines for '"+topic+"'")
		})
	}

	wg.Wait()
}

func TestCall_BraceCountFraming(t *testing.T) {
	result, err := toolbridge.CallTool(context.Background(), "llm-summarize",
		map[string]any{"text": "balanced {braces} only"},
		serverOptions(t, toolbridge.WithFramingMode(toolbridge.FramingBraceCount))...)
	require.NoError(t, err)
	assert.Equal(t, "Summary: balanced {braces} only... (simulated)", toolbridge.ResultText(result))
}

func TestCall_SQLitePreferencesPersistAcrossSessions(t *testing.T) {
	db := t.TempDir() + "/prefs.db"
	opts := serverOptions(t, toolbridge.WithEnv(map[string]string{"TOOLSERVER_STORE": "sqlite://" + db}))

	_, err := toolbridge.Call(context.Background(), "remember-preference",
		map[string]any{"key": "units", "value": "metric"}, opts...)
	require.NoError(t, err)

	result, err := toolbridge.CallTool(context.Background(), "recall-preference",
		map[string]any{"key": "units"}, opts...)
	require.NoError(t, err)
	assert.Equal(t, "Preference: units = metric", toolbridge.ResultText(result))
}
