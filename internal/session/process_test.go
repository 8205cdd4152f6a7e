package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/errors"
	"github.com/wagiedev/toolbridge-go/internal/framing"
	"github.com/wagiedev/toolbridge-go/internal/protocol"
	"github.com/wagiedev/toolbridge-go/internal/subprocess"
)

const helperEnvVar = "TOOLBRIDGE_HELPER_PROCESS"

// TestHelperProcess is not a real test. It is a fake tool server started by
// helperSession.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnvVar) != "1" {
		t.Skip("helper process only")
	}

	mode := os.Args[len(os.Args)-1]

	switch mode {
	case "serve", "crash-after-init":
		fmt.Fprintln(os.Stderr, "Weather MCP Server running on stdio")
		fmt.Fprintln(os.Stdout, "starting fake server")

		sc := framing.NewScanner(os.Stdin, framing.ModeLexical, framing.DefaultMaxFrameSize)
		for sc.Scan() {
			msg, err := protocol.Decode(sc.Bytes())
			if err != nil {
				continue
			}

			switch msg.Method {
			case "initialize":
				if mode == "crash-after-init" {
					fmt.Fprintln(os.Stderr, "panic: lost connection")
					os.Exit(2)
				}

				fmt.Fprint(os.Stdout, `{"jsonrpc":"2.0","id":1,`)
				time.Sleep(10 * time.Millisecond)
				fmt.Fprint(os.Stdout, `"result":{"serverInfo":{"name":"fake"}}}`+"\n")

			case "tools/call":
				var params struct {
					Name string `json:"name"`
				}

				_ = json.Unmarshal(msg.Params, &params)

				reply := fmt.Sprintf(
					`{"jsonrpc":"2.0","id":2,"result":{"content":[{"type":"text","text":"called %s {ok}"}]}}`,
					params.Name,
				)
				fmt.Fprint(os.Stdout, reply[:20])
				time.Sleep(10 * time.Millisecond)
				fmt.Fprint(os.Stdout, reply[20:]+reply+"\n")
			}
		}

		os.Exit(0)

	case "ack-then-exit":
		sc := framing.NewScanner(os.Stdin, framing.ModeLexical, framing.DefaultMaxFrameSize)
		sc.Scan()

		fmt.Fprintln(os.Stderr, "boom")
		fmt.Fprintln(os.Stdout, `{"jsonrpc":"2.0","id":1,"result":{}}`)
		os.Exit(3)

	case "silent":
		time.Sleep(time.Hour)
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "unknown helper mode %q\n", mode)
		os.Exit(2)
	}
}

// helperSession builds a session whose child process is the test binary
// running the given helper mode.
func helperSession(t *testing.T, mode string, timeout time.Duration) (*Session, *subprocess.ProcessTransport) {
	t.Helper()
	t.Setenv("TOOLBRIDGE_SKIP_VERSION_CHECK", "1")

	options := &config.Options{
		Logger:     discardLogger(),
		Timeout:    timeout,
		ServerPath: os.Args[0],
		ServerArgs: []string{"-test.run=^TestHelperProcess$", "--", mode},
		Env:        map[string]string{helperEnvVar: "1"},
	}

	transport := subprocess.NewProcessTransport(options.Logger, "helper", options)
	options.Transport = transport

	return New(options), transport
}

func TestRun_ChildProcessRoundTrip(t *testing.T) {
	s, transport := helperSession(t, "serve", 10*time.Second)

	result, err := s.Run(context.Background(), "get-alerts", map[string]any{"state": "TX"})
	require.NoError(t, err)
	require.JSONEq(t, `{"content":[{"type":"text","text":"called get-alerts {ok}"}]}`, string(result))
	assert.True(t, transport.Terminated(), "child process was not reaped")
}

func TestRun_ChildProcessSilentTimesOut(t *testing.T) {
	const timeout = 300 * time.Millisecond

	s, transport := helperSession(t, "silent", timeout)

	start := time.Now()
	_, err := s.Run(context.Background(), "long-task", nil)

	require.ErrorIs(t, err, errors.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), timeout)
	assert.True(t, transport.Terminated(), "child process was not reaped")
}

func TestRun_ChildProcessCrash(t *testing.T) {
	s, transport := helperSession(t, "crash-after-init", 10*time.Second)

	_, err := s.Run(context.Background(), "get-alerts", nil)

	procErr, ok := stderrors.AsType[*errors.ProcessError](err)
	require.True(t, ok, "expected ProcessError, got %v", err)
	assert.Equal(t, 2, procErr.ExitCode)
	assert.Contains(t, procErr.Stderr, "panic: lost connection")
	assert.True(t, transport.Terminated())
}

func TestRun_ChildProcessExitsAfterInitReply(t *testing.T) {
	// The server may be gone before or after the bridge writes the tool
	// call; either way the exit status is reported.
	for range 10 {
		s, transport := helperSession(t, "ack-then-exit", 10*time.Second)

		_, err := s.Run(context.Background(), "get-alerts", nil)

		procErr, ok := stderrors.AsType[*errors.ProcessError](err)
		require.True(t, ok, "expected ProcessError, got %v", err)
		assert.Equal(t, 3, procErr.ExitCode)
		assert.Contains(t, procErr.Stderr, "boom")
		assert.True(t, transport.Terminated())
	}
}

// scriptSession builds a session whose server is a shell script.
func scriptSession(t *testing.T, script string, timeout time.Duration) *Session {
	t.Helper()

	path := filepath.Join(t.TempDir(), "toolserver")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))

	return New(&config.Options{
		Logger:     discardLogger(),
		Timeout:    timeout,
		ServerPath: path,
	})
}

func TestRun_TimeoutCoversVersionCheck(t *testing.T) {
	t.Setenv("TOOLBRIDGE_SKIP_VERSION_CHECK", "")

	const timeout = 300 * time.Millisecond

	s := scriptSession(t, `if [ "$1" = "-version" ]; then exec sleep 5; fi
exec sleep 30
`, timeout)

	start := time.Now()
	_, err := s.Run(context.Background(), "get-alerts", nil)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, errors.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestRun_TimeoutKillsServerChildren(t *testing.T) {
	t.Setenv("TOOLBRIDGE_SKIP_VERSION_CHECK", "1")

	const timeout = 300 * time.Millisecond

	// sleep runs as a child of the shell and inherits its stdout.
	s := scriptSession(t, "sleep 30\necho done\n", timeout)

	start := time.Now()
	_, err := s.Run(context.Background(), "get-alerts", nil)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, errors.ErrTimeout)
	assert.Less(t, elapsed, 2*time.Second)
}
