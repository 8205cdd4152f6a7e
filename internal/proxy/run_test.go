package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/toolbridge-go/internal/config"
)

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})

	caller := CallerFunc(func(context.Context, string, map[string]any) (json.RawMessage, error) {
		close(started)
		<-release

		return json.RawMessage(`{"content":[]}`), nil
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, config.ProxyConfig{ShutdownGrace: 5 * time.Second}, caller, nil)
	}()

	respCh := make(chan int, 1)
	go func() {
		resp, err := http.Post("http://"+ln.Addr().String()+"/mcp-client", "application/json",
			strings.NewReader(`{"tool":"get-logs"}`))
		if err != nil {
			respCh <- 0

			return
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		respCh <- resp.StatusCode
	}()

	<-started
	cancel()

	// The in-flight call still completes during the grace period.
	close(release)

	select {
	case code := <-respCh:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request was not answered")
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestRun_ListenError(t *testing.T) {
	err := Run(context.Background(), config.ProxyConfig{Addr: "not-an-addr"}, nil, nil)
	require.Error(t, err)
}
