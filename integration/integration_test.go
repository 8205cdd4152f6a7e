//go:build integration

package integration

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/wagiedev/toolbridge-go"
)

// serverPath is the tool server binary under test. TOOLBRIDGE_SERVER_PATH
// selects an existing binary; otherwise cmd/toolserver is built once.
var serverPath string

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	if path := os.Getenv("TOOLBRIDGE_SERVER_PATH"); path != "" {
		serverPath = path

		return m.Run()
	}

	dir, err := os.MkdirTemp("", "toolbridge-integration")
	if err != nil {
		fmt.Fprintf(os.Stderr, "temp dir: %v\n", err)

		return 1
	}

	defer os.RemoveAll(dir)

	serverPath = filepath.Join(dir, "toolserver")

	build := exec.Command("go", "build", "-o", serverPath, "../cmd/toolserver")
	build.Stdout = os.Stderr
	build.Stderr = os.Stderr

	if err := build.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "build toolserver: %v\n", err)

		serverPath = ""
	}

	return m.Run()
}

// serverOptions points a call at the binary under test.
func serverOptions(t *testing.T, extra ...toolbridge.Option) []toolbridge.Option {
	t.Helper()

	if serverPath == "" {
		t.Skip("tool server binary not available")
	}

	return append([]toolbridge.Option{
		toolbridge.WithServerPath(serverPath),
		toolbridge.WithEnv(map[string]string{"TOOLSERVER_STORE": "memory"}),
	}, extra...)
}

// skipIfServerNotInstalled skips the test if the error indicates the server is not found.
func skipIfServerNotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*toolbridge.ServerNotFoundError](err); ok {
		t.Skip("tool server not installed")
	}
}
