package subprocess

import (
	"bufio"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/wagiedev/toolbridge-go/internal/config"
)

const helperEnvVar = "TOOLBRIDGE_HELPER_PROCESS"

// helperOptions returns options that re-exec the test binary as a fake tool
// server running the given mode.
func helperOptions(t *testing.T, mode string) *config.Options {
	t.Helper()
	t.Setenv("TOOLBRIDGE_SKIP_VERSION_CHECK", "1")

	return &config.Options{
		ServerPath: os.Args[0],
		ServerArgs: []string{"-test.run=^TestHelperProcess$", "--", mode},
		Env:        map[string]string{helperEnvVar: "1"},
	}
}

// TestHelperProcess is not a real test. It is the fake tool server started
// by helperOptions.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnvVar) != "1" {
		t.Skip("helper process only")
	}

	mode := ""

	for i, arg := range os.Args {
		if arg == "--" && i+1 < len(os.Args) {
			mode = os.Args[i+1]

			break
		}
	}

	switch mode {
	case "frames":
		fmt.Fprintln(os.Stdout, "server starting")
		fmt.Fprint(os.Stdout, `{"jsonrpc":"2.0","id":1,`)
		time.Sleep(20 * time.Millisecond)
		fmt.Fprint(os.Stdout, `"result":{}}`+"\n"+`{"jsonrpc":"2.0","id":2,"result":{"text":"}{"}}`)
		os.Exit(0)

	case "echo":
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			fmt.Fprintln(os.Stdout, scanner.Text())
		}

		os.Exit(0)

	case "fail":
		fmt.Fprintln(os.Stderr, "fatal: boom")
		fmt.Fprintln(os.Stderr, "shutting down")
		os.Exit(3)

	case "session":
		fmt.Fprintf(os.Stdout, `{"session":%q}`, os.Getenv("TOOLBRIDGE_SESSION_ID"))
		os.Exit(0)

	case "hang":
		fmt.Fprintln(os.Stderr, "waiting forever")
		time.Sleep(time.Hour)
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "unknown helper mode %q\n", mode)
		os.Exit(2)
	}
}
