package launcher

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/wagiedev/toolbridge-go/internal/config"
)

// SessionEnvVar carries the bridge session id into the tool server.
const SessionEnvVar = "TOOLBRIDGE_SESSION_ID"

// BuildArgs constructs the tool server arguments.
func BuildArgs(options *config.Options) []string {
	return slices.Clone(options.ServerArgs)
}

// BuildEnvironment constructs the environment for the tool server process.
//
// The parent environment is inherited, the session id is added, and
// options.Env entries are appended in key order so they override inherited
// values.
func BuildEnvironment(options *config.Options, sessionID string) []string {
	env := os.Environ()

	if sessionID != "" {
		env = append(env, SessionEnvVar+"="+sessionID)
	}

	for _, key := range slices.Sorted(maps.Keys(options.Env)) {
		env = append(env, fmt.Sprintf("%s=%s", key, options.Env[key]))
	}

	return env
}
