package launcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wagiedev/toolbridge-go/internal/errors"
)

const (
	// ServerName is the executable name searched for on PATH.
	ServerName = "toolserver"

	// MinimumVersion is the minimum supported tool server version.
	MinimumVersion = "1.0.0"

	// VersionCheckTimeout is the timeout for the server version check command.
	VersionCheckTimeout = 2 * time.Second

	// versionWaitDelay bounds how long the version check waits on output
	// pipes held open by grandchildren once the command has been killed.
	versionWaitDelay = 100 * time.Millisecond
)

var versionPattern = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+)`)

// checkedServers records the server paths whose version has been checked.
// The check runs at most once per path per process.
var checkedServers sync.Map

// Config holds configuration for server discovery.
type Config struct {
	// ServerPath is an explicit path that skips the PATH search.
	ServerPath string

	// SkipVersionCheck skips version validation during discovery.
	// Can also be controlled via TOOLBRIDGE_SKIP_VERSION_CHECK env var.
	SkipVersionCheck bool

	// Logger is an optional logger for discovery operations.
	Logger *slog.Logger
}

// Discoverer locates the tool server binary.
type Discoverer interface {
	// Discover returns the path of the tool server executable.
	Discover(ctx context.Context) (string, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &discoverer{
		cfg: cfg,
		log: log,
	}
}

// Discover locates the tool server binary and checks its version.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	d.log.Debug("Discovering tool server binary")

	serverPath, err := d.findServer()
	if err != nil {
		d.log.Error("Failed to find tool server", "error", err)

		return "", err
	}

	d.log.Debug("Found tool server binary", "server_path", serverPath)

	d.checkVersion(ctx, serverPath)

	return serverPath, nil
}

// findServer locates the tool server binary.
func (d *discoverer) findServer() (string, error) {
	if d.cfg.ServerPath != "" {
		d.log.Debug("Using explicit server path", "server_path", d.cfg.ServerPath)

		// A bare name such as "node" is resolved through PATH.
		if !strings.ContainsRune(d.cfg.ServerPath, filepath.Separator) {
			if path, err := exec.LookPath(d.cfg.ServerPath); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(d.cfg.ServerPath); err == nil {
			return d.cfg.ServerPath, nil
		}

		return "", &errors.ServerNotFoundError{SearchedPaths: []string{d.cfg.ServerPath}}
	}

	searchedPaths := make([]string, 0, 3)

	if path, err := exec.LookPath(ServerName); err == nil {
		d.log.Debug("Found server in PATH", "path", path)

		return path, nil
	}

	searchedPaths = append(searchedPaths, "$PATH")

	commonPaths := []string{filepath.Join("bin", ServerName)}

	if homeDir, err := os.UserHomeDir(); err == nil {
		commonPaths = append(commonPaths, filepath.Join(homeDir, "go", "bin", ServerName))
	}

	for _, path := range commonPaths {
		searchedPaths = append(searchedPaths, path)

		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			d.log.Debug("Found server at common path", "path", path)

			return path, nil
		}
	}

	d.log.Warn("Tool server not found in any searched paths", "searched_paths", searchedPaths)

	return "", &errors.ServerNotFoundError{SearchedPaths: searchedPaths}
}

// checkVersion logs a warning when the server reports a version below
// MinimumVersion. Errors are ignored: servers that do not understand
// -version are still usable. The check is bounded by ctx and by
// VersionCheckTimeout, and runs once per server path.
func (d *discoverer) checkVersion(ctx context.Context, serverPath string) {
	if d.cfg.SkipVersionCheck || os.Getenv("TOOLBRIDGE_SKIP_VERSION_CHECK") != "" {
		d.log.Debug("Skipping server version check")

		return
	}

	if _, seen := checkedServers.LoadOrStore(serverPath, struct{}{}); seen {
		d.log.Debug("Server version already checked", "server_path", serverPath)

		return
	}

	ctx, cancel := context.WithTimeout(ctx, VersionCheckTimeout)
	defer cancel()

	//nolint:gosec // G204: the server path is operator configuration
	cmd := exec.CommandContext(ctx, serverPath, "-version")
	cmd.WaitDelay = versionWaitDelay

	output, err := cmd.Output()
	if err != nil {
		d.log.Debug("Server version check failed", "error", err)

		return
	}

	match := versionPattern.FindStringSubmatch(strings.TrimSpace(string(output)))
	if match == nil {
		d.log.Debug("Could not parse server version", "output", string(output))

		return
	}

	if compareVersions(match[1], MinimumVersion) < 0 {
		d.log.Warn("Tool server version is older than supported",
			"version", match[1],
			"minimum_required", MinimumVersion,
		)

		return
	}

	d.log.Debug("Server version check passed", "version", match[1])
}

// compareVersions compares two semantic versions.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := range 3 {
		aNum := 0
		bNum := 0

		if i < len(aParts) {
			aNum, _ = strconv.Atoi(aParts[i])
		}

		if i < len(bParts) {
			bNum, _ = strconv.Atoi(bParts[i])
		}

		if aNum < bNum {
			return -1
		}

		if aNum > bNum {
			return 1
		}
	}

	return 0
}
