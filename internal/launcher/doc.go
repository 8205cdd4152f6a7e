// Package launcher locates the tool server executable and builds the command
// used to start it.
//
// # Discovery
//
// The Discoverer interface locates and validates the tool server binary:
//
//	discoverer := launcher.NewDiscoverer(&launcher.Config{
//	    ServerPath: "",           // Optional explicit path
//	    Logger:     slog.Default(),
//	})
//	serverPath, err := discoverer.Discover(ctx)
//
// Discovery searches in the following order:
//  1. Explicit path in Config.ServerPath (if provided)
//  2. System PATH
//  3. ./bin/toolserver and ~/go/bin/toolserver
//
// # Version Validation
//
// During discovery the server's -version output is compared against
// MinimumVersion and a warning is logged when it is older. Version checking
// can be skipped via Config.SkipVersionCheck or the TOOLBRIDGE_SKIP_VERSION_CHECK
// environment variable.
//
// # Command Building
//
//	args := launcher.BuildArgs(options)
//	env := launcher.BuildEnvironment(options, sessionID)
package launcher
