package toolbridge

import (
	"log/slog"
	"time"

	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/framing"
	"github.com/wagiedev/toolbridge-go/internal/protocol"
)

// Options configures a tool call session.
type Options = config.Options

// Shape describes the request methods and parameter layout a server accepts.
type Shape = protocol.Shape

// ClientInfo identifies the caller in the initialize request.
type ClientInfo = protocol.ClientInfo

// FramingMode selects how server output is split into JSON objects.
type FramingMode = framing.Mode

// Request shapes.
var (
	// ShapeMCP sends tools/call with an initialized notification.
	ShapeMCP = protocol.ShapeMCP

	// ShapeLegacy sends callTool with the tool name in a "tool" field.
	ShapeLegacy = protocol.ShapeLegacy
)

// Framing modes.
const (
	// FramingLexical ignores braces inside JSON strings.
	FramingLexical = framing.ModeLexical

	// FramingBraceCount counts every brace, as simple line-oriented servers expect.
	FramingBraceCount = framing.ModeBraceCount
)

// DefaultTimeout bounds a call when WithTimeout is not used.
const DefaultTimeout = config.DefaultTimeout

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to a fresh Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithTimeout bounds the whole call, from server start to result.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// ===== Server Process =====

// WithServerPath sets the explicit path to the tool server binary.
// If not set, the server is searched in PATH.
func WithServerPath(path string) Option {
	return func(o *Options) {
		o.ServerPath = path
	}
}

// WithServerArgs sets the arguments passed to the tool server.
func WithServerArgs(args ...string) Option {
	return func(o *Options) {
		o.ServerArgs = args
	}
}

// WithEnv provides additional environment variables for the server process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// WithCwd sets the working directory for the server process.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// WithStderr sets a callback for each line the server writes to stderr.
func WithStderr(handler func(string)) Option {
	return func(o *Options) {
		o.Stderr = handler
	}
}

// ===== Protocol =====

// WithShape selects the request shapes sent to the server.
func WithShape(shape Shape) Option {
	return func(o *Options) {
		o.Shape = shape
	}
}

// WithClientInfo sets the client name and version sent in initialize.
func WithClientInfo(name, version string) Option {
	return func(o *Options) {
		o.ClientInfo = ClientInfo{Name: name, Version: version}
	}
}

// WithFramingMode selects how server output is split into messages.
func WithFramingMode(mode FramingMode) Option {
	return func(o *Options) {
		o.FramingMode = mode
	}
}

// WithMaxFrameSize limits the size of a single message from the server.
func WithMaxFrameSize(size int) Option {
	return func(o *Options) {
		o.MaxFrameSize = size
	}
}

// ===== Transport =====

// WithTransport injects a custom transport for a single session.
// A transport carries one session; use WithTransportFactory when the same
// options are used for several calls.
func WithTransport(transport Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}

// WithTransportFactory builds a fresh transport for every session.
func WithTransportFactory(factory func(*Options) Transport) Option {
	return func(o *Options) {
		o.NewTransport = factory
	}
}
