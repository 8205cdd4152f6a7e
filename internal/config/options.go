package config

import (
	"log/slog"
	"time"

	"github.com/wagiedev/toolbridge-go/internal/framing"
	"github.com/wagiedev/toolbridge-go/internal/protocol"
)

// DefaultTimeout bounds a tool call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Options configures one tool call session.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Timeout bounds the whole exchange, from process start to result.
	// Zero means DefaultTimeout.
	Timeout time.Duration

	// ServerPath is the tool server executable. If empty, discovery searches
	// PATH and common locations.
	ServerPath string

	// ServerArgs are passed to the tool server.
	ServerArgs []string

	// Env adds environment variables to the tool server process.
	Env map[string]string

	// Cwd sets the working directory for the tool server process.
	Cwd string

	// Shape selects the request shapes sent to the server.
	// The zero value means protocol.ShapeMCP.
	Shape protocol.Shape

	// ClientInfo is sent in the initialize request.
	// The zero value means protocol.DefaultClientInfo.
	ClientInfo protocol.ClientInfo

	// FramingMode selects string-aware or plain brace-counting framing.
	FramingMode framing.Mode

	// MaxFrameSize limits a single frame. Zero means framing.DefaultMaxFrameSize.
	MaxFrameSize int

	// Stderr is called with each line the tool server writes to stderr.
	Stderr func(string)

	// Transport replaces the default subprocess transport.
	Transport Transport

	// NewTransport builds a transport for each session when Transport is nil.
	// Transports are single-use, so callers that run many sessions from one
	// Options value set this instead of Transport.
	NewTransport func(*Options) Transport
}

// EffectiveTimeout returns the configured timeout or DefaultTimeout.
func (o *Options) EffectiveTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}

	return DefaultTimeout
}

// EffectiveShape returns the configured shape or protocol.ShapeMCP.
func (o *Options) EffectiveShape() protocol.Shape {
	if o.Shape.CallMethod == "" {
		return protocol.ShapeMCP
	}

	return o.Shape
}

// EffectiveClientInfo returns the configured client info or the default.
func (o *Options) EffectiveClientInfo() protocol.ClientInfo {
	if o.ClientInfo.Name == "" {
		return protocol.DefaultClientInfo
	}

	return o.ClientInfo
}

// EffectiveMaxFrameSize returns the configured frame limit or the default.
func (o *Options) EffectiveMaxFrameSize() int {
	if o.MaxFrameSize > 0 {
		return o.MaxFrameSize
	}

	return framing.DefaultMaxFrameSize
}
