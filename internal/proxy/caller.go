package proxy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/framing"
	"github.com/wagiedev/toolbridge-go/internal/protocol"
	"github.com/wagiedev/toolbridge-go/internal/session"
)

// Caller runs one tool call and returns the raw result.
type Caller interface {
	Call(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error)
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error)

// Call implements Caller.
func (f CallerFunc) Call(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error) {
	return f(ctx, tool, args)
}

// SessionCaller runs each call in a fresh tool server session.
type SessionCaller struct {
	log     *slog.Logger
	options config.Options
}

// NewSessionCaller builds a caller from proxy configuration. newTransport
// may be nil, in which case each session starts the configured server
// command as a child process.
func NewSessionCaller(
	cfg config.ProxyConfig,
	log *slog.Logger,
	newTransport func(*config.Options) config.Transport,
) (*SessionCaller, error) {
	shape, err := protocol.ParseShape(cfg.Shape)
	if err != nil {
		return nil, err
	}

	mode, err := framing.ParseMode(cfg.FramingMode)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	serverLog := log.With("component", "toolserver_stderr")

	return &SessionCaller{
		log: log,
		options: config.Options{
			Logger:       log,
			Timeout:      cfg.CallTimeout,
			ServerPath:   cfg.ServerPath,
			ServerArgs:   cfg.ServerArgs,
			Shape:        shape,
			FramingMode:  mode,
			NewTransport: newTransport,
			Stderr: func(line string) {
				serverLog.Debug(line)
			},
		},
	}, nil
}

// Call implements Caller.
func (c *SessionCaller) Call(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error) {
	options := c.options

	s := session.New(&options)
	c.log.Debug("Starting tool session", "tool", tool, "session_id", s.ID())

	return s.Run(ctx, tool, args)
}
