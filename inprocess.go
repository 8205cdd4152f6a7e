package toolbridge

import (
	"context"
	"io"
	"log/slog"

	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/toolserver"
)

// InProcessServer serves the built-in tools from the calling process.
type InProcessServer = toolserver.Server

// NewInProcessServer builds the built-in tool server. It is configured from
// the same TOOLSERVER_* environment variables as the standalone binary.
// Close it when done to release its preference store.
func NewInProcessServer(ctx context.Context, logger *slog.Logger) (*InProcessServer, error) {
	var cfg config.ToolServerConfig
	if err := config.ParseEnv(&cfg); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = NopLogger()
	}

	return toolserver.New(ctx, cfg,
		toolserver.WithLogHandler(logger.Handler()),
		toolserver.WithBanner(io.Discard),
	)
}

// WithInProcessServer routes every session to srv instead of a child process.
func WithInProcessServer(srv *InProcessServer) Option {
	return WithTransportFactory(func(o *Options) Transport {
		return toolserver.NewPipeTransport(srv, o)
	})
}
