// Package toolserver serves the built-in tool catalog over MCP.
package toolserver

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/logbuf"
	"github.com/wagiedev/toolbridge-go/internal/store"
	"github.com/wagiedev/toolbridge-go/internal/tools"
	"github.com/wagiedev/toolbridge-go/internal/weather"
)

const (
	// Name is the implementation name reported during initialization.
	Name = "weather-agentic-demo"
	// Version is the tool server version.
	Version = "1.0.0"
	// Banner is written to stderr once the server is ready.
	Banner = "Weather MCP Server running on stdio"
)

// Server is an MCP server exposing the built-in tools.
type Server struct {
	log      *slog.Logger
	logs     *logbuf.Buffer
	store    store.Store
	registry *tools.Registry
	mcp      *mcp.Server
	banner   io.Writer
}

// Option configures a Server.
type Option func(*options)

type options struct {
	handler slog.Handler
	weather *weather.Client
	store   store.Store
	sleep   func(ctx context.Context, d time.Duration) error
	banner  io.Writer
}

// WithLogHandler sets the handler server logs are written to. Records are
// also kept in memory for the get-logs tool.
func WithLogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.handler = h
	}
}

// WithWeatherClient replaces the NWS client built from configuration.
func WithWeatherClient(c *weather.Client) Option {
	return func(o *options) {
		o.weather = c
	}
}

// WithStore replaces the preference store opened from configuration.
func WithStore(s store.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithSleep replaces the wait used by long-task.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) {
		o.sleep = fn
	}
}

// WithBanner sets where the startup banner is written. Defaults to stderr.
func WithBanner(w io.Writer) Option {
	return func(o *options) {
		o.banner = w
	}
}

// New builds a tool server from cfg.
func New(ctx context.Context, cfg config.ToolServerConfig, opts ...Option) (*Server, error) {
	o := &options{
		handler: slog.NewTextHandler(io.Discard, nil),
		banner:  os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	logs := logbuf.NewBuffer(cfg.LogBuffer)
	base := slog.New(logbuf.NewHandler(o.handler, logs))
	log := base.With("component", "toolserver")

	st := o.store
	if st == nil {
		var err error

		st, err = store.Open(ctx, cfg.StoreURL)
		if err != nil {
			return nil, fmt.Errorf("open preference store: %w", err)
		}
	}

	client := o.weather
	if client == nil {
		weatherOpts := []weather.Option{
			weather.WithBaseURL(cfg.NWSBaseURL),
			weather.WithUserAgent(cfg.UserAgent),
			weather.WithLogger(base),
		}

		if cfg.HTTPTimeout > 0 {
			weatherOpts = append(weatherOpts, weather.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}

		client = weather.NewClient(weatherOpts...)
	}

	registry := tools.NewRegistry(base)
	tools.Register(registry, tools.Deps{
		Weather: client,
		Store:   st,
		Logs:    logs,
		Sleep:   o.sleep,
		Logger:  base,
	})

	srv := mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, &mcp.ServerOptions{
		Logger: base.With("component", "mcp"),
	})
	registry.Mount(srv)

	return &Server{
		log:      log,
		logs:     logs,
		store:    st,
		registry: registry,
		mcp:      srv,
		banner:   o.banner,
	}, nil
}

// Registry returns the tools served.
func (s *Server) Registry() *tools.Registry {
	return s.registry
}

// Logs returns the in-memory log buffer read by get-logs.
func (s *Server) Logs() *logbuf.Buffer {
	return s.logs
}

// Serve runs the server on t until the peer disconnects or ctx is done.
func (s *Server) Serve(ctx context.Context, t mcp.Transport) error {
	s.log.Info("Tool server starting", "tools", len(s.registry.Tools()))

	err := s.mcp.Run(ctx, t)
	if err == nil || ctx.Err() != nil || stderrors.Is(err, io.EOF) {
		s.log.Info("Tool server stopped")

		return nil
	}

	return fmt.Errorf("serve: %w", err)
}

// ServeStdio runs the server on the process stdin and stdout. The banner is
// written once the transport is set up.
func (s *Server) ServeStdio(ctx context.Context) error {
	if _, err := fmt.Fprintln(s.banner, Banner); err != nil {
		s.log.Debug("Failed to write banner", "error", err)
	}

	return s.Serve(ctx, &mcp.StdioTransport{})
}

// Close releases the preference store.
func (s *Server) Close() error {
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close preference store: %w", err)
	}

	return nil
}

// Run builds a server from cfg and serves it on stdio until ctx is done.
func Run(ctx context.Context, cfg config.ToolServerConfig, opts ...Option) error {
	srv, err := New(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	defer func() {
		if err := srv.Close(); err != nil {
			srv.log.Warn("Close failed", "error", err)
		}
	}()

	return srv.ServeStdio(ctx)
}
