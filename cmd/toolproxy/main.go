// Package main runs the HTTP proxy that forwards browser tool calls to the
// tool server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/proxy"
	"github.com/wagiedev/toolbridge-go/internal/toolserver"
)

func main() {
	cfg, err := config.LoadProxyConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "toolproxy: %v\n", err)
		os.Exit(2)
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "toolproxy: %v\n", err)
		os.Exit(2)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Proxy failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.ProxyConfig, log *slog.Logger) error {
	var newTransport func(*config.Options) config.Transport

	if cfg.InProcess {
		var serverCfg config.ToolServerConfig
		if err := config.ParseEnv(&serverCfg); err != nil {
			return err
		}

		srv, err := toolserver.New(ctx, serverCfg,
			toolserver.WithLogHandler(log.Handler()),
			toolserver.WithBanner(io.Discard),
		)
		if err != nil {
			return err
		}

		defer func() {
			if err := srv.Close(); err != nil {
				log.Warn("Failed to close tool server", "error", err)
			}
		}()

		newTransport = func(o *config.Options) config.Transport {
			return toolserver.NewPipeTransport(srv, o)
		}

		log.Info("Serving built-in tools in-process")
	}

	caller, err := proxy.NewSessionCaller(cfg, log, newTransport)
	if err != nil {
		return err
	}

	return proxy.Run(ctx, cfg, caller, log)
}
