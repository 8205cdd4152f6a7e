// Package main runs the weather tool server on stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/toolserver"
)

func main() {
	fs := flag.NewFlagSet("toolserver", flag.ExitOnError)
	showVersion := fs.Bool("version", false, "print version and exit")

	cfg, err := config.LoadToolServerConfig(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "toolserver: %v\n", err)
		os.Exit(2)
	}

	if *showVersion {
		fmt.Println(toolserver.Version)

		return
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "toolserver: %v\n", err)
		os.Exit(2)
	}

	// stdout carries the protocol; logs go to stderr.
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := toolserver.Run(ctx, cfg, toolserver.WithLogHandler(handler)); err != nil {
		slog.New(handler).Error("Tool server failed", "error", err)
		os.Exit(1)
	}
}
