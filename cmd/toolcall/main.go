// Package main calls one tool on the tool server and prints the result.
//
// Usage:
//
//	toolcall [flags] <tool> [json-args]
//	toolcall -list
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/wagiedev/toolbridge-go"
	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/framing"
	"github.com/wagiedev/toolbridge-go/internal/protocol"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailed    = 1
	exitUsage     = 2
	exitToolError = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("toolcall", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		timeout   = fs.Duration("timeout", toolbridge.DefaultTimeout, "call timeout")
		server    = fs.String("server", "", "tool server executable (default: discovered)")
		shape     = fs.String("shape", "mcp", "request shape: mcp or legacy")
		framingFl = fs.String("framing", "lexical", "framing mode: lexical or brace-count")
		list      = fs.Bool("list", false, "list available tools and exit")
		raw       = fs.Bool("raw", false, "print the raw JSON result")
		inProcess = fs.Bool("inprocess", false, "serve the built-in tools in-process")
		logLevel  = fs.String("log-level", "warn", "log level")
	)

	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: toolcall [flags] <tool> [json-args]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *list {
		printTools(stdout)

		return exitOK
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()

		return exitUsage
	}

	level, err := config.ParseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "toolcall: %v\n", err)

		return exitUsage
	}

	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	tool := fs.Arg(0)

	toolArgs := map[string]any{}
	if fs.NArg() == 2 {
		if err := json.Unmarshal([]byte(fs.Arg(1)), &toolArgs); err != nil {
			fmt.Fprintf(stderr, "toolcall: arguments must be a JSON object: %v\n", err)

			return exitUsage
		}
	}

	requestShape, err := protocol.ParseShape(*shape)
	if err != nil {
		fmt.Fprintf(stderr, "toolcall: %v\n", err)

		return exitUsage
	}

	mode, err := framing.ParseMode(*framingFl)
	if err != nil {
		fmt.Fprintf(stderr, "toolcall: %v\n", err)

		return exitUsage
	}

	opts := []toolbridge.Option{
		toolbridge.WithLogger(log),
		toolbridge.WithTimeout(*timeout),
		toolbridge.WithShape(requestShape),
		toolbridge.WithFramingMode(mode),
		toolbridge.WithStderr(func(line string) { log.Debug(line, "component", "toolserver_stderr") }),
	}

	if *server != "" {
		opts = append(opts, toolbridge.WithServerPath(*server))
	}

	if *inProcess {
		srv, err := toolbridge.NewInProcessServer(ctx, log)
		if err != nil {
			fmt.Fprintf(stderr, "toolcall: %v\n", err)

			return exitFailed
		}

		defer func() { _ = srv.Close() }()

		opts = append(opts, toolbridge.WithInProcessServer(srv))
	}

	return call(ctx, tool, toolArgs, *raw, *timeout, opts, stdout, stderr)
}

func call(
	ctx context.Context,
	tool string,
	args map[string]any,
	raw bool,
	timeout time.Duration,
	opts []toolbridge.Option,
	stdout, stderr io.Writer,
) int {
	result, err := toolbridge.Call(ctx, tool, args, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "toolcall: %s\n", describe(err, timeout))

		return exitFailed
	}

	if raw {
		fmt.Fprintln(stdout, string(result))

		return exitOK
	}

	decoded, err := toolbridge.DecodeResult(result)
	if err != nil {
		fmt.Fprintln(stdout, string(result))

		return exitOK
	}

	fmt.Fprintln(stdout, toolbridge.ResultText(decoded))

	if decoded.IsError {
		return exitToolError
	}

	return exitOK
}

// describe turns a call error into a one-line message.
func describe(err error, timeout time.Duration) string {
	if rpcErr, ok := errors.AsType[*toolbridge.RPCError](err); ok {
		return fmt.Sprintf("server error %d: %s", rpcErr.Code, rpcErr.Message)
	}

	if errors.Is(err, toolbridge.ErrTimeout) {
		return fmt.Sprintf("no response within %s", timeout)
	}

	if notFound, ok := errors.AsType[*toolbridge.ServerNotFoundError](err); ok {
		return fmt.Sprintf("tool server not found (searched %s); use -server or -inprocess",
			strings.Join(notFound.SearchedPaths, ", "))
	}

	if procErr, ok := errors.AsType[*toolbridge.ProcessError](err); ok && procErr.Stderr != "" {
		return fmt.Sprintf("%v\n%s", err, strings.TrimSpace(procErr.Stderr))
	}

	return err.Error()
}

func printTools(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	var current toolbridge.Category

	for i, tool := range toolbridge.Tools() {
		if tool.Category != current {
			if i > 0 {
				fmt.Fprintln(tw)
			}

			fmt.Fprintf(tw, "%s:\n", tool.Category)

			current = tool.Category
		}

		params := make([]string, 0, len(tool.Parameters))
		for _, p := range tool.Parameters {
			name := p.Name
			if !p.Required {
				name += "?"
			}

			params = append(params, name)
		}

		fmt.Fprintf(tw, "  %s\t%s\t%s\n", tool.Name, strings.Join(params, " "), tool.Description)
	}

	_ = tw.Flush()
}
