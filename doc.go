// Package toolbridge calls tools on an MCP tool server over stdio.
//
// Each call runs a short-lived session: the tool server is started as a child
// process, sent an initialize request followed by a single tool call, and
// terminated as soon as the call is answered, fails or times out. Server
// output is split into JSON objects as it arrives, so responses that are
// fragmented, concatenated or interleaved with other messages are still
// correlated with the request that produced them.
//
// # Basic Usage
//
//	ctx := context.Background()
//	result, err := toolbridge.CallTool(ctx, "get-alerts",
//	    map[string]any{"state": "CA"},
//	    toolbridge.WithServerPath("/usr/local/bin/toolserver"),
//	    toolbridge.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(toolbridge.ResultText(result))
//
// Call returns the raw JSON result instead, for callers that forward it
// unchanged.
//
// # In-Process Server
//
// The built-in tools can also be served from the calling process. The
// session still frames and correlates raw bytes, but no child is started:
//
//	srv, err := toolbridge.NewInProcessServer(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//
//	raw, err := toolbridge.Call(ctx, "get-stock-price",
//	    map[string]any{"symbol": "AAPL"},
//	    toolbridge.WithInProcessServer(srv),
//	)
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	raw, err := toolbridge.Call(ctx, "get-logs", nil,
//	    toolbridge.WithLogger(logger),
//	)
//
// # Error Handling
//
// Failures are reported with typed errors:
//
//	raw, err := toolbridge.Call(ctx, tool, args)
//	if err != nil {
//	    if errors.Is(err, toolbridge.ErrTimeout) {
//	        log.Fatal("tool server did not answer in time")
//	    }
//	    if rpcErr, ok := errors.AsType[*toolbridge.RPCError](err); ok {
//	        log.Fatalf("server rejected request %d: %s", rpcErr.ID, rpcErr.Message)
//	    }
//	    if procErr, ok := errors.AsType[*toolbridge.ProcessError](err); ok {
//	        log.Fatalf("server exited with code %d: %s", procErr.ExitCode, procErr.Stderr)
//	    }
//	    log.Fatal(err)
//	}
//
// # Requirements
//
// Unless an in-process server or custom transport is configured, the tool
// server binary must be on PATH or given with WithServerPath.
package toolbridge
