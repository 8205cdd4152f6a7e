package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler is the signature of a tool implementation.
type Handler = mcp.ToolHandler

// Resolver looks up tool handlers by name. Composing tools depend on this
// rather than on the Registry itself.
type Resolver interface {
	Resolve(name string) (Handler, bool)
}

// Compile-time verification that Registry implements Resolver.
var _ Resolver = (*Registry)(nil)

// Registry is a thread-safe table of tools.
type Registry struct {
	log   *slog.Logger
	mu    sync.RWMutex
	tools map[string]*registered
	order []string
}

type registered struct {
	tool    *mcp.Tool
	handler Handler
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Registry{
		log:   log.With("component", "tools"),
		tools: make(map[string]*registered, 16),
	}
}

// Add registers a tool, replacing any tool with the same name.
func (r *Registry) Add(tool *mcp.Tool, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}

	r.tools[tool.Name] = &registered{tool: tool, handler: handler}
}

// Resolve implements Resolver.
func (r *Registry) Resolve(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, false
	}

	return t.handler, true
}

// Tools returns tool definitions in registration order.
func (r *Registry) Tools() []*mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].tool)
	}

	return out
}

// Call runs a tool by name with the given arguments.
//
// Unknown tools and handler failures are reported in the result with IsError
// set, not as a Go error. An error is returned only when the arguments cannot
// be encoded.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	handler, ok := r.Resolve(name)
	if !ok {
		return ErrorResult("Tool not found: " + name), nil
	}

	return invoke(ctx, handler, name, args)
}

// invoke calls handler with args encoded the way they arrive over the wire.
func invoke(ctx context.Context, handler Handler, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal %s arguments: %w", name, err)
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      name,
			Arguments: raw,
		},
	}

	result, err := handler(ctx, req)
	if err != nil {
		//nolint:nilerr // the failure is reported in the result
		return ErrorResult("Tool execution failed: " + err.Error()), nil
	}

	if result == nil {
		return &mcp.CallToolResult{Content: []mcp.Content{}}, nil
	}

	return result, nil
}

// Mount adds every registered tool to srv. Handler errors are converted to
// error results and every call is logged.
func (r *Registry) Mount(srv *mcp.Server) {
	for _, tool := range r.Tools() {
		handler, _ := r.Resolve(tool.Name)
		srv.AddTool(tool, r.logged(tool.Name, handler))
	}
}

func (r *Registry) logged(name string, handler Handler) Handler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		r.log.Info("Tool called", "tool", name)

		result, err := handler(ctx, req)

		switch {
		case err != nil:
			r.log.Warn("Tool failed", "tool", name, "error", err, "elapsed", time.Since(start))

			return ErrorResult("Tool execution failed: " + err.Error()), nil
		case result != nil && result.IsError:
			r.log.Warn("Tool returned an error result", "tool", name, "text", ResultText(result))
		default:
			r.log.Debug("Tool finished", "tool", name, "elapsed", time.Since(start))
		}

		return result, nil
	}
}

// NewTool creates an mcp.Tool with the given parameters.
func NewTool(name, description string, inputSchema *jsonschema.Schema) *mcp.Tool {
	return &mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
	}
}
