package toolbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/toolbridge-go/internal/session"
)

// Session is a single-use exchange with one tool server.
type Session = session.Session

// NewSession creates a session from opts. Run it once with Session.Run.
func NewSession(opts ...Option) *Session {
	return session.New(applyOptions(opts))
}

// Call invokes tool with args and returns the raw JSON result.
//
// The tool server is started for this call only and terminated before Call
// returns. RPC errors, timeouts and server exits are returned as errors;
// a tool that ran but failed is still a result, with isError set.
func Call(ctx context.Context, tool string, args map[string]any, opts ...Option) (json.RawMessage, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	s := session.New(options)

	log.Debug("Calling tool", "component", "toolbridge", "tool", tool, "session_id", s.ID())

	return s.Run(ctx, tool, args)
}

// CallTool invokes tool like Call and decodes the result.
func CallTool(ctx context.Context, tool string, args map[string]any, opts ...Option) (*mcp.CallToolResult, error) {
	raw, err := Call(ctx, tool, args, opts...)
	if err != nil {
		return nil, err
	}

	return DecodeResult(raw)
}

// DecodeResult decodes a raw tools/call result.
func DecodeResult(raw json.RawMessage) (*mcp.CallToolResult, error) {
	var result mcp.CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode tool result: %w", err)
	}

	return &result, nil
}
