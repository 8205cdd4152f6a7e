package protocol

import "fmt"

// ClientInfo identifies the bridge in the initialize request.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// DefaultClientInfo is sent when no client info is configured.
var DefaultClientInfo = ClientInfo{Name: "MCP Agentic Development Platform UI", Version: "1.0.0"}

// Shape describes the request shapes a tool server accepts.
type Shape struct {
	// Name identifies the shape in configuration and logs.
	Name string

	// InitializeMethod is the method of the id 1 request.
	InitializeMethod string

	// CallMethod is the method of the id 2 request.
	CallMethod string

	// ToolField is the params key carrying the tool name ("name" or "tool").
	ToolField string

	// ProtocolVersion is sent in initialize params when non-empty.
	ProtocolVersion string

	// InitializedNotification is sent after the initialize reply and before
	// the tool call when non-empty.
	InitializedNotification string
}

var (
	// ShapeMCP is the Model Context Protocol request shape.
	ShapeMCP = Shape{
		Name:                    "mcp",
		InitializeMethod:        "initialize",
		CallMethod:              "tools/call",
		ToolField:               "name",
		ProtocolVersion:         "2025-06-18",
		InitializedNotification: "notifications/initialized",
	}

	// ShapeLegacy is the older callTool request shape.
	ShapeLegacy = Shape{
		Name:             "legacy",
		InitializeMethod: "initialize",
		CallMethod:       "callTool",
		ToolField:        "tool",
	}
)

// ParseShape returns the named shape.
func ParseShape(name string) (Shape, error) {
	switch name {
	case "", ShapeMCP.Name:
		return ShapeMCP, nil
	case ShapeLegacy.Name:
		return ShapeLegacy, nil
	default:
		return Shape{}, fmt.Errorf("unknown request shape %q", name)
	}
}

// Initialize builds the id 1 request.
func (s Shape) Initialize(info ClientInfo) *Request {
	params := map[string]any{
		"capabilities": map[string]any{},
		"clientInfo":   info,
	}
	if s.ProtocolVersion != "" {
		params["protocolVersion"] = s.ProtocolVersion
	}

	id := InitializeID

	return &Request{
		JSONRPC: Version,
		ID:      &id,
		Method:  s.InitializeMethod,
		Params:  params,
	}
}

// Initialized builds the post-initialize notification, or nil when the shape
// has none.
func (s Shape) Initialized() *Request {
	if s.InitializedNotification == "" {
		return nil
	}

	return &Request{
		JSONRPC: Version,
		Method:  s.InitializedNotification,
	}
}

// Call builds the id 2 tool call request. Nil arguments are sent as {}.
func (s Shape) Call(tool string, args map[string]any) *Request {
	if args == nil {
		args = map[string]any{}
	}

	id := CallID

	return &Request{
		JSONRPC: Version,
		ID:      &id,
		Method:  s.CallMethod,
		Params: map[string]any{
			s.ToolField: tool,
			"arguments": args,
		},
	}
}
