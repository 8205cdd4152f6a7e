package protocol

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/wagiedev/toolbridge-go/internal/errors"
)

// Version is the JSON-RPC version string sent on every request.
const Version = "2.0"

// Correlation ids used by every session.
const (
	InitializeID = 1
	CallID       = 2
)

// Request is a JSON-RPC request or notification sent to the tool server.
//
// Wire format:
//
//	{
//	  "jsonrpc": "2.0",
//	  "id": 2,
//	  "method": "tools/call",
//	  "params": {"name": "get-alerts", "arguments": {"state": "CA"}}
//	}
//
// Notifications omit the id.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      *int   `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Marshal encodes the request as a single line of JSON.
func (r *Request) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", r.Method, err)
	}

	return data, nil
}

// Message is any JSON-RPC message received from the tool server.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Decode parses one frame as a JSON-RPC message.
//
// Returns a *errors.FrameDecodeError when the frame is not a JSON object.
func Decode(frame []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, &errors.FrameDecodeError{RawData: string(frame), Err: err}
	}

	return &msg, nil
}

// IntID returns the message id when it is an integral JSON number.
// String ids, fractional ids and missing ids report false.
func (m *Message) IntID() (int, bool) {
	if len(m.ID) == 0 {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(m.ID, &f); err != nil {
		return 0, false
	}

	if f != math.Trunc(f) {
		return 0, false
	}

	return int(f), true
}

// HasResult reports whether the message carries a non-null result.
func (m *Message) HasResult() bool {
	return len(m.Result) > 0 && string(m.Result) != "null"
}

// IsRequest reports whether the message is a request or notification from
// the server rather than a reply.
func (m *Message) IsRequest() bool {
	return m.Method != ""
}

// RPCError converts the message's error object into a typed error.
// Returns nil when the message carries no error.
func (m *Message) RPCError() *errors.RPCError {
	if m.Error == nil {
		return nil
	}

	id, _ := m.IntID()

	rpcErr := &errors.RPCError{
		ID:      id,
		Code:    m.Error.Code,
		Message: m.Error.Message,
	}
	if len(m.Error.Data) > 0 {
		rpcErr.Data = string(m.Error.Data)
	}

	return rpcErr
}
