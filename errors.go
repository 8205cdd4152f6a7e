package toolbridge

import "github.com/wagiedev/toolbridge-go/internal/errors"

// Re-export error types from internal package

// ServerNotFoundError indicates the tool server binary was not found.
type ServerNotFoundError = errors.ServerNotFoundError

// ConnectionError indicates the tool server could not be started.
type ConnectionError = errors.ConnectionError

// ProcessError indicates the tool server exited before answering.
type ProcessError = errors.ProcessError

// FrameDecodeError indicates a frame from the server was not valid JSON-RPC.
type FrameDecodeError = errors.FrameDecodeError

// RPCError is a JSON-RPC error returned by the tool server.
type RPCError = errors.RPCError

// TimeoutError indicates no answer arrived within the configured timeout.
type TimeoutError = errors.TimeoutError

// BridgeError is the base interface for all bridge errors.
type BridgeError = errors.BridgeError

// Re-export sentinel errors from internal package.
var (
	// ErrTransportNotConnected indicates the transport has not been started.
	ErrTransportNotConnected = errors.ErrTransportNotConnected

	// ErrTimeout indicates no answer arrived in time. TimeoutError unwraps to it.
	ErrTimeout = errors.ErrTimeout

	// ErrFrameTooLarge indicates a server frame exceeded the size limit.
	ErrFrameTooLarge = errors.ErrFrameTooLarge

	// ErrNoResponse indicates the server closed its output without answering.
	ErrNoResponse = errors.ErrNoResponse

	// ErrToolNotFound indicates the tool is not in the catalog.
	ErrToolNotFound = errors.ErrToolNotFound
)
