package errors

import (
	"errors"
	"fmt"
	"time"
)

// BridgeError is the base interface for all bridge errors.
type BridgeError interface {
	error
	IsBridgeError() bool
}

// Compile-time verification that all error types implement BridgeError.
var (
	_ BridgeError = (*ServerNotFoundError)(nil)
	_ BridgeError = (*ConnectionError)(nil)
	_ BridgeError = (*ProcessError)(nil)
	_ BridgeError = (*FrameDecodeError)(nil)
	_ BridgeError = (*RPCError)(nil)
	_ BridgeError = (*TimeoutError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrTransportNotConnected indicates the transport has not been started.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrStdinClosed indicates stdin was closed due to context cancellation.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrTimeout indicates no qualifying response arrived within the configured window.
	ErrTimeout = errors.New("no response within the configured duration")

	// ErrFrameTooLarge indicates a pending frame grew past the configured limit.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")

	// ErrNoResponse indicates the server closed its output without answering.
	ErrNoResponse = errors.New("server exited without a response")

	// ErrSessionUsed indicates Run was called twice on the same session.
	ErrSessionUsed = errors.New("session already run: sessions are single-use")

	// ErrToolNotFound indicates the tool name is not registered.
	ErrToolNotFound = errors.New("tool not found")
)

// ServerNotFoundError indicates the tool server executable was not found.
type ServerNotFoundError struct {
	SearchedPaths []string
}

func (e *ServerNotFoundError) Error() string {
	return fmt.Sprintf("tool server not found in: %v", e.SearchedPaths)
}

// IsBridgeError implements BridgeError.
func (e *ServerNotFoundError) IsBridgeError() bool { return true }

// ConnectionError indicates the tool server process could not be started.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to start tool server: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ConnectionError) IsBridgeError() bool { return true }

// ProcessError indicates the tool server exited before producing a response.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool server failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("tool server failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ProcessError) IsBridgeError() bool { return true }

// FrameDecodeError indicates one extracted frame was not valid JSON-RPC.
// It preserves the raw frame that failed to parse.
type FrameDecodeError struct {
	RawData string
	Err     error
}

func (e *FrameDecodeError) Error() string {
	return fmt.Sprintf("failed to decode frame from tool server: %v", e.Err)
}

func (e *FrameDecodeError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *FrameDecodeError) IsBridgeError() bool { return true }

// RPCError is a JSON-RPC error object returned by the tool server.
type RPCError struct {
	ID      int
	Code    int
	Message string
	Data    string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("tool server error %d on request %d: %s", e.Code, e.ID, e.Message)
}

// IsBridgeError implements BridgeError.
func (e *RPCError) IsBridgeError() bool { return true }

// TimeoutError indicates the session timed out after Duration.
type TimeoutError struct {
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v after %s", ErrTimeout, e.Duration)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// IsBridgeError implements BridgeError.
func (e *TimeoutError) IsBridgeError() bool { return true }
