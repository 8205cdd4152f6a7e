// Package config provides configuration types for the tool bridge and its binaries.
package config

import "context"

// Transport defines the interface for talking to a tool server.
// Implement this to provide custom transports for testing, mocking,
// or alternative communication methods.
//
// The default implementation is subprocess.ProcessTransport which spawns the
// tool server as a child process. Custom transports can be injected via
// Options.Transport.
type Transport interface {
	// Start launches the tool server and prepares it for communication.
	Start(ctx context.Context) error

	// ReadFrames returns channels for receiving frames and errors.
	// The frame channel yields complete top-level JSON objects from the server
	// output, in order. The error channel yields read, framing and process
	// errors. Both channels are closed once the output ends and the server
	// has been reaped.
	ReadFrames(ctx context.Context) (<-chan []byte, <-chan error)

	// SendMessage writes one JSON message to the server.
	// A trailing newline is appended if missing.
	SendMessage(ctx context.Context, data []byte) error

	// Close terminates the server. It's safe to call Close multiple times.
	Close() error

	// IsReady returns true if the transport is ready for communication.
	IsReady() bool

	// EndInput signals that no more input will be sent.
	EndInput() error
}
