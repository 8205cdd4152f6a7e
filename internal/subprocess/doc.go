// Package subprocess provides the child-process transport for tool servers.
//
// This package implements the Transport interface by spawning the tool server
// as a child process and communicating via stdin/stdout. It handles process
// lifecycle management, stream framing, and error handling.
package subprocess
