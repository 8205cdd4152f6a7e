// Package session runs one tool call against one tool server process.
//
// A Session starts the server, sends initialize, sends the tool call once
// the initialize reply arrives, and returns the first terminal outcome: the
// tool result, a JSON-RPC error, a timeout, or a transport failure. The
// server is terminated and reaped on every path before Run returns.
package session
