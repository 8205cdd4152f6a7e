// Package errors defines error types for the tool bridge.
//
// This package provides structured error types that wrap the different ways a
// tool call against a child tool server can fail. All error types support
// error unwrapping and can be checked using errors.Is, errors.As, and errors.AsType.
package errors
