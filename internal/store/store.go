// Package store persists agent preferences for the remember/recall tools.
//
// Backends are selected by URL: memory (the default), Redis and SQLite.
package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the key has no stored value.
var ErrNotFound = stderrors.New("preference not set")

// Store is a string key/value store. Implementations are safe for
// concurrent use.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Close releases backend resources.
	Close() error
}

// Open returns the store described by rawURL.
//
// Supported forms:
//   - "" or "memory://": process-local map
//   - "redis://", "rediss://", "redis-sentinel://", "rediss-sentinel://": Redis
//   - "sqlite://path/to/file.db" or "file:path/to/file.db": SQLite
func Open(ctx context.Context, rawURL string) (Store, error) {
	switch {
	case rawURL == "" || rawURL == "memory://" || rawURL == "memory":
		return NewMemory(), nil

	case strings.HasPrefix(rawURL, "redis://"),
		strings.HasPrefix(rawURL, "rediss://"),
		strings.HasPrefix(rawURL, "redis-sentinel://"),
		strings.HasPrefix(rawURL, "rediss-sentinel://"):
		return NewRedis(ctx, rawURL)

	case strings.HasPrefix(rawURL, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(rawURL, "sqlite://"))

	case strings.HasPrefix(rawURL, "file:"):
		return OpenSQLite(ctx, strings.TrimPrefix(rawURL, "file:"))

	default:
		return nil, fmt.Errorf("store: unsupported URL %q", rawURL)
	}
}
