// Package logbuf keeps the most recent log records in memory so the tool
// server can report them through the get-logs tool.
package logbuf

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultSize is the number of records kept when no size is configured.
const DefaultSize = 200

// Record is a captured log record.
type Record struct {
	Time    time.Time
	Level   slog.Level
	Message string
	// Attrs holds the record attributes rendered as key=value pairs.
	Attrs string
}

// String renders the record on one line.
func (r Record) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s [%s] %s", r.Time.Format(time.RFC3339), r.Level, r.Message)

	if r.Attrs != "" {
		b.WriteByte(' ')
		b.WriteString(r.Attrs)
	}

	return b.String()
}

// Buffer is a fixed-size ring of records, safe for concurrent use.
type Buffer struct {
	mu      sync.Mutex
	records []Record
	next    int
	full    bool
}

// NewBuffer returns a ring holding up to size records.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultSize
	}

	return &Buffer{records: make([]Record, size)}
}

// Add appends r, evicting the oldest record when full.
func (b *Buffer) Add(r Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records[b.next] = r
	b.next = (b.next + 1) % len(b.records)

	if b.next == 0 {
		b.full = true
	}
}

// Records returns the captured records, oldest first.
func (b *Buffer) Records() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.full {
		return slices.Clone(b.records[:b.next])
	}

	out := make([]Record, 0, len(b.records))
	out = append(out, b.records[b.next:]...)
	out = append(out, b.records[:b.next]...)

	return out
}

// AtLeast returns records whose level is at least min, oldest first.
func (b *Buffer) AtLeast(minLevel slog.Level) []Record {
	return slices.DeleteFunc(b.Records(), func(r Record) bool {
		return r.Level < minLevel
	})
}

// Len returns the number of records held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.full {
		return len(b.records)
	}

	return b.next
}

// Handler is a slog.Handler that copies every handled record into a Buffer
// before passing it to the wrapped handler.
type Handler struct {
	next   slog.Handler
	buf    *Buffer
	prefix string
	attrs  []string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler wraps next so its records are also captured in buf.
func NewHandler(next slog.Handler, buf *Buffer) *Handler {
	return &Handler{next: next, buf: buf}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	parts := slices.Clone(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		parts = appendAttr(parts, h.prefix, a)

		return true
	})

	h.buf.Add(Record{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   strings.Join(parts, " "),
	})

	return h.next.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	parts := slices.Clone(h.attrs)
	for _, a := range attrs {
		parts = appendAttr(parts, h.prefix, a)
	}

	return &Handler{next: h.next.WithAttrs(attrs), buf: h.buf, prefix: h.prefix, attrs: parts}
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return &Handler{next: h.next.WithGroup(name), buf: h.buf, prefix: h.prefix + name + ".", attrs: h.attrs}
}

func appendAttr(parts []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return parts
	}

	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group += a.Key + "."
		}

		for _, ga := range a.Value.Group() {
			parts = appendAttr(parts, group, ga)
		}

		return parts
	}

	return append(parts, fmt.Sprintf("%s%s=%v", prefix, a.Key, a.Value))
}
