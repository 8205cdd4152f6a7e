package framing

import (
	"fmt"

	"github.com/wagiedev/toolbridge-go/internal/errors"
)

// DefaultMaxFrameSize is the default limit for a single pending frame.
const DefaultMaxFrameSize = 10 * 1024 * 1024 // 10MB

// Mode selects how the extractor treats braces inside JSON strings.
type Mode int

const (
	// ModeLexical ignores braces inside JSON string literals.
	ModeLexical Mode = iota
	// ModeBraceCount counts every brace regardless of quoting.
	ModeBraceCount
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeLexical:
		return "lexical"
	case ModeBraceCount:
		return "brace-count"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "lexical":
		return ModeLexical, nil
	case "brace-count", "brace":
		return ModeBraceCount, nil
	default:
		return ModeLexical, fmt.Errorf("unknown framing mode %q", s)
	}
}

// Extractor incrementally splits a byte stream into top-level JSON objects.
//
// The zero value is not usable; create one with NewExtractor. An Extractor is
// not safe for concurrent use.
type Extractor struct {
	mode    Mode
	maxSize int

	// buf holds the unfinished frame, starting at its opening brace.
	// It is empty whenever depth is zero.
	buf      []byte
	depth    int
	inString bool
	escaped  bool
}

// NewExtractor creates an extractor. A maxSize of zero or less disables the
// frame size limit.
func NewExtractor(mode Mode, maxSize int) *Extractor {
	return &Extractor{
		mode:    mode,
		maxSize: maxSize,
	}
}

// Feed scans chunk and returns every frame completed by it, in order.
//
// Bytes of an unfinished frame are retained for the next call. Returned
// frames never alias the extractor's internal buffer or chunk.
//
// Feed returns ErrFrameTooLarge once the pending frame exceeds the size limit;
// the extractor is reset and frames completed earlier in the same chunk are
// still returned.
func (e *Extractor) Feed(chunk []byte) ([][]byte, error) {
	var frames [][]byte

	// start is the offset in chunk where the pending frame (re)starts, or -1
	// when the pending bytes already live in e.buf or there is no frame.
	start := -1
	if e.depth > 0 {
		start = 0
	}

	for i, c := range chunk {
		if e.depth > 0 && e.mode == ModeLexical && e.inString {
			switch {
			case e.escaped:
				e.escaped = false
			case c == '\\':
				e.escaped = true
			case c == '"':
				e.inString = false
			}

			continue
		}

		switch c {
		case '"':
			if e.depth > 0 && e.mode == ModeLexical {
				e.inString = true
			}
		case '{':
			if e.depth == 0 {
				start = i
			}

			e.depth++
		case '}':
			// A stray closing brace outside any object is noise.
			if e.depth == 0 {
				continue
			}

			e.depth--
			if e.depth == 0 {
				frame := make([]byte, 0, len(e.buf)+i+1-start)
				frame = append(frame, e.buf...)
				frame = append(frame, chunk[start:i+1]...)
				frames = append(frames, frame)

				e.buf = e.buf[:0]
				start = -1
			}
		}
	}

	if e.depth > 0 {
		e.buf = append(e.buf, chunk[start:]...)

		if e.maxSize > 0 && len(e.buf) > e.maxSize {
			size := len(e.buf)
			e.Reset()

			return frames, fmt.Errorf("%w: pending %d bytes, limit %d", errors.ErrFrameTooLarge, size, e.maxSize)
		}
	}

	return frames, nil
}

// Remainder returns a copy of the unfinished trailing fragment, or nil.
func (e *Extractor) Remainder() []byte {
	if e.depth == 0 {
		return nil
	}

	out := make([]byte, len(e.buf))
	copy(out, e.buf)

	return out
}

// Pending reports whether an unfinished frame is buffered.
func (e *Extractor) Pending() bool {
	return e.depth > 0
}

// Reset discards any unfinished frame.
func (e *Extractor) Reset() {
	e.buf = e.buf[:0]
	e.depth = 0
	e.inString = false
	e.escaped = false
}

// Extract splits buffer into complete frames and the unfinished remainder.
//
// It is the one-shot form of Extractor.Feed: text outside any object is
// dropped, and the remainder is empty unless buffer ends inside an object.
func Extract(buffer []byte, mode Mode) (frames [][]byte, remainder []byte) {
	e := NewExtractor(mode, 0)

	// Without a size limit Feed cannot fail.
	frames, _ = e.Feed(buffer)

	return frames, e.Remainder()
}
