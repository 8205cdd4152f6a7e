package framing

import (
	"errors"
	"io"
)

// readChunkSize is the size of each read from the underlying stream.
const readChunkSize = 32 * 1024

// Scanner reads frames from an io.Reader, in the manner of bufio.Scanner.
//
// Scan reports false once the reader is exhausted or fails, or when a frame
// exceeds the size limit. After Scan returns false, Err reports the first
// non-EOF error.
type Scanner struct {
	r       io.Reader
	ext     *Extractor
	chunk   []byte
	pending [][]byte
	frame   []byte
	err     error
	done    bool
	chunks  int
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader, mode Mode, maxSize int) *Scanner {
	return &Scanner{
		r:     r,
		ext:   NewExtractor(mode, maxSize),
		chunk: make([]byte, readChunkSize),
	}
}

// Scan advances to the next frame, reading from the stream as needed.
func (s *Scanner) Scan() bool {
	for len(s.pending) == 0 {
		if s.done {
			s.frame = nil

			return false
		}

		n, err := s.r.Read(s.chunk)
		if n > 0 {
			s.chunks++

			frames, ferr := s.ext.Feed(s.chunk[:n])
			s.pending = append(s.pending, frames...)

			if ferr != nil {
				s.setErr(ferr)
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.setErr(err)
			}

			s.done = true
		}
	}

	s.frame = s.pending[0]
	s.pending = s.pending[1:]

	return true
}

// Bytes returns the most recent frame produced by Scan.
// The slice is owned by the caller.
func (s *Scanner) Bytes() []byte {
	return s.frame
}

// Err returns the first non-EOF error encountered by the Scanner.
func (s *Scanner) Err() error {
	return s.err
}

// Partial returns the unfinished fragment left when the stream ended, if any.
func (s *Scanner) Partial() []byte {
	return s.ext.Remainder()
}

// Chunks returns the number of non-empty reads performed so far.
func (s *Scanner) Chunks() int {
	return s.chunks
}

func (s *Scanner) setErr(err error) {
	if s.err == nil {
		s.err = err
	}

	s.done = true
}
