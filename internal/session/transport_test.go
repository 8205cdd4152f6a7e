package session

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/errors"
	"github.com/wagiedev/toolbridge-go/internal/framing"
	"github.com/wagiedev/toolbridge-go/internal/protocol"
)

// fakeTransport is an in-memory tool server. Tests script the server side by
// receiving from sent and writing raw output chunks with write.
type fakeTransport struct {
	pr *io.PipeReader
	pw *io.PipeWriter

	maxFrameSize int
	startErr     error
	notReady     bool
	blockStart   bool
	sendErr      atomic.Pointer[error]

	sent chan *protocol.Message

	mu      sync.Mutex
	exitErr error

	closed           atomic.Bool
	inputEnded       atomic.Bool
	endedBeforeClose atomic.Bool
	closeOnce        sync.Once
	done      chan struct{}
}

var _ config.Transport = (*fakeTransport)(nil)

func newFakeTransport() *fakeTransport {
	pr, pw := io.Pipe()

	return &fakeTransport{
		pr:           pr,
		pw:           pw,
		maxFrameSize: framing.DefaultMaxFrameSize,
		sent:         make(chan *protocol.Message, 16),
		done:         make(chan struct{}),
	}
}

func (f *fakeTransport) Start(ctx context.Context) error {
	if f.blockStart {
		<-ctx.Done()

		return ctx.Err()
	}

	return f.startErr
}

func (f *fakeTransport) ReadFrames(ctx context.Context) (<-chan []byte, <-chan error) {
	frames := make(chan []byte)
	errs := make(chan error, 2)

	go func() {
		defer close(f.done)
		defer close(frames)
		defer close(errs)

		sc := framing.NewScanner(f.pr, framing.ModeLexical, f.maxFrameSize)
		for sc.Scan() {
			select {
			case frames <- sc.Bytes():
			case <-ctx.Done():
				errs <- ctx.Err()

				_ = f.pr.Close()

				return
			}
		}

		if err := sc.Err(); err != nil {
			errs <- err

			_ = f.pr.Close()

			return
		}

		f.mu.Lock()
		exitErr := f.exitErr
		f.mu.Unlock()

		if exitErr != nil {
			errs <- exitErr
		}
	}()

	return frames, errs
}

func (f *fakeTransport) SendMessage(_ context.Context, data []byte) error {
	if f.closed.Load() {
		return errors.ErrStdinClosed
	}

	if err := f.sendErr.Load(); err != nil {
		return *err
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}

	f.sent <- &msg

	return nil
}

func (f *fakeTransport) Close() error {
	f.closed.Store(true)
	f.closeOnce.Do(func() { _ = f.pw.Close() })

	return nil
}

func (f *fakeTransport) IsReady() bool { return !f.notReady && !f.closed.Load() }

func (f *fakeTransport) EndInput() error {
	f.endedBeforeClose.Store(!f.closed.Load())
	f.inputEnded.Store(true)

	return nil
}

// write emits raw server output. Errors after Close are ignored.
func (f *fakeTransport) write(chunks ...string) {
	for _, chunk := range chunks {
		_, _ = f.pw.Write([]byte(chunk))
	}
}

// exit simulates the server exiting with err before answering. An exit after
// Close is an intentional shutdown and reports nothing.
func (f *fakeTransport) exit(err error) {
	f.mu.Lock()
	if !f.closed.Load() {
		f.exitErr = err
	}
	f.mu.Unlock()

	_ = f.pw.Close()
}

// next returns the next message the session sent.
func (f *fakeTransport) next(t *testing.T) *protocol.Message {
	t.Helper()

	select {
	case msg := <-f.sent:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("session did not send a message")

		return nil
	}
}

// requireTerminated asserts the session closed the transport and the reader
// finished.
func (f *fakeTransport) requireTerminated(t *testing.T) {
	t.Helper()

	require.True(t, f.closed.Load(), "transport was not closed")

	select {
	case <-f.done:
	case <-time.After(time.Second):
		t.Fatal("reader goroutine still running")
	}
}
