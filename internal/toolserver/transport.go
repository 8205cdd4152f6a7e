package toolserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/errors"
	"github.com/wagiedev/toolbridge-go/internal/framing"
)

// closeGrace is how long Close lets the server finish after its input ends
// before cancelling it.
const closeGrace = time.Second

// PipeTransport connects a session to a Server running in the same process.
// Requests and responses travel as raw bytes over pipes, so the session
// frames and correlates them exactly as it would for a child process.
type PipeTransport struct {
	log     *slog.Logger
	server  *Server
	options *config.Options

	mu       sync.Mutex
	inR      *io.PipeReader
	inW      *io.PipeWriter
	outR     *io.PipeReader
	outW     *io.PipeWriter
	cancel   context.CancelFunc
	served   chan struct{}
	serveErr error
	started  bool
	closed   bool
}

var _ config.Transport = (*PipeTransport)(nil)

// NewPipeTransport creates a transport for one session against srv.
func NewPipeTransport(srv *Server, options *config.Options) *PipeTransport {
	if options == nil {
		options = &config.Options{}
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &PipeTransport{
		log:     log.With("component", "pipe_transport"),
		server:  srv,
		options: options,
	}
}

// Start begins serving srv on a fresh pair of pipes.
func (t *PipeTransport) Start(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return &errors.ConnectionError{Err: fmt.Errorf("transport already started")}
	}

	t.inR, t.inW = io.Pipe()
	t.outR, t.outW = io.Pipe()
	t.served = make(chan struct{})
	t.started = true

	// The serve context is detached from Start's context: the session owns
	// the lifetime through Close.
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	go func() {
		defer close(t.served)

		err := t.server.Serve(ctx, &mcp.IOTransport{Reader: t.inR, Writer: t.outW})

		cancel()

		_ = t.outW.Close()

		t.mu.Lock()
		t.serveErr = err
		t.mu.Unlock()
	}()

	t.log.Debug("In-process tool server started")

	return nil
}

// ReadFrames implements config.Transport.
func (t *PipeTransport) ReadFrames(ctx context.Context) (<-chan []byte, <-chan error) {
	frames := make(chan []byte)
	errs := make(chan error, 2)

	t.mu.Lock()
	outR, served := t.outR, t.served
	t.mu.Unlock()

	if outR == nil {
		errs <- errors.ErrTransportNotConnected

		close(frames)
		close(errs)

		return frames, errs
	}

	go func() {
		defer close(errs)
		defer close(frames)

		sc := framing.NewScanner(outR, t.options.FramingMode, t.options.EffectiveMaxFrameSize())
		for sc.Scan() {
			select {
			case frames <- sc.Bytes():
			case <-ctx.Done():
				_ = t.Close()
				_ = outR.Close()

				<-served

				errs <- ctx.Err()

				return
			}
		}

		if err := sc.Err(); err != nil {
			_ = t.Close()
			_ = outR.Close()

			<-served

			errs <- err

			return
		}

		<-served

		t.mu.Lock()
		serveErr, closed := t.serveErr, t.closed
		t.mu.Unlock()

		if serveErr != nil && !closed {
			errs <- &errors.ProcessError{ExitCode: 1, Err: serveErr}
		}
	}()

	return frames, errs
}

// SendMessage implements config.Transport.
func (t *PipeTransport) SendMessage(ctx context.Context, data []byte) error {
	t.mu.Lock()
	inW, closed := t.inW, t.closed
	t.mu.Unlock()

	if inW == nil {
		return errors.ErrTransportNotConnected
	}

	if closed {
		return errors.ErrStdinClosed
	}

	buf := make([]byte, len(data), len(data)+1)
	copy(buf, data)

	if len(buf) == 0 || buf[len(buf)-1] != '\n' {
		buf = append(buf, '\n')
	}

	done := make(chan error, 1)

	go func() {
		_, err := inW.Write(buf)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("write to in-process server: %w", err)
		}

		return nil
	case <-ctx.Done():
		_ = inW.Close()

		return errors.ErrStdinClosed
	}
}

// Close ends the server input so the session winds down, and cancels it if
// it is still running after closeGrace. It is safe to call more than once.
func (t *PipeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || !t.started {
		t.closed = true

		return nil
	}

	t.closed = true

	_ = t.inW.Close()

	time.AfterFunc(closeGrace, t.cancel)

	return nil
}

// IsReady implements config.Transport.
func (t *PipeTransport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.started && !t.closed
}

// EndInput closes the server input.
func (t *PipeTransport) EndInput() error {
	t.mu.Lock()
	inW := t.inW
	t.mu.Unlock()

	if inW == nil {
		return nil
	}

	return inW.Close()
}
