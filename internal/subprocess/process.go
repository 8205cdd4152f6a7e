package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/errors"
	"github.com/wagiedev/toolbridge-go/internal/framing"
	"github.com/wagiedev/toolbridge-go/internal/launcher"
)

const (
	// maxStderrBufferSize is the maximum size for the stderr buffer.
	// Stderr reading continues indefinitely (callback receives all lines),
	// but the buffer stops growing after this limit.
	maxStderrBufferSize = 1024 * 1024 // 1MB

	// waitDelay bounds how long Wait blocks on pipes held open by
	// grandchildren after the server itself has exited.
	waitDelay = 2 * time.Second
)

// ProcessTransport implements Transport by spawning a tool server subprocess.
type ProcessTransport struct {
	log            *slog.Logger
	options        *config.Options
	sessionID      string
	serverPath     string
	args           []string
	env            []string
	cwd            string
	cmd            *exec.Cmd
	stdin          io.WriteCloser
	stdout         io.ReadCloser
	stderr         io.ReadCloser
	stderrCallback func(string)
	mu             sync.Mutex // Protects stdin writes and lifecycle flags
	closing        bool       // Whether Close() has been called (intentional shutdown)
	stdinClosed    bool       // Whether stdin was closed
	exited         chan struct{}
}

// Compile-time verification that ProcessTransport implements the Transport interface.
var _ config.Transport = (*ProcessTransport)(nil)

// NewProcessTransport creates a transport for one tool server process.
//
// The sessionID is exported to the child as TOOLBRIDGE_SESSION_ID so the
// server's logs can be correlated with the bridge's.
//
// Discovery is deferred to Start(), which returns ServerNotFoundError if the
// executable cannot be located.
func NewProcessTransport(
	log *slog.Logger,
	sessionID string,
	options *config.Options,
) *ProcessTransport {
	return &ProcessTransport{
		log:            log.With("component", "process_transport"),
		options:        options,
		sessionID:      sessionID,
		stderrCallback: options.Stderr,
		exited:         make(chan struct{}),
	}
}

// Start starts the tool server subprocess.
//
// Returns ServerNotFoundError if the executable cannot be located,
// or ConnectionError if the process fails to start.
func (t *ProcessTransport) Start(ctx context.Context) error {
	t.log.Debug("Starting tool server subprocess")

	discoverer := launcher.NewDiscoverer(&launcher.Config{
		ServerPath: t.options.ServerPath,
		Logger:     t.log,
	})

	serverPath, err := discoverer.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover tool server: %w", err)
	}

	t.serverPath = serverPath
	t.args = launcher.BuildArgs(t.options)
	t.env = launcher.BuildEnvironment(t.options, t.sessionID)

	t.cwd = t.options.Cwd
	if t.cwd == "" {
		t.cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}

	t.log.Debug("Built tool server command", "path", t.serverPath, "args", t.args, "cwd", t.cwd)

	// The process lifetime is owned by Close, not by ctx: a cancelled
	// caller still goes through Close so the process is reaped exactly once.
	//nolint:gosec // G204: the server path is operator configuration
	cmd := exec.Command(t.serverPath, t.args...)
	cmd.Dir = t.cwd
	cmd.Env = t.env
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &errors.ConnectionError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	t.stdin = stdin

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &errors.ConnectionError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	t.stdout = stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &errors.ConnectionError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	t.stderr = stderr

	if err := cmd.Start(); err != nil {
		t.log.Error("Failed to start tool server", "error", err)

		return &errors.ConnectionError{Err: fmt.Errorf("start process: %w", err)}
	}

	t.mu.Lock()
	t.cmd = cmd
	t.mu.Unlock()

	t.log.Info("Tool server started", "pid", cmd.Process.Pid)

	return nil
}

// ReadFrames reads JSON frames from the server's stdout.
//
// A goroutine feeds stdout through a framing.Scanner and sends each complete
// frame to the frames channel. Diagnostic text between frames is dropped.
//
// The goroutine exits when stdout reaches EOF, the context is cancelled, or
// the pending frame exceeds the size limit. Before closing both channels it
// waits for the process to exit, so a closed frames channel means the
// process has been reaped. An unexpected exit is reported as a ProcessError.
func (t *ProcessTransport) ReadFrames(
	ctx context.Context,
) (<-chan []byte, <-chan error) {
	frames := make(chan []byte)
	errs := make(chan error, 2)

	var stderrWg sync.WaitGroup

	var stderrBuffer strings.Builder

	var stderrMu sync.Mutex

	// Stderr must be fully read before Wait().
	// See: https://pkg.go.dev/os/exec#Cmd.StderrPipe
	stderrWg.Go(func() {
		scanner := bufio.NewScanner(t.stderr)
		for scanner.Scan() {
			line := scanner.Text()

			stderrMu.Lock()

			if stderrBuffer.Len() < maxStderrBufferSize {
				if stderrBuffer.Len() > 0 {
					stderrBuffer.WriteString("\n")
				}

				stderrBuffer.WriteString(line)
			}

			stderrMu.Unlock()

			t.log.Debug("Tool server stderr", "line", line)

			if t.stderrCallback != nil {
				t.stderrCallback(line)
			}
		}

		if err := scanner.Err(); err != nil {
			t.log.Debug("Stderr scanner error", "error", err)
		}
	})

	go func() {
		defer close(t.exited)
		defer close(frames)
		defer close(errs)
		defer t.log.Debug("ReadFrames goroutine stopped")

		sc := framing.NewScanner(t.stdout, t.options.FramingMode, t.options.EffectiveMaxFrameSize())

		frameCount := 0

		for sc.Scan() {
			frameCount++

			select {
			case frames <- sc.Bytes():
			case <-ctx.Done():
				t.log.Debug("Context cancelled during frame send", "error", ctx.Err())

				// Unblock the reader and the process before waiting on it.
				_ = t.Close()

				t.drain(&stderrWg)

				errs <- ctx.Err()

				return
			}
		}

		if err := sc.Err(); err != nil {
			if t.isClosing() {
				t.log.Debug("Tool server output closed during shutdown", "error", err)
			} else {
				t.log.Warn("Tool server output error", "error", err, "frames", frameCount)

				errs <- err

				_ = t.Close()
			}
		}

		if partial := sc.Partial(); len(partial) > 0 {
			t.log.Debug("Discarding unfinished frame at end of output", "bytes", len(partial))
		}

		t.log.Debug("Tool server output closed", "frames", frameCount, "chunks", sc.Chunks())

		stderrWg.Wait()

		if err := t.cmd.Wait(); err != nil {
			exitCode := -1
			if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
				exitCode = exitErr.ExitCode()
			}

			// A server that exited with its own status before the kill is
			// still a process failure.
			if t.isClosing() && exitCode < 0 {
				t.log.Debug("Tool server terminated during shutdown")

				return
			}

			stderrMu.Lock()
			stderrOutput := strings.TrimSpace(stderrBuffer.String())
			stderrMu.Unlock()

			t.log.Error("Tool server exited with error", "exit_code", exitCode, "stderr", stderrOutput)

			errs <- &errors.ProcessError{
				ExitCode: exitCode,
				Stderr:   stderrOutput,
				Err:      err,
			}

			return
		}

		t.log.Debug("Tool server exited")
	}()

	return frames, errs
}

func (t *ProcessTransport) isClosing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closing
}

// drain finishes reading stderr and reaps the process after a kill.
func (t *ProcessTransport) drain(stderrWg *sync.WaitGroup) {
	_, _ = io.Copy(io.Discard, t.stdout)
	stderrWg.Wait()
	_ = t.cmd.Wait()
}

// SendMessage sends a JSON message to the server's stdin.
//
// This method is safe for concurrent use and respects context cancellation
// even during blocking writes. If the context is cancelled during a blocked
// write, stdin is closed to unblock it and later calls return ErrStdinClosed.
func (t *ProcessTransport) SendMessage(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stdin == nil {
		return errors.ErrTransportNotConnected
	}

	if t.stdinClosed {
		return errors.ErrStdinClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.log.Debug("Sending message to tool server", "data_len", len(data))

	// Copy so the caller's backing array is never mutated.
	if len(data) == 0 || data[len(data)-1] != '\n' {
		newData := make([]byte, len(data)+1)
		copy(newData, data)
		newData[len(data)] = '\n'
		data = newData
	}

	done := make(chan error, 1)

	go func() {
		_, err := t.stdin.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("write to stdin: %w", err)
		}

		return nil

	case <-ctx.Done():
		t.log.Debug("Context cancelled during write, closing stdin")

		_ = t.stdin.Close()
		t.stdinClosed = true

		select {
		case <-done:
		case <-time.After(1 * time.Second):
			t.log.Warn("Write goroutine did not exit after stdin close, potential leak")
		}

		return ctx.Err()
	}
}

// IsReady checks if the transport is ready for communication.
func (t *ProcessTransport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cmd != nil && t.cmd.Process != nil && t.stdin != nil && !t.stdinClosed
}

// EndInput closes stdin to signal that no more requests will be sent.
func (t *ProcessTransport) EndInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stdin != nil && !t.stdinClosed {
		t.log.Debug("Closing stdin pipe")

		t.stdinClosed = true

		return t.stdin.Close()
	}

	return nil
}

// Close terminates the tool server.
//
// This forcefully kills the server's process group using SIGKILL. Output
// pipes still held open after waitDelay are closed so the reader finishes. It's safe to call Close multiple times or on an already-terminated
// process.
func (t *ProcessTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closing {
		return nil
	}

	t.closing = true
	t.stdinClosed = true

	if t.cmd == nil || t.cmd.Process == nil {
		return nil
	}

	t.log.Debug("Killing tool server", "pid", t.cmd.Process.Pid)

	if err := killProcessGroup(t.cmd); err != nil {
		if err := t.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("kill tool server (pid %d): %w", t.cmd.Process.Pid, err)
		}
	}

	_ = t.stdin.Close()

	// Processes that left the group may still hold the output pipes.
	time.AfterFunc(waitDelay, t.closeOutput)

	return nil
}

// closeOutput closes the read ends of stdout and stderr to unblock readers.
func (t *ProcessTransport) closeOutput() {
	_ = t.stdout.Close()
	_ = t.stderr.Close()
}

// Exited returns a channel closed once the read loop has reaped the process.
func (t *ProcessTransport) Exited() <-chan struct{} {
	return t.exited
}

// Terminated reports whether the process has been started and reaped.
func (t *ProcessTransport) Terminated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cmd != nil && t.cmd.ProcessState != nil
}

// PID returns the process id, or 0 before Start.
func (t *ProcessTransport) PID() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cmd == nil || t.cmd.Process == nil {
		return 0
	}

	return t.cmd.Process.Pid
}
