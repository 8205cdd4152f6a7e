package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/errors"
	"github.com/wagiedev/toolbridge-go/internal/protocol"
	"github.com/wagiedev/toolbridge-go/internal/subprocess"
)

// Session is a single-use tool call against one tool server.
type Session struct {
	id        string
	log       *slog.Logger
	options   *config.Options
	transport config.Transport
	router    *protocol.Router
	used      atomic.Bool
}

// New creates a session. The transport is options.Transport when set, then
// one built by options.NewTransport, otherwise a child process started from
// options.
func New(options *config.Options) *Session {
	if options == nil {
		options = &config.Options{}
	}

	id := ulid.Make().String()

	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	log = log.With("component", "session", "session_id", id)

	transport := options.Transport

	switch {
	case transport != nil:
	case options.NewTransport != nil:
		transport = options.NewTransport(options)
	default:
		transport = subprocess.NewProcessTransport(log, id, options)
	}

	return &Session{
		id:        id,
		log:       log,
		options:   options,
		transport: transport,
		router:    protocol.NewRouter(),
	}
}

// ID returns the session id used for log correlation.
func (s *Session) ID() string {
	return s.id
}

// State returns the router state. It is meant for diagnostics after Run.
func (s *Session) State() protocol.State {
	return s.router.State()
}

// outcome is the terminal result of a session.
type outcome struct {
	result json.RawMessage
	err    error
}

// Run calls tool with args and returns the tool result.
//
// Run returns exactly one outcome. Replies after the first terminal outcome
// are ignored. Before returning, the server is terminated and its output
// drained. A Session can be run once; later calls return ErrSessionUsed.
func (s *Session) Run(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error) {
	if !s.used.CompareAndSwap(false, true) {
		return nil, errors.ErrSessionUsed
	}

	log := s.log.With("tool", tool)
	shape := s.options.EffectiveShape()
	started := time.Now()

	guard := NewGuard(s.options.EffectiveTimeout())
	defer guard.Cancel()

	log.Debug("Starting session", "shape", shape.Name, "timeout", guard.Duration())

	// Starting the server counts against the same deadline as the exchange.
	startCtx, cancelStart := context.WithTimeout(ctx, guard.Duration())
	err := s.transport.Start(startCtx)
	startTimedOut := stderrors.Is(startCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil

	cancelStart()

	if err != nil {
		_ = s.transport.Close()

		if startTimedOut {
			return nil, &errors.TimeoutError{Duration: guard.Duration()}
		}

		return nil, fmt.Errorf("start tool server: %w", err)
	}

	if !s.transport.IsReady() {
		_ = s.transport.Close()

		return nil, &errors.ConnectionError{Err: errors.ErrTransportNotConnected}
	}

	readCtx, cancelRead := context.WithCancel(ctx)
	defer cancelRead()

	frames, errs := s.transport.ReadFrames(readCtx)

	out := s.loop(ctx, log, shape, guard, frames, errs, tool, args)

	guard.Cancel()

	if err := s.transport.EndInput(); err != nil {
		log.Debug("Failed to end tool server input", "error", err)
	}

	if err := s.transport.Close(); err != nil {
		log.Warn("Failed to terminate tool server", "error", err)
	}

	drained := drain(frames, errs)

	log.Debug("Session finished",
		"elapsed", time.Since(started),
		"state", s.router.State(),
		"discarded_frames", drained,
		"error", out.err,
	)

	return out.result, out.err
}

// loop consumes frames until the first terminal outcome.
func (s *Session) loop(
	ctx context.Context,
	log *slog.Logger,
	shape protocol.Shape,
	guard *Guard,
	frames <-chan []byte,
	errs <-chan error,
	tool string,
	args map[string]any,
) outcome {
	send := func(req *protocol.Request) error {
		data, err := req.Marshal()
		if err != nil {
			return err
		}

		if err := s.transport.SendMessage(ctx, data); err != nil {
			return fmt.Errorf("send %s: %w", req.Method, err)
		}

		return nil
	}

	fail := func(err error) outcome {
		s.router.Finish()

		return outcome{err: err}
	}

	// A failed write usually means the server has gone away; its exit status
	// explains the failure better than the broken pipe.
	sendFailed := func(err error) outcome {
		s.router.Finish()

		return outcome{err: s.abandon(err, frames, errs)}
	}

	if err := send(shape.Initialize(s.options.EffectiveClientInfo())); err != nil {
		return sendFailed(err)
	}

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return fail(s.closedWithoutResponse(errs))
			}

			msg, err := protocol.Decode(frame)
			if err != nil {
				log.Warn("Dropping undecodable frame", "error", err, "bytes", len(frame))

				continue
			}

			decision := s.router.Route(msg)

			switch decision.Action {
			case protocol.ActionIgnore:
				log.Debug("Ignoring message", "reason", decision.Reason)

			case protocol.ActionSendCall:
				log.Debug("Server initialized, sending tool call")

				if note := shape.Initialized(); note != nil {
					if err := send(note); err != nil {
						return sendFailed(err)
					}
				}

				if err := send(shape.Call(tool, args)); err != nil {
					return sendFailed(err)
				}

			case protocol.ActionDeliver:
				if decision.Err != nil {
					log.Info("Tool server returned an error", "error", decision.Err)
				}

				return outcome{result: decision.Result, err: decision.Err}
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			log.Warn("Tool server stream failed", "error", err)

			return fail(err)

		case <-guard.Expired():
			log.Warn("Timed out waiting for tool server", "timeout", guard.Duration(),
				"initialized", s.router.Initialized())

			return fail(&errors.TimeoutError{Duration: guard.Duration()})

		case <-ctx.Done():
			return fail(ctx.Err())
		}
	}
}

// closedWithoutResponse builds the error for output that ended before a
// terminal reply, preferring an error reported by the transport.
func (s *Session) closedWithoutResponse(errs <-chan error) error {
	if errs != nil {
		for err := range errs {
			if err != nil {
				if _, ok := stderrors.AsType[*errors.ProcessError](err); ok {
					return err
				}

				return &errors.ProcessError{ExitCode: -1, Err: err}
			}
		}
	}

	return &errors.ProcessError{ExitCode: 0, Err: errors.ErrNoResponse}
}

// abandon terminates the server after a failed write and waits for the
// transport to finish. It returns the ProcessError the transport reported,
// if any, and err otherwise.
func (s *Session) abandon(err error, frames <-chan []byte, errs <-chan error) error {
	_ = s.transport.Close()

	var procErr error

	for frames != nil || errs != nil {
		select {
		case _, ok := <-frames:
			if !ok {
				frames = nil
			}

		case e, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			if _, isProc := stderrors.AsType[*errors.ProcessError](e); isProc && procErr == nil {
				procErr = e
			}
		}
	}

	if procErr != nil {
		return procErr
	}

	return err
}

// drain discards remaining output until the transport closes its channels.
// It returns the number of frames discarded.
func drain(frames <-chan []byte, errs <-chan error) int {
	count := 0

	for range frames {
		count++
	}

	if errs != nil {
		for range errs {
		}
	}

	return count
}
