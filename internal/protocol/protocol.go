package protocol

import (
	"encoding/json"
	"fmt"
)

// State is the position of a session in the request/response exchange.
type State int

const (
	// StateAwaitingInit waits for the initialize reply.
	StateAwaitingInit State = iota
	// StateAwaitingResult waits for the tool call reply.
	StateAwaitingResult
	// StateDone is terminal: the outcome has been decided.
	StateDone
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateAwaitingInit:
		return "awaiting_init"
	case StateAwaitingResult:
		return "awaiting_result"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Action tells the session what to do with a routed message.
type Action int

const (
	// ActionIgnore drops the message.
	ActionIgnore Action = iota
	// ActionSendCall sends the tool call request.
	ActionSendCall
	// ActionDeliver delivers the terminal outcome in Decision.Result or Decision.Err.
	ActionDeliver
)

// Decision is the Router's verdict on one message.
type Decision struct {
	Action Action
	Result json.RawMessage
	Err    error
	// Reason explains an ignored message for diagnostics.
	Reason string
}

// Router correlates replies with the two outstanding requests.
//
// A Router is owned by a single goroutine and is not safe for concurrent use.
type Router struct {
	state State
}

// NewRouter returns a Router in StateAwaitingInit.
func NewRouter() *Router {
	return &Router{state: StateAwaitingInit}
}

// State returns the current state.
func (r *Router) State() State {
	return r.state
}

// Initialized reports whether the initialize reply has been seen.
func (r *Router) Initialized() bool {
	return r.state >= StateAwaitingResult
}

// Responded reports whether a terminal outcome has been decided.
func (r *Router) Responded() bool {
	return r.state == StateDone
}

// Route applies msg to the state machine.
func (r *Router) Route(msg *Message) Decision {
	if r.state == StateDone {
		return Decision{Action: ActionIgnore, Reason: "session already responded"}
	}

	if msg.IsRequest() {
		return Decision{Action: ActionIgnore, Reason: "server request or notification " + msg.Method}
	}

	id, ok := msg.IntID()
	if !ok {
		return Decision{Action: ActionIgnore, Reason: "reply without integer id"}
	}

	switch {
	case id == InitializeID && r.state == StateAwaitingInit:
		if rpcErr := msg.RPCError(); rpcErr != nil {
			r.state = StateDone

			return Decision{Action: ActionDeliver, Err: rpcErr}
		}

		r.state = StateAwaitingResult

		return Decision{Action: ActionSendCall}

	case id == CallID && r.state == StateAwaitingResult:
		if msg.HasResult() {
			r.state = StateDone

			return Decision{Action: ActionDeliver, Result: msg.Result}
		}

		if rpcErr := msg.RPCError(); rpcErr != nil {
			r.state = StateDone

			return Decision{Action: ActionDeliver, Err: rpcErr}
		}

		return Decision{Action: ActionIgnore, Reason: "tool call reply without result or error"}

	default:
		return Decision{Action: ActionIgnore, Reason: fmt.Sprintf("unexpected id %d in state %s", id, r.state)}
	}
}

// Finish moves the router to StateDone on behalf of an outside trigger such
// as a timeout. It reports whether this call made the transition; only the
// first trigger wins.
func (r *Router) Finish() bool {
	if r.state == StateDone {
		return false
	}

	r.state = StateDone

	return true
}
