// Package protocol implements the JSON-RPC exchange between the bridge and a
// tool server.
//
// A tool call is exactly two requests with fixed correlation ids: initialize
// (id 1) and the tool call (id 2). The Router drives a three-state machine:
//
//	AwaitingInit --id 1--> AwaitingResult --id 2--> Done
//
// Done is terminal. Replies for ids that are already resolved, unrelated ids,
// notifications and server-to-client requests are ignored.
//
// The request shape is configurable through Shape so that both the MCP
// "tools/call" form and the older "callTool" form can be spoken:
//
//	router := protocol.NewRouter()
//	msg, err := protocol.Decode(frame)
//	switch d := router.Route(msg); d.Action {
//	case protocol.ActionSendCall:
//	    send(protocol.ShapeMCP.Call("get-alerts", args))
//	case protocol.ActionDeliver:
//	    return d.Result, d.Err
//	}
package protocol
