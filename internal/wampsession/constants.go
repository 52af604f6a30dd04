package wampsession

import "errors"

// WebSocket close codes used when the session closes the transport.
const (
	CloseNormalClosure = 1000
	CloseProtocolError = 1002
)

// WAMP-layer close/abort reason URIs.
const (
	ReasonSystemShutdown    = "wamp.close.system_shutdown"
	ReasonCloseRealm        = "wamp.close.close_realm"
	ReasonGoodbyeAndOut     = "wamp.close.goodbye_and_out"
	ReasonProtocolViolation = "wamp.error.protocol_violation"
	// ReasonAbandoned is sent when the application calls Leave or
	// Shutdown while still waiting for WELCOME; WAMP names no reason
	// URI for abandoning a handshake in progress.
	ReasonAbandoned = "wamp.error.abandoned"
)

// ErrSessionAborted is returned by operations attempted while the
// session is not JOINED, whether it never joined or has since left.
var ErrSessionAborted = errors.New("wampsession: session is not joined")

// ErrAlreadyJoined is returned by Join when the session is not in INITIAL.
var ErrAlreadyJoined = errors.New("wampsession: already joined or joining")

func helloDetails() map[string]any {
	return map[string]any{
		"roles": map[string]any{
			"publisher":  map[string]any{},
			"subscriber": map[string]any{},
			"caller":     map[string]any{},
			"callee":     map[string]any{},
		},
	}
}
