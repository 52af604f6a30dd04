package wampsession

// Transport is the narrow interface the session uses to talk to a
// concrete WebSocket connection. A Transport is owned by the caller
// that constructs the session; the session closes it on shutdown or
// abort but never constructs or destroys it.
type Transport interface {
	// SendText transmits a single text frame. It may fail if the
	// underlying connection is gone.
	SendText(text string) error
	// Close initiates the close handshake with the given WebSocket
	// close code and an optional human-readable reason.
	Close(code int, reason string) error
}

// Callbacks is the interface a Transport drives as frames and
// lifecycle events arrive. A *Session implements Callbacks; the
// transport adapter is expected to invoke these methods from its own
// read loop.
type Callbacks interface {
	OnOpen()
	OnText(text string)
	OnBinary(data []byte)
	OnClosing(code int, reason string)
	OnClosed(code int, reason string)
	OnFailure(err error)
}

// Listener receives session-wide lifecycle notifications. Implement
// this to learn when the realm is joined or left, when the session
// shuts down locally, or when it aborts.
type Listener interface {
	OnRealmJoined(realm string)
	OnRealmLeft(realm string, fromRouter bool)
	OnSessionShutdown()
	OnSessionAborted(reason string, err error)
}

// NopListener implements Listener with no-op methods, useful as an
// embedding base for callers that only care about a subset of events.
type NopListener struct{}

func (NopListener) OnRealmJoined(realm string)                {}
func (NopListener) OnRealmLeft(realm string, fromRouter bool) {}
func (NopListener) OnSessionShutdown()                        {}
func (NopListener) OnSessionAborted(reason string, err error) {}
