package wampsession

import (
	"fmt"

	"github.com/nugget/gowamp/internal/wampmsg"
)

// OnOpen implements Callbacks. The session does nothing here; the
// application calls Join once it is ready to start the handshake.
func (s *Session) OnOpen() {}

// OnText implements Callbacks: it decodes an inbound text frame and
// feeds the resulting message into the serialized evaluator.
func (s *Session) OnText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logTrace("recv", "text", text)

	msg, err := wampmsg.Decode(text)
	if err != nil {
		s.abortLocked(ReasonProtocolViolation, map[string]any{"message": fmt.Sprintf("malformed message: %v", err)}, err, true, CloseProtocolError)
		return
	}
	s.dispatchLocked(msg)
}

// OnBinary implements Callbacks. The wamp.2.json subprotocol is
// text-only, so any binary frame is a protocol violation.
func (s *Session) OnBinary(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortLocked(ReasonProtocolViolation, map[string]any{"message": "received binary frame on wamp.2.json transport"}, nil, true, CloseProtocolError)
}

// OnClosing implements Callbacks. It is purely informational; the
// state transition happens in OnClosed.
func (s *Session) OnClosing(code int, reason string) {
	s.logTrace("transport closing", "code", code, "reason", reason)
}

// OnClosed implements Callbacks. An unexpected close (the session did
// not itself drive the session to ABORTED or SHUT_DOWN first) is a
// transport failure.
func (s *Session) OnClosed(code int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAborted || s.state == StateShutDown {
		return
	}
	err := fmt.Errorf("transport closed: code=%d reason=%s", code, reason)
	s.abortLocked(ReasonProtocolViolation, map[string]any{"message": err.Error()}, err, false, CloseNormalClosure)
}

// OnFailure implements Callbacks for a transport-level error (read
// error, dial failure after the session started, etc).
func (s *Session) OnFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAborted || s.state == StateShutDown {
		return
	}
	s.abortLocked(ReasonProtocolViolation, map[string]any{"message": "transport failure: " + err.Error()}, err, false, CloseNormalClosure)
}

// dispatchLocked routes an inbound message according to the session's
// current state, following the transition table.
func (s *Session) dispatchLocked(msg wampmsg.Message) {
	switch s.state {
	case StateInitial:
		if _, ok := msg.(wampmsg.Error); ok {
			return
		}
		s.abortLocked(ReasonProtocolViolation, map[string]any{"message": "received message before Join"}, nil, true, CloseProtocolError)

	case StateJoining:
		switch m := msg.(type) {
		case wampmsg.Welcome:
			s.state = StateJoined
			s.listener.OnRealmJoined(s.realm)
		case wampmsg.Abort:
			s.abortLocked(m.Reason, m.Details, fmt.Errorf("router aborted: %s", m.Reason), false, CloseNormalClosure)
		default:
			s.abortLocked(ReasonProtocolViolation, map[string]any{"message": "expected WELCOME or ABORT"}, nil, true, CloseProtocolError)
		}

	case StateJoined:
		s.dispatchJoinedLocked(msg)

	case StateLeaving, StateShuttingDown:
		if gb, ok := msg.(wampmsg.Goodbye); ok {
			s.handleGoodbyeAckLocked(gb)
		}
		// Any other message while winding down is ignored, per spec.

	case StateShutDown, StateAborted:
		// Terminal states accept no further triggers.
	}
}

func (s *Session) dispatchJoinedLocked(msg wampmsg.Message) {
	switch m := msg.(type) {
	case wampmsg.Goodbye:
		s.handleGoodbyeWhileJoinedLocked(m)
	case wampmsg.Abort:
		s.abortLocked(m.Reason, m.Details, fmt.Errorf("router aborted: %s", m.Reason), false, CloseNormalClosure)
	case wampmsg.Subscribed:
		s.handleSubscribedLocked(m)
	case wampmsg.Unsubscribed:
		s.handleUnsubscribedLocked(m)
	case wampmsg.Event:
		s.handleEventLocked(m)
	case wampmsg.Published:
		s.handlePublishedLocked(m)
	case wampmsg.Registered:
		s.handleRegisteredLocked(m)
	case wampmsg.Unregistered:
		s.handleUnregisteredLocked(m)
	case wampmsg.Invocation:
		s.handleInvocationLocked(m)
	case wampmsg.Result:
		s.handleResultLocked(m)
	case wampmsg.Error:
		s.handleErrorLocked(m)
	default:
		s.abortLocked(ReasonProtocolViolation, map[string]any{"message": fmt.Sprintf("unexpected message type %T while JOINED", msg)}, nil, true, CloseProtocolError)
	}
}

func (s *Session) handleGoodbyeWhileJoinedLocked(m wampmsg.Goodbye) {
	if m.Reason == ReasonGoodbyeAndOut {
		s.abortLocked(ReasonProtocolViolation, map[string]any{"message": "received unsolicited GOODBYE(goodbye_and_out)"}, nil, true, CloseProtocolError)
		return
	}

	if !s.sendOrAbortLocked(wampmsg.Goodbye{Details: map[string]any{}, Reason: ReasonGoodbyeAndOut}) {
		return
	}
	s.drainAllLocked(true, "")
	realm := s.realm
	s.state = StateInitial
	s.listener.OnRealmLeft(realm, true)

	if m.Reason == ReasonSystemShutdown {
		s.transport.Close(CloseNormalClosure, ReasonSystemShutdown)
		s.state = StateShutDown
		s.listener.OnSessionShutdown()
	}
}

func (s *Session) handleGoodbyeAckLocked(m wampmsg.Goodbye) {
	wasShuttingDown := s.state == StateShuttingDown
	s.drainAllLocked(true, "")
	realm := s.realm
	s.listener.OnRealmLeft(realm, false)

	if wasShuttingDown {
		s.transport.Close(CloseNormalClosure, ReasonSystemShutdown)
		s.state = StateShutDown
		s.listener.OnSessionShutdown()
		return
	}
	s.state = StateInitial
}
