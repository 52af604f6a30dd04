package wampsession

import (
	"github.com/nugget/gowamp/internal/wampevents"
	"github.com/nugget/gowamp/internal/wampmsg"
)

// abortLocked transitions the session to ABORTED: it optionally sends
// a local ABORT to the router, closes the transport with closeCode,
// drains every registry with a failure terminal event, and notifies
// the listener. Must be called with mu held. Calling it when already
// ABORTED or SHUT_DOWN is a no-op.
func (s *Session) abortLocked(reasonURI string, details map[string]any, cause error, sendLocalAbort bool, closeCode int) {
	if s.state == StateAborted || s.state == StateShutDown {
		return
	}
	s.state = StateAborted

	if sendLocalAbort {
		if details == nil {
			details = map[string]any{}
		}
		s.trySend(wampmsg.Abort{Details: details, Reason: reasonURI})
	}
	s.transport.Close(closeCode, reasonURI)

	s.drainAllLocked(false, reasonURI)

	s.listener.OnSessionAborted(reasonURI, cause)
}

// sendOrAbortLocked sends msg and, on failure, treats it as a
// transport failure abort. It reports whether the send succeeded.
func (s *Session) sendOrAbortLocked(msg wampmsg.Message) bool {
	if err := s.send(msg); err != nil {
		s.abortLocked(ReasonProtocolViolation, map[string]any{"message": "transport send failed: " + err.Error()}, err, false, CloseProtocolError)
		return false
	}
	return true
}

// trySend sends msg, discarding any error. Used when sending a final
// ABORT/GOODBYE where the transport may already be unusable.
func (s *Session) trySend(msg wampmsg.Message) {
	_ = s.send(msg)
}

func (s *Session) send(msg wampmsg.Message) error {
	text, err := wampmsg.Encode(msg)
	if err != nil {
		return err
	}
	s.logTrace("send", "text", text)
	return s.transport.SendText(text)
}

// drainAllLocked empties every registry, delivering a terminal event
// to each live sink, and resets the registries to empty maps. When
// graceful is true (an ordinary leave/shutdown acknowledgement),
// subscriptions and registrations receive their neutral closed event;
// otherwise (abort) they receive a failure event carrying reasonURI
// (UnsubscriptionFailed/UnregistrationFailed for those whose
// unsubscribe/unregister is still pending). Calls and publications have no neutral closed variant, so they
// always receive a failure event regardless of graceful.
func (s *Session) drainAllLocked(graceful bool, reasonURI string) {
	for _, sink := range s.pendingSubscriptions {
		sink.PushTerminal(terminalSubscriptionEvent(graceful, reasonURI))
	}
	s.pendingSubscriptions = make(map[uint64]*wampevents.SubscriptionSink)

	for _, pu := range s.pendingUnsubscriptions {
		if graceful {
			pu.sink.PushTerminal(wampevents.SubscriptionClosed{})
		} else {
			pu.sink.PushTerminal(wampevents.UnsubscriptionFailed{ErrorURI: reasonURI})
		}
	}
	s.pendingUnsubscriptions = make(map[uint64]pendingUnsubscription)

	for _, sink := range s.subscriptions {
		sink.PushTerminal(terminalSubscriptionEvent(graceful, reasonURI))
	}
	s.subscriptions = make(map[uint64]*wampevents.SubscriptionSink)

	for _, sink := range s.pendingRegistrations {
		sink.PushTerminal(terminalCalleeEvent(graceful, reasonURI))
	}
	s.pendingRegistrations = make(map[uint64]*wampevents.CalleeSink)

	for _, pu := range s.pendingUnregistrations {
		if graceful {
			pu.sink.PushTerminal(wampevents.ProcedureUnregistered{})
		} else {
			pu.sink.PushTerminal(wampevents.UnregistrationFailed{ErrorURI: reasonURI})
		}
	}
	s.pendingUnregistrations = make(map[uint64]pendingUnregistration)

	for _, sink := range s.registrations {
		sink.PushTerminal(terminalCalleeEvent(graceful, reasonURI))
	}
	s.registrations = make(map[uint64]*wampevents.CalleeSink)

	for _, sink := range s.pendingCalls {
		sink.PushTerminal(wampevents.CallFailed{ErrorURI: reasonURI})
	}
	s.pendingCalls = make(map[uint64]*wampevents.CallerSink)

	for _, sink := range s.pendingPublications {
		sink.PushTerminal(wampevents.PublicationFailed{ErrorURI: reasonURI})
	}
	s.pendingPublications = make(map[uint64]*wampevents.PublicationSink)
}

func terminalSubscriptionEvent(graceful bool, reasonURI string) wampevents.SubscriptionEvent {
	if graceful {
		return wampevents.SubscriptionClosed{}
	}
	return wampevents.SubscriptionFailed{ErrorURI: reasonURI}
}

func terminalCalleeEvent(graceful bool, reasonURI string) wampevents.CalleeEvent {
	if graceful {
		return wampevents.ProcedureUnregistered{}
	}
	return wampevents.RegistrationFailed{ErrorURI: reasonURI}
}

func (s *Session) sendYieldLocked(requestID uint64, args []any, argsKw map[string]any) {
	s.sendOrAbortLocked(wampmsg.Yield{RequestID: requestID, Options: map[string]any{}, Args: args, ArgsKw: argsKw})
}

func (s *Session) sendInvocationErrorLocked(requestID uint64, errorURI string, args []any, argsKw map[string]any) {
	s.sendOrAbortLocked(wampmsg.Error{
		OriginalType: wampmsg.TypeInvocation,
		RequestID:    requestID,
		Details:      map[string]any{},
		Error:        errorURI,
		Args:         args,
		ArgsKw:       argsKw,
	})
}
