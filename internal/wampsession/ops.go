package wampsession

import (
	"errors"
	"fmt"

	"github.com/nugget/gowamp/internal/wampevents"
	"github.com/nugget/gowamp/internal/wampmsg"
)

// Join sends HELLO for realm and transitions to JOINING. It returns
// ErrAlreadyJoined if the session is not in INITIAL; calling Join from
// any state other than INITIAL also aborts the session, matching the
// "any unlisted application intent aborts" rule for non-JOINED states.
func (s *Session) Join(realm string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInitial {
		if s.state == StateAborted || s.state == StateShutDown {
			return ErrAlreadyJoined
		}
		s.abortAPIMisuseLocked("Join called outside INITIAL")
		return ErrAlreadyJoined
	}

	s.realm = realm
	if !s.sendOrAbortLocked(wampmsg.Hello{Realm: realm, Details: helloDetails()}) {
		return ErrSessionAborted
	}
	s.state = StateJoining
	return nil
}

// Leave sends GOODBYE(close_realm) from JOINED, transitioning to
// LEAVING. Calling it from JOINING abandons the handshake with a local
// ABORT. Calling it from any other non-terminal state is API misuse.
func (s *Session) Leave() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateJoined:
		if !s.sendOrAbortLocked(wampmsg.Goodbye{Details: map[string]any{}, Reason: ReasonCloseRealm}) {
			return ErrSessionAborted
		}
		s.state = StateLeaving
		return nil
	case StateJoining:
		s.abortLocked(ReasonAbandoned, map[string]any{"message": "Leave called before WELCOME"}, nil, true, CloseNormalClosure)
		return ErrSessionAborted
	case StateAborted, StateShutDown:
		return ErrSessionAborted
	default:
		s.abortAPIMisuseLocked("Leave called outside JOINED")
		return ErrSessionAborted
	}
}

// Shutdown closes the session. From INITIAL it closes the transport
// immediately. From JOINED it sends GOODBYE(system_shutdown) and waits
// for the router's acknowledgement. From JOINING it abandons the
// handshake with a local ABORT. It is a no-op if already SHUT_DOWN.
func (s *Session) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateInitial:
		s.transport.Close(CloseNormalClosure, ReasonSystemShutdown)
		s.state = StateShutDown
		s.listener.OnSessionShutdown()
		return nil
	case StateJoined:
		if !s.sendOrAbortLocked(wampmsg.Goodbye{Details: map[string]any{}, Reason: ReasonSystemShutdown}) {
			return ErrSessionAborted
		}
		s.state = StateShuttingDown
		return nil
	case StateJoining:
		s.abortLocked(ReasonAbandoned, map[string]any{"message": "Shutdown called before WELCOME"}, nil, true, CloseNormalClosure)
		return ErrSessionAborted
	case StateShutDown:
		return nil
	case StateAborted:
		return ErrSessionAborted
	default:
		s.abortAPIMisuseLocked("Shutdown called outside a startable state")
		return ErrSessionAborted
	}
}

// mustBeJoinedLocked reports whether the session can accept an
// application operation right now. If the session is already in a
// terminal state it returns ErrSessionAborted without further action;
// otherwise (a non-JOINED, non-terminal state) it aborts the session
// as API misuse and returns ErrSessionAborted.
func (s *Session) mustBeJoinedLocked(opName string) error {
	if s.state == StateJoined {
		return nil
	}
	if s.state == StateAborted || s.state == StateShutDown {
		return ErrSessionAborted
	}
	s.abortAPIMisuseLocked(fmt.Sprintf("%s called while not JOINED", opName))
	return ErrSessionAborted
}

func (s *Session) abortAPIMisuseLocked(message string) {
	s.abortLocked(ReasonProtocolViolation, map[string]any{"message": message}, errors.New(message), true, CloseProtocolError)
}

// Subscribe sends SUBSCRIBE for topic and returns the event channel
// that will receive SubscriptionEstablished, Payload, and eventually
// exactly one terminal event.
func (s *Session) Subscribe(topic string) (<-chan wampevents.SubscriptionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mustBeJoinedLocked("Subscribe"); err != nil {
		return nil, err
	}

	sink := wampevents.NewSink[wampevents.SubscriptionEvent]()
	requestID := s.ids.NewID()
	s.pendingSubscriptions[requestID] = sink
	s.sendOrAbortLocked(wampmsg.Subscribe{RequestID: requestID, Options: map[string]any{}, Topic: topic})
	return sink.Events(), nil
}

// Unsubscribe sends UNSUBSCRIBE for subscriptionID. Unknown ids are
// silently ignored, per the correlation rule.
func (s *Session) Unsubscribe(subscriptionID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mustBeJoinedLocked("Unsubscribe"); err != nil {
		return err
	}

	sink, ok := s.subscriptions[subscriptionID]
	if !ok {
		return nil
	}
	delete(s.subscriptions, subscriptionID)

	requestID := s.ids.NewID()
	s.pendingUnsubscriptions[requestID] = pendingUnsubscription{subID: subscriptionID, sink: sink}
	s.sendOrAbortLocked(wampmsg.Unsubscribe{RequestID: requestID, SubscriptionID: subscriptionID})
	return nil
}

// Publish sends PUBLISH for topic. If acknowledge is false the
// returned channel is closed immediately with no events (fire and
// forget); otherwise it eventually receives exactly one terminal
// PublicationEvent.
func (s *Session) Publish(topic string, args []any, argsKw map[string]any, acknowledge bool) (<-chan wampevents.PublicationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mustBeJoinedLocked("Publish"); err != nil {
		return nil, err
	}

	requestID := s.ids.NewID()
	options := map[string]any{}

	sink := wampevents.NewSink[wampevents.PublicationEvent]()
	if acknowledge {
		options["acknowledge"] = true
		s.pendingPublications[requestID] = sink
	} else {
		sink.CloseEmpty()
	}

	s.sendOrAbortLocked(wampmsg.Publish{RequestID: requestID, Options: options, Topic: topic, Args: args, ArgsKw: argsKw})
	return sink.Events(), nil
}

// Register sends REGISTER for procedure and returns the event channel
// that will receive ProcedureRegistered, Invocation, and eventually
// exactly one terminal event.
func (s *Session) Register(procedure string) (<-chan wampevents.CalleeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mustBeJoinedLocked("Register"); err != nil {
		return nil, err
	}

	sink := wampevents.NewSink[wampevents.CalleeEvent]()
	requestID := s.ids.NewID()
	s.pendingRegistrations[requestID] = sink
	s.sendOrAbortLocked(wampmsg.Register{RequestID: requestID, Options: map[string]any{}, Procedure: procedure})
	return sink.Events(), nil
}

// Unregister sends UNREGISTER for registrationID. Unknown ids are
// silently ignored, per the correlation rule.
func (s *Session) Unregister(registrationID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mustBeJoinedLocked("Unregister"); err != nil {
		return err
	}

	sink, ok := s.registrations[registrationID]
	if !ok {
		return nil
	}
	delete(s.registrations, registrationID)

	requestID := s.ids.NewID()
	s.pendingUnregistrations[requestID] = pendingUnregistration{regID: registrationID, sink: sink}
	s.sendOrAbortLocked(wampmsg.Unregister{RequestID: requestID, RegistrationID: registrationID})
	return nil
}

// Call sends CALL for procedure and returns the event channel that
// will eventually receive exactly one terminal CallerEvent.
func (s *Session) Call(procedure string, args []any, argsKw map[string]any) (<-chan wampevents.CallerEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mustBeJoinedLocked("Call"); err != nil {
		return nil, err
	}

	sink := wampevents.NewSink[wampevents.CallerEvent]()
	requestID := s.ids.NewID()
	s.pendingCalls[requestID] = sink
	s.sendOrAbortLocked(wampmsg.Call{RequestID: requestID, Options: map[string]any{}, Procedure: procedure, Args: args, ArgsKw: argsKw})
	return sink.Events(), nil
}
