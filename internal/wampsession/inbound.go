package wampsession

import (
	"fmt"

	"github.com/nugget/gowamp/internal/wampevents"
	"github.com/nugget/gowamp/internal/wampmsg"
)

func (s *Session) protocolViolationLocked(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	s.abortLocked(ReasonProtocolViolation, map[string]any{"message": message}, nil, true, CloseProtocolError)
}

func (s *Session) handleSubscribedLocked(m wampmsg.Subscribed) {
	sink, ok := s.pendingSubscriptions[m.RequestID]
	if !ok {
		s.protocolViolationLocked("Received SUBSCRIBED that we have no pending subscription for. RequestId = %d subscriptionId = %d", m.RequestID, m.SubscriptionID)
		return
	}
	delete(s.pendingSubscriptions, m.RequestID)
	s.ids.Release(m.RequestID)
	s.subscriptions[m.SubscriptionID] = sink
	sink.Push(wampevents.SubscriptionEstablished{SubscriptionID: m.SubscriptionID})
}

func (s *Session) handleUnsubscribedLocked(m wampmsg.Unsubscribed) {
	pu, ok := s.pendingUnsubscriptions[m.RequestID]
	if !ok {
		s.protocolViolationLocked("Received UNSUBSCRIBED that we have no pending unsubscription for. RequestId = %d", m.RequestID)
		return
	}
	delete(s.pendingUnsubscriptions, m.RequestID)
	s.ids.Release(m.RequestID)
	pu.sink.PushTerminal(wampevents.SubscriptionClosed{})
}

func (s *Session) handleEventLocked(m wampmsg.Event) {
	sink, ok := s.subscriptions[m.SubscriptionID]
	if !ok {
		if s.subscriptionIDPendingUnsubscribe(m.SubscriptionID) {
			return
		}
		s.protocolViolationLocked("Received EVENT for unknown subscriptionId = %d", m.SubscriptionID)
		return
	}
	sink.Push(wampevents.Payload{Args: m.Args, ArgsKw: m.ArgsKw})
}

func (s *Session) subscriptionIDPendingUnsubscribe(subID uint64) bool {
	for _, pu := range s.pendingUnsubscriptions {
		if pu.subID == subID {
			return true
		}
	}
	return false
}

func (s *Session) handlePublishedLocked(m wampmsg.Published) {
	sink, ok := s.pendingPublications[m.RequestID]
	if !ok {
		s.protocolViolationLocked("Received PUBLISHED that we have no pending acknowledged publication for. RequestId = %d", m.RequestID)
		return
	}
	delete(s.pendingPublications, m.RequestID)
	s.ids.Release(m.RequestID)
	sink.PushTerminal(wampevents.PublicationSucceeded{PublicationID: m.PublicationID})
}

func (s *Session) handleRegisteredLocked(m wampmsg.Registered) {
	sink, ok := s.pendingRegistrations[m.RequestID]
	if !ok {
		s.protocolViolationLocked("Received REGISTERED that we have no pending registration for. RequestId = %d registrationId = %d", m.RequestID, m.RegistrationID)
		return
	}
	delete(s.pendingRegistrations, m.RequestID)
	s.ids.Release(m.RequestID)
	s.registrations[m.RegistrationID] = sink
	sink.Push(wampevents.ProcedureRegistered{RegistrationID: m.RegistrationID})
}

func (s *Session) handleUnregisteredLocked(m wampmsg.Unregistered) {
	pu, ok := s.pendingUnregistrations[m.RequestID]
	if !ok {
		s.protocolViolationLocked("Received UNREGISTERED that we have no pending unregistration for. RequestId = %d", m.RequestID)
		return
	}
	delete(s.pendingUnregistrations, m.RequestID)
	s.ids.Release(m.RequestID)
	pu.sink.PushTerminal(wampevents.ProcedureUnregistered{})
}

func (s *Session) handleInvocationLocked(m wampmsg.Invocation) {
	sink, ok := s.registrations[m.RegistrationID]
	if !ok {
		if s.registrationIDPendingUnregister(m.RegistrationID) {
			return
		}
		s.protocolViolationLocked("Received INVOCATION for unknown registrationId = %d", m.RegistrationID)
		return
	}
	responder := &invocationResponder{session: s, requestID: m.RequestID}
	sink.Push(wampevents.Invocation{Args: m.Args, ArgsKw: m.ArgsKw, Responder: responder})
}

func (s *Session) registrationIDPendingUnregister(regID uint64) bool {
	for _, pu := range s.pendingUnregistrations {
		if pu.regID == regID {
			return true
		}
	}
	return false
}

func (s *Session) handleResultLocked(m wampmsg.Result) {
	sink, ok := s.pendingCalls[m.RequestID]
	if !ok {
		s.protocolViolationLocked("Received RESULT that we have no pending call for. RequestId = %d", m.RequestID)
		return
	}
	delete(s.pendingCalls, m.RequestID)
	s.ids.Release(m.RequestID)
	sink.PushTerminal(wampevents.CallSucceeded{Args: m.Args, ArgsKw: m.ArgsKw})
}

func (s *Session) handleErrorLocked(m wampmsg.Error) {
	switch m.OriginalType {
	case wampmsg.TypePublish:
		sink, ok := s.pendingPublications[m.RequestID]
		if !ok {
			s.protocolViolationLocked("Received ERROR(PUBLISH) that we have no pending acknowledged publication for. RequestId = %d", m.RequestID)
			return
		}
		delete(s.pendingPublications, m.RequestID)
		s.ids.Release(m.RequestID)
		sink.PushTerminal(wampevents.PublicationFailed{ErrorURI: m.Error})

	case wampmsg.TypeSubscribe:
		sink, ok := s.pendingSubscriptions[m.RequestID]
		if !ok {
			s.protocolViolationLocked("Received ERROR(SUBSCRIBE) that we have no pending subscription for. RequestId = %d", m.RequestID)
			return
		}
		delete(s.pendingSubscriptions, m.RequestID)
		s.ids.Release(m.RequestID)
		sink.PushTerminal(wampevents.SubscriptionFailed{ErrorURI: m.Error})

	case wampmsg.TypeUnsubscribe:
		pu, ok := s.pendingUnsubscriptions[m.RequestID]
		if !ok {
			s.protocolViolationLocked("Received ERROR(UNSUBSCRIBE) that we have no pending unsubscription for. RequestId = %d", m.RequestID)
			return
		}
		delete(s.pendingUnsubscriptions, m.RequestID)
		s.ids.Release(m.RequestID)
		pu.sink.PushTerminal(wampevents.UnsubscriptionFailed{ErrorURI: m.Error})

	case wampmsg.TypeCall:
		sink, ok := s.pendingCalls[m.RequestID]
		if !ok {
			s.protocolViolationLocked("Received ERROR(CALL) that we have no pending call for. RequestId = %d", m.RequestID)
			return
		}
		delete(s.pendingCalls, m.RequestID)
		s.ids.Release(m.RequestID)
		sink.PushTerminal(wampevents.CallFailed{ErrorURI: m.Error, Args: m.Args, ArgsKw: m.ArgsKw})

	case wampmsg.TypeRegister:
		sink, ok := s.pendingRegistrations[m.RequestID]
		if !ok {
			s.protocolViolationLocked("Received ERROR(REGISTER) that we have no pending registration for. RequestId = %d", m.RequestID)
			return
		}
		delete(s.pendingRegistrations, m.RequestID)
		s.ids.Release(m.RequestID)
		sink.PushTerminal(wampevents.RegistrationFailed{ErrorURI: m.Error})

	case wampmsg.TypeUnregister:
		pu, ok := s.pendingUnregistrations[m.RequestID]
		if !ok {
			s.protocolViolationLocked("Received ERROR(UNREGISTER) that we have no pending unregistration for. RequestId = %d", m.RequestID)
			return
		}
		delete(s.pendingUnregistrations, m.RequestID)
		s.ids.Release(m.RequestID)
		pu.sink.PushTerminal(wampevents.UnregistrationFailed{ErrorURI: m.Error})

	default:
		// Includes TypeInvocation: this client has no table of pending
		// invocations to correlate a callee-side error against, so an
		// ERROR with that (or any other unrecognized) originalType is
		// always a protocol violation.
		s.protocolViolationLocked("Received ERROR with unrecognized originalType = %d", m.OriginalType)
	}
}
