// Package wampevents defines the per-operation event streams a session
// hands back to the application for subscriptions, registrations,
// calls, and publications, plus the ordered, non-blocking sink that
// delivers them.
package wampevents

// SubscriptionEvent is emitted on the channel returned by Subscribe.
// SubscriptionClosed, SubscriptionFailed, and UnsubscriptionFailed are
// terminal: each is the last value sent before the channel closes.
type SubscriptionEvent interface {
	subscriptionEvent()
}

// SubscriptionEstablished reports that SUBSCRIBED arrived for this
// subscription's SUBSCRIBE request.
type SubscriptionEstablished struct {
	SubscriptionID uint64
}

// Payload carries one EVENT delivered to an established subscription.
type Payload struct {
	Args   []any
	ArgsKw map[string]any
}

// SubscriptionClosed reports a clean UNSUBSCRIBED for this subscription,
// or that the session left the realm while the subscription was live.
type SubscriptionClosed struct{}

// SubscriptionFailed reports that the SUBSCRIBE request itself failed,
// or that the session aborted while the subscription was pending or
// established.
type SubscriptionFailed struct {
	ErrorURI string
}

// UnsubscriptionFailed reports that an UNSUBSCRIBE request failed, or
// that the session aborted while the unsubscription was pending.
type UnsubscriptionFailed struct {
	ErrorURI string
}

func (SubscriptionEstablished) subscriptionEvent() {}
func (Payload) subscriptionEvent()                 {}
func (SubscriptionClosed) subscriptionEvent()      {}
func (SubscriptionFailed) subscriptionEvent()      {}
func (UnsubscriptionFailed) subscriptionEvent()    {}

// Responder is the bound capability handed to the application with
// every Invocation. The application must call Succeed or Fail exactly
// once; a second call is a no-op, and any call after the session has
// left JOINED is also a no-op.
type Responder interface {
	Succeed(args []any, argsKw map[string]any)
	Fail(errorURI string, args []any, argsKw map[string]any)
}

// CalleeEvent is emitted on the channel returned by Register.
// ProcedureUnregistered, RegistrationFailed, and UnregistrationFailed
// are terminal.
type CalleeEvent interface {
	calleeEvent()
}

// ProcedureRegistered reports that REGISTERED arrived for this
// registration's REGISTER request.
type ProcedureRegistered struct {
	RegistrationID uint64
}

// Invocation delivers one routed call to the callee. The application
// must eventually call Responder.Succeed or Responder.Fail.
type Invocation struct {
	Args      []any
	ArgsKw    map[string]any
	Responder Responder
}

// ProcedureUnregistered reports a clean UNREGISTERED for this
// registration, or that the session left the realm while it was live.
type ProcedureUnregistered struct{}

// RegistrationFailed reports that the REGISTER request itself failed,
// or that the session aborted while the registration was pending or
// established.
type RegistrationFailed struct {
	ErrorURI string
}

// UnregistrationFailed reports that an UNREGISTER request failed, or
// that the session aborted while the unregistration was pending.
type UnregistrationFailed struct {
	ErrorURI string
}

func (ProcedureRegistered) calleeEvent()   {}
func (Invocation) calleeEvent()            {}
func (ProcedureUnregistered) calleeEvent() {}
func (RegistrationFailed) calleeEvent()    {}
func (UnregistrationFailed) calleeEvent()  {}

// CallerEvent is emitted on the channel returned by Call. Exactly one
// of CallSucceeded or CallFailed is ever sent, and it is always
// terminal.
type CallerEvent interface {
	callerEvent()
}

// CallSucceeded carries the RESULT of a CALL.
type CallSucceeded struct {
	Args   []any
	ArgsKw map[string]any
}

// CallFailed carries the ERROR response to a CALL, or reports that the
// session aborted or left the realm while the call was outstanding
// (ErrorURI is then the abort reason, or empty after a leave).
type CallFailed struct {
	ErrorURI string
	Args     []any
	ArgsKw   map[string]any
}

func (CallSucceeded) callerEvent() {}
func (CallFailed) callerEvent()    {}

// PublicationEvent is emitted on the channel returned by Publish when
// acknowledge=true. With acknowledge=false the channel is closed with
// no events at all.
type PublicationEvent interface {
	publicationEvent()
}

// PublicationSucceeded carries the PublicationId from a PUBLISHED ack.
type PublicationSucceeded struct {
	PublicationID uint64
}

// PublicationFailed carries the ERROR response to an acknowledged
// PUBLISH, or reports that the session aborted or left the realm first
// (ErrorURI is then the abort reason, or empty after a leave).
type PublicationFailed struct {
	ErrorURI string
}

func (PublicationSucceeded) publicationEvent() {}
func (PublicationFailed) publicationEvent()    {}
