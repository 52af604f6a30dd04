package wampsession

import "sync/atomic"

// invocationResponder is the bound capability handed to the
// application with every Invocation. It carries the requestId of the
// INVOCATION being answered and enforces single-shot delivery: a
// second call, or any call after the session has left JOINED, is a
// silent no-op.
type invocationResponder struct {
	session   *Session
	requestID uint64
	used      atomic.Bool
}

func (r *invocationResponder) Succeed(args []any, argsKw map[string]any) {
	if !r.used.CompareAndSwap(false, true) {
		return
	}
	r.session.mu.Lock()
	defer r.session.mu.Unlock()
	if r.session.state != StateJoined {
		return
	}
	r.session.sendYieldLocked(r.requestID, args, argsKw)
}

func (r *invocationResponder) Fail(errorURI string, args []any, argsKw map[string]any) {
	if !r.used.CompareAndSwap(false, true) {
		return
	}
	r.session.mu.Lock()
	defer r.session.mu.Unlock()
	if r.session.state != StateJoined {
		return
	}
	r.session.sendInvocationErrorLocked(r.requestID, errorURI, args, argsKw)
}
