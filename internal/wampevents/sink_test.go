package wampevents

import (
	"testing"
	"time"
)

func TestSinkDeliversInOrder(t *testing.T) {
	s := NewSink[SubscriptionEvent]()
	s.Push(SubscriptionEstablished{SubscriptionID: 1})
	s.Push(Payload{Args: []any{"a"}})
	s.PushTerminal(SubscriptionClosed{})

	var got []SubscriptionEvent
	for e := range s.Events() {
		got = append(got, e)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if _, ok := got[0].(SubscriptionEstablished); !ok {
		t.Errorf("got[0] = %T, want SubscriptionEstablished", got[0])
	}
	if _, ok := got[1].(Payload); !ok {
		t.Errorf("got[1] = %T, want Payload", got[1])
	}
	if _, ok := got[2].(SubscriptionClosed); !ok {
		t.Errorf("got[2] = %T, want SubscriptionClosed", got[2])
	}
}

func TestSinkCloseEmptyYieldsNoEvents(t *testing.T) {
	s := NewSink[PublicationEvent]()
	s.CloseEmpty()

	select {
	case e, ok := <-s.Events():
		if ok {
			t.Fatalf("got unexpected event %v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestSinkPushAfterTerminalIsNoop(t *testing.T) {
	s := NewSink[CallerEvent]()
	s.PushTerminal(CallFailed{ErrorURI: "wamp.error.canceled"})
	s.Push(CallSucceeded{})

	var got []CallerEvent
	for e := range s.Events() {
		got = append(got, e)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if _, ok := got[0].(CallFailed); !ok {
		t.Errorf("got[0] = %T, want CallFailed", got[0])
	}
}

func TestSinkPushDoesNotBlockOnSlowConsumer(t *testing.T) {
	s := NewSink[CalleeEvent]()
	done := make(chan struct{})
	go func() {
		s.Push(ProcedureRegistered{RegistrationID: 1})
		s.PushTerminal(ProcedureUnregistered{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Push/PushTerminal blocked despite no consumer reading yet")
	}

	var got []CalleeEvent
	for e := range s.Events() {
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
}
