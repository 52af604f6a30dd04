package wampsession

import (
	"strconv"
	"testing"
	"time"

	"github.com/nugget/gowamp/internal/wampevents"
	"github.com/nugget/gowamp/internal/wampid"
	"github.com/nugget/gowamp/internal/wamptransport/wamptransporttest"
)

type recordingListener struct {
	joined   []string
	left     []leftEvent
	shutdown int
	aborted  []abortedEvent
}

type leftEvent struct {
	realm      string
	fromRouter bool
}

type abortedEvent struct {
	reason string
	err    error
}

func (l *recordingListener) OnRealmJoined(realm string) {
	l.joined = append(l.joined, realm)
}
func (l *recordingListener) OnRealmLeft(realm string, fromRouter bool) {
	l.left = append(l.left, leftEvent{realm, fromRouter})
}
func (l *recordingListener) OnSessionShutdown() {
	l.shutdown++
}
func (l *recordingListener) OnSessionAborted(reason string, err error) {
	l.aborted = append(l.aborted, abortedEvent{reason, err})
}

// fixedIDs hands out ids from a queue, for tests that need to assert
// against literal wire payloads naming specific request ids.
type fixedIDs struct {
	*wampid.Allocator
	queue []uint64
}

func newFixedIDs(ids ...uint64) *fixedIDs {
	return &fixedIDs{Allocator: wampid.New(), queue: ids}
}

func (f *fixedIDs) NewID() uint64 {
	if len(f.queue) == 0 {
		return f.Allocator.NewID()
	}
	id := f.queue[0]
	f.queue = f.queue[1:]
	return id
}

var _ idAllocator = (*fixedIDs)(nil)

func recvEvent[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		var zero T
		return zero
	}
}

func assertClosed[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func newJoinedSession(t *testing.T, realm string, listener *recordingListener) (*Session, *wamptransporttest.Fake) {
	t.Helper()
	tr := wamptransporttest.New()
	s := New(tr, listener)
	if err := s.Join(realm); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	s.OnText(`[2,9129137332,{"roles":{"broker":{}}}]`)
	if s.State() != StateJoined {
		t.Fatalf("State() = %v, want JOINED", s.State())
	}
	return s, tr
}

// Scenario A — subscribe/event/unsubscribe happy path.
func TestScenarioA_SubscribeEventUnsubscribe(t *testing.T) {
	listener := &recordingListener{}
	tr := wamptransporttest.New()
	s := New(tr, listener)
	s.ids = newFixedIDs(713845233)

	if err := s.Join("somerealm"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	wantHello := `[1,"somerealm",{"roles":{"callee":{},"caller":{},"publisher":{},"subscriber":{}}}]`
	if got := tr.LastSent(); got != wantHello {
		t.Fatalf("HELLO = %s, want %s", got, wantHello)
	}

	s.OnText(`[2,9129137332,{"roles":{"broker":{}}}]`)
	if len(listener.joined) != 1 || listener.joined[0] != "somerealm" {
		t.Fatalf("joined = %v, want [somerealm]", listener.joined)
	}

	events, err := s.Subscribe("com.myapp.mytopic1")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	wantSubscribe := `[32,713845233,{},"com.myapp.mytopic1"]`
	if got := tr.LastSent(); got != wantSubscribe {
		t.Fatalf("SUBSCRIBE = %s, want %s", got, wantSubscribe)
	}

	s.OnText(`[33,713845233,5512315355]`)
	established := recvEvent(t, events)
	est, ok := established.(wampevents.SubscriptionEstablished)
	if !ok || est.SubscriptionID != 5512315355 {
		t.Fatalf("got %#v, want SubscriptionEstablished(5512315355)", established)
	}

	s.OnText(`[36,5512315355,4429313566,{},[],{"color":"orange","sizes":[23,42,7]}]`)
	payload := recvEvent(t, events).(wampevents.Payload)
	if len(payload.Args) != 0 {
		t.Errorf("Args = %v, want empty", payload.Args)
	}
	if payload.ArgsKw["color"] != "orange" {
		t.Errorf("ArgsKw[color] = %v, want orange", payload.ArgsKw["color"])
	}

	s.ids = newFixedIDs(85346237)
	if err := s.Unsubscribe(5512315355); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	wantUnsubscribe := `[34,85346237,5512315355]`
	if got := tr.LastSent(); got != wantUnsubscribe {
		t.Fatalf("UNSUBSCRIBE = %s, want %s", got, wantUnsubscribe)
	}

	s.OnText(`[35,85346237]`)
	closedEvent := recvEvent(t, events)
	if _, ok := closedEvent.(wampevents.SubscriptionClosed); !ok {
		t.Fatalf("got %#v, want SubscriptionClosed", closedEvent)
	}
	assertClosed(t, events)
}

// Scenario B — acknowledged publish error.
func TestScenarioB_AcknowledgedPublishError(t *testing.T) {
	s, tr := newJoinedSession(t, "somerealm", &recordingListener{})
	s.ids = newFixedIDs(239714735)

	events, err := s.Publish("com.myapp.mytopic1", nil, nil, true)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	want := `[16,239714735,{"acknowledge":true},"com.myapp.mytopic1"]`
	if got := tr.LastSent(); got != want {
		t.Fatalf("PUBLISH = %s, want %s", got, want)
	}

	s.OnText(`[8,16,239714735,{},"wamp.error.not_authorized"]`)
	failed := recvEvent(t, events).(wampevents.PublicationFailed)
	if failed.ErrorURI != "wamp.error.not_authorized" {
		t.Errorf("ErrorURI = %s, want wamp.error.not_authorized", failed.ErrorURI)
	}
	assertClosed(t, events)
}

// Scenario C — call / result.
func TestScenarioC_CallResult(t *testing.T) {
	s, tr := newJoinedSession(t, "somerealm", &recordingListener{})
	s.ids = newFixedIDs(7814135)

	events, err := s.Call("com.myapp.echo", []any{"Hello, world!"}, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	want := `[48,7814135,{},"com.myapp.echo",["Hello, world!"]]`
	if got := tr.LastSent(); got != want {
		t.Fatalf("CALL = %s, want %s", got, want)
	}

	s.OnText(`[50,7814135,{},["Hello, world!"]]`)
	succeeded := recvEvent(t, events).(wampevents.CallSucceeded)
	if len(succeeded.Args) != 1 || succeeded.Args[0] != "Hello, world!" {
		t.Errorf("Args = %v, want [Hello, world!]", succeeded.Args)
	}
	assertClosed(t, events)
}

// Scenario D — register / invocation / yield.
func TestScenarioD_RegisterInvocationYield(t *testing.T) {
	s, tr := newJoinedSession(t, "somerealm", &recordingListener{})
	s.ids = newFixedIDs(25349185)

	events, err := s.Register("com.myapp.myprocedure1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	want := `[64,25349185,{},"com.myapp.myprocedure1"]`
	if got := tr.LastSent(); got != want {
		t.Fatalf("REGISTER = %s, want %s", got, want)
	}

	s.OnText(`[65,25349185,2103333224]`)
	registered := recvEvent(t, events).(wampevents.ProcedureRegistered)
	if registered.RegistrationID != 2103333224 {
		t.Fatalf("RegistrationID = %d, want 2103333224", registered.RegistrationID)
	}

	s.OnText(`[68,6131533,2103333224,{},["johnny"],{"firstname":"John","surname":"Doe"}]`)
	invocation := recvEvent(t, events).(wampevents.Invocation)
	if len(invocation.Args) != 1 || invocation.Args[0] != "johnny" {
		t.Fatalf("Args = %v, want [johnny]", invocation.Args)
	}

	invocation.Responder.Succeed([]any{}, map[string]any{"userid": 123, "karma": 10})
	want = `[70,6131533,{},[],{"karma":10,"userid":123}]`
	if got := tr.LastSent(); got != want {
		t.Fatalf("YIELD = %s, want %s", got, want)
	}
}

// Scenario E — protocol violation on unexpected SUBSCRIBED.
func TestScenarioE_ProtocolViolationUnexpectedSubscribed(t *testing.T) {
	listener := &recordingListener{}
	s, tr := newJoinedSession(t, "somerealm", listener)

	s.OnText(`[33,999,12345]`)

	want := `[3,{"message":"Received SUBSCRIBED that we have no pending subscription for. RequestId = 999 subscriptionId = 12345"},"wamp.error.protocol_violation"]`
	if got := tr.LastSent(); got != want {
		t.Fatalf("ABORT = %s, want %s", got, want)
	}
	closed, code, _ := tr.Closed()
	if !closed || code != CloseProtocolError {
		t.Fatalf("Closed() = (%v, %d), want (true, %d)", closed, code, CloseProtocolError)
	}
	if len(listener.aborted) != 1 {
		t.Fatalf("aborted = %v, want one entry", listener.aborted)
	}
	if s.State() != StateAborted {
		t.Fatalf("State() = %v, want ABORTED", s.State())
	}
}

// Scenario F — router GOODBYE with shutdown.
func TestScenarioF_RouterGoodbyeWithShutdown(t *testing.T) {
	listener := &recordingListener{}
	s, tr := newJoinedSession(t, "somerealm", listener)

	s.OnText(`[6,{},"wamp.close.system_shutdown"]`)

	want := `[6,{},"wamp.close.goodbye_and_out"]`
	if got := tr.LastSent(); got != want {
		t.Fatalf("GOODBYE = %s, want %s", got, want)
	}
	if len(listener.left) != 1 || listener.left[0].realm != "somerealm" || !listener.left[0].fromRouter {
		t.Fatalf("left = %v, want [{somerealm true}]", listener.left)
	}
	if listener.shutdown != 1 {
		t.Fatalf("shutdown = %d, want 1", listener.shutdown)
	}
	closed, code, _ := tr.Closed()
	if !closed || code != CloseNormalClosure {
		t.Fatalf("Closed() = (%v, %d), want (true, %d)", closed, code, CloseNormalClosure)
	}
	if s.State() != StateShutDown {
		t.Fatalf("State() = %v, want SHUT_DOWN", s.State())
	}
}

func TestApplicationOpBeforeJoinAborts(t *testing.T) {
	listener := &recordingListener{}
	tr := wamptransporttest.New()
	s := New(tr, listener)

	_, err := s.Subscribe("com.myapp.mytopic1")
	if err != ErrSessionAborted {
		t.Fatalf("Subscribe() error = %v, want ErrSessionAborted", err)
	}
	if s.State() != StateAborted {
		t.Fatalf("State() = %v, want ABORTED", s.State())
	}
	if len(listener.aborted) != 1 {
		t.Fatalf("aborted = %v, want one entry", listener.aborted)
	}
}

func TestUnsubscribeUnknownIDIsSilentlyIgnored(t *testing.T) {
	s, _ := newJoinedSession(t, "somerealm", &recordingListener{})
	if err := s.Unsubscribe(999999); err != nil {
		t.Fatalf("Unsubscribe(unknown) error = %v, want nil", err)
	}
	if s.State() != StateJoined {
		t.Fatalf("State() = %v, want JOINED", s.State())
	}
}

func TestUnacknowledgedPublishClosesSinkImmediately(t *testing.T) {
	s, tr := newJoinedSession(t, "somerealm", &recordingListener{})
	events, err := s.Publish("com.myapp.mytopic1", nil, nil, false)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	assertClosed(t, events)
	if got := tr.LastSent(); got == "" {
		t.Fatal("expected PUBLISH to still be sent")
	}
}

func TestAbortDrainsAllRegistries(t *testing.T) {
	s, _ := newJoinedSession(t, "somerealm", &recordingListener{})

	subEvents, err := s.Subscribe("com.myapp.mytopic1")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	callEvents, err := s.Call("com.myapp.echo", nil, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	// An unexpected message type triggers a protocol-violation abort,
	// draining every live registry.
	s.OnText(`[2,1,{}]`)

	subTerminal := recvEvent(t, subEvents)
	if _, ok := subTerminal.(wampevents.SubscriptionFailed); !ok {
		t.Errorf("subscription terminal = %#v, want SubscriptionFailed", subTerminal)
	}
	assertClosed(t, subEvents)

	callTerminal := recvEvent(t, callEvents)
	if _, ok := callTerminal.(wampevents.CallFailed); !ok {
		t.Errorf("call terminal = %#v, want CallFailed", callTerminal)
	}
	assertClosed(t, callEvents)
}

func TestRequestIDReleasedOnCorrelatedResponse(t *testing.T) {
	s, _ := newJoinedSession(t, "somerealm", &recordingListener{})
	if _, err := s.Call("com.myapp.echo", nil, nil); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if s.ids.Held() != 1 {
		t.Fatalf("Held() = %d, want 1", s.ids.Held())
	}

	s.mu.Lock()
	var requestID uint64
	for id := range s.pendingCalls {
		requestID = id
	}
	s.mu.Unlock()

	s.OnText(`[50,` + strconv.FormatUint(requestID, 10) + `,{},["ok"]]`)
	if s.ids.Held() != 0 {
		t.Fatalf("Held() = %d, want 0 after RESULT", s.ids.Held())
	}
}
