// Package wampsession implements the client-side WAMP v2 session
// lifecycle: the state machine, request/response correlation, and the
// per-operation event sinks handed back to the application. It
// consumes a Transport and drives a Listener, both narrow interfaces,
// so it has no notion of sockets or wire framing of its own.
package wampsession

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/nugget/gowamp/internal/config"
	"github.com/nugget/gowamp/internal/wampevents"
	"github.com/nugget/gowamp/internal/wampid"
)

type pendingUnsubscription struct {
	subID uint64
	sink  *wampevents.SubscriptionSink
}

type pendingUnregistration struct {
	regID uint64
	sink  *wampevents.CalleeSink
}

// idAllocator is the subset of *wampid.Allocator the session needs.
// Factored out as an interface so tests can substitute an allocator
// that hands out pre-scripted ids to assert against literal wire
// payloads.
type idAllocator interface {
	NewID() uint64
	Release(id uint64)
	Held() int
}

// Session is a single client-side WAMP session attached to one
// Transport for its entire lifetime. All mutable state is guarded by
// mu; every application operation and every inbound Callbacks method
// acquires mu for the duration of its effect on the session record,
// per the single serialized evaluator design.
type Session struct {
	mu sync.Mutex

	transport Transport
	listener  Listener
	logger    *slog.Logger
	ids       idAllocator

	instanceID string

	state State
	realm string

	pendingSubscriptions   map[uint64]*wampevents.SubscriptionSink
	pendingUnsubscriptions map[uint64]pendingUnsubscription
	subscriptions          map[uint64]*wampevents.SubscriptionSink

	pendingRegistrations   map[uint64]*wampevents.CalleeSink
	pendingUnregistrations map[uint64]pendingUnregistration
	registrations          map[uint64]*wampevents.CalleeSink

	pendingCalls        map[uint64]*wampevents.CallerSink
	pendingPublications map[uint64]*wampevents.PublicationSink
}

// Option configures a Session constructed by New.
type Option func(*Session)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDAllocator overrides the default request-id allocator,
// primarily for tests that want deterministic or pre-seeded ids.
func WithIDAllocator(ids *wampid.Allocator) Option {
	return func(s *Session) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithInstanceID overrides the generated UUIDv7 instance id attached
// to every log line this session emits. The instance id carries no
// wire meaning; it exists purely to correlate log output across
// reconnects in an operator's log aggregator.
func WithInstanceID(id string) Option {
	return func(s *Session) {
		s.instanceID = id
	}
}

// New constructs a Session in state INITIAL, bound to transport for
// its entire lifetime and reporting lifecycle events to listener.
// listener may be nil, in which case NopListener semantics apply.
func New(transport Transport, listener Listener, opts ...Option) *Session {
	if listener == nil {
		listener = NopListener{}
	}
	s := &Session{
		transport: transport,
		listener:  listener,
		logger:    slog.Default(),
		ids:       wampid.New(),
		state:     StateInitial,

		pendingSubscriptions:   make(map[uint64]*wampevents.SubscriptionSink),
		pendingUnsubscriptions: make(map[uint64]pendingUnsubscription),
		subscriptions:          make(map[uint64]*wampevents.SubscriptionSink),

		pendingRegistrations:   make(map[uint64]*wampevents.CalleeSink),
		pendingUnregistrations: make(map[uint64]pendingUnregistration),
		registrations:          make(map[uint64]*wampevents.CalleeSink),

		pendingCalls:        make(map[uint64]*wampevents.CallerSink),
		pendingPublications: make(map[uint64]*wampevents.PublicationSink),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.instanceID == "" {
		if id, err := uuid.NewV7(); err == nil {
			s.instanceID = id.String()
		}
	}
	return s
}

// State reports the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Realm reports the realm name passed to Join, retained for the life
// of the session even after leaving.
func (s *Session) Realm() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realm
}

// log returns a logger with the session's instance id attached.
func (s *Session) log() *slog.Logger {
	return s.logger.With("instance_id", s.instanceID)
}

func (s *Session) logTrace(msg string, args ...any) {
	s.log().Log(context.Background(), config.LevelTrace, msg, args...)
}
