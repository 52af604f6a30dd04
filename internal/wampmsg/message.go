// Package wampmsg implements the WAMP v2 JSON message grammar: the 20
// message variants exchanged between a client and a router, and their
// encoding to/from the compact JSON array form carried by the
// wamp.2.json subprotocol.
package wampmsg

// MessageType is the small integer code identifying a WAMP message
// variant. It occupies element zero of every encoded message array.
type MessageType int

// Message type codes, per the WAMP v2 basic profile.
const (
	TypeHello        MessageType = 1
	TypeWelcome      MessageType = 2
	TypeAbort        MessageType = 3
	TypeGoodbye      MessageType = 6
	TypeError        MessageType = 8
	TypePublish      MessageType = 16
	TypePublished    MessageType = 17
	TypeSubscribe    MessageType = 32
	TypeSubscribed   MessageType = 33
	TypeUnsubscribe  MessageType = 34
	TypeUnsubscribed MessageType = 35
	TypeEvent        MessageType = 36
	TypeCall         MessageType = 48
	TypeResult       MessageType = 50
	TypeRegister     MessageType = 64
	TypeRegistered   MessageType = 65
	TypeUnregister   MessageType = 66
	TypeUnregistered MessageType = 67
	TypeInvocation   MessageType = 68
	TypeYield        MessageType = 70
)

// names gives a short human-readable label for each known type, used in
// log lines and abort diagnostics. String() returns "UNKNOWN" for any
// type not listed here.
var names = map[MessageType]string{
	TypeHello:        "HELLO",
	TypeWelcome:      "WELCOME",
	TypeAbort:        "ABORT",
	TypeGoodbye:      "GOODBYE",
	TypeError:        "ERROR",
	TypePublish:      "PUBLISH",
	TypePublished:    "PUBLISHED",
	TypeSubscribe:    "SUBSCRIBE",
	TypeSubscribed:   "SUBSCRIBED",
	TypeUnsubscribe:  "UNSUBSCRIBE",
	TypeUnsubscribed: "UNSUBSCRIBED",
	TypeEvent:        "EVENT",
	TypeCall:         "CALL",
	TypeResult:       "RESULT",
	TypeRegister:     "REGISTER",
	TypeRegistered:   "REGISTERED",
	TypeUnregister:   "UNREGISTER",
	TypeUnregistered: "UNREGISTERED",
	TypeInvocation:   "INVOCATION",
	TypeYield:        "YIELD",
}

func (t MessageType) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return "UNKNOWN"
}

// Message is implemented by every WAMP message variant. Type identifies
// the variant for logging and for routing ERROR replies back to the
// pending table that issued the original request.
type Message interface {
	Type() MessageType
}

// Hello is sent by the client to initiate a session on a realm.
// [1, realm, details]
type Hello struct {
	Realm   string
	Details map[string]any
}

func (Hello) Type() MessageType { return TypeHello }

// Welcome is sent by the router to accept a HELLO.
// [2, session, details]
type Welcome struct {
	Session uint64
	Details map[string]any
}

func (Welcome) Type() MessageType { return TypeWelcome }

// Abort terminates a session before or after WELCOME, in either
// direction. [3, details, reason]
type Abort struct {
	Details map[string]any
	Reason  string
}

func (Abort) Type() MessageType { return TypeAbort }

// Goodbye begins or acknowledges an orderly session close.
// [6, details, reason]
type Goodbye struct {
	Details map[string]any
	Reason  string
}

func (Goodbye) Type() MessageType { return TypeGoodbye }

// Error reports failure of a prior request. OriginalType identifies the
// request message type being responded to, so the receiver can route
// the failure to the correct pending table.
// [8, origType, requestId, details, errorUri, (args?), (argsKw?)]
type Error struct {
	OriginalType MessageType
	RequestID    uint64
	Details      map[string]any
	Error        string
	Args         []any
	ArgsKw       map[string]any
}

func (Error) Type() MessageType { return TypeError }

// Publish asks the broker to dispatch an event to a topic's subscribers.
// [16, requestId, options, topic, (args?), (argsKw?)]
type Publish struct {
	RequestID uint64
	Options   map[string]any
	Topic     string
	Args      []any
	ArgsKw    map[string]any
}

func (Publish) Type() MessageType { return TypePublish }

// Published acknowledges a PUBLISH made with options.acknowledge=true.
// [17, requestId, publicationId]
type Published struct {
	RequestID     uint64
	PublicationID uint64
}

func (Published) Type() MessageType { return TypePublished }

// Subscribe asks the broker to register interest in a topic.
// [32, requestId, options, topic]
type Subscribe struct {
	RequestID uint64
	Options   map[string]any
	Topic     string
}

func (Subscribe) Type() MessageType { return TypeSubscribe }

// Subscribed acknowledges a SUBSCRIBE, assigning a SubscriptionId.
// [33, requestId, subscriptionId]
type Subscribed struct {
	RequestID      uint64
	SubscriptionID uint64
}

func (Subscribed) Type() MessageType { return TypeSubscribed }

// Unsubscribe asks the broker to remove a subscription.
// [34, requestId, subscriptionId]
type Unsubscribe struct {
	RequestID      uint64
	SubscriptionID uint64
}

func (Unsubscribe) Type() MessageType { return TypeUnsubscribe }

// Unsubscribed acknowledges an UNSUBSCRIBE.
// [35, requestId]
type Unsubscribed struct {
	RequestID uint64
}

func (Unsubscribed) Type() MessageType { return TypeUnsubscribed }

// Event delivers a published payload to a subscriber.
// [36, subscriptionId, publicationId, details, (args?), (argsKw?)]
type Event struct {
	SubscriptionID uint64
	PublicationID  uint64
	Details        map[string]any
	Args           []any
	ArgsKw         map[string]any
}

func (Event) Type() MessageType { return TypeEvent }

// Call invokes a remote procedure via the dealer.
// [48, requestId, options, procedure, (args?), (argsKw?)]
type Call struct {
	RequestID uint64
	Options   map[string]any
	Procedure string
	Args      []any
	ArgsKw    map[string]any
}

func (Call) Type() MessageType { return TypeCall }

// Result carries the successful outcome of a CALL.
// [50, requestId, details, (args?), (argsKw?)]
type Result struct {
	RequestID uint64
	Details   map[string]any
	Args      []any
	ArgsKw    map[string]any
}

func (Result) Type() MessageType { return TypeResult }

// Register asks the dealer to bind a procedure URI to this session.
// [64, requestId, options, procedure]
type Register struct {
	RequestID uint64
	Options   map[string]any
	Procedure string
}

func (Register) Type() MessageType { return TypeRegister }

// Registered acknowledges a REGISTER, assigning a RegistrationId.
// [65, requestId, registrationId]
type Registered struct {
	RequestID      uint64
	RegistrationID uint64
}

func (Registered) Type() MessageType { return TypeRegistered }

// Unregister asks the dealer to remove a registration.
// [66, requestId, registrationId]
type Unregister struct {
	RequestID      uint64
	RegistrationID uint64
}

func (Unregister) Type() MessageType { return TypeUnregister }

// Unregistered acknowledges an UNREGISTER.
// [67, requestId]
type Unregistered struct {
	RequestID uint64
}

func (Unregistered) Type() MessageType { return TypeUnregistered }

// Invocation delivers a routed call to the callee that registered its
// procedure. [68, requestId, registrationId, details, (args?), (argsKw?)]
type Invocation struct {
	RequestID      uint64
	RegistrationID uint64
	Details        map[string]any
	Args           []any
	ArgsKw         map[string]any
}

func (Invocation) Type() MessageType { return TypeInvocation }

// Yield carries a callee's successful response to an INVOCATION.
// [70, requestId, options, (args?), (argsKw?)]
type Yield struct {
	RequestID uint64
	Options   map[string]any
	Args      []any
	ArgsKw    map[string]any
}

func (Yield) Type() MessageType { return TypeYield }
