package wampmsg

import (
	"encoding/json"
	"fmt"
)

// InvalidKind classifies why Decode rejected a wire frame.
type InvalidKind int

const (
	// InvalidParseError means the text was not a well-formed JSON array
	// with an integer first element.
	InvalidParseError InvalidKind = iota
	// InvalidUnknownType means the text parsed fine but named a message
	// type this codec does not know.
	InvalidUnknownType
)

func (k InvalidKind) String() string {
	switch k {
	case InvalidParseError:
		return "parse-error"
	case InvalidUnknownType:
		return "unknown-type"
	default:
		return "invalid"
	}
}

// InvalidMessageError is returned by Decode when text cannot be turned
// into one of the 20 known message variants. It carries the original
// text so callers can log or echo it verbatim. A value of this type
// never round-trips through Encode.
type InvalidMessageError struct {
	Raw  string
	Kind InvalidKind
	Err  error // underlying JSON or structural error; for InvalidUnknownType, an error naming the type number
}

func (e *InvalidMessageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wampmsg: invalid message (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("wampmsg: invalid message (%s)", e.Kind)
}

func (e *InvalidMessageError) Unwrap() error { return e.Err }

// Encode serializes m to its compact JSON array form. The output has no
// extraneous whitespace and fields appear in the fixed positional order
// the WAMP grammar assigns to m's variant.
func Encode(m Message) (string, error) {
	arr, err := arrayFor(m)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(arr)
	if err != nil {
		return "", fmt.Errorf("wampmsg: encode %T: %w", m, err)
	}
	return string(data), nil
}

// Decode parses text as a single WAMP message. On success it returns one
// of the variant types defined in this package. On failure it returns a
// nil Message and an *InvalidMessageError.
func Decode(text string) (Message, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, &InvalidMessageError{Raw: text, Kind: InvalidParseError, Err: err}
	}
	if len(raw) == 0 {
		return nil, &InvalidMessageError{Raw: text, Kind: InvalidParseError, Err: fmt.Errorf("empty array")}
	}

	var typeNum int
	if err := json.Unmarshal(raw[0], &typeNum); err != nil {
		return nil, &InvalidMessageError{Raw: text, Kind: InvalidParseError, Err: fmt.Errorf("non-integer message type: %w", err)}
	}

	decodeFn, ok := decoders[MessageType(typeNum)]
	if !ok {
		return nil, &InvalidMessageError{Raw: text, Kind: InvalidUnknownType, Err: fmt.Errorf("unknown message type %d", typeNum)}
	}

	msg, err := decodeFn(raw)
	if err != nil {
		return nil, &InvalidMessageError{Raw: text, Kind: InvalidParseError, Err: err}
	}
	return msg, nil
}

// appendArgs implements the trailing args/argsKw serialization rule:
// both absent emits nothing; argsKw present with args absent synthesizes
// an empty args array to preserve the positional index.
func appendArgs(arr []any, args []any, argsKw map[string]any) []any {
	if args == nil && argsKw == nil {
		return arr
	}
	if args == nil {
		args = []any{}
	}
	arr = append(arr, args)
	if argsKw != nil {
		arr = append(arr, argsKw)
	}
	return arr
}

// decodeTrailing reads the optional args/argsKw elements starting at
// index from, if present. A shorter array leaves both nil (absent).
func decodeTrailing(raw []json.RawMessage, from int) (args []any, argsKw map[string]any, err error) {
	if len(raw) > from {
		if err = json.Unmarshal(raw[from], &args); err != nil {
			return nil, nil, fmt.Errorf("args: %w", err)
		}
	}
	if len(raw) > from+1 {
		if err = json.Unmarshal(raw[from+1], &argsKw); err != nil {
			return nil, nil, fmt.Errorf("argsKw: %w", err)
		}
	}
	return args, argsKw, nil
}

func detailsOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func arrayFor(m Message) ([]any, error) {
	switch v := m.(type) {
	case Hello:
		return []any{TypeHello, v.Realm, detailsOrEmpty(v.Details)}, nil
	case Welcome:
		return []any{TypeWelcome, v.Session, detailsOrEmpty(v.Details)}, nil
	case Abort:
		return []any{TypeAbort, detailsOrEmpty(v.Details), v.Reason}, nil
	case Goodbye:
		return []any{TypeGoodbye, detailsOrEmpty(v.Details), v.Reason}, nil
	case Error:
		arr := []any{TypeError, v.OriginalType, v.RequestID, detailsOrEmpty(v.Details), v.Error}
		return appendArgs(arr, v.Args, v.ArgsKw), nil
	case Publish:
		arr := []any{TypePublish, v.RequestID, detailsOrEmpty(v.Options), v.Topic}
		return appendArgs(arr, v.Args, v.ArgsKw), nil
	case Published:
		return []any{TypePublished, v.RequestID, v.PublicationID}, nil
	case Subscribe:
		return []any{TypeSubscribe, v.RequestID, detailsOrEmpty(v.Options), v.Topic}, nil
	case Subscribed:
		return []any{TypeSubscribed, v.RequestID, v.SubscriptionID}, nil
	case Unsubscribe:
		return []any{TypeUnsubscribe, v.RequestID, v.SubscriptionID}, nil
	case Unsubscribed:
		return []any{TypeUnsubscribed, v.RequestID}, nil
	case Event:
		arr := []any{TypeEvent, v.SubscriptionID, v.PublicationID, detailsOrEmpty(v.Details)}
		return appendArgs(arr, v.Args, v.ArgsKw), nil
	case Call:
		arr := []any{TypeCall, v.RequestID, detailsOrEmpty(v.Options), v.Procedure}
		return appendArgs(arr, v.Args, v.ArgsKw), nil
	case Result:
		arr := []any{TypeResult, v.RequestID, detailsOrEmpty(v.Details)}
		return appendArgs(arr, v.Args, v.ArgsKw), nil
	case Register:
		return []any{TypeRegister, v.RequestID, detailsOrEmpty(v.Options), v.Procedure}, nil
	case Registered:
		return []any{TypeRegistered, v.RequestID, v.RegistrationID}, nil
	case Unregister:
		return []any{TypeUnregister, v.RequestID, v.RegistrationID}, nil
	case Unregistered:
		return []any{TypeUnregistered, v.RequestID}, nil
	case Invocation:
		arr := []any{TypeInvocation, v.RequestID, v.RegistrationID, detailsOrEmpty(v.Details)}
		return appendArgs(arr, v.Args, v.ArgsKw), nil
	case Yield:
		arr := []any{TypeYield, v.RequestID, detailsOrEmpty(v.Options)}
		return appendArgs(arr, v.Args, v.ArgsKw), nil
	default:
		return nil, fmt.Errorf("wampmsg: unknown message variant %T", m)
	}
}

type decodeFunc func(raw []json.RawMessage) (Message, error)

var decoders = map[MessageType]decodeFunc{
	TypeHello:        decodeHello,
	TypeWelcome:      decodeWelcome,
	TypeAbort:        decodeAbort,
	TypeGoodbye:      decodeGoodbye,
	TypeError:        decodeError,
	TypePublish:      decodePublish,
	TypePublished:    decodePublished,
	TypeSubscribe:    decodeSubscribe,
	TypeSubscribed:   decodeSubscribed,
	TypeUnsubscribe:  decodeUnsubscribe,
	TypeUnsubscribed: decodeUnsubscribed,
	TypeEvent:        decodeEvent,
	TypeCall:         decodeCall,
	TypeResult:       decodeResult,
	TypeRegister:     decodeRegister,
	TypeRegistered:   decodeRegistered,
	TypeUnregister:   decodeUnregister,
	TypeUnregistered: decodeUnregistered,
	TypeInvocation:   decodeInvocation,
	TypeYield:        decodeYield,
}

func need(raw []json.RawMessage, n int, name string) error {
	if len(raw) < n {
		return fmt.Errorf("%s: expected at least %d elements, got %d", name, n, len(raw))
	}
	return nil
}

func decodeHello(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 3, "HELLO"); err != nil {
		return nil, err
	}
	var m Hello
	if err := json.Unmarshal(raw[1], &m.Realm); err != nil {
		return nil, fmt.Errorf("HELLO realm: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.Details); err != nil {
		return nil, fmt.Errorf("HELLO details: %w", err)
	}
	return m, nil
}

func decodeWelcome(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 3, "WELCOME"); err != nil {
		return nil, err
	}
	var m Welcome
	if err := json.Unmarshal(raw[1], &m.Session); err != nil {
		return nil, fmt.Errorf("WELCOME session: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.Details); err != nil {
		return nil, fmt.Errorf("WELCOME details: %w", err)
	}
	return m, nil
}

func decodeAbort(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 3, "ABORT"); err != nil {
		return nil, err
	}
	var m Abort
	if err := json.Unmarshal(raw[1], &m.Details); err != nil {
		return nil, fmt.Errorf("ABORT details: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.Reason); err != nil {
		return nil, fmt.Errorf("ABORT reason: %w", err)
	}
	return m, nil
}

func decodeGoodbye(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 3, "GOODBYE"); err != nil {
		return nil, err
	}
	var m Goodbye
	if err := json.Unmarshal(raw[1], &m.Details); err != nil {
		return nil, fmt.Errorf("GOODBYE details: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.Reason); err != nil {
		return nil, fmt.Errorf("GOODBYE reason: %w", err)
	}
	return m, nil
}

func decodeError(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 5, "ERROR"); err != nil {
		return nil, err
	}
	var m Error
	var origType int
	if err := json.Unmarshal(raw[1], &origType); err != nil {
		return nil, fmt.Errorf("ERROR originalType: %w", err)
	}
	m.OriginalType = MessageType(origType)
	if err := json.Unmarshal(raw[2], &m.RequestID); err != nil {
		return nil, fmt.Errorf("ERROR requestId: %w", err)
	}
	if err := json.Unmarshal(raw[3], &m.Details); err != nil {
		return nil, fmt.Errorf("ERROR details: %w", err)
	}
	if err := json.Unmarshal(raw[4], &m.Error); err != nil {
		return nil, fmt.Errorf("ERROR errorUri: %w", err)
	}
	var err error
	if m.Args, m.ArgsKw, err = decodeTrailing(raw, 5); err != nil {
		return nil, fmt.Errorf("ERROR %w", err)
	}
	return m, nil
}

func decodePublish(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 4, "PUBLISH"); err != nil {
		return nil, err
	}
	var m Publish
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("PUBLISH requestId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.Options); err != nil {
		return nil, fmt.Errorf("PUBLISH options: %w", err)
	}
	if err := json.Unmarshal(raw[3], &m.Topic); err != nil {
		return nil, fmt.Errorf("PUBLISH topic: %w", err)
	}
	var err error
	if m.Args, m.ArgsKw, err = decodeTrailing(raw, 4); err != nil {
		return nil, fmt.Errorf("PUBLISH %w", err)
	}
	return m, nil
}

func decodePublished(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 3, "PUBLISHED"); err != nil {
		return nil, err
	}
	var m Published
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("PUBLISHED requestId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.PublicationID); err != nil {
		return nil, fmt.Errorf("PUBLISHED publicationId: %w", err)
	}
	return m, nil
}

func decodeSubscribe(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 4, "SUBSCRIBE"); err != nil {
		return nil, err
	}
	var m Subscribe
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("SUBSCRIBE requestId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.Options); err != nil {
		return nil, fmt.Errorf("SUBSCRIBE options: %w", err)
	}
	if err := json.Unmarshal(raw[3], &m.Topic); err != nil {
		return nil, fmt.Errorf("SUBSCRIBE topic: %w", err)
	}
	return m, nil
}

func decodeSubscribed(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 3, "SUBSCRIBED"); err != nil {
		return nil, err
	}
	var m Subscribed
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("SUBSCRIBED requestId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.SubscriptionID); err != nil {
		return nil, fmt.Errorf("SUBSCRIBED subscriptionId: %w", err)
	}
	return m, nil
}

func decodeUnsubscribe(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 3, "UNSUBSCRIBE"); err != nil {
		return nil, err
	}
	var m Unsubscribe
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("UNSUBSCRIBE requestId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.SubscriptionID); err != nil {
		return nil, fmt.Errorf("UNSUBSCRIBE subscriptionId: %w", err)
	}
	return m, nil
}

func decodeUnsubscribed(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 2, "UNSUBSCRIBED"); err != nil {
		return nil, err
	}
	var m Unsubscribed
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("UNSUBSCRIBED requestId: %w", err)
	}
	return m, nil
}

func decodeEvent(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 4, "EVENT"); err != nil {
		return nil, err
	}
	var m Event
	if err := json.Unmarshal(raw[1], &m.SubscriptionID); err != nil {
		return nil, fmt.Errorf("EVENT subscriptionId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.PublicationID); err != nil {
		return nil, fmt.Errorf("EVENT publicationId: %w", err)
	}
	if err := json.Unmarshal(raw[3], &m.Details); err != nil {
		return nil, fmt.Errorf("EVENT details: %w", err)
	}
	var err error
	if m.Args, m.ArgsKw, err = decodeTrailing(raw, 4); err != nil {
		return nil, fmt.Errorf("EVENT %w", err)
	}
	return m, nil
}

func decodeCall(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 4, "CALL"); err != nil {
		return nil, err
	}
	var m Call
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("CALL requestId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.Options); err != nil {
		return nil, fmt.Errorf("CALL options: %w", err)
	}
	if err := json.Unmarshal(raw[3], &m.Procedure); err != nil {
		return nil, fmt.Errorf("CALL procedure: %w", err)
	}
	var err error
	if m.Args, m.ArgsKw, err = decodeTrailing(raw, 4); err != nil {
		return nil, fmt.Errorf("CALL %w", err)
	}
	return m, nil
}

func decodeResult(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 3, "RESULT"); err != nil {
		return nil, err
	}
	var m Result
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("RESULT requestId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.Details); err != nil {
		return nil, fmt.Errorf("RESULT details: %w", err)
	}
	var err error
	if m.Args, m.ArgsKw, err = decodeTrailing(raw, 3); err != nil {
		return nil, fmt.Errorf("RESULT %w", err)
	}
	return m, nil
}

func decodeRegister(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 4, "REGISTER"); err != nil {
		return nil, err
	}
	var m Register
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("REGISTER requestId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.Options); err != nil {
		return nil, fmt.Errorf("REGISTER options: %w", err)
	}
	if err := json.Unmarshal(raw[3], &m.Procedure); err != nil {
		return nil, fmt.Errorf("REGISTER procedure: %w", err)
	}
	return m, nil
}

func decodeRegistered(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 3, "REGISTERED"); err != nil {
		return nil, err
	}
	var m Registered
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("REGISTERED requestId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.RegistrationID); err != nil {
		return nil, fmt.Errorf("REGISTERED registrationId: %w", err)
	}
	return m, nil
}

func decodeUnregister(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 3, "UNREGISTER"); err != nil {
		return nil, err
	}
	var m Unregister
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("UNREGISTER requestId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.RegistrationID); err != nil {
		return nil, fmt.Errorf("UNREGISTER registrationId: %w", err)
	}
	return m, nil
}

func decodeUnregistered(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 2, "UNREGISTERED"); err != nil {
		return nil, err
	}
	var m Unregistered
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("UNREGISTERED requestId: %w", err)
	}
	return m, nil
}

func decodeInvocation(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 4, "INVOCATION"); err != nil {
		return nil, err
	}
	var m Invocation
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("INVOCATION requestId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.RegistrationID); err != nil {
		return nil, fmt.Errorf("INVOCATION registrationId: %w", err)
	}
	if err := json.Unmarshal(raw[3], &m.Details); err != nil {
		return nil, fmt.Errorf("INVOCATION details: %w", err)
	}
	var err error
	if m.Args, m.ArgsKw, err = decodeTrailing(raw, 4); err != nil {
		return nil, fmt.Errorf("INVOCATION %w", err)
	}
	return m, nil
}

func decodeYield(raw []json.RawMessage) (Message, error) {
	if err := need(raw, 3, "YIELD"); err != nil {
		return nil, err
	}
	var m Yield
	if err := json.Unmarshal(raw[1], &m.RequestID); err != nil {
		return nil, fmt.Errorf("YIELD requestId: %w", err)
	}
	if err := json.Unmarshal(raw[2], &m.Options); err != nil {
		return nil, fmt.Errorf("YIELD options: %w", err)
	}
	var err error
	if m.Args, m.ArgsKw, err = decodeTrailing(raw, 3); err != nil {
		return nil, fmt.Errorf("YIELD %w", err)
	}
	return m, nil
}
