// Package wamptransport implements wampsession.Transport over a real
// WebSocket connection, advertising the wamp.2.json subprotocol.
package wamptransport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nugget/gowamp/internal/buildinfo"
	"github.com/nugget/gowamp/internal/wampsession"
)

const subprotocol = "wamp.2.json"

// Dial-time buffer sizes. WAMP payloads are typically small JSON
// documents, but a router may legitimately push a large EVENT or
// RESULT; size generously rather than fragment.
const (
	readBufferSize  = 64 * 1024
	writeBufferSize = 16 * 1024
)

// WebSocketTransport implements wampsession.Transport over a
// gorilla/websocket connection. Construct one with New, bind it to a
// *wampsession.Session via wampsession.New, then call Connect — the
// two-phase split mirrors the teacher's WSClient, since the session
// must exist (to serve as Callbacks) before the dial happens, and the
// transport must exist (to serve as Transport) before the session
// does.
type WebSocketTransport struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	logger  *slog.Logger
}

// New returns a WebSocketTransport with no connection yet. Call
// Connect to dial a router before passing it to anything that sends.
func New(logger *slog.Logger) *WebSocketTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketTransport{logger: logger}
}

// Connect dials url advertising the wamp.2.json subprotocol and starts
// a read loop that drives callbacks until the connection closes or
// fails. Callers do not need to manage the read loop themselves.
func (t *WebSocketTransport) Connect(ctx context.Context, url string, callbacks wampsession.Callbacks) error {
	dialer := websocket.Dialer{
		ReadBufferSize:   readBufferSize,
		WriteBufferSize:  writeBufferSize,
		Subprotocols:     []string{subprotocol},
		HandshakeTimeout: 0, // bounded by ctx instead
	}

	header := http.Header{}
	header.Set("User-Agent", buildinfo.UserAgent())

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	if resp != nil && resp.Header.Get("Sec-WebSocket-Protocol") != subprotocol {
		t.logger.Warn("router did not confirm wamp.2.json subprotocol", "url", url)
	}

	t.conn = conn
	callbacks.OnOpen()
	go t.readLoop(callbacks)
	return nil
}

// SendText implements wampsession.Transport.
func (t *WebSocketTransport) SendText(text string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Close implements wampsession.Transport.
func (t *WebSocketTransport) Close(code int, reason string) error {
	t.writeMu.Lock()
	deadline := time.Now().Add(time.Second)
	closeMsg := websocket.FormatCloseMessage(code, reason)
	_ = t.conn.WriteControl(websocket.CloseMessage, closeMsg, deadline)
	t.writeMu.Unlock()
	return t.conn.Close()
}

func (t *WebSocketTransport) readLoop(callbacks wampsession.Callbacks) {
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				callbacks.OnClosed(closeErr.Code, closeErr.Text)
			} else {
				callbacks.OnFailure(err)
			}
			return
		}

		switch kind {
		case websocket.TextMessage:
			callbacks.OnText(string(data))
		case websocket.BinaryMessage:
			callbacks.OnBinary(data)
		default:
			// gorilla/websocket handles close and control frames
			// internally; ReadMessage only ever returns text or binary.
			t.logger.Debug("ignoring unexpected websocket frame kind", "kind", kind)
		}
	}
}
