package socket

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kbukum/authmaster/auth/authctx"
)

// Handshake holds the request fields available before the upgrade.
type Handshake struct {
	Headers    http.Header
	Query      url.Values
	RemoteAddr string
}

// Request is the side object attached to a socket. The embedded identity is
// nil for an unauthenticated connection, leaving only Query and Headers.
type Request struct {
	*authctx.Identity
	Query   url.Values  `json:"query"`
	Headers http.Header `json:"headers"`
}

// Socket is one connection. Req is set by the authentication middleware and
// not changed after the handshake.
type Socket struct {
	ID        string
	Handshake Handshake
	Req       *Request

	ctx  context.Context
	conn *websocket.Conn
	wmu  sync.Mutex
}

func newSocket(r *http.Request) *Socket {
	return &Socket{
		ID: uuid.New().String(),
		Handshake: Handshake{
			Headers:    r.Header.Clone(),
			Query:      r.URL.Query(),
			RemoteAddr: r.RemoteAddr,
		},
		ctx: r.Context(),
	}
}

// Context returns the connection context. It carries the identity when
// the handshake authenticated.
func (s *Socket) Context() context.Context { return s.ctx }

// Identity returns the identity resolved at handshake time.
func (s *Socket) Identity() (*authctx.Identity, bool) {
	if s.Req == nil || s.Req.Identity == nil {
		return nil, false
	}
	return s.Req.Identity, true
}

// ReadJSON reads the next JSON message.
func (s *Socket) ReadJSON(v any) error {
	return s.conn.ReadJSON(v)
}

// WriteJSON writes v as a JSON message. Safe for concurrent use.
func (s *Socket) WriteJSON(v any) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteJSON(v)
}

// Close sends a normal close frame and closes the connection.
func (s *Socket) Close() error {
	s.wmu.Lock()
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.wmu.Unlock()
	return s.conn.Close()
}
