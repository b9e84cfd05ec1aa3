package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/kbukum/authmaster/auth/envelope"
	"github.com/kbukum/authmaster/logger"
	"github.com/kbukum/authmaster/observability"
)

// Middleware runs once per connection before the upgrade. A non-nil error
// rejects the handshake.
type Middleware func(s *Socket) error

// Handler serves an established connection. The connection is closed when
// it returns.
type Handler func(s *Socket)

// Server upgrades authenticated handshakes and tracks live sockets.
type Server struct {
	upgrader    websocket.Upgrader
	middlewares []Middleware
	onConnect   Handler
	log         *logger.Logger

	mu      sync.RWMutex
	sockets map[string]*Socket
	closed  bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCheckOrigin overrides the upgrader origin check. The default accepts
// same-origin requests and requests without an Origin header.
func WithCheckOrigin(fn func(r *http.Request) bool) ServerOption {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// WithBufferSizes sets the upgrader read and write buffer sizes.
func WithBufferSizes(read, write int) ServerOption {
	return func(s *Server) {
		s.upgrader.ReadBufferSize = read
		s.upgrader.WriteBufferSize = write
	}
}

// NewServer creates a Server with no middleware.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		log:     logger.NewNop(),
		sockets: make(map[string]*Socket),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("socket")
	return s
}

// Use appends handshake middleware. Middleware runs in registration order.
func (s *Server) Use(mw ...Middleware) {
	s.middlewares = append(s.middlewares, mw...)
}

// OnConnect sets the connection handler.
func (s *Server) OnConnect(h Handler) {
	s.onConnect = h
}

// ServeHTTP runs the middleware and upgrades the connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sock := newSocket(r)
	for _, mw := range s.middlewares {
		if err := mw(sock); err != nil {
			reject(w, err)
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		s.log.Debug("upgrade failed", logger.Fields(
			logger.FieldSocketID, sock.ID,
			logger.FieldError, err.Error(),
		))
		return
	}
	sock.conn = conn

	if !s.register(sock) {
		_ = sock.Close()
		return
	}
	defer func() {
		s.unregister(sock)
		_ = sock.conn.Close()
	}()

	if s.onConnect != nil {
		s.onConnect(sock)
	}
}

// Len returns the number of live sockets.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sockets)
}

// CheckHealth reports the live socket count. A shut down server is down.
func (s *Server) CheckHealth(_ context.Context) observability.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := observability.ComponentUp("socket", map[string]string{"connections": strconv.Itoa(len(s.sockets))})
	if s.closed {
		return h.Fail("shut down")
	}
	return h
}

// Shutdown closes every live socket and refuses new ones.
func (s *Server) Shutdown() {
	s.mu.Lock()
	s.closed = true
	live := make([]*Socket, 0, len(s.sockets))
	for _, sock := range s.sockets {
		live = append(live, sock)
	}
	s.mu.Unlock()

	for _, sock := range live {
		_ = sock.Close()
	}
	s.log.Debug("all sockets closed", logger.Fields("count", len(live)))
}

func (s *Server) register(sock *Socket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sockets[sock.ID] = sock
	s.log.Debug("socket registered", logger.Fields(
		logger.FieldSocketID, sock.ID,
		"total", len(s.sockets),
	))
	return true
}

func (s *Server) unregister(sock *Socket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sockets, sock.ID)
	s.log.Debug("socket unregistered", logger.Fields(
		logger.FieldSocketID, sock.ID,
		"total", len(s.sockets),
	))
}

// reject answers a refused handshake. Every refusal is a 401.
func reject(w http.ResponseWriter, err error) {
	msg := err.Error()
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		msg = (&AuthError{Cause: err}).Error()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(envelope.Fail[any](envelope.CodeUnauthorized, msg))
}
