// Package api wires the auth facade and its transport adapters into the
// authmaster HTTP service.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/authmaster/auth"
	"github.com/kbukum/authmaster/auth/basic"
	"github.com/kbukum/authmaster/logger"
	"github.com/kbukum/authmaster/observability"
	"github.com/kbukum/authmaster/server"
	"github.com/kbukum/authmaster/server/middleware"
	"github.com/kbukum/authmaster/socket"
)

// API holds the dependencies shared by the routes.
type API struct {
	master  *auth.Master
	cfg     *auth.Config
	log     *logger.Logger
	metrics *observability.AuthMetrics
	users   basic.Verifier
	sockets *socket.Server
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the route logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.log = l
		}
	}
}

// WithMetrics records adapter decisions.
func WithMetrics(m *observability.AuthMetrics) Option {
	return func(a *API) { a.metrics = m }
}

// New builds the API. cfg must have had ApplyDefaults called.
func New(m *auth.Master, cfg *auth.Config, opts ...Option) *API {
	a := &API{
		master: m,
		cfg:    cfg,
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if hashes := cfg.BasicHashes(); len(hashes) > 0 {
		a.users = basic.NewBcryptUsers(hashes)
	}

	a.sockets = socket.NewServer(socket.WithLogger(a.log))
	a.sockets.Use(socket.Authenticate(m.Resolver(), cfg.SocketKeys,
		socket.WithRequired(cfg.Required),
		socket.WithAuthLogger(a.log),
		socket.WithAuthMetrics(a.metrics),
	))
	a.sockets.OnConnect(a.echo)
	return a
}

// Sockets returns the socket server mounted at /ws.
func (a *API) Sockets() *socket.Server { return a.sockets }

// Register mounts every route on s.
func (a *API) Register(s *server.Server) {
	a.Routes(s.GinEngine())
	s.Handle("/ws", a.sockets)
}

// Routes registers the HTTP routes on r.
func (a *API) Routes(r gin.IRouter) {
	v1 := r.Group("/v1")

	issue := []gin.HandlerFunc{}
	if a.users != nil {
		issue = append(issue, a.basic(middleware.Required()))
	}
	v1.POST("/tokens", append(issue, a.issue)...)
	v1.POST("/tokens/verify", a.verify)
	v1.GET("/basic", a.parseBasic)

	v1.GET("/me", a.bearer(middleware.Required()), a.me)
	v1.GET("/whoami", a.bearer(), a.me)
	v1.GET("/basic/me", a.basic(middleware.Required()), a.me)
}

func (a *API) bearer(opts ...middleware.AuthOption) gin.HandlerFunc {
	opts = append([]middleware.AuthOption{
		middleware.WithSources(a.cfg.BearerSources()),
		middleware.WithAuthLogger(a.log),
		middleware.WithAuthMetrics(a.metrics),
	}, opts...)
	return middleware.Bearer(a.master.Resolver(), a.cfg.BearerKeys, opts...)
}

func (a *API) basic(opts ...middleware.AuthOption) gin.HandlerFunc {
	opts = append([]middleware.AuthOption{
		middleware.WithSources(a.cfg.BasicSources()),
		middleware.WithAuthLogger(a.log),
		middleware.WithAuthMetrics(a.metrics),
	}, opts...)
	if a.users != nil {
		opts = append(opts, middleware.WithVerifier(a.users))
	}
	return middleware.Basic(opts...)
}
