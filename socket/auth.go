package socket

import (
	"errors"
	"fmt"

	"github.com/kbukum/authmaster/auth/authctx"
	"github.com/kbukum/authmaster/auth/extract"
	"github.com/kbukum/authmaster/auth/resolver"
	"github.com/kbukum/authmaster/logger"
	"github.com/kbukum/authmaster/observability"
)

// Transport is the metric attribute value for socket handshakes.
const Transport = "socket"

// ErrInvalidToken is the cause reported when a required handshake does not
// authenticate.
var ErrInvalidToken = errors.New("invalid token")

// AuthError rejects a handshake.
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string { return "authentication error: " + e.Cause.Error() }

func (e *AuthError) Unwrap() error { return e.Cause }

// AuthOption configures Authenticate.
type AuthOption func(*authOptions)

type authOptions struct {
	required bool
	log      *logger.Logger
	metrics  *observability.AuthMetrics
}

// Required rejects handshakes that do not authenticate.
func Required() AuthOption {
	return WithRequired(true)
}

// WithRequired sets required mode explicitly.
func WithRequired(required bool) AuthOption {
	return func(o *authOptions) { o.required = required }
}

// WithAuthLogger sets the middleware logger.
func WithAuthLogger(l *logger.Logger) AuthOption {
	return func(o *authOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithAuthMetrics records handshake outcomes.
func WithAuthMetrics(m *observability.AuthMetrics) AuthOption {
	return func(o *authOptions) { o.metrics = m }
}

// Authenticate returns middleware that resolves the handshake credential
// against keyNames in order. The credential is read from the Authorization
// header, then the Authorization query parameter, then authMasterTokenBearer.
//
// Socket.Req always receives the handshake query and headers. The identity
// fields are added only on a match.
func Authenticate(res *resolver.Resolver, keyNames []string, opts ...AuthOption) Middleware {
	o := &authOptions{log: logger.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	log := o.log.WithComponent("socket.auth")
	names := append([]string(nil), keyNames...)

	return func(s *Socket) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &AuthError{Cause: fmt.Errorf("%v", r)}
				s.ctx = authctx.Clear(s.ctx)
				log.Error("handshake authentication failed internally", logger.Fields(
					logger.FieldSocketID, s.ID,
					logger.FieldError, err.Error(),
				))
				o.metrics.RecordAdapter(s.ctx, Transport, observability.StateRejected)
			}
		}()

		s.Req = &Request{Query: s.Handshake.Query, Headers: s.Handshake.Headers}

		credential := extract.Handshake(s.Handshake.Headers, s.Handshake.Query)
		if credential != "" {
			if id, ok := res.Resolve(s.ctx, names, credential); ok {
				s.Req.Identity = id
				s.ctx = authctx.WithIdentity(s.ctx, id)
				log.Debug("handshake authenticated", logger.Fields(
					logger.FieldSocketID, s.ID,
					logger.FieldKeyName, id.TokenUser,
				))
				o.metrics.RecordAdapter(s.ctx, Transport, observability.StateAuthenticated)
				return nil
			}
		}

		s.ctx = authctx.Clear(s.ctx)
		if o.required {
			log.Warn("handshake rejected", logger.Fields(logger.FieldSocketID, s.ID))
			o.metrics.RecordAdapter(s.ctx, Transport, observability.StateRejected)
			return &AuthError{Cause: ErrInvalidToken}
		}
		log.Debug("anonymous handshake", logger.Fields(logger.FieldSocketID, s.ID))
		o.metrics.RecordAdapter(s.ctx, Transport, observability.StateUnauthenticated)
		return nil
	}
}
