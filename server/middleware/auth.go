package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authmaster/auth/authctx"
	"github.com/kbukum/authmaster/auth/basic"
	"github.com/kbukum/authmaster/auth/envelope"
	"github.com/kbukum/authmaster/auth/extract"
	"github.com/kbukum/authmaster/auth/resolver"
	"github.com/kbukum/authmaster/logger"
	"github.com/kbukum/authmaster/observability"
)

// Gin context keys set on a successful authentication.
const (
	KeyAuthMaster = "authMaster"
	KeyID         = "_id"
	KeyUserID     = "user_id"
	KeyRole       = "role"
	KeyUser       = "user"
	KeyTokenUser  = "tokenUser"
	KeyToken      = "token"
)

var identityKeys = []string{KeyAuthMaster, KeyID, KeyUserID, KeyRole, KeyUser, KeyTokenUser, KeyToken}

// Transport names recorded as the "transport" metric attribute.
const (
	TransportBearer = "http_bearer"
	TransportBasic  = "http_basic"
)

// AuthOption configures the Bearer and Basic adapters.
type AuthOption func(*authOptions)

type authOptions struct {
	required bool
	sources  extract.Sources
	verifier basic.Verifier
	log      *logger.Logger
	metrics  *observability.AuthMetrics
}

// Required makes the adapter reject calls that do not authenticate.
func Required() AuthOption {
	return WithRequired(true)
}

// WithRequired sets required mode explicitly.
func WithRequired(required bool) AuthOption {
	return func(o *authOptions) { o.required = required }
}

// WithSources overrides the cookie and query fallbacks.
func WithSources(src extract.Sources) AuthOption {
	return func(o *authOptions) { o.sources = src }
}

// WithVerifier makes the Basic adapter check the password. Without one any
// well-formed Basic credential authenticates.
func WithVerifier(v basic.Verifier) AuthOption {
	return func(o *authOptions) { o.verifier = v }
}

// WithAuthLogger sets the adapter logger.
func WithAuthLogger(l *logger.Logger) AuthOption {
	return func(o *authOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithAuthMetrics records adapter outcomes.
func WithAuthMetrics(m *observability.AuthMetrics) AuthOption {
	return func(o *authOptions) { o.metrics = m }
}

func newAuthOptions(src extract.Sources, transport string, opts []AuthOption) *authOptions {
	o := &authOptions{sources: src, log: logger.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithComponent("middleware." + transport)
	return o
}

// Bearer returns a Gin middleware that resolves a bearer credential against
// keyNames in order. The credential comes from the Authorization header,
// then the cookie, then the query parameter.
//
// On success the identity is attached to the Gin context and the request
// context. Without a match a required adapter aborts with a 401 envelope and
// an optional one continues with any earlier identity cleared. Internal
// failures always abort with 401.
func Bearer(res *resolver.Resolver, keyNames []string, opts ...AuthOption) gin.HandlerFunc {
	o := newAuthOptions(extract.BearerSources(), TransportBearer, opts)
	names := append([]string(nil), keyNames...)

	return func(c *gin.Context) {
		id, err := safely(func() *authctx.Identity {
			credential := extract.Bearer(c.Request, o.sources)
			if credential == "" {
				return nil
			}
			id, ok := res.Resolve(c.Request.Context(), names, credential)
			if !ok {
				return nil
			}
			return id
		})
		finish(c, o, TransportBearer, id, err)
	}
}

// Basic returns a Gin middleware that authenticates a Basic credential from
// the Authorization header, then the cookie, then the query parameter. The
// identity carries the parsed credentials and tokenUser "basicToken".
func Basic(opts ...AuthOption) gin.HandlerFunc {
	o := newAuthOptions(extract.BasicSources(), TransportBasic, opts)

	return func(c *gin.Context) {
		id, err := safely(func() *authctx.Identity {
			credential := extract.Basic(c.Request, o.sources)
			if credential == "" {
				return nil
			}
			parsed := basic.Parse(credential)
			if !parsed.Success {
				o.log.Debug("basic credential rejected", logger.Fields(logger.FieldError, parsed.Message))
				return nil
			}
			if o.verifier != nil {
				if err := o.verifier.Verify(parsed.Data.Username, parsed.Data.Password); err != nil {
					o.log.Debug("basic credential did not verify")
					return nil
				}
			}
			return authctx.FromBasic(parsed.Data, credential)
		})
		finish(c, o, TransportBasic, id, err)
	}
}

// IdentityFrom returns the identity attached by an adapter earlier in the chain.
func IdentityFrom(c *gin.Context) (*authctx.Identity, bool) {
	return authctx.IdentityFrom(c.Request.Context())
}

func finish(c *gin.Context, o *authOptions, transport string, id *authctx.Identity, err error) {
	ctx := c.Request.Context()
	fields := logger.Fields(
		logger.FieldTransport, transport,
		logger.FieldPath, c.Request.URL.Path,
	)
	if rid, ok := c.Get(KeyRequestID); ok {
		fields[logger.FieldRequestID] = rid
	}

	switch {
	case err != nil:
		fields[logger.FieldError] = err.Error()
		o.log.Error("authentication failed internally", fields)
		reject(ctx, c, o, transport)
	case id != nil:
		attach(c, id)
		fields[logger.FieldKeyName] = id.TokenUser
		o.log.Debug("authenticated", fields)
		o.metrics.RecordAdapter(ctx, transport, observability.StateAuthenticated)
		c.Next()
	case o.required:
		o.log.Warn("authentication required", fields)
		reject(ctx, c, o, transport)
	default:
		detach(c)
		o.log.Debug("anonymous pass-through", fields)
		o.metrics.RecordAdapter(ctx, transport, observability.StateUnauthenticated)
		c.Next()
	}
}

func reject(ctx context.Context, c *gin.Context, o *authOptions, transport string) {
	detach(c)
	o.metrics.RecordAdapter(ctx, transport, observability.StateRejected)
	c.AbortWithStatusJSON(http.StatusUnauthorized, envelope.Unauthorized())
}

func attach(c *gin.Context, id *authctx.Identity) {
	c.Set(KeyAuthMaster, id.AuthMaster)
	c.Set(KeyID, id.ID)
	c.Set(KeyUserID, id.UserID)
	c.Set(KeyRole, id.Role)
	c.Set(KeyUser, id.User)
	c.Set(KeyTokenUser, id.TokenUser)
	c.Set(KeyToken, id.Token)
	c.Request = c.Request.WithContext(authctx.WithIdentity(c.Request.Context(), id))
}

// detach removes identity left by an earlier adapter.
func detach(c *gin.Context) {
	for _, k := range identityKeys {
		delete(c.Keys, k)
	}
	c.Request = c.Request.WithContext(authctx.Clear(c.Request.Context()))
}

// safely runs fn and converts a panic into an error.
func safely(fn func() *authctx.Identity) (id *authctx.Identity, err error) {
	defer func() {
		if r := recover(); r != nil {
			id, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(), nil
}
