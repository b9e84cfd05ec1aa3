package auth

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/authmaster/auth/basic"
	"github.com/kbukum/authmaster/auth/envelope"
	"github.com/kbukum/authmaster/auth/keys"
	"github.com/kbukum/authmaster/auth/resolver"
	"github.com/kbukum/authmaster/auth/token"
	"github.com/kbukum/authmaster/logger"
	"github.com/kbukum/authmaster/observability"
)

// IssueRequest is the input of an issuance call.
type IssueRequest struct {
	Data      any          `json:"data"`
	ExpiresIn token.Expiry `json:"expiresIn"`
	KeyName   string       `json:"keyName" validate:"required,keyname"`
}

// VerifyRequest is the input of a verification call.
type VerifyRequest struct {
	Token   string `json:"token" validate:"required"`
	KeyName string `json:"keyName" validate:"required,keyname"`
}

// Master bundles a registry, a codec and a resolver. Instances share nothing.
type Master struct {
	keys     *keys.Registry
	codec    *token.Codec
	resolver *resolver.Resolver
	log      *logger.Logger
	expiry   token.Expiry
	required []string
}

type options struct {
	log     *logger.Logger
	metrics *observability.AuthMetrics
	tracer  trace.Tracer
	now      func() time.Time
	expiry   token.Expiry
	required []string
}

// Option configures a Master.
type Option func(*options)

// WithLogger sets the logger used by the master and its resolver.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records issue, verify and resolution counters.
func WithMetrics(m *observability.AuthMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer overrides the resolver's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithClock overrides the codec clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithDefaultExpiry applies e to issuance requests that carry no expiry.
func WithDefaultExpiry(e token.Expiry) Option {
	return func(o *options) { o.expiry = e }
}

// WithRequiredKeys names keys the transports depend on. CheckHealth reports
// degraded while any of them is missing from the registry.
func WithRequiredKeys(names ...string) Option {
	return func(o *options) { o.required = append(o.required, names...) }
}

// New creates a Master with an empty registry.
func New(opts ...Option) *Master {
	o := &options{log: logger.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.NewNop()
	}

	reg := keys.NewRegistry()
	codec := token.NewCodec(reg,
		token.WithClock(o.now),
		token.WithMetrics(o.metrics),
		token.WithTracer(o.tracer),
	)
	res := resolver.New(codec,
		resolver.WithLogger(o.log),
		resolver.WithMetrics(o.metrics),
		resolver.WithTracer(o.tracer),
	)
	return &Master{
		keys:     reg,
		codec:    codec,
		resolver: res,
		log:      o.log.WithComponent("auth"),
		expiry:   o.expiry,
		required: o.required,
	}
}

// NewFromConfig validates cfg and returns a Master loaded with its keys and
// default expiry.
func NewFromConfig(cfg *Config, opts ...Option) (*Master, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	expiry, err := cfg.Expiry()
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithDefaultExpiry(expiry),
		WithRequiredKeys(cfg.BearerKeys...),
		WithRequiredKeys(cfg.SocketKeys...),
	}
	m := New(append(base, opts...)...)
	m.SetKeys(cfg.KeyMap())
	return m, nil
}

// SetKeys replaces the whole registry and returns the new state. Keys absent
// from secrets are gone afterwards.
func (m *Master) SetKeys(secrets map[string]string) map[string]string {
	state := m.keys.Set(secrets)
	m.log.Info("key registry replaced", logger.Fields(
		logger.FieldCandidates, m.keys.Names(),
	))
	return state
}

// Config returns a snapshot of the current registry.
func (m *Master) Config() map[string]string {
	return m.keys.Snapshot()
}

// Create issues a token for req. Failures yield code "500".
func (m *Master) Create(req IssueRequest) envelope.Result[string] {
	expiry := req.ExpiresIn
	if expiry.IsZero() {
		expiry = m.expiry
	}
	res := m.codec.Issue(req.Data, req.KeyName, expiry)
	if !res.Success {
		m.log.Warn("token issue failed", logger.Fields(
			logger.FieldKeyName, req.KeyName,
			logger.FieldError, res.Message,
		))
	}
	return res
}

// Checker verifies tok against keyName. Failures yield code "401".
func (m *Master) Checker(tok, keyName string) envelope.Result[token.Payload] {
	res := m.codec.Verify(tok, keyName)
	if !res.Success {
		m.log.Debug("token check failed", logger.Fields(
			logger.FieldKeyName, keyName,
			logger.FieldError, res.Message,
		))
	}
	return res
}

// Basic parses a Basic Authorization header value.
func (m *Master) Basic(header string) envelope.Result[basic.Credentials] {
	return basic.Parse(header)
}

// Resolver returns the resolver shared by the transport adapters.
func (m *Master) Resolver() *resolver.Resolver { return m.resolver }

// Keys returns the underlying registry.
func (m *Master) Keys() *keys.Registry { return m.keys }

// Codec returns the underlying codec.
func (m *Master) Codec() *token.Codec { return m.codec }

// CheckHealth reports the registry as down when it holds no keys and as
// degraded when a required key has been removed by SetKeys. Only key names
// are reported.
func (m *Master) CheckHealth(_ context.Context) observability.Health {
	n := m.keys.Len()
	h := observability.ComponentUp("auth", map[string]string{"keys": strconv.Itoa(n)})
	if n == 0 {
		return h.Fail("no keys registered")
	}
	if missing := observability.MissingNames(m.required, m.keys.Has); len(missing) > 0 {
		h.Details["missing"] = observability.JoinNames(missing)
		return h.Degrade("required keys missing: " + observability.JoinNames(missing))
	}
	return h
}
