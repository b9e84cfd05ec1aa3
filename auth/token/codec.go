// Package token issues and verifies HS256-signed tokens against one named
// secret from the key registry.
//
// Every call returns a result envelope instead of an error:
//
//	codec := token.NewCodec(reg)
//	res := codec.Issue(map[string]any{"user_id": 1}, "adminToken", token.MustParseExpiry("1h"))
//	check := codec.Verify("Bearer "+res.Data, "adminToken")
//	if check.Success {
//	    fmt.Println(check.Data.Field("user_id"))
//	}
//
// The verifier pins HS256 and rejects tokens announcing any other algorithm.
package token

import (
	"context"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/authmaster/auth/envelope"
	"github.com/kbukum/authmaster/auth/extract"
	"github.com/kbukum/authmaster/auth/keys"
	apperrors "github.com/kbukum/authmaster/errors"
	"github.com/kbukum/authmaster/observability"
)

// Algorithm is the only signing algorithm the codec produces or accepts.
var Algorithm gojwt.SigningMethod = gojwt.SigningMethodHS256

// Codec signs and verifies tokens with secrets resolved by key name.
type Codec struct {
	keys    *keys.Registry
	now     func() time.Time
	metrics *observability.AuthMetrics
	tracer  trace.Tracer
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the clock used for iat, exp and verification.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMetrics records issue and verify counters.
func WithMetrics(m *observability.AuthMetrics) Option {
	return func(c *Codec) { c.metrics = m }
}

// WithTracer overrides the tracer used for issuance spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Codec) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewCodec creates a codec reading secrets from reg.
func NewCodec(reg *keys.Registry, opts ...Option) *Codec {
	c := &Codec{
		keys:   reg,
		now:    time.Now,
		tracer: observability.Tracer(observability.InstrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MustParseExpiry is ParseExpiry that panics on error. For literals only.
func MustParseExpiry(s string) Expiry {
	e, err := ParseExpiry(s)
	if err != nil {
		panic(err)
	}
	return e
}

// Issue signs payload under keyName. The payload is wrapped under the "data"
// claim; iat is always set and exp only when expiry is non-zero.
// Failures (undefined key, unserializable payload) yield code "500".
func (c *Codec) Issue(payload any, keyName string, expiry Expiry) envelope.Result[string] {
	ctx, span := c.tracer.Start(context.Background(), observability.SpanIssue,
		trace.WithAttributes(attribute.String(observability.AttrKeyName, keyName)))
	defer span.End()

	signed, err := c.sign(payload, keyName, expiry)
	if err != nil {
		span.SetAttributes(attribute.String(observability.AttrOutcome, observability.OutcomeFailure))
		c.metrics.RecordIssue(ctx, keyName, observability.OutcomeFailure)
		return envelope.FromError[string](envelope.CodeInternal, err)
	}
	span.SetAttributes(attribute.String(observability.AttrOutcome, observability.OutcomeSuccess))
	c.metrics.RecordIssue(ctx, keyName, observability.OutcomeSuccess)
	return envelope.OK(signed)
}

func (c *Codec) sign(payload any, keyName string, expiry Expiry) (string, error) {
	secret, err := c.keys.Get(keyName)
	if err != nil {
		return "", apperrors.UndefinedKey(keyName)
	}

	iat := c.now().Unix()
	claims := gojwt.MapClaims{
		DataField: payload,
		"iat":     iat,
	}
	if !expiry.IsZero() {
		exp, err := expiry.expiresAt(iat)
		if err != nil {
			return "", apperrors.Internal(err)
		}
		claims["exp"] = exp
	}

	signed, err := gojwt.NewWithClaims(Algorithm, claims).SignedString([]byte(secret))
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("sign token: %w", err))
	}
	return signed, nil
}

// Verify checks token against the secret of keyName. An optional "Bearer "
// prefix is removed first. Every failure yields code "401" with a
// diagnostic message; callers must branch on Success only.
func (c *Codec) Verify(token, keyName string) envelope.Result[Payload] {
	payload, err := c.verify(token, keyName)
	if err != nil {
		c.metrics.RecordVerify(context.Background(), keyName, observability.OutcomeFailure)
		return envelope.FromError[Payload](envelope.CodeUnauthorized, err)
	}
	c.metrics.RecordVerify(context.Background(), keyName, observability.OutcomeSuccess)
	return envelope.OK(payload)
}

func (c *Codec) verify(token, keyName string) (Payload, error) {
	secret, err := c.keys.Get(keyName)
	if err != nil {
		return nil, apperrors.UndefinedKey(keyName)
	}
	clean := extract.StripBearer(token)
	if clean == "" {
		return nil, apperrors.MissingCredential("Token missing")
	}

	keyFunc := func(t *gojwt.Token) (interface{}, error) {
		if t.Method.Alg() != Algorithm.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(secret), nil
	}

	claims := gojwt.MapClaims{}
	parsed, err := gojwt.ParseWithClaims(clean, claims, keyFunc,
		gojwt.WithValidMethods([]string{Algorithm.Alg()}),
		gojwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, apperrors.VerificationFailed(err)
	}
	if !parsed.Valid {
		return nil, apperrors.VerificationFailed(fmt.Errorf("invalid token"))
	}
	return Payload(claims), nil
}
