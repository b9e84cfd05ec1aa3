// Package resolver implements first-match-wins credential resolution across
// an ordered list of key names.
//
// Candidates are tried in the order given and the first key under which the
// credential verifies wins, even when a later key would also match. Order
// candidates from most privileged to least:
//
//	res := resolver.New(codec)
//	id, ok := res.Resolve(ctx, []string{"adminToken", "userToken"}, credential)
package resolver

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/authmaster/auth/authctx"
	"github.com/kbukum/authmaster/auth/token"
	"github.com/kbukum/authmaster/logger"
	"github.com/kbukum/authmaster/observability"
)

// Resolution is a successful match.
type Resolution struct {
	KeyName string
	Payload token.Payload
}

// Resolver runs the ordered-fallback loop over a token codec.
type Resolver struct {
	codec   *token.Codec
	log     *logger.Logger
	metrics *observability.AuthMetrics
	tracer  trace.Tracer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger; the default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l.WithComponent("resolver")
		}
	}
}

// WithMetrics records resolution counters.
func WithMetrics(m *observability.AuthMetrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithTracer overrides the tracer; the default is the global provider's.
func WithTracer(t trace.Tracer) Option {
	return func(r *Resolver) {
		if t != nil {
			r.tracer = t
		}
	}
}

// New creates a Resolver over codec.
func New(codec *token.Codec, opts ...Option) *Resolver {
	r := &Resolver{
		codec:  codec,
		log:    logger.NewNop(),
		tracer: observability.Tracer(observability.InstrumentationName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Codec returns the codec the resolver verifies with.
func (r *Resolver) Codec() *token.Codec { return r.codec }

// Match tries each candidate key name in order and returns the first
// resolution. It returns false when no candidate verifies the credential.
func (r *Resolver) Match(ctx context.Context, keyNames []string, credential string) (Resolution, bool) {
	_, span := r.tracer.Start(ctx, observability.SpanResolve,
		trace.WithAttributes(attribute.Int(observability.AttrCandidates, len(keyNames))))
	defer span.End()

	if len(keyNames) == 0 {
		r.log.Warn("resolution attempted with no candidate keys")
		return r.unresolved(ctx, span)
	}
	if credential == "" {
		r.log.Debug("no credential presented")
		return r.unresolved(ctx, span)
	}

	for _, keyName := range keyNames {
		res := r.codec.Verify(credential, keyName)
		if res.Success && res.Data != nil {
			span.SetAttributes(
				attribute.String(observability.AttrKeyName, keyName),
				attribute.String(observability.AttrOutcome, observability.OutcomeMatched),
			)
			r.metrics.RecordResolution(ctx, keyName, observability.OutcomeMatched)
			r.log.Info("credential resolved", logger.Fields(logger.FieldKeyName, keyName))
			return Resolution{KeyName: keyName, Payload: res.Data}, true
		}
		r.log.Debug("candidate rejected", logger.Fields(
			logger.FieldKeyName, keyName,
			logger.FieldCredential, logger.MaskCredential(credential),
			logger.FieldError, res.Message,
		))
	}
	return r.unresolved(ctx, span)
}

// Resolve is Match followed by identity construction.
func (r *Resolver) Resolve(ctx context.Context, keyNames []string, credential string) (*authctx.Identity, bool) {
	m, ok := r.Match(ctx, keyNames, credential)
	if !ok {
		return nil, false
	}
	return authctx.FromPayload(m.KeyName, credential, m.Payload), true
}

func (r *Resolver) unresolved(ctx context.Context, span trace.Span) (Resolution, bool) {
	span.SetAttributes(attribute.String(observability.AttrOutcome, observability.OutcomeUnresolved))
	span.SetStatus(codes.Unset, "")
	r.metrics.RecordResolution(ctx, "", observability.OutcomeUnresolved)
	return Resolution{}, false
}
