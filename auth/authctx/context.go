// Package authctx carries the resolved identity of an inbound call.
//
// Adapters attach an *Identity to the request context; handlers read it back:
//
//	id, ok := authctx.IdentityFrom(r.Context())
//	if ok {
//	    log.Printf("call authenticated by %s", id.TokenUser)
//	}
//
// Clear stores an explicit "no identity" marker so an earlier adapter's
// identity never leaks past a later adapter that did not authenticate.
package authctx

import (
	"context"
	"errors"
)

// contextKey is an unexported type to prevent collisions with other packages.
type contextKey struct{}

var identityKey = contextKey{}

// ErrNoIdentity is returned when no identity is attached to the context.
var ErrNoIdentity = errors.New("authctx: no identity in context")

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Clear returns a context in which no identity is visible.
func Clear(ctx context.Context) context.Context {
	if ctx.Value(identityKey) == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey, (*Identity)(nil))
}

// IdentityFrom returns the identity attached to ctx.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}

// MustIdentity returns the attached identity and panics if there is none.
// Use only behind a required adapter.
func MustIdentity(ctx context.Context) *Identity {
	id, ok := IdentityFrom(ctx)
	if !ok {
		panic("authctx: identity not found in context")
	}
	return id
}

// IdentityOrError returns the attached identity or ErrNoIdentity.
func IdentityOrError(ctx context.Context) (*Identity, error) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return nil, ErrNoIdentity
	}
	return id, nil
}

// PayloadAs returns the raw payload of the attached identity as T.
func PayloadAs[T any](ctx context.Context) (T, bool) {
	var zero T
	id, ok := IdentityFrom(ctx)
	if !ok {
		return zero, false
	}
	v, ok := id.AuthMaster.(T)
	return v, ok
}
