// Package keys holds the secret registry: a replaceable mapping from a
// logical key name to the signing secret it selects.
//
// The registry is replaced wholesale, never merged:
//
//	reg := keys.NewRegistry()
//	reg.Set(map[string]string{"userToken": "...", "adminToken": "..."})
//	secret, err := reg.Get("adminToken")
//
// Replacement is a single atomic pointer swap, so readers always observe
// either the previous or the new table, never a mix.
package keys

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"
)

// ErrUndefinedKey is returned when a key name has no secret.
var ErrUndefinedKey = errors.New("keys: key undefined")

// Registry is a concurrency-safe table of named secrets.
type Registry struct {
	table atomic.Pointer[map[string]string]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := map[string]string{}
	r.table.Store(&empty)
	return r
}

// Set replaces the whole table and returns a copy of the new state.
// The input map is copied; later changes by the caller are not observed.
// Entries with an empty secret are kept but resolve as undefined.
func (r *Registry) Set(secrets map[string]string) map[string]string {
	next := maps.Clone(secrets)
	if next == nil {
		next = map[string]string{}
	}
	r.table.Store(&next)
	return maps.Clone(next)
}

// Get returns the secret for keyName.
func (r *Registry) Get(keyName string) (string, error) {
	secret := (*r.table.Load())[keyName]
	if secret == "" {
		return "", fmt.Errorf("%w: %q", ErrUndefinedKey, keyName)
	}
	return secret, nil
}

// Has reports whether keyName resolves to a secret.
func (r *Registry) Has(keyName string) bool {
	_, err := r.Get(keyName)
	return err == nil
}

// Snapshot returns a copy of the current table.
func (r *Registry) Snapshot() map[string]string {
	return maps.Clone(*r.table.Load())
}

// Names returns the registered key names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(*r.table.Load()))
}

// Len returns the number of registered key names.
func (r *Registry) Len() int {
	return len(*r.table.Load())
}
