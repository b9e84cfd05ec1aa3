package basic

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("basic: invalid credentials")

// Verifier checks a decoded credential pair.
type Verifier interface {
	Verify(username, password string) error
}

// VerifierFunc adapts an ordinary function to the Verifier interface.
type VerifierFunc func(username, password string) error

// Verify implements Verifier.
func (f VerifierFunc) Verify(username, password string) error {
	return f(username, password)
}

// BcryptUsers verifies passwords against a username -> bcrypt hash table.
type BcryptUsers struct {
	hashes map[string]string
}

// NewBcryptUsers creates a verifier over a copy of hashes.
func NewBcryptUsers(hashes map[string]string) *BcryptUsers {
	return &BcryptUsers{hashes: maps.Clone(hashes)}
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// Verify compares password with the stored hash. Unknown users still pay for
// one bcrypt comparison so response time does not reveal which names exist.
func (b *BcryptUsers) Verify(username, password string) error {
	hash, ok := b.hashes[username]
	if !ok {
		dummyOnce.Do(func() {
			dummyHash, _ = bcrypt.GenerateFromPassword([]byte("authmaster-dummy"), bcrypt.DefaultCost)
		})
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Len returns the number of configured users.
func (b *BcryptUsers) Len() int { return len(b.hashes) }

// HashPassword returns a bcrypt hash suitable for the basic_users table.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if len(password) > 72 {
		return "", errors.New("basic: maximum password length is 72 bytes (bcrypt limit)")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("basic: hash: %w", err)
	}
	return string(hash), nil
}
