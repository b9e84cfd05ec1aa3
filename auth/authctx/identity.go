package authctx

import (
	"github.com/kbukum/authmaster/auth/basic"
	"github.com/kbukum/authmaster/auth/token"
)

// Payload field names read into identity attributes.
const (
	FieldID     = "_id"
	FieldUserID = "user_id"
	FieldRole   = "user_role"
	FieldResult = "result"
)

// Identity is the set of fields attached to a call after successful
// resolution. It is created once and never mutated afterwards.
type Identity struct {
	// AuthMaster is the raw decoded payload: a token.Payload for bearer
	// identities, a basic.Credentials for Basic identities.
	AuthMaster any `json:"authMaster"`
	ID         any `json:"_id,omitempty"`
	UserID     any `json:"user_id,omitempty"`
	Role       any `json:"role,omitempty"`
	User       any `json:"user,omitempty"`
	// TokenUser is the key name that matched, or "basicToken".
	TokenUser string `json:"tokenUser"`
	// Token is the raw credential string. Never log it.
	Token string `json:"-"`
}

// FromPayload builds the identity for a token that verified under keyName.
func FromPayload(keyName, credential string, payload token.Payload) *Identity {
	return &Identity{
		AuthMaster: payload,
		ID:         payload.Field(FieldID),
		UserID:     payload.Field(FieldUserID),
		Role:       payload.Field(FieldRole),
		User:       payload.Field(FieldResult),
		TokenUser:  keyName,
		Token:      credential,
	}
}

// FromBasic builds the identity for parsed Basic credentials.
func FromBasic(creds basic.Credentials, credential string) *Identity {
	return &Identity{
		AuthMaster: creds,
		TokenUser:  basic.TokenUser,
		Token:      credential,
	}
}

// Credentials returns the Basic credentials, if this is a Basic identity.
func (id *Identity) Credentials() (basic.Credentials, bool) {
	c, ok := id.AuthMaster.(basic.Credentials)
	return c, ok
}

// Payload returns the decoded token payload, if this is a bearer identity.
func (id *Identity) Payload() (token.Payload, bool) {
	p, ok := id.AuthMaster.(token.Payload)
	return p, ok
}
