package token

import (
	"encoding/json"
	"fmt"
	"time"
)

// DataField is the claim under which issued payloads are wrapped.
const DataField = "data"

// Payload is a decoded token: the wrapped data plus registered claims such
// as iat and exp. Numbers decode as float64.
type Payload map[string]any

// Data returns the wrapped caller payload, or nil.
func (p Payload) Data() any { return p[DataField] }

// IssuedAt returns the iat claim.
func (p Payload) IssuedAt() (time.Time, bool) { return p.numericDate("iat") }

// ExpiresAt returns the exp claim.
func (p Payload) ExpiresAt() (time.Time, bool) { return p.numericDate("exp") }

// Field returns the named field from the top level of the payload, falling
// back to the wrapped data object when the top level lacks it.
func (p Payload) Field(name string) any {
	if v, ok := p[name]; ok {
		return v
	}
	if data, ok := p[DataField].(map[string]any); ok {
		return data[name]
	}
	return nil
}

func (p Payload) numericDate(claim string) (time.Time, bool) {
	switch v := p[claim].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0), true
	}
	return time.Time{}, false
}

// DataAs decodes the wrapped data into T, for callers that bind the payload
// to their own type:
//
//	type Session struct {
//	    UserID int    `json:"user_id"`
//	    Role   string `json:"user_role"`
//	}
//	s, err := token.DataAs[Session](payload)
func DataAs[T any](p Payload) (T, error) {
	var out T
	raw, err := json.Marshal(p.Data())
	if err != nil {
		return out, fmt.Errorf("token: encode data: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("token: decode data: %w", err)
	}
	return out, nil
}
