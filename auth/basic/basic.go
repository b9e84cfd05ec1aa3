// Package basic parses HTTP Basic credentials and optionally checks them
// against a table of bcrypt password hashes.
package basic

import (
	"encoding/base64"
	"strings"

	"github.com/kbukum/authmaster/auth/envelope"
	apperrors "github.com/kbukum/authmaster/errors"
)

// Scheme is the only accepted authorization scheme.
const Scheme = "Basic"

// TokenUser is the match source recorded for Basic identities.
const TokenUser = "basicToken"

// Credentials is a decoded username/password pair.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Parse decodes an Authorization header value of the form
// "Basic base64(username:password)". Only the first colon separates the
// username from the password.
//
// The value is the second space-separated field, so "Basic  xyz" has an
// empty value. Missing header, wrong scheme or no colon yield code "400"; a
// value that does not decode yields code "500".
func Parse(header string) envelope.Result[Credentials] {
	if header == "" {
		return envelope.FromError[Credentials](envelope.CodeBadRequest, apperrors.MissingCredential("Missing header"))
	}
	parts := strings.Split(header, " ")
	if len(parts) < 2 || parts[0] != Scheme || parts[1] == "" {
		return envelope.FromError[Credentials](envelope.CodeBadRequest, apperrors.MalformedCredential("Invalid header"))
	}

	raw, err := decode(parts[1])
	if err != nil {
		return envelope.FromError[Credentials](envelope.CodeInternal,
			apperrors.MalformedCredential("Invalid Basic encoding").WithCause(err))
	}
	decoded := strings.ToValidUTF8(string(raw), "�")

	username, password, ok := strings.Cut(decoded, ":")
	if !ok {
		return envelope.FromError[Credentials](envelope.CodeBadRequest, apperrors.MalformedCredential("Invalid Basic payload"))
	}
	return envelope.OK(Credentials{Username: username, Password: password})
}

// Header builds an Authorization header value for the given pair.
func Header(username, password string) string {
	return Scheme + " " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// decode accepts padded and unpadded standard base64.
func decode(value string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err == nil {
		return raw, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(value); rawErr == nil {
		return raw, nil
	}
	return nil, err
}
