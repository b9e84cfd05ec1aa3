// Package extract locates the raw credential carried by an inbound transport
// artifact.
//
// Sources are consulted in a fixed precedence and the first non-empty one
// wins:
//
//	HTTP bearer:  Authorization header > cookie > query parameter
//	HTTP basic:   Authorization header > cookie > query parameter
//	Handshake:    authorization header > query "Authorization" > query "authMasterTokenBearer"
//
// Header values have an optional "Bearer " prefix removed for the bearer
// and handshake chains.
package extract

import (
	"net/http"
	"net/url"
	"strings"
	"unicode"
)

// Default source names.
const (
	DefaultCookieName       = "token"
	DefaultBearerQueryParam = "authMasterTokenBearer"
	DefaultBasicQueryParam  = "authMasterTokenBasic"
	HandshakeQueryHeader    = "Authorization"
)

const bearerPrefix = "bearer "

// Sources names the cookie and query parameter consulted after the header.
type Sources struct {
	CookieName string
	QueryParam string
}

// BearerSources returns the default bearer chain sources.
func BearerSources() Sources {
	return Sources{CookieName: DefaultCookieName, QueryParam: DefaultBearerQueryParam}
}

// BasicSources returns the default basic chain sources.
func BasicSources() Sources {
	return Sources{CookieName: DefaultCookieName, QueryParam: DefaultBasicQueryParam}
}

// StripBearer trims input and removes a leading "Bearer " (any case, single
// space) prefix. "Bearer " alone strips to ""; "Bearer" without the space is
// returned as is.
func StripBearer(input string) string {
	lead := strings.TrimLeftFunc(input, unicode.IsSpace)
	if len(lead) >= len(bearerPrefix) && strings.EqualFold(lead[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(lead[len(bearerPrefix):])
	}
	return strings.TrimSpace(lead)
}

// Bearer returns the bearer credential of r. Only the header value is
// stripped of its prefix; cookie and query values are used as sent.
func Bearer(r *http.Request, src Sources) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return StripBearer(h)
	}
	return fromCookieOrQuery(r, src)
}

// Basic returns the raw Basic credential of r, prefix untouched.
func Basic(r *http.Request, src Sources) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return h
	}
	return fromCookieOrQuery(r, src)
}

// Handshake returns the credential presented in a socket handshake.
func Handshake(headers http.Header, query url.Values) string {
	raw := headers.Get("Authorization")
	if raw == "" {
		raw = query.Get(HandshakeQueryHeader)
	}
	if raw == "" {
		raw = query.Get(DefaultBearerQueryParam)
	}
	return StripBearer(raw)
}

func fromCookieOrQuery(r *http.Request, src Sources) string {
	if src.CookieName != "" {
		if c, err := r.Cookie(src.CookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	if src.QueryParam != "" {
		return r.URL.Query().Get(src.QueryParam)
	}
	return ""
}
