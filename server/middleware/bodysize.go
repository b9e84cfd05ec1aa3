package middleware

import (
	"net/http"
)

// DefaultMaxBodySize bounds issuance and verification request bodies.
const DefaultMaxBodySize = 1 << 20 // 1MB

// BodySizeLimit returns middleware that restricts the request body to max
// bytes. A non-positive max applies DefaultMaxBodySize.
func BodySizeLimit(max int64) Middleware {
	if max <= 0 {
		max = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}
