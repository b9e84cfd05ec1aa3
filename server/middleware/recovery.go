package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kbukum/authmaster/auth/envelope"
	"github.com/kbukum/authmaster/logger"
)

// Recovery returns middleware that recovers from panics, logs the stack and
// replies with a 500 envelope.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("Panic recovered", map[string]interface{}{
						logger.FieldError: fmt.Sprintf("%v", err),
						"stack":           string(debug.Stack()),
						logger.FieldPath:  r.URL.Path,
						"method":          r.Method,
					})
					writeEnvelope(w, envelope.Fail[any](envelope.CodeInternal, "Internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
