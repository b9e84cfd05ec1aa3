package endpoint

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/authmaster/observability"
)

// Health returns a handler that reports service health including component
// statuses. A down component turns the reply into a 503.
func Health(serviceName, version string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.CollectHealth(c.Request.Context(), serviceName, version, checkers...)
		c.JSON(sh.HTTPStatus(), sh)
	}
}
