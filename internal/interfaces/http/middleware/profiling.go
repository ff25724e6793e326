package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inventrack/backend/internal/infrastructure/telemetry"
)

// Profiling labels CPU samples taken while serving a request with its
// method and route pattern. Streaming routes are left unlabelled.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || strings.HasPrefix(route, streamingRoutePrefix) {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		}, "method", c.Request.Method, "route", route)
	}
}
