// GinMiddleware instruments the control API's request path
// (internal/api) with the APIRequestDuration/HTTPRequests series;
// there is no parallel net/http-based control surface in this engine,
// so only the Gin variant is kept.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GinMiddleware returns a Gin middleware that instruments HTTP requests
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Record metrics after request is processed
		duration := float64(time.Since(start).Milliseconds())
		statusCode := strconv.Itoa(c.Writer.Status())
		path := c.FullPath() // Use FullPath() to get the route pattern instead of actual path
		if path == "" {
			path = c.Request.URL.Path // Fallback to actual path if route pattern not available
		}

		RecordAPIRequest(c.Request.Method, path, statusCode, duration)
	}
}
