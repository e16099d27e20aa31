package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StarterPacks/internal/metrics"
)

// Metrics records request counts and latency per route pattern. Unmatched
// paths share one label so scanners cannot blow up cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
