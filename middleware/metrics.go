package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/htmlfilter/metrics"
)

// RequestRecorder counts served requests per route and records their latency.
// Unmatched routes are not recorded so scanners cannot inflate label sets.
func RequestRecorder() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" || route == "/metrics" || route == "/health" {
			return
		}
		metrics.IncRequests(route)
		metrics.ObserveDuration(route, start)
	}
}
