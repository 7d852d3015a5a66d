package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/htmlfilter/utils"
)

const maxRequestIDLen = 128

// RequestID reuses a client supplied X-Request-Id or generates a new one,
// stores it in the context and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(utils.RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = utils.NewRequestID()
		}
		c.Set(utils.RequestIDKey, id)
		c.Header(utils.RequestIDHeader, id)
		c.Next()
	}
}
