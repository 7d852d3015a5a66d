package utils

import "github.com/google/uuid"

const (
	// RequestIDKey stores the request id inside Gin context.
	RequestIDKey = "request_id"
	// RequestIDHeader is echoed on every response.
	RequestIDHeader = "X-Request-Id"
)

// NewRequestID returns a random uuid string.
func NewRequestID() string {
	return uuid.NewString()
}
