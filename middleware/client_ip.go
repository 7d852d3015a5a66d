package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientIP extracts the visitor IP considering common proxy headers.
// Priority: CF-Connecting-IP > X-Real-IP > first of X-Forwarded-For > gin.ClientIP
func ClientIP(c *gin.Context) string {
	for _, h := range []string{"CF-Connecting-IP", "X-Real-IP"} {
		if v := stripPort(strings.TrimSpace(c.GetHeader(h))); isPublicIP(v) {
			return v
		}
	}
	if v := c.GetHeader("X-Forwarded-For"); v != "" {
		first, _, _ := strings.Cut(v, ",")
		if cand := stripPort(strings.TrimSpace(first)); isPublicIP(cand) {
			return cand
		}
	}
	return stripPort(c.ClientIP())
}

func stripPort(ip string) string {
	if h, _, err := net.SplitHostPort(ip); err == nil {
		return h
	}
	return ip
}

func isPublicIP(ip string) bool {
	p := net.ParseIP(ip)
	if p == nil {
		return false
	}
	return !p.IsLoopback() && !p.IsPrivate() && !p.IsUnspecified()
}
