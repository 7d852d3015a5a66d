package utils

import (
	"context"
	"sync"
	"time"
)

const revokedKeyPrefix = "jwt:revoked:"

var (
	revoked   = map[string]time.Time{}
	revokedMu sync.RWMutex
)

// RevokeToken marks a token ID as revoked until its natural expiration.
func RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	// Prefer Redis so every instance sees the revocation
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err(); err == nil {
			return
		}
	}
	revokedMu.Lock()
	revoked[tokenID] = expiresAt
	revokedMu.Unlock()
}

// IsTokenRevoked reports whether a token ID was revoked before expiring.
func IsTokenRevoked(ctx context.Context, tokenID string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, revokedKeyPrefix+tokenID).Result(); err == nil && n > 0 {
			return true
		}
	}

	revokedMu.RLock()
	expiresAt, ok := revoked[tokenID]
	revokedMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		revokedMu.Lock()
		delete(revoked, tokenID)
		revokedMu.Unlock()
		return false
	}
	return true
}
