package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cppla/htmlfilter/config"
)

// RoleAdmin is the only role this service issues.
const RoleAdmin = "admin"

// ErrAdminDisabled is returned when no JWT secret is configured.
var ErrAdminDisabled = errors.New("admin api disabled")

// Claims defines JWT claims used in the application.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken issues an admin JWT for subject.
func GenerateToken(subject string, duration time.Duration) (string, time.Time, error) {
	cfg := config.Get()
	if cfg.JWTSecret == "" {
		return "", time.Time{}, ErrAdminDisabled
	}

	now := time.Now()
	expiresAt := now.Add(duration)
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        NewRequestID(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken validates a JWT and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	if cfg.JWTSecret == "" {
		return nil, ErrAdminDisabled
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Role != RoleAdmin {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
