package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/cppla/htmlfilter/config"
)

func TestTokenRoundTrip(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "s3cret"})

	token, expiresAt, err := GenerateToken("ops", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(expiresAt) < 59*time.Minute {
		t.Errorf("expiresAt = %v", expiresAt)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "ops" || claims.Role != RoleAdmin || claims.ID == "" {
		t.Errorf("claims = %+v", claims)
	}

	config.Set(config.AppConfig{JWTSecret: "other"})
	if _, err := ParseToken(token); err == nil {
		t.Error("token signed with another secret was accepted")
	}
}

func TestTokenExpired(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "s3cret"})
	token, _, err := GenerateToken("ops", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken(token); err == nil {
		t.Error("expired token was accepted")
	}
}

func TestTokenAdminDisabled(t *testing.T) {
	config.Set(config.AppConfig{})
	if _, _, err := GenerateToken("ops", time.Hour); !errors.Is(err, ErrAdminDisabled) {
		t.Errorf("GenerateToken err = %v", err)
	}
	if _, err := ParseToken("x.y.z"); !errors.Is(err, ErrAdminDisabled) {
		t.Errorf("ParseToken err = %v", err)
	}
}
