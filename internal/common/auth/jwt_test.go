package auth

import (
	"testing"
	"time"

	"github.com/FleetGuardian/FleetGuardian/internal/common/config"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAccessToken(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "fleetguardian",
		Audience:  "fleetguardian",
	}

	token, exp, err := GenerateAccessToken(cfg, "u-1", []string{"driver"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if exp.Before(time.Now()) {
		t.Fatalf("expected exp in future")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || parsed == nil || !parsed.Valid {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != "u-1" {
		t.Fatalf("subject mismatch: %s", claims.Subject)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "driver" {
		t.Fatalf("roles mismatch: %#v", claims.Roles)
	}
}

func TestVerifyAccessToken(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "fleetguardian",
		Audience:  "fleetguardian",
	}

	token, _, err := GenerateAccessToken(cfg, "u-1", []string{"driver", "mechanic"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	ai, err := VerifyAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if ai.Subject != "u-1" || len(ai.Roles) != 2 {
		t.Fatalf("auth info mismatch: %+v", ai)
	}

	if _, err := VerifyAccessToken(cfg, token+"x"); err == nil {
		t.Fatalf("expected tampered token rejected")
	}

	other := cfg
	other.JWTSecret = "another-secret"
	if _, err := VerifyAccessToken(other, token); err == nil {
		t.Fatalf("expected wrong-secret token rejected")
	}

	other = cfg
	other.Issuer = "someone-else"
	if _, err := VerifyAccessToken(other, token); err == nil {
		t.Fatalf("expected wrong-issuer token rejected")
	}
}
