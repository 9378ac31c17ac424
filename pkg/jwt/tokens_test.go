package jwt

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func TestGenerateTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", "ann@example.com", "Ann", "admin", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	claims, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("unexpected user id: %q", claims.UserID)
	}
	if claims.Email != "ann@example.com" {
		t.Fatalf("unexpected email: %q", claims.Email)
	}
	if claims.Name != "Ann" {
		t.Fatalf("unexpected name: %q", claims.Name)
	}
	if claims.Role != "admin" {
		t.Fatalf("unexpected role: %q", claims.Role)
	}
}

func TestGenerateTokenLifetimeIsExact(t *testing.T) {
	token, err := GenerateToken("user-1", "ann@example.com", "Ann", "user", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	claims, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	lifetime := claims.ExpiresAt.Unix() - claims.IssuedAt.Unix()
	if lifetime != 3600 {
		t.Fatalf("expected 3600s lifetime, got %d", lifetime)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := GenerateToken("user-1", "ann@example.com", "Ann", "user", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := Parse(token, testSecret); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", "ann@example.com", "Ann", "user", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := Parse(token, "another-secret"); err == nil {
		t.Fatalf("expected signature mismatch to be rejected")
	}
}

func TestParseRejectsTamperedPayload(t *testing.T) {
	token, err := GenerateToken("user-1", "ann@example.com", "Ann", "user", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]
	if _, err := Parse(tampered, testSecret); err == nil {
		t.Fatalf("expected tampered payload to be rejected")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("not-a-token", testSecret); err == nil {
		t.Fatalf("expected malformed token to be rejected")
	}
}
