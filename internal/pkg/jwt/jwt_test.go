package jwt

import (
	"testing"
	"time"
)

func TestSignAndParseRoundTrip(t *testing.T) {
	token, err := SignWithOptions("user-1", time.Minute, SignOptions{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("uid = %q, want user-1", claims.UserID)
	}
	if claims.SessionID != "sess-1" {
		t.Errorf("sid = %q, want sess-1", claims.SessionID)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := Sign("user-1", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	token, err := Sign("user-1", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(token + "x"); err == nil {
		t.Error("expected error for tampered token")
	}
}
