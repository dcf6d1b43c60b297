package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateJWT("secret", userID, "12345", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseJWT("secret", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != userID || claims.TelegramID != "12345" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.Issuer != "dynamic-capital" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("secret", uuid.New(), "12345", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJWT("other-secret", token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	token, err := GenerateJWT("secret", uuid.New(), "12345", time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := ParseJWT("secret", token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestGenerateJWT_DefaultExpiration(t *testing.T) {
	token, err := GenerateJWT("secret", uuid.New(), "12345", 0)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseJWT("secret", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.ExpiresAt.Time.Before(time.Now().Add(23 * time.Hour)) {
		t.Errorf("default expiration too short: %v", claims.ExpiresAt)
	}
}
