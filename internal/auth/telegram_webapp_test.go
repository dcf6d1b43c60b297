package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"
)

const testBotToken = "123456:test-bot-token"

// buildInitData собирает initData с валидным hash по схеме Telegram.
func buildInitData(t *testing.T, botToken string, fields map[string]string) string {
	t.Helper()

	var pairs []string
	for k, v := range fields {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	hash := hex.EncodeToString(mac.Sum(nil))

	vals := url.Values{}
	for k, v := range fields {
		vals.Set(k, v)
	}
	vals.Set("hash", hash)
	return vals.Encode()
}

func TestValidateTelegramWebAppData(t *testing.T) {
	fields := map[string]string{
		"auth_date": fmt.Sprint(time.Now().Unix()),
		"query_id":  "AAE",
		"user":      `{"id":12345,"first_name":"Test"}`,
	}
	initData := buildInitData(t, testBotToken, fields)

	vals, err := ValidateTelegramWebAppData(initData, testBotToken, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vals.Get("user") != fields["user"] {
		t.Errorf("user = %q", vals.Get("user"))
	}
}

func TestValidateTelegramWebAppData_WrongToken(t *testing.T) {
	initData := buildInitData(t, testBotToken, map[string]string{
		"auth_date": fmt.Sprint(time.Now().Unix()),
		"user":      `{"id":1}`,
	})

	_, err := ValidateTelegramWebAppData(initData, "999:other-token", 0)
	if err == nil || !strings.Contains(err.Error(), "invalid hash") {
		t.Fatalf("expected hash mismatch, got %v", err)
	}
}

func TestValidateTelegramWebAppData_Expired(t *testing.T) {
	initData := buildInitData(t, testBotToken, map[string]string{
		"auth_date": fmt.Sprint(time.Now().Add(-time.Hour).Unix()),
		"user":      `{"id":1}`,
	})

	_, err := ValidateTelegramWebAppData(initData, testBotToken, 5*time.Minute)
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

func TestValidateTelegramWebAppData_MissingHash(t *testing.T) {
	_, err := ValidateTelegramWebAppData("auth_date=1&user=x", testBotToken, 0)
	if err == nil || !strings.Contains(err.Error(), "hash is missing") {
		t.Fatalf("expected missing hash error, got %v", err)
	}
}

func TestValidateTelegramWebAppData_FutureAuthDate(t *testing.T) {
	initData := buildInitData(t, testBotToken, map[string]string{
		"auth_date": fmt.Sprint(time.Now().Add(time.Hour).Unix()),
		"user":      `{"id":1}`,
	})

	_, err := ValidateTelegramWebAppData(initData, testBotToken, 0)
	if err == nil || !strings.Contains(err.Error(), "future") {
		t.Fatalf("expected future auth_date error, got %v", err)
	}
}
