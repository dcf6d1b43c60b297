package handlers

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dynamic-capital/backend/internal/config"
	"github.com/dynamic-capital/backend/internal/models"
	"github.com/dynamic-capital/backend/internal/services"
	"github.com/dynamic-capital/backend/internal/ton"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const testDomain = "dynamiccapital.ton"

type memSessions struct {
	sessions []*models.ProofSession
}

func (m *memSessions) DeleteExpired(ctx context.Context, telegramID string) error { return nil }

func (m *memSessions) Create(ctx context.Context, telegramID, payload string, expiresAt time.Time) (*models.ProofSession, error) {
	s := &models.ProofSession{
		ID:         uuid.New(),
		TelegramID: telegramID,
		Payload:    payload,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}
	m.sessions = append(m.sessions, s)
	return s, nil
}

func (m *memSessions) FindByPayload(ctx context.Context, telegramID, payload string) (*models.ProofSession, error) {
	for i := len(m.sessions) - 1; i >= 0; i-- {
		if m.sessions[i].TelegramID == telegramID && m.sessions[i].Payload == payload {
			return m.sessions[i], nil
		}
	}
	return nil, nil
}

func (m *memSessions) MarkVerified(ctx context.Context, id uuid.UUID, res models.VerifiedProof) error {
	return nil
}

type memUsers struct {
	users map[string]*models.User
}

func (m *memUsers) UpsertByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	if m.users == nil {
		m.users = map[string]*models.User{}
	}
	if u, ok := m.users[telegramID]; ok {
		return u, nil
	}
	u := &models.User{ID: uuid.New(), TelegramID: telegramID}
	m.users[telegramID] = u
	return u, nil
}

type memWallets struct {
	wallets []*models.Wallet
}

func (m *memWallets) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	for _, w := range m.wallets {
		if w.Address == address {
			return w, nil
		}
	}
	return nil, nil
}

func (m *memWallets) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	for _, w := range m.wallets {
		if w.UserID == userID {
			return w, nil
		}
	}
	return nil, nil
}

func (m *memWallets) Insert(ctx context.Context, w *models.Wallet) error {
	w.ID = uuid.New()
	m.wallets = append(m.wallets, w)
	return nil
}

func (m *memWallets) Rebind(ctx context.Context, walletID uuid.UUID, address, publicKey string, appName *string) error {
	return nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		TONProofDomains: []string{testDomain},
		TONProofMaxAge:  300 * time.Second,
	}
	svc := services.NewTonConnectService(&memSessions{}, &memUsers{}, &memWallets{}, nil, nil, cfg, zap.NewNop())
	h := NewTonConnectHandler(svc, zap.NewNop())

	app := fiber.New()
	app.Post("/api/v1/ton-connect/session", h.HandleSession)
	return app
}

func postSession(t *testing.T, app *fiber.App, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ton-connect/session", &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var parsed map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			t.Fatalf("non-JSON response %q: %v", raw, err)
		}
	}
	return resp, parsed
}

func TestHandleSession_ChallengeThenVerify(t *testing.T) {
	app := newTestApp(t)
	pub, priv, _ := ed25519.GenerateKey(nil)
	address := "0:" + strings.Repeat("ab", 32)

	resp, body := postSession(t, app, map[string]any{
		"action":      "challenge",
		"telegram_id": "12345",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("challenge status = %d, body %v", resp.StatusCode, body)
	}
	payload, _ := body["payload"].(string)
	if payload == "" {
		t.Fatalf("challenge response has no payload: %v", body)
	}

	proof := ton.Proof{
		Timestamp: time.Now().Unix(),
		Domain:    ton.ProofDomain{Value: testDomain, LengthBytes: len(testDomain)},
		Payload:   payload,
	}
	wc, hash, err := ton.ParseRawAddress(address)
	if err != nil {
		t.Fatal(err)
	}
	digest, err := ton.ProofDigest(wc, hash, proof)
	if err != nil {
		t.Fatal(err)
	}
	sig := base64.StdEncoding.EncodeToString(ed25519.Sign(priv, digest))

	resp, body = postSession(t, app, map[string]any{
		"action":      "verify",
		"telegram_id": "12345",
		"address":     address,
		"publicKey":   hex.EncodeToString(pub),
		"proof": map[string]any{
			"timestamp": proof.Timestamp,
			"domain": map[string]any{
				"value":       testDomain,
				"lengthBytes": len(testDomain),
			},
			"payload":   payload,
			"signature": sig,
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status = %d, body %v", resp.StatusCode, body)
	}
	if ok, _ := body["ok"].(bool); !ok {
		t.Errorf("verify response not ok: %v", body)
	}
	if body["address"] != address || body["telegram_id"] != "12345" {
		t.Errorf("unexpected verify body: %v", body)
	}
}

func TestHandleSession_UnsupportedAction(t *testing.T) {
	app := newTestApp(t)

	resp, body := postSession(t, app, map[string]any{
		"action":      "refresh",
		"telegram_id": "12345",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "Unsupported action" {
		t.Errorf("unexpected error body: %v", body)
	}
}

func TestHandleSession_MalformedProof(t *testing.T) {
	app := newTestApp(t)
	address := "0:" + strings.Repeat("ab", 32)

	tests := []struct {
		name    string
		proof   map[string]any
		missing string
	}{
		{"no proof at all", nil, "missing proof"},
		{"no timestamp", map[string]any{
			"domain":    map[string]any{"value": testDomain, "lengthBytes": len(testDomain)},
			"payload":   "p",
			"signature": "s",
		}, "missing timestamp"},
		{"no domain value", map[string]any{
			"timestamp": 1,
			"domain":    map[string]any{"lengthBytes": 3},
			"payload":   "p",
			"signature": "s",
		}, "missing domain.value"},
		{"no signature", map[string]any{
			"timestamp": 1,
			"domain":    map[string]any{"value": testDomain, "lengthBytes": len(testDomain)},
			"payload":   "p",
		}, "missing signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := map[string]any{
				"action":      "verify",
				"telegram_id": "12345",
				"address":     address,
			}
			if tt.proof != nil {
				req["proof"] = tt.proof
			}
			resp, body := postSession(t, app, req)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%v)", resp.StatusCode, body)
			}
			msg, _ := body["error"].(string)
			if !strings.Contains(msg, tt.missing) {
				t.Errorf("error %q does not name %q", msg, tt.missing)
			}
		})
	}
}

func TestHandleSession_InvalidBody(t *testing.T) {
	app := newTestApp(t)

	resp, body := postSession(t, app, "{not json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "invalid request body" {
		t.Errorf("unexpected error body: %v", body)
	}
}

func TestHandleSession_MissingIdentity(t *testing.T) {
	app := newTestApp(t)

	resp, body := postSession(t, app, map[string]any{"action": "verify"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "telegram_id and address are required") {
		t.Errorf("unexpected error body: %v", body)
	}
}

func TestHandleSession_MethodNotAllowed(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ton-connect/session", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
