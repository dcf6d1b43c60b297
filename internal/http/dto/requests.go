package dto

import (
	"encoding/json"
	"fmt"

	"github.com/dynamic-capital/backend/internal/ton"
)

type AuthTelegramRequest struct {
	InitData string `json:"init_data"`
}

// SessionRequest — тело POST /ton-connect/session. Поле action выбирает
// операцию: "challenge" или "verify" (по умолчанию verify).
type SessionRequest struct {
	Action          string          `json:"action"`
	TelegramID      string          `json:"telegram_id"`
	Address         string          `json:"address"`
	PublicKey       string          `json:"publicKey"`
	WalletStateInit string          `json:"walletStateInit"`
	WalletAppName   string          `json:"walletAppName"`
	Proof           json.RawMessage `json:"proof"`
}

// ParseProof строго валидирует форму proof-объекта и возвращает типизированный
// ton.Proof либо ошибку с именем первого недостающего поля.
func ParseProof(raw json.RawMessage) (ton.Proof, error) {
	var zero ton.Proof
	if len(raw) == 0 {
		return zero, fmt.Errorf("proof payload is malformed: missing proof")
	}

	var shadow struct {
		Timestamp *int64 `json:"timestamp"`
		Domain    *struct {
			Value       *string `json:"value"`
			LengthBytes *int    `json:"lengthBytes"`
		} `json:"domain"`
		Payload   *string `json:"payload"`
		Signature *string `json:"signature"`
	}
	if err := json.Unmarshal(raw, &shadow); err != nil {
		return zero, fmt.Errorf("proof payload is malformed: %w", err)
	}

	switch {
	case shadow.Timestamp == nil:
		return zero, fmt.Errorf("proof payload is malformed: missing timestamp")
	case shadow.Domain == nil:
		return zero, fmt.Errorf("proof payload is malformed: missing domain")
	case shadow.Domain.Value == nil:
		return zero, fmt.Errorf("proof payload is malformed: missing domain.value")
	case shadow.Domain.LengthBytes == nil:
		return zero, fmt.Errorf("proof payload is malformed: missing domain.lengthBytes")
	case shadow.Payload == nil:
		return zero, fmt.Errorf("proof payload is malformed: missing payload")
	case shadow.Signature == nil:
		return zero, fmt.Errorf("proof payload is malformed: missing signature")
	}

	return ton.Proof{
		Timestamp: *shadow.Timestamp,
		Domain: ton.ProofDomain{
			Value:       *shadow.Domain.Value,
			LengthBytes: *shadow.Domain.LengthBytes,
		},
		Payload:   *shadow.Payload,
		Signature: *shadow.Signature,
	}, nil
}
