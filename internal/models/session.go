package models

import (
	"time"

	"github.com/google/uuid"
)

// ProofSession — одна попытка TON Connect handshake.
// Создаётся при выдаче challenge, поля wallet_* и verified_at заполняются
// ровно один раз при успешной верификации.
type ProofSession struct {
	ID              uuid.UUID  `json:"id"`
	TelegramID      string     `json:"telegram_id"`
	Payload         string     `json:"payload"` // base64url nonce
	ExpiresAt       time.Time  `json:"expires_at"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	WalletAddress   *string    `json:"-"`
	WalletPublicKey *string    `json:"-"`
	ProofTimestamp  *time.Time `json:"-"`
	WalletAppName   *string    `json:"-"`
	ProofSignature  *string    `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
}

// VerifiedProof — результат успешной верификации, записываемый в сессию.
type VerifiedProof struct {
	WalletAddress   string
	WalletPublicKey string
	ProofTimestamp  time.Time
	WalletAppName   *string
	ProofSignature  string
}
