package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet — подтверждённый TON кошелёк пользователя.
// Один пользователь — один кошелёк: повторная верификация с другим адресом
// перепривязывает существующую строку.
type Wallet struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Address     string    `json:"address"`    // raw: 0:<hex>
	PublicKey   string    `json:"public_key"` // hex
	AppName     *string   `json:"app_name,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
