package events

import "context"

const (
	StreamWallet = "wallet"

	EventWalletConnected = "wallet_connected"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}
