package services

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/dynamic-capital/backend/internal/config"
	"github.com/dynamic-capital/backend/internal/events"
	"github.com/dynamic-capital/backend/internal/models"
	"github.com/dynamic-capital/backend/internal/ton"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// challengePayloadBytes — размер случайного nonce.
	challengePayloadBytes = 32
	// challengeExpiryBuffer — запас к окну свежести proof: кошелёк может
	// подписать challenge в последнюю секунду окна.
	challengeExpiryBuffer = 10 * time.Second
)

// SessionStore — жизненный цикл challenge-сессий. Владелец строк — сервис.
type SessionStore interface {
	DeleteExpired(ctx context.Context, telegramID string) error
	Create(ctx context.Context, telegramID, payload string, expiresAt time.Time) (*models.ProofSession, error)
	FindByPayload(ctx context.Context, telegramID, payload string) (*models.ProofSession, error)
	MarkVerified(ctx context.Context, id uuid.UUID, res models.VerifiedProof) error
}

type UserStore interface {
	UpsertByTelegramID(ctx context.Context, telegramID string) (*models.User, error)
}

type WalletStore interface {
	GetByAddress(ctx context.Context, address string) (*models.Wallet, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Insert(ctx context.Context, w *models.Wallet) error
	Rebind(ctx context.Context, walletID uuid.UUID, address, publicKey string, appName *string) error
}

type AuditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

// TonConnectService выдаёт challenge и проверяет TON Proof.
type TonConnectService struct {
	sessions  SessionStore
	users     UserStore
	wallets   WalletStore
	audit     AuditStore
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger

	now func() time.Time
}

func NewTonConnectService(
	sessions SessionStore,
	users UserStore,
	wallets WalletStore,
	audit AuditStore,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *TonConnectService {
	return &TonConnectService{
		sessions:  sessions,
		users:     users,
		wallets:   wallets,
		audit:     audit,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

type ChallengeResult struct {
	Payload   string    `json:"payload"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Challenge выдаёт одноразовый nonce для ton_proof.
// Просроченные неверифицированные сессии пользователя подчищаются попутно,
// ошибка подчистки не мешает выдаче.
func (s *TonConnectService) Challenge(ctx context.Context, telegramID string) (*ChallengeResult, error) {
	telegramID = strings.TrimSpace(telegramID)
	if telegramID == "" {
		return nil, badRequest("telegram_id is required")
	}

	if err := s.sessions.DeleteExpired(ctx, telegramID); err != nil {
		s.log.Warn("failed to clean up expired sessions", zap.Error(err))
	}

	buf := make([]byte, challengePayloadBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, internal("failed to generate challenge payload", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(buf)

	expiresAt := s.now().Add(s.cfg.TONProofMaxAge + challengeExpiryBuffer)
	sess, err := s.sessions.Create(ctx, telegramID, payload, expiresAt)
	if err != nil {
		return nil, internal("failed to create challenge session", err)
	}

	return &ChallengeResult{Payload: sess.Payload, ExpiresAt: sess.ExpiresAt}, nil
}

type VerifyInput struct {
	TelegramID      string
	Address         string // raw: "0:abc..."
	PublicKey       string // hex, опционально
	WalletStateInit string // base64 BOC, опционально
	WalletAppName   string
	Proof           ton.Proof
}

type VerifyResult struct {
	OK             bool      `json:"ok"`
	TelegramID     string    `json:"telegram_id"`
	Address        string    `json:"address"`
	ProofTimestamp time.Time `json:"proof_timestamp"`
}

// Verify проверяет ton_proof и привязывает кошелёк к пользователю.
// Проверки идут строго по порядку, первая провалившаяся решает исход;
// дешёвые отказы стоят до криптографии, но подпись проверяется всегда.
func (s *TonConnectService) Verify(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	telegramID := strings.TrimSpace(in.TelegramID)
	address := strings.TrimSpace(in.Address)
	if telegramID == "" || address == "" {
		return nil, badRequest("telegram_id and address are required")
	}

	// Домен — из allow-list.
	if !s.isDomainAllowed(in.Proof.Domain.Value) {
		return nil, forbidden("proof domain is not allowed")
	}

	// Окно свежести симметричное: допускаем и небольшое отставание часов кошелька.
	maxAge := int64(s.cfg.TONProofMaxAge / time.Second)
	drift := s.now().Unix() - in.Proof.Timestamp
	if drift < 0 {
		drift = -drift
	}
	if drift > maxAge {
		return nil, unauthorized("ton proof expired, reconnect the wallet")
	}

	sig, err := ton.DecodeSignature(in.Proof.Signature)
	if err != nil {
		return nil, badRequest("invalid proof signature encoding")
	}

	pubKey := s.resolvePublicKey(in.PublicKey, in.WalletStateInit)
	if pubKey == nil {
		return nil, badRequest("public key required")
	}

	sess, err := s.sessions.FindByPayload(ctx, telegramID, in.Proof.Payload)
	if err != nil {
		return nil, internal("failed to look up challenge session", err)
	}
	if sess == nil {
		return nil, unauthorized("challenge not found, retry connection")
	}
	if sess.ExpiresAt.Before(s.now()) {
		return nil, unauthorized("challenge expired, reconnect")
	}

	workchain, addrHash, err := ton.ParseRawAddress(address)
	if err != nil {
		return nil, &Error{Kind: KindBadRequest, Msg: "invalid TON address", Err: err}
	}
	digest, err := ton.ProofDigest(workchain, addrHash, in.Proof)
	if err != nil {
		return nil, &Error{Kind: KindBadRequest, Msg: "malformed proof", Err: err}
	}
	if err := ton.VerifySignature(pubKey, digest, sig); err != nil {
		return nil, unauthorized("signature does not match proof payload")
	}

	user, err := s.users.UpsertByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, internal("failed to upsert user", err)
	}

	// Адрес — натуральный ключ владения: чужой кошелёк не перезаписываем.
	owner, err := s.wallets.GetByAddress(ctx, address)
	if err != nil {
		return nil, internal("failed to look up wallet", err)
	}
	if owner != nil && owner.UserID != user.ID {
		return nil, forbidden("wallet already linked to another user")
	}

	pubKeyHex := hex.EncodeToString(pubKey)
	var appName *string
	if name := strings.TrimSpace(in.WalletAppName); name != "" {
		appName = &name
	}

	existing, err := s.wallets.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, internal("failed to look up wallet", err)
	}
	action := "wallet_connected"
	if existing != nil {
		// Одна строка кошелька на пользователя: новый адрес молча
		// перепривязывает существующую.
		if existing.Address != address {
			action = "wallet_rebound"
		}
		if err := s.wallets.Rebind(ctx, existing.ID, address, pubKeyHex, appName); err != nil {
			return nil, internal("failed to rebind wallet", err)
		}
	} else {
		w := &models.Wallet{UserID: user.ID, Address: address, PublicKey: pubKeyHex, AppName: appName}
		if err := s.wallets.Insert(ctx, w); err != nil {
			return nil, internal("failed to save wallet", err)
		}
	}

	proofTime := time.Unix(in.Proof.Timestamp, 0).UTC()

	// Финальная запись в сессию — best-effort: кошелёк уже привязан,
	// отказ бухгалтерии не должен валить запрос.
	if err := s.sessions.MarkVerified(ctx, sess.ID, models.VerifiedProof{
		WalletAddress:   address,
		WalletPublicKey: pubKeyHex,
		ProofTimestamp:  proofTime,
		WalletAppName:   appName,
		ProofSignature:  in.Proof.Signature,
	}); err != nil {
		s.log.Warn("failed to mark session verified", zap.Error(err))
	}

	if s.audit != nil {
		_ = s.audit.Log(ctx, models.AuditLog{
			ActorUserID: &user.ID,
			ActorType:   "user",
			Action:      action,
			EntityType:  "wallet",
			Meta:        map[string]any{"address": address, "domain": in.Proof.Domain.Value},
		})
	}
	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.StreamWallet, events.Event{
			Type:    events.EventWalletConnected,
			Payload: map[string]any{"telegram_id": telegramID, "address": address},
		})
	}

	s.log.Info("wallet verified",
		zap.String("telegram_id", telegramID),
		zap.String("address", address),
	)

	return &VerifyResult{
		OK:             true,
		TelegramID:     telegramID,
		Address:        address,
		ProofTimestamp: proofTime,
	}, nil
}

// resolvePublicKey выбирает ключ: явный hex из запроса, иначе из stateInit.
// Кривой явный ключ не фатален — пробуем stateInit.
func (s *TonConnectService) resolvePublicKey(pubKeyHex, stateInit string) ed25519.PublicKey {
	if pubKeyHex != "" && len(pubKeyHex)%2 == 0 {
		raw, err := hex.DecodeString(pubKeyHex)
		if err == nil && len(raw) == ed25519.PublicKeySize {
			return raw
		}
	}
	if stateInit != "" {
		key, err := ton.PublicKeyFromStateInit(stateInit)
		if err != nil {
			s.log.Debug("state init key derivation failed", zap.Error(err))
		} else if key != nil {
			return key
		}
	}
	return nil
}

func (s *TonConnectService) isDomainAllowed(domain string) bool {
	for _, d := range s.cfg.TONProofDomains {
		if d == domain {
			return true
		}
	}
	return false
}
