package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/dynamic-capital/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// DeleteExpired удаляет просроченные неверифицированные сессии пользователя.
// Вызывается при выдаче нового challenge, ошибки игнорируются вызывающим.
func (r *SessionRepo) DeleteExpired(ctx context.Context, telegramID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM ton_connect_sessions
		WHERE telegram_id = $1 AND verified_at IS NULL AND expires_at < now()
	`, telegramID)
	return err
}

func (r *SessionRepo) Create(ctx context.Context, telegramID, payload string, expiresAt time.Time) (*models.ProofSession, error) {
	s := &models.ProofSession{
		TelegramID: telegramID,
		Payload:    payload,
		ExpiresAt:  expiresAt,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ton_connect_sessions (telegram_id, payload, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, telegramID, payload, expiresAt).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FindByPayload возвращает свежайшую сессию с данным payload.
// Возвращает (nil, nil), если такой нет.
func (r *SessionRepo) FindByPayload(ctx context.Context, telegramID, payload string) (*models.ProofSession, error) {
	var s models.ProofSession
	err := r.pool.QueryRow(ctx, `
		SELECT id, telegram_id, payload, expires_at, verified_at, created_at
		FROM ton_connect_sessions
		WHERE telegram_id = $1 AND payload = $2
		ORDER BY created_at DESC LIMIT 1
	`, telegramID, payload).Scan(&s.ID, &s.TelegramID, &s.Payload, &s.ExpiresAt, &s.VerifiedAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// MarkVerified записывает результат успешной верификации. Write-once по смыслу:
// повторная верификация идёт уже через новую сессию.
func (r *SessionRepo) MarkVerified(ctx context.Context, id uuid.UUID, res models.VerifiedProof) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE ton_connect_sessions
		SET verified_at = now(),
		    wallet_address = $2,
		    wallet_public_key = $3,
		    proof_timestamp = $4,
		    wallet_app_name = $5,
		    proof_signature = $6
		WHERE id = $1
	`, id, res.WalletAddress, res.WalletPublicKey, res.ProofTimestamp, res.WalletAppName, res.ProofSignature)
	return err
}
