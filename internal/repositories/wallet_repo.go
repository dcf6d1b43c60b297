package repositories

import (
	"context"
	"errors"

	"github.com/dynamic-capital/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// GetByAddress ищет кошелёк по адресу (натуральный ключ владения).
// Возвращает (nil, nil), если адрес никем не занят.
func (r *WalletRepo) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	var w models.Wallet
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, address, public_key, app_name, connected_at, updated_at
		FROM wallets WHERE address = $1
	`, address).Scan(&w.ID, &w.UserID, &w.Address, &w.PublicKey, &w.AppName, &w.ConnectedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetByUser возвращает кошелёк пользователя, (nil, nil) если не привязан.
func (r *WalletRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, address, public_key, app_name, connected_at, updated_at
		FROM wallets WHERE user_id = $1
	`, userID).Scan(&w.ID, &w.UserID, &w.Address, &w.PublicKey, &w.AppName, &w.ConnectedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepo) Insert(ctx context.Context, w *models.Wallet) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO wallets (user_id, address, public_key, app_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, connected_at, updated_at
	`, w.UserID, w.Address, w.PublicKey, w.AppName).Scan(&w.ID, &w.ConnectedAt, &w.UpdatedAt)
}

// Rebind обновляет адрес и ключ существующей строки кошелька.
// Перепривязка при повторной верификации: строка одна на пользователя.
func (r *WalletRepo) Rebind(ctx context.Context, walletID uuid.UUID, address, publicKey string, appName *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE wallets
		SET address = $2, public_key = $3, app_name = $4, updated_at = now()
		WHERE id = $1
	`, walletID, address, publicKey, appName)
	return err
}
