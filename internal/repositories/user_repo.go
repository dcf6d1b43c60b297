package repositories

import (
	"context"
	"errors"

	"github.com/dynamic-capital/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// UpsertByTelegramID создаёт пользователя или обновляет last_active_at. Идемпотентен.
func (r *UserRepo) UpsertByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id)
		VALUES ($1)
		ON CONFLICT (telegram_id) DO UPDATE SET last_active_at = now()
		RETURNING id, telegram_id, created_at, last_active_at
	`, telegramID).Scan(&u.ID, &u.TelegramID, &u.CreatedAt, &u.LastActiveAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, telegram_id, created_at, last_active_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.TelegramID, &u.CreatedAt, &u.LastActiveAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, telegram_id, created_at, last_active_at
		FROM users WHERE telegram_id = $1
	`, telegramID).Scan(&u.ID, &u.TelegramID, &u.CreatedAt, &u.LastActiveAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
