package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	apperrors "github.com/walt-tipbot/internal/errors"
	"github.com/walt-tipbot/internal/models"
	"github.com/walt-tipbot/internal/types"
)

// PostgresUserStore handles user persistence on Postgres
type PostgresUserStore struct {
	db *PostgresDB
}

// NewPostgresUserStore creates a new Postgres-backed user store
func NewPostgresUserStore(db *PostgresDB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// Upsert creates the user on first interaction or refreshes the username
func (s *PostgresUserStore) Upsert(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (telegram_id, telegram_username, permit2_approved, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id)
		DO UPDATE SET telegram_username = EXCLUDED.telegram_username
	`

	_, err := s.db.Pool().Exec(ctx, query,
		user.TelegramID,
		user.Username,
		user.Permit2Approved,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// GetByTelegramID retrieves a user by Telegram ID
func (s *PostgresUserStore) GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	query := `
		SELECT telegram_id, telegram_username, COALESCE(wallet_address, ''), permit2_approved, created_at
		FROM users
		WHERE telegram_id = $1
	`

	var user models.User
	err := s.db.Pool().QueryRow(ctx, query, telegramID).Scan(
		&user.TelegramID,
		&user.Username,
		&user.WalletAddress,
		&user.Permit2Approved,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("user", telegramID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByUsername resolves a user by Telegram username, case-insensitive
func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT telegram_id, telegram_username, COALESCE(wallet_address, ''), permit2_approved, created_at
		FROM users
		WHERE LOWER(telegram_username) = LOWER($1)
	`

	var user models.User
	err := s.db.Pool().QueryRow(ctx, query, username).Scan(
		&user.TelegramID,
		&user.Username,
		&user.WalletAddress,
		&user.Permit2Approved,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("user", username)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &user, nil
}

// SetWallet stores a lowercase-normalized wallet address
func (s *PostgresUserStore) SetWallet(ctx context.Context, telegramID, wallet string) error {
	query := `UPDATE users SET wallet_address = $2 WHERE telegram_id = $1`

	result, err := s.db.Pool().Exec(ctx, query, telegramID, types.NormalizeAddress(wallet))
	if err != nil {
		return fmt.Errorf("failed to set wallet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("user", telegramID)
	}

	return nil
}

// SetPermit2Approved updates the gasless-transfer authorization flag
func (s *PostgresUserStore) SetPermit2Approved(ctx context.Context, telegramID string, approved bool) error {
	query := `UPDATE users SET permit2_approved = $2 WHERE telegram_id = $1`

	result, err := s.db.Pool().Exec(ctx, query, telegramID, approved)
	if err != nil {
		return fmt.Errorf("failed to set permit2 flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("user", telegramID)
	}

	return nil
}

// ResolveWallet returns the linked wallet address, or "" when the user is
// unknown or has not linked one
func (s *PostgresUserStore) ResolveWallet(ctx context.Context, telegramID string) (string, error) {
	query := `SELECT COALESCE(wallet_address, '') FROM users WHERE telegram_id = $1`

	var wallet string
	err := s.db.Pool().QueryRow(ctx, query, telegramID).Scan(&wallet)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve wallet: %w", err)
	}

	return wallet, nil
}
