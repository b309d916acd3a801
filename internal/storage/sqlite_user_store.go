package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/walt-tipbot/internal/errors"
	"github.com/walt-tipbot/internal/models"
	"github.com/walt-tipbot/internal/types"
)

// SQLiteUserStore handles user persistence on SQLite
type SQLiteUserStore struct {
	db *SQLiteDB
}

// NewSQLiteUserStore creates a new SQLite-backed user store
func NewSQLiteUserStore(db *SQLiteDB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

// Upsert creates the user on first interaction or refreshes the username
func (s *SQLiteUserStore) Upsert(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (telegram_id, telegram_username, permit2_approved, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (telegram_id)
		DO UPDATE SET telegram_username = excluded.telegram_username
	`

	_, err := s.db.DB().ExecContext(ctx, query,
		user.TelegramID,
		user.Username,
		boolToInt(user.Permit2Approved),
		encodeTime(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// GetByTelegramID retrieves a user by Telegram ID
func (s *SQLiteUserStore) GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	query := `
		SELECT telegram_id, telegram_username, COALESCE(wallet_address, ''), permit2_approved, created_at
		FROM users
		WHERE telegram_id = ?
	`

	return s.scanUser(s.db.DB().QueryRowContext(ctx, query, telegramID), telegramID)
}

// GetByUsername resolves a user by Telegram username, case-insensitive
func (s *SQLiteUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT telegram_id, telegram_username, COALESCE(wallet_address, ''), permit2_approved, created_at
		FROM users
		WHERE LOWER(telegram_username) = LOWER(?)
	`

	return s.scanUser(s.db.DB().QueryRowContext(ctx, query, username), username)
}

// SetWallet stores a lowercase-normalized wallet address
func (s *SQLiteUserStore) SetWallet(ctx context.Context, telegramID, wallet string) error {
	result, err := s.db.DB().ExecContext(ctx,
		`UPDATE users SET wallet_address = ? WHERE telegram_id = ?`,
		types.NormalizeAddress(wallet), telegramID,
	)
	if err != nil {
		return fmt.Errorf("failed to set wallet: %w", err)
	}
	return requireRowAffected(result, "user", telegramID)
}

// SetPermit2Approved updates the gasless-transfer authorization flag
func (s *SQLiteUserStore) SetPermit2Approved(ctx context.Context, telegramID string, approved bool) error {
	result, err := s.db.DB().ExecContext(ctx,
		`UPDATE users SET permit2_approved = ? WHERE telegram_id = ?`,
		boolToInt(approved), telegramID,
	)
	if err != nil {
		return fmt.Errorf("failed to set permit2 flag: %w", err)
	}
	return requireRowAffected(result, "user", telegramID)
}

// ResolveWallet returns the linked wallet address, or "" when the user is
// unknown or has not linked one
func (s *SQLiteUserStore) ResolveWallet(ctx context.Context, telegramID string) (string, error) {
	var wallet string
	err := s.db.DB().QueryRowContext(ctx,
		`SELECT COALESCE(wallet_address, '') FROM users WHERE telegram_id = ?`, telegramID,
	).Scan(&wallet)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve wallet: %w", err)
	}

	return wallet, nil
}

func (s *SQLiteUserStore) scanUser(row *sql.Row, key string) (*models.User, error) {
	var user models.User
	var approved int
	var createdAt string

	err := row.Scan(&user.TelegramID, &user.Username, &user.WalletAddress, &approved, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("user", key)
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.Permit2Approved = approved != 0
	if user.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}

	return &user, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRowAffected(result sql.Result, resource, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(resource, id)
	}
	return nil
}
