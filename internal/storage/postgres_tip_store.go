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

// PostgresTipStore handles tip persistence on Postgres
type PostgresTipStore struct {
	db *PostgresDB
}

// NewPostgresTipStore creates a new Postgres-backed tip store
func NewPostgresTipStore(db *PostgresDB) *PostgresTipStore {
	return &PostgresTipStore{db: db}
}

const tipColumns = `id, sender_telegram_id, receiver_telegram_id, amount, message,
	COALESCE(tx_hash, ''), status, created_at, completed_at`

// Create persists a new tip. The identifier is assigned by the sequence,
// unique and monotonically increasing.
func (s *PostgresTipStore) Create(ctx context.Context, tip *models.Tip) error {
	if tip.CreatedAt.IsZero() {
		tip.CreatedAt = time.Now().UTC()
	}
	tip.Status = types.TipStatusPending

	query := `
		INSERT INTO tips (sender_telegram_id, receiver_telegram_id, amount, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := s.db.Pool().QueryRow(ctx, query,
		tip.SenderTelegramID,
		tip.ReceiverTelegramID,
		tip.AmountWei,
		tip.Message,
		tip.Status,
		tip.CreatedAt,
	).Scan(&tip.ID)
	if err != nil {
		return fmt.Errorf("failed to create tip: %w", err)
	}

	return nil
}

// GetByID retrieves a tip by identifier
func (s *PostgresTipStore) GetByID(ctx context.Context, id int64) (*models.Tip, error) {
	query := `SELECT ` + tipColumns + ` FROM tips WHERE id = $1`

	tip, err := scanPgxTip(s.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("tip", fmt.Sprintf("%d", id))
		}
		return nil, fmt.Errorf("failed to get tip: %w", err)
	}

	return tip, nil
}

// Complete unconditionally overwrites status, tx hash and completion time.
// A second call on an already-completed tip re-overwrites without conflict.
func (s *PostgresTipStore) Complete(ctx context.Context, id int64, txHash string, completedAt time.Time) (*models.Tip, error) {
	query := `
		UPDATE tips
		SET status = $2, tx_hash = $3, completed_at = $4
		WHERE id = $1
		RETURNING ` + tipColumns

	tip, err := scanPgxTip(s.db.Pool().QueryRow(ctx, query, id, types.TipStatusCompleted, txHash, completedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("tip", fmt.Sprintf("%d", id))
		}
		return nil, fmt.Errorf("failed to complete tip: %w", err)
	}

	return tip, nil
}

// CompleteIfPending performs a conditional update, transitioning only while
// the tip is still pending. Returns false without error when the tip exists
// but was already completed.
func (s *PostgresTipStore) CompleteIfPending(ctx context.Context, id int64, txHash string, completedAt time.Time) (bool, error) {
	query := `
		UPDATE tips
		SET status = $2, tx_hash = $3, completed_at = $4
		WHERE id = $1 AND status = $5
	`

	result, err := s.db.Pool().Exec(ctx, query, id, types.TipStatusCompleted, txHash, completedAt, types.TipStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to complete tip: %w", err)
	}
	if result.RowsAffected() > 0 {
		return true, nil
	}

	// Distinguish an already-completed tip from a missing one.
	if _, err := s.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// ListForUser returns tips sent or received by the user, most recent first
func (s *PostgresTipStore) ListForUser(ctx context.Context, telegramID string, limit int) ([]*models.Tip, error) {
	query := `
		SELECT ` + tipColumns + `
		FROM tips
		WHERE sender_telegram_id = $1 OR receiver_telegram_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := s.db.Pool().Query(ctx, query, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tips: %w", err)
	}
	defer rows.Close()

	return collectPgxTips(rows)
}

// ListCompletedSince returns completed tips created at or after the cutoff
func (s *PostgresTipStore) ListCompletedSince(ctx context.Context, since time.Time) ([]*models.Tip, error) {
	query := `
		SELECT ` + tipColumns + `
		FROM tips
		WHERE status = $1 AND created_at >= $2
		ORDER BY id DESC
	`

	rows, err := s.db.Pool().Query(ctx, query, types.TipStatusCompleted, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tips: %w", err)
	}
	defer rows.Close()

	return collectPgxTips(rows)
}

func scanPgxTip(row pgx.Row) (*models.Tip, error) {
	var tip models.Tip
	err := row.Scan(
		&tip.ID,
		&tip.SenderTelegramID,
		&tip.ReceiverTelegramID,
		&tip.AmountWei,
		&tip.Message,
		&tip.TxHash,
		&tip.Status,
		&tip.CreatedAt,
		&tip.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tip, nil
}

func collectPgxTips(rows pgx.Rows) ([]*models.Tip, error) {
	var tips []*models.Tip
	for rows.Next() {
		tip, err := scanPgxTip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tip: %w", err)
		}
		tips = append(tips, tip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tips: %w", err)
	}
	return tips, nil
}
