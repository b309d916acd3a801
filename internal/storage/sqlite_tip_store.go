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

// SQLiteTipStore handles tip persistence on SQLite
type SQLiteTipStore struct {
	db *SQLiteDB
}

// NewSQLiteTipStore creates a new SQLite-backed tip store
func NewSQLiteTipStore(db *SQLiteDB) *SQLiteTipStore {
	return &SQLiteTipStore{db: db}
}

const sqliteTipColumns = `id, sender_telegram_id, receiver_telegram_id, amount, message,
	COALESCE(tx_hash, ''), status, created_at, completed_at`

// Create persists a new tip; AUTOINCREMENT keeps identifiers unique and
// monotonically increasing.
func (s *SQLiteTipStore) Create(ctx context.Context, tip *models.Tip) error {
	if tip.CreatedAt.IsZero() {
		tip.CreatedAt = time.Now().UTC()
	}
	tip.Status = types.TipStatusPending

	query := `
		INSERT INTO tips (sender_telegram_id, receiver_telegram_id, amount, message, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.DB().ExecContext(ctx, query,
		tip.SenderTelegramID,
		tip.ReceiverTelegramID,
		tip.AmountWei,
		tip.Message,
		tip.Status,
		encodeTime(tip.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create tip: %w", err)
	}

	tip.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read tip id: %w", err)
	}

	return nil
}

// GetByID retrieves a tip by identifier
func (s *SQLiteTipStore) GetByID(ctx context.Context, id int64) (*models.Tip, error) {
	query := `SELECT ` + sqliteTipColumns + ` FROM tips WHERE id = ?`

	tip, err := scanSQLiteTip(s.db.DB().QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("tip", fmt.Sprintf("%d", id))
		}
		return nil, fmt.Errorf("failed to get tip: %w", err)
	}

	return tip, nil
}

// Complete unconditionally overwrites status, tx hash and completion time
func (s *SQLiteTipStore) Complete(ctx context.Context, id int64, txHash string, completedAt time.Time) (*models.Tip, error) {
	query := `
		UPDATE tips
		SET status = ?, tx_hash = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := s.db.DB().ExecContext(ctx, query,
		types.TipStatusCompleted, txHash, encodeTime(completedAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete tip: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, apperrors.NewNotFoundError("tip", fmt.Sprintf("%d", id))
	}

	return s.GetByID(ctx, id)
}

// CompleteIfPending performs a conditional update, transitioning only while
// the tip is still pending
func (s *SQLiteTipStore) CompleteIfPending(ctx context.Context, id int64, txHash string, completedAt time.Time) (bool, error) {
	query := `
		UPDATE tips
		SET status = ?, tx_hash = ?, completed_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := s.db.DB().ExecContext(ctx, query,
		types.TipStatusCompleted, txHash, encodeTime(completedAt), id, types.TipStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete tip: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// ListForUser returns tips sent or received by the user, most recent first
func (s *SQLiteTipStore) ListForUser(ctx context.Context, telegramID string, limit int) ([]*models.Tip, error) {
	query := `
		SELECT ` + sqliteTipColumns + `
		FROM tips
		WHERE sender_telegram_id = ? OR receiver_telegram_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.DB().QueryContext(ctx, query, telegramID, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tips: %w", err)
	}
	defer rows.Close()

	return collectSQLiteTips(rows)
}

// ListCompletedSince returns completed tips created at or after the cutoff
func (s *SQLiteTipStore) ListCompletedSince(ctx context.Context, since time.Time) ([]*models.Tip, error) {
	query := `
		SELECT ` + sqliteTipColumns + `
		FROM tips
		WHERE status = ? AND created_at >= ?
		ORDER BY id DESC
	`

	rows, err := s.db.DB().QueryContext(ctx, query, types.TipStatusCompleted, encodeTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tips: %w", err)
	}
	defer rows.Close()

	return collectSQLiteTips(rows)
}

type sqliteRowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteTip(row sqliteRowScanner) (*models.Tip, error) {
	var tip models.Tip
	var createdAt string
	var completedAt sql.NullString

	err := row.Scan(
		&tip.ID,
		&tip.SenderTelegramID,
		&tip.ReceiverTelegramID,
		&tip.AmountWei,
		&tip.Message,
		&tip.TxHash,
		&tip.Status,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if tip.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := decodeTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		tip.CompletedAt = &t
	}

	return &tip, nil
}

func collectSQLiteTips(rows *sql.Rows) ([]*models.Tip, error) {
	var tips []*models.Tip
	for rows.Next() {
		tip, err := scanSQLiteTip(rows)
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
