package storage

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/walt-tipbot/internal/errors"
	"github.com/walt-tipbot/internal/models"
	"github.com/walt-tipbot/internal/types"
)

// SQLiteClaimStore is the SQLite-backed faucet claim ledger
type SQLiteClaimStore struct {
	db *SQLiteDB
}

// NewSQLiteClaimStore creates a new SQLite-backed claim store
func NewSQLiteClaimStore(db *SQLiteDB) *SQLiteClaimStore {
	return &SQLiteClaimStore{db: db}
}

// HasClaimed reports whether the normalized address appears in the ledger
func (s *SQLiteClaimStore) HasClaimed(ctx context.Context, address string) (bool, error) {
	var exists int
	err := s.db.DB().QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM faucet_claims WHERE address = ?)`,
		types.NormalizeAddress(address),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check claim: %w", err)
	}

	return exists != 0, nil
}

// Record appends a claim to the ledger
func (s *SQLiteClaimStore) Record(ctx context.Context, claim *models.FaucetClaim) error {
	if claim.ID == "" {
		claim.ID = uuid.New().String()
	}
	if claim.ClaimedAt.IsZero() {
		claim.ClaimedAt = time.Now().UTC()
	}
	claim.Address = types.NormalizeAddress(claim.Address)

	query := `
		INSERT INTO faucet_claims (id, address, amount, amount_wei, tx_hash, claimed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.DB().ExecContext(ctx, query,
		claim.ID,
		claim.Address,
		claim.Amount,
		claim.AmountWei,
		claim.TxHash,
		encodeTime(claim.ClaimedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperrors.NewAlreadyClaimedError(claim.Address)
		}
		return fmt.Errorf("failed to record claim: %w", err)
	}

	return nil
}

// Totals aggregates the claim ledger. Wei amounts exceed SQLite integer
// range, so the sum happens in Go.
func (s *SQLiteClaimStore) Totals(ctx context.Context) (*ClaimTotals, error) {
	rows, err := s.db.DB().QueryContext(ctx, `SELECT amount_wei FROM faucet_claims`)
	if err != nil {
		return nil, fmt.Errorf("failed to read claim totals: %w", err)
	}
	defer rows.Close()

	total := new(big.Int)
	var count int64
	for rows.Next() {
		var amountWei string
		if err := rows.Scan(&amountWei); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		wei, err := types.ParseWei(amountWei)
		if err != nil {
			return nil, err
		}
		total.Add(total, wei)
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claims: %w", err)
	}

	return &ClaimTotals{TotalClaimedWei: total.String(), Count: count}, nil
}
