package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	apperrors "github.com/walt-tipbot/internal/errors"
	"github.com/walt-tipbot/internal/models"
	"github.com/walt-tipbot/internal/types"
)

// PostgresClaimStore is the Postgres-backed faucet claim ledger
type PostgresClaimStore struct {
	db *PostgresDB
}

// NewPostgresClaimStore creates a new Postgres-backed claim store
func NewPostgresClaimStore(db *PostgresDB) *PostgresClaimStore {
	return &PostgresClaimStore{db: db}
}

// HasClaimed reports whether the normalized address appears in the ledger
func (s *PostgresClaimStore) HasClaimed(ctx context.Context, address string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM faucet_claims WHERE address = $1)`

	var exists bool
	err := s.db.Pool().QueryRow(ctx, query, types.NormalizeAddress(address)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check claim: %w", err)
	}

	return exists, nil
}

// Record appends a claim to the ledger. The unique constraint on address
// enforces at-most-once claims.
func (s *PostgresClaimStore) Record(ctx context.Context, claim *models.FaucetClaim) error {
	if claim.ID == "" {
		claim.ID = uuid.New().String()
	}
	if claim.ClaimedAt.IsZero() {
		claim.ClaimedAt = time.Now().UTC()
	}
	claim.Address = types.NormalizeAddress(claim.Address)

	query := `
		INSERT INTO faucet_claims (id, address, amount, amount_wei, tx_hash, claimed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.Pool().Exec(ctx, query,
		claim.ID,
		claim.Address,
		claim.Amount,
		claim.AmountWei,
		claim.TxHash,
		claim.ClaimedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.NewAlreadyClaimedError(claim.Address)
		}
		return fmt.Errorf("failed to record claim: %w", err)
	}

	return nil
}

// Totals aggregates the claim ledger
func (s *PostgresClaimStore) Totals(ctx context.Context) (*ClaimTotals, error) {
	query := `SELECT COALESCE(SUM(amount_wei::numeric), 0)::text, COUNT(*) FROM faucet_claims`

	totals := &ClaimTotals{}
	err := s.db.Pool().QueryRow(ctx, query).Scan(&totals.TotalClaimedWei, &totals.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to read claim totals: %w", err)
	}

	return totals, nil
}
