// Package storage provides database connections and store implementations
// for users, tips and faucet claims.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/walt-tipbot/internal/config"
	"github.com/walt-tipbot/internal/models"
)

// UserStore persists Telegram users and their linked wallets.
type UserStore interface {
	// Upsert creates the user on first interaction or refreshes the username.
	Upsert(ctx context.Context, user *models.User) error
	GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error)
	// GetByUsername resolves a user by Telegram username, case-insensitive.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// SetWallet stores a lowercase-normalized wallet address. A later call
	// overwrites the previous address.
	SetWallet(ctx context.Context, telegramID, wallet string) error
	SetPermit2Approved(ctx context.Context, telegramID string, approved bool) error
	// ResolveWallet returns the linked wallet address, or "" when the user
	// is unknown or has not linked one.
	ResolveWallet(ctx context.Context, telegramID string) (string, error)
}

// TipStore persists tip records. Create assigns unique, monotonically
// increasing identifiers.
type TipStore interface {
	Create(ctx context.Context, tip *models.Tip) error
	GetByID(ctx context.Context, id int64) (*models.Tip, error)
	// Complete unconditionally overwrites status, tx hash and completion
	// time. Racing callers are last-writer-wins.
	Complete(ctx context.Context, id int64, txHash string, completedAt time.Time) (*models.Tip, error)
	// CompleteIfPending updates only while status is still pending and
	// reports whether the transition happened. Callers that need the
	// pending -> completed transition to fire exactly once use this.
	CompleteIfPending(ctx context.Context, id int64, txHash string, completedAt time.Time) (bool, error)
	// ListForUser returns tips sent or received by the user, most recent
	// first, bounded to limit.
	ListForUser(ctx context.Context, telegramID string, limit int) ([]*models.Tip, error)
	ListCompletedSince(ctx context.Context, since time.Time) ([]*models.Tip, error)
}

// ClaimTotals aggregates the faucet claim ledger.
type ClaimTotals struct {
	TotalClaimedWei string
	Count           int64
}

// ClaimStore is the append-only faucet claim ledger.
type ClaimStore interface {
	HasClaimed(ctx context.Context, address string) (bool, error)
	// Record appends a claim; a duplicate normalized address fails with an
	// already-claimed error.
	Record(ctx context.Context, claim *models.FaucetClaim) error
	Totals(ctx context.Context) (*ClaimTotals, error)
}

// Store bundles the backend stores behind a single open/close lifecycle.
type Store struct {
	Users  UserStore
	Tips   TipStore
	Claims ClaimStore

	close func() error
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s.close != nil {
		return s.close()
	}
	return nil
}

// Open opens the configured persistence backend.
func Open(ctx context.Context, cfg *config.StorageConfig) (*Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := NewPostgresDB(&cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("open postgres backend: %w", err)
		}
		return &Store{
			Users:  NewPostgresUserStore(db),
			Tips:   NewPostgresTipStore(db),
			Claims: NewPostgresClaimStore(db),
			close: func() error {
				db.Close()
				return nil
			},
		}, nil
	case config.BackendSQLite:
		db, err := OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return &Store{
			Users:  NewSQLiteUserStore(db),
			Tips:   NewSQLiteTipStore(db),
			Claims: NewSQLiteClaimStore(db),
			close:  db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
