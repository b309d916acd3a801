package service

import (
	"context"
	"fmt"
	"math/big"

	apperrors "github.com/walt-tipbot/internal/errors"
	"github.com/walt-tipbot/internal/logging"
	"github.com/walt-tipbot/internal/models"
	"github.com/walt-tipbot/internal/storage"
	"github.com/walt-tipbot/internal/types"
)

// Transferrer sends faucet tokens on-chain. Implemented by chain.TokenClient.
type Transferrer interface {
	FaucetEnabled() bool
	Transfer(ctx context.Context, to string, amountWei *big.Int) (string, error)
}

// FaucetService tracks one-time token grants per wallet address. The claim
// ledger is append-only: an address can only ever claim once.
type FaucetService struct {
	claims   storage.ClaimStore
	transfer Transferrer

	amountHuman string
	amountWei   *big.Int
	logger      *logging.Logger
}

// NewFaucetService creates a new faucet service. amountHuman is the per-claim
// grant in human-readable token units.
func NewFaucetService(claims storage.ClaimStore, transfer Transferrer, amountHuman string) (*FaucetService, error) {
	amountWei, err := types.ParseAmount(amountHuman)
	if err != nil {
		return nil, fmt.Errorf("invalid faucet amount %q: %w", amountHuman, err)
	}

	return &FaucetService{
		claims:      claims,
		transfer:    transfer,
		amountHuman: amountHuman,
		amountWei:   amountWei,
		logger:      logging.GetGlobalLogger(),
	}, nil
}

// FaucetStatus describes claim eligibility for an address plus the ledger
// counters surfaced on the status and health endpoints.
type FaucetStatus struct {
	Address       string `json:"address"`
	CanClaim      bool   `json:"can_claim"`
	HasClaimed    bool   `json:"has_claimed"`
	Amount        string `json:"amount"`
	TotalClaimed  string `json:"total_claimed"`
	TotalClaims   int64  `json:"total_claims"`
	FaucetEnabled bool   `json:"faucet_enabled"`
}

// ClaimStatus reports whether the address can claim and the ledger totals
func (s *FaucetService) ClaimStatus(ctx context.Context, address string) (*FaucetStatus, error) {
	if !types.IsValidAddress(address) {
		return nil, apperrors.NewInvalidAddressError(address)
	}
	normalized := types.NormalizeAddress(address)

	hasClaimed, err := s.claims.HasClaimed(ctx, normalized)
	if err != nil {
		return nil, err
	}

	totals, err := s.claims.Totals(ctx)
	if err != nil {
		return nil, err
	}

	enabled := s.transfer.FaucetEnabled()

	return &FaucetStatus{
		Address:       normalized,
		CanClaim:      !hasClaimed && enabled,
		HasClaimed:    hasClaimed,
		Amount:        s.amountHuman,
		TotalClaimed:  totals.TotalClaimedWei,
		TotalClaims:   totals.Count,
		FaucetEnabled: enabled,
	}, nil
}

// Claim performs the one-time grant: it transfers tokens from the faucet
// wallet and appends the claim to the ledger. The transfer happens first;
// the recorded claim carries its transaction hash.
func (s *FaucetService) Claim(ctx context.Context, address string) (*models.FaucetClaim, error) {
	if !types.IsValidAddress(address) {
		return nil, apperrors.NewInvalidAddressError(address)
	}
	normalized := types.NormalizeAddress(address)

	if !s.transfer.FaucetEnabled() {
		return nil, apperrors.NewFaucetDisabledError()
	}

	hasClaimed, err := s.claims.HasClaimed(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if hasClaimed {
		return nil, apperrors.NewAlreadyClaimedError(normalized)
	}

	txHash, err := s.transfer.Transfer(ctx, normalized, s.amountWei)
	if err != nil {
		return nil, err
	}

	claim := &models.FaucetClaim{
		Address:   normalized,
		Amount:    s.amountHuman,
		AmountWei: s.amountWei.String(),
		TxHash:    txHash,
	}

	// The ledger's unique constraint catches a claim that raced past the
	// membership check above.
	if err := s.claims.Record(ctx, claim); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"address": normalized,
		"amount":  s.amountHuman,
		"txHash":  txHash,
	}).Info("Faucet claim recorded")

	return claim, nil
}

// ClaimCount returns the number of recorded claims, used by the health
// endpoint.
func (s *FaucetService) ClaimCount(ctx context.Context) (int64, error) {
	totals, err := s.claims.Totals(ctx)
	if err != nil {
		return 0, err
	}
	return totals.Count, nil
}

// Enabled reports whether the faucet has a signing key configured.
func (s *FaucetService) Enabled() bool {
	return s.transfer.FaucetEnabled()
}
