package service

import (
	"context"
	"fmt"
	"math/big"
	"time"

	apperrors "github.com/walt-tipbot/internal/errors"
	"github.com/walt-tipbot/internal/logging"
	"github.com/walt-tipbot/internal/storage"
	"github.com/walt-tipbot/internal/types"
)

// BalanceReader reads on-chain token balances.
type BalanceReader interface {
	BalanceOf(ctx context.Context, address string) (*big.Int, error)
}

// BalanceService reads WALT balances through a short Redis cache so repeated
// /balance commands do not hammer the RPC endpoint.
type BalanceService struct {
	reader BalanceReader
	cache  *storage.RedisCache
	ttl    time.Duration

	logger *logging.Logger
}

// NewBalanceService creates a new balance service. cache may be nil.
func NewBalanceService(reader BalanceReader, cache *storage.RedisCache, ttl time.Duration) *BalanceService {
	return &BalanceService{
		reader: reader,
		cache:  cache,
		ttl:    ttl,
		logger: logging.GetGlobalLogger(),
	}
}

// Balance returns the token balance of the address in wei.
func (s *BalanceService) Balance(ctx context.Context, address string) (*big.Int, error) {
	if !types.IsValidAddress(address) {
		return nil, apperrors.NewInvalidAddressError(address)
	}
	address = types.NormalizeAddress(address)

	cacheKey := fmt.Sprintf("balance:%s", address)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			if wei, err := types.ParseWei(cached); err == nil {
				return wei, nil
			}
		} else if !storage.IsCacheMiss(err) {
			s.logger.WithError(err).Warn("Balance cache read failed")
		}
	}

	wei, err := s.reader.BalanceOf(ctx, address)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, wei.String(), s.ttl); err != nil {
			s.logger.WithError(err).Warn("Balance cache write failed")
		}
	}

	return wei, nil
}

// BalanceHuman returns the balance formatted in whole-token units.
func (s *BalanceService) BalanceHuman(ctx context.Context, address string) (string, error) {
	wei, err := s.Balance(ctx, address)
	if err != nil {
		return "", err
	}
	return types.FormatAmount(wei), nil
}
