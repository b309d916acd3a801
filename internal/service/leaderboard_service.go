package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/walt-tipbot/internal/logging"
	"github.com/walt-tipbot/internal/storage"
	"github.com/walt-tipbot/internal/types"
)

// LeaderboardEntry is one row of a leaderboard: a user and their completed
// tip volume over the period.
type LeaderboardEntry struct {
	TelegramID string `json:"telegram_id"`
	Username   string `json:"username"`
	Amount     string `json:"amount"`
	TipCount   int    `json:"tip_count"`
}

// Leaderboard holds the top tippers and top tipped for a period. Only
// completed tips count.
type Leaderboard struct {
	Period       types.LeaderboardPeriod `json:"period"`
	TopSenders   []LeaderboardEntry      `json:"top_senders"`
	TopReceivers []LeaderboardEntry      `json:"top_receivers"`
	GeneratedAt  time.Time               `json:"generated_at"`
}

// leaderboardSize caps each ranking.
const leaderboardSize = 5

// LeaderboardService aggregates completed tips into period rankings, with a
// short-lived Redis cache in front of the aggregation.
type LeaderboardService struct {
	tips  storage.TipStore
	users storage.UserStore
	cache *storage.RedisCache
	ttl   time.Duration

	logger *logging.Logger
}

// NewLeaderboardService creates a new leaderboard service. cache may be nil,
// in which case every call recomputes.
func NewLeaderboardService(tips storage.TipStore, users storage.UserStore, cache *storage.RedisCache, ttl time.Duration) *LeaderboardService {
	return &LeaderboardService{
		tips:   tips,
		users:  users,
		cache:  cache,
		ttl:    ttl,
		logger: logging.GetGlobalLogger(),
	}
}

// Get returns the leaderboard for the period, serving from cache when fresh
func (s *LeaderboardService) Get(ctx context.Context, period types.LeaderboardPeriod) (*Leaderboard, error) {
	cacheKey := fmt.Sprintf("leaderboard:%s", period)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var board Leaderboard
			if err := json.Unmarshal([]byte(cached), &board); err == nil {
				return &board, nil
			}
		} else if !storage.IsCacheMiss(err) {
			// Cache trouble should not take the leaderboard down.
			s.logger.WithError(err).Warn("Leaderboard cache read failed")
		}
	}

	board, err := s.compute(ctx, period)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(board); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.ttl); err != nil {
				s.logger.WithError(err).Warn("Leaderboard cache write failed")
			}
		}
	}

	return board, nil
}

type tally struct {
	total *big.Int
	count int
}

func (s *LeaderboardService) compute(ctx context.Context, period types.LeaderboardPeriod) (*Leaderboard, error) {
	since := time.Now().UTC().AddDate(0, 0, -period.Days())

	tips, err := s.tips.ListCompletedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed tips: %w", err)
	}

	senders := make(map[string]*tally)
	receivers := make(map[string]*tally)

	for _, tip := range tips {
		wei, err := types.ParseWei(tip.AmountWei)
		if err != nil {
			return nil, err
		}
		bump(senders, tip.SenderTelegramID, wei)
		bump(receivers, tip.ReceiverTelegramID, wei)
	}

	return &Leaderboard{
		Period:       period,
		TopSenders:   s.rank(ctx, senders),
		TopReceivers: s.rank(ctx, receivers),
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

func bump(stats map[string]*tally, telegramID string, wei *big.Int) {
	entry, ok := stats[telegramID]
	if !ok {
		entry = &tally{total: new(big.Int)}
		stats[telegramID] = entry
	}
	entry.total.Add(entry.total, wei)
	entry.count++
}

// rank sorts tallies by volume and resolves usernames for the top entries
func (s *LeaderboardService) rank(ctx context.Context, stats map[string]*tally) []LeaderboardEntry {
	type ranked struct {
		telegramID string
		tally      *tally
	}

	all := make([]ranked, 0, len(stats))
	for id, t := range stats {
		all = append(all, ranked{telegramID: id, tally: t})
	}
	sort.Slice(all, func(i, j int) bool {
		if cmp := all[i].tally.total.Cmp(all[j].tally.total); cmp != 0 {
			return cmp > 0
		}
		return all[i].telegramID < all[j].telegramID
	})

	if len(all) > leaderboardSize {
		all = all[:leaderboardSize]
	}

	entries := make([]LeaderboardEntry, 0, len(all))
	for _, r := range all {
		username := "Unknown"
		if user, err := s.users.GetByTelegramID(ctx, r.telegramID); err == nil && user.Username != "" {
			username = user.Username
		}
		entries = append(entries, LeaderboardEntry{
			TelegramID: r.telegramID,
			Username:   username,
			Amount:     types.FormatAmount(r.tally.total),
			TipCount:   r.tally.count,
		})
	}

	return entries
}
