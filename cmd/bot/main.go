// Package main provides the Telegram bot entry point for the tipping service.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/walt-tipbot/internal/bot"
	"github.com/walt-tipbot/internal/chain"
	"github.com/walt-tipbot/internal/config"
	"github.com/walt-tipbot/internal/logging"
	"github.com/walt-tipbot/internal/service"
	"github.com/walt-tipbot/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Telegram.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithField("backend", cfg.Storage.Backend).Info("Starting WALT tipping bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, &cfg.Storage)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open storage backend")
	}
	defer store.Close()

	tokenClient, err := chain.NewTokenClient(&cfg.Chain, &cfg.Faucet)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Base RPC")
	}
	defer tokenClient.Close()

	// Redis is optional; without it balance and leaderboard reads skip the
	// cache and go straight to the source.
	var cache *storage.RedisCache
	if redisCache, err := storage.NewRedisCache(&cfg.Storage.Redis); err != nil {
		logger.WithError(err).Warn("Redis unavailable, caching disabled")
	} else {
		cache = redisCache
		defer cache.Close()
	}

	tipService := service.NewTipService(store.Users, store.Tips, nil, cfg.Chain.TokenAddress)
	balanceService := service.NewBalanceService(tokenClient, cache, cfg.Cache.BalanceTTL)
	leaderboardService := service.NewLeaderboardService(store.Tips, store.Users, cache, cfg.Cache.LeaderboardTTL)

	tipBot, err := bot.New(&cfg.Telegram, cfg.Chain.TokenAddress,
		store.Users, tipService, balanceService, leaderboardService)
	if err != nil {
		logger.WithError(err).Fatal("Telegram login failed")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.WithField("signal", sig.String()).Info("Shutting down")
		cancel()
	}()

	if err := tipBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("Bot stopped unexpectedly")
	}
}
