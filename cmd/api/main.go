// Package main provides the HTTP API entry point for the tipping service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/walt-tipbot/internal/api"
	"github.com/walt-tipbot/internal/chain"
	"github.com/walt-tipbot/internal/config"
	"github.com/walt-tipbot/internal/logging"
	"github.com/walt-tipbot/internal/notify"
	"github.com/walt-tipbot/internal/service"
	"github.com/walt-tipbot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"backend": cfg.Storage.Backend,
		"chainId": cfg.Chain.ChainID,
	}).Info("Starting WALT tipping API")

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

	// Completed-tip notifications go out over the bot account. Without a
	// token the API still runs, it just notifies nobody.
	var notifier service.Notifier = notify.NopNotifier{}
	if cfg.Telegram.BotToken != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.WithError(err).Warn("Telegram login failed, notifications disabled")
		} else {
			notifier = notify.NewTelegramNotifier(botAPI, cfg.Chain.ExplorerURL)
		}
	}

	tipService := service.NewTipService(store.Users, store.Tips, notifier, cfg.Chain.TokenAddress)
	faucetService, err := service.NewFaucetService(store.Claims, tokenClient, cfg.Faucet.Amount)
	if err != nil {
		logger.WithError(err).Fatal("Invalid faucet configuration")
	}

	server := api.NewServer(&api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}, tipService, faucetService)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.WithError(err).Fatal("API server stopped unexpectedly")
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}
