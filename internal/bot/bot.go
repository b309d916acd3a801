// Package bot implements the Telegram command surface of the tipping system.
package bot

import (
	"context"
	"math/big"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/walt-tipbot/internal/config"
	"github.com/walt-tipbot/internal/logging"
	"github.com/walt-tipbot/internal/models"
	"github.com/walt-tipbot/internal/service"
	"github.com/walt-tipbot/internal/storage"
	"github.com/walt-tipbot/internal/types"
)

// Big-tip reaction thresholds in whole tokens.
var (
	bigTipThreshold   = new(big.Int).Mul(big.NewInt(500), weiPerToken())
	whaleTipThreshold = new(big.Int).Mul(big.NewInt(2000), weiPerToken())
)

func weiPerToken() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(types.TokenDecimals), nil)
}

// Bot runs the Telegram update loop and dispatches commands.
type Bot struct {
	api *tgbotapi.BotAPI

	users       storage.UserStore
	tips        *service.TipService
	balances    *service.BalanceService
	leaderboard *service.LeaderboardService

	webappURL    string
	approveURL   string
	tokenAddress string

	logger *logging.Logger
}

// New creates the bot and authenticates against the Telegram API.
func New(
	cfg *config.TelegramConfig,
	tokenAddress string,
	users storage.UserStore,
	tips *service.TipService,
	balances *service.BalanceService,
	leaderboard *service.LeaderboardService,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:          api,
		users:        users,
		tips:         tips,
		balances:     balances,
		leaderboard:  leaderboard,
		webappURL:    cfg.WebappURL,
		approveURL:   cfg.ApproveURL,
		tokenAddress: tokenAddress,
		logger:       logging.GetGlobalLogger(),
	}, nil
}

// API exposes the underlying client so the notifier can share the session.
func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.WithField("username", b.api.Self.UserName).Info("Bot authorized")

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches one update. Handler errors become a generic chat
// reply; they never stop the loop.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithField("panic", r).Error("Recovered from update handler panic")
		}
	}()

	if update.Message == nil || update.Message.From == nil {
		return
	}
	msg := update.Message

	var err error
	switch msg.Command() {
	case "start":
		err = b.handleStart(ctx, msg)
	case "balance":
		err = b.handleBalance(ctx, msg)
	case "tip":
		err = b.handleTip(ctx, msg)
	case "history":
		err = b.handleHistory(ctx, msg)
	case "leaderboard":
		err = b.handleLeaderboard(ctx, msg)
	case "help":
		err = b.handleHelp(msg)
	case "":
		err = b.handleText(ctx, msg)
	default:
		// Unknown commands fall through to the hint reply.
		err = b.reply(msg, "💡 Send me a Base wallet address (0x...) to connect, or use /help for commands.")
	}

	if err != nil {
		b.logger.WithError(err).WithField("command", msg.Command()).Error("Update handler failed")
		b.reply(msg, "❌ An error occurred. Please try again.")
	}
}

// ensureUser registers the sender on first contact and refreshes the
// username on every message.
func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	telegramID := strconv.FormatInt(from.ID, 10)

	if err := b.users.Upsert(ctx, &models.User{
		TelegramID: telegramID,
		Username:   from.UserName,
	}); err != nil {
		return nil, err
	}
	return b.users.GetByTelegramID(ctx, telegramID)
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) error {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	_, err := b.api.Send(out)
	return err
}

func (b *Bot) replyHTML(msg *tgbotapi.Message, text string) error {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(out)
	return err
}

func (b *Bot) replyMarkdown(msg *tgbotapi.Message, text string) error {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	out.DisableWebPagePreview = true
	_, err := b.api.Send(out)
	return err
}

// sendTo delivers a direct message to a user by telegram id. Failures are
// logged only; the user may have blocked the bot.
func (b *Bot) sendTo(telegramID, text string) {
	chatID, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		b.logger.WithField("telegramId", telegramID).Warn("Invalid chat id for direct message")
		return
	}
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(out); err != nil {
		b.logger.WithError(err).WithField("telegramId", telegramID).Warn("Could not notify recipient")
	}
}
