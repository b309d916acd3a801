// Package notify delivers tip notifications over Telegram.
package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/walt-tipbot/internal/service"
)

// TelegramNotifier sends direct messages to receivers when their tips are
// confirmed. It satisfies service.Notifier.
type TelegramNotifier struct {
	bot         *tgbotapi.BotAPI
	explorerURL string
}

// NewTelegramNotifier wraps an existing bot API client.
func NewTelegramNotifier(bot *tgbotapi.BotAPI, explorerURL string) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, explorerURL: explorerURL}
}

// TipCompleted sends the receiver a confirmation with a transaction link.
func (n *TelegramNotifier) TipCompleted(ctx context.Context, notification *service.TipNotification) error {
	chatID, err := strconv.ParseInt(notification.ReceiverTelegramID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid receiver chat id %q: %w", notification.ReceiverTelegramID, err)
	}

	text := fmt.Sprintf(
		"🎉 *Tip received!*\n\n@%s sent you *%s WALT*\n💬 %s\n\n[View transaction](%s/tx/%s)",
		notification.SenderUsername,
		notification.Amount,
		notification.Message,
		n.explorerURL,
		notification.TxHash,
	)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send tip notification: %w", err)
	}
	return nil
}

// NopNotifier discards notifications. Used when the API process runs without
// a bot token.
type NopNotifier struct{}

// TipCompleted does nothing.
func (NopNotifier) TipCompleted(ctx context.Context, n *service.TipNotification) error {
	return nil
}
