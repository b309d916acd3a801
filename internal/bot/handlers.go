package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "github.com/walt-tipbot/internal/errors"
	"github.com/walt-tipbot/internal/models"
	"github.com/walt-tipbot/internal/service"
	"github.com/walt-tipbot/internal/types"
)

const commandList = "Commands:\n" +
	"/balance - Check your balance\n" +
	"/tip @user amount [message] - Send a tip\n" +
	"/history - View your tipping history"

// handleStart registers the user and walks them through wallet setup.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	telegramID := strconv.FormatInt(msg.From.ID, 10)

	existing, err := b.users.GetByTelegramID(ctx, telegramID)
	if err != nil && !apperrors.IsNotFound(err) {
		return err
	}

	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	if existing == nil {
		return b.replyHTML(msg,
			"🚀 Welcome to $WALT Tipping Bot!\n\n"+
				"Send tips to anyone on Telegram using $WALT tokens.\n\n"+
				"To get started, connect your wallet:\n"+
				"1. Send your Base wallet address (0x...)\n"+
				"2. Approve Permit2 for gasless transfers\n\n"+
				commandList)
	}

	if existing.HasWallet() {
		status := "⏳ Pending Permit2 approval"
		if existing.Permit2Approved {
			status = "✅ Ready to tip"
		}
		return b.replyHTML(msg, fmt.Sprintf(
			"👋 Welcome back, @%s!\n\n"+
				"Wallet: <code>%s</code>\n"+
				"Status: %s\n\n"+commandList,
			msg.From.UserName, types.ShortAddress(existing.WalletAddress), status))
	}

	return b.reply(msg, "👋 Welcome back!\n\nPlease send your Base wallet address to continue.")
}

// handleText links a wallet when the message looks like an address, and
// hints at /help otherwise.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) error {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "0x") && len(text) == 42 {
		if !types.IsValidAddress(text) {
			return b.reply(msg, "❌ Invalid wallet address format. Please send a valid Base wallet address.")
		}

		user, err := b.ensureUser(ctx, msg.From)
		if err != nil {
			return err
		}
		if err := b.users.SetWallet(ctx, user.TelegramID, text); err != nil {
			return err
		}

		return b.replyHTML(msg, fmt.Sprintf(
			"✅ Wallet connected: <code>%s</code>\n\n"+
				"Next step: Approve Permit2 for gasless transfers.\n\n"+
				"Visit: %s?wallet=%s\n\n"+
				"Once approved, you'll be able to send tips instantly!",
			types.ShortAddress(text), b.approveURL, text))
	}

	return b.reply(msg, "💡 Send me a Base wallet address (0x...) to connect, or use /help for commands.")
}

// handleBalance reads the linked wallet's token balance.
func (b *Bot) handleBalance(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if !user.HasWallet() {
		return b.reply(msg, "❌ Please connect your wallet first with /start")
	}

	balance, err := b.balances.BalanceHuman(ctx, user.WalletAddress)
	if err != nil {
		b.logger.WithError(err).Error("Failed to fetch balance")
		return b.reply(msg, "❌ Error fetching balance. Please try again.")
	}

	return b.replyHTML(msg, fmt.Sprintf(
		"💰 Your $WALT Balance\n\n"+
			"Wallet: <code>%s</code>\n"+
			"Balance: <b>%s $WALT</b>\n\n"+
			"Use /tip to send tokens to other users!",
		types.ShortAddress(user.WalletAddress), balance))
}

// handleTip records a pending tip and hands the sender a transfer link.
func (b *Bot) handleTip(ctx context.Context, msg *tgbotapi.Message) error {
	args, err := parseTipCommand(msg.CommandArguments())
	if err != nil {
		switch err {
		case errTipUsage:
			return b.reply(msg,
				"❌ Usage: /tip @username amount [message]\n\n"+
					"Example: /tip @crypto_friend 100 Thanks for the help!")
		case errTipAmount:
			return b.reply(msg, "❌ Please specify a valid amount.")
		default:
			return err
		}
	}

	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	tip, err := b.tips.CreateTip(ctx, &service.CreateTipInput{
		SenderTelegramID: strconv.FormatInt(msg.From.ID, 10),
		ReceiverUsername: args.Username,
		AmountWei:        args.AmountWei,
		Message:          args.Message,
	})
	if err != nil {
		switch {
		case apperrors.IsUnlinkedWallet(err):
			// The sender's own wallet is checked first inside CreateTip,
			// so distinguish whose wallet is missing.
			if wallet, werr := b.users.ResolveWallet(ctx, strconv.FormatInt(msg.From.ID, 10)); werr == nil && wallet == "" {
				return b.reply(msg, "❌ Please connect your wallet first with /start")
			}
			return b.reply(msg, fmt.Sprintf("❌ @%s hasn't connected their wallet yet.", args.Username))
		case apperrors.IsValidation(err):
			return b.reply(msg, fmt.Sprintf(
				"❌ @%s hasn't connected their wallet yet.\n"+
					"They need to start the bot and connect their wallet first.", args.Username))
		default:
			return err
		}
	}

	reply := fmt.Sprintf(
		"💸 Tip initiated!\n\n"+
			"To: @%s\n"+
			"Amount: %s $WALT\n"+
			"Message: \"%s\"\n\n"+
			"👉 [Click here to complete the transfer](%s/send?tipId=%d)\n\n"+
			"_You will sign the transaction with your wallet_",
		args.Username, args.AmountHuman, args.Message, b.webappURL, tip.ID)
	reply += bigTipReaction(args.AmountWei, args.AmountHuman, msg.From.UserName)

	if err := b.replyMarkdown(msg, reply); err != nil {
		return err
	}

	// Big tips get a public hype message in group chats.
	if public := publicTipReaction(args.AmountWei, args.AmountHuman, msg.From.UserName, args.Username, args.Message); public != "" && !msg.Chat.IsPrivate() {
		if err := b.reply(msg, public); err != nil {
			b.logger.WithError(err).Warn("Failed to send public tip reaction")
		}
	}

	b.notifyPendingTip(tip, msg.From.UserName, args.AmountHuman)

	return nil
}

// notifyPendingTip tells the receiver a tip is on its way.
func (b *Bot) notifyPendingTip(tip *models.Tip, senderUsername, amountHuman string) {
	b.sendTo(tip.ReceiverTelegramID, fmt.Sprintf(
		"🎉 You received a tip!\n\n"+
			"From: @%s\n"+
			"Amount: %s $WALT\n"+
			"Message: \"%s\"\n\n"+
			"Check your balance with /balance",
		senderUsername, amountHuman, tip.Message))
}

// handleHistory lists the user's last 10 tips in either direction.
func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message) error {
	telegramID := strconv.FormatInt(msg.From.ID, 10)

	tips, err := b.tips.ListTipsForUser(ctx, telegramID, 10)
	if err != nil {
		return err
	}
	if len(tips) == 0 {
		return b.reply(msg, "📭 No tipping history yet. Send your first tip with /tip!")
	}

	var sb strings.Builder
	sb.WriteString("📊 Your Recent Tips:\n\n")
	for _, tip := range tips {
		isSender := tip.SenderTelegramID == telegramID
		otherID := tip.SenderTelegramID
		emoji, action := "➡️", "Received from"
		if isSender {
			otherID = tip.ReceiverTelegramID
			emoji, action = "⬅️", "Sent to"
		}

		otherUsername := "Unknown"
		if other, err := b.users.GetByTelegramID(ctx, otherID); err == nil && other.Username != "" {
			otherUsername = other.Username
		}

		amount := tip.AmountWei
		if wei, err := types.ParseWei(tip.AmountWei); err == nil {
			amount = types.FormatAmount(wei)
		}

		fmt.Fprintf(&sb, "%s %s @%s\n", emoji, action, otherUsername)
		fmt.Fprintf(&sb, "   %s $WALT - \"%s\"\n", amount, tip.Message)
		fmt.Fprintf(&sb, "   %s\n\n", tip.CreatedAt.Format("2006-01-02"))
	}

	return b.reply(msg, sb.String())
}

// handleLeaderboard renders the weekly or monthly top-5 rankings.
func (b *Bot) handleLeaderboard(ctx context.Context, msg *tgbotapi.Message) error {
	period := types.PeriodWeekly
	if strings.TrimSpace(msg.CommandArguments()) == "monthly" {
		period = types.PeriodMonthly
	}

	board, err := b.leaderboard.Get(ctx, period)
	if err != nil {
		return err
	}

	periodLabel, periodNoun := "This Week", "week"
	if period == types.PeriodMonthly {
		periodLabel, periodNoun = "This Month", "month"
	}

	if len(board.TopSenders) == 0 && len(board.TopReceivers) == 0 {
		title := "Weekly"
		if period == types.PeriodMonthly {
			title = "Monthly"
		}
		return b.reply(msg, fmt.Sprintf(
			"🏆 %s Leaderboard\n\n"+
				"No tips yet this %s.\n"+
				"Be the first to tip with /tip!", title, periodNoun))
	}

	medals := []string{"🥇", "🥈", "🥉", "4️⃣", "5️⃣"}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 $WALT Leaderboard - %s\n\n", periodLabel)

	sb.WriteString("💸 Top Tippers (Most Generous)\n")
	for i, entry := range board.TopSenders {
		fmt.Fprintf(&sb, "%s @%s: %s $WALT (%d tips)\n", medals[i], entry.Username, entry.Amount, entry.TipCount)
	}
	sb.WriteString("\n👑 Top Tipped (Most Loved)\n")
	for i, entry := range board.TopReceivers {
		fmt.Fprintf(&sb, "%s @%s: %s $WALT (%d tips)\n", medals[i], entry.Username, entry.Amount, entry.TipCount)
	}
	sb.WriteString("\n💡 Use /leaderboard monthly for monthly stats")

	return b.reply(msg, sb.String())
}

// handleHelp lists the available commands.
func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.replyHTML(msg, fmt.Sprintf(
		"🤖 $WALT Tipping Bot - Commands\n\n"+
			"/start - Connect your wallet\n"+
			"/balance - Check your $WALT balance\n"+
			"/tip @user amount [message] - Send a tip\n"+
			"/history - View your tipping history\n"+
			"/leaderboard [weekly/monthly] - Top tippers & tipped\n"+
			"/help - Show this help message\n\n"+
			"💡 Tips are sent on Base mainnet using $WALT tokens.\n"+
			"🔗 Contract: <code>%s</code>", types.ShortAddress(b.tokenAddress)))
}
