// Package service implements the tipping domain logic on top of the store
// and chain layers.
package service

import (
	"context"
	"fmt"
	"math/big"
	"time"

	apperrors "github.com/walt-tipbot/internal/errors"
	"github.com/walt-tipbot/internal/logging"
	"github.com/walt-tipbot/internal/models"
	"github.com/walt-tipbot/internal/storage"
	"github.com/walt-tipbot/internal/types"
)

// tipExpiry is how long the external transfer page treats a tip link as
// valid. Advisory only; pending tips are never expired server-side.
const tipExpiry = time.Hour

// TipNotification carries the data the messaging channel needs to tell a
// receiver their tip was confirmed.
type TipNotification struct {
	ReceiverTelegramID string
	SenderUsername     string
	Amount             string
	Message            string
	TxHash             string
}

// Notifier delivers tip notifications. Implementations talk to Telegram;
// the tip service treats delivery as fire-and-forget.
type Notifier interface {
	TipCompleted(ctx context.Context, n *TipNotification) error
}

// TipService owns the tip lifecycle: it is the single authority for
// creating tips and for the pending -> completed transition, called by both
// the bot commands and the completion webhook.
type TipService struct {
	users    storage.UserStore
	tips     storage.TipStore
	notifier Notifier

	tokenAddress string
	logger       *logging.Logger
}

// NewTipService creates a new tip service
func NewTipService(users storage.UserStore, tips storage.TipStore, notifier Notifier, tokenAddress string) *TipService {
	return &TipService{
		users:        users,
		tips:         tips,
		notifier:     notifier,
		tokenAddress: tokenAddress,
		logger:       logging.GetGlobalLogger(),
	}
}

// CreateTipInput represents input for recording a tip intent
type CreateTipInput struct {
	SenderTelegramID string
	ReceiverUsername string
	AmountWei        *big.Int
	Message          string
}

// CreateTip records a pending tip. Both parties must have linked wallets and
// the amount must be positive. No on-chain action happens here; the actual
// transfer is performed by the external web app.
func (s *TipService) CreateTip(ctx context.Context, input *CreateTipInput) (*models.Tip, error) {
	if input.AmountWei == nil || input.AmountWei.Sign() <= 0 {
		amount := "<nil>"
		if input.AmountWei != nil {
			amount = input.AmountWei.String()
		}
		return nil, apperrors.NewInvalidAmountError(amount)
	}

	senderWallet, err := s.users.ResolveWallet(ctx, input.SenderTelegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sender wallet: %w", err)
	}
	if senderWallet == "" {
		return nil, apperrors.NewUnlinkedWalletError(input.SenderTelegramID)
	}

	receiver, err := s.users.GetByUsername(ctx, input.ReceiverUsername)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("unknown recipient: @%s", input.ReceiverUsername))
		}
		return nil, fmt.Errorf("failed to look up recipient: %w", err)
	}
	if !receiver.HasWallet() {
		return nil, apperrors.NewUnlinkedWalletError(receiver.TelegramID)
	}

	tip := &models.Tip{
		SenderTelegramID:   input.SenderTelegramID,
		ReceiverTelegramID: receiver.TelegramID,
		AmountWei:          input.AmountWei.String(),
		Message:            input.Message,
	}

	if err := s.tips.Create(ctx, tip); err != nil {
		return nil, fmt.Errorf("failed to persist tip: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"tipId":    tip.ID,
		"sender":   tip.SenderTelegramID,
		"receiver": tip.ReceiverTelegramID,
		"amount":   tip.AmountWei,
	}).Info("Tip recorded")

	return tip, nil
}

// TipDetail is the view rendered by the external transfer page. ExpiresAt
// is computed per request and not persisted.
type TipDetail struct {
	ID             int64           `json:"id"`
	SenderWallet   string          `json:"sender_wallet"`
	ReceiverWallet string          `json:"receiver_wallet"`
	Amount         string          `json:"amount"`
	AmountHuman    string          `json:"amount_human"`
	TokenAddress   string          `json:"token_address"`
	Message        string          `json:"message"`
	Status         types.TipStatus `json:"status"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

// GetTip resolves a tip and both parties' wallets for display
func (s *TipService) GetTip(ctx context.Context, id int64) (*TipDetail, error) {
	tip, err := s.tips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	senderWallet, err := s.users.ResolveWallet(ctx, tip.SenderTelegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sender wallet: %w", err)
	}
	receiverWallet, err := s.users.ResolveWallet(ctx, tip.ReceiverTelegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve receiver wallet: %w", err)
	}
	if senderWallet == "" || receiverWallet == "" {
		return nil, apperrors.NewNotFoundError("tip party", fmt.Sprintf("%d", id))
	}

	amountWei, err := types.ParseWei(tip.AmountWei)
	if err != nil {
		return nil, err
	}

	return &TipDetail{
		ID:             tip.ID,
		SenderWallet:   senderWallet,
		ReceiverWallet: receiverWallet,
		Amount:         tip.AmountWei,
		AmountHuman:    types.FormatAmount(amountWei),
		TokenAddress:   s.tokenAddress,
		Message:        tip.Message,
		Status:         tip.Status,
		ExpiresAt:      time.Now().UTC().Add(tipExpiry),
	}, nil
}

// CompleteTip marks a tip completed and records the transaction reference.
// It is deliberately not idempotent: a repeat call re-overwrites the status,
// tx hash and completion time with no conflict detection, so racing webhook
// deliveries are last-writer-wins. The notification side effect never rolls
// back the completion; delivery errors are logged and swallowed.
func (s *TipService) CompleteTip(ctx context.Context, id int64, txHash string) (*models.Tip, error) {
	if txHash == "" {
		return nil, apperrors.NewValidationError("txHash is required")
	}

	tip, err := s.tips.Complete(ctx, id, txHash, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"tipId":  tip.ID,
		"txHash": txHash,
	}).Info("Tip completed")

	s.notifyReceiver(ctx, tip)

	return tip, nil
}

// notifyReceiver makes exactly one delivery attempt per completion
func (s *TipService) notifyReceiver(ctx context.Context, tip *models.Tip) {
	if s.notifier == nil {
		return
	}

	senderName := "Someone"
	if sender, err := s.users.GetByTelegramID(ctx, tip.SenderTelegramID); err == nil && sender.Username != "" {
		senderName = sender.Username
	}

	amountWei, err := types.ParseWei(tip.AmountWei)
	if err != nil {
		s.logger.WithError(err).Error("Failed to format tip amount for notification")
		return
	}

	notification := &TipNotification{
		ReceiverTelegramID: tip.ReceiverTelegramID,
		SenderUsername:     senderName,
		Amount:             types.FormatAmount(amountWei),
		Message:            tip.Message,
		TxHash:             tip.TxHash,
	}

	if err := s.notifier.TipCompleted(ctx, notification); err != nil {
		s.logger.WithError(err).WithField("tipId", tip.ID).Warn("Failed to notify receiver")
	}
}

// ListTipsForUser returns the user's tip history, most recent first
func (s *TipService) ListTipsForUser(ctx context.Context, telegramID string, limit int) ([]*models.Tip, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.tips.ListForUser(ctx, telegramID, limit)
}
