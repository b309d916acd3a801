// Package models provides data models for the tipping system.
package models

import (
	"time"

	"github.com/walt-tipbot/internal/types"
)

// User represents a Telegram user known to the bot. Users are created on
// first interaction and never deleted.
type User struct {
	TelegramID      string    `json:"telegram_id" db:"telegram_id"`
	Username        string    `json:"telegram_username" db:"telegram_username"`
	WalletAddress   string    `json:"wallet_address,omitempty" db:"wallet_address"`
	Permit2Approved bool      `json:"permit2_approved" db:"permit2_approved"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// HasWallet reports whether the user has linked a wallet address.
func (u *User) HasWallet() bool {
	return u != nil && u.WalletAddress != ""
}

// Tip represents a recorded intent to transfer tokens between two users.
// Sender, receiver and amount are immutable after creation; status moves
// pending -> completed exactly once, triggered by the completion webhook.
type Tip struct {
	ID                 int64           `json:"id" db:"id"`
	SenderTelegramID   string          `json:"sender_telegram_id" db:"sender_telegram_id"`
	ReceiverTelegramID string          `json:"receiver_telegram_id" db:"receiver_telegram_id"`
	AmountWei          string          `json:"amount" db:"amount"`
	Message            string          `json:"message" db:"message"`
	TxHash             string          `json:"tx_hash,omitempty" db:"tx_hash"`
	Status             types.TipStatus `json:"status" db:"status"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// FaucetClaim represents a one-time token grant to a wallet address.
type FaucetClaim struct {
	ID        string    `json:"id" db:"id"`
	Address   string    `json:"address" db:"address"`
	Amount    string    `json:"amount" db:"amount"`
	AmountWei string    `json:"amount_wei" db:"amount_wei"`
	TxHash    string    `json:"tx_hash" db:"tx_hash"`
	ClaimedAt time.Time `json:"claimed_at" db:"claimed_at"`
}
