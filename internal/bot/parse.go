package bot

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/walt-tipbot/internal/types"
)

var (
	errTipUsage  = errors.New("tip: missing recipient or amount")
	errTipAmount = errors.New("tip: invalid amount")
)

// tipArgs is the parsed form of "/tip @user amount [message]".
type tipArgs struct {
	Username    string
	AmountWei   *big.Int
	AmountHuman string
	Message     string
}

// parseTipCommand parses the argument string of the /tip command.
func parseTipCommand(args string) (*tipArgs, error) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return nil, errTipUsage
	}

	username := strings.TrimPrefix(parts[0], "@")
	if username == "" {
		return nil, errTipUsage
	}

	amountWei, err := types.ParseAmount(parts[1])
	if err != nil || amountWei.Sign() <= 0 {
		return nil, errTipAmount
	}

	message := strings.Join(parts[2:], " ")
	if message == "" {
		message = "No message"
	}

	return &tipArgs{
		Username:    username,
		AmountWei:   amountWei,
		AmountHuman: types.FormatAmount(amountWei),
		Message:     message,
	}, nil
}

// bigTipReaction returns the hype suffix appended to the sender's reply, or
// "" for ordinary tips.
func bigTipReaction(amountWei *big.Int, amountHuman, senderUsername string) string {
	switch {
	case amountWei.Cmp(whaleTipThreshold) >= 0:
		return fmt.Sprintf("\n\n🐋 WHALE ALERT! @%s just dropped %s $WALT! 🔥🔥🔥", senderUsername, amountHuman)
	case amountWei.Cmp(bigTipThreshold) >= 0:
		return fmt.Sprintf("\n\n💥 BOOM! @%s tipped %s $WALT! That's how you do it! 🚀", senderUsername, amountHuman)
	default:
		return ""
	}
}

// publicTipReaction returns the group-chat hype message for big tips, or ""
// for ordinary tips.
func publicTipReaction(amountWei *big.Int, amountHuman, senderUsername, receiverUsername, message string) string {
	switch {
	case amountWei.Cmp(whaleTipThreshold) >= 0:
		return fmt.Sprintf(
			"🐋 WHALE MODE ACTIVATED!\n\n@%s just sent %s $WALT to @%s!\n\n\"%s\"\n\nWho's next? 👀",
			senderUsername, amountHuman, receiverUsername, message)
	case amountWei.Cmp(bigTipThreshold) >= 0:
		return fmt.Sprintf(
			"💥 Big tip energy!\n\n@%s sent %s $WALT to @%s!\n\n\"%s\"\n\nShow some love! 🚀",
			senderUsername, amountHuman, receiverUsername, message)
	default:
		return ""
	}
}
