package bot

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walt-tipbot/internal/types"
)

func tokens(n int64) *big.Int {
	one := new(big.Int).Exp(big.NewInt(10), big.NewInt(types.TokenDecimals), nil)
	return new(big.Int).Mul(big.NewInt(n), one)
}

func TestParseTipCommand(t *testing.T) {
	t.Run("full command", func(t *testing.T) {
		args, err := parseTipCommand("@crypto_friend 100 Thanks for the help!")
		require.NoError(t, err)
		assert.Equal(t, "crypto_friend", args.Username)
		assert.Equal(t, tokens(100), args.AmountWei)
		assert.Equal(t, "100", args.AmountHuman)
		assert.Equal(t, "Thanks for the help!", args.Message)
	})

	t.Run("default message", func(t *testing.T) {
		args, err := parseTipCommand("@bob 50")
		require.NoError(t, err)
		assert.Equal(t, "No message", args.Message)
	})

	t.Run("fractional amount", func(t *testing.T) {
		args, err := parseTipCommand("@bob 0.5")
		require.NoError(t, err)
		assert.Equal(t, "0.5", args.AmountHuman)
	})

	t.Run("username without at sign", func(t *testing.T) {
		args, err := parseTipCommand("bob 10")
		require.NoError(t, err)
		assert.Equal(t, "bob", args.Username)
	})

	t.Run("missing arguments", func(t *testing.T) {
		for _, input := range []string{"", "@bob", "   "} {
			_, err := parseTipCommand(input)
			assert.ErrorIs(t, err, errTipUsage, "input %q", input)
		}
	})

	t.Run("invalid amounts", func(t *testing.T) {
		for _, input := range []string{"@bob abc", "@bob 0", "@bob -5", "@bob -0.5"} {
			_, err := parseTipCommand(input)
			assert.ErrorIs(t, err, errTipAmount, "input %q", input)
		}
	})
}

func TestBigTipReaction(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		contains string
	}{
		{name: "ordinary tip", amount: tokens(100), contains: ""},
		{name: "just under big", amount: tokens(499), contains: ""},
		{name: "big tip", amount: tokens(500), contains: "BOOM"},
		{name: "just under whale", amount: tokens(1999), contains: "BOOM"},
		{name: "whale tip", amount: tokens(2000), contains: "WHALE ALERT"},
		{name: "mega whale", amount: tokens(50000), contains: "WHALE ALERT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			human := types.FormatAmount(tt.amount)
			got := bigTipReaction(tt.amount, human, "alice")
			if tt.contains == "" {
				assert.Empty(t, got)
			} else {
				assert.Contains(t, got, tt.contains)
				assert.Contains(t, got, "@alice")
				assert.Contains(t, got, human)
			}
		})
	}
}

func TestPublicTipReaction(t *testing.T) {
	t.Run("ordinary tips stay private", func(t *testing.T) {
		assert.Empty(t, publicTipReaction(tokens(100), "100", "alice", "bob", "hi"))
	})

	t.Run("big tip", func(t *testing.T) {
		got := publicTipReaction(tokens(500), "500", "alice", "bob", "nice work")
		assert.Contains(t, got, "Big tip energy")
		assert.Contains(t, got, "@alice")
		assert.Contains(t, got, "@bob")
		assert.Contains(t, got, "\"nice work\"")
	})

	t.Run("whale tip", func(t *testing.T) {
		got := publicTipReaction(tokens(2000), "2000", "alice", "bob", "gg")
		assert.Contains(t, got, "WHALE MODE ACTIVATED")
	})
}
