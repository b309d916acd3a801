package types

import (
	"fmt"
	"math/big"
	"strings"
)

// TokenDecimals is the decimal precision of the WALT token.
const TokenDecimals = 18

// weiPerToken is 10^TokenDecimals.
var weiPerToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)

// ParseAmount converts a human-readable token amount ("100", "0.5") into its
// smallest-unit integer representation. Amounts are stored in smallest-unit
// form to avoid floating-point drift.
func ParseAmount(human string) (*big.Int, error) {
	human = strings.TrimSpace(human)
	if human == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	// Sign characters are rejected up front: "-0.5" would otherwise slip
	// through as a zero whole part plus a positive fraction.
	if human[0] == '-' || human[0] == '+' {
		return nil, fmt.Errorf("invalid amount: %s", human)
	}

	whole := human
	frac := ""
	if idx := strings.IndexByte(human, '.'); idx >= 0 {
		whole = human[:idx]
		frac = human[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > TokenDecimals {
		return nil, fmt.Errorf("amount has more than %d decimal places: %s", TokenDecimals, human)
	}

	wholeInt, ok := new(big.Int).SetString(whole, 10)
	if !ok || wholeInt.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %s", human)
	}

	wei := new(big.Int).Mul(wholeInt, weiPerToken)

	if frac != "" {
		fracInt, ok := new(big.Int).SetString(frac, 10)
		if !ok || fracInt.Sign() < 0 {
			return nil, fmt.Errorf("invalid amount: %s", human)
		}
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(TokenDecimals-len(frac))), nil)
		wei.Add(wei, fracInt.Mul(fracInt, scale))
	}

	return wei, nil
}

// FormatAmount converts a smallest-unit integer amount back into its
// human-readable token form, trimming trailing zeros ("100", "0.5").
func FormatAmount(wei *big.Int) string {
	if wei == nil || wei.Sign() == 0 {
		return "0"
	}

	quo := new(big.Int)
	rem := new(big.Int)
	quo.QuoRem(wei, weiPerToken, rem)

	if rem.Sign() == 0 {
		return quo.String()
	}

	frac := fmt.Sprintf("%0*s", TokenDecimals, rem.String())
	frac = strings.TrimRight(frac, "0")
	return quo.String() + "." + frac
}

// ParseWei parses a smallest-unit amount from its decimal string form, the
// representation used by the stores.
func ParseWei(s string) (*big.Int, error) {
	wei, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei amount: %s", s)
	}
	return wei, nil
}
