package types

import (
	"regexp"
	"strings"
)

// addressPattern matches a 20-byte hex address with 0x prefix.
var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsValidAddress reports whether s is a well-formed wallet address.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// NormalizeAddress lowercases an address. Addresses are case-normalized
// before storage and comparison.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ShortAddress renders an address as "0x1E01...C0b1" for chat messages.
func ShortAddress(s string) string {
	if len(s) < 10 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}
