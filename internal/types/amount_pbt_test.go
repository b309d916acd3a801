package types

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Amounts must round-trip losslessly between smallest-unit storage form and
// human-readable display.
func TestAmountRoundTripProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("whole token amounts round-trip", prop.ForAll(
		func(n uint64) bool {
			human := strconv.FormatUint(n, 10)
			wei, err := ParseAmount(human)
			if err != nil {
				return false
			}
			return FormatAmount(wei) == human
		},
		gen.UInt64(),
	))

	properties.Property("store form round-trips", prop.ForAll(
		func(n uint64) bool {
			wei, err := ParseAmount(strconv.FormatUint(n, 10))
			if err != nil {
				return false
			}
			parsed, err := ParseWei(wei.String())
			if err != nil {
				return false
			}
			return parsed.Cmp(wei) == 0
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
