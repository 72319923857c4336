package amount

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Scale renders an integer token quantity as an exact human-scaled decimal
// string. The division by 10^decimals is exact, the output never uses
// exponential notation, trailing fractional zeros and a dangling decimal
// point are stripped, and zero is always rendered as "0". The caller owns
// the sign: Scale never flips it.
func Scale(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}

// ScaleAt is Scale truncated toward zero at places fractional digits.
// Truncation never rounds: ScaleAt(19, 1, 0) is "1", not "2".
func ScaleAt(raw *big.Int, decimals uint8, places int32) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).Truncate(places).String()
}
