package amount

import (
	"math/big"
	"testing"
)

func TestScale(t *testing.T) {
	weiAndHalf, _ := new(big.Int).SetString("1500000000000000000", 10)
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	cases := []struct {
		name     string
		raw      *big.Int
		decimals uint8
		want     string
	}{
		{"zero never exponential", big.NewInt(0), 18, "0"},
		{"one base unit", big.NewInt(1), 18, "0.000000000000000001"},
		{"strips trailing zeros", weiAndHalf, 18, "1.5"},
		{"no decimals", big.NewInt(42), 0, "42"},
		{"whole token", big.NewInt(1000000), 6, "1"},
		{"negative keeps sign", big.NewInt(-1500), 3, "-1.5"},
		{"beyond 64 bits", huge, 18, "123456789012.34567890123456789"},
		{"nil treated as zero", nil, 18, "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Scale(tc.raw, tc.decimals); got != tc.want {
				t.Fatalf("Scale(%v, %d) = %q, want %q", tc.raw, tc.decimals, got, tc.want)
			}
		})
	}
}

func TestScaleAtTruncatesTowardZero(t *testing.T) {
	cases := []struct {
		name     string
		raw      *big.Int
		decimals uint8
		places   int32
		want     string
	}{
		{"truncates not rounds", big.NewInt(19), 1, 0, "1"},
		{"keeps requested digits", big.NewInt(19), 1, 1, "1.9"},
		{"negative toward zero", big.NewInt(-19), 1, 0, "-1"},
		{"cap below exact digits", big.NewInt(123456789), 6, 2, "123.45"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ScaleAt(tc.raw, tc.decimals, tc.places); got != tc.want {
				t.Fatalf("ScaleAt(%v, %d, %d) = %q, want %q", tc.raw, tc.decimals, tc.places, got, tc.want)
			}
		})
	}
}
