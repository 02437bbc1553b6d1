package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Schedule walks divide outstanding balances repeatedly; 20 digits keeps
	// intermediate results exact enough that only the per-row rounding step
	// loses precision.
	if decimal.DivisionPrecision < 20 {
		decimal.DivisionPrecision = 20
	}
}

// Round rounds a monetary amount to 2 decimal places, HALF_UP.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundRate rounds a rate to 3 decimal places, HALF_UP.
func RoundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(3)
}

// Parse converts the canonical textual form ("123.45") into a decimal.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// String renders a monetary amount in its canonical 2-decimal form.
func String(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// RateString renders a rate in its canonical 3-decimal form.
func RateString(d decimal.Decimal) string {
	return d.StringFixed(3)
}
