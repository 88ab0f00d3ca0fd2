package common

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Odds are American-format signed integers throughout the engine. Conversions
// to the decimal multiplier space happen here and nowhere else.

// ToDecimal converts American odds to a decimal multiplier.
// +150 -> 2.50, -110 -> 1.9090...
func ToDecimal(odds int) (float64, error) {
	if odds == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}
	if odds > -100 && odds < 100 {
		return 0, fmt.Errorf("invalid American odds %d: magnitude must be at least 100", odds)
	}

	if odds > 0 {
		return (float64(odds) / 100.0) + 1.0, nil
	}
	return (100.0 / float64(-odds)) + 1.0, nil
}

// DecimalToAmerican converts a decimal multiplier back to integer American
// odds, rounding half away from zero per sportsbook display convention.
func DecimalToAmerican(dec float64) (int, error) {
	if dec <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds %v: must be greater than 1.0", dec)
	}

	if dec >= 2.0 {
		return int(math.Round((dec - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 / (dec - 1.0))), nil
}

// Profit returns the winnings (excluding stake) for a stake at the given odds.
// Odds must already be validated; 0 odds would divide by zero.
func Profit(stake decimal.Decimal, odds int) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	if odds > 0 {
		return stake.Mul(decimal.NewFromInt(int64(odds))).Div(hundred)
	}
	return stake.Mul(hundred).Div(decimal.NewFromInt(int64(-odds)))
}

// Payout returns stake plus profit.
func Payout(stake decimal.Decimal, odds int) decimal.Decimal {
	return stake.Add(Profit(stake, odds))
}

func FormatOdds(odds int) string {
	if odds > 0 {
		return fmt.Sprintf("+%s", strconv.Itoa(odds))
	}
	return strconv.Itoa(odds)
}
