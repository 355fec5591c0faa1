// Package oddsmath provides pure conversions and payout math for
// American-odds wagering. All monetary results are rounded to 2 decimal
// places with banker's rounding at the final step only, so intermediate
// products never accumulate rounding drift.
package oddsmath

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidOdds is returned for odds values no book would ever quote.
var ErrInvalidOdds = errors.New("invalid American odds")

// ErrNoLegs is returned when combining an empty odds list.
var ErrNoLegs = errors.New("no legs to combine")

var (
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// ToDecimalOdds converts American odds to the decimal multiplier format.
// American +150 → 2.50
// American -150 → 1.6667
func ToDecimalOdds(american int) (decimal.Decimal, error) {
	if american == 0 {
		return decimal.Zero, ErrInvalidOdds
	}

	if american > 0 {
		// Positive odds: 1 + odds/100
		return one.Add(decimal.NewFromInt(int64(american)).Div(hundred)), nil
	}

	// Negative odds: 1 + 100/abs(odds)
	return one.Add(hundred.Div(decimal.NewFromInt(int64(-american)))), nil
}

// FromDecimalOdds converts a decimal multiplier back to American-odds form.
// The result is decimal-valued because combined parlay odds rarely land on
// an integer (e.g. 3.6667 → +266.67).
// Multiplier 2.50 → +150
// Multiplier 1.6667 → -150
func FromDecimalOdds(multiplier decimal.Decimal) (decimal.Decimal, error) {
	if multiplier.LessThanOrEqual(one) {
		return decimal.Zero, ErrInvalidOdds
	}

	if multiplier.GreaterThanOrEqual(two) {
		// Positive American odds: (multiplier - 1) * 100
		return multiplier.Sub(one).Mul(hundred), nil
	}

	// Negative American odds: -100 / (multiplier - 1)
	return hundred.Neg().Div(multiplier.Sub(one)), nil
}

// PotentialProfit returns the profit (excluding returned stake) for a stake
// at the given American odds, rounded to cents.
// $10 at +150 → $15.00
// $10 at -110 → $9.09
func PotentialProfit(stake decimal.Decimal, american int) (decimal.Decimal, error) {
	return PotentialProfitAt(stake, decimal.NewFromInt(int64(american)))
}

// PotentialProfitAt is PotentialProfit for decimal-valued American odds,
// as produced by CombineOdds for parlays.
func PotentialProfitAt(stake, american decimal.Decimal) (decimal.Decimal, error) {
	if american.IsZero() {
		return decimal.Zero, ErrInvalidOdds
	}

	if american.IsPositive() {
		return stake.Mul(american).Div(hundred).RoundBank(2), nil
	}
	return stake.Mul(hundred).Div(american.Abs()).RoundBank(2), nil
}

// CombineOdds combines the American odds of parlay legs into a single
// American-odds value: each leg becomes a decimal multiplier, the
// multipliers are multiplied, and the product is converted back. A single
// leg is returned unchanged; an empty list is an error.
// [+100, -120] → multipliers 2.00 × 1.8333 → +266.67
func CombineOdds(legs []int) (decimal.Decimal, error) {
	switch len(legs) {
	case 0:
		return decimal.Zero, ErrNoLegs
	case 1:
		if legs[0] == 0 {
			return decimal.Zero, ErrInvalidOdds
		}
		return decimal.NewFromInt(int64(legs[0])), nil
	}

	product := one
	for _, leg := range legs {
		mult, err := ToDecimalOdds(leg)
		if err != nil {
			return decimal.Zero, err
		}
		product = product.Mul(mult)
	}

	combined, err := FromDecimalOdds(product)
	if err != nil {
		return decimal.Zero, err
	}
	return combined.RoundBank(2), nil
}

// RoundAmerican rounds a decimal-valued American odds to the nearest
// integer for wire formats that require one.
func RoundAmerican(american decimal.Decimal) int {
	return int(american.Round(0).IntPart())
}
