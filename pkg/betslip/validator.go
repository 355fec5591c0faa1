package betslip

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oddslab/wager-engine/pkg/oddsmath"
	"github.com/oddslab/wager-engine/pkg/wallet"
)

// Reason categorizes why a proposed wager failed client-side validation.
// All of these are locally recoverable: the user adjusts the slip.
type Reason string

const (
	ReasonEmptySlip            Reason = "empty_slip"
	ReasonInsufficientLegs     Reason = "insufficient_legs_for_parlay"
	ReasonAmbiguousSingleWager Reason = "ambiguous_single_wager"
	ReasonInvalidStake         Reason = "invalid_stake"
	ReasonStakeOutOfRange      Reason = "stake_out_of_range"
	ReasonInsufficientFunds    Reason = "insufficient_funds"
)

// Limits holds the platform stake bounds.
type Limits struct {
	MinStake decimal.Decimal
	MaxStake decimal.Decimal
}

// DefaultLimits returns the platform defaults: one cent minimum, $1000
// maximum.
func DefaultLimits() *Limits {
	return &Limits{
		MinStake: decimal.NewFromFloat(0.01),
		MaxStake: decimal.NewFromInt(1000),
	}
}

// ValidationResult is the discriminated outcome of validating a proposed
// wager. Callers branch on Valid; validation never returns a Go error.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Wager   *Wager `json:"wager,omitempty"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

func invalid(reason Reason, format string, args ...interface{}) ValidationResult {
	return ValidationResult{
		Valid:   false,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// WagerValidator checks proposed wagers against funds, stake bounds, and
// bet-type constraints.
type WagerValidator struct {
	limits *Limits
}

// NewWagerValidator creates a validator with the given limits, or the
// platform defaults when limits is nil.
func NewWagerValidator(limits *Limits) *WagerValidator {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &WagerValidator{limits: limits}
}

// Validate checks the candidate wager in order, short-circuiting on the
// first failure. On success the returned Wager carries a copy of the
// selections, the parsed stake, and the combined odds at validation time;
// the ClientRequestID is left for the submission to assign.
func (v *WagerValidator) Validate(selections []Selection, betType BetType, stakeInput string, balance wallet.Balance) ValidationResult {
	if len(selections) == 0 {
		return invalid(ReasonEmptySlip, "add at least one selection")
	}

	if betType == BetTypeParlay && len(selections) < 2 {
		return invalid(ReasonInsufficientLegs, "a parlay requires at least 2 selections, have %d", len(selections))
	}

	if betType == BetTypeSingle && len(selections) > 1 {
		return invalid(ReasonAmbiguousSingleWager, "a single wager covers exactly one selection; submit singles one at a time or switch to parlay")
	}

	stake, ok := ParseStake(stakeInput)
	if !ok || stake.LessThanOrEqual(decimal.Zero) {
		return invalid(ReasonInvalidStake, "enter a positive stake")
	}

	if stake.LessThan(v.limits.MinStake) || stake.GreaterThan(v.limits.MaxStake) {
		return invalid(ReasonStakeOutOfRange, "stake $%s is outside the allowed range $%s-$%s",
			stake, v.limits.MinStake, v.limits.MaxStake)
	}

	if stake.GreaterThan(balance.Available) {
		return invalid(ReasonInsufficientFunds, "stake $%s exceeds available balance $%s", stake, balance.Available)
	}

	legs := make([]int, len(selections))
	for i, sel := range selections {
		legs[i] = sel.Odds
	}
	combined, err := oddsmath.CombineOdds(legs)
	if err != nil {
		// Zero odds can only come from a malformed selection.
		return invalid(ReasonInvalidStake, "selection carries invalid odds: %v", err)
	}

	copied := make([]Selection, len(selections))
	copy(copied, selections)

	return ValidationResult{
		Valid: true,
		Wager: &Wager{
			Selections:   copied,
			BetType:      betType,
			Stake:        stake,
			ExpectedOdds: combined,
		},
	}
}
