package betslip

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oddslab/wager-engine/pkg/oddsmath"
)

// Totals is the computed view of the slip: combined odds and potential
// returns for the current selections, bet type, and stake text. It is
// recomputed on every change so screens never observe a stale figure.
type Totals struct {
	BetType       BetType         `json:"bet_type"`
	NumSelections int             `json:"num_selections"`
	Stake         decimal.Decimal `json:"stake"`
	// CombinedOdds is decimal-valued American odds. For a single it is
	// the leg's own odds; for a parlay it is the multiplicative
	// combination of all legs.
	CombinedOdds decimal.Decimal `json:"combined_odds"`
	// PerSelectionStake is set for single wagers only: the one selection
	// receives the full stake.
	PerSelectionStake decimal.Decimal `json:"per_selection_stake"`
	PotentialProfit   decimal.Decimal `json:"potential_profit"`
	PotentialPayout   decimal.Decimal `json:"potential_payout"`
	// Valid reports whether the payout figures are meaningful: stake text
	// parsed to a positive amount and the selection/bet-type combination
	// is coherent.
	Valid bool `json:"valid"`
}

// ParseStake parses user-entered stake text. The raw string is kept
// decoupled from the numeric stake to preserve in-progress typing, so a
// trailing decimal point ("12.") is accepted. Amounts are limited to
// two decimal places; anything else fails the parse.
func ParseStake(input string) (decimal.Decimal, bool) {
	text := strings.TrimSpace(input)
	if text == "" {
		return decimal.Zero, false
	}
	text = strings.TrimSuffix(text, ".")
	if text == "" || text == "-" {
		return decimal.Zero, false
	}

	stake, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	if stake.Exponent() < -2 {
		// Sub-cent precision is never a valid stake.
		return decimal.Zero, false
	}
	return stake, true
}

// ComputeTotals derives the slip totals for the given selections, bet type,
// and raw stake text.
//
// Single mode requires exactly one selection; a slip in single mode with
// more than one selection has no unambiguous total and is reported invalid
// rather than silently summed. Parlay mode wagers the entire stake on the
// combined odds; it is not split across legs.
func ComputeTotals(selections []Selection, betType BetType, stakeInput string) Totals {
	totals := Totals{
		BetType:       betType,
		NumSelections: len(selections),
	}
	if len(selections) == 0 {
		return totals
	}

	if betType == BetTypeSingle && len(selections) > 1 {
		// Ambiguous: each standalone single bet is an independent wager.
		return totals
	}

	legs := make([]int, len(selections))
	for i, sel := range selections {
		legs[i] = sel.Odds
	}
	combined, err := oddsmath.CombineOdds(legs)
	if err != nil {
		return totals
	}
	totals.CombinedOdds = combined

	stake, ok := ParseStake(stakeInput)
	if !ok || stake.LessThanOrEqual(decimal.Zero) {
		return totals
	}
	totals.Stake = stake

	profit, err := oddsmath.PotentialProfitAt(stake, combined)
	if err != nil {
		return totals
	}

	if betType == BetTypeSingle {
		totals.PerSelectionStake = stake
	}
	totals.PotentialProfit = profit
	totals.PotentialPayout = stake.Add(profit)
	totals.Valid = true
	return totals
}
