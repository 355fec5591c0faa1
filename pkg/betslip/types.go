// Package betslip implements the wager calculation engine behind the bet
// slip: selection management, stake allocation, wager validation, and the
// placement state machine screens bind to.
package betslip

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketType identifies the market a selection was taken from.
type MarketType string

const (
	MarketMoneyline MarketType = "moneyline"
	MarketSpread    MarketType = "spread"
	MarketTotal     MarketType = "total"
)

// Selection is one leg of a wager, created when a user picks an outcome on
// an odds screen. Its descriptive fields are immutable once added.
type Selection struct {
	ID              string     `json:"id"`
	EventID         string     `json:"event_id"`
	SportKey        string     `json:"sport_key"`
	HomeTeam        string     `json:"home_team"`
	AwayTeam        string     `json:"away_team"`
	CommenceTime    time.Time  `json:"commence_time"`
	MarketType      MarketType `json:"market_type"`
	SelectedOutcome string     `json:"selected_outcome"`
	Odds            int        `json:"odds"` // American odds, never 0
	BookmakerLabel  string     `json:"bookmaker_label"`
}

// MarketKey returns the uniqueness key for a slip: at most one selection per
// (event, market) pair can be active, which prevents self-contradictory
// wagers on one market.
func (s Selection) MarketKey() string {
	return s.EventID + "|" + string(s.MarketType)
}

// BetType selects how the slip's selections are wagered.
type BetType int

const (
	// BetTypeSingle wagers the stake on exactly one selection.
	BetTypeSingle BetType = iota
	// BetTypeParlay wagers the stake on the combined odds of two or more
	// selections; it wins only if every leg wins.
	BetTypeParlay
)

func (b BetType) String() string {
	if b == BetTypeParlay {
		return "parlay"
	}
	return "single"
}

// Status is the slip's submission status.
type Status int

const (
	StatusIdle Status = iota
	StatusValidating
	StatusSubmitting
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusValidating:
		return "validating"
	case StatusSubmitting:
		return "submitting"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Wager is the immutable snapshot submitted for placement.
type Wager struct {
	Selections []Selection `json:"selections"`
	BetType    BetType     `json:"bet_type"`
	// Stake is the amount risked, two-decimal precision, >= 0.01.
	Stake decimal.Decimal `json:"stake"`
	// ExpectedOdds is the combined odds at submission time, in
	// decimal-valued American form. The gateway compares it against the
	// current odds to detect drift.
	ExpectedOdds decimal.Decimal `json:"expected_odds"`
	// ClientRequestID makes placement idempotent across retries.
	ClientRequestID string `json:"client_request_id"`
}

// fingerprint identifies a wager's economic content, ignoring the request
// ID. Used to reuse the idempotency key when the user retries the exact
// same wager after a network failure.
func (w Wager) fingerprint() string {
	fp := w.BetType.String() + "|" + w.Stake.String() + "|" + w.ExpectedOdds.String()
	for _, sel := range w.Selections {
		fp += "|" + sel.ID
	}
	return fp
}
