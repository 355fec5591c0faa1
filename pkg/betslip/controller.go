package betslip

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oddslab/wager-engine/pkg/wallet"
)

// ErrParlayRequiresTwoLegs is returned when switching to parlay mode with
// fewer than two selections.
var ErrParlayRequiresTwoLegs = errors.New("parlay requires at least 2 selections")

// Config wires a Controller. Gateway is required; everything else has
// defaults.
type Config struct {
	Gateway        Gateway
	Limits         *Limits
	Logger         *logrus.Logger
	InitialBalance wallet.Balance
}

// Controller is the façade screens bind to: it composes the selection
// store, the stake allocator, the validator, and the submission state
// machine. Every mutation re-derives the computed totals before
// returning, so callers never observe a stale total. While a submission
// is in flight all mutators are ignored, not queued, so the placed wager
// always matches what the user saw.
type Controller struct {
	store      *SelectionStore
	submission *Submission
	log        *logrus.Logger

	mu         sync.Mutex
	betType    BetType
	stakeInput string
	totals     Totals

	onTotals     []func(Totals)
	onSelections []func([]Selection)
}

// NewController builds the engine from its parts.
func NewController(cfg Config) *Controller {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	store := NewSelectionStore()
	validator := NewWagerValidator(cfg.Limits)
	submission := NewSubmission(store, validator, cfg.Gateway, log)
	submission.SetBalance(cfg.InitialBalance)

	c := &Controller{
		store:      store,
		submission: submission,
		log:        log,
		betType:    BetTypeSingle,
	}
	store.Subscribe(c.recompute)
	c.recompute()
	return c
}

// AddSelection adds a pick to the slip, replacing any existing selection
// for the same (event, market) pair. Ignored while a submission is in
// flight.
func (c *Controller) AddSelection(sel Selection) {
	if c.submission.InFlight() {
		c.log.WithField("selection_id", sel.ID).Debug("ignoring add while submitting")
		return
	}
	c.store.Add(sel)
}

// RemoveSelection removes a pick by id; unknown ids are a no-op. If the
// removal leaves a parlay with fewer than two legs the slip reverts to
// single mode. Ignored while a submission is in flight.
func (c *Controller) RemoveSelection(id string) {
	if c.submission.InFlight() {
		c.log.WithField("selection_id", id).Debug("ignoring remove while submitting")
		return
	}
	c.store.Remove(id)
}

// Clear empties the slip. Ignored while a submission is in flight.
func (c *Controller) Clear() {
	if c.submission.InFlight() {
		return
	}
	c.store.Clear()
}

// SetBetType switches between single and parlay mode. Parlay is only
// selectable with two or more selections.
func (c *Controller) SetBetType(betType BetType) error {
	if c.submission.InFlight() {
		return nil
	}
	if betType == BetTypeParlay && c.store.Len() < 2 {
		return ErrParlayRequiresTwoLegs
	}

	c.mu.Lock()
	c.betType = betType
	c.mu.Unlock()
	c.recompute()
	return nil
}

// SetStakeInput records the raw stake text. The text is deferred-parsed,
// so in-progress typing like "12." is preserved verbatim.
func (c *Controller) SetStakeInput(input string) {
	if c.submission.InFlight() {
		return
	}

	c.mu.Lock()
	c.stakeInput = input
	c.mu.Unlock()
	c.recompute()
}

// Submit validates and places the current slip. See Submission.Submit for
// the result contract.
func (c *Controller) Submit(ctx context.Context) SubmitResult {
	c.mu.Lock()
	betType := c.betType
	stakeInput := c.stakeInput
	c.mu.Unlock()

	result := c.submission.Submit(ctx, betType, stakeInput)
	c.recompute()
	return result
}

// Selections returns the slip's selections in display order.
func (c *Controller) Selections() []Selection {
	return c.store.List()
}

// Totals returns the current computed totals.
func (c *Controller) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals
}

// BetType returns the current bet type.
func (c *Controller) BetType() BetType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.betType
}

// StakeInput returns the raw stake text.
func (c *Controller) StakeInput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stakeInput
}

// Status returns the submission status.
func (c *Controller) Status() Status {
	return c.submission.Status()
}

// LastFailure returns the most recent gateway failure, or nil.
func (c *Controller) LastFailure() *PlacementError {
	return c.submission.LastFailure()
}

// Balance returns the last wallet balance the engine was given.
func (c *Controller) Balance() wallet.Balance {
	return c.submission.Balance()
}

// SetBalance applies an externally refreshed wallet balance.
func (c *Controller) SetBalance(balance wallet.Balance) {
	c.submission.SetBalance(balance)
}

// Dismiss acknowledges a shown success or failure, returning to idle.
func (c *Controller) Dismiss() {
	c.submission.Dismiss()
}

// AcknowledgeOddsChange re-confirms the payout after an odds-changed
// failure, unblocking the next submit.
func (c *Controller) AcknowledgeOddsChange() {
	c.submission.AcknowledgeOddsChange()
}

// OnTotalsChange registers a callback fired after every recompute.
func (c *Controller) OnTotalsChange(fn func(Totals)) {
	c.mu.Lock()
	c.onTotals = append(c.onTotals, fn)
	c.mu.Unlock()
}

// OnSelectionsChange registers a callback fired after every store change.
func (c *Controller) OnSelectionsChange(fn func([]Selection)) {
	c.mu.Lock()
	c.onSelections = append(c.onSelections, fn)
	c.mu.Unlock()
}

// OnStatusChange registers a callback for submission status transitions.
func (c *Controller) OnStatusChange(fn func(Status)) {
	c.submission.OnStatusChange(fn)
}

// OnReceipt registers a callback invoked after a confirmed placement.
func (c *Controller) OnReceipt(fn func(Wager, *PlacementReceipt)) {
	c.submission.OnReceipt(fn)
}

// OnValidationFailure registers a callback for client-side rejections.
func (c *Controller) OnValidationFailure(fn func(ValidationResult)) {
	c.submission.OnValidationFailure(fn)
}

// recompute re-derives totals from the store, the bet type, and the stake
// text. Runs on every store mutation (including the clear after a
// confirmed placement) and on every bet-type or stake change. A parlay
// that dropped below two legs reverts to single here.
func (c *Controller) recompute() {
	selections := c.store.List()

	c.mu.Lock()
	if c.betType == BetTypeParlay && len(selections) < 2 {
		c.betType = BetTypeSingle
	}
	c.totals = ComputeTotals(selections, c.betType, c.stakeInput)
	totals := c.totals
	totalsFns := c.onTotals
	selFns := c.onSelections
	c.mu.Unlock()

	for _, fn := range totalsFns {
		fn(totals)
	}
	for _, fn := range selFns {
		fn(selections)
	}
}
