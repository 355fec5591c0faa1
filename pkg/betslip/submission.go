package betslip

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oddslab/wager-engine/pkg/wallet"
)

// FailureCategory classifies gateway-side placement failures. These are
// distinct from client-side validation Reasons because the server is the
// source of truth at settlement time.
type FailureCategory string

const (
	CategoryNetwork           FailureCategory = "network"
	CategoryServerValidation  FailureCategory = "server_validation"
	CategoryInsufficientFunds FailureCategory = "insufficient_funds"
	CategoryOddsChanged       FailureCategory = "odds_changed"
)

// PlacementReceipt is the gateway's confirmation of a placed wager.
type PlacementReceipt struct {
	NewBalance wallet.Balance `json:"new_balance"`
	PlacedIDs  []string       `json:"placed_ids"`
}

// PlacementError is a categorized gateway failure.
type PlacementError struct {
	Category FailureCategory `json:"category"`
	Message  string          `json:"message"`
}

func (e *PlacementError) Error() string {
	return string(e.Category) + ": " + e.Message
}

// AsPlacementError converts any gateway error into a PlacementError.
// Transport errors without a category are treated as network failures,
// which covers timeouts owned by the network layer.
func AsPlacementError(err error) *PlacementError {
	var perr *PlacementError
	if errors.As(err, &perr) {
		return perr
	}
	return &PlacementError{Category: CategoryNetwork, Message: err.Error()}
}

// Gateway places validated wagers with the platform. Implementations must
// be idempotent on Wager.ClientRequestID so a retry after an ambiguous
// network failure cannot double-place.
type Gateway interface {
	PlaceWager(ctx context.Context, wager Wager) (*PlacementReceipt, error)
}

// SubmitResult is the outcome of a Submit call. Exactly one of the branch
// fields is meaningful: InFlight (duplicate submit ignored), NeedsOddsAck
// (previous odds-changed failure not yet acknowledged), Validation
// (client-side rejection, no gateway call made), Failure (gateway
// rejection), or Placed+Receipt.
type SubmitResult struct {
	Placed       bool              `json:"placed"`
	InFlight     bool              `json:"in_flight,omitempty"`
	NeedsOddsAck bool              `json:"needs_odds_ack,omitempty"`
	Validation   *ValidationResult `json:"validation,omitempty"`
	Receipt      *PlacementReceipt `json:"receipt,omitempty"`
	Failure      *PlacementError   `json:"failure,omitempty"`
}

// Submission drives the bet placement transaction:
//
//	idle → validating → submitting → succeeded
//	                 └→ failed ←┘
//
// On success the selection store is cleared and the confirmed balance
// applied; on failure the slip is left untouched so the user can retry
// without re-entering selections. The wallet balance is updated strictly
// after gateway confirmation, never before.
type Submission struct {
	store     *SelectionStore
	validator *WagerValidator
	gateway   Gateway
	log       *logrus.Logger

	mu              sync.Mutex
	status          Status
	balance         wallet.Balance
	lastFailure     *PlacementError
	awaitingOddsAck bool
	lastAttempt     *Wager

	onStatus            []func(Status)
	onReceipt           []func(Wager, *PlacementReceipt)
	onValidationFailure []func(ValidationResult)
}

// NewSubmission creates the placement state machine. A nil logger falls
// back to the standard logrus logger.
func NewSubmission(store *SelectionStore, validator *WagerValidator, gw Gateway, log *logrus.Logger) *Submission {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Submission{
		store:     store,
		validator: validator,
		gateway:   gw,
		log:       log,
		status:    StatusIdle,
	}
}

// OnStatusChange registers a callback for status transitions. Callbacks
// run synchronously on the submitting goroutine.
func (s *Submission) OnStatusChange(fn func(Status)) {
	s.mu.Lock()
	s.onStatus = append(s.onStatus, fn)
	s.mu.Unlock()
}

// OnReceipt registers a callback invoked after a confirmed placement.
func (s *Submission) OnReceipt(fn func(Wager, *PlacementReceipt)) {
	s.mu.Lock()
	s.onReceipt = append(s.onReceipt, fn)
	s.mu.Unlock()
}

// OnValidationFailure registers a callback for client-side rejections.
func (s *Submission) OnValidationFailure(fn func(ValidationResult)) {
	s.mu.Lock()
	s.onValidationFailure = append(s.onValidationFailure, fn)
	s.mu.Unlock()
}

// Status returns the current submission status.
func (s *Submission) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// InFlight reports whether a submission is currently validating or waiting
// on the gateway.
func (s *Submission) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusValidating || s.status == StatusSubmitting
}

// LastFailure returns the most recent gateway failure, or nil.
func (s *Submission) LastFailure() *PlacementError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFailure
}

// Balance returns the last wallet balance the engine was given.
func (s *Submission) Balance() wallet.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// SetBalance applies an externally refreshed balance. Refreshes are
// ignored while a submission is in flight so the validator and the
// gateway see the same funds.
func (s *Submission) SetBalance(balance wallet.Balance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusValidating || s.status == StatusSubmitting {
		return
	}
	s.balance = balance
}

// Submit validates the slip and, if valid, places the wager through the
// gateway. It is a no-op returning InFlight while a previous submission
// has not finished, which makes rapid double-clicks place exactly one
// wager. A submission that has reached the gateway cannot be cancelled;
// the guard only prevents re-submission.
func (s *Submission) Submit(ctx context.Context, betType BetType, stakeInput string) SubmitResult {
	s.mu.Lock()
	if s.status == StatusValidating || s.status == StatusSubmitting {
		s.mu.Unlock()
		return SubmitResult{InFlight: true}
	}
	if s.awaitingOddsAck {
		failure := s.lastFailure
		s.mu.Unlock()
		return SubmitResult{NeedsOddsAck: true, Failure: failure}
	}
	balance := s.balance
	s.setStatusLocked(StatusValidating)
	s.mu.Unlock()

	res := s.validator.Validate(s.store.List(), betType, stakeInput, balance)
	if !res.Valid {
		s.mu.Lock()
		s.lastFailure = nil
		s.setStatusLocked(StatusFailed)
		fns := s.onValidationFailure
		s.mu.Unlock()

		for _, fn := range fns {
			fn(res)
		}
		s.log.WithFields(logrus.Fields{
			"reason": res.Reason,
		}).Debug("wager rejected client-side")
		return SubmitResult{Validation: &res}
	}

	wager := *res.Wager
	s.mu.Lock()
	wager.ClientRequestID = s.requestIDLocked(wager)
	s.lastAttempt = &wager
	s.setStatusLocked(StatusSubmitting)
	s.mu.Unlock()

	// Nothing is mutated optimistically: the balance and the slip change
	// only once the gateway confirms.
	receipt, err := s.gateway.PlaceWager(ctx, wager)

	if err != nil {
		perr := AsPlacementError(err)
		s.mu.Lock()
		s.lastFailure = perr
		if perr.Category == CategoryOddsChanged {
			s.awaitingOddsAck = true
		}
		s.setStatusLocked(StatusFailed)
		s.mu.Unlock()

		s.log.WithFields(logrus.Fields{
			"category":   perr.Category,
			"request_id": wager.ClientRequestID,
		}).Warn("wager placement failed")
		return SubmitResult{Failure: perr}
	}

	s.mu.Lock()
	s.balance = receipt.NewBalance
	s.lastFailure = nil
	s.lastAttempt = nil
	s.setStatusLocked(StatusSucceeded)
	fns := s.onReceipt
	s.mu.Unlock()

	s.store.Clear()
	for _, fn := range fns {
		fn(wager, receipt)
	}
	s.log.WithFields(logrus.Fields{
		"request_id": wager.ClientRequestID,
		"placed_ids": receipt.PlacedIDs,
		"bet_type":   wager.BetType.String(),
		"stake":      wager.Stake.String(),
	}).Info("wager placed")
	return SubmitResult{Placed: true, Receipt: receipt}
}

// Dismiss returns the state machine to idle after a success or failure has
// been shown to the user. An unacknowledged odds change survives Dismiss:
// resubmitting still requires AcknowledgeOddsChange first.
func (s *Submission) Dismiss() {
	s.mu.Lock()
	if s.status != StatusSucceeded && s.status != StatusFailed {
		s.mu.Unlock()
		return
	}
	if !s.awaitingOddsAck {
		s.lastFailure = nil
	}
	s.setStatusLocked(StatusIdle)
	s.mu.Unlock()
}

// AcknowledgeOddsChange records that the user has re-confirmed the payout
// after an odds-changed failure, unblocking the next Submit. Silently
// resubmitting at stale odds is forbidden.
func (s *Submission) AcknowledgeOddsChange() {
	s.mu.Lock()
	if !s.awaitingOddsAck {
		s.mu.Unlock()
		return
	}
	s.awaitingOddsAck = false
	s.lastFailure = nil
	if s.status == StatusFailed {
		s.setStatusLocked(StatusIdle)
	}
	s.mu.Unlock()
}

// requestIDLocked returns the idempotency key for a wager. Retrying the
// economically identical wager after a network failure reuses the previous
// key, so an ambiguous timeout cannot double-place server-side.
func (s *Submission) requestIDLocked(w Wager) string {
	if s.lastAttempt != nil && s.lastFailure != nil &&
		s.lastFailure.Category == CategoryNetwork &&
		s.lastAttempt.fingerprint() == w.fingerprint() {
		return s.lastAttempt.ClientRequestID
	}
	return uuid.NewString()
}

// setStatusLocked updates the status and fires callbacks. Callers hold mu;
// callbacks must not call back into the submission.
func (s *Submission) setStatusLocked(status Status) {
	if s.status == status {
		return
	}
	s.status = status
	for _, fn := range s.onStatus {
		fn(status)
	}
}
