package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/oddslab/wager-engine/pkg/betslip"
	"github.com/oddslab/wager-engine/pkg/wallet"
)

// Simulator is an in-memory gateway that accepts every valid wager,
// debits the stake from a held balance, and remembers placements by
// client request id so retries are idempotent. The demo daemon runs
// against it when no placement service is configured.
type Simulator struct {
	mu      sync.Mutex
	balance wallet.Balance
	placed  map[string]*betslip.PlacementReceipt

	// nextErr, when set, fails the next placement once. Lets demos and
	// tests exercise the failure paths.
	nextErr *betslip.PlacementError
}

// NewSimulator creates a simulator holding the given balance.
func NewSimulator(balance wallet.Balance) *Simulator {
	return &Simulator{
		balance: balance,
		placed:  make(map[string]*betslip.PlacementReceipt),
	}
}

// FailNext scripts a one-shot failure for the next placement.
func (s *Simulator) FailNext(category betslip.FailureCategory, message string) {
	s.mu.Lock()
	s.nextErr = &betslip.PlacementError{Category: category, Message: message}
	s.mu.Unlock()
}

// Balance returns the simulator's current balance.
func (s *Simulator) Balance() wallet.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// PlaceWager settles the wager against the held balance. A repeated
// client request id returns the original receipt without a second debit.
func (s *Simulator) PlaceWager(_ context.Context, wager betslip.Wager) (*betslip.PlacementReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if receipt, ok := s.placed[wager.ClientRequestID]; ok {
		return receipt, nil
	}

	if s.nextErr != nil {
		err := s.nextErr
		s.nextErr = nil
		return nil, err
	}

	if wager.Stake.GreaterThan(s.balance.Available) {
		return nil, &betslip.PlacementError{
			Category: betslip.CategoryInsufficientFunds,
			Message:  "stake exceeds available funds",
		}
	}

	s.balance.Available = s.balance.Available.Sub(wager.Stake)

	ids := make([]string, 0, 1)
	ids = append(ids, uuid.NewString())

	receipt := &betslip.PlacementReceipt{
		NewBalance: s.balance,
		PlacedIDs:  ids,
	}
	s.placed[wager.ClientRequestID] = receipt
	return receipt, nil
}
