// Package wallet defines the wallet balance contract the wager engine
// consumes. The engine never owns the balance: it reads the last value it
// was given and writes a new one only after a confirmed placement.
package wallet

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Balance is a point-in-time view of the user's wallet.
type Balance struct {
	Available decimal.Decimal `json:"available"`
	Pending   decimal.Decimal `json:"pending"`
}

// Provider supplies the current balance. Implementations are polled or
// refreshed by the surrounding UI, not by the engine.
type Provider interface {
	GetBalance(ctx context.Context) (Balance, error)
}

// StaticProvider is an in-memory Provider, used in tests and by the demo
// daemon when no wallet service is configured.
type StaticProvider struct {
	mu      sync.RWMutex
	balance Balance
}

// NewStaticProvider creates a provider with the given starting balance.
func NewStaticProvider(balance Balance) *StaticProvider {
	return &StaticProvider{balance: balance}
}

// GetBalance returns the stored balance.
func (p *StaticProvider) GetBalance(_ context.Context) (Balance, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balance, nil
}

// Set replaces the stored balance.
func (p *StaticProvider) Set(balance Balance) {
	p.mu.Lock()
	p.balance = balance
	p.mu.Unlock()
}
