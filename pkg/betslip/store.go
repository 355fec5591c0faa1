package betslip

import "sync"

// SelectionStore is the ordered collection of slip selections. Insertion
// order is preserved for display; adding a selection that shares an
// existing selection's (event, market) key replaces it in place rather than
// appending a duplicate. Every mutation synchronously notifies subscribers
// so computed totals stay current.
type SelectionStore struct {
	mu          sync.RWMutex
	selections  []Selection
	subscribers []func()
}

// NewSelectionStore creates an empty selection store.
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{}
}

// Subscribe registers a callback invoked after every mutation. Callbacks
// run synchronously on the mutating goroutine and must not mutate the
// store themselves.
func (s *SelectionStore) Subscribe(fn func()) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// Add inserts a selection, replacing any existing selection for the same
// (event, market) key. The replacement keeps the original position.
func (s *SelectionStore) Add(sel Selection) {
	s.mu.Lock()
	replaced := false
	for i, existing := range s.selections {
		if existing.MarketKey() == sel.MarketKey() {
			s.selections[i] = sel
			replaced = true
			break
		}
	}
	if !replaced {
		s.selections = append(s.selections, sel)
	}
	s.mu.Unlock()

	s.notify()
}

// Remove deletes the selection with the given id. Removing an unknown id
// is a no-op, so duplicate UI events are safe.
func (s *SelectionStore) Remove(id string) {
	s.mu.Lock()
	removed := false
	for i, existing := range s.selections {
		if existing.ID == id {
			s.selections = append(s.selections[:i], s.selections[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.notify()
	}
}

// Clear removes all selections.
func (s *SelectionStore) Clear() {
	s.mu.Lock()
	changed := len(s.selections) > 0
	s.selections = nil
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// List returns a copy of the selections in insertion order.
func (s *SelectionStore) List() []Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Selection, len(s.selections))
	copy(out, s.selections)
	return out
}

// Len returns the number of selections.
func (s *SelectionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selections)
}

func (s *SelectionStore) notify() {
	s.mu.RLock()
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}
