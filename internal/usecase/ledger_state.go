package usecase

import (
	"sync"

	"github.com/iho/bookd/internal/domain"
)

// LedgerState is the in-process ledger shared by the use cases. One
// exclusive lock serializes every access: the booking fold is order
// dependent, so writers must never interleave, and readers see only fully
// applied transactions.
type LedgerState struct {
	mu     sync.Mutex
	ledger *domain.Ledger
}

// NewLedgerState builds an empty ledger with the given options.
func NewLedgerState(opts domain.Options) *LedgerState {
	return &LedgerState{ledger: domain.NewLedger(opts)}
}

// Update runs fn with exclusive access to the ledger.
func (s *LedgerState) Update(fn func(l *domain.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.ledger)
}

// View runs fn with the ledger locked. Results derived from ledger state
// must be copied out before fn returns; the fold may move on afterwards.
func (s *LedgerState) View(fn func(l *domain.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.ledger)
}
