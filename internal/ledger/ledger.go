// Package ledger holds the append-only cash movement log and the pure
// translation of business events into movements.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
)

var (
	ErrDuplicateMovement = errors.New("ledger: duplicate movement id")
	ErrNotEmpty          = errors.New("ledger: restore on non-empty ledger")
)

// Ledger is an ordered, append-only list of cash movements. Entries are
// never edited or removed once appended.
type Ledger struct {
	mu      sync.RWMutex
	entries []core.CashMovement
	byID    map[string]int
}

func New() *Ledger {
	return &Ledger{byID: make(map[string]int)}
}

// Append validates m and adds it after every existing entry.
func (l *Ledger) Append(m core.CashMovement) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("ledger: invalid movement: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byID[m.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMovement, m.ID)
	}
	l.byID[m.ID] = len(l.entries)
	l.entries = append(l.entries, m)
	return nil
}

// Restore loads a persisted journal into an empty ledger, keeping order.
func (l *Ledger) Restore(movements []core.CashMovement) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) > 0 {
		return ErrNotEmpty
	}
	for _, m := range movements {
		if _, ok := l.byID[m.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateMovement, m.ID)
		}
		l.byID[m.ID] = len(l.entries)
		l.entries = append(l.entries, m)
	}
	return nil
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a copy of the whole log in append order.
func (l *Ledger) Entries() []core.CashMovement {
	return l.Filter(nil)
}

// Get returns the movement with the given id.
func (l *Ledger) Get(id string) (core.CashMovement, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byID[id]
	if !ok {
		return core.CashMovement{}, false
	}
	return l.entries[i], true
}

// Filter returns, in append order, the entries for which keep is true. A
// nil keep returns everything.
func (l *Ledger) Filter(keep func(core.CashMovement) bool) []core.CashMovement {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.CashMovement, 0, len(l.entries))
	for _, m := range l.entries {
		if keep == nil || keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func (l *Ledger) ForStore(storeID string) []core.CashMovement {
	return l.Filter(func(m core.CashMovement) bool { return m.StoreID == storeID })
}

func (l *Ledger) ByReference(referenceID string) []core.CashMovement {
	return l.Filter(func(m core.CashMovement) bool { return m.ReferenceID == referenceID })
}
