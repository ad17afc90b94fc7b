package dummyledger

import (
	"context"
	"sync"

	"github.com/trezcool/shughuli/core/activity"
)

// Ledger is an in-memory stand-in for the campus points ledger.
// Credits counts Distribute calls per activity so tests can assert idempotence.
type Ledger struct {
	mu      sync.Mutex
	flags   map[string]bool
	Credits map[string]int
}

var _ activity.Ledger = (*Ledger)(nil) // interface compliance check

func NewLedger() *Ledger {
	return &Ledger{
		flags:   make(map[string]bool),
		Credits: make(map[string]int),
	}
}

func (l *Ledger) Distributed(ctx context.Context, activityID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flags[activityID], nil
}

func (l *Ledger) Distribute(ctx context.Context, activityID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flags[activityID] = true
	l.Credits[activityID]++
	return nil
}
