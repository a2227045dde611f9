package services

import (
	"errors"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// ledgerKey is the enlistment key of the action ledger.
const ledgerKey = "indexSync"

// ledger collects the actions of one scope and enqueues them, in order,
// once the scope commits. A rolled back scope discards them.
type ledger struct {
	sync *Synchronizer

	mu      sync.Mutex
	actions []action
}

func (l *ledger) add(a action) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = append(l.actions, a)
}

// Len returns the number of pending actions.
func (l *ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.actions)
}

// Completed runs on the committing goroutine. It only enqueues.
func (l *ledger) Completed(committed bool) error {
	l.mu.Lock()
	actions := l.actions
	l.actions = nil
	l.mu.Unlock()

	if !committed {
		if len(actions) > 0 {
			logger.Debug("scope rolled back, discarding %d index actions", len(actions))
		}
		return nil
	}

	var errs []error
	for _, a := range actions {
		if err := a.enqueue(l.sync); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ledgerFor returns the ledger enlisted in scope, enlisting one on first
// use. A nil scope returns a nil ledger: the caller executes immediately.
func (s *Synchronizer) ledgerFor(scope driven.Scope) (*ledger, error) {
	if scope == nil {
		return nil, nil
	}
	en := scope.Enlist(ledgerKey, driven.PriorityIndexSync, func() driven.Enlistment {
		return &ledger{sync: s}
	})
	l, ok := en.(*ledger)
	if !ok || l == nil {
		return nil, domain.ErrScopeClosed
	}
	return l, nil
}

// submit defers a to scope's ledger, or enqueues it now without a scope.
func (s *Synchronizer) submit(scope driven.Scope, a action) error {
	l, err := s.ledgerFor(scope)
	if err != nil {
		return err
	}
	if l == nil {
		return a.enqueue(s)
	}
	l.add(a)
	return nil
}
