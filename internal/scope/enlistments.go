// Package scope provides the completion bookkeeping shared by every
// unit-of-work implementation: keyed enlistments that run once, in
// priority order, after the scope commits or rolls back.
package scope

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

type entry struct {
	key        string
	priority   int
	seq        int
	enlistment driven.Enlistment
}

// Enlistments holds the enlistments of one scope.
// The zero value is ready to use.
type Enlistments struct {
	mu      sync.Mutex
	entries map[string]*entry
	seq     int
	done    bool
}

// Enlist returns the enlistment registered under key, creating it on
// first use. A nil create result is not registered.
// Enlisting after completion returns nil.
func (e *Enlistments) Enlist(key string, priority int, create func() driven.Enlistment) driven.Enlistment {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done {
		return nil
	}
	if existing, ok := e.entries[key]; ok {
		return existing.enlistment
	}

	en := create()
	if en == nil {
		return nil
	}
	if e.entries == nil {
		e.entries = make(map[string]*entry)
	}
	e.entries[key] = &entry{key: key, priority: priority, seq: e.seq, enlistment: en}
	e.seq++
	return en
}

// Len returns the number of registered enlistments.
func (e *Enlistments) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Complete runs every enlistment once, in ascending priority then
// registration order. A failing or panicking enlistment does not stop
// the others; failures are joined. Calling Complete twice returns
// domain.ErrScopeClosed.
func (e *Enlistments) Complete(committed bool) error {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return domain.ErrScopeClosed
	}
	e.done = true
	ordered := make([]*entry, 0, len(e.entries))
	for _, en := range e.entries {
		ordered = append(ordered, en)
	}
	e.mu.Unlock()

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].priority != ordered[j].priority {
			return ordered[i].priority < ordered[j].priority
		}
		return ordered[i].seq < ordered[j].seq
	})

	var errs []error
	for _, en := range ordered {
		if err := run(en, committed); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func run(en *entry, committed bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("enlistment %s panicked: %v", en.key, r)
		}
	}()
	if err := en.enlistment.Completed(committed); err != nil {
		return fmt.Errorf("enlistment %s: %w", en.key, err)
	}
	return nil
}

// Func adapts a function to driven.Enlistment.
type Func func(committed bool) error

// Completed calls f.
func (f Func) Completed(committed bool) error {
	return f(committed)
}
