package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure Sync implements the interface.
var _ driven.TaskQueue = (*Sync)(nil)

// Sync runs tasks inline on the caller's goroutine.
// Task errors are logged and collected rather than returned from Enqueue,
// matching Background.
type Sync struct {
	mu     sync.Mutex
	closed bool
	names  []string
	errs   []error
}

// NewSync creates an inline queue.
func NewSync() *Sync {
	return &Sync{}
}

// Enqueue runs task immediately.
func (s *Sync) Enqueue(name, _ string, task driven.Task) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrQueueClosed
	}
	s.names = append(s.names, name)
	s.mu.Unlock()

	if err := invoke(context.Background(), task); err != nil {
		logger.Error("queue task %s abandoned: %v", name, err)
		s.mu.Lock()
		s.errs = append(s.errs, err)
		s.mu.Unlock()
	}
	return nil
}

// Names returns the names of every task run so far, in order.
func (s *Sync) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Err returns the joined errors of every failed task.
func (s *Sync) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.errs...)
}

// Shutdown stops accepting tasks.
func (s *Sync) Shutdown(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
