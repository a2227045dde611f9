// Package maindom elects the single process allowed to write indexes.
package maindom

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// LockFileName is the lock file created in the data directory.
const LockFileName = "maindom.lock"

// Ensure implementations satisfy the interface.
var (
	_ driven.MainDom = (*FileLock)(nil)
	_ driven.MainDom = (*Local)(nil)
)

// FileLock holds an exclusive advisory lock on a file for the lifetime
// of the process. A second process on the same data directory fails to
// acquire it.
type FileLock struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// NewFileLock creates a lock on <dataDir>/maindom.lock.
func NewFileLock(dataDir string) *FileLock {
	return &FileLock{path: filepath.Join(dataDir, LockFileName)}
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking.
func (l *FileLock) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return fmt.Errorf("%w: %s is held by another process", domain.ErrNotMainDom, l.path)
		}
		return fmt.Errorf("locking %s: %w", l.path, err)
	}

	_ = f.Truncate(0)
	_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())

	l.file = f
	logger.Debug("acquired main domain lock %s", l.path)
	return nil
}

// IsMain reports whether the lock is held.
func (l *FileLock) IsMain() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file != nil
}

// Release drops the lock.
func (l *FileLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		f.Close()
		return fmt.Errorf("unlocking %s: %w", l.path, err)
	}
	return f.Close()
}

// Local is an in-process main domain. Acquire always succeeds unless
// another Local sharing the same Group holds it.
type Local struct {
	group *Group

	mu   sync.Mutex
	held bool
}

// Group lets several Local instances contend for one main domain.
type Group struct {
	mu    sync.Mutex
	owner *Local
}

// NewLocal creates an in-process main domain in group. A nil group
// creates a private one.
func NewLocal(group *Group) *Local {
	if group == nil {
		group = &Group{}
	}
	return &Local{group: group}
}

// Acquire claims the group.
func (l *Local) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.group.mu.Lock()
	defer l.group.mu.Unlock()
	if l.group.owner != nil && l.group.owner != l {
		return domain.ErrNotMainDom
	}
	l.group.owner = l

	l.mu.Lock()
	l.held = true
	l.mu.Unlock()
	return nil
}

// IsMain reports whether this instance owns the group.
func (l *Local) IsMain() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Release gives up the group.
func (l *Local) Release() error {
	l.group.mu.Lock()
	defer l.group.mu.Unlock()
	if l.group.owner == l {
		l.group.owner = nil
	}
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()
	return nil
}
