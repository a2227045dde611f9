package driven

import "context"

// MainDom elects the single process allowed to write indexes.
type MainDom interface {
	// Acquire claims ownership. Returns domain.ErrNotMainDom when another
	// process holds it.
	Acquire(ctx context.Context) error

	// IsMain reports whether ownership is currently held.
	IsMain() bool

	// Release gives up ownership.
	Release() error
}
