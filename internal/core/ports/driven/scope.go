package driven

import "context"

// Enlistment priorities. Completions run in ascending order after the
// scope commits or rolls back.
const (
	// PriorityStorage is used by the storage layer's own hooks.
	PriorityStorage = 60

	// PriorityIndexSync is used by the index synchronisation ledger.
	// It runs after storage hooks so that background work reading the
	// store sees flushed data.
	PriorityIndexSync = 80

	// PriorityDefault is used by application hooks.
	PriorityDefault = 100
)

// Enlistment is state registered once per scope and notified when the
// scope completes.
type Enlistment interface {
	// Completed is called once after commit (true) or rollback (false).
	Completed(committed bool) error
}

// Scope is a unit of work against the content store.
// A scope must be finished with exactly one of Commit or Rollback.
// Rollback after Commit returns domain.ErrScopeClosed and is otherwise a
// no-op, so it can be deferred.
type Scope interface {
	// ID identifies the scope in logs.
	ID() string

	// ReadOnly reports whether writes are rejected.
	ReadOnly() bool

	// Enlist returns the enlistment registered under key, creating it with
	// create on first use. Enlistments run in ascending priority order,
	// then registration order.
	Enlist(key string, priority int, create func() Enlistment) Enlistment

	// Entities returns the entity store bound to this scope.
	Entities() EntityStore

	// Protection returns the public access lookup bound to this scope.
	Protection() ProtectionService

	// Users returns the user lookup bound to this scope.
	Users() UserLookup

	// Commit commits the unit of work and runs enlisted completions.
	// Completion failures are returned joined, after the commit is durable.
	Commit() error

	// Rollback discards the unit of work and runs enlisted completions.
	Rollback() error
}

// ScopeOptions configures a new scope.
type ScopeOptions struct {
	// ReadOnly opens a scope that rejects writes.
	ReadOnly bool
}

// ScopeProvider opens units of work.
type ScopeProvider interface {
	// Begin opens a new scope.
	Begin(ctx context.Context, opts ScopeOptions) (Scope, error)
}
