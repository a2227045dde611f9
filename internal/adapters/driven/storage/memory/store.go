package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/scope"
)

// Ensure Store implements the interface.
var _ driven.ScopeProvider = (*Store)(nil)

// Store is an in-memory content store with transactional scopes.
// Writes made in a scope are visible to that scope immediately and to
// everyone else once it commits.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Begin opens a scope.
func (s *Store) Begin(ctx context.Context, opts driven.ScopeOptions) (driven.Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Scope{id: uuid.NewString(), readOnly: opts.ReadOnly, store: s}, nil
}

// Entities returns an entity store that writes through immediately.
func (s *Store) Entities() driven.EntityStore {
	return &entityStore{access: s}
}

// Protection returns a protection service that writes through immediately.
func (s *Store) Protection() driven.ProtectionService {
	return &protectionService{access: s}
}

// Users returns the user lookup.
func (s *Store) Users() driven.UserLookup {
	return &userLookup{access: s}
}

// AddUser stores a back office user.
func (s *Store) AddUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[user.ID] = user
}

func (s *Store) read(fn func(*state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

func (s *Store) write(fn func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// stateAccess is how the store views reach their data: directly for the
// store, through a staged copy for a scope.
type stateAccess interface {
	read(fn func(*state))
	write(fn func(*state) error) error
}

// storageKey is the enlistment key of a scope's staged writes.
const storageKey = "storage"

// Scope is a unit of work against a Store.
type Scope struct {
	id       string
	readOnly bool
	store    *Store

	mu     sync.Mutex
	staged *state
	ops    []func(*state) error

	enlistments scope.Enlistments
}

// Ensure Scope implements the interface.
var _ driven.Scope = (*Scope)(nil)

// ID identifies the scope.
func (s *Scope) ID() string {
	return s.id
}

// ReadOnly reports whether writes are rejected.
func (s *Scope) ReadOnly() bool {
	return s.readOnly
}

// Enlist registers scope completion state.
func (s *Scope) Enlist(key string, priority int, create func() driven.Enlistment) driven.Enlistment {
	return s.enlistments.Enlist(key, priority, create)
}

// Entities returns the entity store bound to this scope.
func (s *Scope) Entities() driven.EntityStore {
	return &entityStore{access: s}
}

// Protection returns the protection service bound to this scope.
func (s *Scope) Protection() driven.ProtectionService {
	return &protectionService{access: s}
}

// Users returns the user lookup bound to this scope.
func (s *Scope) Users() driven.UserLookup {
	return &userLookup{access: s}
}

// Commit publishes staged writes and runs completions.
func (s *Scope) Commit() error {
	return s.enlistments.Complete(true)
}

// Rollback discards staged writes and runs completions.
func (s *Scope) Rollback() error {
	return s.enlistments.Complete(false)
}

func (s *Scope) read(fn func(*state)) {
	s.mu.Lock()
	staged := s.staged
	if staged != nil {
		defer s.mu.Unlock()
		fn(staged)
		return
	}
	s.mu.Unlock()
	s.store.read(fn)
}

func (s *Scope) write(fn func(*state) error) error {
	if s.readOnly {
		return domain.ErrReadOnlyScope
	}
	en := s.enlistments.Enlist(storageKey, driven.PriorityStorage, func() driven.Enlistment {
		return scope.Func(s.flush)
	})
	if en == nil {
		return domain.ErrScopeClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staged == nil {
		s.store.read(func(st *state) { s.staged = st.clone() })
	}
	if err := fn(s.staged); err != nil {
		return err
	}
	s.ops = append(s.ops, fn)
	return nil
}

// flush replays staged writes onto the store on commit.
func (s *Scope) flush(committed bool) error {
	s.mu.Lock()
	ops := s.ops
	s.ops, s.staged = nil, nil
	s.mu.Unlock()

	if !committed || len(ops) == 0 {
		return nil
	}
	return s.store.write(func(st *state) error {
		for _, op := range ops {
			if err := op(st); err != nil {
				return err
			}
		}
		return nil
	})
}

// entityStore implements driven.EntityStore.
type entityStore struct {
	access stateAccess
}

var _ driven.EntityStore = (*entityStore)(nil)

// Get returns an entity by id.
func (e *entityStore) Get(ctx context.Context, category domain.Category, id int64) (*domain.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *domain.Entity
	var err error
	e.access.read(func(st *state) { out, err = st.get(category, id) })
	return out, err
}

// Save inserts or updates an entity.
func (e *entityStore) Save(ctx context.Context, entity *domain.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entity == nil {
		return domain.ErrInvalidInput
	}
	saved := entity.Clone()
	return e.access.write(func(st *state) error { return st.save(saved) })
}

// Delete removes an entity and its descendants.
func (e *entityStore) Delete(ctx context.Context, category domain.Category, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.access.write(func(st *state) error { return st.remove(category, id) })
}

// PagedDescendants returns the descendants of id ordered by path.
func (e *entityStore) PagedDescendants(ctx context.Context, category domain.Category, id int64, page, size int) ([]*domain.Entity, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	var items []*domain.Entity
	var total int
	var err error
	e.access.read(func(st *state) { items, total, err = st.descendants(category, id, page, size) })
	return items, total, err
}

// PagedOfTypes returns entities of the given types ordered by path.
func (e *entityStore) PagedOfTypes(ctx context.Context, category domain.Category, typeIDs []int64, page, size int) ([]*domain.Entity, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	var items []*domain.Entity
	var total int
	e.access.read(func(st *state) { items, total = st.ofTypes(category, typeIDs, page, size) })
	return items, total, nil
}

// PagedAll returns every entity of a category ordered by path.
func (e *entityStore) PagedAll(ctx context.Context, category domain.Category, page, size int) ([]*domain.Entity, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	var items []*domain.Entity
	var total int
	e.access.read(func(st *state) { items, total = st.all(category, page, size) })
	return items, total, nil
}

// IsPathPublished reports whether every ancestor is published.
func (e *entityStore) IsPathPublished(ctx context.Context, entity *domain.Entity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	e.access.read(func(st *state) { ok = st.isPathPublished(entity) })
	return ok, nil
}

// protectionService implements driven.ProtectionService.
type protectionService struct {
	access stateAccess
}

var _ driven.ProtectionService = (*protectionService)(nil)

// IsProtected returns the rule protecting path, if any.
func (p *protectionService) IsProtected(ctx context.Context, path string) (*domain.ProtectionEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var entry *domain.ProtectionEntry
	var ok bool
	p.access.read(func(st *state) { entry, ok = st.isProtected(path) })
	return entry, ok, nil
}

// Protect adds or replaces the rule for a node.
func (p *protectionService) Protect(ctx context.Context, entry domain.ProtectionEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.access.write(func(st *state) error {
		st.protection[entry.NodeID] = entry
		return nil
	})
}

// Unprotect removes the rule for a node.
func (p *protectionService) Unprotect(ctx context.Context, nodeID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.access.write(func(st *state) error {
		delete(st.protection, nodeID)
		return nil
	})
}

// userLookup implements driven.UserLookup.
type userLookup struct {
	access stateAccess
}

var _ driven.UserLookup = (*userLookup)(nil)

// GetUser returns a user by id.
func (u *userLookup) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *domain.User
	var err error
	u.access.read(func(st *state) { user, err = st.getUser(id) })
	return user, err
}
