package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure Synchronizer implements the interface.
var _ driving.IndexSynchronizer = (*Synchronizer)(nil)

// Synchronizer turns change notifications into deferred index actions.
//
// Actions raised inside a scope are held in that scope's ledger and only
// reach the queue when the scope commits. Two scopes touching the same
// entity concurrently may have their work applied in either order; the
// last projection to finish wins until the next change or rebuild.
type Synchronizer struct {
	registry  *IndexRegistry
	scopes    driven.ScopeProvider
	queue     driven.TaskQueue
	mainDom   driven.MainDom
	rebuilder *IndexRebuilder
	sweeper   *BulkRetractionSweeper
	writer    *indexWriter
	pageSize  int

	enabled      atomic.Bool
	suspended    atomic.Bool
	disabledOnce sync.Once
}

// NewSynchronizer creates a synchroniser. mainDom and rebuilder are
// optional: without mainDom the process assumes it owns index writes,
// without rebuilder language changes and startup skip rebuilding.
func NewSynchronizer(
	registry *IndexRegistry,
	scopes driven.ScopeProvider,
	queue driven.TaskQueue,
	mainDom driven.MainDom,
	rebuilder *IndexRebuilder,
	settings domain.Settings,
) *Synchronizer {
	s := &Synchronizer{
		registry:  registry,
		scopes:    scopes,
		queue:     queue,
		mainDom:   mainDom,
		rebuilder: rebuilder,
		writer:    &indexWriter{registry: registry, scopes: scopes},
		pageSize:  settings.Sweep.PageSize,
	}
	if s.pageSize < 1 {
		s.pageSize = domain.DefaultSweepPageSize
	}
	s.sweeper = NewBulkRetractionSweeper(registry, s.retractNow, s.pageSize)
	s.enabled.Store(settings.Enabled)
	return s
}

// Start claims index ownership and, when that succeeds, queues a rebuild
// of empty indexes. Failing to become the main domain disables the
// synchroniser for the rest of the process.
func (s *Synchronizer) Start(ctx context.Context) error {
	if !s.enabled.Load() {
		s.disable("disabled by configuration")
		return nil
	}

	if s.mainDom != nil {
		if err := s.mainDom.Acquire(ctx); err != nil {
			s.disable(err.Error())
			return fmt.Errorf("%w: %w", domain.ErrPipelineDisabled, err)
		}
	}

	if !s.registry.AnyDefaultHandled() {
		s.disable("no index handles default events")
		return nil
	}

	logger.Info("index synchronisation started for %d indexes", s.registry.Len())

	if s.rebuilder != nil {
		return s.enqueueRebuild(true)
	}
	return nil
}

func (s *Synchronizer) disable(reason string) {
	s.enabled.Store(false)
	s.disabledOnce.Do(func() {
		logger.Warn("index synchronisation disabled: %s", reason)
	})
}

// Enabled reports whether notifications are processed.
func (s *Synchronizer) Enabled() bool {
	return s.enabled.Load()
}

// Suspend makes notifications no-ops until Resume.
func (s *Synchronizer) Suspend() {
	s.suspended.Store(true)
}

// Resume re-enables notifications after Suspend.
func (s *Synchronizer) Resume() {
	s.suspended.Store(false)
}

// Suspended reports whether notifications are suspended.
func (s *Synchronizer) Suspended() bool {
	return s.suspended.Load()
}

func (s *Synchronizer) active() bool {
	return s.enabled.Load() && !s.suspended.Load()
}

// NotifyChanged reindexes an entity once scope commits.
func (s *Synchronizer) NotifyChanged(_ context.Context, scope driven.Scope, entity *domain.Entity, isPublished bool) error {
	if !s.active() {
		return nil
	}
	if entity == nil {
		return fmt.Errorf("%w: nil entity", domain.ErrInvalidInput)
	}

	e := entity.Clone()
	switch e.Category {
	case domain.CategoryContent:
		return s.submit(scope, reindexContentAction{entity: e, wasPublished: isPublished})
	case domain.CategoryMedia:
		return s.submit(scope, reindexMediaAction{entity: e, wasPublished: isPublished})
	case domain.CategoryMember:
		return s.submit(scope, reindexMemberAction{entity: e})
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, e.Category)
	}
}

// NotifyDeleted retracts a document once scope commits.
func (s *Synchronizer) NotifyDeleted(_ context.Context, scope driven.Scope, id string, keepIfUnpublished bool) error {
	if !s.active() {
		return nil
	}
	return s.submit(scope, deleteOneAction{id: id, keepIfUnpublished: keepIfUnpublished})
}

// NotifyDeletedMany retracts several documents once scope commits.
func (s *Synchronizer) NotifyDeletedMany(_ context.Context, scope driven.Scope, ids []string, keepIfUnpublished bool) error {
	if !s.active() || len(ids) == 0 {
		return nil
	}
	return s.submit(scope, deleteManyAction{ids: append([]string(nil), ids...), keepIfUnpublished: keepIfUnpublished})
}

// NotifyTypesRemoved sweeps the documents of removed types out of every
// index. It runs immediately, outside any scope.
func (s *Synchronizer) NotifyTypesRemoved(ctx context.Context, category domain.Category, typeIDs []int64) error {
	if !s.active() || len(typeIDs) == 0 {
		return nil
	}
	_, err := s.sweeper.Sweep(ctx, category, typeIDs)
	return err
}

// retractNow queues a delete without going through a ledger.
func (s *Synchronizer) retractNow(_ context.Context, id string) error {
	return deleteOneAction{id: id}.enqueue(s)
}

// HandleContentChanges processes content tree changes.
func (s *Synchronizer) HandleContentChanges(ctx context.Context, scope driven.Scope, changes []domain.TreeChange) error {
	if !s.active() {
		return nil
	}
	return s.withEntities(ctx, scope, func(store driven.EntityStore) error {
		for _, c := range changes {
			if err := s.contentChange(ctx, scope, store, c); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Synchronizer) contentChange(ctx context.Context, scope driven.Scope, store driven.EntityStore, c domain.TreeChange) error {
	id := fmt.Sprint(c.ID)
	switch c.Kind {
	case domain.TreeRemove:
		return s.submit(scope, deleteOneAction{id: id})
	case domain.TreeRefreshAll:
		logger.Info("ignoring refresh-all content change; rebuild indexes instead")
		return nil
	}

	e, err := store.Get(ctx, domain.CategoryContent, c.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.submit(scope, deleteOneAction{id: id})
	}
	if err != nil {
		return fmt.Errorf("load content %d: %w", c.ID, err)
	}

	published := false
	if e.Published && !e.Trashed {
		published, err = store.IsPathPublished(ctx, e)
		if err != nil {
			return fmt.Errorf("path published %d: %w", c.ID, err)
		}
	}
	if !published {
		if err := s.submit(scope, deleteOneAction{id: id, keepIfUnpublished: true}); err != nil {
			return err
		}
	}
	if err := s.submit(scope, reindexContentAction{entity: e, wasPublished: published}); err != nil {
		return err
	}

	if c.Kind != domain.TreeRefreshBranch {
		return nil
	}

	// Descendants are ordered by path, so a parent is always seen before
	// its children. A nil mask means the whole branch is unpublished.
	var masked map[int64]bool
	if published {
		masked = make(map[int64]bool)
	}
	return forEachPage(ctx, s.pageSize, func(page int) ([]*domain.Entity, int, error) {
		return store.PagedDescendants(ctx, domain.CategoryContent, e.ID, page, s.pageSize)
	}, func(items []*domain.Entity) error {
		for _, d := range items {
			dPublished := false
			if masked != nil {
				if masked[d.ParentID] || !d.Published {
					masked[d.ID] = true
				} else {
					dPublished = true
				}
			}
			if err := s.submit(scope, reindexContentAction{entity: d, wasPublished: dPublished}); err != nil {
				return err
			}
		}
		return nil
	})
}

// HandleMediaChanges processes media tree changes.
func (s *Synchronizer) HandleMediaChanges(ctx context.Context, scope driven.Scope, changes []domain.TreeChange) error {
	if !s.active() {
		return nil
	}
	return s.withEntities(ctx, scope, func(store driven.EntityStore) error {
		for _, c := range changes {
			if err := s.mediaChange(ctx, scope, store, c); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Synchronizer) mediaChange(ctx context.Context, scope driven.Scope, store driven.EntityStore, c domain.TreeChange) error {
	id := fmt.Sprint(c.ID)
	switch c.Kind {
	case domain.TreeRemove:
		return s.submit(scope, deleteOneAction{id: id})
	case domain.TreeRefreshAll:
		logger.Info("ignoring refresh-all media change; rebuild indexes instead")
		return nil
	}

	m, err := store.Get(ctx, domain.CategoryMedia, c.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.submit(scope, deleteOneAction{id: id})
	}
	if err != nil {
		return fmt.Errorf("load media %d: %w", c.ID, err)
	}

	if m.Trashed {
		if err := s.submit(scope, deleteOneAction{id: id, keepIfUnpublished: true}); err != nil {
			return err
		}
	}
	if err := s.submit(scope, reindexMediaAction{entity: m, wasPublished: !m.Trashed}); err != nil {
		return err
	}

	if c.Kind != domain.TreeRefreshBranch {
		return nil
	}
	return forEachPage(ctx, s.pageSize, func(page int) ([]*domain.Entity, int, error) {
		return store.PagedDescendants(ctx, domain.CategoryMedia, m.ID, page, s.pageSize)
	}, func(items []*domain.Entity) error {
		for _, d := range items {
			if err := s.submit(scope, reindexMediaAction{entity: d, wasPublished: !d.Trashed}); err != nil {
				return err
			}
		}
		return nil
	})
}

// HandleMemberChanges processes member changes. Members that no longer
// exist are skipped; removal arrives as an explicit change.
func (s *Synchronizer) HandleMemberChanges(ctx context.Context, scope driven.Scope, changes []domain.MemberChange) error {
	if !s.active() {
		return nil
	}
	return s.withEntities(ctx, scope, func(store driven.EntityStore) error {
		for _, c := range changes {
			if c.Removed {
				if err := s.submit(scope, deleteOneAction{id: fmt.Sprint(c.ID)}); err != nil {
					return err
				}
				continue
			}
			m, err := store.Get(ctx, domain.CategoryMember, c.ID)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("load member %d: %w", c.ID, err)
			}
			if err := s.submit(scope, reindexMemberAction{entity: m}); err != nil {
				return err
			}
		}
		return nil
	})
}

// HandleTypeChanges reindexes the entities of refreshed types and sweeps
// the documents of removed types.
func (s *Synchronizer) HandleTypeChanges(ctx context.Context, scope driven.Scope, changes []domain.TypeChange) error {
	if !s.active() {
		return nil
	}

	refreshed := make(map[domain.Category][]int64)
	removed := make(map[domain.Category][]int64)
	seen := make(map[domain.TypeChange]bool)
	for _, c := range changes {
		key := domain.TypeChange{Category: c.Category, ID: c.ID, Kind: c.Kind}
		if c.Kind == domain.TypeRefreshOther {
			key.Kind = domain.TypeRefreshMain
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		if c.Kind == domain.TypeRemove {
			removed[c.Category] = append(removed[c.Category], c.ID)
		} else {
			refreshed[c.Category] = append(refreshed[c.Category], c.ID)
		}
	}

	err := s.withEntities(ctx, scope, func(store driven.EntityStore) error {
		for _, category := range domain.AllCategories() {
			ids := refreshed[category]
			if len(ids) == 0 {
				continue
			}
			if err := s.refreshTypes(ctx, scope, store, category, ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	var errs []error
	for _, category := range domain.AllCategories() {
		if ids := removed[category]; len(ids) > 0 {
			if err := s.NotifyTypesRemoved(ctx, category, ids); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Synchronizer) refreshTypes(ctx context.Context, scope driven.Scope, store driven.EntityStore, category domain.Category, typeIDs []int64) error {
	paths := newPublishedPaths(store)
	return forEachPage(ctx, s.pageSize, func(page int) ([]*domain.Entity, int, error) {
		return store.PagedOfTypes(ctx, category, typeIDs, page, s.pageSize)
	}, func(items []*domain.Entity) error {
		for _, e := range items {
			var a action
			switch category {
			case domain.CategoryContent:
				published, err := paths.isPublished(ctx, e)
				if err != nil {
					return err
				}
				a = reindexContentAction{entity: e, wasPublished: published}
			case domain.CategoryMedia:
				a = reindexMediaAction{entity: e, wasPublished: !e.Trashed}
			default:
				a = reindexMemberAction{entity: e}
			}
			if err := s.submit(scope, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// HandleLanguageChanges queues a full rebuild when a culture code changes
// or a language is removed, since culture-suffixed field names change.
func (s *Synchronizer) HandleLanguageChanges(_ context.Context, changes []domain.LanguageChange) error {
	if !s.active() || s.rebuilder == nil {
		return nil
	}
	for _, c := range changes {
		if c.RequiresRebuild() {
			logger.Info("language %s changed, rebuilding indexes", c.ISOCode)
			return s.enqueueRebuild(false)
		}
	}
	return nil
}

func (s *Synchronizer) enqueueRebuild(onlyEmpty bool) error {
	return s.queue.Enqueue(taskRebuild, taskRebuild, func(ctx context.Context) error {
		return s.rebuilder.Rebuild(ctx, onlyEmpty)
	})
}

// withEntities runs fn against the scope's store, or a fresh read-only
// scope when no unit of work is active.
func (s *Synchronizer) withEntities(ctx context.Context, scope driven.Scope, fn func(driven.EntityStore) error) error {
	if scope != nil {
		return fn(scope.Entities())
	}
	own, err := s.scopes.Begin(ctx, driven.ScopeOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin scope: %w", err)
	}
	defer func() { _ = own.Rollback() }()
	return fn(own.Entities())
}
