package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
	"github.com/custodia-labs/sercha-indexer/internal/projection"
)

// Ensure IndexRebuilder implements the interface.
var _ driving.IndexRebuilder = (*IndexRebuilder)(nil)

// IndexRebuilder clears indexes and repopulates them from the store.
type IndexRebuilder struct {
	registry *IndexRegistry
	scopes   driven.ScopeProvider
	writer   *indexWriter
	pageSize int
}

// NewIndexRebuilder creates a rebuilder that reads the store in pages of
// pageSize entities.
func NewIndexRebuilder(registry *IndexRegistry, scopes driven.ScopeProvider, pageSize int) *IndexRebuilder {
	if pageSize < 1 {
		pageSize = domain.DefaultSweepPageSize
	}
	return &IndexRebuilder{
		registry: registry,
		scopes:   scopes,
		writer:   &indexWriter{registry: registry, scopes: scopes},
		pageSize: pageSize,
	}
}

// Rebuild rebuilds every index in parallel. The first failure cancels
// the remaining rebuilds.
func (r *IndexRebuilder) Rebuild(ctx context.Context, onlyEmpty bool) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, idx := range r.registry.All() {
		g.Go(func() error {
			return r.rebuild(gctx, idx, onlyEmpty)
		})
	}
	return g.Wait()
}

// RebuildIndex rebuilds one index by name.
func (r *IndexRebuilder) RebuildIndex(ctx context.Context, name string) error {
	idx, err := r.registry.Get(name)
	if err != nil {
		return err
	}
	return r.rebuild(ctx, idx, false)
}

func (r *IndexRebuilder) rebuild(ctx context.Context, idx driven.Index, onlyEmpty bool) error {
	desc := idx.Descriptor()

	if onlyEmpty {
		n, err := idx.Count(ctx)
		if err != nil {
			return fmt.Errorf("count %s: %w", desc.Name, err)
		}
		if n > 0 {
			logger.Debug("skipping rebuild of %s: %d documents", desc.Name, n)
			return nil
		}
	}

	logger.Info("rebuilding %s", desc.Name)
	if err := idx.Clear(ctx); err != nil {
		return fmt.Errorf("clear %s: %w", desc.Name, err)
	}

	scope, err := r.scopes.Begin(ctx, driven.ScopeOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin scope: %w", err)
	}
	defer func() { _ = scope.Rollback() }()

	store := scope.Entities()
	written := 0
	for _, category := range desc.Categories {
		paths := newPublishedPaths(store)
		err := forEachPage(ctx, r.pageSize, func(page int) ([]*domain.Entity, int, error) {
			return store.PagedAll(ctx, category, page, r.pageSize)
		}, func(items []*domain.Entity) error {
			sets, err := r.project(ctx, desc, scope.Users(), paths, items)
			if err != nil {
				return err
			}
			written += len(sets)
			return r.writer.write(ctx, idx, sets, scope.Protection())
		})
		if err != nil {
			return fmt.Errorf("rebuild %s %s: %w", desc.Name, category, err)
		}
	}

	logger.Info("rebuilt %s with %d documents", desc.Name, written)
	return nil
}

// project builds the documents of one page for desc. Content that is not
// published through its whole path is skipped for published-only
// indexes, as is trashed media.
func (r *IndexRebuilder) project(
	ctx context.Context,
	desc domain.IndexDescriptor,
	users driven.UserLookup,
	paths *publishedPaths,
	items []*domain.Entity,
) ([]domain.ValueSet, error) {
	var builder projection.Builder
	var out []domain.ValueSet

	for _, e := range items {
		switch e.Category {
		case domain.CategoryContent:
			if desc.PublishedValuesOnly {
				published, err := paths.isPublished(ctx, e)
				if err != nil {
					return nil, err
				}
				if !published {
					continue
				}
				if builder == nil {
					builder = projection.NewPublishedContentBuilder(users)
				}
			} else if builder == nil {
				builder = projection.NewDraftContentBuilder(users)
			}
		case domain.CategoryMedia:
			if desc.PublishedValuesOnly && e.Trashed {
				continue
			}
			if builder == nil {
				builder = projection.NewMediaBuilder(users)
			}
		default:
			if builder == nil {
				builder = projection.NewMemberBuilder()
			}
		}

		sets, err := builder.Build(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("project %s %d: %w", e.Category, e.ID, err)
		}
		out = append(out, sets...)
	}
	return out, nil
}
