package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
	"github.com/custodia-labs/sercha-indexer/internal/projection"
	"github.com/custodia-labs/sercha-indexer/internal/validation"
)

// Queue task names.
const (
	taskReindexContent = "reindex-content"
	taskReindexMedia   = "reindex-media"
	taskReindexMember  = "reindex-member"
	taskDelete         = "delete"
	taskRebuild        = "rebuild"
)

// contentProjections memoizes the two content projections of one entity
// so several indexes with the same publication setting share one build.
type contentProjections struct {
	entity *domain.Entity
	users  driven.UserLookup

	publishedProjection []domain.ValueSet
	publishedErr        error
	publishedDone       bool

	draftProjection []domain.ValueSet
	draftErr        error
	draftDone       bool
}

func newContentProjections(entity *domain.Entity, users driven.UserLookup) *contentProjections {
	return &contentProjections{entity: entity, users: users}
}

func (p *contentProjections) published(ctx context.Context) ([]domain.ValueSet, error) {
	if !p.publishedDone {
		p.publishedProjection, p.publishedErr = projection.NewPublishedContentBuilder(p.users).Build(ctx, p.entity)
		p.publishedDone = true
	}
	return p.publishedProjection, p.publishedErr
}

func (p *contentProjections) draft(ctx context.Context) ([]domain.ValueSet, error) {
	if !p.draftDone {
		p.draftProjection, p.draftErr = projection.NewDraftContentBuilder(p.users).Build(ctx, p.entity)
		p.draftDone = true
	}
	return p.draftProjection, p.draftErr
}

// forIndex returns the projection an index consumes.
func (p *contentProjections) forIndex(ctx context.Context, desc domain.IndexDescriptor) ([]domain.ValueSet, error) {
	if desc.PublishedValuesOnly {
		return p.published(ctx)
	}
	return p.draft(ctx)
}

// indexWriter runs projected documents through an index's validator and
// applies the outcome. It is shared by background reindexing and rebuilds.
type indexWriter struct {
	registry *IndexRegistry
	scopes   driven.ScopeProvider
}

// write validates sets for idx, writes admitted documents and retracts
// rejected ones. Nothing is written if ctx is cancelled before the write.
func (w *indexWriter) write(ctx context.Context, idx driven.Index, sets []domain.ValueSet, protection driven.ProtectionService) error {
	desc := idx.Descriptor()
	validator := validation.For(desc, protection)

	var admitted []domain.ValueSet
	var rejected []string
	for _, vs := range sets {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := validator.Validate(ctx, vs)
		if err != nil {
			return fmt.Errorf("validate %s for %s: %w", vs, desc.Name, err)
		}
		if res.Writable() {
			admitted = append(admitted, *res.ValueSet)
			continue
		}
		logger.Debug("%s rejected %s (%s)", desc.Name, vs, res.Status)
		rejected = append(rejected, vs.ID)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(admitted) > 0 {
		if err := idx.WriteItems(ctx, admitted); err != nil {
			return fmt.Errorf("write %s: %w", desc.Name, err)
		}
	}
	if len(rejected) > 0 {
		if err := idx.RetractItems(ctx, rejected); err != nil {
			return fmt.Errorf("retract from %s: %w", desc.Name, err)
		}
	}
	return nil
}

// reindexContent projects a content item into every default-handled
// index that takes it. Unpublished content only reaches indexes that
// accept unpublished values.
func (w *indexWriter) reindexContent(ctx context.Context, entity *domain.Entity, isPublished bool) error {
	var targets []driven.Index
	for _, idx := range w.registry.DefaultHandled(domain.CategoryContent) {
		if isPublished || !idx.Descriptor().PublishedValuesOnly {
			targets = append(targets, idx)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	scope, err := w.scopes.Begin(ctx, driven.ScopeOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin scope: %w", err)
	}
	defer func() { _ = scope.Rollback() }()

	projections := newContentProjections(entity, scope.Users())
	var errs []error
	for _, idx := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		sets, err := projections.forIndex(ctx, idx.Descriptor())
		if err != nil {
			return fmt.Errorf("project content %d: %w", entity.ID, err)
		}
		if err := w.write(ctx, idx, sets, scope.Protection()); err != nil {
			if ctx.Err() != nil {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reindexMedia projects a media item. Media has a single projection.
func (w *indexWriter) reindexMedia(ctx context.Context, entity *domain.Entity, isPublished bool) error {
	var targets []driven.Index
	for _, idx := range w.registry.DefaultHandled(domain.CategoryMedia) {
		if isPublished || !idx.Descriptor().PublishedValuesOnly {
			targets = append(targets, idx)
		}
	}
	return w.reindexSingle(ctx, entity, targets, func(users driven.UserLookup) projection.Builder {
		return projection.NewMediaBuilder(users)
	})
}

// reindexMember projects a member into every default-handled member index.
func (w *indexWriter) reindexMember(ctx context.Context, entity *domain.Entity) error {
	targets := w.registry.DefaultHandled(domain.CategoryMember)
	return w.reindexSingle(ctx, entity, targets, func(driven.UserLookup) projection.Builder {
		return projection.NewMemberBuilder()
	})
}

func (w *indexWriter) reindexSingle(
	ctx context.Context,
	entity *domain.Entity,
	targets []driven.Index,
	builder func(driven.UserLookup) projection.Builder,
) error {
	if len(targets) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	scope, err := w.scopes.Begin(ctx, driven.ScopeOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin scope: %w", err)
	}
	defer func() { _ = scope.Rollback() }()

	sets, err := builder(scope.Users()).Build(ctx, entity)
	if err != nil {
		return fmt.Errorf("project %s %d: %w", entity.Category, entity.ID, err)
	}

	var errs []error
	for _, idx := range targets {
		if err := w.write(ctx, idx, sets, scope.Protection()); err != nil {
			if ctx.Err() != nil {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// delete removes ids, with descendants, from every default-handled index.
// With keepIfUnpublished only published-only indexes are touched.
func (w *indexWriter) delete(ctx context.Context, ids []string, keepIfUnpublished bool) error {
	var errs []error
	for _, idx := range w.registry.All() {
		desc := idx.Descriptor()
		if !desc.EnableDefaultEventHandler || (keepIfUnpublished && !desc.PublishedValuesOnly) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := idx.DeleteItems(ctx, ids); err != nil {
			errs = append(errs, fmt.Errorf("delete from %s: %w", desc.Name, err))
		}
	}
	return errors.Join(errs...)
}
