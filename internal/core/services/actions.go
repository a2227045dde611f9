package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// action is a deferred synchronisation instruction. Executing an action
// only enqueues background work; it never touches an index inline.
type action interface {
	enqueue(s *Synchronizer) error
}

// reindexContentAction reindexes a content item.
type reindexContentAction struct {
	entity       *domain.Entity
	wasPublished bool
}

func (a reindexContentAction) enqueue(s *Synchronizer) error {
	entity, published := a.entity, a.wasPublished
	return s.queue.Enqueue(taskReindexContent, entity.IDString(), func(ctx context.Context) error {
		return s.writer.reindexContent(ctx, entity, published)
	})
}

// reindexMediaAction reindexes a media item.
type reindexMediaAction struct {
	entity       *domain.Entity
	wasPublished bool
}

func (a reindexMediaAction) enqueue(s *Synchronizer) error {
	entity, published := a.entity, a.wasPublished
	return s.queue.Enqueue(taskReindexMedia, entity.IDString(), func(ctx context.Context) error {
		return s.writer.reindexMedia(ctx, entity, published)
	})
}

// reindexMemberAction reindexes a member.
type reindexMemberAction struct {
	entity *domain.Entity
}

func (a reindexMemberAction) enqueue(s *Synchronizer) error {
	entity := a.entity
	return s.queue.Enqueue(taskReindexMember, entity.IDString(), func(ctx context.Context) error {
		return s.writer.reindexMember(ctx, entity)
	})
}

// deleteOneAction retracts a document and its descendants.
type deleteOneAction struct {
	id                string
	keepIfUnpublished bool
}

func (a deleteOneAction) enqueue(s *Synchronizer) error {
	id, keep := a.id, a.keepIfUnpublished
	return s.queue.Enqueue(taskDelete, id, func(ctx context.Context) error {
		return s.writer.delete(ctx, []string{id}, keep)
	})
}

// deleteManyAction retracts several documents. Each id is queued on its
// own lane key so it stays ordered with other work for that id.
type deleteManyAction struct {
	ids               []string
	keepIfUnpublished bool
}

func (a deleteManyAction) enqueue(s *Synchronizer) error {
	for _, id := range a.ids {
		if err := (deleteOneAction{id: id, keepIfUnpublished: a.keepIfUnpublished}).enqueue(s); err != nil {
			return fmt.Errorf("enqueue delete %s: %w", id, err)
		}
	}
	return nil
}
