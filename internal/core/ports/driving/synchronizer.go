package driving

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// IndexSynchronizer keeps indexes consistent with the content store.
//
// Every method taking a scope defers its work until that scope commits.
// A nil scope means no unit of work is active and the work is queued
// immediately.
type IndexSynchronizer interface {
	// Start performs single-writer election. When it fails, or no index
	// takes default events, the synchroniser disables itself and every
	// notification becomes a no-op.
	Start(ctx context.Context) error

	// Enabled reports whether notifications are processed.
	Enabled() bool

	// Suspend makes notifications no-ops until Resume.
	Suspend()

	// Resume re-enables notifications after Suspend.
	Resume()

	// NotifyChanged reindexes an entity.
	NotifyChanged(ctx context.Context, scope driven.Scope, entity *domain.Entity, isPublished bool) error

	// NotifyDeleted retracts a document and its descendants.
	// With keepIfUnpublished only published-only indexes are touched.
	NotifyDeleted(ctx context.Context, scope driven.Scope, id string, keepIfUnpublished bool) error

	// NotifyDeletedMany retracts several documents.
	NotifyDeletedMany(ctx context.Context, scope driven.Scope, ids []string, keepIfUnpublished bool) error

	// NotifyTypesRemoved retracts every document of the given types.
	NotifyTypesRemoved(ctx context.Context, category domain.Category, typeIDs []int64) error

	// HandleContentChanges processes content tree change notifications.
	HandleContentChanges(ctx context.Context, scope driven.Scope, changes []domain.TreeChange) error

	// HandleMediaChanges processes media tree change notifications.
	HandleMediaChanges(ctx context.Context, scope driven.Scope, changes []domain.TreeChange) error

	// HandleMemberChanges processes member change notifications.
	HandleMemberChanges(ctx context.Context, scope driven.Scope, changes []domain.MemberChange) error

	// HandleTypeChanges processes type definition change notifications.
	HandleTypeChanges(ctx context.Context, scope driven.Scope, changes []domain.TypeChange) error

	// HandleLanguageChanges processes language change notifications.
	HandleLanguageChanges(ctx context.Context, changes []domain.LanguageChange) error
}

// IndexRebuilder repopulates indexes from the content store.
type IndexRebuilder interface {
	// Rebuild clears and repopulates every index. With onlyEmpty, indexes
	// that already hold documents are skipped.
	Rebuild(ctx context.Context, onlyEmpty bool) error

	// RebuildIndex clears and repopulates a single index.
	RebuildIndex(ctx context.Context, name string) error
}

// IndexCatalog exposes the configured indexes.
type IndexCatalog interface {
	// Descriptors returns every index descriptor in registration order.
	Descriptors() []domain.IndexDescriptor

	// Get returns an index by name. Returns domain.ErrIndexUnavailable if absent.
	Get(name string) (driven.Index, error)
}
