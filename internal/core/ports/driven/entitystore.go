package driven

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// EntityStore reads and writes content, media and members.
// Paged queries return the page plus the total number of matches.
type EntityStore interface {
	// Get returns an entity by id. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, category domain.Category, id int64) (*domain.Entity, error)

	// Save inserts or updates an entity, including variants and properties.
	// Path and Level are derived from the parent for tree categories.
	Save(ctx context.Context, entity *domain.Entity) error

	// Delete removes an entity and, for tree categories, its descendants.
	Delete(ctx context.Context, category domain.Category, id int64) error

	// PagedDescendants returns the descendants of id ordered by path.
	PagedDescendants(ctx context.Context, category domain.Category, id int64, page, size int) ([]*domain.Entity, int, error)

	// PagedOfTypes returns entities of the given type ids ordered by path.
	PagedOfTypes(ctx context.Context, category domain.Category, typeIDs []int64, page, size int) ([]*domain.Entity, int, error)

	// PagedAll returns every entity of a category ordered by path.
	PagedAll(ctx context.Context, category domain.Category, page, size int) ([]*domain.Entity, int, error)

	// IsPathPublished reports whether every ancestor of entity is published
	// and not trashed. The entity's own state is not considered.
	IsPathPublished(ctx context.Context, entity *domain.Entity) (bool, error)
}

// ProtectionService looks up public access rules.
type ProtectionService interface {
	// IsProtected returns the rule protecting the deepest protected node
	// on path. "Not protected" is reported with false, not an error.
	IsProtected(ctx context.Context, path string) (*domain.ProtectionEntry, bool, error)

	// Protect adds or replaces the rule for a node.
	Protect(ctx context.Context, entry domain.ProtectionEntry) error

	// Unprotect removes the rule for a node.
	Unprotect(ctx context.Context, nodeID int64) error
}

// UserLookup resolves back office users.
type UserLookup interface {
	// GetUser returns a user. Returns domain.ErrNotFound if absent.
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}
