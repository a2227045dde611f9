package driven

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// Index is one configured full-text index.
// The pipeline only writes and deletes; querying is limited to the
// term lookups the retraction sweeper needs.
type Index interface {
	// Descriptor returns the static index configuration.
	Descriptor() domain.IndexDescriptor

	// WriteItems adds or replaces documents, keyed by ValueSet.ID.
	WriteItems(ctx context.Context, items []domain.ValueSet) error

	// DeleteItems removes documents by id, together with every document
	// whose path passes through one of the ids.
	DeleteItems(ctx context.Context, ids []string) error

	// RetractItems removes exactly the given documents, leaving
	// descendants in place. Used for documents rejected by validation.
	RetractItems(ctx context.Context, ids []string) error

	// Search runs an exact term query on a single field.
	Search(ctx context.Context, req SearchRequest) (*SearchResults, error)

	// Count returns the number of documents in the index.
	Count(ctx context.Context) (int, error)

	// Clear removes every document.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// SearchRequest is an exact term query with paging.
type SearchRequest struct {
	// Field is the field to match.
	Field string

	// Term is the exact value to match.
	Term string

	// From is the offset of the first hit.
	From int

	// Size is the maximum number of hits returned.
	Size int
}

// SearchResults is one page of hits plus the total match count.
type SearchResults struct {
	// Total is the number of matching documents, independent of paging.
	Total int

	// Hits holds the current page.
	Hits []SearchHit
}

// SearchHit is a single matching document.
type SearchHit struct {
	// ID is the document id.
	ID string

	// Score is the engine relevance score.
	Score float64
}
