// Package memory provides an in-memory index, used in tests and for
// indexes configured without a path when bleve is not wanted.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.Index = (*Index)(nil)

// Index stores documents in a map keyed by id.
type Index struct {
	desc domain.IndexDescriptor

	mu   sync.RWMutex
	docs map[string]domain.ValueSet
}

// New creates an empty index.
func New(desc domain.IndexDescriptor) *Index {
	return &Index{desc: desc, docs: make(map[string]domain.ValueSet)}
}

// Descriptor returns the index configuration.
func (i *Index) Descriptor() domain.IndexDescriptor {
	return i.desc
}

// WriteItems adds or replaces documents.
func (i *Index) WriteItems(ctx context.Context, items []domain.ValueSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, vs := range items {
		i.docs[vs.ID] = vs.Clone()
	}
	return nil
}

// DeleteItems removes documents and their descendants.
func (i *Index) DeleteItems(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, id := range ids {
		delete(i.docs, id)
		for docID, vs := range i.docs {
			if path, ok := vs.Fields.First(domain.FieldPath); ok && domain.PathContains(path, id) {
				delete(i.docs, docID)
			}
		}
	}
	return nil
}

// RetractItems removes exactly the given documents.
func (i *Index) RetractItems(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, id := range ids {
		delete(i.docs, id)
	}
	return nil
}

// Search matches documents holding term in field. Hits are ordered by id.
func (i *Index) Search(ctx context.Context, req driven.SearchRequest) (*driven.SearchResults, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Field == "" {
		return nil, fmt.Errorf("%w: search field is required", domain.ErrInvalidInput)
	}

	i.mu.RLock()
	var ids []string
	for id, vs := range i.docs {
		if matches(vs, req.Field, req.Term) {
			ids = append(ids, id)
		}
	}
	i.mu.RUnlock()
	sort.Strings(ids)

	res := &driven.SearchResults{Total: len(ids)}
	start := max(req.From, 0)
	if start >= len(ids) || req.Size < 1 {
		return res, nil
	}
	end := min(start+req.Size, len(ids))
	for _, id := range ids[start:end] {
		res.Hits = append(res.Hits, driven.SearchHit{ID: id, Score: 1})
	}
	return res, nil
}

func matches(vs domain.ValueSet, field, term string) bool {
	if field == domain.FieldID {
		return vs.ID == term
	}
	values, ok := vs.Fields.Get(field)
	if !ok {
		return false
	}
	for _, v := range values {
		if fmt.Sprint(v) == term {
			return true
		}
	}
	return false
}

// Count returns the number of documents.
func (i *Index) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.docs), nil
}

// Clear removes every document.
func (i *Index) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.docs = make(map[string]domain.ValueSet)
	return nil
}

// Close is a no-op.
func (i *Index) Close() error {
	return nil
}

// Get returns a stored document.
func (i *Index) Get(id string) (domain.ValueSet, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	vs, ok := i.docs[id]
	if !ok {
		return domain.ValueSet{}, false
	}
	return vs.Clone(), true
}

// IDs returns the stored document ids in order.
func (i *Index) IDs() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ids := make([]string, 0, len(i.docs))
	for id := range i.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
