package services

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
)

// Ensure IndexRegistry implements the interface.
var _ driving.IndexCatalog = (*IndexRegistry)(nil)

// IndexRegistry holds the configured indexes. It is built once at startup
// and read-only afterwards.
type IndexRegistry struct {
	indexes []driven.Index
	byName  map[string]driven.Index
}

// NewIndexRegistry creates a registry. Index names must be unique and
// descriptors valid.
func NewIndexRegistry(indexes ...driven.Index) (*IndexRegistry, error) {
	r := &IndexRegistry{byName: make(map[string]driven.Index, len(indexes))}
	for _, idx := range indexes {
		desc := idx.Descriptor()
		if err := desc.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[desc.Name]; dup {
			return nil, &domain.DuplicateIndexError{Name: desc.Name}
		}
		r.byName[desc.Name] = idx
		r.indexes = append(r.indexes, idx)
	}
	return r, nil
}

// All returns every index in registration order.
func (r *IndexRegistry) All() []driven.Index {
	out := make([]driven.Index, len(r.indexes))
	copy(out, r.indexes)
	return out
}

// Len returns the number of indexes.
func (r *IndexRegistry) Len() int {
	return len(r.indexes)
}

// Descriptors returns every index descriptor in registration order.
func (r *IndexRegistry) Descriptors() []domain.IndexDescriptor {
	out := make([]domain.IndexDescriptor, 0, len(r.indexes))
	for _, idx := range r.indexes {
		out = append(out, idx.Descriptor())
	}
	return out
}

// Get returns an index by name.
func (r *IndexRegistry) Get(name string) (driven.Index, error) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexUnavailable, name)
	}
	return idx, nil
}

// Accepting returns the indexes that take documents of category c.
func (r *IndexRegistry) Accepting(c domain.Category) []driven.Index {
	return r.filter(func(d domain.IndexDescriptor) bool { return d.Accepts(c) })
}

// DefaultHandled returns the indexes that participate in automatic change
// handling and take documents of category c.
func (r *IndexRegistry) DefaultHandled(c domain.Category) []driven.Index {
	return r.filter(func(d domain.IndexDescriptor) bool {
		return d.EnableDefaultEventHandler && d.Accepts(c)
	})
}

// AnyDefaultHandled reports whether any index participates in automatic
// change handling.
func (r *IndexRegistry) AnyDefaultHandled() bool {
	for _, idx := range r.indexes {
		if idx.Descriptor().EnableDefaultEventHandler {
			return true
		}
	}
	return false
}

// Close closes every index, joining failures.
func (r *IndexRegistry) Close() error {
	var errs []error
	for _, idx := range r.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", idx.Descriptor().Name, err))
		}
	}
	return errors.Join(errs...)
}

func (r *IndexRegistry) filter(keep func(domain.IndexDescriptor) bool) []driven.Index {
	var out []driven.Index
	for _, idx := range r.indexes {
		if keep(idx.Descriptor()) {
			out = append(out, idx)
		}
	}
	return out
}
