package domain

import (
	"fmt"
	"strings"
)

// IndexDescriptor is the static configuration of one index.
// It is read-only from the pipeline's point of view.
type IndexDescriptor struct {
	// Name uniquely identifies the index.
	Name string

	// Path is the on-disk location of the index. Empty means in-memory.
	Path string

	// Categories lists the document categories the index accepts.
	// Content/media and member indexes are mutually exclusive.
	Categories CategorySet

	// PublishedValuesOnly restricts the index to published content.
	PublishedValuesOnly bool

	// EnableDefaultEventHandler routes automatic change notifications to
	// the index. When false the pipeline never touches it.
	EnableDefaultEventHandler bool

	// ExcludeTrashed keeps recycle bin documents out of the index.
	ExcludeTrashed bool

	// ExcludeProtected keeps access-protected content out of the index.
	ExcludeProtected bool

	// ParentID restricts the index to one subtree. Empty means no restriction.
	ParentID string

	// IncludeItemTypes, when set, is the only item types admitted.
	IncludeItemTypes []string

	// ExcludeItemTypes lists item types never admitted.
	ExcludeItemTypes []string

	// IncludeFields, when set, is the only fields kept.
	IncludeFields []string

	// ExcludeFields lists fields always stripped.
	ExcludeFields []string
}

// Accepts reports whether the index takes documents of category c.
func (d IndexDescriptor) Accepts(c Category) bool {
	return d.Categories.Contains(c)
}

// Validate checks the descriptor for configuration errors.
func (d IndexDescriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: index name is required", ErrInvalidInput)
	}
	if err := d.Categories.Validate(); err != nil {
		return fmt.Errorf("index %s: %w", d.Name, err)
	}
	return nil
}

// DefaultIndexDescriptors returns the indexes a fresh installation ships with.
func DefaultIndexDescriptors() []IndexDescriptor {
	return []IndexDescriptor{
		{
			Name:                      "InternalIndex",
			Categories:                CategorySet{CategoryContent, CategoryMedia},
			EnableDefaultEventHandler: true,
		},
		{
			Name:                      "ExternalIndex",
			Categories:                CategorySet{CategoryContent, CategoryMedia},
			PublishedValuesOnly:       true,
			EnableDefaultEventHandler: true,
			ExcludeTrashed:            true,
			ExcludeProtected:          true,
		},
		{
			Name:                      "MembersIndex",
			Categories:                CategorySet{CategoryMember},
			EnableDefaultEventHandler: true,
		},
	}
}
