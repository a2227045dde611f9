package domain

import (
	"fmt"
	"strings"
)

// Category is the coarse partition used to route documents to indexes.
type Category string

// Available categories.
const (
	// CategoryContent is a document in the content tree.
	CategoryContent Category = "content"

	// CategoryMedia is a document in the media tree.
	CategoryMedia Category = "media"

	// CategoryMember is a member account.
	CategoryMember Category = "member"
)

// IsValid returns true if the category is recognised.
func (c Category) IsValid() bool {
	switch c {
	case CategoryContent, CategoryMedia, CategoryMember:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// IsTree returns true for categories that live in a node tree with
// a recycle bin (content and media).
func (c Category) IsTree() bool {
	return c == CategoryContent || c == CategoryMedia
}

// RecycleBinID returns the reserved ancestor id of the category's recycle bin.
// Members have no recycle bin and return an empty string.
func (c Category) RecycleBinID() string {
	switch c {
	case CategoryContent:
		return RecycleBinContentID
	case CategoryMedia:
		return RecycleBinMediaID
	default:
		return ""
	}
}

// ParseCategory parses a category name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// AllCategories returns every category in routing order.
func AllCategories() []Category {
	return []Category{CategoryContent, CategoryMedia, CategoryMember}
}

// CategorySet is a small set of categories an index accepts.
type CategorySet []Category

// Contains reports whether c is in the set.
func (s CategorySet) Contains(c Category) bool {
	for _, x := range s {
		if x == c {
			return true
		}
	}
	return false
}

// IsMemberOnly reports whether the set only holds members.
func (s CategorySet) IsMemberOnly() bool {
	return len(s) > 0 && !s.Contains(CategoryContent) && !s.Contains(CategoryMedia)
}

// Validate checks that the set is not empty, only holds known categories,
// and does not mix tree categories with members.
func (s CategorySet) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalidInput)
	}
	for _, c := range s {
		if !c.IsValid() {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
		}
	}
	if s.Contains(CategoryMember) && (s.Contains(CategoryContent) || s.Contains(CategoryMedia)) {
		return fmt.Errorf("%w: member and content/media categories are exclusive", ErrInvalidInput)
	}
	return nil
}

// Reserved node ids.
const (
	// RootID is the id of the virtual root every path starts with.
	RootID = "-1"

	// RecycleBinContentID is the reserved ancestor id of trashed content.
	RecycleBinContentID = "-20"

	// RecycleBinMediaID is the reserved ancestor id of trashed media.
	RecycleBinMediaID = "-21"
)
