package domain

import (
	"strconv"
	"strings"
	"time"
)

// Entity is a content item, media item or member as read from the store.
// Content and media live in a node tree; members have no parent.
type Entity struct {
	// ID is the store identifier.
	ID int64

	// Key is the globally unique key of the entity.
	Key string

	// Category says which tree the entity belongs to.
	Category Category

	// ParentID is the parent node id (-1 for top level nodes).
	ParentID int64

	// Path is the comma-joined ancestor id chain, starting at -1 and
	// ending with the entity's own id.
	Path string

	// Level is the depth in the tree (1 for top level nodes).
	Level int

	// SortOrder orders siblings.
	SortOrder int

	// Name is the invariant name.
	Name string

	// TypeID and TypeAlias identify the entity's type definition.
	TypeID    int64
	TypeAlias string

	// CreatorID and WriterID reference users.
	CreatorID int64
	WriterID  int64

	// Trashed is true when the entity sits in the recycle bin.
	Trashed bool

	// Published is true when a published version exists (content only).
	Published bool

	// VariesByCulture is true when names and some properties vary per culture.
	VariesByCulture bool

	// Variants holds the per-culture names and publication state.
	Variants []Variant

	// Properties holds property values, invariant and per-culture.
	Properties []Property

	// LoginName and Email are set for members.
	LoginName string
	Email     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Variant is a culture-specific version of an entity.
type Variant struct {
	// Culture is the culture code, e.g. en-US.
	Culture string

	// Name is the culture-specific name.
	Name string

	// Published reports whether this culture is published.
	Published bool

	// PublishedName is the name of the published version, if any.
	PublishedName string
}

// Property is one property value of an entity.
type Property struct {
	// Alias is the property type alias.
	Alias string

	// Culture is empty for invariant values.
	Culture string

	// Value is the current (draft) value.
	Value any

	// PublishedValue is the value of the published version.
	PublishedValue any
}

// IDString renders the id the way indexes store it.
func (e *Entity) IDString() string {
	return strconv.FormatInt(e.ID, 10)
}

// PathIDs returns the ancestor chain as individual ids.
func (e *Entity) PathIDs() []string {
	return SplitPath(e.Path)
}

// Clone returns a deep copy, so callers can keep mutating the original.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	out := *e
	out.Variants = append([]Variant(nil), e.Variants...)
	out.Properties = append([]Property(nil), e.Properties...)
	return &out
}

// Variant returns the variant for culture, ignoring case.
func (e *Entity) Variant(culture string) (Variant, bool) {
	for _, v := range e.Variants {
		if strings.EqualFold(v.Culture, culture) {
			return v, true
		}
	}
	return Variant{}, false
}

// PublishedCultures returns the cultures that have a published version.
func (e *Entity) PublishedCultures() []string {
	var out []string
	for _, v := range e.Variants {
		if v.Published {
			out = append(out, v.Culture)
		}
	}
	return out
}

// SplitPath splits a comma-joined path into its ids.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ",")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PathContains reports whether id is one of the ids of path.
func PathContains(path, id string) bool {
	for _, p := range SplitPath(path) {
		if p == id {
			return true
		}
	}
	return false
}

// ProtectionEntry describes a public access rule protecting a subtree.
type ProtectionEntry struct {
	// ID is the rule identifier.
	ID int64

	// NodeID is the protected node; all its descendants are protected too.
	NodeID int64

	// LoginNodeID is the node that renders the login page.
	LoginNodeID int64

	// NoAccessNodeID is the node that renders the no-access page.
	NoAccessNodeID int64
}

// User is a back office user referenced by creator/writer ids.
type User struct {
	ID   int64
	Name string
}
