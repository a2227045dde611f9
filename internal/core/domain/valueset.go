package domain

import (
	"fmt"
	"strings"
)

// Field names are the observable contract with every index: indexes are
// queried by these literal names, so they must not change.
const (
	FieldID              = "id"
	FieldKey             = "key"
	FieldParentID        = "parentID"
	FieldLevel           = "level"
	FieldCreatorID       = "creatorID"
	FieldWriterID        = "writerID"
	FieldSortOrder       = "sortOrder"
	FieldCreateDate      = "createDate"
	FieldUpdateDate      = "updateDate"
	FieldNodeName        = "nodeName"
	FieldURLName         = "urlName"
	FieldPath            = "path"
	FieldNodeType        = "nodeType"
	FieldCreatorName     = "creatorName"
	FieldWriterName      = "writerName"
	FieldPublished       = "published"
	FieldVariesByCulture = "variesByCulture"
	FieldLoginName       = "loginName"
	FieldEmail           = "email"
)

// Publication tokens carried by the published and variesByCulture fields.
const (
	TokenYes = "y"
	TokenNo  = "n"
)

// BoolToken renders b as a publication token.
func BoolToken(b bool) string {
	if b {
		return TokenYes
	}
	return TokenNo
}

// CultureField returns the variant field name for a culture, e.g. nodeName_en-us.
// Culture codes are lower-cased so lookups are stable.
func CultureField(name, culture string) string {
	return name + "_" + strings.ToLower(culture)
}

// ValueSet is the unit of indexable data: a flat projection of one entity
// version submitted to an index.
type ValueSet struct {
	// ID is the stable entity identifier, unique within a category.
	ID string

	// Category routes the document to type-specific indexes.
	Category Category

	// ItemType is the fine-grained type discriminator (type alias).
	ItemType string

	// Fields holds the flat field values in insertion order.
	Fields *FieldSet
}

// NewValueSet creates a value set with an empty field set.
func NewValueSet(id string, category Category, itemType string) ValueSet {
	return ValueSet{
		ID:       id,
		Category: category,
		ItemType: itemType,
		Fields:   NewFieldSet(),
	}
}

// Clone returns a deep copy of the value set's field mapping.
func (v ValueSet) Clone() ValueSet {
	out := v
	if v.Fields != nil {
		out.Fields = v.Fields.Clone()
	} else {
		out.Fields = NewFieldSet()
	}
	return out
}

// String identifies the value set in logs.
func (v ValueSet) String() string {
	return fmt.Sprintf("%s:%s", v.Category, v.ID)
}

// FieldSet is an ordered mapping of field name to values.
// The zero value is not usable; use NewFieldSet.
type FieldSet struct {
	names  []string
	values map[string][]any
}

// NewFieldSet creates an empty field set.
func NewFieldSet() *FieldSet {
	return &FieldSet{values: make(map[string][]any)}
}

// Set stores values under name. An existing field keeps its position.
func (f *FieldSet) Set(name string, values ...any) {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = values
}

// Get returns the values stored under name.
func (f *FieldSet) Get(name string) ([]any, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Has reports whether the field exists.
func (f *FieldSet) Has(name string) bool {
	_, ok := f.values[name]
	return ok
}

// First returns the first value of a field rendered as a string.
// Missing, empty or nil values return false.
func (f *FieldSet) First(name string) (string, bool) {
	v, ok := f.values[name]
	if !ok || len(v) == 0 || v[0] == nil {
		return "", false
	}
	if s, ok := v[0].(string); ok {
		return s, true
	}
	return fmt.Sprint(v[0]), true
}

// Delete removes a field. It returns true if the field existed.
func (f *FieldSet) Delete(name string) bool {
	if _, ok := f.values[name]; !ok {
		return false
	}
	delete(f.values, name)
	for i, n := range f.names {
		if n == name {
			f.names = append(f.names[:i], f.names[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the field names in insertion order.
func (f *FieldSet) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len returns the number of fields.
func (f *FieldSet) Len() int {
	return len(f.names)
}

// Clone returns a deep copy.
func (f *FieldSet) Clone() *FieldSet {
	out := &FieldSet{
		names:  make([]string, len(f.names)),
		values: make(map[string][]any, len(f.values)),
	}
	copy(out.names, f.names)
	for k, v := range f.values {
		vv := make([]any, len(v))
		copy(vv, v)
		out.values[k] = vv
	}
	return out
}

// Map returns the fields as a plain map, flattening single values.
// Index adapters use it to hand documents to the engine.
func (f *FieldSet) Map() map[string]any {
	out := make(map[string]any, len(f.names))
	for _, n := range f.names {
		v := f.values[n]
		if len(v) == 1 {
			out[n] = v[0]
			continue
		}
		out[n] = v
	}
	return out
}

// NamesWithSuffixFold returns the field names ending with suffix, ignoring case.
func (f *FieldSet) NamesWithSuffixFold(suffix string) []string {
	var out []string
	for _, n := range f.names {
		if len(n) >= len(suffix) && strings.EqualFold(n[len(n)-len(suffix):], suffix) {
			out = append(out, n)
		}
	}
	return out
}

// NamesWithPrefixFold returns the field names starting with prefix, ignoring case.
func (f *FieldSet) NamesWithPrefixFold(prefix string) []string {
	var out []string
	for _, n := range f.names {
		if len(n) >= len(prefix) && strings.EqualFold(n[:len(prefix)], prefix) {
			out = append(out, n)
		}
	}
	return out
}
