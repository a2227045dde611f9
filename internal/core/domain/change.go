package domain

// TreeChangeKind says what happened to a node in the content or media tree.
type TreeChangeKind int

// Tree change kinds.
const (
	// TreeRefreshNode refreshes a single node.
	TreeRefreshNode TreeChangeKind = iota

	// TreeRefreshBranch refreshes a node and all its descendants.
	TreeRefreshBranch

	// TreeRemove removes a node (and its descendants) entirely.
	TreeRemove

	// TreeRefreshAll refreshes the whole tree. Not handled incrementally.
	TreeRefreshAll
)

// String returns the string representation.
func (k TreeChangeKind) String() string {
	switch k {
	case TreeRefreshNode:
		return "refresh-node"
	case TreeRefreshBranch:
		return "refresh-branch"
	case TreeRemove:
		return "remove"
	case TreeRefreshAll:
		return "refresh-all"
	default:
		return unknownDescription
	}
}

// TreeChange is a change notification for a content or media node.
type TreeChange struct {
	ID   int64
	Kind TreeChangeKind
}

// MemberChange is a change notification for a member.
type MemberChange struct {
	ID      int64
	Removed bool
}

// TypeChangeKind says what happened to a type definition.
type TypeChangeKind int

// Type change kinds.
const (
	// TypeRefreshMain means the type structure changed; entities need reindexing.
	TypeRefreshMain TypeChangeKind = iota

	// TypeRefreshOther means a non-structural change; entities still reindex.
	TypeRefreshOther

	// TypeRemove means the type was deleted together with its entities.
	TypeRemove
)

// TypeChange is a change notification for a content, media or member type.
type TypeChange struct {
	Category Category
	ID       int64
	Kind     TypeChangeKind
}

// LanguageChangeKind says what happened to a language.
type LanguageChangeKind int

// Language change kinds.
const (
	LanguageAdd LanguageChangeKind = iota
	LanguageUpdate
	LanguageChangeCulture
	LanguageRemove
)

// LanguageChange is a change notification for a configured language.
type LanguageChange struct {
	ISOCode string
	Kind    LanguageChangeKind
}

// RequiresRebuild reports whether the change alters culture field names,
// which forces every index to be rebuilt.
func (c LanguageChange) RequiresRebuild() bool {
	return c.Kind == LanguageChangeCulture || c.Kind == LanguageRemove
}
