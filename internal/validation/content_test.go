package validation

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

type stubProtection struct {
	protected map[string]bool
	err       error
	calls     int
}

func (s *stubProtection) IsProtected(_ context.Context, path string) (*domain.ProtectionEntry, bool, error) {
	s.calls++
	if s.err != nil {
		return nil, false, s.err
	}
	for _, id := range domain.SplitPath(path) {
		if s.protected[id] {
			return &domain.ProtectionEntry{ID: 1}, true, nil
		}
	}
	return nil, false, nil
}

func (s *stubProtection) Protect(context.Context, domain.ProtectionEntry) error { return nil }
func (s *stubProtection) Unprotect(context.Context, int64) error                { return nil }

func valueSet(category domain.Category, itemType string, fields map[string]string) domain.ValueSet {
	vs := domain.NewValueSet("555", category, itemType)
	for _, k := range sortedKeys(fields) {
		vs.Fields.Set(k, fields[k])
	}
	return vs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contentDesc() domain.IndexDescriptor {
	return domain.IndexDescriptor{
		Name:                      "test",
		Categories:                domain.CategorySet{domain.CategoryContent, domain.CategoryMedia},
		EnableDefaultEventHandler: true,
	}
}

func validate(t *testing.T, desc domain.IndexDescriptor, vs domain.ValueSet) domain.ValidationResult {
	t.Helper()
	res, err := NewContentValidator(desc, &stubProtection{}).Validate(context.Background(), vs)
	require.NoError(t, err)
	return res
}

func TestContentValidator_MissingPathAlwaysFails(t *testing.T) {
	configs := map[string]domain.IndexDescriptor{
		"default":   contentDesc(),
		"published": func() domain.IndexDescriptor { d := contentDesc(); d.PublishedValuesOnly = true; return d }(),
		"trashed":   func() domain.IndexDescriptor { d := contentDesc(); d.ExcludeTrashed = true; return d }(),
		"protected": func() domain.IndexDescriptor { d := contentDesc(); d.ExcludeProtected = true; return d }(),
		"fields":    func() domain.IndexDescriptor { d := contentDesc(); d.ExcludeFields = []string{"hello"}; return d }(),
	}

	for name, desc := range configs {
		t.Run(name, func(t *testing.T) {
			for _, c := range []domain.Category{domain.CategoryContent, domain.CategoryMedia} {
				vs := valueSet(c, "page", map[string]string{"hello": "world", "published": "y"})
				assert.Equal(t, domain.ValidationFailed, validate(t, desc, vs).Status)

				vs.Fields.Set(domain.FieldPath, "")
				assert.Equal(t, domain.ValidationFailed, validate(t, desc, vs).Status)
			}
		})
	}
}

func TestContentValidator_RecycleBin(t *testing.T) {
	desc := contentDesc()
	desc.ExcludeTrashed = true

	content := valueSet(domain.CategoryContent, "page", map[string]string{"path": "-1,-20,555"})
	assert.Equal(t, domain.ValidationFailed, validate(t, desc, content).Status)

	media := valueSet(domain.CategoryMedia, "image", map[string]string{"path": "-1,-21,555"})
	res := validate(t, desc, media)
	assert.Equal(t, domain.ValidationFiltered, res.Status)
	require.NotNil(t, res.ValueSet)
	assert.True(t, res.ValueSet.Fields.Has("path"))

	// Content bin id under media is not the media bin.
	media = valueSet(domain.CategoryMedia, "image", map[string]string{"path": "-1,-20,555"})
	assert.Equal(t, domain.ValidationValid, validate(t, desc, media).Status)

	// Without the option trashed documents are admitted.
	desc.ExcludeTrashed = false
	assert.Equal(t, domain.ValidationValid, validate(t, desc, content).Status)
}

func TestContentValidator_ParentRestriction(t *testing.T) {
	desc := contentDesc()
	desc.ParentID = "555"

	inside := valueSet(domain.CategoryContent, "page", map[string]string{"path": "-1,555,777"})
	outside := valueSet(domain.CategoryContent, "page", map[string]string{"path": "-1,444,777"})

	assert.Equal(t, domain.ValidationValid, validate(t, desc, inside).Status)
	assert.Equal(t, domain.ValidationFailed, validate(t, desc, outside).Status)
}

func TestContentValidator_ItemTypes(t *testing.T) {
	desc := contentDesc()
	desc.IncludeItemTypes = []string{"blog"}

	vs := valueSet(domain.CategoryContent, "page", map[string]string{"path": "-1,555"})
	assert.Equal(t, domain.ValidationFailed, validate(t, desc, vs).Status)

	desc.IncludeItemTypes = append(desc.IncludeItemTypes, "page")
	assert.Equal(t, domain.ValidationValid, validate(t, desc, vs).Status)

	noType := valueSet(domain.CategoryContent, "", map[string]string{"path": "-1,555"})
	assert.Equal(t, domain.ValidationFailed, validate(t, desc, noType).Status)

	desc.IncludeItemTypes = nil
	assert.Equal(t, domain.ValidationValid, validate(t, desc, noType).Status)

	desc.ExcludeItemTypes = []string{"page"}
	assert.Equal(t, domain.ValidationFailed, validate(t, desc, vs).Status)
}

func TestContentValidator_PublishedInvariant(t *testing.T) {
	desc := contentDesc()
	desc.PublishedValuesOnly = true

	missing := valueSet(domain.CategoryContent, "page", map[string]string{"path": "-1,555"})
	assert.Equal(t, domain.ValidationFailed, validate(t, desc, missing).Status)

	unpublished := valueSet(domain.CategoryContent, "page", map[string]string{"path": "-1,555", "published": "n"})
	assert.Equal(t, domain.ValidationFailed, validate(t, desc, unpublished).Status)

	published := valueSet(domain.CategoryContent, "page", map[string]string{"path": "-1,555", "published": "y"})
	assert.Equal(t, domain.ValidationValid, validate(t, desc, published).Status)

	// Media is not subject to publication.
	media := valueSet(domain.CategoryMedia, "image", map[string]string{"path": "-1,555"})
	assert.Equal(t, domain.ValidationValid, validate(t, desc, media).Status)
}

func TestContentValidator_PublishedVariants(t *testing.T) {
	desc := contentDesc()
	desc.PublishedValuesOnly = true

	vs := valueSet(domain.CategoryContent, "page", map[string]string{
		"path":            "-1,555",
		"published":       "y",
		"variesByCulture": "y",
		"published_en-us": "y",
		"published_es-es": "n",
		"nodeName_en-us":  "Hello",
		"nodeName_es-es":  "Hola",
		"title_ES-ES":     "Titulo",
		"title_en-us":     "Title",
		"hello":           "world",
	})

	res := validate(t, desc, vs)
	require.Equal(t, domain.ValidationFiltered, res.Status)
	out := res.ValueSet.Fields

	assert.Empty(t, out.NamesWithSuffixFold("_es-es"))
	assert.True(t, out.Has("published"))
	assert.True(t, out.Has("published_en-us"))
	assert.True(t, out.Has("nodeName_en-us"))
	assert.True(t, out.Has("title_en-us"))
	assert.True(t, out.Has("hello"))

	// The input is left untouched.
	assert.True(t, vs.Fields.Has("nodeName_es-es"))

	// Top-level published gates the variant document.
	vs.Fields.Set("published", "n")
	assert.Equal(t, domain.ValidationFailed, validate(t, desc, vs).Status)
}

func TestContentValidator_PublishedVariantsAllPublished(t *testing.T) {
	desc := contentDesc()
	desc.PublishedValuesOnly = true

	vs := valueSet(domain.CategoryContent, "page", map[string]string{
		"path":            "-1,555",
		"published":       "y",
		"variesByCulture": "y",
		"published_en-us": "y",
		"nodeName_en-us":  "Hello",
	})
	assert.Equal(t, domain.ValidationValid, validate(t, desc, vs).Status)
}

func TestContentValidator_Protection(t *testing.T) {
	desc := contentDesc()
	desc.ExcludeProtected = true
	protection := &stubProtection{protected: map[string]bool{"555": true}}
	v := NewContentValidator(desc, protection)
	ctx := context.Background()

	res, err := v.Validate(ctx, valueSet(domain.CategoryContent, "page", map[string]string{"path": "-1,555,777"}))
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationFiltered, res.Status)
	assert.Nil(t, res.ValueSet)
	assert.False(t, res.Writable())

	res, err = v.Validate(ctx, valueSet(domain.CategoryContent, "page", map[string]string{"path": "-1,444"}))
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationValid, res.Status)

	// Media is never checked.
	calls := protection.calls
	res, err = v.Validate(ctx, valueSet(domain.CategoryMedia, "image", map[string]string{"path": "-1,555"}))
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationValid, res.Status)
	assert.Equal(t, calls, protection.calls)
}

func TestContentValidator_ProtectionLookupError(t *testing.T) {
	desc := contentDesc()
	desc.ExcludeProtected = true
	lookupErr := errors.New("db down")
	v := NewContentValidator(desc, &stubProtection{err: lookupErr})

	_, err := v.Validate(context.Background(), valueSet(domain.CategoryContent, "page", map[string]string{"path": "-1,555"}))
	assert.ErrorIs(t, err, lookupErr)
}

func TestContentValidator_IncludeFields(t *testing.T) {
	desc := contentDesc()
	desc.IncludeFields = []string{"hello", "world"}

	// Path is checked before the field rule strips it.
	vs := valueSet(domain.CategoryContent, "page", map[string]string{"hello": "a", "path": "-1,555", "world": "b"})
	res := validate(t, desc, vs)

	assert.Equal(t, domain.ValidationFiltered, res.Status)
	assert.Equal(t, []string{"hello", "world"}, res.ValueSet.Fields.Names())
}

func TestContentValidator_ExcludeFields(t *testing.T) {
	desc := contentDesc()
	desc.ExcludeFields = []string{"hello", "world"}

	vs := valueSet(domain.CategoryContent, "page", map[string]string{"hello": "a", "path": "-1,555", "world": "b"})
	res := validate(t, desc, vs)

	assert.Equal(t, domain.ValidationFiltered, res.Status)
	assert.Equal(t, []string{"path"}, res.ValueSet.Fields.Names())
}

func TestContentValidator_IncludeThenExclude(t *testing.T) {
	desc := contentDesc()
	desc.IncludeFields = []string{"hello", "world", "path"}
	desc.ExcludeFields = []string{"world"}

	vs := valueSet(domain.CategoryContent, "page", map[string]string{"hello": "a", "path": "-1,555", "world": "b", "extra": "c"})
	res := validate(t, desc, vs)

	assert.Equal(t, domain.ValidationFiltered, res.Status)
	assert.ElementsMatch(t, []string{"hello", "path"}, res.ValueSet.Fields.Names())
}

func TestContentValidator_NoRemovalStaysValid(t *testing.T) {
	desc := contentDesc()
	desc.IncludeFields = []string{"hello", "path"}

	vs := valueSet(domain.CategoryContent, "page", map[string]string{"hello": "a", "path": "-1,555"})
	assert.Equal(t, domain.ValidationValid, validate(t, desc, vs).Status)
}

func TestMemberValidator(t *testing.T) {
	desc := domain.IndexDescriptor{
		Name:             "members",
		Categories:       domain.CategorySet{domain.CategoryMember},
		IncludeItemTypes: []string{"member"},
		ExcludeFields:    []string{"email"},
	}
	v := For(desc, nil)
	_, isMember := v.(*MemberValidator)
	require.True(t, isMember)

	vs := valueSet(domain.CategoryMember, "member", map[string]string{"email": "a@b.c", "loginName": "a", "path": "-1,555"})
	res, err := v.Validate(context.Background(), vs)
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationFiltered, res.Status)
	assert.Equal(t, []string{"loginName", "path"}, res.ValueSet.Fields.Names())

	// Members without a path fail like any other category.
	noPath := valueSet(domain.CategoryMember, "member", map[string]string{"email": "a@b.c", "loginName": "a"})
	res, err = For(domain.IndexDescriptor{Name: "all", Categories: domain.CategorySet{domain.CategoryMember}}, nil).
		Validate(context.Background(), noPath)
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationFailed, res.Status)
	res, err = v.Validate(context.Background(), noPath)
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationFailed, res.Status)

	vs.ItemType = "other"
	res, err = v.Validate(context.Background(), vs)
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationFailed, res.Status)
}
