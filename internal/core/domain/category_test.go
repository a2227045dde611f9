package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Content ")
	require.NoError(t, err)
	assert.Equal(t, CategoryContent, c)

	_, err = ParseCategory("document")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCategory_RecycleBinID(t *testing.T) {
	assert.Equal(t, "-20", CategoryContent.RecycleBinID())
	assert.Equal(t, "-21", CategoryMedia.RecycleBinID())
	assert.Empty(t, CategoryMember.RecycleBinID())
	assert.True(t, CategoryMedia.IsTree())
	assert.False(t, CategoryMember.IsTree())
}

func TestCategorySet(t *testing.T) {
	s := CategorySet{CategoryContent, CategoryMedia}
	assert.True(t, s.Contains(CategoryMedia))
	assert.False(t, s.Contains(CategoryMember))
	assert.False(t, s.IsMemberOnly())
	assert.True(t, CategorySet{CategoryMember}.IsMemberOnly())

	assert.ErrorIs(t, CategorySet{"bogus"}.Validate(), ErrUnknownCategory)
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, []string{"-1", "-20", "555"}, SplitPath("-1,-20,555"))
	assert.Equal(t, []string{"-1", "12"}, SplitPath("-1, 12,"))
	assert.Nil(t, SplitPath(""))

	assert.True(t, PathContains("-1,-20,555", "-20"))
	assert.False(t, PathContains("-1,-200,555", "-20"))
}

func TestEntity_Variants(t *testing.T) {
	e := Entity{
		ID:   1050,
		Path: "-1,1050",
		Variants: []Variant{
			{Culture: "en-US", Name: "Hello", Published: true},
			{Culture: "es-ES", Name: "Hola"},
		},
	}

	assert.Equal(t, "1050", e.IDString())
	assert.Equal(t, []string{"-1", "1050"}, e.PathIDs())
	v, ok := e.Variant("en-us")
	assert.True(t, ok)
	assert.Equal(t, "Hello", v.Name)
	assert.Equal(t, []string{"en-US"}, e.PublishedCultures())
}

func TestLanguageChange_RequiresRebuild(t *testing.T) {
	assert.True(t, LanguageChange{Kind: LanguageRemove}.RequiresRebuild())
	assert.True(t, LanguageChange{Kind: LanguageChangeCulture}.RequiresRebuild())
	assert.False(t, LanguageChange{Kind: LanguageAdd}.RequiresRebuild())
	assert.Equal(t, "refresh-branch", TreeRefreshBranch.String())
}

func TestEntity_Clone(t *testing.T) {
	e := &Entity{ID: 1, Variants: []Variant{{Culture: "en-US"}}, Properties: []Property{{Alias: "a", Value: "x"}}}
	c := e.Clone()
	c.Variants[0].Culture = "es-ES"
	c.Properties[0].Value = "y"

	assert.Equal(t, "en-US", e.Variants[0].Culture)
	assert.Equal(t, "x", e.Properties[0].Value)
	assert.Nil(t, (*Entity)(nil).Clone())
}
