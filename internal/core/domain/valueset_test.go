package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldSet_PreservesInsertionOrder(t *testing.T) {
	f := NewFieldSet()
	f.Set("hello", "a")
	f.Set("path", "-1,1")
	f.Set("world", "b")
	f.Set("hello", "c")

	assert.Equal(t, []string{"hello", "path", "world"}, f.Names())
	v, ok := f.Get("hello")
	require.True(t, ok)
	assert.Equal(t, []any{"c"}, v)
}

func TestFieldSet_Delete(t *testing.T) {
	f := NewFieldSet()
	f.Set("a", 1)
	f.Set("b", 2)
	f.Set("c", 3)

	assert.True(t, f.Delete("b"))
	assert.False(t, f.Delete("b"))
	assert.Equal(t, []string{"a", "c"}, f.Names())
	assert.Equal(t, 2, f.Len())
	assert.False(t, f.Has("b"))
}

func TestFieldSet_First(t *testing.T) {
	f := NewFieldSet()
	f.Set("s", "value")
	f.Set("n", 42)
	f.Set("empty")
	f.Set("nil", nil)

	s, ok := f.First("s")
	assert.True(t, ok)
	assert.Equal(t, "value", s)

	s, ok = f.First("n")
	assert.True(t, ok)
	assert.Equal(t, "42", s)

	_, ok = f.First("empty")
	assert.False(t, ok)
	_, ok = f.First("nil")
	assert.False(t, ok)
	_, ok = f.First("missing")
	assert.False(t, ok)
}

func TestFieldSet_CloneIsDeep(t *testing.T) {
	f := NewFieldSet()
	f.Set("a", "x", "y")

	c := f.Clone()
	c.Set("a", "z")
	c.Set("b", "new")

	v, _ := f.Get("a")
	assert.Equal(t, []any{"x", "y"}, v)
	assert.False(t, f.Has("b"))
}

func TestFieldSet_SuffixAndPrefixFold(t *testing.T) {
	f := NewFieldSet()
	f.Set("nodeName_en-us", "Hello")
	f.Set("title_EN-US", "Title")
	f.Set("nodeName_es-es", "Hola")
	f.Set("published_en-us", TokenYes)

	assert.Equal(t, []string{"nodeName_en-us", "title_EN-US", "published_en-us"}, f.NamesWithSuffixFold("_en-US"))
	assert.Equal(t, []string{"published_en-us"}, f.NamesWithPrefixFold("PUBLISHED_"))
}

func TestFieldSet_Map(t *testing.T) {
	f := NewFieldSet()
	f.Set("single", "a")
	f.Set("multi", "a", "b")

	m := f.Map()
	assert.Equal(t, "a", m["single"])
	assert.Equal(t, []any{"a", "b"}, m["multi"])
}

func TestValueSet_Clone(t *testing.T) {
	vs := NewValueSet("1", CategoryContent, "page")
	vs.Fields.Set("a", "b")

	c := vs.Clone()
	c.Fields.Delete("a")

	assert.True(t, vs.Fields.Has("a"))
	assert.Equal(t, "content:1", vs.String())
}

func TestCultureFieldAndBoolToken(t *testing.T) {
	assert.Equal(t, "nodeName_en-us", CultureField("nodeName", "en-US"))
	assert.Equal(t, "y", BoolToken(true))
	assert.Equal(t, "n", BoolToken(false))
}

func TestValidationResult(t *testing.T) {
	vs := NewValueSet("1", CategoryMedia, "image")

	assert.True(t, Valid(vs).Writable())
	assert.True(t, Filtered(vs).Writable())
	assert.False(t, Failed(vs).Writable())
	assert.False(t, Excluded().Writable())
	assert.Equal(t, ValidationFiltered, Excluded().Status)
	assert.Equal(t, "filtered", ValidationFiltered.String())
}
