package bleve

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

func testDescriptor() domain.IndexDescriptor {
	return domain.IndexDescriptor{
		Name:       "Test",
		Categories: domain.CategorySet{domain.CategoryContent, domain.CategoryMedia},
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewMemOnly(testDescriptor())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func doc(id, path, nodeType string) domain.ValueSet {
	vs := domain.NewValueSet(id, domain.CategoryContent, "page")
	vs.Fields.Set(domain.FieldPath, path)
	vs.Fields.Set(domain.FieldNodeType, nodeType)
	vs.Fields.Set(domain.FieldNodeName, "Home page "+id)
	vs.Fields.Set(domain.FieldUpdateDate, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	vs.Fields.Set(domain.FieldLevel, 1)
	return vs
}

func searchIDs(t *testing.T, idx *Index, field, term string) []string {
	t.Helper()
	res, err := idx.Search(context.Background(), driven.SearchRequest{Field: field, Term: term, Size: 100})
	require.NoError(t, err)
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestIndex_WriteAndCount(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.WriteItems(ctx, []domain.ValueSet{doc("1", "-1,1", "10"), doc("2", "-1,2", "10")}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, idx.WriteItems(ctx, []domain.ValueSet{doc("1", "-1,1", "11")}))
	n, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "writing an existing id replaces it")
	assert.Equal(t, []string{"2"}, searchIDs(t, idx, domain.FieldNodeType, "10"))
}

func TestIndex_SearchExactTerm(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)
	require.NoError(t, idx.WriteItems(ctx, []domain.ValueSet{
		doc("1", "-1,1", "10"),
		doc("2", "-1,2", "101"),
	}))

	assert.Equal(t, []string{"1"}, searchIDs(t, idx, domain.FieldNodeType, "10"))
	assert.Equal(t, []string{"2"}, searchIDs(t, idx, domain.FieldID, "2"))
	assert.Equal(t, []string{"1", "2"}, searchIDs(t, idx, fieldCategory, "content"))
}

func TestIndex_SearchPaging(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)
	var docs []domain.ValueSet
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("%03d", i)
		docs = append(docs, doc(id, "-1,"+id, "7"))
	}
	require.NoError(t, idx.WriteItems(ctx, docs))

	seen := make(map[string]bool)
	for page := 0; page < 3; page++ {
		res, err := idx.Search(ctx, driven.SearchRequest{Field: domain.FieldNodeType, Term: "7", From: page * 10, Size: 10})
		require.NoError(t, err)
		assert.Equal(t, 25, res.Total)
		for _, h := range res.Hits {
			seen[h.ID] = true
		}
	}
	assert.Len(t, seen, 25)
}

func TestIndex_DeleteItemsCascades(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)
	require.NoError(t, idx.WriteItems(ctx, []domain.ValueSet{
		doc("1", "-1,1", "10"),
		doc("2", "-1,1,2", "10"),
		doc("3", "-1,1,2,3", "10"),
		doc("4", "-1,4", "10"),
	}))

	require.NoError(t, idx.DeleteItems(ctx, []string{"2"}))
	assert.Equal(t, []string{"1", "4"}, searchIDs(t, idx, domain.FieldNodeType, "10"))
}

func TestIndex_RetractItemsExact(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)
	require.NoError(t, idx.WriteItems(ctx, []domain.ValueSet{
		doc("1", "-1,1", "10"),
		doc("2", "-1,1,2", "10"),
	}))

	require.NoError(t, idx.RetractItems(ctx, []string{"1"}))
	assert.Equal(t, []string{"2"}, searchIDs(t, idx, domain.FieldNodeType, "10"))
}

func TestIndex_Clear(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)
	require.NoError(t, idx.WriteItems(ctx, []domain.ValueSet{doc("1", "-1,1", "10"), doc("2", "-1,2", "10")}))

	require.NoError(t, idx.Clear(ctx))
	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_SearchRequiresField(t *testing.T) {
	_, err := newTestIndex(t).Search(context.Background(), driven.SearchRequest{Term: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpen_PersistsOnDisk(t *testing.T) {
	ctx := context.Background()
	desc := testDescriptor()
	desc.Path = filepath.Join(t.TempDir(), "indexes", "Test")

	idx, err := Open(desc)
	require.NoError(t, err)
	require.NoError(t, idx.WriteItems(ctx, []domain.ValueSet{doc("1", "-1,1", "10")}))
	require.NoError(t, idx.Close())

	reopened, err := Open(desc)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, desc, reopened.Descriptor())
}

func TestOpen_EmptyPathIsInMemory(t *testing.T) {
	idx, err := Open(testDescriptor())
	require.NoError(t, err)
	defer idx.Close()

	n, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
