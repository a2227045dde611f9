package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memindex "github.com/custodia-labs/sercha-indexer/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	for _, e := range []*domain.Entity{
		content(1, -1, true),
		content(2, 1, false),
		content(3, 2, true),
		content(4, -20, true),
		media(10, -1),
		media(11, -21),
		member(50),
	} {
		require.NoError(t, store.Entities().Save(context.Background(), e))
	}
	return store
}

func TestIndexRebuilder_Rebuild(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	defaults := domain.DefaultIndexDescriptors()
	internal := memindex.New(defaults[0])
	external := memindex.New(defaults[1])
	members := memindex.New(defaults[2])
	registry, err := NewIndexRegistry(internal, external, members)
	require.NoError(t, err)

	stale := domain.NewValueSet("999", domain.CategoryContent, "page")
	stale.Fields.Set(domain.FieldPath, "-1,999")
	require.NoError(t, internal.WriteItems(ctx, []domain.ValueSet{stale}))

	rebuilder := NewIndexRebuilder(registry, store, 2)
	require.NoError(t, rebuilder.Rebuild(ctx, false))

	assert.Equal(t, []string{"1", "10", "11", "2", "3", "4"}, internal.IDs())
	assert.Equal(t, []string{"1", "10"}, external.IDs())
	assert.Equal(t, []string{"50"}, members.IDs())
}

func TestIndexRebuilder_OnlyEmptySkipsPopulated(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	defaults := domain.DefaultIndexDescriptors()
	populated := &countingIndex{Index: memindex.New(defaults[0])}
	empty := &countingIndex{Index: memindex.New(defaults[2])}

	vs := domain.NewValueSet("1", domain.CategoryContent, "page")
	vs.Fields.Set(domain.FieldPath, "-1,1")
	require.NoError(t, populated.WriteItems(ctx, []domain.ValueSet{vs}))

	registry, err := NewIndexRegistry(populated, empty)
	require.NoError(t, err)

	require.NoError(t, NewIndexRebuilder(registry, store, 0).Rebuild(ctx, true))

	assert.Zero(t, populated.cleared)
	assert.Equal(t, 1, empty.cleared)
	n, err := empty.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIndexRebuilder_RebuildIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.save(t, content(1, -1, true), member(50))

	require.NoError(t, f.sync.rebuilder.RebuildIndex(ctx, "MembersIndex"))
	assert.Equal(t, []string{"50"}, f.members.IDs())
	assert.Empty(t, f.internal.IDs())

	err := f.sync.rebuilder.RebuildIndex(ctx, "Missing")
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestIndexRebuilder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newFixture(t)
	f.save(t, content(1, -1, true))

	err := f.sync.rebuilder.Rebuild(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.internal.IDs())
}
