package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testNode(id, parent int64, published bool) *domain.Entity {
	return &domain.Entity{
		ID:        id,
		Key:       "k",
		Category:  domain.CategoryContent,
		ParentID:  parent,
		Name:      "Node",
		TypeID:    10,
		TypeAlias: "page",
		Published: published,
	}
}

func saveAll(t *testing.T, store *Store, entities ...*domain.Entity) {
	t.Helper()
	for _, e := range entities {
		require.NoError(t, store.Entities().Save(context.Background(), e))
	}
}

func TestNewStore_RerunsMigrationsSafely(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()
	assert.Contains(t, store.Path(), "metadata.db")
}

func TestEntityStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	e := testNode(1, -1, true)
	e.VariesByCulture = true
	e.Variants = []domain.Variant{
		{Culture: "da-DK", Name: "Hjem", Published: false},
		{Culture: "en-US", Name: "Home", Published: true, PublishedName: "Home"},
	}
	e.Properties = []domain.Property{
		{Alias: "title", Value: "draft", PublishedValue: "live"},
		{Alias: "body", Culture: "en-US", Value: "text"},
	}
	saveAll(t, store, e)

	got, err := store.Entities().Get(ctx, domain.CategoryContent, 1)
	require.NoError(t, err)
	assert.Equal(t, "-1,1", got.Path)
	assert.Equal(t, 1, got.Level)
	assert.True(t, got.Published)
	assert.Equal(t, e.Variants, got.Variants)
	require.Len(t, got.Properties, 2)
	assert.Equal(t, "draft", got.Properties[0].Value)
	assert.Equal(t, "live", got.Properties[0].PublishedValue)
	assert.Nil(t, got.Properties[1].PublishedValue)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = store.Entities().Get(ctx, domain.CategoryMedia, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntityStore_SaveRejectsCategoryChange(t *testing.T) {
	store := setupTestStore(t)
	saveAll(t, store, testNode(1, -1, true))

	err := store.Entities().Save(context.Background(), &domain.Entity{ID: 1, Category: domain.CategoryMember})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEntityStore_MoveRewritesDescendants(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	saveAll(t, store, testNode(1, -1, true), testNode(2, 1, true), testNode(3, 2, true))

	saveAll(t, store, testNode(2, -20, true))

	child, err := store.Entities().Get(ctx, domain.CategoryContent, 3)
	require.NoError(t, err)
	assert.Equal(t, "-1,-20,2,3", child.Path)
	assert.Equal(t, 2, child.Level)
	assert.True(t, child.Trashed)
}

func TestEntityStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	saveAll(t, store, testNode(1, -1, true), testNode(2, 1, true), testNode(3, -1, true))

	require.NoError(t, store.Entities().Delete(ctx, domain.CategoryContent, 1))

	_, err := store.Entities().Get(ctx, domain.CategoryContent, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Entities().Get(ctx, domain.CategoryContent, 3)
	assert.NoError(t, err)

	assert.ErrorIs(t, store.Entities().Delete(ctx, domain.CategoryContent, 1), domain.ErrNotFound)
}

func TestEntityStore_Paging(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	other := testNode(4, -1, true)
	other.TypeID = 20
	saveAll(t, store, testNode(1, -1, true), testNode(2, 1, true), testNode(3, 1, true), other)

	items, total, err := store.Entities().PagedDescendants(ctx, domain.CategoryContent, 1, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ID)

	items, total, err = store.Entities().PagedOfTypes(ctx, domain.CategoryContent, []int64{20}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(4), items[0].ID)

	items, total, err = store.Entities().PagedAll(ctx, domain.CategoryContent, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, items, 1)

	items, total, err = store.Entities().PagedAll(ctx, domain.CategoryContent, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Empty(t, items)
}

func TestEntityStore_IsPathPublished(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	saveAll(t, store, testNode(1, -1, true), testNode(2, 1, false), testNode(3, 2, true), testNode(4, 1, true))

	for id, want := range map[int64]bool{1: true, 2: true, 3: false, 4: true} {
		e, err := store.Entities().Get(ctx, domain.CategoryContent, id)
		require.NoError(t, err)
		got, err := store.Entities().IsPathPublished(ctx, e)
		require.NoError(t, err)
		assert.Equal(t, want, got, "node %d", id)
	}
}

func TestProtectionService(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	p := store.Protection()

	require.NoError(t, p.Protect(ctx, domain.ProtectionEntry{NodeID: 1, LoginNodeID: 9}))
	require.NoError(t, p.Protect(ctx, domain.ProtectionEntry{NodeID: 2}))

	entry, ok, err := p.IsProtected(ctx, "-1,1,2,3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), entry.NodeID)

	_, ok, err = p.IsProtected(ctx, "-1,5")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Unprotect(ctx, 2))
	entry, ok, err = p.IsProtected(ctx, "-1,1,2,3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(9), entry.LoginNodeID)
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	require.NoError(t, store.Users().SaveUser(ctx, domain.User{ID: 1, Name: "admin"}))
	u, err := store.Users().GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Name)

	_, err = store.Users().GetUser(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScope_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	scope, err := store.Begin(ctx, driven.ScopeOptions{})
	require.NoError(t, err)
	require.NoError(t, scope.Entities().Save(ctx, testNode(1, -1, true)))
	require.NoError(t, scope.Rollback())

	_, err = store.Entities().Get(ctx, domain.CategoryContent, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	scope, err = store.Begin(ctx, driven.ScopeOptions{})
	require.NoError(t, err)
	require.NoError(t, scope.Entities().Save(ctx, testNode(1, -1, true)))

	var committed *bool
	scope.Enlist("app", driven.PriorityDefault, func() driven.Enlistment {
		return hook(func(c bool) error {
			committed = &c
			return nil
		})
	})
	require.NoError(t, scope.Commit())
	require.NotNil(t, committed)
	assert.True(t, *committed)

	_, err = store.Entities().Get(ctx, domain.CategoryContent, 1)
	assert.NoError(t, err)
	assert.ErrorIs(t, scope.Rollback(), domain.ErrScopeClosed)
}

func TestScope_ReadOnly(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	scope, err := store.Begin(ctx, driven.ScopeOptions{ReadOnly: true})
	require.NoError(t, err)
	defer func() { _ = scope.Rollback() }()

	assert.NotEmpty(t, scope.ID())
	assert.ErrorIs(t, scope.Entities().Save(ctx, testNode(1, -1, true)), domain.ErrReadOnlyScope)
	assert.ErrorIs(t, scope.Protection().Unprotect(ctx, 1), domain.ErrReadOnlyScope)
}

func TestScope_StorageHookRunsBeforeIndexSync(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for _, commit := range []bool{true, false} {
		sc, err := store.Begin(ctx, driven.ScopeOptions{})
		require.NoError(t, err)
		require.NoError(t, sc.Entities().Save(ctx, testNode(7, -1, true)))

		var seen []bool
		sc.Enlist("indexSync", driven.PriorityIndexSync, func() driven.Enlistment {
			return hook(func(bool) error {
				seen = append(seen, sc.(*Scope).Committed())
				return nil
			})
		})
		if commit {
			require.NoError(t, sc.Commit())
		} else {
			require.NoError(t, sc.Rollback())
		}
		assert.Equal(t, []bool{commit}, seen)
	}
}

type hook func(committed bool) error

func (h hook) Completed(committed bool) error { return h(committed) }
