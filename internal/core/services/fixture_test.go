package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	memindex "github.com/custodia-labs/sercha-indexer/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/queue"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// fixture wires a synchroniser to in-memory storage, indexes and an
// inline queue, so enqueued work has finished when Enqueue returns.
type fixture struct {
	store    *memory.Store
	internal *memindex.Index
	external *memindex.Index
	members  *memindex.Index
	registry *IndexRegistry
	queue    *queue.Sync
	sync     *Synchronizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	defaults := domain.DefaultIndexDescriptors()
	f := &fixture{
		store:    memory.NewStore(),
		internal: memindex.New(defaults[0]),
		external: memindex.New(defaults[1]),
		members:  memindex.New(defaults[2]),
		queue:    queue.NewSync(),
	}

	var err error
	f.registry, err = NewIndexRegistry(f.internal, f.external, f.members)
	require.NoError(t, err)

	settings := domain.DefaultSettings()
	rebuilder := NewIndexRebuilder(f.registry, f.store, settings.Sweep.PageSize)
	f.sync = NewSynchronizer(f.registry, f.store, f.queue, nil, rebuilder, settings)
	return f
}

func (f *fixture) save(t *testing.T, entities ...*domain.Entity) {
	t.Helper()
	for _, e := range entities {
		require.NoError(t, f.store.Entities().Save(context.Background(), e))
	}
}

func (f *fixture) get(t *testing.T, category domain.Category, id int64) *domain.Entity {
	t.Helper()
	e, err := f.store.Entities().Get(context.Background(), category, id)
	require.NoError(t, err)
	return e
}

func (f *fixture) begin(t *testing.T) driven.Scope {
	t.Helper()
	scope, err := f.store.Begin(context.Background(), driven.ScopeOptions{})
	require.NoError(t, err)
	return scope
}

func content(id, parent int64, published bool) *domain.Entity {
	return &domain.Entity{
		ID:        id,
		Key:       "key",
		Category:  domain.CategoryContent,
		ParentID:  parent,
		Name:      "Page",
		TypeID:    100,
		TypeAlias: "page",
		Published: published,
		Properties: []domain.Property{
			{Alias: "title", Value: "draft title", PublishedValue: "live title"},
		},
	}
}

func media(id, parent int64) *domain.Entity {
	return &domain.Entity{
		ID:        id,
		Category:  domain.CategoryMedia,
		ParentID:  parent,
		Name:      "Image",
		TypeID:    200,
		TypeAlias: "image",
	}
}

func member(id int64) *domain.Entity {
	return &domain.Entity{
		ID:        id,
		Category:  domain.CategoryMember,
		Name:      "Member",
		TypeID:    300,
		TypeAlias: "member",
		LoginName: "m",
		Email:     "m@example.com",
	}
}

// countingIndex records calls made to a wrapped index.
type countingIndex struct {
	driven.Index

	mu       sync.Mutex
	searches int
	pages    []int
	deletes  []string
	cleared  int
}

func (c *countingIndex) Search(ctx context.Context, req driven.SearchRequest) (*driven.SearchResults, error) {
	res, err := c.Index.Search(ctx, req)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searches++
	if res != nil {
		c.pages = append(c.pages, len(res.Hits))
	}
	return res, err
}

func (c *countingIndex) DeleteItems(ctx context.Context, ids []string) error {
	c.mu.Lock()
	c.deletes = append(c.deletes, ids...)
	c.mu.Unlock()
	return c.Index.DeleteItems(ctx, ids)
}

func (c *countingIndex) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.cleared++
	c.mu.Unlock()
	return c.Index.Clear(ctx)
}

// recordingQueue keeps tasks without running them.
type recordingQueue struct {
	mu    sync.Mutex
	names []string
	keys  []string
	tasks []driven.Task
}

func (q *recordingQueue) Enqueue(name, key string, task driven.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.names = append(q.names, name)
	q.keys = append(q.keys, key)
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) Shutdown(context.Context) error { return nil }

// stubMainDom fails or succeeds Acquire.
type stubMainDom struct {
	err  error
	held bool
}

func (m *stubMainDom) Acquire(context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.held = true
	return nil
}

func (m *stubMainDom) IsMain() bool { return m.held }

func (m *stubMainDom) Release() error {
	m.held = false
	return nil
}
