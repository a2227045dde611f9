package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	memindex "github.com/custodia-labs/sercha-indexer/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/queue"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/services"
)

// testEnv is a complete in-memory pipeline behind the commands.
type testEnv struct {
	store    *memory.Store
	config   *memory.ConfigStore
	internal *memindex.Index
	external *memindex.Index
	members  *memindex.Index
}

func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	defaults := domain.DefaultIndexDescriptors()
	env := &testEnv{
		store:    memory.NewStore(),
		config:   memory.NewConfigStore(),
		internal: memindex.New(defaults[0]),
		external: memindex.New(defaults[1]),
		members:  memindex.New(defaults[2]),
	}

	registry, err := services.NewIndexRegistry(env.internal, env.external, env.members)
	require.NoError(t, err)

	settings := domain.DefaultSettings()
	rb := services.NewIndexRebuilder(registry, env.store, settings.Sweep.PageSize)
	sync := services.NewSynchronizer(registry, env.store, queue.NewSync(), nil, rb, settings)

	old := Services{
		Settings:     settingsService,
		Synchronizer: synchronizer,
		Rebuilder:    rebuilder,
		Catalog:      indexCatalog,
		Scopes:       scopeProvider,
	}
	Configure(Services{
		Settings:     services.NewSettingsService(env.config),
		Synchronizer: sync,
		Rebuilder:    rb,
		Catalog:      registry,
		Scopes:       env.store,
	})
	t.Cleanup(func() {
		Configure(old)
		reindexBranch = false
		deleteKeepUnpublished = false
		rebuildOnlyEmpty = false
		searchSize, searchFrom, searchJSON = 10, 0, false
	})
	return env
}

func (e *testEnv) save(t *testing.T, entities ...*domain.Entity) {
	t.Helper()
	for _, entity := range entities {
		require.NoError(t, e.store.Entities().Save(context.Background(), entity))
	}
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func page(id, parent int64, published bool) *domain.Entity {
	return &domain.Entity{
		ID:        id,
		Category:  domain.CategoryContent,
		ParentID:  parent,
		Name:      "Page",
		TypeID:    100,
		TypeAlias: "page",
		Published: published,
	}
}
