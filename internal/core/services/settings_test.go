package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.True(t, settings.Enabled)
	assert.Equal(t, defaults.Queue, settings.Queue)
	assert.Equal(t, defaults.Sweep, settings.Sweep)
	assert.Equal(t, DefaultDataDir(), settings.Storage.DataDir)
	assert.Equal(t, defaults.Indexes, settings.Indexes)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("pipeline.enabled", false)
	_ = store.Set("queue.workers", 4)
	_ = store.Set("queue.rate_limit", 50.0)
	_ = store.Set("queue.burst", 10)
	_ = store.Set("queue.shutdown_timeout", "30s")
	_ = store.Set("sweep.page_size", 100)
	_ = store.Set("storage.data_dir", "/var/lib/indexer")

	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)

	assert.False(t, settings.Enabled)
	assert.Equal(t, 4, settings.Queue.Workers)
	assert.InDelta(t, 50.0, settings.Queue.RateLimit, 0.001)
	assert.Equal(t, 10, settings.Queue.Burst)
	assert.Equal(t, 30*time.Second, settings.Queue.ShutdownTimeout)
	assert.Equal(t, 100, settings.Sweep.PageSize)
	assert.Equal(t, "/var/lib/indexer", settings.Storage.DataDir)
}

func TestSettingsService_Get_InvalidDurationUsesDefault(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("queue.shutdown_timeout", "soon")

	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultShutdownTimeout, settings.Queue.ShutdownTimeout)
}

func TestSettingsService_Get_IndexTables(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("indexes", []any{
		map[string]any{
			"name":                  "Docs",
			"categories":            []any{"content"},
			"published_values_only": true,
			"exclude_fields":        []any{"secret"},
		},
	})

	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)
	require.Len(t, settings.Indexes, 1)

	d := settings.Indexes[0]
	assert.Equal(t, "Docs", d.Name)
	assert.Equal(t, domain.CategorySet{domain.CategoryContent}, d.Categories)
	assert.True(t, d.PublishedValuesOnly)
	assert.True(t, d.EnableDefaultEventHandler, "default event handling is on unless disabled")
	assert.Equal(t, []string{"secret"}, d.ExcludeFields)
}

func TestSettingsService_Get_InvalidIndexTable(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("indexes", []any{
		map[string]any{"name": "Bad", "categories": []any{"pages"}},
	})

	_, err := NewSettingsService(store).Get()
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := service.GetDefaults()
	settings.Queue.Workers = 3
	settings.Queue.ShutdownTimeout = 5 * time.Second
	settings.Indexes = []domain.IndexDescriptor{{
		Name:                      "Members",
		Categories:                domain.CategorySet{domain.CategoryMember},
		EnableDefaultEventHandler: true,
		IncludeItemTypes:          []string{"member"},
	}}
	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 3, got.Queue.Workers)
	assert.Equal(t, 5*time.Second, got.Queue.ShutdownTimeout)
	assert.Equal(t, settings.Indexes, got.Indexes)
}

func TestSettingsService_Save_RejectsDuplicateIndexes(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings := service.GetDefaults()
	settings.Indexes = append(settings.Indexes, settings.Indexes[0])

	var dup *domain.DuplicateIndexError
	assert.ErrorAs(t, service.Save(&settings), &dup)
}

func TestSettingsService_SetEnabled(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	require.NoError(t, service.SetEnabled(false))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.False(t, settings.Enabled)
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr bool
	}{
		{"defaults", "", nil, false},
		{"negative workers", "queue.workers", -1, true},
		{"negative rate", "queue.rate_limit", -2.0, true},
		{"negative page size", "sweep.page_size", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			if tt.key != "" {
				_ = store.Set(tt.key, tt.value)
			}
			err := NewSettingsService(store).Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
