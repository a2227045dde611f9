package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyPipelineEnabled = "pipeline.enabled"
	keyQueueWorkers    = "queue.workers"
	keyQueueRateLimit  = "queue.rate_limit"
	keyQueueBurst      = "queue.burst"
	keyQueueShutdown   = "queue.shutdown_timeout"
	keySweepPageSize   = "sweep.page_size"
	keyDataDir         = "storage.data_dir"
	keyIndexes         = "indexes"
)

// Index table keys.
const (
	idxName                = "name"
	idxPath                = "path"
	idxCategories          = "categories"
	idxPublishedValuesOnly = "published_values_only"
	idxDefaultEventHandler = "enable_default_event_handler"
	idxExcludeTrashed      = "exclude_trashed"
	idxExcludeProtected    = "exclude_protected"
	idxParentID            = "parent_id"
	idxIncludeItemTypes    = "include_item_types"
	idxExcludeItemTypes    = "exclude_item_types"
	idxIncludeFields       = "include_fields"
	idxExcludeFields       = "exclude_fields"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Enabled: s.getBool(keyPipelineEnabled, defaults.Enabled),
		Queue: domain.QueueSettings{
			Workers:         s.getInt(keyQueueWorkers, defaults.Queue.Workers),
			RateLimit:       s.configStore.GetFloat(keyQueueRateLimit),
			Burst:           s.getInt(keyQueueBurst, defaults.Queue.Burst),
			ShutdownTimeout: s.getDuration(keyQueueShutdown, defaults.Queue.ShutdownTimeout),
		},
		Sweep: domain.SweepSettings{
			PageSize: s.getInt(keySweepPageSize, defaults.Sweep.PageSize),
		},
		Storage: domain.StorageSettings{
			DataDir: s.getString(keyDataDir, DefaultDataDir()),
		},
		Indexes: defaults.Indexes,
	}

	if tables := s.configStore.GetTables(keyIndexes); tables != nil {
		indexes := make([]domain.IndexDescriptor, 0, len(tables))
		for i, t := range tables {
			d, err := descriptorFromTable(t)
			if err != nil {
				return nil, fmt.Errorf("indexes[%d]: %w", i, err)
			}
			indexes = append(indexes, d)
		}
		settings.Indexes = indexes
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyPipelineEnabled, settings.Enabled},
		{keyQueueWorkers, settings.Queue.Workers},
		{keyQueueRateLimit, settings.Queue.RateLimit},
		{keyQueueBurst, settings.Queue.Burst},
		{keyQueueShutdown, settings.Queue.ShutdownTimeout.String()},
		{keySweepPageSize, settings.Sweep.PageSize},
		{keyDataDir, settings.Storage.DataDir},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	tables := make([]map[string]any, 0, len(settings.Indexes))
	for _, d := range settings.Indexes {
		tables = append(tables, descriptorToTable(d))
	}
	if err := s.configStore.Set(keyIndexes, tables); err != nil {
		return fmt.Errorf("save %s: %w", keyIndexes, err)
	}
	return nil
}

// SetEnabled turns the synchronisation pipeline on or off.
func (s *SettingsService) SetEnabled(enabled bool) error {
	return s.configStore.Set(keyPipelineEnabled, enabled)
}

// Validate checks if current settings are valid.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if settings.Queue.Workers < 1 {
		return fmt.Errorf("%w: queue.workers must be at least 1", domain.ErrInvalidInput)
	}
	if settings.Queue.RateLimit < 0 {
		return fmt.Errorf("%w: queue.rate_limit must not be negative", domain.ErrInvalidInput)
	}
	if settings.Sweep.PageSize < 1 {
		return fmt.Errorf("%w: sweep.page_size must be at least 1", domain.ErrInvalidInput)
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	d := domain.DefaultSettings()
	d.Storage.DataDir = DefaultDataDir()
	return d
}

// DefaultDataDir returns ~/.sercha-indexer/data, or a relative directory
// when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".sercha-indexer", "data")
	}
	return filepath.Join(home, ".sercha-indexer", "data")
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func descriptorFromTable(t map[string]any) (domain.IndexDescriptor, error) {
	d := domain.IndexDescriptor{
		Name:                      tableString(t, idxName),
		Path:                      tableString(t, idxPath),
		PublishedValuesOnly:       tableBool(t, idxPublishedValuesOnly, false),
		EnableDefaultEventHandler: tableBool(t, idxDefaultEventHandler, true),
		ExcludeTrashed:            tableBool(t, idxExcludeTrashed, false),
		ExcludeProtected:          tableBool(t, idxExcludeProtected, false),
		ParentID:                  tableString(t, idxParentID),
		IncludeItemTypes:          tableStrings(t, idxIncludeItemTypes),
		ExcludeItemTypes:          tableStrings(t, idxExcludeItemTypes),
		IncludeFields:             tableStrings(t, idxIncludeFields),
		ExcludeFields:             tableStrings(t, idxExcludeFields),
	}
	for _, name := range tableStrings(t, idxCategories) {
		c, err := domain.ParseCategory(name)
		if err != nil {
			return domain.IndexDescriptor{}, err
		}
		d.Categories = append(d.Categories, c)
	}
	if err := d.Validate(); err != nil {
		return domain.IndexDescriptor{}, err
	}
	return d, nil
}

func descriptorToTable(d domain.IndexDescriptor) map[string]any {
	categories := make([]string, 0, len(d.Categories))
	for _, c := range d.Categories {
		categories = append(categories, c.String())
	}
	t := map[string]any{
		idxName:                d.Name,
		idxCategories:          categories,
		idxPublishedValuesOnly: d.PublishedValuesOnly,
		idxDefaultEventHandler: d.EnableDefaultEventHandler,
		idxExcludeTrashed:      d.ExcludeTrashed,
		idxExcludeProtected:    d.ExcludeProtected,
	}
	optional := map[string]any{
		idxPath:             d.Path,
		idxParentID:         d.ParentID,
		idxIncludeItemTypes: d.IncludeItemTypes,
		idxExcludeItemTypes: d.ExcludeItemTypes,
		idxIncludeFields:    d.IncludeFields,
		idxExcludeFields:    d.ExcludeFields,
	}
	for k, v := range optional {
		switch x := v.(type) {
		case string:
			if x != "" {
				t[k] = x
			}
		case []string:
			if len(x) > 0 {
				t[k] = x
			}
		}
	}
	return t
}

func tableString(t map[string]any, key string) string {
	s, _ := t[key].(string)
	return s
}

func tableBool(t map[string]any, key string, defaultVal bool) bool {
	b, ok := t[key].(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// tableStrings reads a string list. TOML arrays decode as []any.
func tableStrings(t map[string]any, key string) []string {
	switch v := t[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}
