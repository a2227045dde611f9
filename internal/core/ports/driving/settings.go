package driving

import "github.com/custodia-labs/sercha-indexer/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.Settings, error)

	// Save persists application settings.
	Save(settings *domain.Settings) error

	// SetEnabled turns the synchronisation pipeline on or off.
	SetEnabled(enabled bool) error

	// Validate checks if current settings are valid.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
