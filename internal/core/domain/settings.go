package domain

import "time"

// QueueSettings configures the background work queue.
type QueueSettings struct {
	// Workers is the number of independent FIFO lanes.
	// Work for the same entity always lands on the same lane.
	Workers int

	// RateLimit caps task starts per second. Zero disables throttling.
	RateLimit float64

	// Burst is the token bucket size when RateLimit is set.
	Burst int

	// ShutdownTimeout bounds how long shutdown waits for the queue to drain.
	ShutdownTimeout time.Duration
}

// SweepSettings configures the bulk retraction sweeper.
type SweepSettings struct {
	// PageSize is the number of search hits fetched per page.
	PageSize int
}

// StorageSettings configures where data lives.
type StorageSettings struct {
	// DataDir holds the metadata database, on-disk indexes and the main-dom lock.
	DataDir string
}

// Settings holds all application settings.
type Settings struct {
	// Enabled turns the synchronisation pipeline on or off.
	Enabled bool

	// Queue holds background queue settings.
	Queue QueueSettings

	// Sweep holds bulk retraction settings.
	Sweep SweepSettings

	// Storage holds storage settings.
	Storage StorageSettings

	// Indexes lists the configured index descriptors.
	Indexes []IndexDescriptor
}

// Default setting values.
const (
	DefaultQueueWorkers    = 1
	DefaultQueueBurst      = 1
	DefaultShutdownTimeout = 10 * time.Second
	DefaultSweepPageSize   = 500
)

// DefaultSettings returns settings with sensible defaults.
// Three indexes are configured, mirroring a standard installation.
func DefaultSettings() Settings {
	return Settings{
		Enabled: true,
		Queue: QueueSettings{
			Workers:         DefaultQueueWorkers,
			Burst:           DefaultQueueBurst,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Sweep: SweepSettings{
			PageSize: DefaultSweepPageSize,
		},
		Indexes: DefaultIndexDescriptors(),
	}
}

// Validate checks settings for configuration errors.
func (s Settings) Validate() error {
	seen := make(map[string]bool, len(s.Indexes))
	for _, d := range s.Indexes {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Name] {
			return &DuplicateIndexError{Name: d.Name}
		}
		seen[d.Name] = true
	}
	return nil
}

// DuplicateIndexError reports two indexes configured with the same name.
type DuplicateIndexError struct {
	Name string
}

func (e *DuplicateIndexError) Error() string {
	return "duplicate index name: " + e.Name
}

// Unwrap lets callers match ErrInvalidInput.
func (e *DuplicateIndexError) Unwrap() error {
	return ErrInvalidInput
}
