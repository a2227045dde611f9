// Command sercha-indexer keeps search indexes in step with the content store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/index/bleve"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/maindom"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/queue"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/services"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

var version = "dev"

// app holds what bootstrap opened so it can be closed after the command.
type app struct {
	store   *sqlite.Store
	indexes []driven.Index
	queue   *queue.Background
	lock    *maindom.FileLock

	shutdownTimeout time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	cli.SetVersion(version)
	cli.SetBootstrap(a.bootstrap)

	err := cli.Execute(ctx)
	if closeErr := a.close(); closeErr != nil {
		logger.Error("shutdown: %v", closeErr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func (a *app) bootstrap(ctx context.Context, configDir string) error {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	a.store, err = sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	for _, desc := range settings.Indexes {
		if desc.Path == "" {
			desc.Path = filepath.Join(settings.Storage.DataDir, "indexes", desc.Name)
		}
		idx, err := bleve.Open(desc)
		if err != nil {
			return fmt.Errorf("opening index %s: %w", desc.Name, err)
		}
		a.indexes = append(a.indexes, idx)
	}

	registry, err := services.NewIndexRegistry(a.indexes...)
	if err != nil {
		return err
	}

	a.queue = queue.NewBackgroundFromSettings(settings.Queue, prometheus.DefaultRegisterer)
	a.shutdownTimeout = settings.Queue.ShutdownTimeout
	a.lock = maindom.NewFileLock(settings.Storage.DataDir)

	rebuilder := services.NewIndexRebuilder(registry, a.store, settings.Sweep.PageSize)
	synchronizer := services.NewSynchronizer(registry, a.store, a.queue, a.lock, rebuilder, *settings)

	if err := synchronizer.Start(ctx); err != nil {
		// Another process owns the indexes; read-only commands still work.
		logger.Error("%v", err)
	}

	cli.Configure(cli.Services{
		Settings:     settingsService,
		Synchronizer: synchronizer,
		Rebuilder:    rebuilder,
		Catalog:      registry,
		Scopes:       a.store,
	})
	return nil
}

// close drains queued work, then releases the lock, indexes and store.
func (a *app) close() error {
	var errs []error

	if a.queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		if err := a.queue.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("draining queue: %w", err))
		}
		if err := a.queue.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stopping queue: %w", err))
		}
		cancel()
	}

	for _, idx := range a.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.lock != nil {
		if err := a.lock.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
