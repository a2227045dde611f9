// Package cli provides the sercha-indexer command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

var (
	version = "dev"

	configDir string
	verbose   bool
)

// Services configured by the entry point before Execute.
var (
	settingsService driving.SettingsService
	synchronizer    driving.IndexSynchronizer
	rebuilder       driving.IndexRebuilder
	indexCatalog    driving.IndexCatalog
	scopeProvider   driven.ScopeProvider
)

var errNotConfigured = errors.New("not configured")

var rootCmd = &cobra.Command{
	Use:   "sercha-indexer",
	Short: "Keep search indexes in step with committed content",
	Long: `sercha-indexer projects content, media and members into search indexes.

Changes are applied to the indexes only once the unit of work that made them
commits. Use the subcommands to reindex items, remove them, sweep deleted
types or rebuild whole indexes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if bootstrap == nil || cmd.Annotations[skipBootstrap] != "" {
			return nil
		}
		return bootstrap(commandContext(cmd), configDir)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default ~/.sercha-indexer)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Services groups the collaborators the commands drive.
type Services struct {
	Settings     driving.SettingsService
	Synchronizer driving.IndexSynchronizer
	Rebuilder    driving.IndexRebuilder
	Catalog      driving.IndexCatalog
	Scopes       driven.ScopeProvider
}

// Configure installs the services used by the commands.
func Configure(s Services) {
	settingsService = s.Settings
	synchronizer = s.Synchronizer
	rebuilder = s.Rebuilder
	indexCatalog = s.Catalog
	scopeProvider = s.Scopes
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// BootstrapFunc wires services for a command run. It receives the --config
// value and is expected to call Configure.
type BootstrapFunc func(ctx context.Context, configDir string) error

var bootstrap BootstrapFunc

// SetBootstrap registers the function run before any command that needs
// services.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, falling back to Background
// for commands executed without one (tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// inScope runs fn inside a new unit of work and commits it.
func inScope(ctx context.Context, fn func(driven.Scope) error) error {
	if scopeProvider == nil {
		return errors.New("storage " + errNotConfigured.Error())
	}
	scope, err := scopeProvider.Begin(ctx, driven.ScopeOptions{})
	if err != nil {
		return err
	}
	if err := fn(scope); err != nil {
		return errors.Join(err, scope.Rollback())
	}
	return scope.Commit()
}
