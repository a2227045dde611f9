package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View the pipeline, queue, sweep and storage settings, and turn the
synchronisation pipeline on or off.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable index synchronisation",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return setEnabled(cmd, true)
	},
}

var settingsDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable index synchronisation",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return setEnabled(cmd, false)
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEnableCmd)
	settingsCmd.AddCommand(settingsDisableCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Pipeline]")
	cmd.Printf("  Enabled: %t\n", settings.Enabled)
	cmd.Println()

	cmd.Println("[Queue]")
	cmd.Printf("  Workers: %d\n", settings.Queue.Workers)
	if settings.Queue.RateLimit > 0 {
		cmd.Printf("  Rate limit: %.2f/s (burst %d)\n", settings.Queue.RateLimit, settings.Queue.Burst)
	} else {
		cmd.Println("  Rate limit: (none)")
	}
	cmd.Printf("  Shutdown timeout: %s\n", settings.Queue.ShutdownTimeout)
	cmd.Println()

	cmd.Println("[Sweep]")
	cmd.Printf("  Page size: %d\n", settings.Sweep.PageSize)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	cmd.Println()

	cmd.Printf("[Indexes] (%d)\n", len(settings.Indexes))
	for _, d := range settings.Indexes {
		cmd.Printf("  %s: %s (%s)\n", d.Name, joinCategories(d.Categories), descriptorFlags(d))
	}
	return nil
}

func setEnabled(cmd *cobra.Command, enabled bool) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.SetEnabled(enabled); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	cmd.Printf("Index synchronisation %s.\n", state)
	return nil
}
