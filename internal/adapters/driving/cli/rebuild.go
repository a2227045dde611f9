package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildOnlyEmpty bool

var rebuildCmd = &cobra.Command{
	Use:   "rebuild [index]",
	Short: "Rebuild indexes from the store",
	Long: `Clears and repopulates indexes from the content store.
If an index name is provided, only that index is rebuilt.
Otherwise, all indexes are rebuilt in parallel.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRebuild,
}

func init() {
	rebuildCmd.Flags().BoolVar(&rebuildOnlyEmpty, "only-empty", false, "skip indexes that already hold documents")
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	if rebuilder == nil {
		return errors.New("rebuilder not configured")
	}

	ctx := commandContext(cmd)

	if len(args) > 0 {
		name := args[0]
		cmd.Printf("Rebuilding index: %s...\n", name)

		if err := rebuilder.RebuildIndex(ctx, name); err != nil {
			return fmt.Errorf("rebuild failed: %w", err)
		}

		cmd.Printf("Index %s rebuilt successfully.\n", name)
		return nil
	}

	cmd.Println("Rebuilding all indexes...")

	if err := rebuilder.Rebuild(ctx, rebuildOnlyEmpty); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Println("All indexes rebuilt successfully.")
	return nil
}
