package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

var deleteKeepUnpublished bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Remove items from the indexes",
	Long: `Removes the given items and their descendants from every index that
handles default events. With --keep-unpublished, indexes holding draft
content keep their copy.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteKeepUnpublished, "keep-unpublished", false,
		"only remove from published-only indexes")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if synchronizer == nil {
		return errors.New("synchronizer not configured")
	}
	if _, err := parseIDs(args); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	err := inScope(ctx, func(scope driven.Scope) error {
		return synchronizer.NotifyDeletedMany(ctx, scope, args, deleteKeepUnpublished)
	})
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	cmd.Printf("Queued %d item(s) for removal.\n", len(args))
	return nil
}
