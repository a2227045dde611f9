package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <category> <type-id>...",
	Short: "Retract documents of deleted types",
	Long: `Searches every index accepting the category for documents of the given
types and retracts them. Use after types were deleted together with their
items.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	if synchronizer == nil {
		return errors.New("synchronizer not configured")
	}

	category, err := domain.ParseCategory(args[0])
	if err != nil {
		return err
	}
	typeIDs, err := parseIDs(args[1:])
	if err != nil {
		return err
	}

	if err := synchronizer.NotifyTypesRemoved(commandContext(cmd), category, typeIDs); err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	cmd.Printf("Swept %d %s type(s).\n", len(typeIDs), category)
	return nil
}
