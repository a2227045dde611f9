package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

var reindexBranch bool

var reindexCmd = &cobra.Command{
	Use:   "reindex <category> <id>...",
	Short: "Reindex items from the store",
	Long: `Loads the given content, media or member items and reindexes them.
With --branch, content and media descendants are reindexed too.
Items missing from the store are removed from the indexes.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().BoolVar(&reindexBranch, "branch", false, "include descendants")
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	if synchronizer == nil {
		return errors.New("synchronizer not configured")
	}

	category, err := domain.ParseCategory(args[0])
	if err != nil {
		return err
	}
	ids, err := parseIDs(args[1:])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	err = inScope(ctx, func(scope driven.Scope) error {
		switch category {
		case domain.CategoryMember:
			changes := make([]domain.MemberChange, 0, len(ids))
			for _, id := range ids {
				changes = append(changes, domain.MemberChange{ID: id})
			}
			return synchronizer.HandleMemberChanges(ctx, scope, changes)
		case domain.CategoryMedia:
			return synchronizer.HandleMediaChanges(ctx, scope, treeChanges(ids, reindexBranch))
		default:
			return synchronizer.HandleContentChanges(ctx, scope, treeChanges(ids, reindexBranch))
		}
	})
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	cmd.Printf("Queued %d %s item(s) for reindexing.\n", len(ids), category)
	return nil
}

func treeChanges(ids []int64, branch bool) []domain.TreeChange {
	kind := domain.TreeRefreshNode
	if branch {
		kind = domain.TreeRefreshBranch
	}
	changes := make([]domain.TreeChange, 0, len(ids))
	for _, id := range ids {
		changes = append(changes, domain.TreeChange{ID: id, Kind: kind})
	}
	return changes
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid id %q", domain.ErrInvalidInput, a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
