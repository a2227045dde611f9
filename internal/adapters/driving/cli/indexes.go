package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "List configured indexes",
	Long: `Lists every configured index with the categories it accepts, its
filtering flags and the number of documents it currently holds.`,
	Args: cobra.NoArgs,
	RunE: runIndexes,
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}

func runIndexes(cmd *cobra.Command, _ []string) error {
	if indexCatalog == nil {
		return errors.New("index catalog not configured")
	}

	descs := indexCatalog.Descriptors()
	if len(descs) == 0 {
		cmd.Println("No indexes configured.")
		return nil
	}

	ctx := commandContext(cmd)
	for _, d := range descs {
		cmd.Printf("%s\n", d.Name)
		cmd.Printf("  Categories: %s\n", joinCategories(d.Categories))
		cmd.Printf("  Location: %s\n", location(d))
		cmd.Printf("  Flags: %s\n", descriptorFlags(d))
		if d.ParentID != "" {
			cmd.Printf("  Parent: %s\n", d.ParentID)
		}

		idx, err := indexCatalog.Get(d.Name)
		if err != nil {
			return err
		}
		count, err := idx.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count %s: %w", d.Name, err)
		}
		cmd.Printf("  Documents: %d\n", count)
		cmd.Println()
	}
	return nil
}

func joinCategories(cs domain.CategorySet) string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.String())
	}
	return strings.Join(names, ", ")
}

func location(d domain.IndexDescriptor) string {
	if d.Path == "" {
		return "(in memory)"
	}
	return d.Path
}

func descriptorFlags(d domain.IndexDescriptor) string {
	var flags []string
	if d.PublishedValuesOnly {
		flags = append(flags, "published-only")
	}
	if d.ExcludeTrashed {
		flags = append(flags, "exclude-trashed")
	}
	if d.ExcludeProtected {
		flags = append(flags, "exclude-protected")
	}
	if !d.EnableDefaultEventHandler {
		flags = append(flags, "manual")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ", ")
}
