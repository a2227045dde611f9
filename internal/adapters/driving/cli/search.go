package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

var (
	searchSize int
	searchFrom int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search <index> <field> <term>",
	Short: "Run a term query against an index",
	Long: `Looks up documents whose field holds exactly the given term.
Useful to inspect what an index holds, e.g. "search ExternalIndex nodeType 1051".`,
	Args: cobra.ExactArgs(3),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchSize, "size", "n", 10, "maximum number of hits")
	searchCmd.Flags().IntVar(&searchFrom, "from", 0, "offset of the first hit")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if indexCatalog == nil {
		return errors.New("index catalog not configured")
	}

	idx, err := indexCatalog.Get(args[0])
	if err != nil {
		return err
	}

	results, err := idx.Search(commandContext(cmd), driven.SearchRequest{
		Field: args[1],
		Term:  args[2],
		From:  searchFrom,
		Size:  searchSize,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results *driven.SearchResults) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results *driven.SearchResults) error {
	if len(results.Hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("%d of %d hit(s):\n", len(results.Hits), results.Total)
	for i, hit := range results.Hits {
		cmd.Printf("  [%d] %s (%.2f)\n", searchFrom+i+1, hit.ID, hit.Score)
	}
	return nil
}
