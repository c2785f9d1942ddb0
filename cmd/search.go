package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/spf13/cobra"

	"github.com/fwxs/mitre-cli/internal/index"
)

var flagSearchSize int

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Full-text search over the synced index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := indexPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("no search index at %s, run 'mitre-cli attck sync --index' first", path)
		}
		idx, err := bleve.Open(path)
		if err != nil {
			return fmt.Errorf("opening index %q: %w", path, err)
		}
		defer idx.Close()

		query := args[0]
		for _, arg := range args[1:] {
			query += " " + arg
		}
		hits, err := index.Search(idx, query, flagSearchSize)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("[!] No results for", strconv.Quote(query))
			return nil
		}

		rows := make([][]string, 0, len(hits))
		for _, hit := range hits {
			rows = append(rows, []string{hit.ID, hit.Kind, hit.Name, fmt.Sprintf("%.3f", hit.Score)})
		}
		renderTable(os.Stdout, []string{"ID", "KIND", "NAME", "SCORE"}, rows)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&flagSearchSize, "size", 10, "maximum number of results")
	attckCmd.AddCommand(searchCmd)
}
