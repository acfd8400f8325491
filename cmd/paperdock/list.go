package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var listLimit int

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 10, "Maximum number of papers")
}

// ListResponse is the response for the list command.
type ListResponse struct {
	Papers []PaperSearchResult `json:"papers"`
	Total  int                 `json:"total"`
	Count  int                 `json:"count"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recently published papers",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	db := mustOpenStore(cfg)
	defer db.Close()

	total, err := db.CountPapers(ctx)
	if err != nil {
		exitWithError(ExitError, "counting papers: %v", err)
	}

	papers, err := db.RecentPapers(ctx, listLimit)
	if err != nil {
		exitWithError(ExitError, "listing papers: %v", err)
	}

	results := make([]PaperSearchResult, 0, len(papers))
	for _, p := range papers {
		results = append(results, PaperSearchResult{
			ID:        p.ID,
			ArxivID:   p.ArxivID,
			Title:     p.Title,
			Authors:   p.Authors,
			Published: p.Published.Format("2006-01-02"),
		})
	}

	if humanOutput {
		fmt.Printf("%d papers in database, showing %d most recent:\n\n", total, len(results))
		for i, r := range results {
			fmt.Printf("%d. [%d] %s\n", i+1, r.ID, r.ArxivID)
			fmt.Printf("   %s\n", truncateString(r.Title, SearchTitleMaxLen))
			fmt.Printf("   %s (%s)\n\n", formatAuthorsShort(r.Authors, 3), r.Published)
		}
	} else {
		outputJSON(ListResponse{
			Papers: results,
			Total:  total,
			Count:  len(results),
		})
	}

	return nil
}
