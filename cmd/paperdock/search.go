package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "Maximum number of results")
}

// SearchResponse is the response for the search command.
type SearchResponse struct {
	Query   string              `json:"query"`
	Results []PaperSearchResult `json:"results"`
	Total   int                 `json:"total"`
	Model   string              `json:"model"`
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search papers by semantic similarity",
	Long: `Search papers using semantic similarity to find conceptually
related papers, even without exact word matches.

Requires the semantic index to be built first with 'paperdock index build'.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.TrimSpace(args[0])

	if query == "" {
		exitWithError(ExitError, "search query cannot be empty")
	}

	cfg := mustLoadConfig()
	idx := mustLoadIndex(cfg)

	provider := newProvider(cfg)
	if err := provider.IsAvailable(ctx); err != nil {
		exitWithError(ExitDataError, "Ollama is not running at %s\n\nStart Ollama with 'ollama serve' or install from https://ollama.ai", cfg.Ollama.URL)
	}

	vectors, err := provider.EmbedBatch(ctx, []string{query})
	if err != nil {
		exitWithError(ExitError, "embedding query: %v", err)
	}

	matches, err := idx.SearchVector(vectors[0], searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching index: %v", err)
	}

	db := mustOpenStore(cfg)
	defer db.Close()

	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	papers, err := db.PapersByIDs(ctx, ids)
	if err != nil {
		exitWithError(ExitError, "looking up papers: %v", err)
	}

	results := buildSearchResults(matches, papers, true)

	if humanOutput {
		fmt.Printf("Search: %q\n", query)
		fmt.Printf("Found %d papers\n\n", len(results))
		printSearchResultsHuman(results)
	} else {
		outputJSON(SearchResponse{
			Query:   query,
			Results: results,
			Total:   len(results),
			Model:   idx.ModelName,
		})
	}

	return nil
}
