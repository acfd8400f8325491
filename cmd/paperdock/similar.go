package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/paperdock/paperdock/internal/semantic"
)

var similarLimit int

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().IntVarP(&similarLimit, "limit", "l", 10, "Maximum number of results")
}

// SimilarSource is the source paper info for similar papers response.
type SimilarSource struct {
	ID      int64  `json:"id"`
	ArxivID string `json:"arxiv_id"`
	Title   string `json:"title"`
}

// SimilarResponse is the response for the similar papers command.
type SimilarResponse struct {
	Source  SimilarSource       `json:"source"`
	Similar []PaperSearchResult `json:"similar"`
	Total   int                 `json:"total"`
	Model   string              `json:"model"`
}

var similarCmd = &cobra.Command{
	Use:   "similar <paper-id>",
	Short: "Find papers similar to a specific paper",
	Long: `Find papers that are semantically similar to a given paper.

This uses the paper's abstract to find other papers with related
content. The source paper is excluded from results.

Requires the semantic index to be built first with 'paperdock index build'.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func runSimilar(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	paperID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitWithError(ExitError, "paper id must be an integer, got %q", args[0])
	}

	cfg := mustLoadConfig()
	idx := mustLoadIndex(cfg)

	db := mustOpenStore(cfg)
	defer db.Close()

	source, err := db.PaperByID(ctx, paperID)
	if err != nil {
		exitWithError(ExitError, "paper %d not found in database", paperID)
	}

	matches, err := idx.SearchByID(paperID, similarLimit)
	if err != nil {
		if errors.Is(err, semantic.ErrPaperNotIndexed) {
			exitWithError(ExitNotIndexed, "Paper %d is not in the semantic index\n\nIts abstract may be missing or shorter than %d characters.\nRebuild the index with 'paperdock index build' if the abstract changed.", paperID, semantic.MinSummaryLength)
		}
		exitWithError(ExitError, "finding similar papers: %v", err)
	}

	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	papers, err := db.PapersByIDs(ctx, ids)
	if err != nil {
		exitWithError(ExitError, "looking up papers: %v", err)
	}

	results := buildSearchResults(matches, papers, false)

	if humanOutput {
		fmt.Printf("Papers similar to: %s\n", source.ArxivID)
		fmt.Printf("\"%s\"\n\n", truncateString(source.Title, SearchTitleMaxLen))
		printSearchResultsHuman(results)
	} else {
		outputJSON(SimilarResponse{
			Source: SimilarSource{
				ID:      source.ID,
				ArxivID: source.ArxivID,
				Title:   source.Title,
			},
			Similar: results,
			Total:   len(results),
			Model:   idx.ModelName,
		})
	}

	return nil
}
