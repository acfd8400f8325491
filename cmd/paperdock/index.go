package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/paperdock/paperdock/internal/semantic"
)

var (
	noProgress    bool
	indexHeadroom int
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexCheckCmd)

	indexBuildCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Suppress progress output")
	indexBuildCmd.Flags().IntVar(&indexHeadroom, "headroom", 0, "Extra capacity above the current corpus size")
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the semantic similarity index",
	Long:  `Commands for building and checking the semantic similarity index.`,
}

// IndexBuildResult is the response for index build command.
type IndexBuildResult struct {
	Status          string  `json:"status"`
	PapersIndexed   int     `json:"papers_indexed"`
	PapersSkipped   int     `json:"papers_skipped"`
	DurationSeconds float64 `json:"duration_seconds"`
	Model           string  `json:"model"`
	IndexSizeBytes  int64   `json:"index_size_bytes"`
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build or rebuild the semantic index",
	Long: `Build or rebuild the semantic index from paper abstracts.

Requires Ollama to be running with the embedding model available.
Run 'ollama pull all-minilm:l6-v2' to download the model.`,
	RunE: runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	provider := newProvider(cfg)
	if err := provider.IsAvailable(ctx); err != nil {
		exitWithError(ExitDataError, "Ollama is not running at %s\n\nStart Ollama with 'ollama serve' or install from https://ollama.ai", cfg.Ollama.URL)
	}

	hasModel, err := provider.HasModel(ctx)
	if err != nil {
		exitWithError(ExitError, "checking model availability: %v", err)
	}
	if !hasModel {
		exitWithError(ExitModelNotFound, "Embedding model '%s' not found\n\nRun 'ollama pull %s' to download it.", provider.ModelName(), provider.ModelName())
	}

	db := mustOpenStore(cfg)
	defer db.Close()

	builder := semantic.NewBuilder(provider, db)
	builder.SetParams(semantic.Params{
		M:              cfg.Index.M,
		EfConstruction: cfg.Index.EfConstruction,
		Ef:             cfg.Index.Ef,
	})
	headroom := cfg.Index.Headroom
	if indexHeadroom > 0 {
		headroom = indexHeadroom
	}
	builder.SetHeadroom(headroom)

	if !noProgress && humanOutput {
		builder.SetProgressReporter(semantic.ProgressFunc(func(current, total int) {
			printProgress(current, total)
		}))
		fmt.Fprintf(os.Stderr, "Building semantic index...\n")
	}

	idx, stats, err := builder.Build(ctx)
	if err != nil {
		exitWithError(ExitError, "building index: %v", err)
	}

	if err := idx.Save(cfg.DataDir); err != nil {
		exitWithError(ExitError, "saving index: %v", err)
	}

	indexSize, err := semantic.IndexSize(cfg.DataDir)
	if err != nil {
		indexSize = 0 // Non-fatal
	}
	stats.IndexSizeBytes = indexSize

	// Clear the progress line if we were showing one.
	if humanOutput && !noProgress {
		fmt.Fprintf(os.Stderr, "\r%s\r", "                                                  ")
	}

	if humanOutput {
		fmt.Printf("\nBuild complete:\n")
		fmt.Printf("  Papers indexed: %d\n", stats.PapersIndexed)
		fmt.Printf("  Papers skipped: %d (no or short abstract)\n", stats.PapersSkipped)
		fmt.Printf("  Time elapsed: %s\n", formatDuration(stats.Duration))
		fmt.Printf("  Index size: %s\n", formatBytes(stats.IndexSizeBytes))
		fmt.Printf("  Model: %s\n", provider.ModelName())
	} else {
		outputJSON(IndexBuildResult{
			Status:          "complete",
			PapersIndexed:   stats.PapersIndexed,
			PapersSkipped:   stats.PapersSkipped,
			DurationSeconds: stats.Duration.Seconds(),
			Model:           provider.ModelName(),
			IndexSizeBytes:  stats.IndexSizeBytes,
		})
	}

	return nil
}

// IndexCheckResult is the response for index check command.
type IndexCheckResult struct {
	Status             string  `json:"status"`
	PapersTotal        int     `json:"papers_total"`
	PapersWithAbstract int     `json:"papers_with_abstract"`
	PapersIndexed      int     `json:"papers_indexed"`
	PapersMissing      int     `json:"papers_missing"`
	MissingIDs         []int64 `json:"missing_ids,omitempty"`
	Model              string  `json:"model"`
	IndexCreated       string  `json:"index_created"`
	IndexSizeBytes     int64   `json:"index_size_bytes"`
	Recommendation     string  `json:"recommendation,omitempty"`
}

var indexCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check semantic index health",
	Long:  `Check the health and status of the semantic index.`,
	RunE:  runIndexCheck,
}

func runIndexCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	idx := mustLoadIndex(cfg)

	db := mustOpenStore(cfg)
	defer db.Close()

	totalCount, err := db.CountPapers(ctx)
	if err != nil {
		exitWithError(ExitError, "counting papers: %v", err)
	}

	summaries, err := db.SummariesForIndex(ctx)
	if err != nil {
		exitWithError(ExitError, "listing abstracts: %v", err)
	}

	var abstractCount int
	var missingIDs []int64
	for _, s := range summaries {
		if len(s.Summary) < semantic.MinSummaryLength {
			continue
		}
		abstractCount++
		if !idx.HasPaper(s.ID) {
			missingIDs = append(missingIDs, s.ID)
		}
	}

	indexSize, _ := semantic.IndexSize(cfg.DataDir)

	status := "healthy"
	var recommendation string
	exitCode := ExitSuccess

	if len(missingIDs) > 0 {
		status = "stale"
		recommendation = "Run 'paperdock index build' to update the index"
		exitCode = ExitIndexStale
	}

	result := IndexCheckResult{
		Status:             status,
		PapersTotal:        totalCount,
		PapersWithAbstract: abstractCount,
		PapersIndexed:      idx.PaperCount,
		PapersMissing:      len(missingIDs),
		Model:              idx.ModelName,
		IndexCreated:       idx.CreatedAt.Format(time.RFC3339),
		IndexSizeBytes:     indexSize,
		Recommendation:     recommendation,
	}
	if len(missingIDs) > 0 && len(missingIDs) <= 10 {
		result.MissingIDs = missingIDs
	}

	if humanOutput {
		fmt.Printf("Semantic Index Status: %s\n\n", status)
		fmt.Printf("Papers:\n")
		fmt.Printf("  Total in database: %d\n", totalCount)
		fmt.Printf("  With abstracts: %d\n", abstractCount)
		fmt.Printf("  In semantic index: %d\n", idx.PaperCount)
		fmt.Printf("  Missing from index: %d\n", len(missingIDs))
		fmt.Printf("\nIndex Info:\n")
		fmt.Printf("  Model: %s\n", idx.ModelName)
		fmt.Printf("  Created: %s\n", idx.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Size: %s\n", formatBytes(indexSize))
		if recommendation != "" {
			fmt.Printf("\n%s\n", recommendation)
		}
	} else {
		outputJSON(result)
	}

	if exitCode != ExitSuccess {
		os.Exit(exitCode)
	}
	return nil
}

// printProgress prints a progress bar to stderr.
func printProgress(current, total int) {
	if total == 0 {
		return
	}
	pct := float64(current) / float64(total) * 100
	barWidth := 30
	filled := int(float64(barWidth) * float64(current) / float64(total))
	bar := ""
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar += "="
		} else if i == filled {
			bar += ">"
		} else {
			bar += " "
		}
	}
	fmt.Fprintf(os.Stderr, "\r[%s] %d/%d (%.0f%%)", bar, current, total, pct)
}
