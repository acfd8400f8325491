package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/paperdock/paperdock/internal/arxiv"
	"github.com/paperdock/paperdock/internal/config"
	"github.com/paperdock/paperdock/internal/harvest"
	"github.com/paperdock/paperdock/internal/store"
)

var (
	harvestFrom       string
	harvestTo         string
	harvestCategories []string
	harvestPageSize   int
)

func init() {
	// Load .env file if present (for proxy settings and the like).
	_ = godotenv.Load()

	rootCmd.AddCommand(harvestCmd)

	harvestCmd.Flags().StringVar(&harvestFrom, "from", "", "Start of the date range (YYYY-MM-DD, required)")
	harvestCmd.Flags().StringVar(&harvestTo, "to", "", "End of the date range (YYYY-MM-DD, default today)")
	harvestCmd.Flags().StringSliceVar(&harvestCategories, "category", nil, "Categories to harvest (default from config)")
	harvestCmd.Flags().IntVar(&harvestPageSize, "page-size", 0, "Results per request (default from config)")
}

// HarvestResponse is the response for the harvest command.
type HarvestResponse struct {
	Status           string  `json:"status"`
	WindowsCompleted int     `json:"windows_completed"`
	WindowsFailed    int     `json:"windows_failed"`
	PagesFetched     int     `json:"pages_fetched"`
	FailedPages      int     `json:"failed_pages"`
	Inserted         int     `json:"inserted"`
	DurationSeconds  float64 `json:"duration_seconds"`
}

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest a date range of the arXiv catalog",
	Long: `Harvest a date range of the arXiv catalog into the local database.

The range is split into fixed-length windows harvested oldest first.
Requests are paced to respect the arXiv API usage policy, so large
ranges take a while. Interrupting the run (Ctrl-C) leaves a resume
record; continue later with 'paperdock harvest resume'. Pages that
failed all their retries are logged for 'paperdock harvest retry'.`,
	RunE: runHarvest,
}

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	if harvestFrom == "" {
		exitWithError(ExitError, "--from is required")
	}
	from, err := time.Parse("2006-01-02", harvestFrom)
	if err != nil {
		exitWithError(ExitError, "invalid --from date: %v", err)
	}
	to := time.Now().UTC().Truncate(24 * time.Hour)
	if harvestTo != "" {
		to, err = time.Parse("2006-01-02", harvestTo)
		if err != nil {
			exitWithError(ExitError, "invalid --to date: %v", err)
		}
	}
	if !from.Before(to) {
		exitWithError(ExitError, "--from must be before --to")
	}

	categories := cfg.Harvest.Categories
	if len(harvestCategories) > 0 {
		categories = harvestCategories
	}
	if len(categories) == 0 {
		exitWithError(ExitConfigError, "no categories configured; pass --category or set harvest.categories")
	}

	db := mustOpenStore(cfg)
	defer db.Close()

	coord := newCoordinator(cfg, db)

	ctx, cancel := interruptibleContext()
	defer cancel()

	windowLen := time.Duration(cfg.Harvest.WindowDays) * 24 * time.Hour
	stats, err := coord.Sweep(ctx, categories, from, to, windowLen)
	reportHarvest(stats, err)
	return nil
}

// newCoordinator assembles the harvest coordinator from config.
func newCoordinator(cfg *config.Config, db *store.DB) *harvest.Coordinator {
	client := arxiv.NewClient(arxiv.WithRequestInterval(cfg.Harvest.RequestInterval))

	pageSize := cfg.Harvest.PageSize
	if harvestPageSize > 0 {
		pageSize = harvestPageSize
	}

	return harvest.NewCoordinator(client, db, harvest.Options{
		PageSize:     pageSize,
		RetryLimit:   cfg.Harvest.RetryLimit,
		RetryBackoff: cfg.Harvest.RetryBackoff,
		ResumePath:   config.ResumePath(cfg.DataDir),
		FailedPath:   config.FailedPath(cfg.DataDir),
	})
}

// interruptibleContext returns a context cancelled by SIGINT/SIGTERM,
// which lets an interrupted window write its resume record.
func interruptibleContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// reportHarvest prints sweep statistics and exits non-zero when the
// sweep was cut short.
func reportHarvest(stats harvest.Stats, err error) {
	status := "complete"
	if stats.WindowsPartial > 0 {
		status = "interrupted"
	}

	if humanOutput {
		fmt.Printf("\nHarvest %s:\n", status)
		fmt.Printf("  Windows completed: %d\n", stats.WindowsCompleted)
		fmt.Printf("  Windows failed: %d\n", stats.WindowsFailed)
		fmt.Printf("  Pages fetched: %d\n", stats.PagesFetched)
		fmt.Printf("  Failed pages: %d\n", stats.FailedPages)
		fmt.Printf("  Papers inserted: %d\n", stats.Inserted)
		fmt.Printf("  Time elapsed: %s\n", formatDuration(stats.Duration))
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nInterrupted: %v\nContinue with 'paperdock harvest resume'.\n", err)
		}
	} else {
		outputJSON(HarvestResponse{
			Status:           status,
			WindowsCompleted: stats.WindowsCompleted,
			WindowsFailed:    stats.WindowsFailed,
			PagesFetched:     stats.PagesFetched,
			FailedPages:      stats.FailedPages,
			Inserted:         stats.Inserted,
			DurationSeconds:  stats.Duration.Seconds(),
		})
	}

	if stats.WindowsPartial > 0 {
		os.Exit(ExitDataError)
	}
}
