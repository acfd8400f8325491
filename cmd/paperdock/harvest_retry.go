package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	harvestCmd.AddCommand(harvestRetryCmd)
}

// RetryResponse is the response for the harvest retry command.
type RetryResponse struct {
	Status    string `json:"status"`
	Queries   int    `json:"queries"`
	Recovered int    `json:"recovered"`
	StillBad  int    `json:"still_failing"`
	Inserted  int    `json:"inserted"`
}

var harvestRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Reissue queries from the failed-query log",
	Long: `Reissue every query in the failed-query log verbatim.

Recovered queries are dropped from the log, queries that fail again are
kept, so the pass is safe to repeat. Replayed pages that were partially
inserted before do not create duplicates.`,
	RunE: runHarvestRetry,
}

func runHarvestRetry(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	db := mustOpenStore(cfg)
	defer db.Close()

	coord := newCoordinator(cfg, db)

	ctx, cancel := interruptibleContext()
	defer cancel()

	stats, err := coord.RetryFailed(ctx)
	if err != nil && ctx.Err() == nil {
		exitWithError(ExitError, "retry pass: %v", err)
	}

	status := "complete"
	if ctx.Err() != nil {
		status = "interrupted"
	}

	if humanOutput {
		if stats.Queries == 0 {
			fmt.Println("No failed queries logged.")
		} else {
			fmt.Printf("Retry %s: %d queries, %d recovered, %d still failing, %d papers inserted\n",
				status, stats.Queries, stats.Recovered, stats.StillBad, stats.Inserted)
		}
	} else {
		outputJSON(RetryResponse{
			Status:    status,
			Queries:   stats.Queries,
			Recovered: stats.Recovered,
			StillBad:  stats.StillBad,
			Inserted:  stats.Inserted,
		})
	}

	if stats.StillBad > 0 {
		os.Exit(ExitDataError)
	}
	return nil
}
