package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paperdock/paperdock/internal/config"
	"github.com/paperdock/paperdock/internal/harvest"
)

func init() {
	harvestCmd.AddCommand(harvestResumeCmd)
}

// ResumeResponse is the response for the harvest resume command.
type ResumeResponse struct {
	Status       string `json:"status"`
	PagesFetched int    `json:"pages_fetched"`
	FailedPages  int    `json:"failed_pages"`
	Inserted     int    `json:"inserted"`
}

var harvestResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Continue an interrupted harvest",
	Long: `Continue the window described by the resume record.

The record is written when a harvest is interrupted mid-window. On
completion it is discarded; interrupting again rewrites it at the new
offset, so resume can be repeated until the window finishes.`,
	RunE: runHarvestResume,
}

func runHarvestResume(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	if _, err := os.Stat(config.ResumePath(cfg.DataDir)); os.IsNotExist(err) {
		exitWithError(ExitConfigError, "no resume record found\n\nNothing to resume; run 'paperdock harvest' to start a new harvest.")
	}

	db := mustOpenStore(cfg)
	defer db.Close()

	coord := newCoordinator(cfg, db)

	ctx, cancel := interruptibleContext()
	defer cancel()

	res, err := coord.Resume(ctx)

	status := "complete"
	if res.Status != harvest.WindowCompleted {
		status = "interrupted"
	}

	if humanOutput {
		fmt.Printf("Resume %s: %d pages fetched, %d failed, %d papers inserted\n",
			status, res.PagesFetched, res.FailedPages, res.Inserted)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\n%v\n", err)
		}
	} else {
		outputJSON(ResumeResponse{
			Status:       status,
			PagesFetched: res.PagesFetched,
			FailedPages:  res.FailedPages,
			Inserted:     res.Inserted,
		})
	}

	if res.Status != harvest.WindowCompleted {
		os.Exit(ExitDataError)
	}
	return nil
}
