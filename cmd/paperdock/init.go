package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paperdock/paperdock/internal/config"
	"github.com/paperdock/paperdock/internal/store"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a paperdock data directory",
	Long: `Initialize a paperdock data directory.

Creates:
  <data-dir>/
  ├── config.yml      # Default config
  └── papers.db       # Empty paper database`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dataDir := getDataDir()

	if _, err := os.Stat(config.ConfigPath(dataDir)); err == nil {
		exitWithError(ExitError, "directory already contains a paperdock config")
	}

	cfg := config.Default()
	cfg.DataDir = dataDir
	if err := cfg.Save(dataDir); err != nil {
		exitWithError(ExitError, "creating config.yml: %v", err)
	}

	// Creating the database applies the schema.
	db, err := store.Open(config.DBPath(dataDir))
	if err != nil {
		exitWithError(ExitError, "creating database: %v", err)
	}
	db.Close()

	if humanOutput {
		fmt.Printf("Initialized paperdock data directory in %s\n", dataDir)
	} else {
		outputJSON(StatusResponse{
			Status: "initialized",
			Path:   dataDir,
		})
	}

	return nil
}
