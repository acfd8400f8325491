// Package main provides the paperdock CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// dataDirFlag overrides the data directory for all commands
var dataDirFlag string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "paperdock",
	Short: "arXiv paper harvester with semantic search",
	Long: `paperdock harvests the arXiv catalog into a local SQLite database
and builds a semantic similarity index over paper abstracts.

Harvests are resumable: an interrupted run leaves a resume record that
'paperdock harvest resume' picks up, and pages that failed all their
retries are logged for 'paperdock harvest retry'. All commands output
JSON by default for easy integration with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (default $PAPERDOCK_DATA or .)")
	rootCmd.Version = Version
}

// getDataDir resolves the data directory: flag, then environment, then
// the current directory.
func getDataDir() string {
	if dataDirFlag != "" {
		return dataDirFlag
	}
	if dir := os.Getenv("PAPERDOCK_DATA"); dir != "" {
		return dir
	}
	return "."
}
