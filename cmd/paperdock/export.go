package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paperdock/paperdock/internal/export"
	"github.com/paperdock/paperdock/internal/store"
)

var (
	exportBibtex bool
	exportIDs    string
)

func init() {
	exportCmd.Flags().BoolVar(&exportBibtex, "bibtex", false, "Export to BibTeX format")
	exportCmd.Flags().StringVar(&exportIDs, "ids", "", "Export only specified paper ids (comma-separated)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export papers to BibTeX format",
	Long: `Export papers to BibTeX format.

Examples:
  paperdock export --bibtex
  paperdock export --bibtex --ids 12,47
  paperdock export --bibtex > papers.bib`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !exportBibtex {
		exitWithError(ExitError, "--bibtex flag is required")
	}

	cfg := mustLoadConfig()
	db := mustOpenStore(cfg)
	defer db.Close()

	var papers []store.Paper

	if exportIDs != "" {
		var ids []int64
		for _, raw := range strings.Split(exportIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				exitWithError(ExitError, "invalid paper id %q", raw)
			}
			ids = append(ids, id)
		}
		var err error
		papers, err = db.PapersByIDs(ctx, ids)
		if err != nil {
			exitWithError(ExitError, "looking up papers: %v", err)
		}
		if len(papers) != len(ids) {
			exitWithError(ExitError, "some ids were not found (%d requested, %d found)", len(ids), len(papers))
		}
	} else {
		var err error
		papers, err = db.AllPapers(ctx)
		if err != nil {
			exitWithError(ExitError, "listing papers: %v", err)
		}
	}

	// BibTeX is always text output, never JSON.
	fmt.Print(export.ToBibTeXList(papers))

	return nil
}
