package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/paperdock/paperdock/internal/config"
	"github.com/paperdock/paperdock/internal/embedding"
	"github.com/paperdock/paperdock/internal/semantic"
	"github.com/paperdock/paperdock/internal/store"
)

// Title truncation length for search result summaries.
const SearchTitleMaxLen = 70

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PaperSearchResult represents a paper in similarity results.
type PaperSearchResult struct {
	ID        int64    `json:"id"`
	ArxivID   string   `json:"arxiv_id"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Published string   `json:"published"`
	Distance  float32  `json:"distance"`
	Summary   string   `json:"summary,omitempty"`
}

// mustLoadConfig loads the config for the resolved data directory.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(getDataDir())
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenStore opens the paper database under the data directory.
func mustOpenStore(cfg *config.Config) *store.DB {
	db, err := store.Open(config.DBPath(cfg.DataDir))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustLoadIndex loads the semantic index or exits with guidance.
func mustLoadIndex(cfg *config.Config) *semantic.Index {
	idx, err := semantic.Load(cfg.DataDir)
	if err != nil {
		if err == semantic.ErrIndexNotFound {
			exitWithError(ExitConfigError, "Semantic index not found\n\nRun 'paperdock index build' to create the index.")
		}
		exitWithError(ExitError, "loading index: %v", err)
	}
	return idx
}

// newProvider builds the Ollama provider from config.
func newProvider(cfg *config.Config) *embedding.OllamaProvider {
	return embedding.NewOllamaProvider(
		embedding.WithBaseURL(cfg.Ollama.URL),
		embedding.WithModel(cfg.Ollama.Model),
		embedding.WithDimensions(cfg.Ollama.Dimensions),
	)
}

// buildSearchResults joins index matches back to stored papers. Papers
// that were deleted after indexing are silently skipped so the listing
// degrades instead of failing.
func buildSearchResults(matches []semantic.Match, papers []store.Paper, includeSummary bool) []PaperSearchResult {
	byID := make(map[int64]store.Paper, len(papers))
	for _, p := range papers {
		byID[p.ID] = p
	}

	results := make([]PaperSearchResult, 0, len(matches))
	for _, m := range matches {
		p, ok := byID[m.ID]
		if !ok {
			continue
		}
		r := PaperSearchResult{
			ID:        p.ID,
			ArxivID:   p.ArxivID,
			Title:     p.Title,
			Authors:   p.Authors,
			Published: p.Published.Format("2006-01-02"),
			Distance:  m.Distance,
		}
		if includeSummary {
			r.Summary = p.Summary
		}
		results = append(results, r)
	}
	return results
}

// printSearchResultsHuman prints similarity results in human-readable format.
func printSearchResultsHuman(results []PaperSearchResult) {
	for i, r := range results {
		fmt.Printf("%d. [%.3f] %s\n", i+1, r.Distance, r.ArxivID)
		fmt.Printf("   %s\n", truncateString(r.Title, SearchTitleMaxLen))
		fmt.Printf("   %s (%s)\n\n", formatAuthorsShort(r.Authors, 3), r.Published)
	}
}

// truncateString shortens a string to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatAuthorsShort formats an author list, truncating after max names.
func formatAuthorsShort(authors []string, max int) string {
	if len(authors) == 0 {
		return "unknown"
	}
	if len(authors) <= max {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:max], ", ") + " et al."
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// formatBytes formats bytes in a human-readable way.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
