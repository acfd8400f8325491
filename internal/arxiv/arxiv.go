// Package arxiv provides a client for the arXiv search API.
package arxiv

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Entry is one parsed catalog entry from a search response.
type Entry struct {
	Title        string
	ArxivID      string // external identifier, last path segment of the entry id URL
	Published    time.Time
	Updated      time.Time
	Summary      string
	Authors      []string
	Categories   []string
	PDFLink      string
	AbstractLink string
	ArxivLink    string
}

// TotalUnknown is the sentinel value reported when a response carries no
// totalResults element. Callers must treat it as retryable and distinct
// from a genuine zero-result window.
const TotalUnknown = -1

// Result is the outcome of one page request.
type Result struct {
	// Total is the server-reported result count for the whole window,
	// or TotalUnknown when the response omitted it.
	Total   int
	Entries []Entry
}

// Window describes one paginated query against the catalog: a category
// set, an inclusive submitted-date range, and a page position.
type Window struct {
	Categories []string
	Start      time.Time
	End        time.Time
	Offset     int
	PageSize   int
}

// dateFormat is the lexical timestamp format the query grammar requires.
const dateFormat = "20060102150405"

// Query renders the window's search expression. A single category yields
// `cat:C AND submittedDate:[S TO E]`; multiple categories are wrapped in
// parentheses around the OR chain because AND binds tighter than OR in
// the API's grammar.
func (w Window) Query() string {
	var b strings.Builder

	switch len(w.Categories) {
	case 0:
		// Callers validate non-empty; render a bare date filter anyway.
	case 1:
		b.WriteString("cat:")
		b.WriteString(w.Categories[0])
		b.WriteString(" AND ")
	default:
		b.WriteString("(")
		for i, c := range w.Categories {
			if i > 0 {
				b.WriteString(" OR ")
			}
			b.WriteString("cat:")
			b.WriteString(c)
		}
		b.WriteString(") AND ")
	}

	b.WriteString("submittedDate:[")
	b.WriteString(w.Start.UTC().Format(dateFormat))
	b.WriteString(" TO ")
	b.WriteString(w.End.UTC().Format(dateFormat))
	b.WriteString("]")

	return b.String()
}

// RawQuery renders the window as the full encoded request query string.
// This is the form recorded in the failed-query log, so a retry pass
// can reissue the exact request.
func (w Window) RawQuery() string {
	q := url.Values{}
	q.Set("search_query", w.Query())
	q.Set("start", strconv.Itoa(w.Offset))
	q.Set("max_results", strconv.Itoa(w.PageSize))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")
	return q.Encode()
}
