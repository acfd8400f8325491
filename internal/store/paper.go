// Package store persists harvested papers in SQLite.
package store

import (
	"strings"
	"time"
)

// Paper is one catalog entry. ID is assigned by the store on insert and
// is the join key into the similarity index.
type Paper struct {
	ID           int64
	Title        string
	ArxivID      string
	Published    time.Time
	Updated      time.Time
	Summary      string
	Authors      []string
	Categories   []string
	PDFLink      string
	AbstractLink string
	ArxivLink    string
}

// Summary rows feed the similarity index build.
type PaperSummary struct {
	ID      int64
	Summary string
}

// joinList and splitList convert between the domain's string slices and
// the denormalized comma-joined columns at the storage boundary.
func joinList(items []string) string {
	return strings.Join(items, ", ")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
