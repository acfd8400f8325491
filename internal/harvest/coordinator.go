// Package harvest drives the bulk enumeration of the catalog into the
// paper store: pagination, retries, failure logging, and crash-resume.
package harvest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/paperdock/paperdock/internal/arxiv"
	"github.com/paperdock/paperdock/internal/store"
)

const (
	// DefaultPageSize is how many entries each page request asks for.
	DefaultPageSize = 500

	// DefaultRetryLimit is how many times a page request is attempted
	// before it is recorded as a failed query.
	DefaultRetryLimit = 3

	// DefaultRetryBackoff is the fixed delay between attempts.
	DefaultRetryBackoff = 5 * time.Second
)

// WindowStatus classifies the outcome of harvesting one window.
type WindowStatus int

const (
	// WindowCompleted means the whole window was enumerated; pages
	// that exhausted retries were logged as failed queries but did not
	// stop the window.
	WindowCompleted WindowStatus = iota

	// WindowPartial means the window stopped mid-loop and its state
	// was snapshotted to the resume record.
	WindowPartial

	// WindowFailed means the window's result total could never be
	// learned; nothing was harvested from it.
	WindowFailed
)

func (s WindowStatus) String() string {
	switch s {
	case WindowCompleted:
		return "completed"
	case WindowPartial:
		return "partial"
	case WindowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// WindowResult reports one window's harvest.
type WindowResult struct {
	Status       WindowStatus
	Total        int // last observed total_results, TotalUnknown if never learned
	PagesFetched int
	FailedPages  int
	Inserted     int
}

// Stats aggregates a whole sweep.
type Stats struct {
	WindowsCompleted int
	WindowsPartial   int
	WindowsFailed    int
	PagesFetched     int
	FailedPages      int
	Inserted         int
	Duration         time.Duration
}

// Options configures a Coordinator.
type Options struct {
	PageSize     int
	RetryLimit   int
	RetryBackoff time.Duration
	ResumePath   string
	FailedPath   string
}

// Coordinator walks windows of the catalog sequentially and commits
// each page to the store in one transaction. Requests are deliberately
// serial; the client's rate limiter provides the politeness interval
// the API's usage policy requires.
type Coordinator struct {
	client *arxiv.Client
	db     *store.DB
	opts   Options
	logger *log.Logger
}

// NewCoordinator creates a harvest coordinator.
func NewCoordinator(client *arxiv.Client, db *store.DB, opts Options) *Coordinator {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.RetryLimit <= 0 {
		opts.RetryLimit = DefaultRetryLimit
	}
	return &Coordinator{
		client: client,
		db:     db,
		opts:   opts,
		logger: log.Default(),
	}
}

// SetLogger overrides the destination for progress lines.
func (c *Coordinator) SetLogger(l *log.Logger) {
	c.logger = l
}

// fetchPage requests one page, retrying up to the retry limit with a
// fixed backoff. A page that yields no entries after all attempts is
// treated the same as a transport fault: the empty response may be a
// transient upstream glitch, so it lands in the failed-query log too.
func (c *Coordinator) fetchPage(ctx context.Context, w arxiv.Window) (arxiv.Result, error) {
	var lastErr error

	for attempt := 1; attempt <= c.opts.RetryLimit; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return arxiv.Result{Total: arxiv.TotalUnknown}, ctx.Err()
			case <-time.After(c.opts.RetryBackoff):
			}
		}

		res, err := c.client.Search(ctx, w)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			lastErr = err
			c.logger.Printf("page at offset %d attempt %d/%d failed: %v",
				w.Offset, attempt, c.opts.RetryLimit, err)
			continue
		}
		if len(res.Entries) == 0 {
			lastErr = fmt.Errorf("empty page at offset %d", w.Offset)
			c.logger.Printf("page at offset %d attempt %d/%d returned no entries",
				w.Offset, attempt, c.opts.RetryLimit)
			continue
		}
		return res, nil
	}

	return arxiv.Result{Total: arxiv.TotalUnknown}, fmt.Errorf("retries exhausted: %w", lastErr)
}

// probeTotal learns a window's result count from page 0. Unlike
// fetchPage it accepts an empty page as long as the total is known:
// an empty window is a legitimate answer here.
func (c *Coordinator) probeTotal(ctx context.Context, w arxiv.Window) (arxiv.Result, error) {
	var lastErr error

	for attempt := 1; attempt <= c.opts.RetryLimit; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return arxiv.Result{Total: arxiv.TotalUnknown}, ctx.Err()
			case <-time.After(c.opts.RetryBackoff):
			}
		}

		res, err := c.client.Search(ctx, w)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			lastErr = err
			c.logger.Printf("probe attempt %d/%d failed: %v", attempt, c.opts.RetryLimit, err)
			continue
		}
		if res.Total == arxiv.TotalUnknown {
			lastErr = fmt.Errorf("response without total result count")
			c.logger.Printf("probe attempt %d/%d returned no total", attempt, c.opts.RetryLimit)
			continue
		}
		return res, nil
	}

	return arxiv.Result{Total: arxiv.TotalUnknown}, fmt.Errorf("probe exhausted retries: %w", lastErr)
}

// insertEntries commits one page's entries in a single transaction.
func (c *Coordinator) insertEntries(ctx context.Context, entries []arxiv.Entry) (int, error) {
	papers := make([]store.Paper, len(entries))
	for i, e := range entries {
		papers[i] = store.Paper{
			Title:        e.Title,
			ArxivID:      e.ArxivID,
			Published:    e.Published,
			Updated:      e.Updated,
			Summary:      e.Summary,
			Authors:      e.Authors,
			Categories:   e.Categories,
			PDFLink:      e.PDFLink,
			AbstractLink: e.AbstractLink,
			ArxivLink:    e.ArxivLink,
		}
	}
	return c.db.InsertPapers(ctx, papers)
}

// HarvestWindow fully enumerates one window. The offset in w is where
// enumeration starts, so a window reconstructed from a resume record
// picks up where it stopped.
//
// The returned result classifies the outcome; an error accompanies only
// WindowPartial (the fault that interrupted the loop) and WindowFailed
// (the probe failure).
func (c *Coordinator) HarvestWindow(ctx context.Context, w arxiv.Window) (WindowResult, error) {
	if w.PageSize <= 0 {
		w.PageSize = c.opts.PageSize
	}

	res := WindowResult{Total: arxiv.TotalUnknown}

	c.logger.Printf("window %s: starting at offset %d", w.Query(), w.Offset)

	probe, err := c.probeTotal(ctx, arxiv.Window{
		Categories: w.Categories,
		Start:      w.Start,
		End:        w.End,
		Offset:     w.Offset,
		PageSize:   w.PageSize,
	})
	if err != nil {
		if ctx.Err() != nil {
			// Interrupted, not failed: snapshot for resume.
			return c.snapshot(w, res, err)
		}
		res.Status = WindowFailed
		c.logger.Printf("window %s: abandoned, total unknown after %d attempts",
			w.Query(), c.opts.RetryLimit)
		return res, err
	}

	res.Total = probe.Total
	res.PagesFetched++
	c.logger.Printf("window %s: %d total results", w.Query(), res.Total)

	// The probe page doubles as the first data page.
	n, err := c.insertEntries(ctx, probe.Entries)
	if err != nil {
		return c.snapshot(w, res, fmt.Errorf("inserting page at offset %d: %w", w.Offset, err))
	}
	res.Inserted += n
	w.Offset += w.PageSize

	for w.Offset < res.Total {
		page, err := c.fetchPage(ctx, w)
		if err != nil {
			if ctx.Err() != nil {
				return c.snapshot(w, res, err)
			}

			// Retry budget exhausted: log the query and move past it.
			res.FailedPages++
			c.logger.Printf("window %s: page at offset %d recorded as failed query",
				w.Query(), w.Offset)
			if c.opts.FailedPath != "" {
				if logErr := appendFailedQuery(c.opts.FailedPath, w.RawQuery()); logErr != nil {
					return c.snapshot(w, res, logErr)
				}
			}
			w.Offset += w.PageSize
			continue
		}

		res.PagesFetched++
		if page.Total != arxiv.TotalUnknown {
			// The catalog is live; trust the latest count.
			res.Total = page.Total
		}

		n, err := c.insertEntries(ctx, page.Entries)
		if err != nil {
			return c.snapshot(w, res, fmt.Errorf("inserting page at offset %d: %w", w.Offset, err))
		}
		res.Inserted += n
		c.logger.Printf("window %s: offset %d/%d, inserted %d",
			w.Query(), w.Offset, res.Total, n)

		w.Offset += w.PageSize
	}

	res.Status = WindowCompleted
	c.logger.Printf("window %s: completed, %d pages, %d inserted, %d failed pages",
		w.Query(), res.PagesFetched, res.Inserted, res.FailedPages)
	return res, nil
}

// snapshot records the window's current parameters to the resume file
// and classifies the result as partial.
func (c *Coordinator) snapshot(w arxiv.Window, res WindowResult, cause error) (WindowResult, error) {
	res.Status = WindowPartial
	if c.opts.ResumePath != "" {
		if err := FromWindow(w, res.Total).Save(c.opts.ResumePath); err != nil {
			return res, fmt.Errorf("saving resume record after %v: %w", cause, err)
		}
		c.logger.Printf("window %s: interrupted at offset %d, resume record saved",
			w.Query(), w.Offset)
	}
	return res, cause
}
