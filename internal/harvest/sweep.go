package harvest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/paperdock/paperdock/internal/arxiv"
)

// DefaultWindowLength splits a sweep into quarterly sub-windows.
const DefaultWindowLength = 90 * 24 * time.Hour

// SplitWindows cuts [from, to) into consecutive sub-windows of at most
// windowLen, oldest first. Sub-windows are independent: the sweep runs
// each on its own and one failure does not block the next.
func SplitWindows(categories []string, from, to time.Time, windowLen time.Duration, pageSize int) []arxiv.Window {
	if windowLen <= 0 {
		windowLen = DefaultWindowLength
	}

	var windows []arxiv.Window
	for start := from; start.Before(to); start = start.Add(windowLen) {
		end := start.Add(windowLen)
		if end.After(to) {
			end = to
		}
		windows = append(windows, arxiv.Window{
			Categories: categories,
			Start:      start,
			End:        end,
			PageSize:   pageSize,
		})
	}
	return windows
}

// Sweep harvests a full category set across a date range, one
// sub-window at a time.
func (c *Coordinator) Sweep(ctx context.Context, categories []string, from, to time.Time, windowLen time.Duration) (Stats, error) {
	startTime := time.Now()
	stats := Stats{}

	windows := SplitWindows(categories, from, to, windowLen, c.opts.PageSize)
	c.logger.Printf("sweep: %d windows over %s to %s",
		len(windows), from.Format("2006-01-02"), to.Format("2006-01-02"))

	for _, w := range windows {
		res, err := c.HarvestWindow(ctx, w)

		stats.PagesFetched += res.PagesFetched
		stats.FailedPages += res.FailedPages
		stats.Inserted += res.Inserted

		switch res.Status {
		case WindowCompleted:
			stats.WindowsCompleted++
		case WindowPartial:
			stats.WindowsPartial++
			// The loop was interrupted, not just this window.
			stats.Duration = time.Since(startTime)
			return stats, err
		case WindowFailed:
			stats.WindowsFailed++
			// Independent windows: move on to the next.
		}
	}

	stats.Duration = time.Since(startTime)
	c.logger.Printf("sweep: done, %d completed, %d failed, %d inserted in %s",
		stats.WindowsCompleted, stats.WindowsFailed, stats.Inserted, stats.Duration.Round(time.Second))
	return stats, nil
}

// Resume re-invokes the window described by the resume record, starting
// at its saved offset. On completion the record is discarded.
func (c *Coordinator) Resume(ctx context.Context) (WindowResult, error) {
	record, err := LoadResumeRecord(c.opts.ResumePath)
	if err != nil {
		return WindowResult{}, fmt.Errorf("loading resume record: %w", err)
	}

	c.logger.Printf("resuming window %s at offset %d", record.Window().Query(), record.Offset)

	res, err := c.HarvestWindow(ctx, record.Window())
	if res.Status == WindowCompleted {
		if rmErr := os.Remove(c.opts.ResumePath); rmErr != nil && !os.IsNotExist(rmErr) {
			return res, fmt.Errorf("discarding resume record: %w", rmErr)
		}
	}
	return res, err
}

// RetryStats reports one retry pass over the failed-query log.
type RetryStats struct {
	Queries   int
	Recovered int
	StillBad  int
	Inserted  int
}

// RetryFailed reissues every logged failed query verbatim and inserts
// whatever comes back. Queries that fail again are kept in the log;
// recovered ones are dropped, so the pass is safe to run repeatedly.
func (c *Coordinator) RetryFailed(ctx context.Context) (RetryStats, error) {
	queries, err := readFailedQueries(c.opts.FailedPath)
	if err != nil {
		return RetryStats{}, err
	}

	stats := RetryStats{Queries: len(queries)}
	if len(queries) == 0 {
		return stats, nil
	}

	c.logger.Printf("retry pass: %d failed queries", len(queries))

	var stillFailing []string
	for i, q := range queries {
		res, err := c.client.SearchRaw(ctx, q)
		if err != nil || len(res.Entries) == 0 {
			if ctx.Err() != nil {
				// Interrupted: keep this and everything not yet tried.
				stillFailing = append(stillFailing, queries[i:]...)
				break
			}
			c.logger.Printf("retry pass: query %q still failing", q)
			stillFailing = append(stillFailing, q)
			stats.StillBad++
			continue
		}

		n, err := c.insertEntries(ctx, res.Entries)
		if err != nil {
			return stats, fmt.Errorf("inserting recovered page: %w", err)
		}
		stats.Recovered++
		stats.Inserted += n
		c.logger.Printf("retry pass: query %q recovered, %d inserted", q, n)
	}

	if err := writeFailedQueries(c.opts.FailedPath, stillFailing); err != nil {
		return stats, err
	}

	return stats, ctx.Err()
}
