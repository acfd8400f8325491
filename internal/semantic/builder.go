package semantic

import (
	"context"
	"fmt"
	"time"

	"github.com/paperdock/paperdock/internal/embedding"
	"github.com/paperdock/paperdock/internal/store"
)

// MinSummaryLength is the minimum abstract length (in characters) to
// index. Shorter abstracts lack enough semantic content for a reliable
// embedding.
const MinSummaryLength = 50

// ProgressReporter receives progress updates during index building.
type ProgressReporter interface {
	// OnProgress is called with the current progress.
	OnProgress(current, total int)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(current, total int)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(current, total int) {
	f(current, total)
}

// BuildStats contains statistics from index building.
type BuildStats struct {
	PapersIndexed  int           `json:"papers_indexed"`
	PapersSkipped  int           `json:"papers_skipped"`
	Duration       time.Duration `json:"duration"`
	IndexSizeBytes int64         `json:"index_size_bytes"`
}

// Builder constructs the similarity index from stored paper abstracts.
// A build is a full rebuild: the whole corpus is embedded and a fresh
// graph is grown to exactly the input size plus the headroom.
type Builder struct {
	provider embedding.Provider
	db       *store.DB
	params   Params
	headroom int
	progress ProgressReporter
}

// NewBuilder creates a new index builder.
func NewBuilder(provider embedding.Provider, db *store.DB) *Builder {
	return &Builder{
		provider: provider,
		db:       db,
		params:   DefaultParams,
	}
}

// SetParams overrides the graph construction parameters.
func (b *Builder) SetParams(p Params) {
	b.params = p
}

// SetHeadroom declares extra capacity above the current corpus size.
// The graph cannot grow past its declared capacity, so headroom is the
// only way to leave room for later additions.
func (b *Builder) SetHeadroom(n int) {
	b.headroom = n
}

// SetProgressReporter sets the progress reporter for the builder.
func (b *Builder) SetProgressReporter(reporter ProgressReporter) {
	b.progress = reporter
}

// Build embeds every stored abstract and grows the index over the
// resulting (id, vector) pairs.
func (b *Builder) Build(ctx context.Context) (*Index, *BuildStats, error) {
	startTime := time.Now()

	summaries, err := b.db.SummariesForIndex(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing summaries: %w", err)
	}

	stats := &BuildStats{}

	eligible := summaries[:0]
	for _, s := range summaries {
		if len(s.Summary) < MinSummaryLength {
			stats.PapersSkipped++
			continue
		}
		eligible = append(eligible, s)
	}

	idx := NewIndex(b.provider.ModelName(), b.provider.Dimensions(),
		len(eligible)+b.headroom, b.params)

	total := len(eligible)
	for start := 0; start < total; start += embedding.MaxBatchSize {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		end := start + embedding.MaxBatchSize
		if end > total {
			end = total
		}
		batch := eligible[start:end]

		texts := make([]string, len(batch))
		for i, s := range batch {
			texts[i] = s.Summary
		}

		vectors, err := b.provider.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, nil, fmt.Errorf("embedding batch at %d: %w", start, err)
		}

		for i, v := range vectors {
			if err := idx.Add(batch[i].ID, v); err != nil {
				return nil, nil, fmt.Errorf("adding paper %d: %w", batch[i].ID, err)
			}
		}

		if b.progress != nil {
			b.progress.OnProgress(end, total)
		}
	}

	stats.PapersIndexed = idx.PaperCount
	stats.Duration = time.Since(startTime)

	idx.SkippedCount = stats.PapersSkipped
	idx.BuildDurationMs = stats.Duration.Milliseconds()

	return idx, stats, nil
}
