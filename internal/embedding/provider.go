package embedding

import "context"

// Provider generates embeddings from text. Implementations return one
// unit-L2-norm vector per input string, in input order.
type Provider interface {
	// EmbedBatch generates embeddings for a batch of texts.
	// len(texts) must not exceed MaxBatchSize.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}
