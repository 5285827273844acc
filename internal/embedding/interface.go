package embedding

import "context"

// Embedding is the capability of mapping text to a fixed-dimension float
// vector. All implementations backing the same store must agree on the
// dimension.
type Embedding interface {
	// Embed generates the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for a batch of texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
