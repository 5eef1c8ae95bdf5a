package rag

import "context"

// Embedder maps text to fixed-dimension vectors. Implementations must return
// one vector per input, in input order, and must fail with a
// ModelUnavailableError when the backing model cannot be reached instead of
// returning empty or zero vectors. Batch and single-item embedding of the
// same text are numerically equivalent.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Healthy(ctx context.Context) error
}
