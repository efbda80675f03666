// Package embedding turns item text into fixed-size vectors. Text longer than the
// encoder's token budget is split into paragraph chunks whose embeddings are averaged.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
