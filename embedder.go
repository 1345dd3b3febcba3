package docdex

import "context"

// Embedder converts text into fixed-dimensionality embedding vectors.
// Implementations wrap external embedding models; the model's internals are
// a black box to this package.
type Embedder interface {
	// Embed returns the embedding of a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one embedding per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model identifies the underlying embedding model.
	Model() string
}
