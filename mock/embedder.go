package mock

import (
	"context"

	"github.com/fwojciec/docdex"
)

var _ docdex.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of docdex.Embedder.
type Embedder struct {
	EmbedFn      func(ctx context.Context, text string) ([]float32, error)
	EmbedBatchFn func(ctx context.Context, texts []string) ([][]float32, error)
	ModelFn      func() string
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.EmbedFn(ctx, text)
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedBatchFn(ctx, texts)
}

func (e *Embedder) Model() string {
	if e.ModelFn == nil {
		return "mock-embedding-model"
	}
	return e.ModelFn()
}
