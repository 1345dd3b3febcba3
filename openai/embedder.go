// Package openai provides an Embedder implementation backed by the OpenAI
// embeddings API.
package openai

import (
	"context"

	"github.com/fwojciec/docdex"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

// Ensure Embedder implements docdex.Embedder at compile time.
var _ docdex.Embedder = (*Embedder)(nil)

// Embedder generates embeddings using the OpenAI API (or an
// OpenAI-compatible endpoint).
type Embedder struct {
	client *openai.Client
	model  string
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithModel sets the embedding model. Defaults to DefaultModel.
func WithModel(model string) Option {
	return func(e *Embedder) {
		e.model = model
	}
}

// NewEmbedder creates a new Embedder using the given API key.
func NewEmbedder(apiKey string, opts ...Option) *Embedder {
	e := &Embedder{
		client: openai.NewClient(apiKey),
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEmbedderWithConfig creates a new Embedder with a custom client
// configuration (alternate base URL, Azure endpoints, test servers).
func NewEmbedderWithConfig(cfg openai.ClientConfig, opts ...Option) *Embedder {
	e := &Embedder{
		client: openai.NewClientWithConfig(cfg),
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model identifies the underlying embedding model.
func (e *Embedder) Model() string {
	return e.model
}

// Embed returns the embedding of a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one embedding per input text, in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, docdex.Errorf(docdex.EINVALID, "no texts to embed")
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, docdex.Errorf(docdex.EINTERNAL, "embedding API returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	// The API is documented to preserve input order, but Index is
	// authoritative.
	vecs := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vecs) {
			return nil, docdex.Errorf(docdex.EINTERNAL, "embedding API returned out-of-range index %d", item.Index)
		}
		vecs[item.Index] = item.Embedding
	}

	return vecs, nil
}
