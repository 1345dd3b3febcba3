// Package gemini provides an Embedder implementation backed by the Google
// Gemini embeddings API.
package gemini

import (
	"context"

	"github.com/fwojciec/docdex"
	"google.golang.org/genai"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "gemini-embedding-001"

// Ensure Embedder implements docdex.Embedder at compile time.
var _ docdex.Embedder = (*Embedder)(nil)

// Embedder generates embeddings using Google Gemini.
type Embedder struct {
	client *genai.Client
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

// NewEmbedder creates a new Embedder.
func NewEmbedder(client *genai.Client, opts ...Option) *Embedder {
	e := &Embedder{client: client, model: DefaultModel}
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

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, "user"))
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, docdex.Errorf(docdex.EINTERNAL, "gemini returned nil result")
	}
	if len(result.Embeddings) != len(texts) {
		return nil, docdex.Errorf(docdex.EINTERNAL, "gemini returned %d embeddings for %d inputs", len(result.Embeddings), len(texts))
	}

	vecs := make([][]float32, 0, len(texts))
	for _, emb := range result.Embeddings {
		vecs = append(vecs, emb.Values)
	}

	return vecs, nil
}
