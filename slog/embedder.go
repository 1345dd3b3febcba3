package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docdex"
)

// Ensure Embedder implements docdex.Embedder at compile time.
var _ docdex.Embedder = (*Embedder)(nil)

// Embedder wraps a docdex.Embedder with debug logging of call volume and
// latency.
type Embedder struct {
	next   docdex.Embedder
	logger *slog.Logger
}

// NewEmbedder creates a new logging Embedder decorator.
func NewEmbedder(next docdex.Embedder, logger *slog.Logger) *Embedder {
	return &Embedder{next: next, logger: logger}
}

// Model delegates to the wrapped embedder.
func (e *Embedder) Model() string {
	return e.next.Model()
}

// Embed delegates to the wrapped embedder and logs the outcome.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	begin := time.Now()
	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		e.logger.Error("embedding failed",
			"model", e.next.Model(),
			"duration", time.Since(begin),
			"error", err,
		)
		return nil, err
	}
	e.logger.Debug("embedded text",
		"model", e.next.Model(),
		"dimensions", len(vec),
		"duration", time.Since(begin),
	)
	return vec, nil
}

// EmbedBatch delegates to the wrapped embedder and logs the outcome.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	begin := time.Now()
	vecs, err := e.next.EmbedBatch(ctx, texts)
	if err != nil {
		e.logger.Error("embedding batch failed",
			"model", e.next.Model(),
			"batch", len(texts),
			"duration", time.Since(begin),
			"error", err,
		)
		return nil, err
	}
	e.logger.Debug("embedded batch",
		"model", e.next.Model(),
		"batch", len(texts),
		"duration", time.Since(begin),
	)
	return vecs, nil
}
