// Package retry provides an Embedder decorator that retries transient
// failures of the underlying embedding API with exponential backoff.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docdex"
)

var _ docdex.Embedder = (*Embedder)(nil)

// DefaultDelays returns the backoff delays between attempts: 1s, 2s, 4s.
func DefaultDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// Embedder wraps another Embedder and retries failed calls. With N delays a
// call is attempted N+1 times before the last error is returned.
type Embedder struct {
	next   docdex.Embedder
	delays []time.Duration
	logger *slog.Logger
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithDelays overrides the backoff schedule. Useful for tests.
func WithDelays(delays []time.Duration) Option {
	return func(e *Embedder) {
		e.delays = delays
	}
}

// WithLogger attaches a logger recording each retry attempt.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Embedder) {
		e.logger = logger
	}
}

// NewEmbedder wraps next with retry behavior.
func NewEmbedder(next docdex.Embedder, opts ...Option) *Embedder {
	e := &Embedder{
		next:   next,
		delays: DefaultDelays(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model identifies the underlying embedding model.
func (e *Embedder) Model() string {
	return e.next.Model()
}

// Embed returns the embedding of a single text, retrying on failure.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := e.retry(ctx, "embed", func() error {
		var err error
		vec, err = e.next.Embed(ctx, text)
		return err
	})
	return vec, err
}

// EmbedBatch returns one embedding per input text, retrying on failure.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := e.retry(ctx, "embed batch", func() error {
		var err error
		vecs, err = e.next.EmbedBatch(ctx, texts)
		return err
	})
	return vecs, err
}

func (e *Embedder) retry(ctx context.Context, op string, fn func() error) error {
	maxAttempts := len(e.delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}

		if e.logger != nil {
			e.logger.Warn("retrying "+op, "attempt", attempt+2, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.delays[attempt]):
		}
	}

	return lastErr
}
