package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/docdex"
	"golang.org/x/sync/errgroup"
)

// Builder defaults.
const (
	// DefaultBatchSize is the number of chunks embedded per call to the
	// embedding function.
	DefaultBatchSize = 100

	// DefaultMaxAge is the staleness window: a build older than this is
	// due for a rebuild.
	DefaultMaxAge = 24 * time.Hour

	// DefaultConcurrency is the concurrent document fetch limit.
	DefaultConcurrency = 10
)

// Builder orchestrates index construction: corpus enumeration, per-document
// parse and chunk, batched embedding, persistence, and the atomic table
// swap. At most one build runs at a time; a build request while one is in
// flight attaches to it instead of starting another.
type Builder struct {
	Source   docdex.Source
	Chunker  *docdex.Chunker
	Embedder docdex.Embedder
	Store    docdex.IndexStore
	Logger   *slog.Logger

	BatchSize   int
	MaxAge      time.Duration
	Concurrency int

	// Now overrides the time source. Used in tests.
	Now func() time.Time

	mu      sync.Mutex
	state   docdex.IndexState
	failure string
	done    chan struct{}

	table atomic.Pointer[Table]
}

// docChunks holds the chunks produced from one corpus document.
type docChunks struct {
	path   string
	chunks []*docdex.Chunk
	err    error
}

// Table returns the current ready snapshot, or nil if no build has
// completed and nothing was loaded.
func (b *Builder) Table() *Table {
	return b.table.Load()
}

// Load restores the persisted index without rebuilding. Returns ENOTFOUND
// if no index has ever been saved.
func (b *Builder) Load(ctx context.Context) error {
	rows, builtAt, err := b.Store.LoadIndex(ctx)
	if err != nil {
		return err
	}

	model := ""
	if b.Embedder != nil {
		model = b.Embedder.Model()
	}
	b.table.Store(&Table{Rows: rows, BuiltAt: builtAt, Model: model})

	b.mu.Lock()
	b.state = docdex.StateReady
	b.failure = ""
	b.mu.Unlock()

	return nil
}

// NeedsRebuild reports whether a rebuild is due: no prior build timestamp
// exists, or the most recent build is older than MaxAge. The check is
// advisory; Refresh may always be invoked regardless.
func (b *Builder) NeedsRebuild(ctx context.Context) bool {
	builtAt, err := b.Store.LastBuildTime(ctx)
	if err != nil {
		return true
	}

	maxAge := b.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return b.now().Sub(builtAt) > maxAge
}

// Refresh builds the index synchronously. If a build is already in flight,
// Refresh waits for it and returns its outcome instead of starting another.
func (b *Builder) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if b.state == docdex.StateBuilding {
		done := b.done
		b.mu.Unlock()

		select {
		case <-done:
			return b.buildOutcome()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	b.begin()
	b.mu.Unlock()

	return b.run(ctx)
}

// Start triggers a background build. A no-op while a build is in flight.
func (b *Builder) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == docdex.StateBuilding {
		return
	}
	b.begin()

	go func() { _ = b.run(ctx) }()
}

// Status reports the index lifecycle state with detail fields.
func (b *Builder) Status() docdex.IndexStatus {
	b.mu.Lock()
	state, failure := b.state, b.failure
	b.mu.Unlock()

	switch state {
	case docdex.StateReady:
		t := b.table.Load()
		if t == nil {
			break
		}
		return docdex.IndexStatus{
			State:       docdex.StateReady,
			Message:     fmt.Sprintf("index ready with %d chunks from %d documents", len(t.Rows), t.TotalDocs()),
			TotalChunks: len(t.Rows),
			TotalDocs:   t.TotalDocs(),
			Model:       t.Model,
			BuiltAt:     t.BuiltAt,
		}
	case docdex.StateBuilding:
		return docdex.IndexStatus{
			State:   docdex.StateBuilding,
			Message: "building embeddings in background",
		}
	case docdex.StateFailed:
		return docdex.IndexStatus{
			State:   docdex.StateFailed,
			Message: failure,
		}
	}

	return docdex.IndexStatus{
		State:   docdex.StateNotStarted,
		Message: "index not initialized",
	}
}

// begin transitions to the building state. Callers must hold b.mu.
func (b *Builder) begin() {
	b.state = docdex.StateBuilding
	b.done = make(chan struct{})
}

// run executes one build and records its outcome. A failed build leaves the
// previously visible table untouched.
func (b *Builder) run(ctx context.Context) error {
	err := b.build(ctx)

	b.mu.Lock()
	if err != nil {
		b.state = docdex.StateFailed
		b.failure = err.Error()
	} else {
		b.state = docdex.StateReady
		b.failure = ""
	}
	close(b.done)
	b.mu.Unlock()

	return err
}

// buildOutcome returns the error recorded by the most recent completed
// build, for callers that attached to an in-flight one.
func (b *Builder) buildOutcome() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == docdex.StateFailed {
		return docdex.Errorf(docdex.EINTERNAL, "%s", b.failure)
	}
	return nil
}

func (b *Builder) build(ctx context.Context) error {
	logger := b.logger()

	refs, err := b.Source.List(ctx)
	if err != nil {
		return fmt.Errorf("corpus enumeration: %w", err)
	}
	logger.Info("building index", "documents", len(refs))

	chunks, err := b.chunkCorpus(ctx, refs)
	if err != nil {
		return err
	}
	logger.Info("chunked corpus", "documents", len(refs), "chunks", len(chunks))

	rows, err := b.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	builtAt := b.now()
	if err := b.Store.SaveIndex(ctx, rows, builtAt); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}

	// The new table becomes visible only after a successful persist.
	b.table.Store(&Table{Rows: rows, BuiltAt: builtAt, Model: b.Embedder.Model()})
	logger.Info("index built", "chunks", len(rows))

	return nil
}

// chunkCorpus fetches, parses, and chunks every document concurrently. A
// failure on one document is logged and skipped; it never aborts the build.
func (b *Builder) chunkCorpus(ctx context.Context, refs []docdex.DocumentRef) ([]*docdex.Chunk, error) {
	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]docChunks, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			results[i] = b.chunkDocument(gctx, ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var chunks []*docdex.Chunk
	for _, result := range results {
		if result.err != nil {
			b.logger().Warn("skipping document", "path", result.path, "error", result.err)
			continue
		}
		chunks = append(chunks, result.chunks...)
	}

	return chunks, nil
}

func (b *Builder) chunkDocument(ctx context.Context, ref docdex.DocumentRef) docChunks {
	result := docChunks{path: ref.Path}

	content, err := b.Source.Fetch(ctx, ref.Path)
	if err != nil {
		result.err = err
		return result
	}

	doc := docdex.ParseDocument(content, ref.RelativePath)
	result.chunks = b.chunker().Chunk(doc, ref.RelativePath)
	return result
}

// embedChunks generates embeddings in fixed-size batches. A batch failure
// aborts the entire build.
func (b *Builder) embedChunks(ctx context.Context, chunks []*docdex.Chunk) ([]*docdex.IndexRow, error) {
	batchSize := b.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	rows := make([]*docdex.IndexRow, 0, len(chunks))

	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, chunk.EmbeddingText())
		}

		embeddings, err := b.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(embeddings) != len(texts) {
			return nil, docdex.Errorf(docdex.EINTERNAL, "embedding count mismatch: got %d, want %d", len(embeddings), len(texts))
		}

		for i, chunk := range chunks[start:end] {
			rows = append(rows, &docdex.IndexRow{Chunk: *chunk, Embedding: embeddings[i]})
		}

		b.logger().Debug("embedded batch", "completed", end, "total", len(chunks))
	}

	return rows, nil
}

func (b *Builder) chunker() *docdex.Chunker {
	if b.Chunker != nil {
		return b.Chunker
	}
	return docdex.NewChunker()
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}
