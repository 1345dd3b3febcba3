package index_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/index"
	"github.com/fwojciec/docdex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corpus maps document paths to markdown content for mock sources.
type corpus map[string]string

func sourceFor(docs corpus) *mock.Source {
	return &mock.Source{
		ListFn: func(ctx context.Context) ([]docdex.DocumentRef, error) {
			refs := make([]docdex.DocumentRef, 0, len(docs))
			for path := range docs {
				refs = append(refs, docdex.DocumentRef{
					Path:         path,
					RelativePath: path,
					Category:     docdex.CategoryFromPath(path),
				})
			}
			return refs, nil
		},
		FetchFn: func(ctx context.Context, path string) (string, error) {
			content, ok := docs[path]
			if !ok {
				return "", docdex.Errorf(docdex.ENOTFOUND, "document not found")
			}
			return content, nil
		},
	}
}

// constantEmbedder embeds every text to the same vector.
func constantEmbedder(vec []float32) *mock.Embedder {
	return &mock.Embedder{
		EmbedFn: func(ctx context.Context, text string) ([]float32, error) {
			return vec, nil
		},
		EmbedBatchFn: func(ctx context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i := range out {
				out[i] = vec
			}
			return out, nil
		},
	}
}

// memoryStore is an in-memory IndexStore for builder tests.
func memoryStore() (*mock.IndexStore, *storeState) {
	state := &storeState{}
	store := &mock.IndexStore{
		SaveIndexFn: func(ctx context.Context, rows []*docdex.IndexRow, builtAt time.Time) error {
			state.mu.Lock()
			defer state.mu.Unlock()
			state.rows = rows
			state.builtAt = builtAt
			state.saved = true
			return nil
		},
		LoadIndexFn: func(ctx context.Context) ([]*docdex.IndexRow, time.Time, error) {
			state.mu.Lock()
			defer state.mu.Unlock()
			if !state.saved {
				return nil, time.Time{}, docdex.Errorf(docdex.ENOTFOUND, "no index build recorded")
			}
			return state.rows, state.builtAt, nil
		},
		LastBuildTimeFn: func(ctx context.Context) (time.Time, error) {
			state.mu.Lock()
			defer state.mu.Unlock()
			if !state.saved {
				return time.Time{}, docdex.Errorf(docdex.ENOTFOUND, "no index build recorded")
			}
			return state.builtAt, nil
		},
	}
	return store, state
}

type storeState struct {
	mu      sync.Mutex
	rows    []*docdex.IndexRow
	builtAt time.Time
	saved   bool
}

func TestBuilderRefresh(t *testing.T) {
	t.Parallel()

	t.Run("builds, persists, and exposes a ready table", func(t *testing.T) {
		t.Parallel()

		store, state := memoryStore()
		now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
		b := &index.Builder{
			Source: sourceFor(corpus{
				"concepts/agents.mdx": "# Agents\n\nAgents plan work.",
				"concepts/tasks.mdx":  "# Tasks\n\nTasks get done.",
			}),
			Embedder: constantEmbedder([]float32{1, 0}),
			Store:    store,
			Now:      func() time.Time { return now },
		}

		require.NoError(t, b.Refresh(context.Background()))

		table := b.Table()
		require.NotNil(t, table)
		assert.Len(t, table.Rows, 2)
		assert.Equal(t, 2, table.TotalDocs())
		assert.Equal(t, now, table.BuiltAt)
		assert.Equal(t, "mock-embedding-model", table.Model)

		state.mu.Lock()
		assert.True(t, state.saved)
		assert.Len(t, state.rows, 2)
		state.mu.Unlock()

		status := b.Status()
		assert.Equal(t, docdex.StateReady, status.State)
		assert.Equal(t, 2, status.TotalChunks)
		assert.Equal(t, 2, status.TotalDocs)
	})

	t.Run("skips documents that fail to fetch", func(t *testing.T) {
		t.Parallel()

		source := sourceFor(corpus{"good.md": "# Good\n\nFine."})
		source.ListFn = func(ctx context.Context) ([]docdex.DocumentRef, error) {
			return []docdex.DocumentRef{
				{Path: "good.md", RelativePath: "good.md"},
				{Path: "gone.md", RelativePath: "gone.md"},
			}, nil
		}
		store, _ := memoryStore()
		b := &index.Builder{
			Source:   source,
			Embedder: constantEmbedder([]float32{1}),
			Store:    store,
		}

		require.NoError(t, b.Refresh(context.Background()))

		table := b.Table()
		require.NotNil(t, table)
		assert.Equal(t, 1, table.TotalDocs())
	})

	t.Run("an embedding failure fails the build and keeps the old table", func(t *testing.T) {
		t.Parallel()

		store, _ := memoryStore()
		b := &index.Builder{
			Source:   sourceFor(corpus{"a.md": "# A\n\ntext"}),
			Embedder: constantEmbedder([]float32{1}),
			Store:    store,
		}
		require.NoError(t, b.Refresh(context.Background()))
		old := b.Table()
		require.NotNil(t, old)

		b.Embedder = &mock.Embedder{
			EmbedBatchFn: func(ctx context.Context, texts []string) ([][]float32, error) {
				return nil, docdex.Errorf(docdex.EUNAVAILABLE, "embedding service is down")
			},
		}

		err := b.Refresh(context.Background())
		require.Error(t, err)

		assert.Same(t, old, b.Table())
		status := b.Status()
		assert.Equal(t, docdex.StateFailed, status.State)
		assert.Contains(t, status.Message, "embedding service is down")
	})

	t.Run("an embedding count mismatch fails the build", func(t *testing.T) {
		t.Parallel()

		store, _ := memoryStore()
		b := &index.Builder{
			Source: sourceFor(corpus{"a.md": "# A\n\ntext"}),
			Embedder: &mock.Embedder{
				EmbedBatchFn: func(ctx context.Context, texts []string) ([][]float32, error) {
					return [][]float32{}, nil
				},
			},
			Store: store,
		}

		err := b.Refresh(context.Background())
		require.Error(t, err)
		assert.Equal(t, docdex.EINTERNAL, docdex.ErrorCode(err))
	})

	t.Run("a persistence failure keeps the table invisible", func(t *testing.T) {
		t.Parallel()

		store, _ := memoryStore()
		store.SaveIndexFn = func(ctx context.Context, rows []*docdex.IndexRow, builtAt time.Time) error {
			return docdex.Errorf(docdex.EINTERNAL, "disk full")
		}
		b := &index.Builder{
			Source:   sourceFor(corpus{"a.md": "# A\n\ntext"}),
			Embedder: constantEmbedder([]float32{1}),
			Store:    store,
		}

		err := b.Refresh(context.Background())
		require.Error(t, err)
		assert.Nil(t, b.Table())
	})

	t.Run("embeds in batches of BatchSize", func(t *testing.T) {
		t.Parallel()

		docs := corpus{}
		for _, name := range []string{"a", "b", "c", "d", "e"} {
			docs[name+".md"] = "# " + name + "\n\ntext"
		}
		store, _ := memoryStore()

		var batches [][]string
		var mu sync.Mutex
		b := &index.Builder{
			Source: sourceFor(docs),
			Embedder: &mock.Embedder{
				EmbedBatchFn: func(ctx context.Context, texts []string) ([][]float32, error) {
					mu.Lock()
					batches = append(batches, texts)
					mu.Unlock()
					out := make([][]float32, len(texts))
					for i := range out {
						out[i] = []float32{1}
					}
					return out, nil
				},
			},
			Store:     store,
			BatchSize: 2,
		}

		require.NoError(t, b.Refresh(context.Background()))

		require.Len(t, batches, 3)
		assert.Len(t, batches[0], 2)
		assert.Len(t, batches[1], 2)
		assert.Len(t, batches[2], 1)
	})

	t.Run("a concurrent refresh attaches to the in-flight build", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{})
		release := make(chan struct{})

		var embedCalls int
		var mu sync.Mutex
		store, _ := memoryStore()
		b := &index.Builder{
			Source: sourceFor(corpus{"a.md": "# A\n\ntext"}),
			Embedder: &mock.Embedder{
				EmbedBatchFn: func(ctx context.Context, texts []string) ([][]float32, error) {
					mu.Lock()
					embedCalls++
					if embedCalls == 1 {
						close(started)
					}
					mu.Unlock()
					<-release
					out := make([][]float32, len(texts))
					for i := range out {
						out[i] = []float32{1}
					}
					return out, nil
				},
			},
			Store: store,
		}

		b.Start(context.Background())
		<-started

		// The build is now blocked in the embedder; release it once the
		// attaching Refresh has had time to observe the building state.
		go func() {
			time.Sleep(50 * time.Millisecond)
			close(release)
		}()

		require.NoError(t, b.Refresh(context.Background()))

		mu.Lock()
		assert.Equal(t, 1, embedCalls)
		mu.Unlock()
		assert.Equal(t, docdex.StateReady, b.Status().State)
	})
}

func TestBuilderNeedsRebuild(t *testing.T) {
	t.Parallel()

	t.Run("true when nothing has been saved", func(t *testing.T) {
		t.Parallel()

		store, _ := memoryStore()
		b := &index.Builder{Store: store}

		assert.True(t, b.NeedsRebuild(context.Background()))
	})

	t.Run("false within the staleness window", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
		store, state := memoryStore()
		state.saved = true
		state.builtAt = now.Add(-23 * time.Hour)

		b := &index.Builder{Store: store, Now: func() time.Time { return now }}

		assert.False(t, b.NeedsRebuild(context.Background()))
	})

	t.Run("true past the staleness window", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
		store, state := memoryStore()
		state.saved = true
		state.builtAt = now.Add(-25 * time.Hour)

		b := &index.Builder{Store: store, Now: func() time.Time { return now }}

		assert.True(t, b.NeedsRebuild(context.Background()))
	})
}

func TestBuilderLoad(t *testing.T) {
	t.Parallel()

	t.Run("restores the persisted table", func(t *testing.T) {
		t.Parallel()

		builtAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
		store, state := memoryStore()
		state.saved = true
		state.builtAt = builtAt
		state.rows = []*docdex.IndexRow{
			{ID: "1", Chunk: docdex.Chunk{Path: "a.md"}, Embedding: []float32{1}},
		}

		b := &index.Builder{Store: store, Embedder: constantEmbedder(nil)}

		require.NoError(t, b.Load(context.Background()))

		table := b.Table()
		require.NotNil(t, table)
		assert.Len(t, table.Rows, 1)
		assert.Equal(t, builtAt, table.BuiltAt)
		assert.Equal(t, docdex.StateReady, b.Status().State)
	})

	t.Run("returns ENOTFOUND when nothing was saved", func(t *testing.T) {
		t.Parallel()

		store, _ := memoryStore()
		b := &index.Builder{Store: store}

		err := b.Load(context.Background())
		assert.Equal(t, docdex.ENOTFOUND, docdex.ErrorCode(err))
		assert.Nil(t, b.Table())
	})
}

func TestBuilderStatus(t *testing.T) {
	t.Parallel()

	t.Run("not started before any build", func(t *testing.T) {
		t.Parallel()

		store, _ := memoryStore()
		b := &index.Builder{Store: store}

		status := b.Status()
		assert.Equal(t, docdex.StateNotStarted, status.State)
	})

	t.Run("building while a build is in flight", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{})
		release := make(chan struct{})
		store, _ := memoryStore()
		b := &index.Builder{
			Source: sourceFor(corpus{"a.md": "# A\n\ntext"}),
			Embedder: &mock.Embedder{
				EmbedBatchFn: func(ctx context.Context, texts []string) ([][]float32, error) {
					close(started)
					<-release
					return [][]float32{{1}}, nil
				},
			},
			Store: store,
		}

		b.Start(context.Background())
		<-started

		status := b.Status()
		assert.Equal(t, docdex.StateBuilding, status.State)

		close(release)
		require.Eventually(t, func() bool {
			return b.Status().State == docdex.StateReady
		}, time.Second, 10*time.Millisecond)
	})
}
