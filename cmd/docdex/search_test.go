package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fwojciec/docdex"
	main "github.com/fwojciec/docdex/cmd/docdex"
	"github.com/fwojciec/docdex/index"
	"github.com/fwojciec/docdex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// searchDeps wires a Builder and Engine over a pre-persisted two-document
// index for search command tests.
func searchDeps(stdout, stderr *bytes.Buffer) *main.Dependencies {
	rows := []*docdex.IndexRow{
		{
			Chunk:     docdex.Chunk{Path: "concepts/agents.mdx", Title: "Agents", Category: "concepts", Content: "Agents plan work."},
			Embedding: []float32{1, 0},
		},
		{
			Chunk:     docdex.Chunk{Path: "guides/tools.mdx", Title: "Tools", Category: "guides", Content: "Tools extend agents."},
			Embedding: []float32{0, 1},
		},
	}
	store := &mock.IndexStore{
		LoadIndexFn: func(ctx context.Context) ([]*docdex.IndexRow, time.Time, error) {
			return rows, time.Now(), nil
		},
		LastBuildTimeFn: func(ctx context.Context) (time.Time, error) {
			return time.Now(), nil
		},
	}
	embedder := &mock.Embedder{
		EmbedFn: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 0}, nil
		},
	}
	builder := &index.Builder{Store: store, Embedder: embedder}

	return &main.Dependencies{
		Ctx:     context.Background(),
		Stdout:  stdout,
		Stderr:  stderr,
		Builder: builder,
		Engine:  &index.Engine{Embedder: embedder, Tables: builder},
	}
}

func TestSearchCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints ranked results", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := searchDeps(stdout, &bytes.Buffer{})

		cmd := &main.SearchCmd{Query: "how do agents work", Limit: 10}
		err := cmd.Run(deps)

		require.NoError(t, err)
		out := stdout.String()
		assert.Contains(t, out, "Agents")
		assert.Contains(t, out, "concepts/agents.mdx")
		// The closer match comes first.
		assert.Less(t, bytes.Index(stdout.Bytes(), []byte("agents.mdx")), bytes.Index(stdout.Bytes(), []byte("tools.mdx")))
	})

	t.Run("filters by category", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := searchDeps(stdout, &bytes.Buffer{})

		cmd := &main.SearchCmd{Query: "tooling", Category: "guides", Limit: 10}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "guides/tools.mdx")
		assert.NotContains(t, stdout.String(), "concepts/agents.mdx")
	})

	t.Run("emits JSON with --json", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := searchDeps(stdout, &bytes.Buffer{})

		cmd := &main.SearchCmd{Query: "agents", Limit: 10, JSON: true}
		err := cmd.Run(deps)

		require.NoError(t, err)

		var resp docdex.SearchResponse
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
		assert.Equal(t, docdex.SearchStatusReady, resp.Status)
		assert.Equal(t, 2, resp.TotalFound)
		assert.Equal(t, "concepts/agents.mdx", resp.Results[0].Path)
	})

	t.Run("returns an error when the query cannot be embedded", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := searchDeps(stdout, &bytes.Buffer{})
		deps.Engine.Embedder = &mock.Embedder{
			EmbedFn: func(ctx context.Context, text string) ([]float32, error) {
				return nil, docdex.Errorf(docdex.EUNAVAILABLE, "embedding service is down")
			},
		}

		cmd := &main.SearchCmd{Query: "agents", Limit: 10}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Contains(t, stdout.String(), "embedding service is down")
	})
}
