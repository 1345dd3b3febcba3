package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/lru"
)

// DefaultSearchLimit caps search results when no limit is supplied.
const DefaultSearchLimit = 10

// snippetLength is the maximum snippet size in characters.
const snippetLength = 200

// TableProvider supplies the current index snapshot. A nil snapshot means
// the index is not ready.
type TableProvider interface {
	Table() *Table
}

// Engine ranks index rows by cosine similarity to a query embedding.
// It reads immutable snapshots, so searches are safe during rebuilds.
type Engine struct {
	Embedder docdex.Embedder
	Tables   TableProvider

	// QueryCache, if set, shields repeated queries from the cost of the
	// external embedding call.
	QueryCache *lru.Cache[[]float32]
}

// Search embeds the query and returns the rows most similar to it, ranked
// descending. Failures never escape the engine boundary: a not-ready index
// yields an "indexing" response and an embedding failure an "error" one.
func (e *Engine) Search(ctx context.Context, query string, opts docdex.SearchOptions) *docdex.SearchResponse {
	t := e.Tables.Table()
	if t == nil {
		return &docdex.SearchResponse{
			Status:  docdex.SearchStatusIndexing,
			Message: "embeddings are being built; try again in a moment",
			Results: []docdex.SearchResult{},
		}
	}

	queryVec, err := e.embedQuery(ctx, query)
	if err != nil {
		return &docdex.SearchResponse{
			Status:  docdex.SearchStatusError,
			Message: fmt.Sprintf("search error: %s", err),
			Results: []docdex.SearchResult{},
		}
	}

	type scored struct {
		row   *docdex.IndexRow
		score float64
	}

	matches := make([]scored, 0, len(t.Rows))
	for _, row := range t.Rows {
		if opts.Category != "" && row.Chunk.Category != opts.Category {
			continue
		}
		matches = append(matches, scored{row: row, score: docdex.CosineSimilarity(queryVec, row.Embedding)})
	}

	// Stable: ties keep original row order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > len(matches) {
		limit = len(matches)
	}

	results := make([]docdex.SearchResult, 0, limit)
	for _, m := range matches[:limit] {
		chunk := m.row.Chunk
		results = append(results, docdex.SearchResult{
			Path:             chunk.Path,
			Title:            chunk.Title,
			Category:         chunk.Category,
			Score:            m.score,
			Snippet:          snippet(chunk.Content),
			ChunkType:        chunk.Type,
			SectionHierarchy: chunk.SectionHierarchy,
			HeadingLevel:     chunk.HeadingLevel,
			WordCount:        chunk.WordCount,
			HasCodeBlocks:    chunk.HasCodeBlocks,
			HasSpecial:       chunk.HasSpecialComponents,
		})
	}

	return &docdex.SearchResponse{
		Status:     docdex.SearchStatusReady,
		Query:      query,
		Category:   opts.Category,
		TotalFound: len(results),
		TotalDocs:  t.TotalDocs(),
		Results:    results,
	}
}

// embedQuery returns the query embedding, consulting the query cache first.
// Newlines are collapsed to spaces before embedding.
func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	text := strings.ReplaceAll(query, "\n", " ")

	if e.QueryCache != nil {
		if vec, ok := e.QueryCache.Get(text); ok {
			return vec, nil
		}
	}

	vec, err := e.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if e.QueryCache != nil {
		e.QueryCache.Set(text, vec)
	}

	return vec, nil
}

// snippet truncates content to the first 200 characters, appending an
// ellipsis when truncated.
func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetLength {
		return content
	}
	return string(runes[:snippetLength]) + "..."
}
