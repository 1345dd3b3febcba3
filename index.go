package docdex

import (
	"context"
	"time"
)

// IndexState describes the lifecycle of the embedding index.
type IndexState string

// Index lifecycle states. Queries may only run against a live table in
// StateReady; every other state yields a structured not-ready response
// rather than an error.
const (
	StateNotStarted IndexState = "not_started"
	StateBuilding   IndexState = "building"
	StateReady      IndexState = "ready"
	StateFailed     IndexState = "failed"
)

// IndexRow pairs one chunk with its embedding vector. The full set of rows
// for a build is swapped in atomically; readers never observe a partially
// populated index.
type IndexRow struct {
	// Storage-assigned identifier. Empty until the row has been persisted.
	ID string `json:"id"`

	Chunk Chunk `json:"chunk"`

	// Dense embedding of the chunk's embedding text. Dimensionality is
	// fixed by the embedding model.
	Embedding []float32 `json:"embedding"`
}

// IndexStatus reports the current state of the index.
type IndexStatus struct {
	State       IndexState `json:"status"`
	Message     string     `json:"message"`
	TotalChunks int        `json:"totalChunks,omitempty"`
	TotalDocs   int        `json:"totalDocs,omitempty"`
	Model       string     `json:"model,omitempty"`
	BuiltAt     time.Time  `json:"builtAt,omitzero"`
}

// IndexStore persists a built index so it can be reloaded without
// rebuilding. The stored build timestamp backs the staleness policy.
type IndexStore interface {
	// SaveIndex atomically replaces the persisted rows and records the
	// build timestamp.
	SaveIndex(ctx context.Context, rows []*IndexRow, builtAt time.Time) error

	// LoadIndex returns all persisted rows and the recorded build
	// timestamp. Returns ENOTFOUND if no index has ever been saved.
	LoadIndex(ctx context.Context) ([]*IndexRow, time.Time, error)

	// LastBuildTime returns the recorded build timestamp without loading
	// rows. Returns ENOTFOUND if no index has ever been saved.
	LastBuildTime(ctx context.Context) (time.Time, error)
}

// Search response status values. Not-ready is an expected state, not an
// error.
const (
	SearchStatusReady    = "ready"
	SearchStatusIndexing = "indexing"
	SearchStatusError    = "error"
)

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// Category restricts results to rows with an equal category.
	// Empty means no filtering.
	Category string `json:"category,omitempty"`

	// Limit caps the number of returned results.
	Limit int `json:"limit,omitempty"`
}

// SearchResult is one ranked match.
type SearchResult struct {
	Path             string    `json:"path"`
	Title            string    `json:"title"`
	Category         string    `json:"category"`
	Score            float64   `json:"score"`
	Snippet          string    `json:"snippet"`
	ChunkType        ChunkType `json:"chunkType"`
	SectionHierarchy string    `json:"sectionHierarchy"`
	HeadingLevel     int       `json:"headingLevel"`
	WordCount        int       `json:"wordCount"`
	HasCodeBlocks    bool      `json:"hasCodeBlocks"`
	HasSpecial       bool      `json:"hasSpecialComponents"`
}

// SearchResponse carries ranked results plus the engine status. When the
// index is not ready the status is "indexing" and Results is empty.
type SearchResponse struct {
	Status     string         `json:"status"`
	Message    string         `json:"message,omitempty"`
	Query      string         `json:"query,omitempty"`
	Category   string         `json:"categoryFilter,omitempty"`
	TotalFound int            `json:"totalFound"`
	TotalDocs  int            `json:"totalDocs"`
	Results    []SearchResult `json:"results"`
}
