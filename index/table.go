// Package index builds and queries the embedding index. The Builder turns a
// document corpus into a persisted table of (chunk, vector) rows via batched
// calls to an external embedding function and owns the staleness policy; the
// Engine ranks the table's rows against query embeddings.
package index

import (
	"time"

	"github.com/fwojciec/docdex"
)

// Table is an immutable snapshot of a built index. A rebuild assembles a new
// Table and exposes it via an atomic pointer swap, so in-flight queries
// never observe a partially built index.
type Table struct {
	Rows    []*docdex.IndexRow
	BuiltAt time.Time
	Model   string
}

// TotalDocs returns the number of distinct document paths in the table.
func (t *Table) TotalDocs() int {
	paths := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		paths[row.Chunk.Path] = struct{}{}
	}
	return len(paths)
}
