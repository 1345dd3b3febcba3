package docdex

import "context"

// DocumentRef identifies one document in a corpus.
type DocumentRef struct {
	// Path addresses the document within its source (used for fetching).
	Path string `json:"path"`

	// RelativePath is the path within the documentation tree; chunk
	// categories are derived from it.
	RelativePath string `json:"relativePath"`

	// Category is derived from the relative path; see CategoryFromPath.
	Category string `json:"category"`
}

// Source enumerates and retrieves raw documents from a corpus.
type Source interface {
	// List enumerates all documents in the corpus.
	List(ctx context.Context) ([]DocumentRef, error)

	// Fetch retrieves the raw text of one document.
	// Returns ENOTFOUND if the document does not exist.
	Fetch(ctx context.Context, path string) (string, error)
}
