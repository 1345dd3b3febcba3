// Package fs provides a docdex.Source over a local directory tree of
// markdown files, for offline corpora and tests.
package fs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/docdex"
)

// Ensure Source implements docdex.Source at compile time.
var _ docdex.Source = (*Source)(nil)

// Source enumerates and reads .md/.mdx files under a base directory.
type Source struct {
	baseDir string
}

// NewSource creates a Source rooted at baseDir.
func NewSource(baseDir string) *Source {
	return &Source{baseDir: baseDir}
}

// List walks the base directory and returns every markdown document,
// ordered by path.
func (s *Source) List(ctx context.Context) ([]docdex.DocumentRef, error) {
	var refs []docdex.DocumentRef

	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !isMarkdown(d.Name()) {
			return nil
		}

		relative, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return err
		}
		relative = filepath.ToSlash(relative)

		refs = append(refs, docdex.DocumentRef{
			Path:         relative,
			RelativePath: relative,
			Category:     docdex.CategoryFromPath(relative),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return refs, nil
}

// Fetch reads the content of one document.
func (s *Source) Fetch(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := os.ReadFile(filepath.Join(s.baseDir, filepath.FromSlash(path)))
	if os.IsNotExist(err) {
		return "", docdex.Errorf(docdex.ENOTFOUND, "document %q not found", path)
	}
	if err != nil {
		return "", err
	}

	return string(content), nil
}

func isMarkdown(name string) bool {
	return strings.HasSuffix(name, ".mdx") || strings.HasSuffix(name, ".md")
}
