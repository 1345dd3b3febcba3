// Package mock provides function-field mock implementations of docdex
// interfaces for testing.
package mock

import (
	"context"

	"github.com/fwojciec/docdex"
)

var _ docdex.Source = (*Source)(nil)

// Source is a mock implementation of docdex.Source.
type Source struct {
	ListFn  func(ctx context.Context) ([]docdex.DocumentRef, error)
	FetchFn func(ctx context.Context, path string) (string, error)
}

func (s *Source) List(ctx context.Context) ([]docdex.DocumentRef, error) {
	return s.ListFn(ctx)
}

func (s *Source) Fetch(ctx context.Context, path string) (string, error) {
	return s.FetchFn(ctx, path)
}
