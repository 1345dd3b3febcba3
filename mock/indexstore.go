package mock

import (
	"context"
	"time"

	"github.com/fwojciec/docdex"
)

var _ docdex.IndexStore = (*IndexStore)(nil)

// IndexStore is a mock implementation of docdex.IndexStore.
type IndexStore struct {
	SaveIndexFn     func(ctx context.Context, rows []*docdex.IndexRow, builtAt time.Time) error
	LoadIndexFn     func(ctx context.Context) ([]*docdex.IndexRow, time.Time, error)
	LastBuildTimeFn func(ctx context.Context) (time.Time, error)
}

func (s *IndexStore) SaveIndex(ctx context.Context, rows []*docdex.IndexRow, builtAt time.Time) error {
	return s.SaveIndexFn(ctx, rows, builtAt)
}

func (s *IndexStore) LoadIndex(ctx context.Context) ([]*docdex.IndexRow, time.Time, error) {
	return s.LoadIndexFn(ctx)
}

func (s *IndexStore) LastBuildTime(ctx context.Context) (time.Time, error) {
	return s.LastBuildTimeFn(ctx)
}
