// Package slog provides logging decorators for docdex services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docdex"
)

// Ensure Source implements docdex.Source at compile time.
var _ docdex.Source = (*Source)(nil)

// Source wraps a docdex.Source with debug logging.
type Source struct {
	next   docdex.Source
	logger *slog.Logger
}

// NewSource creates a new logging Source decorator.
func NewSource(next docdex.Source, logger *slog.Logger) *Source {
	return &Source{next: next, logger: logger}
}

// List delegates to the wrapped source and logs the outcome.
func (s *Source) List(ctx context.Context) ([]docdex.DocumentRef, error) {
	begin := time.Now()
	refs, err := s.next.List(ctx)
	if err != nil {
		s.logger.Error("corpus listing failed",
			"duration", time.Since(begin),
			"error", err,
		)
		return nil, err
	}
	s.logger.Info("corpus listed",
		"documents", len(refs),
		"duration", time.Since(begin),
	)
	return refs, nil
}

// Fetch delegates to the wrapped source and logs the outcome.
func (s *Source) Fetch(ctx context.Context, path string) (string, error) {
	begin := time.Now()
	content, err := s.next.Fetch(ctx, path)
	if err != nil {
		s.logger.Warn("document fetch failed",
			"path", path,
			"duration", time.Since(begin),
			"error", err,
		)
		return "", err
	}
	s.logger.Debug("document fetched",
		"path", path,
		"bytes", len(content),
		"duration", time.Since(begin),
	)
	return content, nil
}
