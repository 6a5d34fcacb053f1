// Package search finds corroborating material for a claim.
package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/models"
)

// Searcher returns evidence for a claim. An empty slice is a valid answer;
// an error carries SEARCH_UNAVAILABLE.
type Searcher interface {
	Search(ctx context.Context, claim string) ([]models.Evidence, error)
}

type Func func(ctx context.Context, claim string) ([]models.Evidence, error)

func (f Func) Search(ctx context.Context, claim string) ([]models.Evidence, error) {
	return f(ctx, claim)
}

// MultiSearcher queries every backend concurrently and merges their
// evidence in backend order, deduplicated by URL. It fails only when every
// backend fails.
type MultiSearcher []Searcher

func (m MultiSearcher) Search(ctx context.Context, claim string) ([]models.Evidence, error) {
	if len(m) == 0 {
		return nil, apperrors.NewSearchUnavailableError("multi", nil)
	}

	results := make([][]models.Evidence, len(m))
	errs := make([]error, len(m))

	// Backend errors are collected, not propagated, so one failure does not
	// cancel the others.
	var g errgroup.Group
	for i, s := range m {
		g.Go(func() error {
			results[i], errs[i] = s.Search(ctx, claim)
			return nil
		})
	}
	_ = g.Wait()

	var merged []models.Evidence
	seen := make(map[string]bool)
	failed := 0
	var firstErr error
	for i := range m {
		if errs[i] != nil {
			failed++
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		for _, ev := range results[i] {
			if seen[ev.URL] {
				continue
			}
			seen[ev.URL] = true
			merged = append(merged, ev)
		}
	}

	if failed == len(m) {
		return nil, firstErr
	}
	return merged, nil
}
