// Package factcheck corroborates an article's central claims against
// independent sources.
package factcheck

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"news-trust-workers/internal/clients/inference"
	"news-trust-workers/internal/clients/search"
	"news-trust-workers/internal/common/logger"
	"news-trust-workers/internal/common/metrics"
	"news-trust-workers/internal/common/validation"
	"news-trust-workers/internal/models"
)

const (
	DefaultMaxClaims   = 3
	DefaultMaxEvidence = 10
)

type Config struct {
	MaxClaims       int
	MaxContentChars int
	MaxEvidence     int
}

type Checker struct {
	inferencer      inference.Inferencer
	searcher        search.Searcher
	maxClaims       int
	maxContentChars int
	maxEvidence     int
	logger          logger.Logger
}

func NewChecker(inf inference.Inferencer, searcher search.Searcher, cfg Config, log logger.Logger) *Checker {
	if cfg.MaxClaims <= 0 || cfg.MaxClaims > DefaultMaxClaims {
		cfg.MaxClaims = DefaultMaxClaims
	}
	if cfg.MaxEvidence <= 0 {
		cfg.MaxEvidence = DefaultMaxEvidence
	}
	return &Checker{
		inferencer:      inf,
		searcher:        searcher,
		maxClaims:       cfg.MaxClaims,
		maxContentChars: cfg.MaxContentChars,
		maxEvidence:     cfg.MaxEvidence,
		logger:          log.With(map[string]interface{}{"component": "fact-checker"}),
	}
}

// Check never fails because a collaborator is down: search or verdict
// outages degrade the result to unverified. Only context expiry is returned.
func (c *Checker) Check(ctx context.Context, article models.ArticleInput) (*models.FactCheckResult, error) {
	claims := c.extractClaims(ctx, article)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	evidence, searchErr := c.gather(ctx, claims, validation.Host(article.URL))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(evidence) == 0 {
		result := &models.FactCheckResult{
			OverallVerification: models.Unverified,
			VerificationScore:   0,
			Claims:              claims,
			Evidence:            []models.Evidence{},
		}
		if searchErr != nil {
			metrics.SearchDegraded.Inc()
			c.logger.Warn("search unavailable, fact-check degraded", map[string]interface{}{
				"url":   article.URL,
				"error": searchErr.Error(),
			})
			result.Degraded = true
			result.Rationale = "search unavailable"
		} else {
			result.Rationale = "no independent evidence found"
		}
		return result, nil
	}

	result := c.judge(ctx, article, claims, evidence)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// gather searches every claim concurrently and merges evidence in claim
// order. Evidence from the article's own host is dropped. The returned error
// is the first search failure, if any.
func (c *Checker) gather(ctx context.Context, claims []string, ownHost string) ([]models.Evidence, error) {
	perClaim := make([][]models.Evidence, len(claims))

	var (
		mu       sync.Mutex
		firstErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	for i, claim := range claims {
		i, claim := i, claim
		g.Go(func() error {
			found, err := c.searcher.Search(gctx, claim)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			for j := range found {
				found[j].Claim = claim
			}
			perClaim[i] = found
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	var evidence []models.Evidence
	for _, found := range perClaim {
		for _, ev := range found {
			if ev.URL == "" || seen[ev.URL] {
				continue
			}
			if ownHost != "" && validation.Host(ev.URL) == ownHost {
				continue
			}
			seen[ev.URL] = true
			evidence = append(evidence, ev)
			if len(evidence) == c.maxEvidence {
				return evidence, firstErr
			}
		}
	}
	return evidence, firstErr
}
