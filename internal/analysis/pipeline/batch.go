package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/models"
)

// AnalyzeNewsFromDatabase analyzes up to limit unanalyzed articles, newest
// first, with at most BatchConcurrency in flight. Per-article failures are
// reported in the batch; only candidate selection can fail the call.
func (p *Pipeline) AnalyzeNewsFromDatabase(ctx context.Context, limit int) (*models.BatchReport, error) {
	report := &models.BatchReport{
		RunID:     uuid.NewString(),
		Results:   []*models.AnalysisResult{},
		Failures:  []models.BatchFailure{},
		StartedAt: time.Now().UTC(),
	}
	if limit <= 0 || p.deps.Articles == nil {
		report.Statistics = Summarize(nil, nil)
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	log := p.logger.With(map[string]interface{}{"runId": report.RunID})

	candidates, err := p.deps.Articles.SelectUnanalyzed(ctx, limit)
	if err != nil {
		log.Error("article selection failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	candidates = uniqueByURL(candidates)
	log.Info("batch started", map[string]interface{}{"candidates": len(candidates), "limit": limit})

	// Slots are indexed by candidate so output order follows selection order.
	results := make([]*models.AnalysisResult, len(candidates))
	failures := make([]*models.BatchFailure, len(candidates))

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.BatchConcurrency)
	for i, article := range candidates {
		i, article := i, article
		g.Go(func() error {
			result, _, err := p.AnalyzeArticle(ctx, article)
			if err != nil {
				failures[i] = &models.BatchFailure{
					URL:       article.URL,
					ArticleID: article.ID,
					Code:      string(apperrors.CodeOf(err)),
					Reason:    err.Error(),
				}
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	for i := range candidates {
		if results[i] != nil {
			report.Results = append(report.Results, results[i])
		}
		if failures[i] != nil {
			report.Failures = append(report.Failures, *failures[i])
		}
	}
	report.Statistics = Summarize(report.Results, report.Failures)
	report.FinishedAt = time.Now().UTC()

	log.Info("batch finished", map[string]interface{}{
		"analyzed":       report.Statistics.Analyzed,
		"failed":         report.Statistics.Failed,
		"meanTrustScore": report.Statistics.MeanTrustScore,
		"durationMs":     report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	})

	if p.deps.Publisher != nil {
		if err := p.deps.Publisher.Publish(ctx, report); err != nil {
			log.Warn("batch report not published", map[string]interface{}{"error": err.Error()})
		}
	}
	return report, nil
}

// uniqueByURL keeps the first article per URL.
func uniqueByURL(articles []models.ArticleInput) []models.ArticleInput {
	seen := make(map[string]bool, len(articles))
	out := articles[:0:0]
	for _, a := range articles {
		key := a.Normalized().URL
		if key != "" && seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// Summarize reduces batch results to aggregate statistics. It is derived
// data and is never stored.
func Summarize(results []*models.AnalysisResult, failures []models.BatchFailure) models.BatchStatistics {
	stats := models.BatchStatistics{
		Analyzed: len(results),
		Failed:   len(failures),
		ByVerification: map[models.Verification]int{
			models.Verified:          0,
			models.PartiallyVerified: 0,
			models.Disputed:          0,
			models.Unverified:        0,
		},
		ByBiasCategory: map[models.BiasCategory]int{
			models.BiasLeft:   0,
			models.BiasCenter: 0,
			models.BiasRight:  0,
		},
	}

	var total float64
	for _, r := range results {
		total += r.OverallTrustScore
		stats.ByVerification[r.FactCheckResult.OverallVerification]++
		stats.ByBiasCategory[r.BiasAnalysis.BiasCategory]++
	}
	if len(results) > 0 {
		stats.MeanTrustScore = total / float64(len(results))
	}
	return stats
}
