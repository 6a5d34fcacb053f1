// Package pipeline orchestrates article analysis: cache check, bias and
// fact-check in parallel, trust scoring and persistence.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/common/logger"
	"news-trust-workers/internal/common/metrics"
	"news-trust-workers/internal/common/observability"
	"news-trust-workers/internal/common/validation"
	"news-trust-workers/internal/models"
)

type BiasAnalyzer interface {
	Analyze(ctx context.Context, article models.ArticleInput) (*models.BiasAssessment, error)
}

type FactChecker interface {
	Check(ctx context.Context, article models.ArticleInput) (*models.FactCheckResult, error)
}

type Combiner interface {
	Combine(bias models.BiasAssessment, fact models.FactCheckResult) (float64, string)
}

// ResultCache is satisfied by *cache.Cache.
type ResultCache interface {
	Lookup(ctx context.Context, url string) (*models.AnalysisResult, error)
	Store(ctx context.Context, result *models.AnalysisResult) error
}

type ArticleSource interface {
	SelectUnanalyzed(ctx context.Context, limit int) ([]models.ArticleInput, error)
}

type ReportPublisher interface {
	Publish(ctx context.Context, report *models.BatchReport) error
}

// Deps are the pipeline's collaborators. Cache, Articles, Publisher and
// Observability may be nil.
type Deps struct {
	Cache         ResultCache
	Bias          BiasAnalyzer
	FactCheck     FactChecker
	Combiner      Combiner
	Articles      ArticleSource
	Publisher     ReportPublisher
	Logger        logger.Logger
	Observability *observability.Observability
}

type Config struct {
	// ArticleTimeout bounds one article's analysis. Zero means no bound.
	ArticleTimeout   time.Duration
	BatchConcurrency int
	DisableCache     bool
}

const (
	stageCache     = "cache_lookup"
	stageBias      = "bias"
	stageFactCheck = "fact_check"
	stageCombine   = "combine"
	stagePersist   = "persist"
)

type Pipeline struct {
	deps   Deps
	cfg    Config
	logger logger.Logger
	flight singleflight.Group
}

func New(deps Deps, cfg Config) *Pipeline {
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	return &Pipeline{
		deps:   deps,
		cfg:    cfg,
		logger: deps.Logger.With(map[string]interface{}{"component": "analysis-pipeline"}),
	}
}

func (p *Pipeline) cacheEnabled() bool {
	return !p.cfg.DisableCache && p.deps.Cache != nil
}

// AnalyzeArticle returns the analysis for input and whether it came from the
// cache. Concurrent calls for the same URL share one computation.
func (p *Pipeline) AnalyzeArticle(ctx context.Context, input models.ArticleInput) (*models.AnalysisResult, bool, error) {
	start := time.Now()
	result, cacheHit, err := p.analyze(ctx, input)

	outcome := metrics.OutcomeAnalyzed
	switch {
	case err != nil:
		outcome = metrics.OutcomeFailed
	case cacheHit:
		outcome = metrics.OutcomeCached
	}
	metrics.ArticlesAnalyzed.WithLabelValues(outcome).Inc()
	p.deps.Observability.RecordArticle(ctx, time.Since(start), outcome)
	return result, cacheHit, err
}

func (p *Pipeline) analyze(ctx context.Context, input models.ArticleInput) (*models.AnalysisResult, bool, error) {
	article := input.Normalized()
	if err := validation.ValidateArticle(article); err != nil {
		return nil, false, err
	}

	ctx, span := observability.StartSpan(ctx, "pipeline.analyze_article", map[string]string{"article.url": article.URL})
	defer span.End()

	if p.cfg.ArticleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ArticleTimeout)
		defer cancel()
	}

	var lookupWarning string
	if p.cacheEnabled() {
		stageStart := time.Now()
		cached, err := p.deps.Cache.Lookup(ctx, article.URL)
		p.observeStage(stageCache, article.URL, stageStart)
		switch {
		case err != nil:
			p.logger.Warn("cache lookup failed, analyzing anyway", map[string]interface{}{
				"url":   article.URL,
				"error": err.Error(),
			})
			lookupWarning = "cache lookup failed: " + err.Error()
		case cached != nil:
			return cached, true, nil
		}
	}

	v, err, shared := p.flight.Do(article.URL, func() (interface{}, error) {
		return p.compute(ctx, article)
	})
	if err != nil {
		return nil, false, p.timeoutOr(ctx, article.URL, err)
	}
	result := v.(*models.AnalysisResult)
	if shared {
		p.logger.Debug("joined in-flight analysis", map[string]interface{}{"url": article.URL})
	}
	if lookupWarning != "" && !shared {
		result.Warnings = append(result.Warnings, lookupWarning)
	}
	return result, false, nil
}

func (p *Pipeline) compute(ctx context.Context, article models.ArticleInput) (*models.AnalysisResult, error) {
	var (
		bias *models.BiasAssessment
		fact *models.FactCheckResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stageStart := time.Now()
		var err error
		bias, err = p.deps.Bias.Analyze(gctx, article)
		p.observeStage(stageBias, article.URL, stageStart)
		return err
	})
	g.Go(func() error {
		stageStart := time.Now()
		var err error
		fact, err = p.deps.FactCheck.Check(gctx, article)
		p.observeStage(stageFactCheck, article.URL, stageStart)
		return err
	})
	if err := g.Wait(); err != nil {
		p.logger.Error("article analysis failed", map[string]interface{}{
			"url":   article.URL,
			"code":  string(apperrors.CodeOf(err)),
			"error": err.Error(),
		})
		return nil, err
	}

	stageStart := time.Now()
	score, summary := p.deps.Combiner.Combine(*bias, *fact)
	p.observeStage(stageCombine, article.URL, stageStart)
	metrics.TrustScore.Observe(score)

	result := &models.AnalysisResult{
		ID:                uuid.NewString(),
		ArticleID:         article.ID,
		URL:               article.URL,
		BiasAnalysis:      *bias,
		FactCheckResult:   *fact,
		OverallTrustScore: score,
		Summary:           summary,
		CreatedAt:         time.Now().UTC(),
	}

	if p.cacheEnabled() {
		stageStart = time.Now()
		if err := p.deps.Cache.Store(ctx, result); err != nil {
			p.logger.Warn("analysis not persisted", map[string]interface{}{
				"url":   article.URL,
				"error": err.Error(),
			})
			result.Warnings = append(result.Warnings, "analysis not persisted: "+err.Error())
		}
		p.observeStage(stagePersist, article.URL, stageStart)
	}

	p.logger.Info("article analyzed", map[string]interface{}{
		"url":          article.URL,
		"biasCategory": string(bias.BiasCategory),
		"verification": string(fact.OverallVerification),
		"trustScore":   score,
		"degraded":     fact.Degraded,
	})
	return result, nil
}

// timeoutOr reports ARTICLE_TIMEOUT when the article's budget ran out.
func (p *Pipeline) timeoutOr(ctx context.Context, url string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewArticleTimeoutError(url, err)
	}
	return err
}

func (p *Pipeline) observeStage(stage, url string, start time.Time) {
	d := time.Since(start)
	metrics.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	p.logger.Debug("stage finished", map[string]interface{}{
		"stage":      stage,
		"url":        url,
		"durationMs": d.Milliseconds(),
	})
}

// GetAnalysisForArticle is a pure cache read. It returns (nil, nil) when
// nothing is stored for url.
func (p *Pipeline) GetAnalysisForArticle(ctx context.Context, url string) (*models.AnalysisResult, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, apperrors.NewValidationError("url", "url is required")
	}
	if p.deps.Cache == nil {
		return nil, nil
	}
	return p.deps.Cache.Lookup(ctx, url)
}
