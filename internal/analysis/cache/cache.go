// Package cache stores one analysis result per article URL so repeated
// requests skip recomputation.
package cache

import (
	"context"
	"strings"

	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/common/logger"
	"news-trust-workers/internal/common/metrics"
	"news-trust-workers/internal/models"
)

// Store is the authoritative analysis store. Get returns (nil, nil) when
// nothing is stored for url.
type Store interface {
	Get(ctx context.Context, url string) (*models.AnalysisResult, error)
	Upsert(ctx context.Context, result *models.AnalysisResult) error
}

type Cache struct {
	store  Store
	layer  *RedisLayer
	logger logger.Logger
}

// New builds a cache over store. layer may be nil.
func New(store Store, layer *RedisLayer, log logger.Logger) *Cache {
	return &Cache{
		store:  store,
		layer:  layer,
		logger: log.With(map[string]interface{}{"component": "analysis-cache"}),
	}
}

// Lookup returns the stored result for url, or nil when there is none.
func (c *Cache) Lookup(ctx context.Context, url string) (*models.AnalysisResult, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, nil
	}

	if c.layer != nil {
		if r := c.layer.Get(ctx, url); r != nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			c.logger.Debug("cache hit", map[string]interface{}{"url": url, "layer": "redis"})
			return r, nil
		}
	}

	r, err := c.store.Get(ctx, url)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, apperrors.NewStorageError("lookup", err)
	}
	if r == nil {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		c.logger.Debug("cache miss", map[string]interface{}{"url": url})
		return nil, nil
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	c.logger.Debug("cache hit", map[string]interface{}{"url": url, "layer": "postgres"})
	if c.layer != nil {
		_ = c.layer.Set(ctx, r)
	}
	return r, nil
}

// Store upserts result by URL. The redis copy is dropped before the
// authoritative write and refilled after it; when the refill fails the key
// stays absent so the next lookup reads postgres.
func (c *Cache) Store(ctx context.Context, result *models.AnalysisResult) error {
	if c.layer != nil {
		c.layer.Delete(ctx, result.URL)
	}
	if err := c.store.Upsert(ctx, result); err != nil {
		return apperrors.NewStorageError("upsert", err)
	}
	if c.layer != nil && !c.layer.Set(ctx, result) {
		c.layer.Delete(ctx, result.URL)
	}
	return nil
}
