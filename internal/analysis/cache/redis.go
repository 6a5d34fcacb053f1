package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"news-trust-workers/internal/common/logger"
	"news-trust-workers/internal/models"
)

const keyPrefix = "analysis:"

// RedisLayer is a read-through copy of the authoritative store. Its errors
// are logged and otherwise ignored.
type RedisLayer struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisLayer(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisLayer {
	return &RedisLayer{
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "analysis-cache-redis"}),
	}
}

func Key(url string) string {
	return keyPrefix + url
}

func (l *RedisLayer) Get(ctx context.Context, url string) *models.AnalysisResult {
	val, err := l.client.Get(ctx, Key(url)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.logger.Warn("redis get failed", map[string]interface{}{"url": url, "error": err.Error()})
		}
		return nil
	}

	var r models.AnalysisResult
	if err := json.Unmarshal([]byte(val), &r); err != nil {
		l.logger.Warn("discarding undecodable cache entry", map[string]interface{}{"url": url, "error": err.Error()})
		return nil
	}
	return &r
}

// Set reports whether the entry was written.
func (l *RedisLayer) Set(ctx context.Context, result *models.AnalysisResult) bool {
	raw, err := encode(result)
	if err != nil {
		return false
	}
	if err := l.client.Set(ctx, Key(result.URL), raw, l.ttl).Err(); err != nil {
		l.logger.Warn("redis set failed", map[string]interface{}{"url": result.URL, "error": err.Error()})
		return false
	}
	return true
}

func (l *RedisLayer) Delete(ctx context.Context, url string) {
	if err := l.client.Del(ctx, Key(url)).Err(); err != nil {
		l.logger.Warn("redis del failed", map[string]interface{}{"url": url, "error": err.Error()})
	}
}
