package analyzenewsbatch

import (
	"time"

	"news-trust-workers/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
}

// NewConfig sizes the job timeout for a whole batch, not a single article.
func NewConfig(w config.WorkerConfig, p config.PipelineConfig) *Config {
	timeout := config.GetDuration(w.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	limit := p.DefaultBatchLimit
	if limit <= 0 {
		limit = 50
	}
	return &Config{Timeout: timeout, DefaultLimit: limit}
}
