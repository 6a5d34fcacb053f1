package getarticleanalysis

import (
	"time"

	"news-trust-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func NewConfig(w config.WorkerConfig) *Config {
	timeout := config.GetDuration(w.Timeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Config{Timeout: timeout}
}
