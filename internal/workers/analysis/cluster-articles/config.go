package clusterarticles

import (
	"time"

	"news-trust-workers/internal/common/config"
)

type Config struct {
	Timeout           time.Duration
	DefaultSinceHours int
}

func NewConfig(w config.WorkerConfig) *Config {
	timeout := config.GetDuration(w.Timeout)
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Config{Timeout: timeout, DefaultSinceHours: 24}
}
