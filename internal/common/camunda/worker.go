// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"sync"
	"time"

	"news-trust-workers/internal/common/config"
	"news-trust-workers/internal/common/metrics"
	"news-trust-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

type HandlerFunc func(client worker.JobClient, job entities.Job)

// StartWorker opens a job worker for taskType, or returns nil when the
// worker is disabled in config. obs may be nil.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler HandlerFunc, obs *observability.Observability, log *zap.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(instrument(taskType, handler, obs)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return jobWorker
}

// Job outcomes as seen by instrument.
const (
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusThrown     = "error_thrown"
	StatusUnreported = "unreported"
)

func instrument(taskType string, handler HandlerFunc, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		tracked := &outcomeClient{JobClient: client}
		start := time.Now()
		handler(tracked, job)
		elapsed := time.Since(start)

		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		status := tracked.Status()
		obs.RecordJobProcessed(context.Background(), taskType, status)
		obs.RecordJobDuration(context.Background(), taskType, elapsed, status)
	}
}

// outcomeClient remembers which kind of command the handler issued last.
type outcomeClient struct {
	worker.JobClient

	mu     sync.Mutex
	status string
}

func (c *outcomeClient) set(status string) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func (c *outcomeClient) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == "" {
		return StatusUnreported
	}
	return c.status
}

func (c *outcomeClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.set(StatusCompleted)
	return c.JobClient.NewCompleteJobCommand()
}

func (c *outcomeClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.set(StatusFailed)
	return c.JobClient.NewFailJobCommand()
}

func (c *outcomeClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.set(StatusThrown)
	return c.JobClient.NewThrowErrorCommand()
}
