package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"news-trust-workers/internal/common/metrics"
)

// CommandTimeout bounds each complete, fail or throw command.
const CommandTimeout = 10 * time.Second

// CommandContext derives the context for reporting a job's outcome. It
// keeps parent's values but not its deadline, so a job that spent its whole
// budget can still be completed or failed.
func CommandContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), CommandTimeout)
}

// CompleteJob completes job with variables and counts the completion.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, variables interface{}) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(variables)
	if err != nil {
		return fmt.Errorf("create complete job command: %w", err)
	}

	sendCtx, cancel := CommandContext(ctx)
	defer cancel()
	if _, err := cmd.Send(sendCtx); err != nil {
		return fmt.Errorf("send complete job command: %w", err)
	}

	metrics.WorkerJobsCompleted.WithLabelValues(job.Type).Inc()
	return nil
}
