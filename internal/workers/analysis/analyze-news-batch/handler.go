// Package analyzenewsbatch runs the scheduled batch analysis over articles
// that have none yet.
package analyzenewsbatch

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"news-trust-workers/internal/common/camunda"
	"news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/common/logger"
	"news-trust-workers/internal/models"
)

const TaskType = "analyze-news-batch"

type BatchAnalyzer interface {
	AnalyzeNewsFromDatabase(ctx context.Context, limit int) (*models.BatchReport, error)
}

type Handler struct {
	config       *Config
	batch        BatchAnalyzer
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, batch BatchAnalyzer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		batch:        batch,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if job.Variables != "" {
		if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
			h.errorHandler.HandleJobError(ctx, client, job, errors.NewInputParsingError(err))
			return
		}
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"runId":  output.RunID,
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":   job.Key,
		"runId":    output.RunID,
		"analyzed": output.AnalyzedCount,
		"failed":   output.FailedCount,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	limit := h.config.DefaultLimit
	if input.Limit != nil {
		limit = *input.Limit
	}

	report, err := h.batch.AnalyzeNewsFromDatabase(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &Output{
		RunID:         report.RunID,
		AnalyzedCount: len(report.Results),
		FailedCount:   len(report.Failures),
		Failures:      report.Failures,
		Statistics:    report.Statistics,
	}, nil
}
