// Package clusterarticles groups recent articles into events.
package clusterarticles

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"news-trust-workers/internal/analysis/clustering"
	"news-trust-workers/internal/common/camunda"
	"news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/common/logger"
)

const TaskType = "cluster-articles"

type Clusterer interface {
	ClusterSince(ctx context.Context, since time.Time) (*clustering.Run, error)
}

type Handler struct {
	config       *Config
	clusterer    Clusterer
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, clusterer Clusterer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		clusterer:    clusterer,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
		now:          time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
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
			"error":  err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	hours := input.SinceHours
	if hours < 0 {
		return nil, errors.NewValidationError("sinceHours", "sinceHours must not be negative")
	}
	if hours == 0 {
		hours = h.config.DefaultSinceHours
	}

	run, err := h.clusterer.ClusterSince(ctx, h.now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, err
	}
	return &Output{
		RunID:          run.RunID,
		ClusterCount:   len(run.Assignment.Clusters),
		ClusteredCount: run.Assignment.ClusteredCount,
		NoiseCount:     run.Assignment.NoiseCount,
		Clusters:       run.Assignment.Clusters,
	}, nil
}
