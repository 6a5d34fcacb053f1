package clustering

import (
	"context"
	"time"

	"github.com/google/uuid"

	"news-trust-workers/internal/common/logger"
	"news-trust-workers/internal/models"
)

type EmbeddingStore interface {
	ListEmbeddings(ctx context.Context, since time.Time) ([]models.Embedding, error)
	SaveClusterAssignments(ctx context.Context, runID string, articleIDs []string, assignment *models.ClusterAssignment) error
}

// Service clusters recent article embeddings and records the assignment.
type Service struct {
	store  EmbeddingStore
	job    Job
	logger logger.Logger
}

func NewService(store EmbeddingStore, job Job, log logger.Logger) *Service {
	return &Service{store: store, job: job, logger: log.With(map[string]interface{}{"component": "clustering"})}
}

type Run struct {
	RunID      string
	Assignment *models.ClusterAssignment
}

// ClusterSince clusters embeddings created after since. An empty window is
// a successful run with nothing assigned.
func (s *Service) ClusterSince(ctx context.Context, since time.Time) (*Run, error) {
	run := &Run{RunID: uuid.NewString()}

	embeddings, err := s.store.ListEmbeddings(ctx, since)
	if err != nil {
		return nil, err
	}

	assignment, err := s.job.Run(ctx, embeddings)
	if err != nil {
		s.logger.Error("clustering job failed", map[string]interface{}{
			"runId": run.RunID,
			"items": len(embeddings),
			"error": err.Error(),
		})
		return nil, err
	}
	run.Assignment = assignment

	if len(embeddings) > 0 {
		ids := make([]string, len(embeddings))
		for i, e := range embeddings {
			ids[i] = e.ID
		}
		if err := s.store.SaveClusterAssignments(ctx, run.RunID, ids, assignment); err != nil {
			return nil, err
		}
	}

	s.logger.Info("clustering run stored", map[string]interface{}{
		"runId":     run.RunID,
		"items":     len(embeddings),
		"clusters":  len(assignment.Clusters),
		"clustered": assignment.ClusteredCount,
		"noise":     assignment.NoiseCount,
	})
	return run, nil
}
