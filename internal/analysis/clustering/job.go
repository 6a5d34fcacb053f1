// Package clustering groups article embeddings into events with an external
// density-based clustering program.
package clustering

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/common/logger"
	"news-trust-workers/internal/common/validation"
	"news-trust-workers/internal/models"
)

// Job assigns embeddings to clusters. Items in no cluster are noise.
type Job interface {
	Run(ctx context.Context, embeddings []models.Embedding) (*models.ClusterAssignment, error)
}

type Params struct {
	MinClusterSize   int
	MinSamples       int
	Metric           string
	SelectionEpsilon float64
	UsePCA           bool
}

func (p Params) flags() []string {
	flags := []string{
		"--min-cluster-size", strconv.Itoa(p.MinClusterSize),
		"--min-samples", strconv.Itoa(p.MinSamples),
		"--metric", p.Metric,
	}
	if p.SelectionEpsilon > 0 {
		flags = append(flags, "--cluster-selection-epsilon", strconv.FormatFloat(p.SelectionEpsilon, 'f', -1, 64))
	}
	if p.UsePCA {
		flags = append(flags, "--use-pca")
	}
	return flags
}

// ProcessJob runs Command with Args, then --data <file> and the clustering
// parameters. The program reads [{id, embedding}] from the file and writes
// the assignment JSON to stdout.
type ProcessJob struct {
	Command string
	Args    []string
	Params  Params
	Timeout time.Duration
	Logger  logger.Logger
}

func (j *ProcessJob) Run(ctx context.Context, embeddings []models.Embedding) (*models.ClusterAssignment, error) {
	if len(embeddings) < j.Params.MinClusterSize {
		return allNoise(len(embeddings)), nil
	}

	data, err := os.CreateTemp("", "cluster-input-*.json")
	if err != nil {
		return nil, apperrors.NewClusteringFailedError(fmt.Errorf("create input file: %w", err), "")
	}
	defer os.Remove(data.Name())

	if err := json.NewEncoder(data).Encode(embeddings); err != nil {
		data.Close()
		return nil, apperrors.NewClusteringFailedError(fmt.Errorf("write input file: %w", err), "")
	}
	if err := data.Close(); err != nil {
		return nil, apperrors.NewClusteringFailedError(fmt.Errorf("write input file: %w", err), "")
	}

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, j.Args...), "--data", data.Name())
	args = append(args, j.Params.flags()...)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, j.Command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return nil, apperrors.NewClusteringFailedError(err, apperrors.Excerpt(strings.TrimSpace(stderr.String()), 1024))
	}

	assignment, err := parseAssignment(stdout.String(), embeddings)
	if err != nil {
		return nil, apperrors.NewClusteringFailedError(err, apperrors.Excerpt(strings.TrimSpace(stderr.String()), 1024))
	}

	if j.Logger != nil {
		j.Logger.Info("clustering finished", map[string]interface{}{
			"items":      len(embeddings),
			"clusters":   len(assignment.Clusters),
			"noise":      assignment.NoiseCount,
			"durationMs": time.Since(start).Milliseconds(),
		})
	}
	return assignment, nil
}

// parseAssignment decodes the program output, drops ids that were not in
// the input and recomputes the counts.
func parseAssignment(out string, input []models.Embedding) (*models.ClusterAssignment, error) {
	doc, err := validation.ExtractJSONObject(out)
	if err != nil {
		return nil, fmt.Errorf("clustering output: %w", err)
	}
	var raw models.ClusterAssignment
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return nil, fmt.Errorf("decode clustering output: %w", err)
	}

	known := make(map[string]bool, len(input))
	for _, e := range input {
		known[e.ID] = true
	}

	assigned := make(map[string]bool)
	result := &models.ClusterAssignment{Clusters: []models.Cluster{}}
	for _, c := range raw.Clusters {
		if c.ClusterID < 0 {
			continue
		}
		members := make([]string, 0, len(c.EventIDs))
		for _, id := range c.EventIDs {
			if !known[id] || assigned[id] {
				continue
			}
			assigned[id] = true
			members = append(members, id)
		}
		if len(members) == 0 {
			continue
		}
		result.Clusters = append(result.Clusters, models.Cluster{ClusterID: c.ClusterID, EventIDs: members, Size: len(members)})
	}
	sort.Slice(result.Clusters, func(a, b int) bool { return result.Clusters[a].ClusterID < result.Clusters[b].ClusterID })

	result.ClusteredCount = len(assigned)
	result.NoiseCount = len(known) - len(assigned)
	return result, nil
}

func allNoise(n int) *models.ClusterAssignment {
	return &models.ClusterAssignment{Clusters: []models.Cluster{}, NoiseCount: n}
}
