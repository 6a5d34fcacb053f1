package clusterarticles

import "news-trust-workers/internal/models"

type Input struct {
	SinceHours int `json:"sinceHours,omitempty"`
}

type Output struct {
	RunID          string           `json:"runId"`
	ClusterCount   int              `json:"clusterCount"`
	ClusteredCount int              `json:"clusteredCount"`
	NoiseCount     int              `json:"noiseCount"`
	Clusters       []models.Cluster `json:"clusters"`
}
