package analyzenewsbatch

import "news-trust-workers/internal/models"

// Input.Limit falls back to the configured default when absent.
type Input struct {
	Limit *int `json:"limit,omitempty"`
}

type Output struct {
	RunID         string                 `json:"runId"`
	AnalyzedCount int                    `json:"analyzedCount"`
	FailedCount   int                    `json:"failedCount"`
	Failures      []models.BatchFailure  `json:"failures"`
	Statistics    models.BatchStatistics `json:"statistics"`
}
