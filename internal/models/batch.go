// internal/models/batch.go
package models

import "time"

type BatchFailure struct {
	URL       string `json:"url"`
	ArticleID string `json:"articleId,omitempty"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

type BatchStatistics struct {
	Analyzed       int                  `json:"analyzed"`
	Failed         int                  `json:"failed"`
	MeanTrustScore float64              `json:"meanTrustScore"`
	ByVerification map[Verification]int `json:"byVerification"`
	ByBiasCategory map[BiasCategory]int `json:"byBiasCategory"`
}

type BatchReport struct {
	RunID      string            `json:"runId"`
	Results    []*AnalysisResult `json:"results"`
	Failures   []BatchFailure    `json:"failures"`
	Statistics BatchStatistics   `json:"statistics"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
}
