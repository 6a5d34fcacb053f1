// internal/models/analysis.go
package models

import "time"

type BiasCategory string

const (
	BiasLeft   BiasCategory = "left"
	BiasCenter BiasCategory = "center"
	BiasRight  BiasCategory = "right"
)

// CategorizeBias maps an overall bias score to its category. Scores in
// [-1, 1] are center; the boundaries themselves are center.
func CategorizeBias(overallBias float64) BiasCategory {
	switch {
	case overallBias < -1:
		return BiasLeft
	case overallBias > 1:
		return BiasRight
	default:
		return BiasCenter
	}
}

type BiasAssessment struct {
	OverallBias  float64      `json:"overallBias"`
	BiasCategory BiasCategory `json:"biasCategory"`
	Confidence   float64      `json:"confidence"`
	Rationale    string       `json:"rationale,omitempty"`
}

type Verification string

const (
	Verified          Verification = "verified"
	PartiallyVerified Verification = "partially-verified"
	Disputed          Verification = "disputed"
	Unverified        Verification = "unverified"
)

// Rank orders verdicts by strength of corroboration, highest first.
func (v Verification) Rank() int {
	switch v {
	case Verified:
		return 3
	case PartiallyVerified:
		return 2
	case Disputed:
		return 1
	default:
		return 0
	}
}

// ScoreRange is the verification score band allowed for a verdict. Bands
// do not overlap out of Rank order, so a weaker verdict never scores above
// a stronger one.
func (v Verification) ScoreRange() (lo, hi float64) {
	switch v {
	case Verified:
		return 0.7, 1
	case PartiallyVerified:
		return 0.3, 0.7
	case Disputed:
		return 0, 0.3
	default:
		return 0, 0
	}
}

func (v Verification) Valid() bool {
	switch v {
	case Verified, PartiallyVerified, Disputed, Unverified:
		return true
	}
	return false
}

type Evidence struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"source,omitempty"`
	Claim   string `json:"claim,omitempty"`
}

type FactCheckResult struct {
	OverallVerification Verification `json:"overallVerification"`
	VerificationScore   float64      `json:"verificationScore"`
	Claims              []string     `json:"claims,omitempty"`
	Evidence            []Evidence   `json:"evidence"`
	Rationale           string       `json:"rationale,omitempty"`
	// Degraded is set when search or verdict inference was unavailable and
	// the result fell back to unverified.
	Degraded bool `json:"degraded,omitempty"`
}

// AnalysisResult is the per-URL analysis record. Warnings is transient and
// never persisted.
type AnalysisResult struct {
	ID                string          `json:"id"`
	ArticleID         string          `json:"articleId,omitempty"`
	URL               string          `json:"url"`
	BiasAnalysis      BiasAssessment  `json:"biasAnalysis"`
	FactCheckResult   FactCheckResult `json:"factCheckResult"`
	OverallTrustScore float64         `json:"overallTrustScore"`
	Summary           string          `json:"summary"`
	CreatedAt         time.Time       `json:"createdAt"`
	Warnings          []string        `json:"warnings,omitempty"`
}
