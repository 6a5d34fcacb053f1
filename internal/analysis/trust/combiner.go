// Package trust folds a bias assessment and a fact-check result into one
// trust score with a fixed-template summary.
package trust

import (
	"fmt"
	"math"
	"strings"

	"news-trust-workers/internal/models"
)

// Version identifies the weighting below. Change it whenever the weights change.
const Version = "v1"

type Weights struct {
	BiasConfidence float64
	Verification   float64
}

// DefaultWeights favours factual corroboration over bias-detection confidence.
// The bias score itself never enters the trust score.
var DefaultWeights = Weights{BiasConfidence: 0.4, Verification: 0.6}

type Combiner struct {
	weights Weights
}

func NewCombiner(w Weights) *Combiner {
	return &Combiner{weights: w}
}

// Combine returns the trust score in [0, 1] and its summary line.
func (c *Combiner) Combine(bias models.BiasAssessment, fact models.FactCheckResult) (float64, string) {
	score := c.weights.BiasConfidence*bias.Confidence + c.weights.Verification*fact.VerificationScore
	score = clamp01(score)
	// trim float noise so 0.4*0.8+0.6*0.5 reads back as 0.62
	score = math.Round(score*1e6) / 1e6
	return score, Summary(bias, fact, score)
}

// Combine uses DefaultWeights.
func Combine(bias models.BiasAssessment, fact models.FactCheckResult) (float64, string) {
	return NewCombiner(DefaultWeights).Combine(bias, fact)
}

func Summary(bias models.BiasAssessment, fact models.FactCheckResult, score float64) string {
	lean := "Center coverage"
	switch bias.BiasCategory {
	case models.BiasLeft, models.BiasRight:
		lean = title(string(bias.BiasCategory)) + "-leaning coverage"
	}
	verdict := fact.OverallVerification
	if verdict == "" {
		verdict = models.Unverified
	}
	return fmt.Sprintf("%s (bias %+.2f); fact-check: %s; trust score %.2f.", lean, bias.OverallBias, verdict, score)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
