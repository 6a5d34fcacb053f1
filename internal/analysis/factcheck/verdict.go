package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"news-trust-workers/internal/clients/inference"
	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/common/validation"
	"news-trust-workers/internal/models"
)

var verdictSchema = validation.MustCompileSchema(validation.VerdictSchema)

const verdictSystemPrompt = `You are a fact-checker. Given claims from a news article and numbered evidence
from independent sources, decide whether the evidence corroborates the claims.
verified: the evidence directly confirms the claims.
partially-verified: some claims are confirmed, or confirmation is indirect.
disputed: the evidence contradicts the claims.
unverified: the evidence neither confirms nor contradicts them.
score is the strength of corroboration from 0 to 1: how firmly the evidence confirms the claims.
It is not your confidence in the verdict, so disputed and unverified verdicts get low scores.
List the evidence numbers that support and that contradict. Respond with JSON only:
{"verdict": "<verdict>", "score": <0..1>, "rationale": "<one sentence>", "supporting": [..], "contradicting": [..]}`

type Verdict struct {
	Verdict       models.Verification `json:"verdict"`
	Score         float64             `json:"score"`
	Rationale     string              `json:"rationale"`
	Supporting    []int               `json:"supporting"`
	Contradicting []int               `json:"contradicting"`
}

func (c *Checker) judge(ctx context.Context, article models.ArticleInput, claims []string, evidence []models.Evidence) *models.FactCheckResult {
	result := &models.FactCheckResult{
		OverallVerification: models.Unverified,
		Claims:              claims,
		Evidence:            evidence,
	}

	raw, err := c.inferencer.Infer(ctx, inference.Prompt{
		Task:   inference.TaskVerdict,
		System: verdictSystemPrompt,
		User:   VerdictPrompt(article, claims, evidence),
	})
	if err != nil {
		c.logger.Warn("verdict inference unavailable, fact-check degraded", map[string]interface{}{
			"url":   article.URL,
			"error": err.Error(),
		})
		result.Degraded = true
		result.Rationale = "verdict unavailable"
		return result
	}

	v, err := ParseVerdict(raw, len(evidence))
	if err != nil {
		c.logger.Error("verdict did not parse", map[string]interface{}{
			"url":         article.URL,
			"error":       err.Error(),
			"rawResponse": apperrors.Excerpt(raw, 512),
		})
		result.Degraded = true
		result.Rationale = "verdict unreadable"
		return result
	}

	result.OverallVerification = v.Verdict
	result.VerificationScore = v.Score
	result.Rationale = strings.TrimSpace(v.Rationale)
	return result
}

// VerdictPrompt numbers evidence from 1 so the model can cite it.
func VerdictPrompt(article models.ArticleInput, claims []string, evidence []models.Evidence) string {
	var b strings.Builder
	b.WriteString(article.LanguageHint())
	b.WriteString("\n\nClaims:\n")
	for i, claim := range claims {
		fmt.Fprintf(&b, "- C%d: %s\n", i+1, claim)
	}
	b.WriteString("\nEvidence:\n")
	for i, ev := range evidence {
		fmt.Fprintf(&b, "[%d] %s (%s)\n    %s\n", i+1, ev.Title, ev.Source, ev.Snippet)
	}
	return b.String()
}

// ParseVerdict validates the model's verdict and enforces the ladder:
// verified needs a supporting citation and disputed needs a contradicting
// one, otherwise both fall to partially-verified. Citations outside
// 1..evidenceCount are ignored. The score is clamped into the final
// verdict's band, see models.Verification.ScoreRange.
func ParseVerdict(raw string, evidenceCount int) (*Verdict, error) {
	doc, err := validation.ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	if err := verdictSchema.Validate(doc); err != nil {
		return nil, err
	}

	var v Verdict
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	if !v.Verdict.Valid() {
		return nil, fmt.Errorf("unknown verdict %q", v.Verdict)
	}

	v.Supporting = citations(v.Supporting, evidenceCount)
	v.Contradicting = citations(v.Contradicting, evidenceCount)

	switch {
	case v.Verdict == models.Verified && len(v.Supporting) == 0:
		v.Verdict = models.PartiallyVerified
	case v.Verdict == models.Disputed && len(v.Contradicting) == 0:
		v.Verdict = models.PartiallyVerified
	}

	lo, hi := v.Verdict.ScoreRange()
	if v.Score < lo {
		v.Score = lo
	}
	if v.Score > hi {
		v.Score = hi
	}
	return &v, nil
}

func citations(idx []int, evidenceCount int) []int {
	out := idx[:0]
	for _, i := range idx {
		if i >= 1 && i <= evidenceCount {
			out = append(out, i)
		}
	}
	return out
}
