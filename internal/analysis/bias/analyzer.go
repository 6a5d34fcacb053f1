// Package bias estimates the political lean of an article with the
// inference service.
package bias

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"news-trust-workers/internal/clients/inference"
	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/common/logger"
	"news-trust-workers/internal/common/validation"
	"news-trust-workers/internal/models"
)

const (
	MinBias = -5.0
	MaxBias = 5.0

	DefaultMaxContentChars = 8000
)

var judgmentSchema = validation.MustCompileSchema(validation.BiasJudgmentSchema)

const systemPrompt = `You are a media bias analyst. Rate the political bias of the article on a scale
from -5 (strongly left) through 0 (neutral) to 5 (strongly right), and how confident you are in
that rating from 0 to 1. Respond with JSON only:
{"overall_bias": <number>, "confidence": <number>, "rationale": "<one or two sentences>"}`

type Analyzer struct {
	inferencer      inference.Inferencer
	maxContentChars int
	logger          logger.Logger
}

func NewAnalyzer(inf inference.Inferencer, maxContentChars int, log logger.Logger) *Analyzer {
	if maxContentChars <= 0 {
		maxContentChars = DefaultMaxContentChars
	}
	return &Analyzer{
		inferencer:      inf,
		maxContentChars: maxContentChars,
		logger:          log.With(map[string]interface{}{"component": "bias-analyzer"}),
	}
}

// Analyze returns the bias assessment for an article. Malformed model output
// is an INFERENCE_PARSE_FAILED error, never a default assessment.
func (a *Analyzer) Analyze(ctx context.Context, article models.ArticleInput) (*models.BiasAssessment, error) {
	if strings.TrimSpace(article.Content) == "" {
		return nil, apperrors.NewValidationError("content", "content is required for bias analysis")
	}

	raw, err := a.inferencer.Infer(ctx, inference.Prompt{
		Task:   inference.TaskBias,
		System: systemPrompt,
		User:   BuildUserPrompt(article, a.maxContentChars),
	})
	if err != nil {
		return nil, err
	}

	assessment, err := ParseJudgment(raw)
	if err != nil {
		a.logger.Error("bias judgment did not parse", map[string]interface{}{
			"url":         article.URL,
			"error":       err.Error(),
			"rawResponse": apperrors.Excerpt(raw, 512),
		})
		return nil, apperrors.NewInferenceParseError(string(inference.TaskBias), err, raw)
	}
	return assessment, nil
}

// BuildUserPrompt keeps the title whole and cuts content from the tail.
func BuildUserPrompt(article models.ArticleInput, maxContentChars int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	if article.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", article.Source)
	}
	b.WriteString(article.LanguageHint())
	b.WriteString("\n\n")
	b.WriteString(Truncate(article.Content, maxContentChars))
	return b.String()
}

// Truncate returns the first max runes of s.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

type judgment struct {
	OverallBias float64 `json:"overall_bias"`
	Confidence  float64 `json:"confidence"`
	Rationale   string  `json:"rationale"`
}

// ParseJudgment extracts, validates and normalizes the model's JSON.
func ParseJudgment(raw string) (*models.BiasAssessment, error) {
	doc, err := validation.ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	if err := judgmentSchema.Validate(doc); err != nil {
		return nil, err
	}

	var j judgment
	if err := json.Unmarshal([]byte(doc), &j); err != nil {
		return nil, fmt.Errorf("decode judgment: %w", err)
	}

	overall := clamp(j.OverallBias, MinBias, MaxBias)
	return &models.BiasAssessment{
		OverallBias:  overall,
		BiasCategory: models.CategorizeBias(overall),
		Confidence:   j.Confidence,
		Rationale:    strings.TrimSpace(j.Rationale),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
