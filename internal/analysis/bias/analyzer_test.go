package bias

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trust-workers/internal/clients/inference"
	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/common/logger"
	"news-trust-workers/internal/models"
)

func testArticle() models.ArticleInput {
	return models.ArticleInput{
		Title:   "Council passes budget",
		Content: "The city council approved the budget on Tuesday.",
		Source:  "Local Wire",
		URL:     "https://news.example.com/budget",
	}
}

func fixed(text string, err error) inference.Inferencer {
	return inference.Func(func(ctx context.Context, p inference.Prompt) (string, error) {
		return text, err
	})
}

func TestAnalyzer_Analyze(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		wantBias     float64
		wantCategory models.BiasCategory
		wantConf     float64
	}{
		{"left", `{"overall_bias": -3, "confidence": 0.8, "rationale": "framing"}`, -3, models.BiasLeft, 0.8},
		{"center zero", `{"overall_bias": 0, "confidence": 0.9}`, 0, models.BiasCenter, 0.9},
		{"right", `{"overall_bias": 2, "confidence": 0.6}`, 2, models.BiasRight, 0.6},
		{"lower boundary is center", `{"overall_bias": -1, "confidence": 0.5}`, -1, models.BiasCenter, 0.5},
		{"upper boundary is center", `{"overall_bias": 1, "confidence": 0.5}`, 1, models.BiasCenter, 0.5},
		{"clamped", `{"overall_bias": 9.5, "confidence": 0.4}`, 5, models.BiasRight, 0.4},
		{"fenced", "```json\n{\"overall_bias\": -1.5, \"confidence\": 0.7}\n```", -1.5, models.BiasLeft, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(fixed(tt.response, nil), 0, logger.NewTestLogger(t))
			got, err := a.Analyze(context.Background(), testArticle())
			require.NoError(t, err)
			assert.Equal(t, tt.wantBias, got.OverallBias)
			assert.Equal(t, tt.wantCategory, got.BiasCategory)
			assert.Equal(t, tt.wantConf, got.Confidence)
		})
	}
}

func TestAnalyzer_ParseFailures(t *testing.T) {
	responses := []string{
		"I think it leans slightly left.",
		`{"overall_bias": "left", "confidence": 0.8}`,
		`{"overall_bias": -2}`,
		`{"overall_bias": -2, "confidence": 1.7}`,
	}

	for _, resp := range responses {
		a := NewAnalyzer(fixed(resp, nil), 0, logger.NewTestLogger(t))
		_, err := a.Analyze(context.Background(), testArticle())
		require.Error(t, err, resp)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInferenceParseFailed), resp)
		assert.False(t, apperrors.IsRetryable(err))
	}
}

func TestAnalyzer_PropagatesInferenceErrors(t *testing.T) {
	unavailable := apperrors.NewInferenceUnavailableError("bias", errors.New("503"))
	a := NewAnalyzer(fixed("", unavailable), 0, logger.NewTestLogger(t))

	_, err := a.Analyze(context.Background(), testArticle())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInferenceUnavailable))
	assert.True(t, apperrors.IsRetryable(err))
}

func TestAnalyzer_EmptyContent(t *testing.T) {
	called := false
	inf := inference.Func(func(ctx context.Context, p inference.Prompt) (string, error) {
		called = true
		return "", nil
	})
	article := testArticle()
	article.Content = "  "

	_, err := NewAnalyzer(inf, 0, logger.NewTestLogger(t)).Analyze(context.Background(), article)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
	assert.False(t, called)
}

func TestAnalyzer_TruncatesContentKeepsTitle(t *testing.T) {
	var prompt inference.Prompt
	inf := inference.Func(func(ctx context.Context, p inference.Prompt) (string, error) {
		prompt = p
		return `{"overall_bias": 0, "confidence": 0.5}`, nil
	})
	article := testArticle()
	article.Content = strings.Repeat("a", 50) + "TAIL"

	_, err := NewAnalyzer(inf, 50, logger.NewTestLogger(t)).Analyze(context.Background(), article)
	require.NoError(t, err)
	assert.Equal(t, inference.TaskBias, prompt.Task)
	assert.Contains(t, prompt.User, "Title: Council passes budget")
	assert.NotContains(t, prompt.User, "TAIL")
}

func TestBuildUserPrompt_LanguageHint(t *testing.T) {
	article := testArticle()
	assert.Contains(t, BuildUserPrompt(article, 0), "detect it and answer in English")

	article.Language = "de"
	prompt := BuildUserPrompt(article, 0)
	assert.Contains(t, prompt, "Article language: de. Answer in English.")
	assert.NotContains(t, prompt, "detect it")
}

func TestTruncate_RuneSafe(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "héllo", Truncate("héllo", 10))
	assert.Equal(t, "héllo", Truncate("héllo", 0))
}
