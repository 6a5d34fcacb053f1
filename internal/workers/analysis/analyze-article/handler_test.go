package analyzearticle

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trust-workers/internal/common/camunda/camundatest"
	"news-trust-workers/internal/common/config"
	"news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/common/logger"
	"news-trust-workers/internal/models"
)

type analyzerFunc func(ctx context.Context, in models.ArticleInput) (*models.AnalysisResult, bool, error)

func (f analyzerFunc) AnalyzeArticle(ctx context.Context, in models.ArticleInput) (*models.AnalysisResult, bool, error) {
	return f(ctx, in)
}

func createTestConfig() *Config {
	return &Config{Timeout: 10 * time.Second}
}

func createMockJob(variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                12345,
		Type:               TaskType,
		ProcessInstanceKey: 123450,
		Retries:            3,
		Variables:          variables,
	}}
}

func TestHandler_Execute(t *testing.T) {
	var received models.ArticleInput
	analyzer := analyzerFunc(func(ctx context.Context, in models.ArticleInput) (*models.AnalysisResult, bool, error) {
		received = in
		return &models.AnalysisResult{
			URL:               in.URL,
			OverallTrustScore: 0.62,
			FactCheckResult:   models.FactCheckResult{OverallVerification: models.Unverified, Degraded: true},
		}, true, nil
	})
	h := NewHandler(createTestConfig(), analyzer, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		ArticleID: "42",
		Title:     "Title",
		Content:   "Body",
		URL:       "https://news.example.com/a",
	})
	require.NoError(t, err)

	assert.Equal(t, "42", received.ID)
	assert.Equal(t, 0.62, out.TrustScore)
	assert.True(t, out.CacheHit)
	assert.True(t, out.Degraded)

	encoded, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"cacheHit":true`)
	assert.Contains(t, string(encoded), `"analysis":{`)
}

func TestHandler_Execute_PropagatesErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    errors.ErrorCode
		wantRetries bool
	}{
		{"validation", errors.NewValidationError("url", "url is required"), errors.ErrCodeValidationFailed, false},
		{"inference unavailable", errors.NewInferenceUnavailableError("bias", stderrors.New("503")), errors.ErrCodeInferenceUnavailable, true},
		{"parse failure", errors.NewInferenceParseError("bias", stderrors.New("no JSON"), "hm"), errors.ErrCodeInferenceParseFailed, false},
		{"timeout", errors.NewArticleTimeoutError("https://x", context.DeadlineExceeded), errors.ErrCodeArticleTimeout, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := analyzerFunc(func(ctx context.Context, in models.ArticleInput) (*models.AnalysisResult, bool, error) {
				return nil, false, tt.err
			})
			h := NewHandler(createTestConfig(), analyzer, logger.NewTestLogger(t))

			_, err := h.Execute(context.Background(), &Input{URL: "https://x"})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))

			bpmn := errors.ConvertToBPMNError(errors.Normalize(err))
			assert.Equal(t, tt.wantRetries, bpmn.Retries > 0)
		})
	}
}

func TestHandler_ParseInput(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, logger.NewTestLogger(t))

	input, err := h.parseInput(createMockJob(`{"title":"T","content":"C","url":"https://a.example.com/x","articleId":"7"}`))
	require.NoError(t, err)
	assert.Equal(t, "7", input.Article().ID)
	assert.Equal(t, "https://a.example.com/x", input.Article().URL)

	_, err = h.parseInput(createMockJob("invalid json{"))
	assert.Equal(t, errors.ErrCodeInputParsingFailed, errors.CodeOf(err))
}

func TestNewConfig(t *testing.T) {
	assert.Equal(t, 45*time.Second, NewConfig(config.WorkerConfig{Timeout: 45000}).Timeout)
	assert.Equal(t, 90*time.Second, NewConfig(config.WorkerConfig{}).Timeout)
}

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		err       error
		wantKind  string
		wantCode  string
	}{
		{"completes with analysis", `{"title":"T","content":"C","url":"https://news.example.com/a"}`, nil, camundatest.KindComplete, ""},
		{"parse failure throws", `not json`, nil, camundatest.KindThrow, string(errors.ErrCodeInputParsingFailed)},
		{"declined inference throws", `{"title":"T","content":"C","url":"https://news.example.com/a"}`,
			errors.NewInferenceDeclinedError("bias", "policy"), camundatest.KindThrow, string(errors.ErrCodeInferenceDeclined)},
		{"unavailable inference fails with retries", `{"title":"T","content":"C","url":"https://news.example.com/a"}`,
			errors.NewInferenceUnavailableError("bias", stderrors.New("503")), camundatest.KindFail, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := analyzerFunc(func(ctx context.Context, in models.ArticleInput) (*models.AnalysisResult, bool, error) {
				if tt.err != nil {
					return nil, false, tt.err
				}
				return &models.AnalysisResult{URL: in.URL, OverallTrustScore: 0.5}, false, nil
			})
			client := camundatest.NewJobClient()

			NewHandler(createTestConfig(), analyzer, logger.NewTestLogger(t)).Handle(client, createMockJob(tt.variables))

			cmds := client.Commands()
			require.Len(t, cmds, 1)
			assert.Equal(t, tt.wantKind, cmds[0].Kind)
			assert.Equal(t, int64(12345), cmds[0].JobKey)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, cmds[0].ErrorCode)
			}
			if tt.wantKind == camundatest.KindComplete {
				assert.Contains(t, cmds[0].Variables, `"trustScore":0.5`)
			}
		})
	}
}
