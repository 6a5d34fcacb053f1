package factcheck

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trust-workers/internal/analysis/trust"
	"news-trust-workers/internal/clients/inference"
	"news-trust-workers/internal/clients/search"
	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/common/logger"
	"news-trust-workers/internal/models"
)

func testArticle() models.ArticleInput {
	return models.ArticleInput{
		Title:   "Council passes budget",
		Content: "The council approved a $2M budget on Tuesday. Critics objected.",
		Source:  "Example News",
		URL:     "https://www.example.com/budget",
	}
}

// scripted answers each task with a fixed response or error.
func scripted(responses map[inference.Task]string, errs map[inference.Task]error) inference.Func {
	return func(ctx context.Context, p inference.Prompt) (string, error) {
		if err := errs[p.Task]; err != nil {
			return "", err
		}
		return responses[p.Task], nil
	}
}

func results(ev ...models.Evidence) search.Func {
	return func(ctx context.Context, claim string) ([]models.Evidence, error) {
		out := make([]models.Evidence, len(ev))
		copy(out, ev)
		return out, nil
	}
}

func newChecker(t *testing.T, inf inference.Inferencer, s search.Searcher) *Checker {
	return NewChecker(inf, s, Config{MaxClaims: 3}, logger.NewTestLogger(t))
}

func TestCheck_NoEvidenceIsUnverified(t *testing.T) {
	var verdictCalls int32
	inf := inference.Func(func(ctx context.Context, p inference.Prompt) (string, error) {
		if p.Task == inference.TaskVerdict {
			atomic.AddInt32(&verdictCalls, 1)
		}
		return `{"claims": ["The council approved a budget"]}`, nil
	})

	result, err := newChecker(t, inf, results()).Check(context.Background(), testArticle())
	require.NoError(t, err)
	assert.Equal(t, models.Unverified, result.OverallVerification)
	assert.Equal(t, 0.0, result.VerificationScore)
	assert.False(t, result.Degraded)
	assert.Empty(t, result.Evidence)
	assert.Equal(t, int32(0), atomic.LoadInt32(&verdictCalls))
}

func TestCheck_SearchUnavailableDegrades(t *testing.T) {
	down := search.Func(func(ctx context.Context, claim string) ([]models.Evidence, error) {
		return nil, apperrors.NewSearchUnavailableError("web", errors.New("timeout"))
	})
	inf := scripted(map[inference.Task]string{inference.TaskClaims: `{"claims": ["a", "b"]}`}, nil)

	result, err := newChecker(t, inf, down).Check(context.Background(), testArticle())
	require.NoError(t, err)
	assert.Equal(t, models.Unverified, result.OverallVerification)
	assert.Equal(t, 0.0, result.VerificationScore)
	assert.True(t, result.Degraded)
}

func TestCheck_Verdicts(t *testing.T) {
	evidence := []models.Evidence{
		{URL: "https://gov.example.org/budget", Title: "Budget office", Snippet: "approved"},
		{URL: "https://wire.example.net/story", Title: "Wire", Snippet: "council vote"},
	}

	tests := []struct {
		name      string
		verdict   string
		want      models.Verification
		wantScore float64
	}{
		{"verified with support", `{"verdict":"verified","score":0.9,"supporting":[1,2],"contradicting":[]}`, models.Verified, 0.9},
		{"weak verified score lifted to band", `{"verdict":"verified","score":0.5,"supporting":[1]}`, models.Verified, 0.7},
		{"verified without support is downgraded", `{"verdict":"verified","score":0.9,"supporting":[]}`, models.PartiallyVerified, 0.7},
		{"verified citing missing evidence is downgraded", `{"verdict":"verified","score":0.6,"supporting":[7]}`, models.PartiallyVerified, 0.6},
		{"disputed score capped", `{"verdict":"disputed","score":0.9,"contradicting":[2]}`, models.Disputed, 0.3},
		{"disputed low score kept", `{"verdict":"disputed","score":0.1,"contradicting":[2]}`, models.Disputed, 0.1},
		{"disputed without contradiction is downgraded", `{"verdict":"disputed","score":0.5}`, models.PartiallyVerified, 0.5},
		{"partial score capped", `{"verdict":"partially-verified","score":1.4}`, models.PartiallyVerified, 0.7},
		{"unverified forced to zero", `{"verdict":"unverified","score":0.9}`, models.Unverified, 0},
		{"negative score clamped", `{"verdict":"unverified","score":-0.2}`, models.Unverified, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inf := scripted(map[inference.Task]string{
				inference.TaskClaims:  `{"claims": ["The council approved a budget"]}`,
				inference.TaskVerdict: tt.verdict,
			}, nil)

			result, err := newChecker(t, inf, results(evidence...)).Check(context.Background(), testArticle())
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.OverallVerification)
			assert.Equal(t, tt.wantScore, result.VerificationScore)
			assert.False(t, result.Degraded)
			assert.Len(t, result.Evidence, 2)
		})
	}
}

func TestCheck_VerdictFailuresDegrade(t *testing.T) {
	evidence := models.Evidence{URL: "https://wire.example.net/story", Title: "Wire"}

	tests := []struct {
		name string
		inf  inference.Func
	}{
		{
			name: "unavailable",
			inf: scripted(map[inference.Task]string{inference.TaskClaims: `{"claims":["x"]}`},
				map[inference.Task]error{inference.TaskVerdict: apperrors.NewInferenceUnavailableError("verdict", errors.New("503"))}),
		},
		{
			name: "unparsable",
			inf: scripted(map[inference.Task]string{
				inference.TaskClaims:  `{"claims":["x"]}`,
				inference.TaskVerdict: "Looks true to me.",
			}, nil),
		},
		{
			name: "unknown verdict",
			inf: scripted(map[inference.Task]string{
				inference.TaskClaims:  `{"claims":["x"]}`,
				inference.TaskVerdict: `{"verdict":"probably","score":0.5}`,
			}, nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newChecker(t, tt.inf, results(evidence)).Check(context.Background(), testArticle())
			require.NoError(t, err)
			assert.Equal(t, models.Unverified, result.OverallVerification)
			assert.Equal(t, 0.0, result.VerificationScore)
			assert.True(t, result.Degraded)
			assert.Len(t, result.Evidence, 1)
		})
	}
}

func TestCheck_DropsOwnHostAndDuplicates(t *testing.T) {
	s := search.Func(func(ctx context.Context, claim string) ([]models.Evidence, error) {
		return []models.Evidence{
			{URL: "https://example.com/budget-followup"},
			{URL: "https://other.example.org/a"},
			{URL: "https://other.example.org/a"},
		}, nil
	})
	inf := scripted(map[inference.Task]string{
		inference.TaskClaims:  `{"claims": ["one", "two"]}`,
		inference.TaskVerdict: `{"verdict":"verified","score":0.8,"supporting":[1]}`,
	}, nil)

	result, err := newChecker(t, inf, s).Check(context.Background(), testArticle())
	require.NoError(t, err)
	require.Len(t, result.Evidence, 1)
	assert.Equal(t, "https://other.example.org/a", result.Evidence[0].URL)
	assert.Equal(t, "one", result.Evidence[0].Claim)
}

func TestCheck_ClaimFallback(t *testing.T) {
	var searched []string
	recording := search.Func(func(ctx context.Context, claim string) ([]models.Evidence, error) {
		searched = append(searched, claim)
		return nil, nil
	})
	inf := scripted(nil, map[inference.Task]error{
		inference.TaskClaims: apperrors.NewInferenceUnavailableError("claims", errors.New("down")),
	})

	checker := NewChecker(inf, recording, Config{MaxClaims: 1}, logger.NewTestLogger(t))
	result, err := checker.Check(context.Background(), testArticle())
	require.NoError(t, err)
	assert.Equal(t, []string{"Council passes budget"}, result.Claims)
	assert.Equal(t, []string{"Council passes budget"}, searched)
}

func TestCheck_ContextExpired(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inf := scripted(map[inference.Task]string{inference.TaskClaims: `{"claims":["x"]}`}, nil)
	_, err := newChecker(t, inf, results()).Check(ctx, testArticle())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHeadlineClaims(t *testing.T) {
	article := testArticle()
	assert.Equal(t,
		[]string{"Council passes budget", "The council approved a $2M budget on Tuesday."},
		HeadlineClaims(article, 3))

	article.Content = "Council passes budget. More text follows."
	assert.Equal(t, []string{"Council passes budget"}, HeadlineClaims(article, 3))
}

func TestParseClaims_DedupesAndCaps(t *testing.T) {
	claims, err := parseClaims(`{"claims": ["A rose.", "a rose", " ", "B fell", "C rose", "D fell"]}`, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"A rose.", "B fell", "C rose"}, claims)
}

func TestVerdictPrompt_NumbersEvidence(t *testing.T) {
	prompt := VerdictPrompt(testArticle(), []string{"claim"}, []models.Evidence{{Title: "first"}, {Title: "second"}})
	assert.True(t, strings.Contains(prompt, "[1] first"))
	assert.True(t, strings.Contains(prompt, "[2] second"))
}

func TestCheck_PromptsCarryLanguageHint(t *testing.T) {
	var mu sync.Mutex
	users := map[inference.Task]string{}
	inf := inference.Func(func(ctx context.Context, p inference.Prompt) (string, error) {
		mu.Lock()
		users[p.Task] = p.User
		mu.Unlock()
		if p.Task == inference.TaskClaims {
			return `{"claims": ["Der Rat hat den Haushalt beschlossen"]}`, nil
		}
		return `{"verdict":"verified","score":0.8,"supporting":[1]}`, nil
	})
	article := testArticle()
	article.Language = "de"

	_, err := newChecker(t, inf, results(models.Evidence{URL: "https://gov.example.org/haushalt", Title: "Haushalt"})).
		Check(context.Background(), article)
	require.NoError(t, err)
	for _, task := range []inference.Task{inference.TaskClaims, inference.TaskVerdict} {
		assert.Contains(t, users[task], "Article language: de. Answer in English.", task)
	}

	assert.Contains(t, ClaimsPrompt(testArticle(), 0), "Article language not given: detect it and answer in English.")
}

func TestParseVerdict_TrustOrdersByCorroboration(t *testing.T) {
	bias := models.BiasAssessment{OverallBias: 0, BiasCategory: models.BiasCenter, Confidence: 0.8}

	trustFor := func(raw string) float64 {
		v, err := ParseVerdict(raw, 2)
		require.NoError(t, err)
		score, _ := trust.Combine(bias, models.FactCheckResult{OverallVerification: v.Verdict, VerificationScore: v.Score})
		return score
	}

	verified := trustFor(`{"verdict":"verified","score":0.5,"supporting":[1]}`)
	disputed := trustFor(`{"verdict":"disputed","score":0.9,"contradicting":[1]}`)
	unverified := trustFor(`{"verdict":"unverified","score":0.9}`)

	assert.Greater(t, verified, disputed)
	assert.Greater(t, disputed, unverified)
	assert.InDelta(t, 0.32, unverified, 1e-6)
}
