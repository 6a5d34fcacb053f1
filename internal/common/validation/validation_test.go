package validation

import (
	"testing"

	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateArticle(t *testing.T) {
	valid := models.ArticleInput{Title: "T", Content: "C", URL: "https://news.example.com/a"}

	tests := []struct {
		name      string
		mutate    func(a *models.ArticleInput)
		wantField string
	}{
		{"valid", func(a *models.ArticleInput) {}, ""},
		{"missing url", func(a *models.ArticleInput) { a.URL = "" }, "url"},
		{"relative url", func(a *models.ArticleInput) { a.URL = "/a/b" }, "url"},
		{"ftp url", func(a *models.ArticleInput) { a.URL = "ftp://example.com/a" }, "url"},
		{"missing title", func(a *models.ArticleInput) { a.Title = " " }, "title"},
		{"missing content", func(a *models.ArticleInput) { a.Content = "" }, "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			err := ValidateArticle(a)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
			assert.Equal(t, tt.wantField, apperrors.Normalize(err).Metadata["field"])
		})
	}
}

func TestHost(t *testing.T) {
	assert.Equal(t, "example.com", Host("https://WWW.Example.com/path"))
	assert.Equal(t, "news.example.com", Host("http://news.example.com:8080/x"))
	assert.Equal(t, "", Host("::"))
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\": {\"b\": 2}}\n```", `{"a": {"b": 2}}`},
		{"prose", `Here you go: {"r":"uses } brace"} thanks`, `{"r":"uses } brace"}`},
		{"escaped quote", `{"r":"say \"}\" ok"}`, `{"r":"say \"}\" ok"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ExtractJSONObject("no json here")
	assert.Error(t, err)
	_, err = ExtractJSONObject(`{"a": 1`)
	assert.Error(t, err)
}

func TestBiasJudgmentSchema(t *testing.T) {
	schema := MustCompileSchema(BiasJudgmentSchema)

	assert.NoError(t, schema.Validate(`{"overall_bias": -2.5, "confidence": 0.7, "rationale": "x"}`))
	assert.Error(t, schema.Validate(`{"overall_bias": "left", "confidence": 0.7}`))
	assert.Error(t, schema.Validate(`{"overall_bias": 1, "confidence": 1.4}`))
	assert.Error(t, schema.Validate(`{"confidence": 0.5}`))
}

func TestVerdictSchema(t *testing.T) {
	schema := MustCompileSchema(VerdictSchema)

	assert.NoError(t, schema.Validate(`{"verdict": "verified", "score": 0.9, "supporting": [0, 2]}`))
	assert.Error(t, schema.Validate(`{"verdict": "probably", "score": 0.9}`))
	assert.Error(t, schema.Validate(`{"verdict": "disputed"}`))
}
