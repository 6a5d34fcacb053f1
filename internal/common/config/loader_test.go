package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: news
    user: news
  redis:
    enabled: true
    address: localhost:6379
apis:
  genai:
    base_url: http://genai.local
pipeline:
  batch_concurrency: 8
workers:
  analyze-article:
    enabled: true
`

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadFromPaths_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", baseYAML)
	t.Setenv("APP_ENVIRONMENT", "test")

	cfg, err := LoadFromPaths(dir)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Pipeline.BatchConcurrency)
	assert.Equal(t, 60000, cfg.Pipeline.ArticleTimeout)
	assert.Equal(t, 3, cfg.Pipeline.MaxClaims)
	assert.False(t, cfg.Pipeline.DisableCache, "cache must be enabled unless explicitly disabled")
	assert.Equal(t, ProviderGenAI, cfg.Pipeline.InferenceProvider)
	assert.Equal(t, "articles", cfg.Database.Elasticsearch.ArticleIndex)
	assert.Equal(t, 24*time.Hour, GetDuration(cfg.Pipeline.CacheTTL))

	w := cfg.Workers["analyze-article"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
}

func TestLoadFromPaths_EnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", baseYAML)
	writeConfig(t, dir, "config.staging.yaml", "pipeline:\n  disable_cache: true\n  max_claims: 9\n")
	t.Setenv("APP_ENVIRONMENT", "staging")

	cfg, err := LoadFromPaths(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Pipeline.DisableCache)
	assert.Equal(t, 3, cfg.Pipeline.MaxClaims, "claims are capped at three")
}

func TestLoadFromPaths_ExpandsEnvPlaceholders(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", strings.Replace(baseYAML, "apis:\n", "apis:\n  web_search:\n    api_key: ${TEST_SEARCH_KEY}\n", 1))
	t.Setenv("APP_ENVIRONMENT", "test")
	t.Setenv("TEST_SEARCH_KEY", "secret-key")

	cfg, err := LoadFromPaths(dir)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.APIs.WebSearch.APIKey)
}

func TestLoadFromPaths_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "database:\n  postgres:\n    host: h\n    database: d\n    user: u\n",
			wantErr: "camunda.broker_address",
		},
		{
			name: "unknown provider",
			body: "camunda:\n  broker_address: b\ndatabase:\n  postgres:\n    host: h\n    database: d\n    user: u\n" +
				"pipeline:\n  inference_provider: carrier-pigeon\n",
			wantErr: "inference_provider",
		},
		{
			name: "openai without key",
			body: "camunda:\n  broker_address: b\ndatabase:\n  postgres:\n    host: h\n    database: d\n    user: u\n" +
				"pipeline:\n  inference_provider: openai\n",
			wantErr: "apis.openai.api_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.yaml", tt.body)
			t.Setenv("APP_ENVIRONMENT", "test")
			t.Setenv("OPENAI_API_KEY", "")

			_, err := LoadFromPaths(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"a": {Enabled: false}}}

	assert.False(t, IsWorkerEnabled(cfg, "a"))
	assert.True(t, IsWorkerEnabled(cfg, "missing"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "missing").MaxJobsActive)
}
