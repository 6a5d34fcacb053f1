package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	reg := Default()
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{"analyze-article", "get-article-analysis", "analyze-news-batch", "cluster-articles"} {
		_, ok := reg.Find(taskType)
		assert.True(t, ok, taskType)
	}
}

func TestActivity_ValidateInput(t *testing.T) {
	analyze, ok := Default().Find("analyze-article")
	require.True(t, ok)

	assert.NoError(t, analyze.ValidateInput(`{"title":"T","content":"C","url":"https://a.example.com"}`))
	assert.Error(t, analyze.ValidateInput(`{"title":"T","url":"https://a.example.com"}`))
	assert.Error(t, analyze.ValidateInput(`{"title":"","content":"C","url":"u"}`))

	cluster, _ := Default().Find("cluster-articles")
	assert.NoError(t, cluster.ValidateInput(`{}`))
	assert.Error(t, cluster.ValidateInput(`{"sinceHours":-3}`))
}

func TestValidate_Duplicates(t *testing.T) {
	reg := &ActivityRegistry{Activities: []Activity{
		{ID: "a", TaskType: "t"},
		{ID: "a", TaskType: "t"},
		{DisplayName: "nameless"},
	}}

	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate id "a"`)
	assert.Contains(t, err.Error(), `duplicate taskType "t"`)
	assert.Contains(t, err.Error(), "nameless")
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, Default().Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Activities, 4)
	require.NoError(t, loaded.Validate())

	batch, ok := loaded.Find("analyze-news-batch")
	require.True(t, ok)
	assert.NoError(t, batch.ValidateInput(`{"limit": 5}`))
	assert.Error(t, batch.ValidateInput(`{"limit": "five"}`))
}
