package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/models"
)

func TestWebSearcher_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "key-1", q.Get("key"))
		assert.Equal(t, "cx-1", q.Get("cx"))
		assert.Equal(t, "city council approved budget", q.Get("q"))
		assert.Equal(t, "3", q.Get("num"))

		_, _ = w.Write([]byte(`{"items": [
			{"link": "https://news.example.com/a", "title": "A", "snippet": "a", "displayLink": "news.example.com"},
			{"link": "https://news.example.com/a", "title": "A dup", "snippet": "a"},
			{"link": "https://data.city.gov/budget", "title": "Budget", "snippet": "b"},
			{"link": "https://example.com/report.pdf", "title": "PDF", "mime": "application/pdf"}
		]}`))
	}))
	defer server.Close()

	s := NewWebSearcher(WebConfig{BaseURL: server.URL, APIKey: "key-1", EngineID: "cx-1", Timeout: time.Second, MaxResults: 3})
	evidence, err := s.Search(context.Background(), "city council approved budget")
	require.NoError(t, err)

	require.Len(t, evidence, 2)
	assert.Equal(t, "https://data.city.gov/budget", evidence[0].URL, ".gov sources rank first")
	assert.Equal(t, "data.city.gov", evidence[0].Source)
	assert.Equal(t, "news.example.com", evidence[1].Source)
	assert.Equal(t, "city council approved budget", evidence[1].Claim)
}

func TestWebSearcher_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := NewWebSearcher(WebConfig{BaseURL: server.URL, Timeout: time.Second})
	_, err := s.Search(context.Background(), "claim")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSearchUnavailable))
}

func TestWebSearcher_EmptyIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	evidence, err := NewWebSearcher(WebConfig{BaseURL: server.URL, Timeout: time.Second}).Search(context.Background(), "claim")
	require.NoError(t, err)
	assert.Empty(t, evidence)
}

func newESClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func TestCorpusSearcher_Search(t *testing.T) {
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/articles/_search", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("size"))
		_, _ = w.Write([]byte(`{"hits": {"hits": [
			{"_source": {"title": "Budget passes", "content": "The council voted 7-2.", "url": "https://other.example.org/b", "source": "Other"}},
			{"_source": {"title": "No url"}}
		]}}`))
	})

	evidence, err := NewCorpusSearcher(client, "articles", 2).Search(context.Background(), "council budget")
	require.NoError(t, err)
	require.Len(t, evidence, 1)
	assert.Equal(t, models.Evidence{
		URL:     "https://other.example.org/b",
		Title:   "Budget passes",
		Snippet: "The council voted 7-2.",
		Source:  "Other",
		Claim:   "council budget",
	}, evidence[0])
}

func TestCorpusSearcher_ErrorStatus(t *testing.T) {
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "boom"}`))
	})

	_, err := NewCorpusSearcher(client, "articles", 2).Search(context.Background(), "x")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSearchUnavailable))
}

func TestMultiSearcher(t *testing.T) {
	ok := Func(func(ctx context.Context, claim string) ([]models.Evidence, error) {
		return []models.Evidence{{URL: "https://a"}, {URL: "https://b"}}, nil
	})
	overlap := Func(func(ctx context.Context, claim string) ([]models.Evidence, error) {
		return []models.Evidence{{URL: "https://b"}, {URL: "https://c"}}, nil
	})
	down := Func(func(ctx context.Context, claim string) ([]models.Evidence, error) {
		return nil, apperrors.NewSearchUnavailableError("web", errors.New("503"))
	})

	evidence, err := MultiSearcher{ok, down, overlap}.Search(context.Background(), "claim")
	require.NoError(t, err)
	urls := make([]string, len(evidence))
	for i, ev := range evidence {
		urls[i] = ev.URL
	}
	assert.Equal(t, []string{"https://a", "https://b", "https://c"}, urls)

	_, err = MultiSearcher{down, down}.Search(context.Background(), "claim")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSearchUnavailable))
}
