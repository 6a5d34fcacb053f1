package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/models"
)

// CorpusSearcher looks for coverage of a claim in the indexed article corpus.
type CorpusSearcher struct {
	client     *elasticsearch.Client
	index      string
	maxResults int
}

func NewCorpusSearcher(client *elasticsearch.Client, index string, maxResults int) *CorpusSearcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &CorpusSearcher{client: client, index: index, maxResults: maxResults}
}

type corpusHit struct {
	Source struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
		Source  string `json:"source"`
	} `json:"_source"`
}

func (s *CorpusSearcher) buildQuery(claim string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":                claim,
				"fields":               []string{"title^2", "content"},
				"type":                 "best_fields",
				"minimum_should_match": "60%",
			},
		},
		"_source": []string{"title", "content", "url", "source"},
	}
}

func (s *CorpusSearcher) Search(ctx context.Context, claim string) ([]models.Evidence, error) {
	body, err := json.Marshal(s.buildQuery(claim))
	if err != nil {
		return nil, apperrors.NewSearchUnavailableError("corpus", err)
	}

	size := s.maxResults
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, apperrors.NewSearchUnavailableError("corpus", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchUnavailableError("corpus", fmt.Errorf("search error: %s", res.Status()))
	}

	var r struct {
		Hits struct {
			Hits []corpusHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, apperrors.NewSearchUnavailableError("corpus", fmt.Errorf("decode search response: %w", err))
	}

	evidence := make([]models.Evidence, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		if hit.Source.URL == "" {
			continue
		}
		evidence = append(evidence, models.Evidence{
			URL:     hit.Source.URL,
			Title:   hit.Source.Title,
			Snippet: apperrors.Excerpt(hit.Source.Content, 300),
			Source:  hit.Source.Source,
			Claim:   claim,
		})
	}
	return evidence, nil
}
