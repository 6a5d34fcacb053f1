package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	apperrors "news-trust-workers/internal/common/errors"
	commonhttp "news-trust-workers/internal/common/http"
	"news-trust-workers/internal/common/validation"
	"news-trust-workers/internal/models"
)

type WebConfig struct {
	BaseURL      string
	APIKey       string
	EngineID     string
	Timeout      time.Duration
	MaxResults   int
	MinRelevance float64
}

// WebSearcher queries a custom-search style web API.
type WebSearcher struct {
	config WebConfig
	client *commonhttp.Client
}

func NewWebSearcher(cfg WebConfig) *WebSearcher {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	return &WebSearcher{
		config: cfg,
		client: commonhttp.NewClient(cfg.Timeout, commonhttp.WithRetries(1)),
	}
}

type webResponse struct {
	Items []struct {
		Link        string `json:"link"`
		Title       string `json:"title"`
		Snippet     string `json:"snippet"`
		Mime        string `json:"mime"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

type scored struct {
	ev        models.Evidence
	relevance float64
}

func (s *WebSearcher) Search(ctx context.Context, claim string) ([]models.Evidence, error) {
	searchURL, err := s.buildSearchURL(claim)
	if err != nil {
		return nil, apperrors.NewSearchUnavailableError("web", err)
	}

	var resp webResponse
	if err := s.client.DoJSON(ctx, http.MethodGet, searchURL, nil, nil, &resp); err != nil {
		return nil, apperrors.NewSearchUnavailableError("web", err)
	}

	seen := make(map[string]bool)
	var results []scored
	for _, item := range resp.Items {
		if item.Mime != "" && !strings.Contains(item.Mime, "html") {
			continue
		}
		if item.Link == "" || seen[item.Link] {
			continue
		}
		seen[item.Link] = true

		relevance := 1.0
		host := validation.Host(item.Link)
		if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") {
			relevance += 0.2
		}
		if relevance < s.config.MinRelevance {
			continue
		}

		source := item.DisplayLink
		if source == "" {
			source = host
		}
		results = append(results, scored{
			ev: models.Evidence{
				URL:     item.Link,
				Title:   item.Title,
				Snippet: item.Snippet,
				Source:  source,
				Claim:   claim,
			},
			relevance: relevance,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].relevance > results[j].relevance
	})
	if len(results) > s.config.MaxResults {
		results = results[:s.config.MaxResults]
	}

	evidence := make([]models.Evidence, len(results))
	for i, r := range results {
		evidence[i] = r.ev
	}
	return evidence, nil
}

func (s *WebSearcher) buildSearchURL(query string) (string, error) {
	baseURL, err := url.Parse(s.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse search base url: %w", err)
	}
	params := url.Values{}
	params.Add("key", s.config.APIKey)
	params.Add("cx", s.config.EngineID)
	params.Add("q", query)
	params.Add("num", fmt.Sprintf("%d", s.config.MaxResults))
	baseURL.RawQuery = params.Encode()
	return baseURL.String(), nil
}
