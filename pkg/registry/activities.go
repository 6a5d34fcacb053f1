package registry

// Version of the built-in activity catalog.
const Version = "1.0.0"

func object(required []string, properties map[string]interface{}) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func typed(t string) map[string]interface{} { return map[string]interface{}{"type": t} }

// Default returns the activities served by worker-manager.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version: Version,
		Activities: []Activity{
			{
				ID:          "analyze-article",
				DisplayName: "Analyze Article",
				Description: "Bias, fact-check and trust score for one article, served from cache when already analyzed.",
				Category:    "analysis",
				Version:     Version,
				TaskType:    "analyze-article",
				InputSchema: object([]string{"title", "content", "url"}, map[string]interface{}{
					"articleId":     typed("string"),
					"title":         map[string]interface{}{"type": "string", "minLength": 1},
					"content":       map[string]interface{}{"type": "string", "minLength": 1},
					"source":        typed("string"),
					"url":           map[string]interface{}{"type": "string", "minLength": 1},
					"publishedDate": typed("string"),
					"language":      typed("string"),
				}),
				OutputSchema: object([]string{"analysis", "cacheHit"}, map[string]interface{}{
					"analysis":   typed("object"),
					"trustScore": typed("number"),
					"cacheHit":   typed("boolean"),
					"degraded":   typed("boolean"),
				}),
				ErrorCodes: []string{"ARTICLE_VALIDATION_FAILED", "INFERENCE_UNAVAILABLE", "INFERENCE_DECLINED", "INFERENCE_PARSE_FAILED", "ARTICLE_TIMEOUT"},
				Timeout:    "90s",
				Retries:    3,
				Tags:       []string{"on-demand"},
			},
			{
				ID:          "get-article-analysis",
				DisplayName: "Get Article Analysis",
				Description: "Reads the stored analysis for an article URL.",
				Category:    "analysis",
				Version:     Version,
				TaskType:    "get-article-analysis",
				InputSchema: object([]string{"url"}, map[string]interface{}{
					"url": map[string]interface{}{"type": "string", "minLength": 1},
				}),
				OutputSchema: object([]string{"found"}, map[string]interface{}{
					"found":    typed("boolean"),
					"analysis": typed("object"),
				}),
				ErrorCodes: []string{"ARTICLE_VALIDATION_FAILED", "STORAGE_FAILED"},
				Timeout:    "10s",
				Retries:    3,
				Tags:       []string{"read-only"},
			},
			{
				ID:          "analyze-news-batch",
				DisplayName: "Analyze News Batch",
				Description: "Analyzes up to limit stored articles that have no analysis yet, newest first.",
				Category:    "analysis",
				Version:     Version,
				TaskType:    "analyze-news-batch",
				InputSchema: object(nil, map[string]interface{}{
					"limit": typed("integer"),
				}),
				OutputSchema: object([]string{"runId", "analyzedCount", "failedCount"}, map[string]interface{}{
					"runId":         typed("string"),
					"analyzedCount": typed("integer"),
					"failedCount":   typed("integer"),
					"failures":      typed("array"),
					"statistics":    typed("object"),
				}),
				ErrorCodes: []string{"ARTICLE_SELECTION_FAILED"},
				Timeout:    "30m",
				Retries:    3,
				Tags:       []string{"scheduled"},
			},
			{
				ID:          "cluster-articles",
				DisplayName: "Cluster Articles",
				Description: "Groups recent article embeddings into events.",
				Category:    "clustering",
				Version:     Version,
				TaskType:    "cluster-articles",
				InputSchema: object(nil, map[string]interface{}{
					"sinceHours": map[string]interface{}{"type": "integer", "minimum": 0},
				}),
				OutputSchema: object([]string{"runId", "clusterCount"}, map[string]interface{}{
					"runId":          typed("string"),
					"clusterCount":   typed("integer"),
					"clusteredCount": typed("integer"),
					"noiseCount":     typed("integer"),
					"clusters":       typed("array"),
				}),
				ErrorCodes: []string{"CLUSTERING_FAILED", "STORAGE_FAILED"},
				Timeout:    "5m",
				Retries:    2,
				Tags:       []string{"scheduled"},
			},
		},
	}
}
