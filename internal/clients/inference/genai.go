package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "news-trust-workers/internal/common/errors"
	commonhttp "news-trust-workers/internal/common/http"
)

type GenAIConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

// GenAIClient talks to the internal text generation gateway.
type GenAIClient struct {
	config GenAIConfig
	client *commonhttp.Client
}

func NewGenAIClient(cfg GenAIConfig) *GenAIClient {
	return &GenAIClient{
		config: cfg,
		client: commonhttp.NewClient(cfg.Timeout, commonhttp.WithRetries(cfg.MaxRetries)),
	}
}

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	Task        string  `json:"task"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Text     string `json:"text"`
	Declined bool   `json:"declined"`
	Reason   string `json:"reason"`
}

func (c *GenAIClient) Infer(ctx context.Context, p Prompt) (string, error) {
	prompt := p.User
	if p.System != "" {
		prompt = p.System + "\n\n" + p.User
	}

	headers := map[string]string{}
	if c.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.config.APIKey
	}

	var resp generateResponse
	err := c.client.DoJSON(ctx, http.MethodPost, strings.TrimRight(c.config.BaseURL, "/")+"/api/ai/generate", headers,
		generateRequest{
			Prompt:      prompt,
			Task:        string(p.Task),
			MaxTokens:   c.config.MaxTokens,
			Temperature: c.config.Temperature,
		}, &resp)
	if err != nil {
		var statusErr *commonhttp.StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return "", apperrors.NewInferenceDeclinedError(string(p.Task),
				fmt.Sprintf("status %d: %s", statusErr.StatusCode, apperrors.Excerpt(statusErr.Body, 200)))
		}
		return "", apperrors.NewInferenceUnavailableError(string(p.Task), err)
	}

	if resp.Declined {
		reason := resp.Reason
		if reason == "" {
			reason = "declined by model"
		}
		return "", apperrors.NewInferenceDeclinedError(string(p.Task), reason)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", apperrors.NewInferenceDeclinedError(string(p.Task), "empty response")
	}
	return resp.Text, nil
}
