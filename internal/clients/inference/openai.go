package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"

	apperrors "news-trust-workers/internal/common/errors"
)

type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// OpenAIClient runs prompts as chat completions.
type OpenAIClient struct {
	client *openai.Client
	config OpenAIConfig
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
	}
}

func (c *OpenAIClient) Infer(ctx context.Context, p Prompt) (string, error) {
	var messages []openai.ChatCompletionMessage
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.User})

	temperature := float32(c.config.Temperature)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", classifyOpenAIError(string(p.Task), err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.NewInferenceDeclinedError(string(p.Task), "no choices returned")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", apperrors.NewInferenceDeclinedError(string(p.Task), "content filtered")
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", apperrors.NewInferenceDeclinedError(string(p.Task), "empty response")
	}
	return choice.Message.Content, nil
}

func classifyOpenAIError(task string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500 {
			return apperrors.NewInferenceUnavailableError(task, err)
		}
		return apperrors.NewInferenceDeclinedError(task, fmt.Sprintf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 400 && reqErr.HTTPStatusCode < 500 && reqErr.HTTPStatusCode != 429 {
		return apperrors.NewInferenceDeclinedError(task, fmt.Sprintf("status %d", reqErr.HTTPStatusCode))
	}
	return apperrors.NewInferenceUnavailableError(task, err)
}
