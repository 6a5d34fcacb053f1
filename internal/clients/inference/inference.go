// Package inference is the language-model collaborator of the analysis
// pipeline. Callers send a task-tagged prompt and get the raw model text;
// parsing the text is the caller's job.
package inference

import (
	"context"
	"fmt"

	"news-trust-workers/internal/common/config"
)

type Task string

const (
	TaskBias    Task = "bias"
	TaskClaims  Task = "claims"
	TaskVerdict Task = "verdict"
)

type Prompt struct {
	Task   Task
	System string
	User   string
}

// Inferencer returns the model's text for a prompt. Errors carry
// INFERENCE_UNAVAILABLE (retryable) or INFERENCE_DECLINED codes.
type Inferencer interface {
	Infer(ctx context.Context, p Prompt) (string, error)
}

// Func adapts a function to Inferencer.
type Func func(ctx context.Context, p Prompt) (string, error)

func (f Func) Infer(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}

// New builds the backend selected by pipeline.inference_provider.
func New(cfg *config.Config) (Inferencer, error) {
	switch cfg.Pipeline.InferenceProvider {
	case config.ProviderGenAI, "":
		return NewGenAIClient(GenAIConfig{
			BaseURL:     cfg.APIs.GenAI.BaseURL,
			APIKey:      cfg.APIs.GenAI.APIKey,
			Timeout:     config.GetDuration(cfg.APIs.GenAI.Timeout),
			MaxRetries:  cfg.APIs.GenAI.MaxRetries,
			MaxTokens:   cfg.APIs.GenAI.MaxTokens,
			Temperature: cfg.APIs.GenAI.Temperature,
		}), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			BaseURL:     cfg.APIs.OpenAI.BaseURL,
			APIKey:      cfg.APIs.OpenAI.APIKey,
			Model:       cfg.APIs.OpenAI.Model,
			MaxTokens:   cfg.APIs.OpenAI.MaxTokens,
			Temperature: cfg.APIs.OpenAI.Temperature,
		}), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.Pipeline.InferenceProvider)
	}
}
