package llm

import (
	"context"
	"fmt"

	"github.com/liliang-cn/wikirag/internal/config"
)

// GenerateRequest is one completion call. Model and Temperature override
// configured defaults when set.
type GenerateRequest struct {
	Model       string
	Prompt      string
	Temperature *float64
}

// GenerateResult carries the answer text plus whatever usage data the
// provider reports.
type GenerateResult struct {
	Model    string
	Response string
}

// Client issues completion requests against a text-generation service
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}

// Options configures a generation client independent of the provider
type Options struct {
	Provider string
	Model    string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// NewClient builds the configured generation provider
func NewClient(cfg *config.Config) (Client, error) {
	opts := Options{
		Provider:      cfg.LLM.Provider,
		Model:         cfg.LLM.Model,
		OllamaHost:    cfg.LLM.OllamaHost,
		OpenAIAPIKey:  cfg.OpenAI.APIKey,
		OpenAIBaseURL: cfg.OpenAI.BaseURL,
	}

	switch opts.Provider {
	case "ollama":
		return NewOllamaClient(opts), nil
	case "openai":
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai llm provider selected but no api key configured")
		}
		return NewOpenAIClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", opts.Provider)
	}
}
