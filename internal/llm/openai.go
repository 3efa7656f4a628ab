package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/liliang-cn/wikirag/internal/domain"
)

type openAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient works against any OpenAI-compatible chat completion
// endpoint when a base URL is configured.
func NewOpenAIClient(opts Options) Client {
	cfg := openai.DefaultConfig(opts.OpenAIAPIKey)
	if opts.OpenAIBaseURL != "" {
		cfg.BaseURL = opts.OpenAIBaseURL
	}

	return &openAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  opts.Model,
	}
}

func (c *openAIClient) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	completionReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if req.Temperature != nil {
		completionReq.Temperature = float32(*req.Temperature)
	}

	resp, err := c.client.CreateChatCompletion(ctx, completionReq)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("%w: create chat completion: %v", domain.ErrGeneration, err)
	}

	if len(resp.Choices) == 0 {
		return GenerateResult{}, fmt.Errorf("%w: completion returned no choices", domain.ErrGeneration)
	}

	return GenerateResult{Model: resp.Model, Response: resp.Choices[0].Message.Content}, nil
}
