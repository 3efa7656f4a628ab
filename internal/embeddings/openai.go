package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/liliang-cn/wikirag/internal/domain"
)

type openAIEmbedder struct {
	client *openai.Client
	opts   Options
}

// NewOpenAIEmbedder works against any OpenAI-compatible embeddings
// endpoint, including Ollama's /v1 when a base URL is configured.
func NewOpenAIEmbedder(opts Options) Embedder {
	cfg := openai.DefaultConfig(opts.OpenAIAPIKey)
	if opts.OpenAIBaseURL != "" {
		cfg.BaseURL = opts.OpenAIBaseURL
	}

	return &openAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
	}
}

func (e *openAIEmbedder) Dimension() int { return e.opts.Dimension }

func (e *openAIEmbedder) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	prefix := mode.prefix(e.opts)
	input := texts
	if prefix != "" {
		input = make([]string, len(texts))
		for i, text := range texts {
			input[i] = prefix + text
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.opts.Model),
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create openai embeddings: %v", domain.ErrEmbedding, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrEmbedding, len(texts), len(resp.Data))
	}

	results := make([][]float32, len(resp.Data))
	for i, datum := range resp.Data {
		if e.opts.Dimension > 0 && len(datum.Embedding) != e.opts.Dimension {
			return nil, fmt.Errorf("%w: dimension mismatch: expected %d, got %d", domain.ErrEmbedding, e.opts.Dimension, len(datum.Embedding))
		}
		results[i] = datum.Embedding
	}

	return results, nil
}
