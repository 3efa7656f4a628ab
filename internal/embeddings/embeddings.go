package embeddings

import (
	"context"
	"fmt"

	"github.com/liliang-cn/wikirag/internal/config"
)

// Mode selects how texts are embedded. Retrieval models often expect an
// instruction prefix on queries that must not be applied to documents.
type Mode int

const (
	ModeDocument Mode = iota
	ModeQuery
)

// Embedder maps texts to fixed-dimension vectors, one per input,
// order-preserving.
type Embedder interface {
	Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error)
	Dimension() int
}

// Options configures an embedder independent of the provider
type Options struct {
	Provider    string
	Model       string
	Dimension   int
	QueryPrefix string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// NewEmbedder builds the configured embedding provider
func NewEmbedder(cfg *config.Config) (Embedder, error) {
	opts := Options{
		Provider:      cfg.Embeddings.Provider,
		Model:         cfg.Embeddings.Model,
		Dimension:     cfg.Embeddings.Dimension,
		QueryPrefix:   cfg.Embeddings.QueryPrefix,
		OllamaHost:    cfg.LLM.OllamaHost,
		OpenAIAPIKey:  cfg.OpenAI.APIKey,
		OpenAIBaseURL: cfg.OpenAI.BaseURL,
	}

	switch opts.Provider {
	case "ollama":
		return NewOllamaEmbedder(opts), nil
	case "openai":
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai embeddings provider selected but no api key configured")
		}
		return NewOpenAIEmbedder(opts), nil
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", opts.Provider)
	}
}

func (m Mode) prefix(opts Options) string {
	if m == ModeQuery {
		return opts.QueryPrefix
	}
	return ""
}
