package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/liliang-cn/wikirag/internal/domain"
)

type ollamaEmbedder struct {
	host   string
	opts   Options
	client *http.Client
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaEmbedder talks to Ollama's /api/embeddings endpoint, one
// request per text.
func NewOllamaEmbedder(opts Options) Embedder {
	host := strings.TrimRight(opts.OllamaHost, "/")
	if host == "" {
		host = "http://localhost:11434"
	}

	return &ollamaEmbedder{
		host: host,
		opts: opts,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (e *ollamaEmbedder) Dimension() int { return e.opts.Dimension }

func (e *ollamaEmbedder) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))
	url := e.host + "/api/embeddings"
	prefix := mode.prefix(e.opts)

	for _, text := range texts {
		reqBody, err := json.Marshal(ollamaEmbedRequest{Model: e.opts.Model, Prompt: prefix + text})
		if err != nil {
			return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrEmbedding, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("%w: create request: %v", domain.ErrEmbedding, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: call ollama embeddings API: %v", domain.ErrEmbedding, err)
		}

		if resp.StatusCode >= 400 {
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("%w: ollama returned %s: %s", domain.ErrEmbedding, resp.Status, strings.TrimSpace(string(data)))
		}

		var payload ollamaEmbedResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: decode response: %v", domain.ErrEmbedding, err)
		}
		resp.Body.Close()

		vec := make([]float32, len(payload.Embedding))
		for i, value := range payload.Embedding {
			vec[i] = float32(value)
		}

		if e.opts.Dimension > 0 && len(vec) != e.opts.Dimension {
			return nil, fmt.Errorf("%w: dimension mismatch: expected %d, got %d", domain.ErrEmbedding, e.opts.Dimension, len(vec))
		}

		results = append(results, vec)
	}

	return results, nil
}
