package llm

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

type ollamaClient struct {
	host   string
	model  string
	client *http.Client
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// NewOllamaClient talks to Ollama's /api/generate endpoint
func NewOllamaClient(opts Options) Client {
	host := strings.TrimRight(opts.OllamaHost, "/")
	if host == "" {
		host = "http://localhost:11434"
	}

	return &ollamaClient{
		host:  host,
		model: opts.Model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *ollamaClient) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	payload := ollamaGenerateRequest{
		Model:  model,
		Prompt: req.Prompt,
		Stream: false,
	}
	if req.Temperature != nil {
		payload.Options = map[string]any{"temperature": *req.Temperature}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("%w: marshal request: %v", domain.ErrGeneration, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return GenerateResult{}, fmt.Errorf("%w: create request: %v", domain.ErrGeneration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("%w: call ollama generate API: %v", domain.ErrGeneration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(data) > 0 {
			return GenerateResult{}, fmt.Errorf("%w: ollama returned an error: %s", domain.ErrGeneration, strings.TrimSpace(string(data)))
		}
		return GenerateResult{}, fmt.Errorf("%w: ollama returned status %s", domain.ErrGeneration, resp.Status)
	}

	var parsed ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return GenerateResult{}, fmt.Errorf("%w: decode response: %v", domain.ErrGeneration, err)
	}

	if parsed.Error != "" {
		return GenerateResult{}, fmt.Errorf("%w: %s", domain.ErrGeneration, parsed.Error)
	}

	return GenerateResult{Model: parsed.Model, Response: parsed.Response}, nil
}
