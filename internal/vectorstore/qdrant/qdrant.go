package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/liliang-cn/wikirag/internal/domain"
	"github.com/liliang-cn/wikirag/internal/vectorstore"
)

const scrollBatchSize = 256

// Store is a minimal REST client to Qdrant. It assumes cosine distance
// and creates the collection if missing.
type Store struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

// Config configures the Qdrant connection
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection if it does not exist. Qdrant answers 200
// for an existing collection with the same schema.
func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrVectorIndex, dimension)
	}
	s.dimension = dimension
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body, nil)
}

func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}
	payloadPoints := make([]map[string]any, len(points))
	for i, p := range points {
		payloadPoints[i] = map[string]any{
			"id":      vectorstore.PointID(p.PageID, p.ChunkIndex),
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}
	body := map[string]any{"points": payloadPoints}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", s.collection), body, nil)
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int, scoreThreshold float64) ([]vectorstore.ScoredPoint, error) {
	if topK <= 0 {
		topK = 5
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if scoreThreshold > 0 {
		body["score_threshold"] = scoreThreshold
	}

	var resp struct {
		Result []struct {
			Score   float64             `json:"score"`
			Payload vectorstore.Payload `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", s.collection), body, &resp); err != nil {
		return nil, err
	}

	results := make([]vectorstore.ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		if r.Score < scoreThreshold {
			continue
		}
		results = append(results, vectorstore.ScoredPoint{Payload: r.Payload, Score: r.Score})
	}
	vectorstore.SortResults(results)
	return results, nil
}

func (s *Store) DeletePage(ctx context.Context, pageID int64) error {
	body := map[string]any{
		"filter": pageFilter(pageID),
	}
	return s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", s.collection), body, nil)
}

func (s *Store) CountPage(ctx context.Context, pageID int64) (int, error) {
	body := map[string]any{
		"filter": pageFilter(pageID),
		"exact":  true,
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/count", s.collection), body, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// ListPages scrolls the whole collection and aggregates payloads by
// page_id, one reference per distinct page.
func (s *Store) ListPages(ctx context.Context) ([]vectorstore.PageRef, error) {
	byPage := make(map[int64]*vectorstore.PageRef)
	var offset any

	for {
		body := map[string]any{
			"limit":        scrollBatchSize,
			"with_payload": true,
			"with_vector":  false,
		}
		if offset != nil {
			body["offset"] = offset
		}

		var resp struct {
			Result struct {
				Points []struct {
					Payload vectorstore.Payload `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/scroll", s.collection), body, &resp); err != nil {
			return nil, err
		}
		if len(resp.Result.Points) == 0 {
			break
		}

		for _, p := range resp.Result.Points {
			ref, ok := byPage[p.Payload.PageID]
			if !ok {
				ref = &vectorstore.PageRef{
					PageID: p.Payload.PageID,
					Title:  p.Payload.Title,
					Topic:  p.Payload.Topic,
					URL:    p.Payload.URL,
				}
				byPage[p.Payload.PageID] = ref
			}
			ref.ChunkCount++
		}

		if resp.Result.NextPageOffset == nil {
			break
		}
		offset = resp.Result.NextPageOffset
	}

	refs := make([]vectorstore.PageRef, 0, len(byPage))
	for _, ref := range byPage {
		refs = append(refs, *ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		return strings.ToLower(refs[i].Title) < strings.ToLower(refs[j].Title)
	})
	return refs, nil
}

func pageFilter(pageID int64) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{"key": "page_id", "match": map[string]any{"value": pageID}},
		},
	}
}

func (s *Store) do(ctx context.Context, method, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", domain.ErrVectorIndex, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", domain.ErrVectorIndex, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant %s %s: %v", domain.ErrVectorIndex, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: qdrant %s %s failed: %s", domain.ErrVectorIndex, method, path, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode qdrant response: %v", domain.ErrVectorIndex, err)
		}
	}
	return nil
}
