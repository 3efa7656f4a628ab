package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/liliang-cn/wikirag/internal/domain"
	"github.com/liliang-cn/wikirag/internal/vectorstore"
)

type key struct {
	pageID     int64
	chunkIndex int
}

// Store is a brute-force cosine similarity index held in process memory.
// It backs tests and single-node deployments without a Qdrant instance.
type Store struct {
	mu        sync.RWMutex
	dimension int
	points    map[key]vectorstore.Point
}

func NewStore() *Store {
	return &Store{points: make(map[key]vectorstore.Point)}
}

func (s *Store) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrVectorIndex, dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	return nil
}

func (s *Store) Upsert(_ context.Context, points []vectorstore.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if s.dimension > 0 && len(p.Vector) != s.dimension {
			return fmt.Errorf("%w: vector dimension mismatch: expected %d, got %d", domain.ErrVectorIndex, s.dimension, len(p.Vector))
		}
	}
	for _, p := range points {
		s.points[key{p.PageID, p.ChunkIndex}] = p
	}
	return nil
}

func (s *Store) Search(_ context.Context, vector []float32, topK int, scoreThreshold float64) ([]vectorstore.ScoredPoint, error) {
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]vectorstore.ScoredPoint, 0, len(s.points))
	for _, p := range s.points {
		score := cosine(p.Vector, vector)
		if score < scoreThreshold {
			continue
		}
		results = append(results, vectorstore.ScoredPoint{Payload: p.Payload, Score: score})
	}
	vectorstore.SortResults(results)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *Store) DeletePage(_ context.Context, pageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.points {
		if k.pageID == pageID {
			delete(s.points, k)
		}
	}
	return nil
}

func (s *Store) CountPage(_ context.Context, pageID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for k := range s.points {
		if k.pageID == pageID {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListPages(_ context.Context) ([]vectorstore.PageRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPage := make(map[int64]*vectorstore.PageRef)
	for _, p := range s.points {
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

	refs := make([]vectorstore.PageRef, 0, len(byPage))
	for _, ref := range byPage {
		refs = append(refs, *ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		return strings.ToLower(refs[i].Title) < strings.ToLower(refs[j].Title)
	})
	return refs, nil
}

// Count reports the total number of indexed points
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// cosine assumes nothing about normalization and divides by the norms,
// so an exact self-match always scores 1.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
