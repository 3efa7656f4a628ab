package vectorstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Payload is the metadata stored next to each chunk vector. The field
// names are part of the index schema and mirror what citation snapshots
// are built from.
type Payload struct {
	Source     string `json:"source"`
	Topic      string `json:"topic,omitempty"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	ChunkIndex int    `json:"chunk_index"`
	WordCount  int    `json:"word_count"`
	PageID     int64  `json:"page_id"`
	Content    string `json:"content"`
}

// Point is one chunk vector plus payload, keyed by (page_id, chunk_index)
type Point struct {
	PageID     int64
	ChunkIndex int
	Vector     []float32
	Payload    Payload
}

// ScoredPoint is a search hit
type ScoredPoint struct {
	Payload Payload
	Score   float64
}

// PageRef is an aggregate over all points of one page
type PageRef struct {
	PageID     int64
	Title      string
	Topic      string
	URL        string
	ChunkCount int
}

// Store persists chunk vectors and supports similarity search. Upserting
// an existing (page_id, chunk_index) key overwrites rather than
// duplicates, which keeps re-ingestion idempotent.
type Store interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, topK int, scoreThreshold float64) ([]ScoredPoint, error)
	DeletePage(ctx context.Context, pageID int64) error
	CountPage(ctx context.Context, pageID int64) (int, error)
	ListPages(ctx context.Context) ([]PageRef, error)
}

// PointID derives a stable point identity from the composite chunk key,
// so the same chunk always maps to the same index entry.
func PointID(pageID int64, chunkIndex int) string {
	key := fmt.Sprintf("wikirag:%d:%d", pageID, chunkIndex)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// SortResults orders hits by descending score with deterministic
// tie-breaking on ascending chunk_index then page_id.
func SortResults(results []ScoredPoint) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Payload.ChunkIndex != results[j].Payload.ChunkIndex {
			return results[i].Payload.ChunkIndex < results[j].Payload.ChunkIndex
		}
		return results[i].Payload.PageID < results[j].Payload.PageID
	})
}
