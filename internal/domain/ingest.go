package domain

import "time"

// Page is an article fetched from the content source. Immutable once
// created; re-ingestion produces a new chunk set under the same PageID.
type Page struct {
	PageID    int64
	Title     string
	URL       string
	Topic     string // set only for topic-search ingestion
	Content   string
	FetchedAt time.Time
}

// IngestTopicsRequest triggers ingestion by topic search
type IngestTopicsRequest struct {
	Topics           []string `json:"topics" binding:"required"`
	MaxPagesPerTopic int      `json:"max_pages_per_topic,omitempty"`
	Language         string   `json:"language,omitempty"`
	ChunkSize        int      `json:"chunk_size,omitempty"`
	ChunkOverlap     *int     `json:"chunk_overlap,omitempty"`
	DryRun           bool     `json:"dry_run,omitempty"`
}

// IngestURLsRequest triggers ingestion of explicit article URLs
type IngestURLsRequest struct {
	URLs         []string `json:"urls" binding:"required"`
	Language     string   `json:"language,omitempty"`
	ChunkSize    int      `json:"chunk_size,omitempty"`
	ChunkOverlap *int     `json:"chunk_overlap,omitempty"`
	DryRun       bool     `json:"dry_run,omitempty"`
}

// IngestResult summarizes an ingestion run
type IngestResult struct {
	Topics         []string `json:"topics"`
	ProcessedPages int      `json:"processed_pages"`
	EmbeddedChunks int      `json:"embedded_chunks"`
	SkippedPages   int      `json:"skipped_pages"`
	DryRun         bool     `json:"dry_run"`
}
