package domain

// Reference is one ingested page as seen by the knowledge base,
// aggregated from the vector index payloads.
type Reference struct {
	PageID     int64  `json:"page_id"`
	Title      string `json:"title,omitempty"`
	Topic      string `json:"topic,omitempty"`
	URL        string `json:"url,omitempty"`
	ChunkCount int    `json:"chunk_count"`
}
