package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesProcessed counts pages that completed the ingestion pipeline
	PagesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikirag_ingest_pages_processed_total",
		Help: "Pages that completed the ingestion pipeline.",
	})

	// PagesSkipped counts pages dropped because of fetch failures or
	// empty content
	PagesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikirag_ingest_pages_skipped_total",
		Help: "Pages skipped during ingestion.",
	})

	// ChunksEmbedded counts chunks that were embedded during ingestion
	ChunksEmbedded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikirag_ingest_chunks_embedded_total",
		Help: "Chunks embedded during ingestion.",
	})

	// ChatTurns counts completed chat turns by outcome
	ChatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikirag_chat_turns_total",
		Help: "Chat turns by outcome.",
	}, []string{"outcome"})

	// GenerationSeconds observes wall-clock generation latency
	GenerationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wikirag_generation_duration_seconds",
		Help:    "Wall-clock latency of generation calls.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
