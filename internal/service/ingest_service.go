package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/liliang-cn/wikirag/internal/chunker"
	"github.com/liliang-cn/wikirag/internal/config"
	"github.com/liliang-cn/wikirag/internal/domain"
	"github.com/liliang-cn/wikirag/internal/embeddings"
	"github.com/liliang-cn/wikirag/internal/metrics"
	"github.com/liliang-cn/wikirag/internal/vectorstore"
)

// Fetcher resolves pages from the content source
type Fetcher interface {
	SearchTopic(ctx context.Context, topic string, limit int) ([]domain.Page, error)
	FetchPage(ctx context.Context, url string) (domain.Page, error)
}

// FetcherFactory builds a fetcher for a language edition. Ingestion
// requests may target different editions, so the client is constructed
// per request.
type FetcherFactory func(language string) Fetcher

// IngestService orchestrates the fetch, chunk, embed, upsert pipeline
type IngestService struct {
	cfg        *config.Config
	newFetcher FetcherFactory
	embedder   embeddings.Embedder
	store      vectorstore.Store
	logger     *zap.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(
	cfg *config.Config,
	newFetcher FetcherFactory,
	embedder embeddings.Embedder,
	store vectorstore.Store,
	logger *zap.Logger,
) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		cfg:        cfg,
		newFetcher: newFetcher,
		embedder:   embedder,
		store:      store,
		logger:     logger,
	}
}

type chunkParams struct {
	size    int
	overlap int
}

// IngestTopics searches the content source per topic and ingests the
// resulting pages, deduplicated by page id across topics.
func (s *IngestService) IngestTopics(ctx context.Context, req *domain.IngestTopicsRequest) (*domain.IngestResult, error) {
	topics := cleanList(req.Topics)
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: at least one non-empty topic must be provided", domain.ErrValidation)
	}

	params, err := s.resolveChunkParams(req.ChunkSize, req.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	maxPages := req.MaxPagesPerTopic
	if maxPages <= 0 {
		maxPages = s.cfg.Ingest.MaxPagesPerTopic
	}

	fetcher := s.newFetcher(s.language(req.Language))

	seen := make(map[int64]bool)
	var pages []domain.Page
	for _, topic := range topics {
		found, err := fetcher.SearchTopic(ctx, topic, maxPages)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			s.logger.Warn("no pages found for topic", zap.String("topic", topic))
		}
		// a page matching two topics counts once
		for _, page := range found {
			if seen[page.PageID] {
				continue
			}
			seen[page.PageID] = true
			pages = append(pages, page)
		}
	}

	result, err := s.process(ctx, pages, 0, params, req.DryRun)
	if err != nil {
		return nil, err
	}
	result.Topics = topics
	s.logIngestResult(result)
	return result, nil
}

// IngestURLs fetches explicit article URLs and ingests them. A failed
// or empty fetch skips that page; it never aborts the batch.
func (s *IngestService) IngestURLs(ctx context.Context, req *domain.IngestURLsRequest) (*domain.IngestResult, error) {
	urls := cleanList(req.URLs)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: at least one non-empty url must be provided", domain.ErrValidation)
	}

	params, err := s.resolveChunkParams(req.ChunkSize, req.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	fetcher := s.newFetcher(s.language(req.Language))

	seen := make(map[int64]bool)
	var pages []domain.Page
	skipped := 0
	for _, pageURL := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := fetcher.FetchPage(ctx, pageURL)
		if err != nil {
			s.logger.Warn("skipping url", zap.String("url", pageURL), zap.Error(err))
			skipped++
			continue
		}
		if seen[page.PageID] {
			continue
		}
		seen[page.PageID] = true
		pages = append(pages, page)
	}

	result, err := s.process(ctx, pages, skipped, params, req.DryRun)
	if err != nil {
		return nil, err
	}
	result.Topics = []string{}
	s.logIngestResult(result)
	return result, nil
}

// process runs the chunk/embed/upsert stages over a bounded worker
// pool. Page-level skips are tolerated; an embedding or index failure
// cancels the remaining work and fails the request.
func (s *IngestService) process(ctx context.Context, pages []domain.Page, alreadySkipped int, params chunkParams, dryRun bool) (*domain.IngestResult, error) {
	workers := s.cfg.Ingest.Workers
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	result := &domain.IngestResult{SkippedPages: alreadySkipped, DryRun: dryRun}
	sem := make(chan struct{}, workers)

	for _, page := range pages {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(page domain.Page) {
			defer wg.Done()
			defer func() { <-sem }()

			chunkCount, err := s.processPage(ctx, page, params, dryRun)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				if firstErr == nil {
					firstErr = err
					cancel()
				}
			case chunkCount == 0:
				result.SkippedPages++
			default:
				result.ProcessedPages++
				result.EmbeddedChunks += chunkCount
			}
		}(page)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metrics.PagesProcessed.Add(float64(result.ProcessedPages))
	metrics.PagesSkipped.Add(float64(result.SkippedPages))
	metrics.ChunksEmbedded.Add(float64(result.EmbeddedChunks))
	return result, nil
}

// processPage returns the page's chunk count, or 0 to skip it. Any
// returned error is fatal to the whole request.
func (s *IngestService) processPage(ctx context.Context, page domain.Page, params chunkParams, dryRun bool) (int, error) {
	chunks, err := chunker.Chunk(page.Content, params.size, params.overlap)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		s.logger.Debug("no chunks produced for page",
			zap.String("title", page.Title), zap.Int64("page_id", page.PageID))
		return 0, nil
	}

	vectors, err := s.embedder.Embed(ctx, chunks, embeddings.ModeDocument)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: embedding count mismatch: have %d chunks, %d vectors",
			domain.ErrEmbedding, len(chunks), len(vectors))
	}

	if dryRun {
		return len(chunks), nil
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, text := range chunks {
		points[i] = vectorstore.Point{
			PageID:     page.PageID,
			ChunkIndex: i,
			Vector:     vectors[i],
			Payload: vectorstore.Payload{
				Source:     "wikipedia",
				Topic:      page.Topic,
				Title:      page.Title,
				URL:        page.URL,
				ChunkIndex: i,
				WordCount:  len(strings.Fields(text)),
				PageID:     page.PageID,
				Content:    text,
			},
		}
	}
	if err := s.store.Upsert(ctx, points); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (s *IngestService) resolveChunkParams(size int, overlap *int) (chunkParams, error) {
	params := chunkParams{size: s.cfg.Ingest.ChunkSize, overlap: s.cfg.Ingest.ChunkOverlap}
	if size > 0 {
		params.size = size
	}
	if overlap != nil {
		params.overlap = *overlap
	}
	if err := chunker.Validate(params.size, params.overlap); err != nil {
		return chunkParams{}, err
	}
	return params, nil
}

func (s *IngestService) language(requested string) string {
	if requested != "" {
		return requested
	}
	return s.cfg.Wikipedia.Language
}

func (s *IngestService) logIngestResult(result *domain.IngestResult) {
	s.logger.Info("ingestion finished",
		zap.Int("processed_pages", result.ProcessedPages),
		zap.Int("embedded_chunks", result.EmbeddedChunks),
		zap.Int("skipped_pages", result.SkippedPages),
		zap.Bool("dry_run", result.DryRun),
	)
}

func cleanList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
