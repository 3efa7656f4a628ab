package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/liliang-cn/wikirag/internal/domain"
	"github.com/liliang-cn/wikirag/internal/vectorstore"
)

// KnowledgeService exposes the reference registry: the set of ingested
// pages derived from the vector index.
type KnowledgeService struct {
	store  vectorstore.Store
	logger *zap.Logger
}

// NewKnowledgeService creates a new knowledge service
func NewKnowledgeService(store vectorstore.Store, logger *zap.Logger) *KnowledgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeService{store: store, logger: logger}
}

// List returns one reference per ingested page
func (s *KnowledgeService) List(ctx context.Context) ([]domain.Reference, error) {
	pages, err := s.store.ListPages(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]domain.Reference, len(pages))
	for i, page := range pages {
		refs[i] = domain.Reference{
			PageID:     page.PageID,
			Title:      page.Title,
			Topic:      page.Topic,
			URL:        page.URL,
			ChunkCount: page.ChunkCount,
		}
	}
	return refs, nil
}

// Delete removes all chunks of one page from the index. Citations on
// stored messages are snapshots and survive the deletion.
func (s *KnowledgeService) Delete(ctx context.Context, pageID int64) error {
	count, err := s.store.CountPage(ctx, pageID)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: page %d has no indexed chunks", domain.ErrNotFound, pageID)
	}
	if err := s.store.DeletePage(ctx, pageID); err != nil {
		return err
	}
	s.logger.Info("deleted page from index",
		zap.Int64("page_id", pageID), zap.Int("chunks", count))
	return nil
}
