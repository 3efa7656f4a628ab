package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liliang-cn/wikirag/internal/config"
	"github.com/liliang-cn/wikirag/internal/domain"
	"github.com/liliang-cn/wikirag/internal/embeddings"
	"github.com/liliang-cn/wikirag/internal/llm"
	"github.com/liliang-cn/wikirag/internal/metrics"
	"github.com/liliang-cn/wikirag/internal/repository"
	"github.com/liliang-cn/wikirag/internal/vectorstore"
)

const (
	maxTopK = 10

	// emptyAnswerFallback replaces a blank completion so clients always
	// receive displayable text.
	emptyAnswerFallback = "I'm sorry, I couldn't generate an answer for that question. Please try rephrasing it."
)

// ChatService answers questions over the indexed corpus and records the
// conversation.
type ChatService struct {
	cfg      *config.Config
	embedder embeddings.Embedder
	store    vectorstore.Store
	llm      llm.Client
	sessions *repository.SessionRepository
	prompts  *PromptBuilder
	logger   *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	cfg *config.Config,
	embedder embeddings.Embedder,
	store vectorstore.Store,
	llmClient llm.Client,
	sessions *repository.SessionRepository,
	logger *zap.Logger,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		cfg:      cfg,
		embedder: embedder,
		store:    store,
		llm:      llmClient,
		sessions: sessions,
		prompts:  NewPromptBuilder(),
		logger:   logger,
	}
}

// Chat runs one retrieval-augmented turn: embed the question, search the
// index, generate an answer over the retrieved context, then persist the
// user/assistant pair. Nothing is persisted unless generation succeeds.
func (s *ChatService) Chat(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	question := strings.TrimSpace(req.Message)
	if question == "" {
		return nil, fmt.Errorf("%w: message must not be empty", domain.ErrValidation)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.Retrieval.TopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	vectors, err := s.embedder.Embed(ctx, []string{question}, embeddings.ModeQuery)
	if err != nil {
		metrics.ChatTurns.WithLabelValues("error").Inc()
		return nil, err
	}

	hits, err := s.store.Search(ctx, vectors[0], topK, s.cfg.Retrieval.ScoreThreshold)
	if err != nil {
		metrics.ChatTurns.WithLabelValues("error").Inc()
		return nil, err
	}

	contexts := make([]string, len(hits))
	sources := make([]domain.Source, len(hits))
	for i, hit := range hits {
		chunkIndex := hit.Payload.ChunkIndex
		contexts[i] = hit.Payload.Content
		sources[i] = domain.Source{
			Title:      hit.Payload.Title,
			URL:        hit.Payload.URL,
			ChunkIndex: &chunkIndex,
			Score:      hit.Score,
			PageID:     hit.Payload.PageID,
			Topic:      hit.Payload.Topic,
		}
	}

	prompt := s.prompts.Build(question, contexts, req.History)

	start := time.Now()
	generated, err := s.llm.Generate(ctx, llm.GenerateRequest{
		Model:       req.Model,
		Prompt:      prompt,
		Temperature: req.Temperature,
	})
	if err != nil {
		metrics.ChatTurns.WithLabelValues("error").Inc()
		return nil, err
	}
	elapsed := time.Since(start)
	metrics.GenerationSeconds.Observe(elapsed.Seconds())

	answer := strings.TrimSpace(generated.Response)
	if answer == "" {
		answer = emptyAnswerFallback
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	modelName := generated.Model
	if modelName == "" {
		modelName = req.Model
	}
	if modelName == "" {
		modelName = s.cfg.LLM.Model
	}

	latencyMs := float64(elapsed.Milliseconds())
	userAt := time.Now().UTC()
	// the assistant timestamp sorts strictly after the user's even at
	// coarse clock resolution
	assistantAt := userAt.Add(time.Microsecond)

	userMsg := &domain.Message{
		Role:      "user",
		Content:   question,
		CreatedAt: userAt,
	}
	assistantMsg := &domain.Message{
		Role:      "assistant",
		Content:   answer,
		Sources:   sources,
		Model:     modelName,
		LatencyMs: &latencyMs,
		CreatedAt: assistantAt,
	}
	if err := s.sessions.AppendTurn(ctx, sessionID, userMsg, assistantMsg); err != nil {
		metrics.ChatTurns.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.ChatTurns.WithLabelValues("success").Inc()
	s.logger.Info("chat turn completed",
		zap.String("session_id", sessionID),
		zap.Int("sources", len(sources)),
		zap.Float64("latency_ms", latencyMs),
	)

	return &domain.ChatResponse{
		SessionID: sessionID,
		Answer:    answer,
		Sources:   sources,
		LatencyMs: latencyMs,
		CreatedAt: assistantAt,
	}, nil
}

// ListSessions returns recent session summaries
func (s *ChatService) ListSessions(ctx context.Context, limit int) ([]*domain.SessionSummary, error) {
	return s.sessions.ListSummaries(ctx, limit)
}

// GetSessionMessages returns the full ordered transcript of one session
func (s *ChatService) GetSessionMessages(ctx context.Context, sessionID string) (*domain.SessionMessages, error) {
	messages, err := s.sessions.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &domain.SessionMessages{SessionID: sessionID, Messages: messages}, nil
}

// RenameSession updates a session's title
func (s *ChatService) RenameSession(ctx context.Context, sessionID, title string) (*domain.SessionSummary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", domain.ErrValidation)
	}
	return s.sessions.Rename(ctx, sessionID, title)
}

// DeleteSession removes a session and its messages. Deleting an unknown
// session is a no-op.
func (s *ChatService) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}
