package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/liliang-cn/wikirag/internal/domain"
	"github.com/liliang-cn/wikirag/internal/llm"
	"github.com/liliang-cn/wikirag/internal/repository"
	"github.com/liliang-cn/wikirag/internal/vectorstore"
	"github.com/liliang-cn/wikirag/internal/vectorstore/memory"
)

type fakeLLM struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeLLM) Generate(_ context.Context, req llm.GenerateRequest) (llm.GenerateResult, error) {
	f.lastPrompt = req.Prompt
	if f.err != nil {
		return llm.GenerateResult{}, f.err
	}
	model := req.Model
	if model == "" {
		model = "llama3.2:3b"
	}
	return llm.GenerateResult{Model: model, Response: f.response}, nil
}

func newChatFixture(t *testing.T, generator *fakeLLM) (*ChatService, *memory.Store, *repository.SessionRepository) {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions := repository.NewSessionRepository(db)
	store := memory.NewStore()
	svc := NewChatService(testConfig(), &fakeEmbedder{failAfter: -1}, store, generator, sessions, zap.NewNop())
	return svc, store, sessions
}

func seedChunk(t *testing.T, store *memory.Store, pageID int64, chunkIndex int, content string) {
	t.Helper()
	err := store.Upsert(context.Background(), []vectorstore.Point{{
		PageID:     pageID,
		ChunkIndex: chunkIndex,
		Vector:     []float32{float32(len(content)), 1, 0},
		Payload: vectorstore.Payload{
			Source:     "wikipedia",
			Topic:      "physics",
			Title:      fmt.Sprintf("Page %d", pageID),
			URL:        fmt.Sprintf("https://en.wikipedia.org/wiki/Page_%d", pageID),
			ChunkIndex: chunkIndex,
			WordCount:  len(strings.Fields(content)),
			PageID:     pageID,
			Content:    content,
		},
	}})
	require.NoError(t, err)
}

func TestChatReturnsCitedAnswer(t *testing.T) {
	generator := &fakeLLM{response: "Gravity pulls masses together."}
	svc, store, sessions := newChatFixture(t, generator)
	seedChunk(t, store, 1, 0, "gravity is an attractive force")

	resp, err := svc.Chat(context.Background(), &domain.ChatRequest{Message: "What is gravity?"})
	require.NoError(t, err)

	assert.Equal(t, "Gravity pulls masses together.", resp.Answer)
	assert.NotEmpty(t, resp.SessionID)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Page 1", resp.Sources[0].Title)
	assert.Equal(t, int64(1), resp.Sources[0].PageID)
	require.NotNil(t, resp.Sources[0].ChunkIndex)
	assert.Equal(t, 0, *resp.Sources[0].ChunkIndex)
	assert.Contains(t, generator.lastPrompt, "Retrieved Context:")
	assert.Contains(t, generator.lastPrompt, "gravity is an attractive force")

	transcript, err := sessions.GetMessages(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	assert.Equal(t, "user", transcript[0].Role)
	assert.Equal(t, "assistant", transcript[1].Role)
	assert.Len(t, transcript[1].Sources, 1)
	assert.True(t, transcript[1].CreatedAt.After(transcript[0].CreatedAt))
}

func TestChatEmptyIndexAnswersFromGeneralKnowledge(t *testing.T) {
	generator := &fakeLLM{response: "It is a fundamental interaction."}
	svc, _, _ := newChatFixture(t, generator)

	resp, err := svc.Chat(context.Background(), &domain.ChatRequest{Message: "What is gravity?"})
	require.NoError(t, err)

	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
	assert.NotEmpty(t, resp.SessionID)
	assert.Contains(t, generator.lastPrompt, "general knowledge")
	assert.NotContains(t, generator.lastPrompt, "Retrieved Context:")
}

func TestChatRejectsBlankMessage(t *testing.T) {
	svc, _, _ := newChatFixture(t, &fakeLLM{response: "unused"})

	_, err := svc.Chat(context.Background(), &domain.ChatRequest{Message: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestChatGenerationFailurePersistsNothing(t *testing.T) {
	generator := &fakeLLM{err: fmt.Errorf("%w: model not loaded", domain.ErrGeneration)}
	svc, _, sessions := newChatFixture(t, generator)

	_, err := svc.Chat(context.Background(), &domain.ChatRequest{
		Message:   "What is gravity?",
		SessionID: "sess-1",
	})
	assert.ErrorIs(t, err, domain.ErrGeneration)

	_, err = sessions.GetMessages(context.Background(), "sess-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChatEmptyCompletionGetsFallbackText(t *testing.T) {
	generator := &fakeLLM{response: "   "}
	svc, _, _ := newChatFixture(t, generator)

	resp, err := svc.Chat(context.Background(), &domain.ChatRequest{Message: "What is gravity?"})
	require.NoError(t, err)
	assert.Equal(t, emptyAnswerFallback, resp.Answer)
}

func TestChatReusesProvidedSessionID(t *testing.T) {
	generator := &fakeLLM{response: "Answer one."}
	svc, _, sessions := newChatFixture(t, generator)

	first, err := svc.Chat(context.Background(), &domain.ChatRequest{Message: "First question"})
	require.NoError(t, err)

	generator.response = "Answer two."
	second, err := svc.Chat(context.Background(), &domain.ChatRequest{
		Message:   "Second question",
		SessionID: first.SessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	transcript, err := sessions.GetMessages(context.Background(), first.SessionID)
	require.NoError(t, err)
	assert.Len(t, transcript, 4)
}

func TestChatHistoryFlowsIntoPrompt(t *testing.T) {
	generator := &fakeLLM{response: "Still gravity."}
	svc, _, _ := newChatFixture(t, generator)

	_, err := svc.Chat(context.Background(), &domain.ChatRequest{
		Message: "And on the moon?",
		History: []domain.HistoryTurn{
			{Role: "user", Content: "What is gravity?"},
			{Role: "assistant", Content: "An attractive force."},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, generator.lastPrompt, "Conversation History:")
	assert.Contains(t, generator.lastPrompt, "User: What is gravity?")
	assert.Contains(t, generator.lastPrompt, "Assistant: An attractive force.")
}

func TestDeletedPageKeepsCitationsOnMessages(t *testing.T) {
	generator := &fakeLLM{response: "Gravity pulls masses together."}
	svc, store, sessions := newChatFixture(t, generator)
	seedChunk(t, store, 1, 0, "gravity is an attractive force")

	resp, err := svc.Chat(context.Background(), &domain.ChatRequest{Message: "What is gravity?"})
	require.NoError(t, err)
	require.Len(t, resp.Sources, 1)

	knowledge := NewKnowledgeService(store, zap.NewNop())
	require.NoError(t, knowledge.Delete(context.Background(), 1))
	assert.Equal(t, 0, store.Count())

	// stored citations are snapshots, not live references
	transcript, err := sessions.GetMessages(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	require.Len(t, transcript[1].Sources, 1)
	assert.Equal(t, "Page 1", transcript[1].Sources[0].Title)
	assert.Equal(t, int64(1), transcript[1].Sources[0].PageID)
	require.NotNil(t, transcript[1].Sources[0].ChunkIndex)
	assert.Equal(t, 0, *transcript[1].Sources[0].ChunkIndex)
}

func TestKnowledgeListAndDelete(t *testing.T) {
	store := memory.NewStore()
	svc := NewKnowledgeService(store, zap.NewNop())
	seedChunk(t, store, 1, 0, "alpha beta")
	seedChunk(t, store, 1, 1, "beta gamma")
	seedChunk(t, store, 2, 0, "delta epsilon")

	refs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, int64(1), refs[0].PageID)
	assert.Equal(t, 2, refs[0].ChunkCount)

	require.NoError(t, svc.Delete(context.Background(), 1))
	refs, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, int64(2), refs[0].PageID)

	err = svc.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
