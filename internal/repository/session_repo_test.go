package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/wikirag/internal/domain"
)

func newRepo(t *testing.T) *SessionRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSessionRepository(db)
}

func appendTurn(t *testing.T, repo *SessionRepository, sessionID, question, answer string, at time.Time) {
	t.Helper()
	latency := 12.5
	idx := 0
	err := repo.AppendTurn(context.Background(), sessionID,
		&domain.Message{Role: "user", Content: question, CreatedAt: at},
		&domain.Message{
			Role:      "assistant",
			Content:   answer,
			Sources:   []domain.Source{{Title: "Octopus", PageID: 22247, ChunkIndex: &idx, Score: 0.9}},
			LatencyMs: &latency,
			CreatedAt: at.Add(time.Microsecond),
		})
	require.NoError(t, err)
}

func TestAppendTurnAndGetMessages(t *testing.T) {
	repo := newRepo(t)
	now := time.Now().UTC().Truncate(time.Millisecond)
	appendTurn(t, repo, "s1", "what is an octopus?", "A mollusc.", now)

	messages, err := repo.GetMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "what is an octopus?", messages[0].Content)
	assert.Empty(t, messages[0].Sources)
	assert.Nil(t, messages[0].LatencyMs)

	assert.Equal(t, "assistant", messages[1].Role)
	require.Len(t, messages[1].Sources, 1)
	assert.Equal(t, int64(22247), messages[1].Sources[0].PageID)
	require.NotNil(t, messages[1].LatencyMs)
	assert.Equal(t, 12.5, *messages[1].LatencyMs)
}

func TestGetMessagesOrdering(t *testing.T) {
	repo := newRepo(t)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		appendTurn(t, repo, "s1", "q", "a", base.Add(time.Duration(i)*time.Minute))
	}

	messages, err := repo.GetMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 10)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt),
			"messages must be non-decreasing in created_at")
	}
}

func TestGetMessagesUnknownSession(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.GetMessages(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListSummaries(t *testing.T) {
	repo := newRepo(t)
	base := time.Now().UTC().Add(-time.Hour)
	appendTurn(t, repo, "old", "first question", "first answer", base)
	appendTurn(t, repo, "recent", "second question", "second answer", base.Add(30*time.Minute))

	summaries, err := repo.ListSummaries(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// ordered by recency
	assert.Equal(t, "recent", summaries[0].SessionID)
	assert.Equal(t, "old", summaries[1].SessionID)

	assert.Equal(t, DefaultSessionTitle, summaries[0].Title)
	assert.Equal(t, 2, summaries[0].MessageCount)
	assert.Equal(t, "assistant", summaries[0].LastMessageRole)
	assert.Equal(t, "second answer", summaries[0].LastMessagePreview)
}

func TestListSummariesPreviewTruncated(t *testing.T) {
	repo := newRepo(t)
	long := ""
	for i := 0; i < 40; i++ {
		long += "truncate "
	}
	appendTurn(t, repo, "s1", "q", long, time.Now().UTC())

	summaries, err := repo.ListSummaries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Len(t, []rune(summaries[0].LastMessagePreview), previewRunes)
}

func TestRename(t *testing.T) {
	repo := newRepo(t)
	appendTurn(t, repo, "s1", "q", "a", time.Now().UTC())

	summary, err := repo.Rename(context.Background(), "s1", "Cephalopods")
	require.NoError(t, err)
	assert.Equal(t, "Cephalopods", summary.Title)
	assert.Equal(t, 2, summary.MessageCount)

	_, err = repo.Rename(context.Background(), "missing", "Anything")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCascadesAndIsIdempotent(t *testing.T) {
	repo := newRepo(t)
	appendTurn(t, repo, "s1", "q", "a", time.Now().UTC())

	require.NoError(t, repo.Delete(context.Background(), "s1"))

	_, err := repo.GetMessages(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// repeat deletion is a no-op
	require.NoError(t, repo.Delete(context.Background(), "s1"))
}
