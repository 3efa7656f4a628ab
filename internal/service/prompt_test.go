package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/liliang-cn/wikirag/internal/domain"
)

func TestPromptIncludesAllSections(t *testing.T) {
	builder := NewPromptBuilder()
	builder.SystemPrompt = "System instruction"
	builder.AnswerInstructions = "Answer briefly."

	prompt := builder.Build(
		"What is retrieval?",
		[]string{"Context snippet one.", "Context snippet two."},
		[]domain.HistoryTurn{
			{Role: "user", Content: "Hi!"},
			{Role: "assistant", Content: "Hello there."},
		},
	)

	assert.Contains(t, prompt, "System:\nSystem instruction")
	assert.Contains(t, prompt, "Conversation History:\nUser: Hi!\nAssistant: Hello there.")
	assert.Contains(t, prompt, "Retrieved Context:\nContext 1:\nContext snippet one.\n\nContext 2:\nContext snippet two.")
	assert.Contains(t, prompt, "Instructions:\nAnswer briefly.")
	assert.Contains(t, prompt, "User Question:\nWhat is retrieval?")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(prompt), "Answer:"))
}

func TestPromptWithoutContext(t *testing.T) {
	builder := NewPromptBuilder()
	prompt := builder.Build("Hello?", nil, nil)

	assert.Contains(t, prompt, DefaultSystemPrompt)
	assert.NotContains(t, prompt, "Retrieved Context")
	assert.NotContains(t, prompt, "Conversation History")
	assert.Contains(t, prompt, "general knowledge")
}
