package service

import (
	"fmt"
	"strings"

	"github.com/liliang-cn/wikirag/internal/domain"
)

// DefaultSystemPrompt steers the model toward the retrieved context
// while allowing general-knowledge answers when nothing was retrieved.
const DefaultSystemPrompt = "You are a knowledgeable assistant that prioritizes answering user questions using " +
	"the provided context. When the context does not contain the needed details, draw " +
	"on your broader expertise to offer a clear, accurate answer and optionally mention " +
	"that the response is based on general knowledge."

const defaultAnswerInstructions = "Provide a concise, factual answer grounded in the relevant context. " +
	"Ignore any snippets that do not relate to the user question."

const defaultGeneralKnowledgeInstructions = "No supporting context was retrieved for this question. " +
	"Provide a concise, factual answer based on your general knowledge and note that no sources are available."

// PromptBuilder assembles generation prompts from system instructions,
// retrieved context, and conversation history.
type PromptBuilder struct {
	SystemPrompt                 string
	AnswerInstructions           string
	GeneralKnowledgeInstructions string
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		SystemPrompt:                 DefaultSystemPrompt,
		AnswerInstructions:           defaultAnswerInstructions,
		GeneralKnowledgeInstructions: defaultGeneralKnowledgeInstructions,
	}
}

// Build produces a single prompt string suitable for the generation
// endpoint.
func (b *PromptBuilder) Build(question string, contexts []string, history []domain.HistoryTurn) string {
	sections := []string{"System:\n" + b.SystemPrompt}

	if formatted := formatHistory(history); formatted != "" {
		sections = append(sections, "Conversation History:\n"+formatted)
	}

	if len(contexts) > 0 {
		sections = append(sections, "Retrieved Context:\n"+formatContexts(contexts))
	}

	instructions := b.AnswerInstructions
	if len(contexts) == 0 {
		instructions = b.GeneralKnowledgeInstructions
	}
	sections = append(sections,
		"Instructions:\n"+instructions,
		"User Question:\n"+strings.TrimSpace(question),
		"Answer:")

	return strings.Join(sections, "\n\n")
}

func formatContexts(contexts []string) string {
	lines := make([]string, len(contexts))
	for i, snippet := range contexts {
		lines[i] = fmt.Sprintf("Context %d:\n%s", i+1, strings.TrimSpace(snippet))
	}
	return strings.Join(lines, "\n\n")
}

func formatHistory(history []domain.HistoryTurn) string {
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		lines = append(lines, capitalize(turn.Role)+": "+content)
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
