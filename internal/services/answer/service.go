// -----------------------------------------------------------------------
// Answer Service - Retrieve relevant chunks and generate grounded answers
// -----------------------------------------------------------------------

package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
	"github.com/ternarybob/responsum/internal/services/llm"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 3

// answerSystemPrompt instructs the chat model to stay grounded in the
// retrieved context.
const answerSystemPrompt = "You are a document question answering assistant. " +
	"Answer using only the provided context information, not prior knowledge. " +
	"Keep answers concise and directly address the question."

// Service implements the AnswerService interface. Each question is
// answered independently: retrieve the most relevant chunks, build a
// compact prompt, and generate a completion.
type Service struct {
	llmService     interfaces.LLMService
	auditLogger    llm.AuditLogger
	topK           int
	includeSources bool
	logger         arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.AnswerService = (*Service)(nil)

// NewService creates a new answer service
func NewService(cfg *common.Config, llmService interfaces.LLMService, auditLogger llm.AuditLogger, logger arbor.ILogger) *Service {
	topK := cfg.Answers.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &Service{
		llmService:     llmService,
		auditLogger:    auditLogger,
		topK:           topK,
		includeSources: cfg.Answers.IncludeSources,
		logger:         logger,
	}
}

// Answer retrieves context for the question and generates an answer. When
// source annotation is enabled, the retrieved chunks are appended to the
// answer text.
func (s *Service) Answer(ctx context.Context, idx interfaces.Index, question string) (string, error) {
	matches, err := idx.Search(ctx, question, s.topK)
	if err != nil {
		return "", err
	}

	messages := []interfaces.Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: buildPrompt(matches, question)},
	}

	start := time.Now()
	answerText, err := s.llmService.Chat(ctx, messages)
	duration := time.Since(start)

	// Log to audit trail
	if s.auditLogger != nil {
		if auditErr := s.auditLogger.LogChat(s.llmService.GetMode(), err == nil, duration, err, question); auditErr != nil {
			s.logger.Warn().Err(auditErr).Msg("Failed to log chat operation")
		}
	}

	if err != nil {
		return "", err
	}

	s.logger.Debug().
		Int("matches", len(matches)).
		Int("answer_length", len(answerText)).
		Dur("duration", duration).
		Msg("Generated answer")

	if s.includeSources {
		answerText += formatSources(matches)
	}

	return answerText, nil
}

// buildPrompt assembles the compact question prompt from the retrieved
// context chunks.
func buildPrompt(matches []models.SourceMatch, question string) string {
	var b strings.Builder
	b.WriteString("Context information is below.\n")
	b.WriteString("---------------------\n")
	for i, match := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(match.Content))
	}
	b.WriteString("\n---------------------\n")
	b.WriteString("Given the context information and not prior knowledge, answer the query.\n")
	b.WriteString(fmt.Sprintf("Query: %s\n", question))
	b.WriteString("Answer: ")
	return b.String()
}

// formatSources renders the retrieved chunks as an annotation block
// appended to the answer text.
func formatSources(matches []models.SourceMatch) string {
	var b strings.Builder
	b.WriteString("\n\n--- Sources and Rationale ---\n")

	if len(matches) == 0 {
		b.WriteString("No specific sources retrieved for this answer.\n")
		return b.String()
	}

	for j, match := range matches {
		content := strings.TrimSpace(match.Content)
		runes := []rune(content)
		if len(runes) > 500 {
			content = string(runes[:500]) + "..."
		}

		b.WriteString(fmt.Sprintf("\nSource %d (Page %s):\n", j+1, match.PageLabel))
		b.WriteString(fmt.Sprintf("Relevance Score: %.4f\n", match.Score))
		b.WriteString(fmt.Sprintf("Content: %s\n", content))
		b.WriteString(strings.Repeat("-", 50) + "\n")
	}

	return b.String()
}
