// -----------------------------------------------------------------------
// QA Service - Per-request orchestration of load, index and answer stages
// -----------------------------------------------------------------------

package qa

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// Service implements the QAService interface. One Run call drives a full
// request: resolve the document, build the index once, then answer each
// question sequentially in input order. A question failure only affects
// its own answer slot.
type Service struct {
	loader   interfaces.DocumentLoader
	builder  interfaces.IndexBuilder
	answerer interfaces.AnswerService
	logger   arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.QAService = (*Service)(nil)

// NewService creates a new QA orchestration service
func NewService(loader interfaces.DocumentLoader, builder interfaces.IndexBuilder, answerer interfaces.AnswerService, logger arbor.ILogger) *Service {
	return &Service{
		loader:   loader,
		builder:  builder,
		answerer: answerer,
		logger:   logger,
	}
}

// Run processes one request end to end. Loader and builder failures are
// terminal and surface as typed errors; per-question failures degrade to
// an inline error string in that question's slot.
func (s *Service) Run(ctx context.Context, source *models.DocumentSource, questions []string) (*models.RunResponse, error) {
	startTime := time.Now()

	doc, err := s.loader.Load(ctx, source)
	if err != nil {
		return nil, err
	}

	idx, err := s.builder.BuildIndex(ctx, doc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := idx.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close index")
		}
	}()

	answers := make([]string, 0, len(questions))
	for i, question := range questions {
		s.logger.Info().
			Int("question", i+1).
			Int("total", len(questions)).
			Str("text", truncate(question, 100)).
			Msg("Processing question")

		answerText, err := s.answerer.Answer(ctx, idx, question)
		if err != nil {
			s.logger.Error().
				Err(err).
				Int("question", i+1).
				Msg("Failed to process question")
			answers = append(answers, fmt.Sprintf("Error processing question: %v", err))
			continue
		}

		answers = append(answers, answerText)
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Int("questions", len(questions)).
		Int("chunks", idx.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Run completed")

	return &models.RunResponse{Answers: answers}, nil
}

// truncate shortens a string to at most n runes for logging.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
