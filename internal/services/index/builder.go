// -----------------------------------------------------------------------
// Index Builder - Chunk and embed a document into a request-scoped index
// -----------------------------------------------------------------------

package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
	"github.com/ternarybob/responsum/internal/services/llm"
)

// Builder implements the IndexBuilder interface. It chunks document
// passages and embeds each chunk sequentially, in document order, with no
// retries. Any embedding failure aborts the build.
type Builder struct {
	llmService  interfaces.LLMService
	auditLogger llm.AuditLogger
	chunker     *Chunker
	logger      arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.IndexBuilder = (*Builder)(nil)

// NewBuilder creates a new index builder
func NewBuilder(cfg *common.Config, llmService interfaces.LLMService, auditLogger llm.AuditLogger, logger arbor.ILogger) *Builder {
	return &Builder{
		llmService:  llmService,
		auditLogger: auditLogger,
		chunker:     NewChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap),
		logger:      logger,
	}
}

// BuildIndex chunks and embeds the document into a memory index.
func (b *Builder) BuildIndex(ctx context.Context, doc *models.Document) (interfaces.Index, error) {
	startTime := time.Now()

	chunks := b.chunker.Chunk(doc.Passages)
	if len(chunks) == 0 {
		err := errors.New("document produced no indexable chunks")
		return nil, &models.IndexError{
			Detail: fmt.Sprintf("Failed to create document index: %v", err),
			Err:    err,
		}
	}

	mode := b.llmService.GetMode()
	dimension := 0
	for i := range chunks {
		start := time.Now()
		embedding, err := b.llmService.Embed(ctx, chunks[i].Content)
		duration := time.Since(start)

		// Log to audit trail; chunk content is not a query
		if b.auditLogger != nil {
			if auditErr := b.auditLogger.LogEmbed(mode, err == nil, duration, err, ""); auditErr != nil {
				b.logger.Warn().Err(auditErr).Msg("Failed to log embedding operation")
			}
		}

		if err != nil {
			b.logger.Error().
				Err(err).
				Str("document_id", doc.ID).
				Int("chunk", i).
				Msg("Chunk embedding failed")
			return nil, &models.IndexError{
				Detail: fmt.Sprintf("Failed to create document index: %v", err),
				Err:    err,
			}
		}

		if dimension == 0 {
			dimension = len(embedding)
		} else if len(embedding) != dimension {
			err := fmt.Errorf("embedding dimension mismatch: chunk %d has %d, expected %d", i, len(embedding), dimension)
			return nil, &models.IndexError{
				Detail: fmt.Sprintf("Failed to create document index: %v", err),
				Err:    err,
			}
		}

		chunks[i].Embedding = embedding
	}

	b.logger.Info().
		Str("document_id", doc.ID).
		Int("passages", len(doc.Passages)).
		Int("chunks", len(chunks)).
		Int("dimension", dimension).
		Dur("duration", time.Since(startTime)).
		Msg("Document index built")

	return NewMemoryIndex(chunks, b.llmService, b.auditLogger, b.logger), nil
}
