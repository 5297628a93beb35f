// -----------------------------------------------------------------------
// Memory Index - Request-scoped in-memory vector index with cosine search
// -----------------------------------------------------------------------

package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
	"github.com/ternarybob/responsum/internal/services/llm"
)

// MemoryIndex holds the embedded chunks of one document and answers
// similarity searches against them. It lives for a single request and is
// released through Close.
type MemoryIndex struct {
	chunks      []models.Chunk
	dimension   int
	llmService  interfaces.LLMService
	auditLogger llm.AuditLogger
	logger      arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an index over already-embedded chunks.
func NewMemoryIndex(chunks []models.Chunk, llmService interfaces.LLMService, auditLogger llm.AuditLogger, logger arbor.ILogger) *MemoryIndex {
	dimension := 0
	if len(chunks) > 0 {
		dimension = len(chunks[0].Embedding)
	}

	return &MemoryIndex{
		chunks:      chunks,
		dimension:   dimension,
		llmService:  llmService,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// Search embeds the question and returns the topK most similar chunks by
// cosine similarity, highest score first.
func (idx *MemoryIndex) Search(ctx context.Context, question string, topK int) ([]models.SourceMatch, error) {
	if len(idx.chunks) == 0 {
		return nil, fmt.Errorf("index contains no chunks")
	}

	start := time.Now()
	embedding, err := idx.llmService.Embed(ctx, question)
	duration := time.Since(start)

	// Log to audit trail; searches record the query text
	if idx.auditLogger != nil {
		if auditErr := idx.auditLogger.LogEmbed(idx.llmService.GetMode(), err == nil, duration, err, question); auditErr != nil {
			idx.logger.Warn().Err(auditErr).Msg("Failed to log embedding operation")
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(embedding) != idx.dimension {
		return nil, fmt.Errorf("question embedding dimension %d does not match index dimension %d", len(embedding), idx.dimension)
	}

	matches := make([]models.SourceMatch, 0, len(idx.chunks))
	for _, chunk := range idx.chunks {
		matches = append(matches, models.SourceMatch{
			Content:   chunk.Content,
			PageLabel: chunk.PageLabel,
			Score:     cosineSimilarity(embedding, chunk.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	idx.logger.Debug().
		Int("matches", len(matches)).
		Int("chunks", len(idx.chunks)).
		Dur("duration", time.Since(start)).
		Msg("Index search completed")

	return matches, nil
}

// Len returns the number of chunks in the index.
func (idx *MemoryIndex) Len() int {
	return len(idx.chunks)
}

// Close releases the chunk vectors.
func (idx *MemoryIndex) Close() error {
	idx.chunks = nil
	idx.dimension = 0
	return nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
// Mismatched or zero-magnitude vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
