package interfaces

import (
	"context"

	"github.com/ternarybob/responsum/internal/models"
)

// Index is a request-scoped semantic search structure over document
// chunks. An index belongs to exactly one request and is discarded when
// the request ends; there is no sharing or reuse across requests.
type Index interface {
	// Search returns up to topK chunks most similar to the question,
	// ordered by descending relevance score.
	Search(ctx context.Context, question string, topK int) ([]models.SourceMatch, error)

	// Len returns the number of indexed chunks.
	Len() int

	// Close releases the index. The index must not be used afterwards.
	Close() error
}

// IndexBuilder constructs a searchable index from an extracted document.
type IndexBuilder interface {
	// BuildIndex chunks the document's passages, embeds each chunk, and
	// returns the populated index. Fails when the document yields no
	// indexable text or when embedding fails.
	BuildIndex(ctx context.Context, doc *models.Document) (Index, error)
}
