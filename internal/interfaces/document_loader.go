package interfaces

import (
	"context"

	"github.com/ternarybob/responsum/internal/models"
)

// DocumentLoader resolves a document source (upload or URL) into an
// extracted document. Implementations stage the raw bytes in a scoped
// temporary location and must remove it on every exit path.
type DocumentLoader interface {
	// Load fetches or receives the document bytes, extracts ordered
	// passages, and returns the assembled document. The returned document
	// is request-scoped and not retained by the loader.
	Load(ctx context.Context, source *models.DocumentSource) (*models.Document, error)
}
