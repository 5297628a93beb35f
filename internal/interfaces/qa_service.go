package interfaces

import (
	"context"

	"github.com/ternarybob/responsum/internal/models"
)

// QAService drives one question-answering run: validate input, load the
// document, build the index, and answer each question in order.
//
// Returned errors are typed: *models.InvalidInputError for requests
// rejected before any document work, *models.DocumentError for load
// failures, *models.IndexError for index construction failures. A
// per-question failure never fails the run; it degrades to an error
// string in that question's answer slot.
type QAService interface {
	Run(ctx context.Context, source *models.DocumentSource, questions []string) (*models.RunResponse, error)
}
