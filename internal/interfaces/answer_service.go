package interfaces

import "context"

// AnswerService generates a grounded answer for a single question using
// a request-scoped index.
type AnswerService interface {
	// Answer retrieves the most relevant chunks for the question and
	// generates an answer conditioned on them.
	Answer(ctx context.Context, index Index, question string) (string, error)
}
