package models

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// RunRequest is the canonical parsed form of a question-answering run,
// produced from either a JSON body or a multipart form.
type RunRequest struct {
	// Documents holds the source document URL. DocumentURL is an accepted
	// alias; JSON clients send either, multipart clients send document_url.
	Documents   string   `json:"documents,omitempty"`
	DocumentURL string   `json:"document_url,omitempty"`
	Questions   []string `json:"questions" validate:"required,min=1"`
}

// SourceURL returns the document URL with the documents field taking
// precedence over the document_url alias.
func (r *RunRequest) SourceURL() string {
	if url := strings.TrimSpace(r.Documents); url != "" {
		return url
	}
	return strings.TrimSpace(r.DocumentURL)
}

// Validate validates the request using go-playground/validator.
func (r *RunRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// RunResponse carries one answer per input question, same order.
type RunResponse struct {
	Answers []string `json:"answers"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// TestEchoResponse is returned by the debugging echo endpoint.
type TestEchoResponse struct {
	ReceivedRequest interface{} `json:"received_request"`
	LLMModel        string      `json:"llm_model"`
	Status          string      `json:"status"`
}
