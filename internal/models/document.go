package models

import "strings"

// DocumentFormat identifies the detected content type of a source document.
type DocumentFormat string

const (
	// FormatPDF indicates a PDF document
	FormatPDF DocumentFormat = "pdf"
	// FormatHTML indicates an HTML page
	FormatHTML DocumentFormat = "html"
	// FormatText indicates plain text
	FormatText DocumentFormat = "text"
)

// PageLabelNone is the page label used when a document format has no
// page structure (HTML, plain text) or a source carries no label.
const PageLabelNone = "N/A"

// UploadedFile is a file received in a multipart request.
type UploadedFile struct {
	Name string // Original filename from the form part
	Data []byte
}

// DocumentSource describes where a run's document comes from.
// An uploaded file takes precedence over a URL when both are present.
type DocumentSource struct {
	Upload *UploadedFile // nil when the request carried no file part
	URL    string        // Remote document URL
}

// HasUpload reports whether the request carried a file part.
func (s *DocumentSource) HasUpload() bool {
	return s.Upload != nil
}

// HasValidURL reports whether URL is present and uses an accepted scheme.
func (s *DocumentSource) HasValidURL() bool {
	url := strings.TrimSpace(s.URL)
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Name returns a short descriptor of the source for logging.
func (s *DocumentSource) Name() string {
	if s.Upload != nil {
		return s.Upload.Name
	}
	return s.URL
}

// Passage is a contiguous span of extracted text with its page context.
// Passages are ordered as they appear in the document.
type Passage struct {
	PageLabel string `json:"page_label"` // Page number as text, or PageLabelNone
	Text      string `json:"text"`
}

// Document is a loaded and extracted source document. It exists only for
// the duration of one request.
type Document struct {
	ID       string         `json:"id"` // doc_{uuid}
	Format   DocumentFormat `json:"format"`
	Source   string         `json:"source"` // Upload filename or URL
	Passages []Passage      `json:"passages"`
}

// Chunk is an index-ready slice of a passage with its vector embedding.
type Chunk struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	PageLabel string    `json:"page_label"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// SourceMatch is one retrieved chunk with its relevance to a question.
type SourceMatch struct {
	Content   string  `json:"content"`
	PageLabel string  `json:"page_label"`
	Score     float64 `json:"score"`
}
