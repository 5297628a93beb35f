// -----------------------------------------------------------------------
// PDF Extractor Interface - Extract text content from PDF documents
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
)

// PDFPageContent represents extracted content from a single PDF page
type PDFPageContent struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// PDFMetadata contains metadata about a PDF document
type PDFMetadata struct {
	PageCount   int   `json:"page_count"`
	FileSize    int64 `json:"file_size"`
	IsEncrypted bool  `json:"is_encrypted"`
}

// PDFExtractor defines the interface for extracting content from PDF documents.
// This interface abstracts the PDF extraction implementation, allowing different
// backends (pdfcpu, Apache Tika, AWS Textract, etc.) to be used interchangeably.
type PDFExtractor interface {
	// ExtractPages extracts text content by page from the PDF at filePath.
	// Returns a slice of PDFPageContent with 1-indexed page numbers.
	ExtractPages(ctx context.Context, filePath string) ([]PDFPageContent, error)

	// GetMetadata retrieves PDF metadata without extracting text content.
	// This is a lightweight operation useful for checking document properties.
	GetMetadata(ctx context.Context, filePath string) (*PDFMetadata, error)
}
