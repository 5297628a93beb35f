// -----------------------------------------------------------------------
// PDF Extractor Service - Extract text content from PDF documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/interfaces"
)

// Extractor implements the PDFExtractor interface using pdfcpu
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	// Create a scratch directory for pdfcpu content extraction output
	tempDir := filepath.Join(os.TempDir(), "responsum-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// ExtractPages extracts text content by page from the PDF at the given path.
func (e *Extractor) ExtractPages(ctx context.Context, filePath string) ([]interfaces.PDFPageContent, error) {
	// Get page count using pdfcpu
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	pageCount := pdfCtx.PageCount
	pages := make([]interfaces.PDFPageContent, 0, pageCount)

	// Extract text from each page
	// pdfcpu doesn't have direct text extraction, so we extract content
	// into a per-call scratch directory. Concurrent requests can overlap,
	// so the directory name must be unique per call rather than per process.
	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%s", uuid.New().String()))
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	// Extract content from all pages
	if err := api.ExtractContentFile(filePath, outDir, nil, conf); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to extract PDF content, returning empty pages")
		// If extraction fails, return pages with empty text
		for pageNum := 1; pageNum <= pageCount; pageNum++ {
			pages = append(pages, interfaces.PDFPageContent{
				PageNumber: pageNum,
				Text:       "", // No text extracted
			})
		}
		return pages, nil
	}

	// Read extracted content files. pdfcpu names them
	// <basename>_Content_page_<n>.txt, so the page number is parsed from
	// the trailing page_<n> marker rather than a fixed prefix.
	files, _ := os.ReadDir(outDir)
	pageTexts := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		pageNum, ok := pageNumberFromFilename(file.Name())
		if !ok {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	// Build pages array
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text := pageTexts[pageNum]
		pages = append(pages, interfaces.PDFPageContent{
			PageNumber: pageNum,
			Text:       text,
		})
	}

	return pages, nil
}

// pageNumberFromFilename parses the page number from an extracted content
// filename carrying a page_<n> marker before the extension.
func pageNumberFromFilename(name string) (int, bool) {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	idx := strings.LastIndex(name, "page_")
	if idx < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(name[idx+len("page_"):])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// GetMetadata retrieves PDF metadata without extracting text content.
func (e *Extractor) GetMetadata(ctx context.Context, filePath string) (*interfaces.PDFMetadata, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF file: %w", err)
	}

	// Read PDF context
	pdfCtx, err := api.ReadContextFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	metadata := &interfaces.PDFMetadata{
		PageCount:   pdfCtx.PageCount,
		FileSize:    info.Size(),
		IsEncrypted: pdfCtx.Encrypt != nil,
	}

	e.logger.Debug().
		Int("page_count", metadata.PageCount).
		Int64("file_size", metadata.FileSize).
		Bool("encrypted", metadata.IsEncrypted).
		Msg("Extracted PDF metadata")

	return metadata, nil
}
