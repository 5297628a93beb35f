// -----------------------------------------------------------------------
// Document Loader Service - Resolve uploads and URLs into text passages
// Handles fetch limits, format sniffing and temp file cleanup
// -----------------------------------------------------------------------

package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

const defaultMaxFetchSize = 50 * 1024 * 1024

// Service implements the DocumentLoader interface. It resolves a document
// source (upload or URL) into an ordered passage sequence, writing the raw
// bytes through a scoped temp file that is removed on every exit path.
type Service struct {
	pdfExtractor interfaces.PDFExtractor
	client       *http.Client
	maxFetchSize int64
	tempDir      string
	logger       arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.DocumentLoader = (*Service)(nil)

// NewService creates a new document loader service
func NewService(cfg *common.Config, pdfExtractor interfaces.PDFExtractor, logger arbor.ILogger) *Service {
	tempDir := cfg.Documents.ResolveTempDir()
	os.MkdirAll(tempDir, 0755)

	maxFetchSize := cfg.Documents.MaxFetchSize
	if maxFetchSize <= 0 {
		maxFetchSize = defaultMaxFetchSize
	}

	fetchTimeout := common.ParseDurationOr(cfg.Documents.FetchTimeout, 60*time.Second)

	return &Service{
		pdfExtractor: pdfExtractor,
		client: &http.Client{
			Timeout: fetchTimeout,
		},
		maxFetchSize: maxFetchSize,
		tempDir:      tempDir,
		logger:       logger,
	}
}

// Load resolves the document source into extracted passages.
//
// The source check runs before any network or filesystem work so an
// unusable request never triggers a fetch. Failures are reported as typed
// errors carrying the user-facing detail message.
func (s *Service) Load(ctx context.Context, source *models.DocumentSource) (*models.Document, error) {
	switch {
	case source != nil && source.HasUpload():
		return s.loadFromUpload(ctx, source.Upload)

	case source != nil && source.HasValidURL():
		return s.loadFromURL(ctx, strings.TrimSpace(source.URL))

	default:
		return nil, &models.InvalidInputError{
			Detail: "No valid document provided. Provide either a file upload or a valid document URL.",
		}
	}
}

// loadFromUpload extracts passages from an uploaded file blob.
func (s *Service) loadFromUpload(ctx context.Context, upload *models.UploadedFile) (*models.Document, error) {
	startTime := time.Now()

	doc, err := s.loadFromBytes(ctx, upload.Data, upload.Name, "")
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("filename", upload.Name).
			Msg("Failed to load uploaded document")
		return nil, &models.DocumentError{
			Detail: fmt.Sprintf("Failed to read uploaded file: %v", err),
			Err:    err,
		}
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("filename", upload.Name).
		Str("format", string(doc.Format)).
		Int("passages", len(doc.Passages)).
		Dur("duration", time.Since(startTime)).
		Msg("Loaded document from upload")

	return doc, nil
}

// loadFromURL fetches the document and extracts passages.
func (s *Service) loadFromURL(ctx context.Context, rawURL string) (*models.Document, error) {
	startTime := time.Now()

	data, err := s.fetch(ctx, rawURL)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("url", rawURL).
			Msg("Failed to fetch document")
		return nil, &models.DocumentError{
			Detail: fmt.Sprintf("Failed to load document from URL: %v", err),
			Err:    err,
		}
	}

	doc, err := s.loadFromBytes(ctx, data, rawURL, rawURL)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("url", rawURL).
			Msg("Failed to load fetched document")
		return nil, &models.DocumentError{
			Detail: fmt.Sprintf("Failed to load document from URL: %v", err),
			Err:    err,
		}
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("url", rawURL).
		Str("format", string(doc.Format)).
		Int("passages", len(doc.Passages)).
		Int("bytes", len(data)).
		Dur("duration", time.Since(startTime)).
		Msg("Loaded document from URL")

	return doc, nil
}

// fetch retrieves the document bytes, enforcing the configured size limit.
func (s *Service) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid document URL: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	if resp.ContentLength > s.maxFetchSize {
		return nil, fmt.Errorf("document size %d exceeds limit of %d bytes", resp.ContentLength, s.maxFetchSize)
	}

	// Read one byte past the limit so truncated-at-limit and over-limit
	// responses are distinguishable
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxFetchSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > s.maxFetchSize {
		return nil, fmt.Errorf("document exceeds limit of %d bytes", s.maxFetchSize)
	}

	return data, nil
}

// loadFromBytes sniffs the content format, writes the bytes to a scoped
// temp file, and extracts passages. The temp file is removed on every
// exit path.
func (s *Service) loadFromBytes(ctx context.Context, data []byte, sourceName string, baseURL string) (*models.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	format := detectFormat(data, sourceName)

	tmpPath := filepath.Join(s.tempDir, fmt.Sprintf("doc_%s%s", uuid.New().String(), fileExtension(format)))
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp document file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", tmpPath).Msg("Failed to remove temp document file")
		}
	}()

	passages, err := s.extractPassages(ctx, tmpPath, data, format, baseURL)
	if err != nil {
		return nil, err
	}

	// Drop whitespace-only passages; page labels keep their original numbers
	extracted := make([]models.Passage, 0, len(passages))
	for _, passage := range passages {
		if strings.TrimSpace(passage.Text) != "" {
			extracted = append(extracted, passage)
		}
	}
	if len(extracted) == 0 {
		return nil, fmt.Errorf("no text content could be extracted from the document")
	}

	return &models.Document{
		ID:       common.NewDocumentID(),
		Format:   format,
		Source:   sourceName,
		Passages: extracted,
	}, nil
}

// extractPassages dispatches to the extractor for the sniffed format.
func (s *Service) extractPassages(ctx context.Context, tmpPath string, data []byte, format models.DocumentFormat, baseURL string) ([]models.Passage, error) {
	switch format {
	case models.FormatPDF:
		pages, err := s.pdfExtractor.ExtractPages(ctx, tmpPath)
		if err != nil {
			return nil, err
		}
		passages := make([]models.Passage, 0, len(pages))
		for _, page := range pages {
			passages = append(passages, models.Passage{
				PageLabel: strconv.Itoa(page.PageNumber),
				Text:      page.Text,
			})
		}
		return passages, nil

	case models.FormatHTML:
		text, err := htmlToText(string(data), baseURL, s.logger)
		if err != nil {
			return nil, err
		}
		return []models.Passage{{PageLabel: models.PageLabelNone, Text: text}}, nil

	default:
		return []models.Passage{{PageLabel: models.PageLabelNone, Text: string(data)}}, nil
	}
}

// detectFormat sniffs the document format from its leading bytes, falling
// back to the source name extension for HTML.
func detectFormat(data []byte, sourceName string) models.DocumentFormat {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return models.FormatPDF
	}

	head := strings.ToLower(string(data[:min(len(data), 512)]))
	if strings.Contains(head, "<!doctype html") || strings.Contains(head, "<html") {
		return models.FormatHTML
	}

	name := strings.ToLower(sourceName)
	// Strip query string from URLs before checking the extension
	if idx := strings.IndexAny(name, "?#"); idx >= 0 {
		name = name[:idx]
	}
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return models.FormatPDF
	case strings.HasSuffix(name, ".html"), strings.HasSuffix(name, ".htm"):
		return models.FormatHTML
	}

	return models.FormatText
}

// fileExtension returns the temp file suffix for a document format.
func fileExtension(format models.DocumentFormat) string {
	switch format {
	case models.FormatPDF:
		return ".pdf"
	case models.FormatHTML:
		return ".html"
	default:
		return ".txt"
	}
}
