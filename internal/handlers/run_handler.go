package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
	"github.com/ternarybob/responsum/internal/services/llm"
)

// maxMultipartMemory bounds how much of a multipart body is held in memory
// before parts spill to temporary files.
const maxMultipartMemory = 32 << 20

// RunHandler handles document question answering requests.
type RunHandler struct {
	qaService   interfaces.QAService
	authService BearerValidator
	config      *common.Config
	logger      arbor.ILogger
}

// NewRunHandler creates a new run handler.
func NewRunHandler(qaService interfaces.QAService, authService BearerValidator, config *common.Config, logger arbor.ILogger) *RunHandler {
	return &RunHandler{
		qaService:   qaService,
		authService: authService,
		config:      config,
		logger:      logger,
	}
}

// RunHandler handles POST /api/v1/run. The body is either a JSON object
// or a multipart form; both resolve to one document reference and a list
// of questions answered in order.
func (h *RunHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	if !RequireBearer(w, r, h.authService) {
		return
	}

	contentType := r.Header.Get("Content-Type")

	var source *models.DocumentSource
	var questions []string

	switch {
	case strings.Contains(contentType, "application/json"):
		src, qs, ok := h.parseJSONRequest(w, r)
		if !ok {
			return
		}
		source, questions = src, qs
	case strings.Contains(contentType, "multipart/form-data"):
		src, qs, ok := h.parseMultipartRequest(w, r)
		if !ok {
			return
		}
		source, questions = src, qs
	default:
		WriteDetail(w, http.StatusBadRequest, "Content-Type must be application/json or multipart/form-data")
		return
	}

	// The pipeline is absent when no LLM provider could be initialized;
	// requests still get full input validation above.
	if h.qaService == nil {
		WriteDetail(w, http.StatusInternalServerError, "Internal server error: LLM service is not available")
		return
	}

	response, err := h.qaService.Run(r.Context(), source, questions)
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, response)
}

// TestHandler handles POST /api/v1/test. It echoes the request body back
// with the active chat model so clients can verify connectivity without
// spending LLM quota.
func (h *RunHandler) TestHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var received interface{}
	if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
		WriteDetail(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, models.TestEchoResponse{
		ReceivedRequest: received,
		LLMModel:        llm.ChatModelName(h.config),
		Status:          "test_successful",
	})
}

// parseJSONRequest decodes a JSON run request. Returns false after writing
// an error response.
func (h *RunHandler) parseJSONRequest(w http.ResponseWriter, r *http.Request) (*models.DocumentSource, []string, bool) {
	var req models.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && strings.HasPrefix(typeErr.Field, "questions") {
			WriteDetail(w, http.StatusBadRequest, "Questions must be provided as a non-empty list")
			return nil, nil, false
		}
		if h.logger != nil {
			h.logger.Warn().Err(err).Msg("Failed to decode run request body")
		}
		WriteDetail(w, http.StatusInternalServerError, fmt.Sprintf("Internal server error: %v", err))
		return nil, nil, false
	}

	if err := req.Validate(); err != nil {
		WriteDetail(w, http.StatusBadRequest, "Questions must be provided as a non-empty list")
		return nil, nil, false
	}

	return &models.DocumentSource{URL: req.SourceURL()}, req.Questions, true
}

// parseMultipartRequest extracts the document reference and questions from
// a multipart form. Questions are validated before the file part is read so
// a bad question list never buffers an upload. Returns false after writing
// an error response.
func (h *RunHandler) parseMultipartRequest(w http.ResponseWriter, r *http.Request) (*models.DocumentSource, []string, bool) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		if h.logger != nil {
			h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		}
		WriteDetail(w, http.StatusInternalServerError, fmt.Sprintf("Internal server error: %v", err))
		return nil, nil, false
	}

	questions := parseQuestions(r.MultipartForm.Value)
	if len(questions) == 0 {
		WriteDetail(w, http.StatusBadRequest, "Questions must be provided as a non-empty list")
		return nil, nil, false
	}

	source := &models.DocumentSource{URL: strings.TrimSpace(r.FormValue("document_url"))}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			WriteDetail(w, http.StatusBadRequest, fmt.Sprintf("Failed to read uploaded file: %v", readErr))
			return nil, nil, false
		}
		source.Upload = &models.UploadedFile{Name: header.Filename, Data: data}
	case errors.Is(err, http.ErrMissingFile):
		// URL-only request
	default:
		WriteDetail(w, http.StatusBadRequest, fmt.Sprintf("Failed to read uploaded file: %v", err))
		return nil, nil, false
	}

	return source, questions, true
}

// writeRunError maps a run failure to its HTTP status. Input and document
// problems are client errors; index construction problems are server errors.
func (h *RunHandler) writeRunError(w http.ResponseWriter, err error) {
	var invalidInput *models.InvalidInputError
	var documentErr *models.DocumentError
	var indexErr *models.IndexError

	switch {
	case errors.As(err, &invalidInput):
		WriteDetail(w, http.StatusBadRequest, invalidInput.Detail)
	case errors.As(err, &documentErr):
		WriteDetail(w, http.StatusBadRequest, documentErr.Detail)
	case errors.As(err, &indexErr):
		WriteDetail(w, http.StatusInternalServerError, indexErr.Detail)
	default:
		if h.logger != nil {
			h.logger.Error().Err(err).Msg("Run failed with unexpected error")
		}
		WriteDetail(w, http.StatusInternalServerError, fmt.Sprintf("Internal server error: %v", err))
	}
}

// parseQuestions extracts the question list from multipart form values.
// A "questions" field holding a JSON array is used as-is; any other value
// in that field becomes a single question. Without that field, fields named
// question, question1, question2, ... are collected in numeric order.
func parseQuestions(values map[string][]string) []string {
	if raw := firstValue(values, "questions"); raw != "" {
		var parsed []string
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil && parsed != nil {
			return parsed
		}
		return []string{raw}
	}

	var keys []string
	for key := range values {
		if strings.HasPrefix(key, "question") {
			keys = append(keys, key)
		}
	}
	sortQuestionKeys(keys)

	var questions []string
	for _, key := range keys {
		if v := firstValue(values, key); v != "" {
			questions = append(questions, v)
		}
	}
	return questions
}

// sortQuestionKeys orders form keys numerically where they carry a numeric
// suffix, so question2 sorts before question10.
func sortQuestionKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		ni, iok := questionKeyNumber(keys[i])
		nj, jok := questionKeyNumber(keys[j])
		if iok && jok && ni != nj {
			return ni < nj
		}
		if iok != jok {
			return iok
		}
		return keys[i] < keys[j]
	})
}

// questionKeyNumber parses the numeric suffix of a question form key.
// A bare "question" key sorts first.
func questionKeyNumber(key string) (int, bool) {
	suffix := strings.TrimPrefix(key, "question")
	if suffix == "" {
		return 0, true
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstValue(values map[string][]string, key string) string {
	if vs, ok := values[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}
