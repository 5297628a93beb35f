package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/services/llm"
)

// HealthHandler serves the liveness banner and the configuration health report.
type HealthHandler struct {
	config *common.Config
	logger arbor.ILogger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(config *common.Config, logger arbor.ILogger) *HealthHandler {
	return &HealthHandler{
		config: config,
		logger: logger,
	}
}

// RootHandler handles GET / with a minimal liveness message.
func (h *HealthHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Responsum document Q&A service is running",
		"status":  "healthy",
	})
}

// GetHealthHandler handles GET /health. The report names the configured
// models and whether an API key is present; it never includes key material.
func (h *HealthHandler) GetHealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "healthy",
		"provider":           string(h.config.LLM.Provider),
		"api_key_configured": h.config.Gemini.APIKey != "",
		"llm_model":          llm.ChatModelName(h.config),
		"embedding_model":    h.config.Gemini.EmbeddingModel,
	})
}
