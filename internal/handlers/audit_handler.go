package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsum/internal/services/llm"
)

// defaultAuditLimit caps how many entries a plain audit query returns.
const defaultAuditLimit = 100

// AuditHandler exposes the LLM call audit trail.
type AuditHandler struct {
	auditLogger llm.AuditLogger
	authService BearerValidator
	logger      arbor.ILogger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(auditLogger llm.AuditLogger, authService BearerValidator, logger arbor.ILogger) *AuditHandler {
	return &AuditHandler{
		auditLogger: auditLogger,
		authService: authService,
		logger:      logger,
	}
}

// GetAuditLogsHandler handles GET /api/v1/audit. Entries are returned
// newest first; ?limit=N overrides the default cap.
func (h *AuditHandler) GetAuditLogsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if !RequireBearer(w, r, h.authService) {
		return
	}

	limit := defaultAuditLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := h.auditLogger.GetLogs(limit)
	if err != nil {
		if h.logger != nil {
			h.logger.Error().Err(err).Msg("Failed to read audit logs")
		}
		WriteDetail(w, http.StatusInternalServerError, "Failed to read audit logs")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

// ExportAuditLogsHandler handles GET /api/v1/audit/export, streaming the
// full audit trail as a JSON array in chronological order.
func (h *AuditHandler) ExportAuditLogsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if !RequireBearer(w, r, h.authService) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=audit_logs.json")

	if err := h.auditLogger.ExportToJSON(w); err != nil {
		if h.logger != nil {
			h.logger.Error().Err(err).Msg("Failed to export audit logs")
		}
	}
}
