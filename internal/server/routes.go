package server

import (
	"net/http"

	"github.com/ternarybob/responsum/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Liveness and configuration health
	mux.HandleFunc("/", s.app.HealthHandler.RootHandler)
	mux.HandleFunc("/health", s.app.HealthHandler.GetHealthHandler)

	// API routes - question answering
	mux.HandleFunc("/api/v1/run", s.app.RunHandler.RunHandler)   // POST - answer questions about one document
	mux.HandleFunc("/api/v1/test", s.app.RunHandler.TestHandler) // POST - request echo for connectivity checks

	// API routes - LLM audit trail
	mux.HandleFunc("/api/v1/audit", s.app.AuditHandler.GetAuditLogsHandler)
	mux.HandleFunc("/api/v1/audit/export", s.app.AuditHandler.ExportAuditLogsHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.notFoundHandler)

	return mux
}

// notFoundHandler returns the JSON error envelope for unknown API paths
func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	handlers.WriteDetail(w, http.StatusNotFound, "Not Found")
}
