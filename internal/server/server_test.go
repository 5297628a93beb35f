package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/app"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/models"
)

// newTestServer wires a full application without an LLM key or audit
// store, which is the degraded-but-serving startup mode.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Auth.Token = "test-token"
	cfg.Gemini.APIKey = ""
	cfg.Storage.AuditEnabled = false
	cfg.Janitor.Enabled = false
	cfg.Documents.TempDir = t.TempDir()

	application, err := app.New(cfg, arbor.NewLogger())
	if err != nil {
		t.Fatalf("Failed to initialize application: %v", err)
	}
	t.Cleanup(func() { application.Close() })

	return New(application)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp.Detail
}

func TestServer_Root(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["api_key_configured"] != false {
		t.Errorf("Expected api_key_configured false, got %v", body["api_key_configured"])
	}
	if body["provider"] != "gemini" {
		t.Errorf("Expected provider gemini, got %v", body["provider"])
	}
}

func TestServer_RunWithoutLLM(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/v1/run",
		strings.NewReader(`{"documents": "https://example.com/doc.pdf", "questions": ["q"]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := serve(s, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}
	if detail := detailOf(t, rec); detail != "Internal server error: LLM service is not available" {
		t.Errorf("Unexpected detail: %q", detail)
	}
}

func TestServer_RunUnauthorized(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/v1/run", strings.NewReader(`{"questions": ["q"]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(s, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", rec.Code)
	}
	if detail := detailOf(t, rec); detail != "Unauthorized" {
		t.Errorf("Unexpected detail: %q", detail)
	}
}

func TestServer_RunValidationBeforePipelineGuard(t *testing.T) {
	s := newTestServer(t)

	// Bad input gets its 400 even while the pipeline is unavailable
	req := httptest.NewRequest("POST", "/api/v1/run",
		strings.NewReader(`{"documents": "https://example.com/doc.pdf", "questions": []}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := serve(s, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	if detail := detailOf(t, rec); detail != "Questions must be provided as a non-empty list" {
		t.Errorf("Unexpected detail: %q", detail)
	}
}

func TestServer_TestEcho(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/v1/test", strings.NewReader(`{"ping": true}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "test_successful" {
		t.Errorf("Expected test_successful, got %v", body["status"])
	}
}

func TestServer_AuditWithNullLogger(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/audit", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := serve(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["count"] != float64(0) {
		t.Errorf("Expected empty audit trail, got %v", body["count"])
	}
}

func TestServer_UnknownAPIRoute(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest("GET", "/api/v1/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	if detail := detailOf(t, rec); detail != "Not Found" {
		t.Errorf("Unexpected detail: %q", detail)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest("OPTIONS", "/api/v1/run", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("Expected preflight methods header")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	s := &Server{app: &app.App{Logger: arbor.NewLogger()}}

	handler := s.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}
	if detail := detailOf(t, rec); detail != "Internal server error: boom" {
		t.Errorf("Unexpected detail: %q", detail)
	}
}
