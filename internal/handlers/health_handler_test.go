package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/responsum/internal/common"
)

func newHealthHandler(apiKey string) *HealthHandler {
	cfg := common.NewDefaultConfig()
	cfg.Gemini.APIKey = apiKey
	return NewHealthHandler(cfg, nil)
}

func TestRootHandler(t *testing.T) {
	handler := newHealthHandler("")

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.RootHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["message"] != "Responsum document Q&A service is running" {
		t.Errorf("Unexpected message: %v", response["message"])
	}
}

func TestRootHandler_UnknownPath(t *testing.T) {
	handler := newHealthHandler("")

	req := httptest.NewRequest("GET", "/nope", nil)
	rec := httptest.NewRecorder()
	handler.RootHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	if detail := decodeDetail(t, rec); detail != "Not Found" {
		t.Errorf("Expected detail 'Not Found', got %q", detail)
	}
}

func TestRootHandler_MethodNotAllowed(t *testing.T) {
	handler := newHealthHandler("")

	req := httptest.NewRequest("POST", "/", nil)
	rec := httptest.NewRecorder()
	handler.RootHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestGetHealthHandler(t *testing.T) {
	tests := []struct {
		name          string
		apiKey        string
		keyConfigured bool
	}{
		{"With API key", "test-key", true},
		{"Without API key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newHealthHandler(tt.apiKey)

			req := httptest.NewRequest("GET", "/health", nil)
			rec := httptest.NewRecorder()
			handler.GetHealthHandler(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rec.Code)
			}

			var response map[string]interface{}
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response["status"] != "healthy" {
				t.Errorf("Expected status 'healthy', got %v", response["status"])
			}
			if response["api_key_configured"] != tt.keyConfigured {
				t.Errorf("Expected api_key_configured %v, got %v", tt.keyConfigured, response["api_key_configured"])
			}
			if response["provider"] == "" {
				t.Error("Expected provider to be populated")
			}
			if response["llm_model"] == "" {
				t.Error("Expected llm_model to be populated")
			}
			if response["embedding_model"] == "" {
				t.Error("Expected embedding_model to be populated")
			}
			// The health payload must never leak the key itself
			if _, hasKey := response["api_key"]; hasKey {
				t.Error("Health response must not include key material")
			}
		})
	}
}
