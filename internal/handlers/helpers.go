package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/responsum/internal/models"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteDetail writes the standard API error envelope: {"detail": "<message>"}.
func WriteDetail(w http.ResponseWriter, statusCode int, detail string) error {
	return WriteJSON(w, statusCode, models.ErrorResponse{Detail: detail})
}

// BearerValidator interface for services that validate API credentials.
type BearerValidator interface {
	ValidateBearer(authorization string) bool
}

// RequireBearer checks the Authorization header on a protected endpoint.
// Returns true if the credential is valid, false otherwise (and writes error
// response). A missing header is rejected the same way as a mismatched token.
func RequireBearer(w http.ResponseWriter, r *http.Request, authService BearerValidator) bool {
	if authService == nil || !authService.ValidateBearer(r.Header.Get("Authorization")) {
		WriteDetail(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	return true
}
