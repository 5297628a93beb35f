// -----------------------------------------------------------------------
// Auth Service - Bearer credential validation for protected endpoints
// -----------------------------------------------------------------------

package auth

import (
	"crypto/subtle"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
)

// Service validates the bearer credential presented on protected
// endpoints. The expected value is held as the full header string so a
// single constant-time comparison covers scheme and token together.
type Service struct {
	expected   []byte
	configured bool
	logger     arbor.ILogger
}

// NewService creates a new auth service from the configured token
func NewService(cfg *common.Config, logger arbor.ILogger) *Service {
	if cfg.Auth.Token == "" {
		logger.Warn().Msg("API auth token is not configured")
	}

	return &Service{
		expected:   []byte("Bearer " + cfg.Auth.Token),
		configured: cfg.Auth.Token != "",
		logger:     logger,
	}
}

// Configured reports whether a non-empty token was provided.
func (s *Service) Configured() bool {
	return s.configured
}

// ValidateBearer reports whether the raw Authorization header matches the
// configured credential. A missing header is indistinguishable from a
// mismatched one, and the configured token never appears in logs or
// responses.
func (s *Service) ValidateBearer(authorization string) bool {
	return subtle.ConstantTimeCompare([]byte(authorization), s.expected) == 1
}
