package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// chatProvider is the subset of LLMService a chat backend implements.
type chatProvider interface {
	Chat(ctx context.Context, messages []interfaces.Message) (string, error)
	HealthCheck(ctx context.Context) error
	GetMode() interfaces.LLMMode
	Close() error
}

// Service pairs the Gemini embedder with the configured chat provider behind
// the single LLMService interface. Embeddings always go through Gemini;
// chat completions go through the provider selected in configuration.
type Service struct {
	embedder *GeminiService
	chatter  chatProvider
	shared   bool
	logger   arbor.ILogger
}

// NewLLMService creates the appropriate LLM service implementation based on configuration
func NewLLMService(
	cfg *common.Config,
	store *badgerhold.Store,
	logger arbor.ILogger,
) (interfaces.LLMService, AuditLogger, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	// Validate provider selection
	provider := cfg.LLM.Provider
	if provider == "" {
		provider = common.LLMProviderGemini
	}
	switch provider {
	case common.LLMProviderGemini, common.LLMProviderClaude, common.LLMProviderOpenAI:
	default:
		return nil, nil, fmt.Errorf("invalid LLM provider '%s': must be 'gemini', 'claude' or 'openai'", provider)
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing LLM service")

	// Create audit logger from storage and audit config
	var auditLogger AuditLogger
	if cfg.Storage.AuditEnabled && store != nil {
		auditLogger = NewBadgerAuditLogger(store, cfg.Storage.AuditLogQueries, logger)
	} else {
		auditLogger = NewNullAuditLogger()
	}

	// Gemini always serves embeddings
	embedder, err := NewGeminiService(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Gemini service: %w", err)
	}

	// Select the chat provider; Gemini doubles as the chat backend unless
	// Claude or an OpenAI-compatible endpoint is configured
	var chatter chatProvider = embedder
	shared := true
	switch provider {
	case common.LLMProviderClaude:
		claude, err := NewClaudeService(&cfg.Claude, logger)
		if err != nil {
			embedder.Close()
			return nil, nil, fmt.Errorf("failed to create Claude service: %w", err)
		}
		chatter = claude
		shared = false

	case common.LLMProviderOpenAI:
		oai, err := NewOpenAIService(&cfg.OpenAI, logger)
		if err != nil {
			embedder.Close()
			return nil, nil, fmt.Errorf("failed to create OpenAI service: %w", err)
		}
		chatter = oai
		shared = false
	}

	service := &Service{
		embedder: embedder,
		chatter:  chatter,
		shared:   shared,
		logger:   logger,
	}

	return service, auditLogger, nil
}

// ChatModelName returns the chat model the configured provider will use.
// Defaults applied during service construction are visible here because the
// provider constructors resolve them onto the shared config.
func ChatModelName(cfg *common.Config) string {
	switch cfg.LLM.Provider {
	case common.LLMProviderClaude:
		return cfg.Claude.Model
	case common.LLMProviderOpenAI:
		return cfg.OpenAI.Model
	default:
		return cfg.Gemini.Model
	}
}

// Embed generates a vector embedding for the provided text
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.Embed(ctx, text)
}

// Chat generates a completion response based on the conversation history
func (s *Service) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return s.chatter.Chat(ctx, messages)
}

// HealthCheck verifies both the embedding backend and the chat backend
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.shared {
		return s.embedder.HealthCheck(ctx)
	}

	if err := s.embedder.performEmbeddingHealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check failed: %w", err)
	}

	return s.chatter.HealthCheck(ctx)
}

// GetMode returns the current operational mode of the LLM service
func (s *Service) GetMode() interfaces.LLMMode {
	return s.chatter.GetMode()
}

// Close releases both backends
func (s *Service) Close() error {
	var firstErr error
	if err := s.embedder.Close(); err != nil {
		firstErr = err
	}
	if !s.shared {
		if err := s.chatter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
