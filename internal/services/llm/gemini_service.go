package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService implements the LLMService interface using Google Gemini.
// It provides embedding generation and chat completions. All outbound API
// calls are paced through a token-bucket limiter; no call is ever retried.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// convertMessagesToGemini converts []interfaces.Message to Gemini Content format.
// Maps Role values to provider's expected values and maintains chronological ordering.
// Extracts system messages separately for use with SystemInstruction.
// Returns the user/model messages, the first system message content (if any), and an error.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	// Check that at least one message has role "user"
	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	// Convert messages to Gemini format, excluding system messages
	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		// Handle system messages separately
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue // Don't add system messages to contents
		}

		// Map Role values to Gemini expected values
		var geminiRole string
		switch msg.Role {
		case "assistant":
			geminiRole = genai.RoleModel
		case "user":
			geminiRole = genai.RoleUser
		default:
			geminiRole = genai.RoleUser // Default to user for unknown roles
		}

		// Create content part from text
		part := genai.NewPartFromText(msg.Content)
		content := &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{part},
		}

		contents = append(contents, content)
	}

	return contents, systemText, nil
}

// NewGeminiService creates a new Gemini LLM service instance.
//
// The service initialization includes:
//  1. Resolving the Google API key from configuration
//  2. Setting default model names if not specified
//  3. Parsing timeout duration from configuration
//  4. Initializing the genai client used for both embedding and chat
//
// Parameters:
//   - config: Full application configuration
//   - logger: Structured logger for service operations
//
// Returns:
//   - *GeminiService: Initialized service ready for use
//   - error: nil on success, error with details on failure
//
// Errors:
//   - Missing or empty Google API key
//   - Invalid timeout duration
//   - Failed to initialize the genai client
func NewGeminiService(config *common.Config, logger arbor.ILogger) (*GeminiService, error) {
	if config.Gemini.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required for the Gemini service (set GOOGLE_API_KEY, GEMINI_API_KEY, or gemini.api_key in config)")
	}

	// Set default model names if not specified
	if config.Gemini.EmbeddingModel == "" {
		config.Gemini.EmbeddingModel = "text-embedding-004"
	}
	if config.Gemini.Model == "" {
		config.Gemini.Model = "gemini-2.0-flash"
	}
	if config.Gemini.EmbeddingDimensions <= 0 {
		config.Gemini.EmbeddingDimensions = 768
	}

	// Parse timeout duration
	timeout, err := time.ParseDuration(config.Gemini.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Gemini.Timeout, err)
	}

	// Initialize genai client
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	// Create service instance
	service := &GeminiService{
		config:  &config.Gemini, // Store only the Gemini config part
		logger:  logger,
		client:  client,
		timeout: timeout,
	}

	// RateLimit is requests per minute; zero disables pacing entirely
	if config.Gemini.RateLimit > 0 {
		perSecond := float64(config.Gemini.RateLimit) / 60.0
		service.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}

	logger.Info().
		Str("embed_model", config.Gemini.EmbeddingModel).
		Str("chat_model", config.Gemini.Model).
		Int("embed_dimension", config.Gemini.EmbeddingDimensions).
		Int("rate_limit_per_minute", config.Gemini.RateLimit).
		Dur("timeout", timeout).
		Msg("Gemini LLM service initialized successfully")

	return service, nil
}

// Embed generates an embedding vector for the given text.
//
// This method uses the configured embedding model with the configured
// output dimensionality. The embedding vector is used for semantic search
// over document chunks within a single request.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - text: Input text to generate embedding for
//
// Returns:
//   - []float32: Embedding vector with configured dimensionality
//   - error: nil on success, error with details on failure
//
// Errors:
//   - Context cancellation or timeout
//   - Empty or invalid input text
//   - API communication errors
//   - Unexpected response shape or dimension from the API
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	// Create timeout context
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("text_length", len(text)).
		Msg("Starting embedding generation")

	embedding, err := s.generateEmbedding(timeoutCtx, text)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("text_length", len(text)).
			Msg("Embedding generation failed")
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	duration := time.Since(startTime)
	s.logger.Debug().
		Int("text_length", len(text)).
		Int("embedding_dim", len(embedding)).
		Dur("duration", duration).
		Msg("Embedding generation completed successfully")

	return embedding, nil
}

// Chat generates a completion response based on the conversation history.
//
// This method uses the configured chat model. The messages slice should
// contain the full conversation context in chronological order, including
// system prompts, user messages, and previous assistant responses.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - messages: Conversation history in chronological order
//
// Returns:
//   - string: Generated assistant response
//   - error: nil on success, error with details on failure
//
// Errors:
//   - Context cancellation or timeout
//   - Empty or invalid message history
//   - API communication errors
//   - Empty response from the chat model
func (s *GeminiService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	// Create timeout context
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("message_count", len(messages)).
		Msg("Starting chat completion")

	response, err := s.generateCompletion(timeoutCtx, messages)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("Chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	duration := time.Since(startTime)
	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(response)).
		Dur("duration", duration).
		Msg("Chat completion completed successfully")

	return response, nil
}

// HealthCheck verifies the LLM service is operational and can handle requests.
//
// The health check validates that the genai client is properly initialized
// and performs lightweight connectivity probes against both the embedding
// and chat models with short timeouts.
//
// Parameters:
//   - ctx: Context for cancellation control
//
// Returns:
//   - nil if service is healthy (operational)
//   - error with details if service is unhealthy (API issues, auth problems, etc.)
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	s.logger.Debug().Msg("Running Gemini LLM service health check")

	// Verify client is initialized
	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	// Perform lightweight connectivity probes with short timeouts
	if err := s.performEmbeddingHealthCheck(ctx); err != nil {
		s.logger.Error().
			Err(err).
			Msg("Embedding model health check failed")
		return fmt.Errorf("embedding model health check failed: %w", err)
	}

	if err := s.performChatHealthCheck(ctx); err != nil {
		s.logger.Error().
			Err(err).
			Msg("Chat model health check failed")
		return fmt.Errorf("chat model health check failed: %w", err)
	}

	s.logger.Info().
		Str("embed_model", s.config.EmbeddingModel).
		Str("chat_model", s.config.Model).
		Msg("Gemini LLM service health check passed")

	return nil
}

// performEmbeddingHealthCheck exercises the embedding model with a lightweight probe.
// Uses a longer timeout to avoid false negatives and logs detailed failures.
func (s *GeminiService) performEmbeddingHealthCheck(ctx context.Context) error {
	// Create timeout context for health check (increased to 5s to avoid false negatives)
	healthCheckCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Use a simple, static string for the probe
	testText := "health check probe"

	// Generate embedding and immediately discard the result
	embedding, err := s.generateEmbedding(healthCheckCtx, testText)
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}

	// Validate that we got a non-empty embedding vector
	if len(embedding) == 0 {
		return fmt.Errorf("embedding probe returned empty vector")
	}

	s.logger.Debug().
		Int("embedding_dim", len(embedding)).
		Msg("Embedding model health check passed")

	return nil
}

// performChatHealthCheck exercises the chat model with a minimal probe.
// Uses a longer timeout to avoid false negatives and logs detailed failures.
func (s *GeminiService) performChatHealthCheck(ctx context.Context) error {
	// Create timeout context for health check (increased to 5s to avoid false negatives)
	healthCheckCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Create minimal test message for the probe
	testMessages := []interfaces.Message{
		{
			Role:    "user",
			Content: "ping",
		},
	}

	// Generate response and ensure it's non-empty
	response, err := s.generateCompletion(healthCheckCtx, testMessages)
	if err != nil {
		return fmt.Errorf("chat probe failed: %w", err)
	}

	// Validate that we got a non-empty response
	if len(strings.TrimSpace(response)) == 0 {
		return fmt.Errorf("chat probe returned empty response")
	}

	s.logger.Debug().
		Int("response_length", len(response)).
		Msg("Chat model health check passed")

	return nil
}

// GetMode returns the current operational mode of the LLM service.
//
// Since this implementation uses Google cloud APIs, it returns
// LLMModeCloud to indicate cloud-based service usage.
//
// Returns:
//   - interfaces.LLMModeCloud: Indicating cloud-based service
func (s *GeminiService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}

// Close releases resources and performs cleanup operations.
//
// This method sets the client reference to nil, allowing the garbage
// collector to reclaim memory. The genai.Client doesn't require
// explicit resource cleanup beyond this reference clearing.
//
// Returns:
//   - nil: Always returns nil as no cleanup errors are expected
func (s *GeminiService) Close() error {
	s.logger.Info().Msg("Closing Gemini LLM service")

	// Clear client reference (genai.Client doesn't require explicit Close)
	s.client = nil

	return nil
}

// waitForSlot blocks until the rate limiter grants a request slot. Pacing
// is proactive only; a request that fails after its slot is never re-run.
func (s *GeminiService) waitForSlot(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait interrupted: %w", err)
	}
	return nil
}

// generateEmbedding is a helper method that encapsulates the embedding
// generation call using the configured model and output dimensionality.
//
// Parameters:
//   - ctx: Context for timeout and cancellation
//   - text: Text to generate embedding for
//
// Returns:
//   - []float32: embedding vector with configured dimensionality
//   - error: nil on success, error on failure
func (s *GeminiService) generateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := s.waitForSlot(ctx); err != nil {
		return nil, err
	}

	// Configure embedding with output dimensionality
	outputDim := int32(s.config.EmbeddingDimensions)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	// Generate embedding using the genai client
	result, err := s.client.Models.EmbedContent(ctx, s.config.EmbeddingModel, []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, embeddingConfig)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	// Extract embedding vector from response
	var embedding []float32
	if result != nil && len(result.Embeddings) > 0 {
		embedding = result.Embeddings[0].Values
	}

	if embedding == nil {
		return nil, fmt.Errorf("no embedding returned from API")
	}

	// Validate embedding dimension
	if len(embedding) != s.config.EmbeddingDimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.config.EmbeddingDimensions, len(embedding))
	}

	return embedding, nil
}

// generateCompletion is a helper method that encapsulates the chat
// completion call using the configured Gemini model.
//
// Parameters:
//   - ctx: Context for timeout and cancellation
//   - messages: Conversation history to process
//
// Returns:
//   - string: Generated response text
//   - error: nil on success, error on failure
func (s *GeminiService) generateCompletion(ctx context.Context, messages []interfaces.Message) (string, error) {
	if err := s.waitForSlot(ctx); err != nil {
		return "", err
	}

	// Convert interfaces.Message to Gemini format
	geminiContents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Gemini format: %w", err)
	}

	// Create GenerateContentConfig with temperature and system instruction
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}

	// Set SystemInstruction if system message exists
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	// Generate completion using direct GenerateContent call
	resp, err := s.client.Models.GenerateContent(ctx, s.config.Model, geminiContents, config)
	if err != nil {
		return "", fmt.Errorf("chat generation failed: %w", err)
	}

	// Extract text from response - iterate candidates until non-empty text is found
	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		// Try each candidate until we find one with non-empty text
		for _, candidate := range resp.Candidates {
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			// If we found text in this candidate, use it
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from chat model")
	}

	return response.String(), nil
}
