package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
)

// OpenAIService provides chat completions through the OpenAI API or any
// OpenAI-compatible endpoint (Groq, Azure, local gateways) selected via
// the base URL. Embeddings are not served here; the factory pairs this
// service with the Gemini embedder.
type OpenAIService struct {
	config      *common.OpenAIConfig
	logger      arbor.ILogger
	client      openai.Client
	initialized bool
	timeout     time.Duration
}

// convertMessagesToOpenAI converts []interfaces.Message to the OpenAI
// chat completion message format, preserving chronological ordering.
func convertMessagesToOpenAI(messages []interfaces.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("messages cannot be empty")
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
		return nil, fmt.Errorf("at least one message must have role 'user'")
	}

	openaiMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			openaiMessages = append(openaiMessages, openai.SystemMessage(msg.Content))
		case "assistant":
			openaiMessages = append(openaiMessages, openai.AssistantMessage(msg.Content))
		case "user":
			openaiMessages = append(openaiMessages, openai.UserMessage(msg.Content))
		default:
			// Default to user for unknown roles
			openaiMessages = append(openaiMessages, openai.UserMessage(msg.Content))
		}
	}

	return openaiMessages, nil
}

// NewOpenAIService creates a new OpenAI-compatible LLM service instance.
//
// Parameters:
//   - openaiConfig: OpenAI configuration with API key, base URL and model settings
//   - logger: Structured logger for service operations
//
// Returns:
//   - *OpenAIService: Initialized service ready for use
//   - error: nil on success, error with details on failure
func NewOpenAIService(openaiConfig *common.OpenAIConfig, logger arbor.ILogger) (*OpenAIService, error) {
	if openaiConfig.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for the OpenAI service (set OPENAI_API_KEY or openai.api_key in config)")
	}

	// Set default model name if not specified
	if openaiConfig.Model == "" {
		openaiConfig.Model = "llama-3.1-8b-instant"
	}

	// Parse timeout duration
	timeout, err := time.ParseDuration(openaiConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", openaiConfig.Timeout, err)
	}

	// Initialize OpenAI client, pointing at the configured base URL when
	// a compatible endpoint is in use
	opts := []option.RequestOption{
		option.WithAPIKey(openaiConfig.APIKey),
	}
	if openaiConfig.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(openaiConfig.BaseURL))
	}
	client := openai.NewClient(opts...)

	service := &OpenAIService{
		config:      openaiConfig,
		logger:      logger,
		client:      client,
		initialized: true,
		timeout:     timeout,
	}

	logger.Debug().
		Str("model", openaiConfig.Model).
		Str("base_url", openaiConfig.BaseURL).
		Dur("timeout", timeout).
		Float32("temperature", openaiConfig.Temperature).
		Msg("OpenAI LLM service initialized successfully")

	return service, nil
}

// Chat generates a completion response based on the conversation history.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - messages: Conversation history in chronological order
//
// Returns:
//   - string: Generated assistant response
//   - error: nil on success, error with details on failure
func (s *OpenAIService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	// Create timeout context
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("message_count", len(messages)).
		Msg("Starting OpenAI chat completion")

	response, err := s.generateCompletion(timeoutCtx, messages)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("OpenAI chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	duration := time.Since(startTime)
	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(response)).
		Dur("duration", duration).
		Msg("OpenAI chat completion completed successfully")

	return response, nil
}

// HealthCheck verifies the OpenAI service is operational and can handle requests.
//
// Parameters:
//   - ctx: Context for cancellation control
//
// Returns:
//   - nil if service is healthy (operational)
//   - error with details if service is unhealthy
func (s *OpenAIService) HealthCheck(ctx context.Context) error {
	s.logger.Debug().Msg("Running OpenAI LLM service health check")

	if !s.initialized {
		return fmt.Errorf("OpenAI client is not initialized")
	}

	if err := s.performHealthCheck(ctx); err != nil {
		return fmt.Errorf("OpenAI health check failed: %w", err)
	}

	s.logger.Debug().
		Str("model", s.config.Model).
		Msg("OpenAI LLM service health check passed")

	return nil
}

// performHealthCheck exercises the chat completion endpoint with a minimal probe.
func (s *OpenAIService) performHealthCheck(ctx context.Context) error {
	// Create timeout context for health check
	healthCheckCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	testMessages := []interfaces.Message{
		{
			Role:    "user",
			Content: "ping",
		},
	}

	response, err := s.generateCompletion(healthCheckCtx, testMessages)
	if err != nil {
		return fmt.Errorf("OpenAI probe failed: %w", err)
	}

	if len(strings.TrimSpace(response)) == 0 {
		return fmt.Errorf("OpenAI probe returned empty response")
	}

	s.logger.Debug().
		Int("response_length", len(response)).
		Msg("OpenAI health check passed")

	return nil
}

// GetMode returns the current operational mode of the LLM service.
//
// Returns:
//   - interfaces.LLMModeCloud: Indicating cloud-based service
func (s *OpenAIService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}

// Close releases resources and performs cleanup operations.
//
// Returns:
//   - nil: Always returns nil as no cleanup errors are expected
func (s *OpenAIService) Close() error {
	s.logger.Debug().Msg("Closing OpenAI LLM service")
	// OpenAI client doesn't require explicit cleanup
	s.client = openai.Client{}
	s.initialized = false
	return nil
}

// generateCompletion is a helper method that encapsulates the OpenAI API
// chat completion logic.
func (s *OpenAIService) generateCompletion(ctx context.Context, messages []interfaces.Message) (string, error) {
	openaiMessages, err := convertMessagesToOpenAI(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to OpenAI format: %w", err)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(s.config.Model),
		Messages: openaiMessages,
	}

	// Set temperature if configured
	if s.config.Temperature > 0 {
		params.Temperature = openai.Float(float64(s.config.Temperature))
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response generated from OpenAI API")
	}

	response := resp.Choices[0].Message.Content
	if strings.TrimSpace(response) == "" {
		return "", fmt.Errorf("no response generated from OpenAI API")
	}

	return response, nil
}
