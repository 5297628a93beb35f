package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment" yaml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server" yaml:"server"`
	Logging     LoggingConfig   `toml:"logging" yaml:"logging"`
	Auth        AuthConfig      `toml:"auth" yaml:"auth"`
	LLM         LLMConfig       `toml:"llm" yaml:"llm"`
	Gemini      GeminiConfig    `toml:"gemini" yaml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude" yaml:"claude"`
	OpenAI      OpenAIConfig    `toml:"openai" yaml:"openai"`
	Documents   DocumentsConfig `toml:"documents" yaml:"documents"`
	Index       IndexConfig     `toml:"index" yaml:"index"`
	Answers     AnswersConfig   `toml:"answers" yaml:"answers"`
	Storage     StorageConfig   `toml:"storage" yaml:"storage"`
	Janitor     JanitorConfig   `toml:"janitor" yaml:"janitor"`
}

type ServerConfig struct {
	Port int    `toml:"port" yaml:"port"`
	Host string `toml:"host" yaml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" yaml:"level"`             // "debug", "info", "warn", "error"
	Format     string   `toml:"format" yaml:"format"`           // "json" or "text"
	Output     []string `toml:"output" yaml:"output"`           // "console", "file"
	FilePath   string   `toml:"file_path" yaml:"file_path"`     // Log file location when "file" output is enabled
	TimeFormat string   `toml:"time_format" yaml:"time_format"` // Time format for logs (default: "15:04:05")
}

// AuthConfig contains the API bearer token configuration
type AuthConfig struct {
	Token string `toml:"token" yaml:"token"` // Bearer token required on /api/v1 endpoints (RESPONSUM_AUTH_TOKEN or API_AUTH_TOKEN)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderOpenAI uses an OpenAI-compatible API (OpenAI, Groq, local gateways)
	LLMProviderOpenAI LLMProvider = "openai"
)

// LLMConfig selects the chat provider. Embeddings always use Gemini.
type LLMConfig struct {
	Provider LLMProvider `toml:"provider" yaml:"provider"` // "gemini", "claude", or "openai" (default: "gemini")
}

// GeminiConfig contains Google Gemini API configuration.
// Gemini serves all embedding operations and is the default chat provider.
type GeminiConfig struct {
	APIKey              string  `toml:"api_key" yaml:"api_key"`                           // API key (RESPONSUM_GEMINI_API_KEY, GEMINI_API_KEY, or GOOGLE_API_KEY)
	Model               string  `toml:"model" yaml:"model"`                               // Chat model (default: "gemini-2.0-flash")
	EmbeddingModel      string  `toml:"embedding_model" yaml:"embedding_model"`           // Embedding model (default: "text-embedding-004")
	EmbeddingDimensions int     `toml:"embedding_dimensions" yaml:"embedding_dimensions"` // Output dimensionality (default: 768)
	Temperature         float32 `toml:"temperature" yaml:"temperature"`                   // Completion temperature (default: 0.1)
	Timeout             string  `toml:"timeout" yaml:"timeout"`                           // Per-call timeout as duration string (default: "60s")
	RateLimit           int     `toml:"rate_limit" yaml:"rate_limit"`                     // Requests per minute pacing, 0 disables (default: 60)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key" yaml:"api_key"`         // API key (RESPONSUM_CLAUDE_API_KEY or ANTHROPIC_API_KEY)
	Model       string  `toml:"model" yaml:"model"`             // Chat model (default: "claude-sonnet-4-20250514")
	MaxTokens   int     `toml:"max_tokens" yaml:"max_tokens"`   // Maximum tokens in response (default: 8192)
	Temperature float32 `toml:"temperature" yaml:"temperature"` // Completion temperature (default: 0.1)
	Timeout     string  `toml:"timeout" yaml:"timeout"`         // Per-call timeout as duration string (default: "60s")
}

// OpenAIConfig contains OpenAI-compatible API configuration.
// A non-empty BaseURL points the client at Groq or another compatible gateway.
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key" yaml:"api_key"`         // API key (RESPONSUM_OPENAI_API_KEY, OPENAI_API_KEY, or GROQ_API_KEY)
	BaseURL     string  `toml:"base_url" yaml:"base_url"`       // e.g. "https://api.groq.com/openai/v1"; empty means api.openai.com
	Model       string  `toml:"model" yaml:"model"`             // Chat model (default: "llama-3.1-8b-instant")
	Temperature float32 `toml:"temperature" yaml:"temperature"` // Completion temperature (default: 0.1)
	Timeout     string  `toml:"timeout" yaml:"timeout"`         // Per-call timeout as duration string (default: "60s")
}

// DocumentsConfig controls document fetching and temporary storage
type DocumentsConfig struct {
	TempDir      string `toml:"temp_dir" yaml:"temp_dir"`             // Scratch directory for fetched documents (default: <os temp>/responsum-docs)
	MaxFetchSize int64  `toml:"max_fetch_size" yaml:"max_fetch_size"` // Maximum document size in bytes (default: 50MB)
	FetchTimeout string `toml:"fetch_timeout" yaml:"fetch_timeout"`   // HTTP fetch timeout as duration string (default: "30s")
}

// IndexConfig controls passage chunking for the request-scoped retrieval index
type IndexConfig struct {
	ChunkSize    int `toml:"chunk_size" yaml:"chunk_size"`       // Target chunk size in characters (default: 1024)
	ChunkOverlap int `toml:"chunk_overlap" yaml:"chunk_overlap"` // Overlap between adjacent chunks in characters (default: 200)
}

// AnswersConfig controls answer generation behavior
type AnswersConfig struct {
	TopK           int  `toml:"top_k" yaml:"top_k"`                     // Passages retrieved per question (default: 3)
	IncludeSources bool `toml:"include_sources" yaml:"include_sources"` // Append a "Sources and Rationale" block to each answer
}

// StorageConfig contains the embedded store configuration
type StorageConfig struct {
	Path            string `toml:"path" yaml:"path"`                           // Database directory path
	AuditEnabled    bool   `toml:"audit_enabled" yaml:"audit_enabled"`         // Persist LLM operation audit entries
	AuditLogQueries bool   `toml:"audit_log_queries" yaml:"audit_log_queries"` // Include query text in audit entries
	ResetOnStartup  bool   `toml:"reset_on_startup" yaml:"reset_on_startup"`   // Delete database on startup for clean test runs
}

// JanitorConfig controls the scheduled sweep of orphaned temp documents
type JanitorConfig struct {
	Enabled  bool   `toml:"enabled" yaml:"enabled"`
	Schedule string `toml:"schedule" yaml:"schedule"` // Cron schedule (default: "@every 10m")
	MaxAge   string `toml:"max_age" yaml:"max_age"`   // Age threshold as duration string (default: "1h")
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings should be exposed in responsum.toml; technical
// parameters are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8060,
			Host: "0.0.0.0",
		},
		Logging: LoggingConfig{
			Level:      "info",                        // Info level for production (debug|info|warn|error)
			Format:     "text",                        // Human-readable text format (text|json)
			Output:     []string{"console", "file"},   // Log to both console and file
			FilePath:   filepath.Join("logs", "responsum.log"),
			TimeFormat: "15:04:05",
		},
		Auth: AuthConfig{
			Token: "", // User must provide a token (no fallback)
		},
		LLM: LLMConfig{
			Provider: LLMProviderGemini,
		},
		Gemini: GeminiConfig{
			APIKey:              "", // User must provide API key (no fallback)
			Model:               "gemini-2.0-flash",
			EmbeddingModel:      "text-embedding-004",
			EmbeddingDimensions: 768,
			Temperature:         0.1, // Low temperature keeps answers grounded in retrieved context
			Timeout:             "60s",
			RateLimit:           60,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Temperature: 0.1,
			Timeout:     "60s",
		},
		OpenAI: OpenAIConfig{
			APIKey:      "",
			BaseURL:     "",
			Model:       "llama-3.1-8b-instant",
			Temperature: 0.1,
			Timeout:     "60s",
		},
		Documents: DocumentsConfig{
			TempDir:      "", // Resolved to <os temp>/responsum-docs at use
			MaxFetchSize: 50 * 1024 * 1024,
			FetchTimeout: "30s",
		},
		Index: IndexConfig{
			ChunkSize:    1024,
			ChunkOverlap: 200,
		},
		Answers: AnswersConfig{
			TopK:           3,
			IncludeSources: false, // Plain answer strings unless a deployment opts in
		},
		Storage: StorageConfig{
			Path:            filepath.Join(".", "data", "responsum.db"),
			AuditEnabled:    true,
			AuditLogQueries: false,
		},
		Janitor: JanitorConfig{
			Enabled:  true,
			Schedule: "@every 10m",
			MaxAge:   "1h",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override earlier
// files. Files ending in .yaml/.yml are decoded as YAML; anything else as TOML.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, config)
		default:
			err = toml.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: RESPONSUM_ENV, fallback: GO_ENV)
	if env := os.Getenv("RESPONSUM_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("RESPONSUM_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("RESPONSUM_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("RESPONSUM_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("RESPONSUM_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("RESPONSUM_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if filePath := os.Getenv("RESPONSUM_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Auth configuration (RESPONSUM_ prefix takes priority over the bare name)
	if token := os.Getenv("API_AUTH_TOKEN"); token != "" {
		config.Auth.Token = token
	}
	if token := os.Getenv("RESPONSUM_AUTH_TOKEN"); token != "" {
		config.Auth.Token = token
	}

	// LLM provider selection
	if provider := os.Getenv("RESPONSUM_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(provider)
	}

	// Gemini configuration
	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("RESPONSUM_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey // RESPONSUM_ prefix takes priority
	}
	if model := os.Getenv("RESPONSUM_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if embeddingModel := os.Getenv("RESPONSUM_GEMINI_EMBEDDING_MODEL"); embeddingModel != "" {
		config.Gemini.EmbeddingModel = embeddingModel
	}
	if dims := os.Getenv("RESPONSUM_GEMINI_EMBEDDING_DIMENSIONS"); dims != "" {
		if d, err := strconv.Atoi(dims); err == nil {
			config.Gemini.EmbeddingDimensions = d
		}
	}
	if temperature := os.Getenv("RESPONSUM_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}
	if timeout := os.Getenv("RESPONSUM_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("RESPONSUM_GEMINI_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			config.Gemini.RateLimit = rl
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("RESPONSUM_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // RESPONSUM_ prefix takes priority
	}
	if model := os.Getenv("RESPONSUM_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("RESPONSUM_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if temperature := os.Getenv("RESPONSUM_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}
	if timeout := os.Getenv("RESPONSUM_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}

	// OpenAI-compatible configuration
	if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if apiKey := os.Getenv("RESPONSUM_OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey // RESPONSUM_ prefix takes priority
	}
	if baseURL := os.Getenv("RESPONSUM_OPENAI_BASE_URL"); baseURL != "" {
		config.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("RESPONSUM_OPENAI_MODEL"); model != "" {
		config.OpenAI.Model = model
	}
	if temperature := os.Getenv("RESPONSUM_OPENAI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.OpenAI.Temperature = float32(t)
		}
	}
	if timeout := os.Getenv("RESPONSUM_OPENAI_TIMEOUT"); timeout != "" {
		config.OpenAI.Timeout = timeout
	}

	// Documents configuration
	if tempDir := os.Getenv("RESPONSUM_DOCUMENTS_TEMP_DIR"); tempDir != "" {
		config.Documents.TempDir = tempDir
	}
	if maxFetchSize := os.Getenv("RESPONSUM_DOCUMENTS_MAX_FETCH_SIZE"); maxFetchSize != "" {
		if mfs, err := strconv.ParseInt(maxFetchSize, 10, 64); err == nil {
			config.Documents.MaxFetchSize = mfs
		}
	}
	if fetchTimeout := os.Getenv("RESPONSUM_DOCUMENTS_FETCH_TIMEOUT"); fetchTimeout != "" {
		config.Documents.FetchTimeout = fetchTimeout
	}

	// Index configuration
	if chunkSize := os.Getenv("RESPONSUM_INDEX_CHUNK_SIZE"); chunkSize != "" {
		if cs, err := strconv.Atoi(chunkSize); err == nil {
			config.Index.ChunkSize = cs
		}
	}
	if chunkOverlap := os.Getenv("RESPONSUM_INDEX_CHUNK_OVERLAP"); chunkOverlap != "" {
		if co, err := strconv.Atoi(chunkOverlap); err == nil {
			config.Index.ChunkOverlap = co
		}
	}

	// Answers configuration
	if topK := os.Getenv("RESPONSUM_ANSWERS_TOP_K"); topK != "" {
		if tk, err := strconv.Atoi(topK); err == nil && tk > 0 {
			config.Answers.TopK = tk
		}
	}
	if includeSources := os.Getenv("RESPONSUM_ANSWERS_INCLUDE_SOURCES"); includeSources != "" {
		if is, err := strconv.ParseBool(includeSources); err == nil {
			config.Answers.IncludeSources = is
		}
	}

	// Storage configuration
	if path := os.Getenv("RESPONSUM_STORAGE_PATH"); path != "" {
		config.Storage.Path = path
	}
	if auditEnabled := os.Getenv("RESPONSUM_STORAGE_AUDIT_ENABLED"); auditEnabled != "" {
		if ae, err := strconv.ParseBool(auditEnabled); err == nil {
			config.Storage.AuditEnabled = ae
		}
	}
	if auditLogQueries := os.Getenv("RESPONSUM_STORAGE_AUDIT_LOG_QUERIES"); auditLogQueries != "" {
		if alq, err := strconv.ParseBool(auditLogQueries); err == nil {
			config.Storage.AuditLogQueries = alq
		}
	}

	// Janitor configuration
	if enabled := os.Getenv("RESPONSUM_JANITOR_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Janitor.Enabled = e
		}
	}
	if schedule := os.Getenv("RESPONSUM_JANITOR_SCHEDULE"); schedule != "" {
		config.Janitor.Schedule = schedule
	}
	if maxAge := os.Getenv("RESPONSUM_JANITOR_MAX_AGE"); maxAge != "" {
		if _, err := time.ParseDuration(maxAge); err == nil {
			config.Janitor.MaxAge = maxAge
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveTempDir returns the configured scratch directory for fetched
// documents, defaulting to a responsum-specific directory under the OS temp
// location.
func (c *DocumentsConfig) ResolveTempDir() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return filepath.Join(os.TempDir(), "responsum-docs")
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ParseDurationOr parses a duration string, returning the fallback when the
// value is empty or malformed.
func ParseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
