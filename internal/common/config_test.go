package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.Server.Port != 8060 {
		t.Errorf("expected default port 8060, got %d", config.Server.Port)
	}
	if config.LLM.Provider != LLMProviderGemini {
		t.Errorf("expected default provider gemini, got %s", config.LLM.Provider)
	}
	if config.Index.ChunkSize != 1024 || config.Index.ChunkOverlap != 200 {
		t.Errorf("unexpected chunking defaults: %d/%d", config.Index.ChunkSize, config.Index.ChunkOverlap)
	}
	if config.Answers.TopK != 3 {
		t.Errorf("expected default top_k 3, got %d", config.Answers.TopK)
	}
	if config.Answers.IncludeSources {
		t.Error("source annotation should be off by default")
	}
	if !config.Storage.AuditEnabled {
		t.Error("audit trail should be on by default")
	}
	if config.Auth.Token != "" {
		t.Error("no default auth token may ship")
	}
	if config.Gemini.APIKey != "" {
		t.Error("no default API key may ship")
	}
	if !config.Janitor.Enabled {
		t.Error("janitor should be on by default")
	}
}

func TestLoadFromFile_TOML(t *testing.T) {
	path := writeConfigFile(t, "responsum.toml", `
environment = "production"

[server]
port = 9000

[gemini]
model = "gemini-exp"

[answers]
top_k = 5
include_sources = true
`)

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", config.Server.Port)
	}
	if config.Gemini.Model != "gemini-exp" {
		t.Errorf("expected model override, got %s", config.Gemini.Model)
	}
	if config.Answers.TopK != 5 {
		t.Errorf("expected top_k 5, got %d", config.Answers.TopK)
	}
	if !config.Answers.IncludeSources {
		t.Error("expected include_sources true")
	}
	if !config.IsProduction() {
		t.Error("expected production environment")
	}

	// Untouched sections keep their defaults
	if config.Index.ChunkSize != 1024 {
		t.Errorf("expected default chunk size, got %d", config.Index.ChunkSize)
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := writeConfigFile(t, "responsum.yaml", `
server:
  port: 9100
janitor:
  schedule: "@every 5m"
`)

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Server.Port != 9100 {
		t.Errorf("expected port 9100, got %d", config.Server.Port)
	}
	if config.Janitor.Schedule != "@every 5m" {
		t.Errorf("expected schedule override, got %s", config.Janitor.Schedule)
	}
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	first := writeConfigFile(t, "base.toml", "[server]\nport = 9000\nhost = \"10.0.0.1\"\n")
	second := writeConfigFile(t, "override.toml", "[server]\nport = 9500\n")

	config, err := LoadFromFiles(first, second)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if config.Server.Port != 9500 {
		t.Errorf("expected later file to win, got port %d", config.Server.Port)
	}
	if config.Server.Host != "10.0.0.1" {
		t.Errorf("expected earlier host to survive, got %s", config.Server.Host)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadFromFile_Malformed(t *testing.T) {
	path := writeConfigFile(t, "broken.toml", "[server\nport = not a number")

	_, err := LoadFromFile(path)
	if err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestLoadFromFile_EmptyPathUsesDefaults(t *testing.T) {
	config, err := LoadFromFile("")
	if err != nil {
		t.Fatalf("LoadFromFile(\"\") failed: %v", err)
	}
	if config == nil {
		t.Fatal("expected config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RESPONSUM_SERVER_PORT", "9999")
	t.Setenv("RESPONSUM_LLM_PROVIDER", "claude")
	t.Setenv("RESPONSUM_JANITOR_ENABLED", "false")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if config.Server.Port != 9999 {
		t.Errorf("expected env port 9999, got %d", config.Server.Port)
	}
	if config.LLM.Provider != LLMProviderClaude {
		t.Errorf("expected env provider claude, got %s", config.LLM.Provider)
	}
	if config.Janitor.Enabled {
		t.Error("expected janitor disabled via env")
	}
}

func TestEnvOverrides_PrefixedTokenWins(t *testing.T) {
	t.Setenv("API_AUTH_TOKEN", "bare-token")
	t.Setenv("RESPONSUM_AUTH_TOKEN", "prefixed-token")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if config.Auth.Token != "prefixed-token" {
		t.Errorf("expected RESPONSUM_ prefix to win, got %q", config.Auth.Token)
	}
}

func TestEnvOverrides_PrefixedAPIKeyWins(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "bare-key")
	t.Setenv("RESPONSUM_GEMINI_API_KEY", "prefixed-key")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if config.Gemini.APIKey != "prefixed-key" {
		t.Errorf("expected RESPONSUM_ prefix to win, got %q", config.Gemini.APIKey)
	}
}

func TestEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("RESPONSUM_SERVER_PORT", "not-a-port")
	t.Setenv("RESPONSUM_ANSWERS_TOP_K", "0")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if config.Server.Port != 8060 {
		t.Errorf("garbage port should keep default, got %d", config.Server.Port)
	}
	if config.Answers.TopK != 3 {
		t.Errorf("non-positive top_k should keep default, got %d", config.Answers.TopK)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 7070, "127.0.0.1")
	if config.Server.Port != 7070 || config.Server.Host != "127.0.0.1" {
		t.Errorf("flag overrides not applied: %d %s", config.Server.Port, config.Server.Host)
	}

	ApplyFlagOverrides(config, 0, "")
	if config.Server.Port != 7070 || config.Server.Host != "127.0.0.1" {
		t.Error("zero-valued flags must not clobber config")
	}
}

func TestParseDurationOr(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback time.Duration
		want     time.Duration
	}{
		{"valid duration", "90s", time.Minute, 90 * time.Second},
		{"empty uses fallback", "", time.Minute, time.Minute},
		{"garbage uses fallback", "soon", time.Minute, time.Minute},
		{"compound duration", "1h30m", time.Minute, 90 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDurationOr(tt.value, tt.fallback); got != tt.want {
				t.Errorf("ParseDurationOr(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestResolveTempDir(t *testing.T) {
	explicit := DocumentsConfig{TempDir: "/custom/dir"}
	if got := explicit.ResolveTempDir(); got != "/custom/dir" {
		t.Errorf("expected explicit temp dir, got %s", got)
	}

	fallback := DocumentsConfig{}
	if got := fallback.ResolveTempDir(); filepath.Base(got) != "responsum-docs" {
		t.Errorf("expected responsum-docs fallback, got %s", got)
	}
}
