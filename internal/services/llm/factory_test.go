package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
)

func geminiConfig() *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.LLM.Provider = common.LLMProviderGemini
	cfg.Gemini.APIKey = "test-key"
	return cfg
}

func TestNewLLMService_NilConfig(t *testing.T) {
	service, auditor, err := NewLLMService(nil, nil, arbor.NewLogger())

	assert.Nil(t, service)
	assert.Nil(t, auditor)
	assert.Error(t, err)
}

func TestNewLLMService_InvalidProvider(t *testing.T) {
	cfg := geminiConfig()
	cfg.LLM.Provider = "watson"

	service, auditor, err := NewLLMService(cfg, nil, arbor.NewLogger())

	assert.Nil(t, service)
	assert.Nil(t, auditor)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid LLM provider")
}

func TestNewLLMService_MissingGeminiKey(t *testing.T) {
	cfg := geminiConfig()
	cfg.Gemini.APIKey = ""

	service, _, err := NewLLMService(cfg, nil, arbor.NewLogger())

	assert.Nil(t, service)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestNewLLMService_Gemini(t *testing.T) {
	service, auditor, err := NewLLMService(geminiConfig(), nil, arbor.NewLogger())

	assert.NoError(t, err)
	assert.NotNil(t, service)
	assert.Equal(t, interfaces.LLMModeCloud, service.GetMode())

	// Without a store the audit trail is a no-op
	_, isNull := auditor.(*NullAuditLogger)
	assert.True(t, isNull)

	assert.NoError(t, service.Close())
}

func TestNewLLMService_EmptyProviderDefaultsToGemini(t *testing.T) {
	cfg := geminiConfig()
	cfg.LLM.Provider = ""

	service, _, err := NewLLMService(cfg, nil, arbor.NewLogger())

	assert.NoError(t, err)
	assert.NotNil(t, service)
	assert.NoError(t, service.Close())
}

func TestNewLLMService_ClaudeRequiresKey(t *testing.T) {
	cfg := geminiConfig()
	cfg.LLM.Provider = common.LLMProviderClaude
	cfg.Claude.APIKey = ""

	service, _, err := NewLLMService(cfg, nil, arbor.NewLogger())

	assert.Nil(t, service)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Claude")
}

func TestNewLLMService_Claude(t *testing.T) {
	cfg := geminiConfig()
	cfg.LLM.Provider = common.LLMProviderClaude
	cfg.Claude.APIKey = "claude-key"

	service, _, err := NewLLMService(cfg, nil, arbor.NewLogger())

	assert.NoError(t, err)
	assert.NotNil(t, service)
	assert.NoError(t, service.Close())
}

func TestNewLLMService_OpenAIRequiresKey(t *testing.T) {
	cfg := geminiConfig()
	cfg.LLM.Provider = common.LLMProviderOpenAI
	cfg.OpenAI.APIKey = ""

	service, _, err := NewLLMService(cfg, nil, arbor.NewLogger())

	assert.Nil(t, service)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI")
}

func TestNewLLMService_AuditWithStore(t *testing.T) {
	db := newTestStore(t)
	cfg := geminiConfig()
	cfg.Storage.AuditEnabled = true

	service, auditor, err := NewLLMService(cfg, db.Store(), arbor.NewLogger())

	assert.NoError(t, err)
	_, isBadger := auditor.(*BadgerAuditLogger)
	assert.True(t, isBadger)
	assert.NoError(t, service.Close())
}

func TestNewLLMService_AuditDisabled(t *testing.T) {
	db := newTestStore(t)
	cfg := geminiConfig()
	cfg.Storage.AuditEnabled = false

	service, auditor, err := NewLLMService(cfg, db.Store(), arbor.NewLogger())

	assert.NoError(t, err)
	_, isNull := auditor.(*NullAuditLogger)
	assert.True(t, isNull)
	assert.NoError(t, service.Close())
}

func TestChatModelName(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Gemini.Model = "gemini-model"
	cfg.Claude.Model = "claude-model"
	cfg.OpenAI.Model = "openai-model"

	cfg.LLM.Provider = common.LLMProviderGemini
	assert.Equal(t, "gemini-model", ChatModelName(cfg))

	cfg.LLM.Provider = common.LLMProviderClaude
	assert.Equal(t, "claude-model", ChatModelName(cfg))

	cfg.LLM.Provider = common.LLMProviderOpenAI
	assert.Equal(t, "openai-model", ChatModelName(cfg))

	// Unset provider falls back to the Gemini model
	cfg.LLM.Provider = ""
	assert.Equal(t, "gemini-model", ChatModelName(cfg))
}
