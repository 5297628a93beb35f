package answer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
	"github.com/ternarybob/responsum/internal/services/llm"
)

// fakeIndex implements interfaces.Index with canned matches
type fakeIndex struct {
	matches      []models.SourceMatch
	searchErr    error
	capturedTopK int
}

func (f *fakeIndex) Search(ctx context.Context, question string, topK int) ([]models.SourceMatch, error) {
	f.capturedTopK = topK
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.matches, nil
}

func (f *fakeIndex) Len() int { return len(f.matches) }

func (f *fakeIndex) Close() error { return nil }

// fakeLLM implements interfaces.LLMService and records chat messages
type fakeLLM struct {
	answer           string
	chatErr          error
	capturedMessages []interfaces.Message
}

func (f *fakeLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func (f *fakeLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	f.capturedMessages = messages
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.answer, nil
}

func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }

func (f *fakeLLM) GetMode() interfaces.LLMMode { return interfaces.LLMModeCloud }

func (f *fakeLLM) Close() error { return nil }

// chatAudit records LogChat calls
type chatAudit struct {
	questions []string
	successes []bool
}

func (c *chatAudit) LogEmbed(mode interfaces.LLMMode, success bool, duration time.Duration, err error, queryText string) error {
	return nil
}

func (c *chatAudit) LogChat(mode interfaces.LLMMode, success bool, duration time.Duration, err error, queryText string) error {
	c.questions = append(c.questions, queryText)
	c.successes = append(c.successes, success)
	return nil
}

func (c *chatAudit) GetLogs(limit int) ([]llm.AuditLog, error) { return nil, nil }

func (c *chatAudit) ExportToJSON(w io.Writer) error { return nil }

func (c *chatAudit) Close() error { return nil }

func answerConfig(topK int, includeSources bool) *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Answers.TopK = topK
	cfg.Answers.IncludeSources = includeSources
	return cfg
}

func TestAnswer_Success(t *testing.T) {
	idx := &fakeIndex{
		matches: []models.SourceMatch{
			{Content: "The policy covers water damage.", PageLabel: "4", Score: 0.92},
			{Content: "Exclusions are listed in section 9.", PageLabel: "9", Score: 0.81},
		},
	}
	llmService := &fakeLLM{answer: "Water damage is covered."}
	service := NewService(answerConfig(3, false), llmService, nil, arbor.NewLogger())

	answer, err := service.Answer(context.Background(), idx, "Is water damage covered?")

	assert.NoError(t, err)
	assert.Equal(t, "Water damage is covered.", answer)
	assert.Equal(t, 3, idx.capturedTopK)

	assert.Len(t, llmService.capturedMessages, 2)
	assert.Equal(t, "system", llmService.capturedMessages[0].Role)
	assert.Contains(t, llmService.capturedMessages[0].Content, "not prior knowledge")
	assert.Equal(t, "user", llmService.capturedMessages[1].Role)
	prompt := llmService.capturedMessages[1].Content
	assert.Contains(t, prompt, "The policy covers water damage.")
	assert.Contains(t, prompt, "Exclusions are listed in section 9.")
	assert.Contains(t, prompt, "Query: Is water damage covered?")
}

func TestAnswer_TopKDefault(t *testing.T) {
	idx := &fakeIndex{matches: []models.SourceMatch{{Content: "x", PageLabel: "1", Score: 1}}}
	service := NewService(answerConfig(0, false), &fakeLLM{answer: "a"}, nil, arbor.NewLogger())

	_, err := service.Answer(context.Background(), idx, "q")

	assert.NoError(t, err)
	assert.Equal(t, DefaultTopK, idx.capturedTopK)
}

func TestAnswer_SearchError(t *testing.T) {
	idx := &fakeIndex{searchErr: errors.New("embed exploded")}
	llmService := &fakeLLM{}
	service := NewService(answerConfig(3, false), llmService, nil, arbor.NewLogger())

	_, err := service.Answer(context.Background(), idx, "q")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "embed exploded")
	assert.Nil(t, llmService.capturedMessages)
}

func TestAnswer_ChatError(t *testing.T) {
	idx := &fakeIndex{matches: []models.SourceMatch{{Content: "x", PageLabel: "1", Score: 1}}}
	audit := &chatAudit{}
	service := NewService(answerConfig(3, false), &fakeLLM{chatErr: errors.New("model overloaded")}, audit, arbor.NewLogger())

	answer, err := service.Answer(context.Background(), idx, "the question")

	assert.Error(t, err)
	assert.Empty(t, answer)
	// The failed call is still audited, with the question text
	assert.Equal(t, []string{"the question"}, audit.questions)
	assert.Equal(t, []bool{false}, audit.successes)
}

func TestAnswer_IncludeSources(t *testing.T) {
	idx := &fakeIndex{
		matches: []models.SourceMatch{
			{Content: "Coverage details.", PageLabel: "4", Score: 0.8765},
		},
	}
	service := NewService(answerConfig(3, true), &fakeLLM{answer: "Covered."}, nil, arbor.NewLogger())

	answer, err := service.Answer(context.Background(), idx, "q")

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(answer, "Covered."))
	assert.Contains(t, answer, "--- Sources and Rationale ---")
	assert.Contains(t, answer, "Source 1 (Page 4):")
	assert.Contains(t, answer, "Relevance Score: 0.8765")
	assert.Contains(t, answer, "Content: Coverage details.")
	assert.Contains(t, answer, strings.Repeat("-", 50))
}

func TestBuildPrompt(t *testing.T) {
	matches := []models.SourceMatch{
		{Content: " first chunk ", PageLabel: "1", Score: 0.9},
		{Content: "second chunk", PageLabel: "2", Score: 0.8},
	}

	prompt := buildPrompt(matches, "what?")

	want := "Context information is below.\n" +
		"---------------------\n" +
		"first chunk\n\nsecond chunk" +
		"\n---------------------\n" +
		"Given the context information and not prior knowledge, answer the query.\n" +
		"Query: what?\n" +
		"Answer: "
	assert.Equal(t, want, prompt)
}

func TestFormatSources(t *testing.T) {
	t.Run("No matches", func(t *testing.T) {
		got := formatSources(nil)
		assert.Equal(t, "\n\n--- Sources and Rationale ---\nNo specific sources retrieved for this answer.\n", got)
	})

	t.Run("Long content truncated", func(t *testing.T) {
		long := strings.Repeat("x", 600)
		got := formatSources([]models.SourceMatch{{Content: long, PageLabel: "2", Score: 0.5}})

		assert.Contains(t, got, strings.Repeat("x", 500)+"...")
		assert.NotContains(t, got, strings.Repeat("x", 501))
	})

	t.Run("Multiple sources numbered", func(t *testing.T) {
		got := formatSources([]models.SourceMatch{
			{Content: "a", PageLabel: "1", Score: 1},
			{Content: "b", PageLabel: "N/A", Score: 0.25},
		})

		assert.Contains(t, got, "Source 1 (Page 1):")
		assert.Contains(t, got, "Source 2 (Page N/A):")
		assert.Contains(t, got, "Relevance Score: 1.0000")
		assert.Contains(t, got, "Relevance Score: 0.2500")
	})
}
