package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/services/answer"
	"github.com/ternarybob/responsum/internal/services/documents"
	"github.com/ternarybob/responsum/internal/services/index"
	"github.com/ternarybob/responsum/internal/services/llm"
	"github.com/ternarybob/responsum/internal/services/pdf"
	"github.com/ternarybob/responsum/internal/services/qa"
)

func main() {
	// Load configuration
	configPath := os.Getenv("RESPONSUM_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("responsum.toml"); err == nil {
			configPath = "responsum.toml"
		}
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize minimal logger for MCP server (console only, no file output)
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn") // Minimal logging to avoid cluttering MCP stdio

	// LLM provider stack. No audit store here: the stdio binary must not
	// contend for the HTTP server's Badger lock, so auditing is disabled.
	llmService, auditLogger, err := llm.NewLLMService(config, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize LLM service")
	}
	defer llmService.Close()

	// Document answering pipeline
	pdfExtractor := pdf.NewExtractor(logger)
	loader := documents.NewService(config, pdfExtractor, logger)
	builder := index.NewBuilder(config, llmService, auditLogger, logger)
	answerer := answer.NewService(config, llmService, auditLogger, logger)
	qaService := qa.NewService(loader, builder, answerer, logger)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"responsum",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register document answering tool
	mcpServer.AddTool(createAnswerDocumentQuestionsTool(), handleAnswerDocumentQuestions(qaService, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
