package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// handleAnswerDocumentQuestions implements the answer_document_questions tool
func handleAnswerDocumentQuestions(qaService interfaces.QAService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse document_url parameter (required)
		documentURL, err := request.RequireString("document_url")
		if err != nil || documentURL == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: document_url parameter is required"),
				},
			}, nil
		}

		// Parse questions parameter (required)
		questions := request.GetStringSlice("questions", nil)
		if len(questions) == 0 {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: questions parameter must be a non-empty list of strings"),
				},
			}, nil
		}

		// Run the load -> index -> answer pipeline
		source := &models.DocumentSource{URL: documentURL}
		response, err := qaService.Run(ctx, source, questions)
		if err != nil {
			logger.Error().Err(err).Str("document_url", documentURL).Msg("Run failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Error answering questions: %v", err)),
				},
			}, nil
		}

		// Format answers as markdown
		markdown := formatAnswers(documentURL, questions, response.Answers)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}
