package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createAnswerDocumentQuestionsTool returns the answer_document_questions tool definition
func createAnswerDocumentQuestionsTool() mcp.Tool {
	return mcp.NewTool("answer_document_questions",
		mcp.WithDescription("Fetch a document (PDF, HTML or plain text) from a URL and answer questions about its content using retrieval-augmented generation"),
		mcp.WithString("document_url",
			mcp.Required(),
			mcp.Description("HTTP(S) URL of the document to load"),
		),
		mcp.WithArray("questions",
			mcp.Required(),
			mcp.WithStringItems(),
			mcp.Description("Questions to answer about the document, answered in order"),
		),
	)
}
