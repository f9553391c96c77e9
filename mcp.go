package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type questionAnswerer interface {
	AnswerQuestions(ctx context.Context, docs []string, questions []string, docType string) ([]string, error)
}

// NewMCPServer exposes the pipeline as an MCP tool, so agents can ask
// a single question about a document by URL.
func NewMCPServer(answerer questionAnswerer) *server.MCPServer {
	tool := mcp.NewTool("ask_document",
		mcp.WithDescription("Answer a question about a document fetched from a URL"),
		mcp.WithString("document_url",
			mcp.Required(),
			mcp.Description("URL of the document (pdf, docx, odt or plain text)"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question to answer from the document"),
		),
		mcp.WithString("document_type",
			mcp.Description("Optional document type hint, e.g. resume"),
		))

	srv := server.NewMCPServer("docqa", "0.1.0", server.WithToolCapabilities(false))
	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docURL, err := request.RequireString("document_url")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		question, err := request.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		docType := request.GetString("document_type", "")

		answers, err := answerer.AnswerQuestions(ctx, []string{docURL}, []string{question}, docType)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(answers[0]), nil
	})

	return srv
}
