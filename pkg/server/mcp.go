package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mikeboe/uniq-chat/pkg/rag"
)

var errSearchUnavailable = errors.New("document search is not configured")

// newMCPHandler serves the document search tools over streamable HTTP. Tool
// calls read h.Tools when they run.
func (h *Handler) newMCPHandler() http.Handler {
	server := mcp.NewServer(&mcp.Implementation{Name: "uniq-chat-mcp", Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Semantic search over the uploaded documents.",
	}, h.searchDocuments)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_content_by_source",
		Description: "Return every chunk of one source file.",
	}, h.findContentBySource)

	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}

func (h *Handler) searchDocuments(ctx context.Context, _ *mcp.CallToolRequest, args rag.SearchDocumentsArgs) (*mcp.CallToolResult, any, error) {
	if h.Tools == nil {
		return toolError(errSearchUnavailable), nil, nil
	}
	text, err := h.Tools.SearchDocuments(ctx, args)
	if err != nil {
		h.Logger.ErrorContext(ctx, "MCP tool failed", "tool", "search_documents", "error", err)
		return toolError(err), nil, nil
	}
	return toolText(text), nil, nil
}

func (h *Handler) findContentBySource(ctx context.Context, _ *mcp.CallToolRequest, args rag.FindSourceArgs) (*mcp.CallToolResult, any, error) {
	if h.Tools == nil {
		return toolError(errSearchUnavailable), nil, nil
	}
	text, err := h.Tools.FindContentBySource(ctx, args)
	if err != nil {
		h.Logger.ErrorContext(ctx, "MCP tool failed", "tool", "find_content_by_source", "error", err)
		return toolError(err), nil, nil
	}
	return toolText(text), nil, nil
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
