package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/docscan/internal/index"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name    string
	Version string

	// Scan enables the scan_documents tool when set
	Scan *ScanHandler

	// Index enables the search_matches tool when set
	Index      *index.Indexer
	MaxResults int
}

// CreateServer creates and configures the MCP server
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Scan != nil {
		mcp.AddTool(s, cfg.Scan.GetToolDefinition(), cfg.Scan.Handle)
	}
	if cfg.Index != nil {
		RegisterSearchTool(s, cfg.Index, cfg.MaxResults)
	}

	return s
}

// errorResult wraps a message in a tool error result.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// textResult wraps text in a tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
