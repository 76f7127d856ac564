package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/docscan/internal/index"
)

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query string `json:"query,omitempty" jsonschema:"Full-text query on matched text and context"`
	Term  string `json:"term,omitempty" jsonschema:"Filter by term name"`
	File  string `json:"file,omitempty" jsonschema:"Filter by file name, or by full path when it contains a separator"`
	JobID string `json:"job_id,omitempty" jsonschema:"Filter by job ID"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results"`
}

// SearchHandler handles the search_matches MCP tool.
type SearchHandler struct {
	indexer    *index.Indexer
	maxResults int
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(indexer *index.Indexer, maxResults int) *SearchHandler {
	if maxResults <= 0 {
		maxResults = index.DefaultLimit
	}
	return &SearchHandler{
		indexer:    indexer,
		maxResults: maxResults,
	}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" && args.Term == "" && args.File == "" && args.JobID == "" {
		return errorResult("Provide a query or at least one of term, file or job_id"), nil, nil
	}

	limit := args.Limit
	if limit <= 0 || limit > h.maxResults {
		limit = h.maxResults
	}

	results, err := h.indexer.Search(index.Query{
		Text:  args.Query,
		Term:  args.Term,
		File:  args.File,
		JobID: args.JobID,
		Limit: limit,
	})
	if errors.Is(err, index.ErrIndexNotFound) {
		return errorResult("No matches have been indexed yet. Run a scan with an index directory first."), nil, nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Search failed: %s", err)), nil, nil
	}

	return textResult(formatResults(results, args)), nil, nil
}

// formatResults formats search results for MCP response.
func formatResults(results *index.Results, args SearchArgument) string {
	if results.Total == 0 {
		return fmt.Sprintf("No matches found for %s", describe(args))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d matches for %s:\n\n", results.Total, describe(args))

	for i, hit := range results.Hits {
		fmt.Fprintf(&sb, "### %d. %s (page %d) [%s]\n", i+1, hit.FilePath, hit.PageNumber, hit.Term)
		fmt.Fprintf(&sb, "**Matched**: %s  **Job**: %s\n", hit.MatchedText, hit.JobID)

		sb.WriteString("```\n")
		if len(hit.Fragments) > 0 {
			for _, fragment := range hit.Fragments {
				sb.WriteString(fragment)
				sb.WriteString("\n")
			}
		} else {
			sb.WriteString(hit.Context)
			sb.WriteString("\n")
		}
		sb.WriteString("```\n\n")
	}

	if results.Total > uint64(len(results.Hits)) {
		fmt.Fprintf(&sb, "... and %d more matches\n", results.Total-uint64(len(results.Hits)))
	}

	return sb.String()
}

func describe(args SearchArgument) string {
	var parts []string
	if q := strings.TrimSpace(args.Query); q != "" {
		parts = append(parts, fmt.Sprintf("'%s'", q))
	}
	if args.Term != "" {
		parts = append(parts, "term="+args.Term)
	}
	if args.File != "" {
		parts = append(parts, "file="+args.File)
	}
	if args.JobID != "" {
		parts = append(parts, "job="+args.JobID)
	}
	return strings.Join(parts, " ")
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_matches",
		Description: "Search the matches of previously indexed scan jobs using full-text search with term, file and job filters",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, indexer *index.Indexer, maxResults int) {
	handler := NewSearchHandler(indexer, maxResults)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
