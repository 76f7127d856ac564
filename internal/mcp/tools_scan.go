package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/docscan/internal/config"
	"github.com/sha1n/docscan/internal/domain"
	"github.com/sha1n/docscan/internal/index"
	"github.com/sha1n/docscan/internal/job"
	"github.com/sha1n/docscan/internal/terms"
)

// DefaultMaxListedMatches is the number of matches listed in a scan result.
const DefaultMaxListedMatches = 50

// ScanArgument defines scan_documents parameters.
type ScanArgument struct {
	Root       string         `json:"root" jsonschema:"Directory to scan for documents"`
	TermList   string         `json:"term_list,omitempty" jsonschema:"Path of a JSON, CSV or YAML term list"`
	Terms      []TermArgument `json:"terms,omitempty" jsonschema:"Inline search terms, used when term_list is not set"`
	Extensions []string       `json:"extensions,omitempty" jsonschema:"File extensions to scan (default: pdf)"`
	Recursive  bool           `json:"recursive,omitempty" jsonschema:"Scan subdirectories"`
	Before     *int           `json:"before,omitempty" jsonschema:"Characters of context before each match"`
	After      *int           `json:"after,omitempty" jsonschema:"Characters of context after each match"`
}

// TermArgument is one inline search term.
type TermArgument struct {
	Name    string `json:"name" jsonschema:"Unique term name"`
	Pattern string `json:"pattern" jsonschema:"Regular expression"`
}

// ScanFunc runs one scan job for the given terms and settings.
type ScanFunc func(ctx context.Context, set *terms.Set, settings config.ScanSettings) (*job.Outcome, error)

// ScanHandler handles the scan_documents MCP tool.
type ScanHandler struct {
	defaults   config.ScanSettings
	run        ScanFunc
	indexer    *index.Indexer
	maxMatches int
	logger     *slog.Logger
}

// NewScanHandler creates a scan handler. Settings the call leaves out come
// from defaults. When indexer is set every finished job is indexed.
func NewScanHandler(defaults config.ScanSettings, run ScanFunc, indexer *index.Indexer, logger *slog.Logger) *ScanHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanHandler{
		defaults:   defaults,
		run:        run,
		indexer:    indexer,
		maxMatches: DefaultMaxListedMatches,
		logger:     logger,
	}
}

// Handle runs the scan and returns the job summary and the first matches.
func (h *ScanHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ScanArgument) (*mcp.CallToolResult, any, error) {
	settings, err := h.resolve(args)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	set, err := h.loadTerms(args)
	if err != nil {
		return errorResult(fmt.Sprintf("Invalid terms: %s", err)), nil, nil
	}

	out, err := h.run(ctx, set, settings)
	if err != nil {
		return errorResult(fmt.Sprintf("Scan failed: %s", err)), nil, nil
	}

	var sb strings.Builder
	if h.indexer != nil {
		entry := index.NewJobEntry(out.JobID, settings.Folder, out.Summary, out.Canceled)
		if _, err := h.indexer.IndexJob(ctx, entry, out.Results); err != nil {
			h.logger.Error("Failed to index job", "job_id", out.JobID, "error", err)
			fmt.Fprintf(&sb, "Warning: matches were not indexed: %s\n\n", err)
		}
	}

	formatOutcome(&sb, out, h.maxMatches)
	return textResult(sb.String()), nil, nil
}

// resolve merges the call arguments over the defaults.
func (h *ScanHandler) resolve(args ScanArgument) (config.ScanSettings, error) {
	settings := h.defaults
	settings.Folder = strings.TrimSpace(args.Root)
	if settings.Folder == "" {
		return settings, errors.New("root cannot be empty")
	}
	info, err := os.Stat(settings.Folder)
	if err != nil || !info.IsDir() {
		return settings, fmt.Errorf("root %s is not a directory", settings.Folder)
	}

	if len(args.Extensions) > 0 {
		settings.Extensions = args.Extensions
	}
	if args.Recursive {
		settings.Recursive = true
	}
	if args.Before != nil {
		settings.Before = *args.Before
	}
	if args.After != nil {
		settings.After = *args.After
	}
	if settings.Before < 0 || settings.After < 0 {
		return settings, errors.New("before and after must be non-negative")
	}
	return settings, nil
}

func (h *ScanHandler) loadTerms(args ScanArgument) (*terms.Set, error) {
	opts := terms.Options{CaseSensitive: h.defaults.CaseSensitive}

	if args.TermList != "" {
		return terms.LoadFile(args.TermList, opts)
	}
	if len(args.Terms) == 0 {
		return nil, errors.New("either term_list or terms is required")
	}

	defs := make([]terms.Definition, len(args.Terms))
	for i, t := range args.Terms {
		defs[i] = terms.Definition{Name: t.Name, Pattern: t.Pattern}
	}
	return terms.New(defs, opts)
}

// formatOutcome writes a job outcome for an MCP response.
func formatOutcome(sb *strings.Builder, out *job.Outcome, maxMatches int) {
	s := out.Summary
	if out.Canceled {
		sb.WriteString("Scan was canceled, results are partial.\n\n")
	}
	fmt.Fprintf(sb, "Job %s\n", out.JobID)
	fmt.Fprintf(sb, "Scanned %d files (%d pages) in %s\n", s.FilesScanned, s.PagesProcessed, s.ElapsedFormatted)
	fmt.Fprintf(sb, "Found %d matches in %d files\n", s.TotalMatches, s.FilesWithMatches)
	if out.Failed > 0 {
		fmt.Fprintf(sb, "%d files could not be processed\n", out.Failed)
		if out.FailureLog != "" {
			fmt.Fprintf(sb, "Failures were logged to %s\n", out.FailureLog)
		}
	}

	sb.WriteString("\n**Matches by term**:\n")
	for _, tc := range s.MatchCountsByTerm {
		fmt.Fprintf(sb, "- %s: %d\n", tc.Term, tc.Count)
	}

	if len(out.Results.Matches) == 0 {
		return
	}

	sb.WriteString("\n")
	for i, m := range out.Results.Matches {
		if i == maxMatches {
			fmt.Fprintf(sb, "... and %d more matches\n", len(out.Results.Matches)-maxMatches)
			break
		}
		writeMatch(sb, i+1, m)
	}
}

func writeMatch(sb *strings.Builder, n int, m domain.MatchRecord) {
	fmt.Fprintf(sb, "### %d. %s (page %d) [%s]\n", n, m.FilePath, m.PageNumber, m.TermName)
	fmt.Fprintf(sb, "```\n%s[%s]%s\n```\n", m.ContextBefore, m.MatchedText, m.ContextAfter)
}

// GetToolDefinition returns the MCP tool definition.
func (h *ScanHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "scan_documents",
		Description: "Scan a directory of documents (PDF, text, Markdown, DOCX, e-mail) for regular expression terms and report every match with its surrounding context",
	}
}
