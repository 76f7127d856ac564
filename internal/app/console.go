package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/sha1n/docscan/internal/job"
)

// NewLogger creates the text logger every command logs through.
// Logs go to stderr so stdout stays free for results and the MCP stdio transport.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Console prints the human-oriented job summary.
type Console struct {
	w     io.Writer
	color bool
}

// NewConsole creates a console writing to w. Colors are used only when w is a
// terminal and NO_COLOR is not set.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, color: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) && !color.NoColor
}

func (c *Console) paint(attr color.Attribute, format string, args ...any) string {
	text := fmt.Sprintf(format, args...)
	if !c.color {
		return text
	}
	return color.New(attr).Sprint(text)
}

// Summary prints the outcome of a job and the files it wrote.
func (c *Console) Summary(out *job.Outcome, written []string) {
	s := out.Summary
	var sb strings.Builder

	sb.WriteString(c.paint(color.Bold, "=== Scan Summary ===") + "\n")
	if out.Canceled {
		sb.WriteString(c.paint(color.FgYellow, "Interrupted: results are partial") + "\n")
	}
	fmt.Fprintf(&sb, "Job:            %s\n", out.JobID)
	fmt.Fprintf(&sb, "Files scanned:  %d (%d pages)\n", s.FilesScanned, s.PagesProcessed)
	if out.Failed > 0 {
		sb.WriteString(c.paint(color.FgRed, "Failed files:   %d", out.Failed) + "\n")
	}
	if s.TotalMatches > 0 {
		sb.WriteString(c.paint(color.FgGreen, "Matches:        %d in %d files", s.TotalMatches, s.FilesWithMatches) + "\n")
	} else {
		fmt.Fprintf(&sb, "Matches:        0\n")
	}
	fmt.Fprintf(&sb, "Elapsed:        %s\n", s.ElapsedFormatted)

	for _, tc := range s.MatchCountsByTerm {
		name := tc.Term
		if tc.Count > 0 {
			name = c.paint(color.FgCyan, "%s", tc.Term)
		}
		fmt.Fprintf(&sb, "  %s: %d\n", name, tc.Count)
	}

	for _, path := range written {
		fmt.Fprintf(&sb, "Wrote %s\n", path)
	}

	_, _ = io.WriteString(c.w, sb.String())
}
