package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/sha1n/docscan/internal/config"
	"github.com/sha1n/docscan/internal/index"
)

// SearchParams contains dependencies for the search command
type SearchParams struct {
	LoadSettings func(*pflag.FlagSet) (*config.Settings, error)
	Stdout       io.Writer
	Stderr       io.Writer
}

// DefaultSearchParams returns production dependencies
func DefaultSearchParams() SearchParams {
	return SearchParams{
		LoadSettings: config.LoadSettingsWithFlags,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
	}
}

// RunSearch queries the match index. The positional args form the free text
// query; --term, --file and --job narrow it down. With --jobs the indexed jobs
// are listed instead.
func RunSearch(ctx context.Context, params SearchParams, flags *pflag.FlagSet, args []string) error {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.Index.Dir == "" {
		return errors.New("index-dir is required")
	}

	logger := NewLogger(params.Stderr, settings.Level())
	indexer := index.NewIndexer(settings.Index.Dir)
	asJSON, _ := flags.GetBool("json")

	if listJobs, _ := flags.GetBool("jobs"); listJobs {
		jobs, err := indexer.Jobs()
		if err != nil {
			return fmt.Errorf("failed to read indexed jobs: %w", err)
		}
		if asJSON {
			return writeJSON(params.Stdout, jobs)
		}
		printJobs(params.Stdout, jobs)
		return nil
	}

	q := index.Query{
		Text:  strings.Join(args, " "),
		Limit: settings.Index.MaxResults,
	}
	q.Term, _ = flags.GetString("term")
	q.File, _ = flags.GetString("file")
	q.JobID, _ = flags.GetString("job")

	logger.Debug("Searching index", "path", indexer.Path(), "query", q.Text, "term", q.Term, "file", q.File, "job", q.JobID)

	res, err := indexer.Search(q)
	if errors.Is(err, index.ErrIndexNotFound) {
		return fmt.Errorf("no index at %s, run a scan with --index-dir first", indexer.Path())
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if asJSON {
		return writeJSON(params.Stdout, res)
	}
	printHits(params.Stdout, res)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHits(w io.Writer, res *index.Results) {
	if len(res.Hits) == 0 {
		_, _ = fmt.Fprintln(w, "No matches found.")
		return
	}

	_, _ = fmt.Fprintf(w, "Showing %d of %d matches\n\n", len(res.Hits), res.Total)
	for i, h := range res.Hits {
		_, _ = fmt.Fprintf(w, "%d. %s (page %d) [%s] %q\n", i+1, h.FilePath, h.PageNumber, h.Term, h.MatchedText)
		text := h.Context
		if len(h.Fragments) > 0 {
			text = h.Fragments[0]
		}
		_, _ = fmt.Fprintf(w, "   %s\n", strings.ReplaceAll(text, "\n", " "))
	}
}

func printJobs(w io.Writer, jobs []index.JobEntry) {
	if len(jobs) == 0 {
		_, _ = fmt.Fprintln(w, "No jobs indexed.")
		return
	}

	for _, j := range jobs {
		status := ""
		if j.Canceled {
			status = " (interrupted)"
		}
		_, _ = fmt.Fprintf(w, "%s  %s  %s  files=%d matches=%d indexed=%d%s\n",
			j.ID, j.StartTime.Format(time.DateTime), j.Root, j.FilesScanned, j.TotalMatches, j.DocCount, status)
	}
}
