package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/sha1n/docscan/internal/aggregate"
	"github.com/sha1n/docscan/internal/config"
	"github.com/sha1n/docscan/internal/discovery"
	"github.com/sha1n/docscan/internal/domain"
	"github.com/sha1n/docscan/internal/errlog"
	"github.com/sha1n/docscan/internal/extract"
	"github.com/sha1n/docscan/internal/index"
	"github.com/sha1n/docscan/internal/job"
	mcputil "github.com/sha1n/docscan/internal/mcp"
	"github.com/sha1n/docscan/internal/report"
	"github.com/sha1n/docscan/internal/scan"
	"github.com/sha1n/docscan/internal/terms"
)

// ErrInterrupted is returned when a scan was canceled before it finished.
// Partial results have been written by then.
var ErrInterrupted = errors.New("scan interrupted")

// ScanParams contains dependencies for the scan command
type ScanParams struct {
	LoadSettings func(*pflag.FlagSet) (*config.Settings, error)
	Stdout       io.Writer
	Stderr       io.Writer
	Now          func() time.Time
}

// DefaultScanParams returns production dependencies
func DefaultScanParams() ScanParams {
	return ScanParams{
		LoadSettings: config.LoadSettingsWithFlags,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Now:          time.Now,
	}
}

// jobParams maps scan settings onto job parameters.
func jobParams(set *terms.Set, s config.ScanSettings, logger *slog.Logger) job.Params {
	return job.Params{
		Root: s.Folder,
		Discovery: discovery.Options{
			Extensions:      s.Extensions,
			Recursive:       s.Recursive,
			ExcludePatterns: s.Exclude,
			MaxFileSize:     s.MaxFileSize,
		},
		Terms:   set,
		Window:  scan.Window{Before: s.Before, After: s.After},
		Scan:    scan.Options{Dedupe: s.Dedupe},
		Workers: s.Workers,
		Source:  extract.NewRegistry(extract.Options{NormalizeNFC: s.Normalize}),
		Logger:  logger,
	}
}

// NewScanFunc returns the job runner behind the scan_documents tool. Each job
// records its failed files in its own exception log under logDir.
func NewScanFunc(logger *slog.Logger, logDir string) mcputil.ScanFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, set *terms.Set, s config.ScanSettings) (*job.Outcome, error) {
		failures := errlog.New(logDir, nil).WithLogger(logger)
		defer func() {
			if err := failures.Close(); err != nil {
				logger.Error("Failed to close exception log", "path", failures.Path(), "error", err)
			}
		}()

		p := jobParams(set, s, logger)
		p.Failures = failures
		out, err := job.Run(ctx, p)
		if err != nil {
			return nil, err
		}
		if failures.Count() > 0 {
			out.FailureLog = failures.Path()
		}
		return out, nil
	}
}

// RunScan executes one scan job: it loads the term list, scans the folder,
// writes the result files and prints a summary. A canceled job still writes
// its partial results and returns ErrInterrupted.
func RunScan(ctx context.Context, params ScanParams, flags *pflag.FlagSet) error {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if err := config.ValidateScanSettings(&settings.Scan); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := NewLogger(params.Stderr, settings.Level())
	slog.SetDefault(logger)
	config.LogWithLogger(settings, logger)
	logger.Debug("Resolved settings", "settings", settings)

	set, err := terms.LoadFile(settings.Scan.TermList, terms.Options{CaseSensitive: settings.Scan.CaseSensitive})
	if err != nil {
		return fmt.Errorf("failed to load term list: %w", err)
	}
	logger.Info("Loaded search terms", "count", set.Len(), "terms", set.Names())

	failures := errlog.New(settings.Output.LogDir, params.Now).WithLogger(logger)
	defer func() {
		if err := failures.Close(); err != nil {
			logger.Error("Failed to close exception log", "path", failures.Path(), "error", err)
		}
	}()

	p := jobParams(set, settings.Scan, logger)
	p.Failures = failures
	p.Clock = aggregate.NewClock(params.Now)
	p.Progress = func(done, total int, file domain.FileDescriptor, err error) {
		logger.Debug("Processed file", "done", done, "total", total, "path", file.Path, "failed", err != nil)
	}

	out, err := job.Run(ctx, p)
	if err != nil {
		return err
	}
	if out.Canceled {
		logger.Warn("Scan interrupted, writing partial results", "files_scanned", out.Summary.FilesScanned)
	}

	written, err := writeOutputs(ctx, settings, out)
	if err != nil {
		return err
	}
	if out.Failed > 0 {
		logger.Warn("Some files could not be processed", "count", out.Failed, "logged", failures.Count(), "log", failures.Path())
	}

	if settings.Index.Dir != "" {
		if err := indexOutcome(ctx, index.NewIndexer(settings.Index.Dir), settings.Scan.Folder, out, logger); err != nil {
			return err
		}
	}

	logger.Info("Files scanned", "count", out.Summary.FilesScanned)
	logger.Info("Total matches", "count", out.Summary.TotalMatches)
	logger.Info("Elapsed time", "seconds", fmt.Sprintf("%.2f", out.Summary.ElapsedSeconds), "formatted", out.Summary.ElapsedFormatted)

	NewConsole(params.Stdout).Summary(out, written)

	if out.Canceled {
		return ErrInterrupted
	}
	return nil
}

// writeOutputs writes every enabled result file and returns their paths.
func writeOutputs(ctx context.Context, settings *config.Settings, out *job.Outcome) ([]string, error) {
	// Partial results of an interrupted job are written too
	ctx = context.WithoutCancel(ctx)
	w := report.NewWriter(settings.Output.Dir, out.Summary.StartTime)
	var written []string

	path, err := w.WriteResults(out.Results)
	if err != nil {
		return written, err
	}
	written = append(written, path)

	if settings.Output.Summary {
		path, err := w.WriteSummary(out.Summary)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if settings.Output.CSV {
		path, err := w.WriteCSV(out.Results)
		if err != nil {
			return written, err
		}
		if path != "" {
			written = append(written, path)
		}
	}

	if settings.Output.SQLite != "" {
		if err := report.WriteSQLite(ctx, settings.Output.SQLite, out.JobID, out.Results, out.Summary); err != nil {
			return written, err
		}
		written = append(written, settings.Output.SQLite)
	}

	return written, nil
}

// indexOutcome adds the matches of a job to the match index.
func indexOutcome(ctx context.Context, indexer *index.Indexer, root string, out *job.Outcome, logger *slog.Logger) error {
	// Partial results of an interrupted job are indexed too
	ctx = context.WithoutCancel(ctx)

	entry := index.NewJobEntry(out.JobID, root, out.Summary, out.Canceled)
	count, err := indexer.IndexJob(ctx, entry, out.Results)
	if err != nil {
		return fmt.Errorf("failed to index matches: %w", err)
	}

	logger.Info("Indexed matches", "job_id", out.JobID, "count", count, "index", indexer.Path())
	return nil
}
