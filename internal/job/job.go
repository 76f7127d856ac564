// Package job runs one scan end to end: discovery, parallel extraction and
// scanning, and ordered aggregation.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sha1n/docscan/internal/aggregate"
	"github.com/sha1n/docscan/internal/discovery"
	"github.com/sha1n/docscan/internal/domain"
	"github.com/sha1n/docscan/internal/scan"
	"github.com/sha1n/docscan/internal/terms"
)

// PageSource extracts the pages of one file.
type PageSource interface {
	Extract(ctx context.Context, file domain.FileDescriptor) ([]domain.Page, error)
}

// ProgressFunc is called after each file is committed, in discovery order.
type ProgressFunc func(done, total int, file domain.FileDescriptor, err error)

// Params configures a job.
type Params struct {
	Root      string
	Discovery discovery.Options
	Terms     *terms.Set
	Window    scan.Window
	Scan      scan.Options
	Workers   int
	Source    PageSource
	Failures  aggregate.FailureRecorder
	Clock     *aggregate.Clock
	Progress  ProgressFunc
	Logger    *slog.Logger
}

// Outcome is the result of a job. Results and Summary cover every file that
// was committed, even when the job was canceled.
type Outcome struct {
	JobID    string
	Files    []domain.FileDescriptor
	Results  domain.ResultSet
	Summary  domain.JobSummary
	Failed   int
	Canceled bool

	// FailureLog is the exception log holding the failed files, if any were
	// written. Run leaves it empty; callers that own the log set it.
	FailureLog string
}

// Run executes a job. Only configuration and discovery errors are returned;
// per-file failures are recorded and the job continues.
func Run(ctx context.Context, p Params) (*Outcome, error) {
	if p.Terms == nil || p.Terms.Len() == 0 {
		return nil, terms.ErrEmptyTermSet
	}
	if p.Source == nil {
		return nil, errors.New("job has no page source")
	}
	if p.Window.Before < 0 || p.Window.After < 0 {
		return nil, fmt.Errorf("context window must be non-negative, got before=%d after=%d", p.Window.Before, p.Window.After)
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	agg := aggregate.New(aggregate.Config{
		Terms:    p.Terms,
		Window:   p.Window,
		Scan:     p.Scan,
		Clock:    p.Clock,
		Failures: p.Failures,
		Logger:   logger,
	})

	discoveryOpts := p.Discovery
	if discoveryOpts.Logger == nil {
		discoveryOpts.Logger = logger
	}
	files, err := discovery.Discover(p.Root, discoveryOpts)
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	logger.Info("Found files to process", "job_id", jobID, "count", len(files), "workers", workers)

	// One slot per file. A worker fills its slot with the finished batch, or
	// closes it when the file was abandoned because the job was canceled.
	slots := make([]chan aggregate.FileBatch, len(files))
	for i := range slots {
		slots[i] = make(chan aggregate.FileBatch, 1)
	}

	var failed atomic.Int32
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		done := 0
		for _, slot := range slots {
			batch, ok := <-slot
			if !ok {
				continue
			}
			if batch.Err != nil {
				failed.Add(1)
			}
			if err := agg.Commit(batch); err != nil {
				logger.Error("Failed to commit file", "path", batch.File.Path, "error", err)
				continue
			}
			done++
			if p.Progress != nil {
				p.Progress(done, len(files), batch.File, batch.Err)
			}
		}
	}()

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, fd := range files {
		if ctx.Err() != nil {
			for _, slot := range slots[i:] {
				close(slot)
			}
			break
		}
		g.Go(func() error {
			batch, ok := processFile(ctx, agg, p.Source, fd, logger)
			if ok {
				slots[i] <- batch
			}
			close(slots[i])
			return nil
		})
	}
	_ = g.Wait()
	<-collected

	results, summary := agg.Finalize()
	return &Outcome{
		JobID:    jobID,
		Files:    files,
		Results:  results,
		Summary:  summary,
		Failed:   int(failed.Load()),
		Canceled: ctx.Err() != nil,
	}, nil
}

// processFile extracts and scans one file. It reports false when the file was
// interrupted by cancellation and must not be counted.
func processFile(ctx context.Context, agg *aggregate.Aggregator, source PageSource, fd domain.FileDescriptor, logger *slog.Logger) (aggregate.FileBatch, bool) {
	if ctx.Err() != nil {
		return aggregate.FileBatch{}, false
	}
	logger.Debug("Processing file", "path", fd.Path)

	pages, err := source.Extract(ctx, fd)
	if err != nil {
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return aggregate.FileBatch{}, false
		}
		return aggregate.FileBatch{File: fd, Err: err}, true
	}
	return agg.ScanFile(fd, pages), true
}
