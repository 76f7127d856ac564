// Package aggregate collects page matches into the ordered result set and job summary.
package aggregate

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/sha1n/docscan/internal/domain"
	"github.com/sha1n/docscan/internal/scan"
	"github.com/sha1n/docscan/internal/terms"
)

// ErrFinalized is returned when results are added after Finalize.
var ErrFinalized = errors.New("aggregator already finalized")

// FailureRecorder persists per-file failures.
type FailureRecorder interface {
	RecordFailure(file domain.FileDescriptor, err error)
}

// ScannedPage holds the hits of one page, in scan order.
type ScannedPage struct {
	Number int
	Hits   []scan.Hit
}

// FileBatch is the immutable outcome of processing one file.
// A batch with Err set contributes no pages and no matches.
type FileBatch struct {
	File  domain.FileDescriptor
	Pages []ScannedPage
	Err   error
}

// Config configures an Aggregator.
type Config struct {
	Terms    *terms.Set
	Window   scan.Window
	Scan     scan.Options
	Clock    *Clock
	Failures FailureRecorder
	Logger   *slog.Logger
}

// Aggregator is the single owner of the accumulating results.
// All methods are safe for concurrent use; updates are applied under one lock.
type Aggregator struct {
	cfg Config

	matches        []domain.MatchRecord
	counts         []int
	termIndex      map[string]int
	filesSeen      map[string]bool
	filesScanned   int
	pagesProcessed int

	finalized bool
	results   domain.ResultSet
	summary   domain.JobSummary

	mu sync.Mutex
}

// New creates an aggregator and starts the job clock.
func New(cfg Config) *Aggregator {
	if cfg.Clock == nil {
		cfg.Clock = NewClock(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.Clock.Start()

	names := cfg.Terms.Names()
	termIndex := make(map[string]int, len(names))
	for i, name := range names {
		termIndex[name] = i
	}

	return &Aggregator{
		cfg:       cfg,
		counts:    make([]int, len(names)),
		termIndex: termIndex,
		filesSeen: make(map[string]bool),
	}
}

// ScanFile scans already extracted pages of one file into a batch.
// It touches no aggregator state and may run on any goroutine.
func (a *Aggregator) ScanFile(file domain.FileDescriptor, pages []domain.Page) FileBatch {
	batch := FileBatch{File: file, Pages: make([]ScannedPage, 0, len(pages))}
	for _, p := range pages {
		batch.Pages = append(batch.Pages, ScannedPage{
			Number: p.Number,
			Hits:   scan.Page(p.Text, a.cfg.Terms, a.cfg.Window, a.cfg.Scan),
		})
	}
	return batch
}

// Commit appends a finished file batch to the results.
func (a *Aggregator) Commit(batch FileBatch) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		return ErrFinalized
	}
	a.commitLocked(batch)
	return nil
}

func (a *Aggregator) commitLocked(batch FileBatch) {
	if !a.filesSeen[batch.File.Path] {
		a.filesSeen[batch.File.Path] = true
		a.filesScanned++
	}

	if batch.Err != nil {
		a.cfg.Logger.Error("Failed to process file", "path", batch.File.Path, "error", batch.Err)
		if a.cfg.Failures != nil {
			a.cfg.Failures.RecordFailure(batch.File, batch.Err)
		}
		return
	}

	for _, page := range batch.Pages {
		a.pagesProcessed++
		for _, hit := range page.Hits {
			a.matches = append(a.matches, domain.MatchRecord{
				FileName:      batch.File.Name,
				FilePath:      batch.File.Path,
				PageNumber:    page.Number,
				TermName:      hit.Term,
				MatchedText:   hit.MatchedText,
				ContextBefore: hit.ContextBefore,
				ContextAfter:  hit.ContextAfter,
				Position:      hit.Position,
			})
			if i, ok := a.termIndex[hit.Term]; ok {
				a.counts[i]++
			}
		}
	}
}

// Finalize stamps the end time and returns the result set and summary.
// The first call computes them; later calls return the same values.
func (a *Aggregator) Finalize() (domain.ResultSet, domain.JobSummary) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.finalized {
		a.finalizeLocked()
	}
	return a.copyResults(), a.copySummary()
}

func (a *Aggregator) finalizeLocked() {
	end, err := a.cfg.Clock.Stop()
	if err != nil {
		a.cfg.Logger.Warn("Job clock stopped twice", "error", err)
	}
	elapsed := end.Sub(a.cfg.Clock.StartTime()).Seconds()

	files := make(map[string]struct{})
	for _, m := range a.matches {
		files[m.FilePath] = struct{}{}
	}

	names := a.cfg.Terms.Names()
	counts := make(domain.TermCounts, len(names))
	for i, name := range names {
		counts[i] = domain.TermCount{Term: name, Count: a.counts[i]}
	}

	matches := a.matches
	if matches == nil {
		matches = []domain.MatchRecord{}
	}

	a.results = domain.ResultSet{
		Metadata: domain.ResultMetadata{
			TotalMatches:     len(matches),
			FilesWithMatches: len(files),
			ContextBefore:    a.cfg.Window.Before,
			ContextAfter:     a.cfg.Window.After,
			GeneratedAt:      end,
		},
		Matches: matches,
	}
	a.summary = domain.JobSummary{
		StartTime:         a.cfg.Clock.StartTime(),
		EndTime:           end,
		ElapsedSeconds:    elapsed,
		ElapsedFormatted:  FormatElapsed(elapsed),
		FilesScanned:      a.filesScanned,
		PagesProcessed:    a.pagesProcessed,
		FilesWithMatches:  len(files),
		TotalMatches:      len(matches),
		Terms:             names,
		ContextBefore:     a.cfg.Window.Before,
		ContextAfter:      a.cfg.Window.After,
		MatchCountsByTerm: counts,
	}
	a.finalized = true
}

func (a *Aggregator) copyResults() domain.ResultSet {
	rs := a.results
	rs.Matches = slices.Clone(a.results.Matches)
	return rs
}

func (a *Aggregator) copySummary() domain.JobSummary {
	s := a.summary
	s.Terms = slices.Clone(a.summary.Terms)
	s.MatchCountsByTerm = slices.Clone(a.summary.MatchCountsByTerm)
	return s
}
