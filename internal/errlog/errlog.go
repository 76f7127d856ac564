// Package errlog writes per-file failures to a persistent exception log.
package errlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sha1n/docscan/internal/domain"
)

const separator = "================================================================================"

// pageLocator is implemented by errors that know the page they failed on.
type pageLocator interface {
	FailedPage() int
}

// stackCarrier is implemented by errors that captured a stack trace.
type stackCarrier interface {
	StackTrace() string
}

// Log appends failure blocks to <dir>/exceptions_YYYYMMDD_HHMMSS.log.
// The file is created on the first recorded failure.
type Log struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
	file   io.WriteCloser
	count  int
	mu     sync.Mutex
}

// New creates an exception log in dir. A nil now uses time.Now.
func New(dir string, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	name := fmt.Sprintf("exceptions_%s.log", now().Format("20060102_150405"))
	return &Log{
		path:   filepath.Join(dir, name),
		now:    now,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger that reports failures the log could not persist.
func (l *Log) WithLogger(logger *slog.Logger) *Log {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Count returns the number of recorded failures.
func (l *Log) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// RecordFailure logs a file that could not be processed. When the block cannot
// be written the failure and the write error go to the logger instead.
func (l *Log) RecordFailure(file domain.FileDescriptor, err error) {
	if werr := l.Record(fmt.Sprintf("Failed to process file %s", file.Path), file.Path, err); werr != nil {
		l.logger.Error("Failed to write exception log", "log", l.path, "path", file.Path, "failure", err, "error", werr)
	}
}

// Record appends one failure block. path may be empty when no file is involved.
func (l *Log) Record(message, path string, err error) error {
	if err == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString("\n" + separator + "\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", l.now().Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "Message: %s\n", message)
	if path != "" {
		fmt.Fprintf(&b, "File: %s\n", path)
	}
	var pl pageLocator
	if errors.As(err, &pl) && pl.FailedPage() > 0 {
		fmt.Fprintf(&b, "Page: %d\n", pl.FailedPage())
	}
	fmt.Fprintf(&b, "Error Type: %s\n", typeName(err))
	fmt.Fprintf(&b, "Error: %s\n", err)

	b.WriteString("\nCause Chain:\n")
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(&b, "  %s: %s\n", typeName(e), e)
	}

	var sc stackCarrier
	if errors.As(err, &sc) && sc.StackTrace() != "" {
		b.WriteString("\nStack:\n")
		b.WriteString(strings.TrimRight(sc.StackTrace(), "\n"))
		b.WriteString("\n")
	}
	b.WriteString(separator + "\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
			return fmt.Errorf("failed to create exception log directory: %w", err)
		}
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open exception log: %w", err)
		}
		l.file = f
	}
	if _, err := io.WriteString(l.file, b.String()); err != nil {
		return fmt.Errorf("failed to write exception log: %w", err)
	}
	l.count++
	return nil
}

// Close closes the log file if it was opened.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func typeName(err error) string {
	return fmt.Sprintf("%T", err)
}
