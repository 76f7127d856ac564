// Package report writes job results and summaries to the output directory.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sha1n/docscan/internal/domain"
)

// StampLayout formats the job start time in output file names.
const StampLayout = "20060102_150405"

// OutputError is a fatal failure to write a job output.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

// Writer writes the outputs of one job. All file names share the job start stamp.
type Writer struct {
	dir   string
	stamp string
}

// NewWriter creates a writer for dir, stamping file names with the job start time.
func NewWriter(dir string, start time.Time) *Writer {
	return &Writer{
		dir:   dir,
		stamp: start.Format(StampLayout),
	}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns the output path for a file kind ("results", "summary") and extension.
func (w *Writer) Path(kind, ext string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s%s", kind, w.stamp, ext))
}

// WriteResults writes results_<stamp>.json.
func (w *Writer) WriteResults(rs domain.ResultSet) (string, error) {
	return w.writeJSON(w.Path("results", ".json"), rs)
}

// WriteSummary writes summary_<stamp>.json.
func (w *Writer) WriteSummary(s domain.JobSummary) (string, error) {
	return w.writeJSON(w.Path("summary", ".json"), s)
}

func (w *Writer) writeJSON(path string, v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", &OutputError{Path: path, Err: err}
	}
	if err := w.write(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) write(path string, data []byte) error {
	unlock, err := lockDir(w.dir)
	if err != nil {
		return &OutputError{Path: path, Err: err}
	}
	defer unlock()

	if err := AtomicWrite(path, data); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	return nil
}
