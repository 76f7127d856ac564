// Package extract turns documents into page text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"runtime/debug"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sha1n/docscan/internal/domain"
)

// ErrUnsupportedExtension indicates no extractor is registered for a file type.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// ExtractionError is a recoverable per-file failure.
// Page is 0 when the failure is not tied to one page.
type ExtractionError struct {
	Path  string
	Page  int
	Err   error
	Stack string
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("failed to extract %s (page %d): %v", e.Path, e.Page, e.Err)
	}
	return fmt.Sprintf("failed to extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// FailedPage returns the page the extraction failed on, or 0.
func (e *ExtractionError) FailedPage() int {
	return e.Page
}

// StackTrace returns the stack captured when an extractor panicked.
func (e *ExtractionError) StackTrace() string {
	return e.Stack
}

// Extractor reads the pages of one document, in increasing page order.
type Extractor interface {
	Pages(ctx context.Context, file domain.FileDescriptor) ([]domain.Page, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, file domain.FileDescriptor) ([]domain.Page, error)

// Pages implements Extractor.
func (f ExtractorFunc) Pages(ctx context.Context, file domain.FileDescriptor) ([]domain.Page, error) {
	return f(ctx, file)
}

// Options configures a Registry.
type Options struct {
	// NormalizeNFC rewrites page text to Unicode normalization form C.
	NormalizeNFC bool
}

// Registry maps file extensions to extractors.
type Registry struct {
	extractors map[string]Extractor
	opts       Options
}

// NewRegistry creates a registry with the built-in extractors.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		extractors: make(map[string]Extractor),
		opts:       opts,
	}

	r.Register(".pdf", PDFExtractor{})

	text := TextExtractor{}
	for _, ext := range []string{".txt", ".text", ".log", ".csv"} {
		r.Register(ext, text)
	}

	markdown := NewMarkdownExtractor()
	r.Register(".md", markdown)
	r.Register(".markdown", markdown)

	r.Register(".docx", DOCXExtractor{})
	r.Register(".eml", EMLExtractor{})
	r.Register(".mbox", MBOXExtractor{})

	return r
}

// Register binds an extractor to an extension, replacing any previous one.
func (r *Registry) Register(ext string, e Extractor) {
	r.extractors[normalizeExt(ext)] = e
}

// Lookup returns the extractor for an extension.
func (r *Registry) Lookup(ext string) (Extractor, bool) {
	e, ok := r.extractors[normalizeExt(ext)]
	return e, ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	return slices.Sorted(maps.Keys(r.extractors))
}

// Extract reads the pages of a file. Every failure, including a panic inside an
// extractor, is returned as an *ExtractionError.
func (r *Registry) Extract(ctx context.Context, file domain.FileDescriptor) (pages []domain.Page, err error) {
	ext := file.Extension
	if ext == "" {
		ext = extOf(file.Name)
	}
	e, ok := r.Lookup(ext)
	if !ok {
		return nil, &ExtractionError{Path: file.Path, Err: fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)}
	}

	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = &ExtractionError{
				Path:  file.Path,
				Err:   fmt.Errorf("extractor panic: %v", rec),
				Stack: string(debug.Stack()),
			}
		}
	}()

	pages, err = e.Pages(ctx, file)
	if err != nil {
		var extErr *ExtractionError
		if errors.As(err, &extErr) {
			return nil, err
		}
		return nil, &ExtractionError{Path: file.Path, Err: err}
	}

	if r.opts.NormalizeNFC {
		for i := range pages {
			pages[i].Text = norm.NFC.String(pages[i].Text)
		}
	}
	return pages, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
