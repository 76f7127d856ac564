// Package discovery lists the candidate documents under a scan root.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sha1n/docscan/internal/domain"
)

var (
	// ErrRootNotFound indicates the scan root does not exist
	ErrRootNotFound = errors.New("scan folder not found")

	// ErrNotDirectory indicates the scan root is not a directory
	ErrNotDirectory = errors.New("scan folder is not a directory")
)

// DefaultExtensions is used when no extensions are configured.
var DefaultExtensions = []string{".pdf"}

// Options configures discovery.
type Options struct {
	Extensions      []string
	Recursive       bool
	ExcludePatterns []string
	MaxFileSize     int64
	Logger          *slog.Logger
}

// NormalizeExtensions lower-cases extensions, adds the leading dot and drops
// blanks and repeats, keeping the first occurrence order.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(out, ext) {
			out = append(out, ext)
		}
	}
	return out
}

// Discover walks root and returns the matching files sorted by path.
func Discover(root string, opts Options) ([]domain.FileDescriptor, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("failed to access scan folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exts := NormalizeExtensions(opts.Extensions)
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	patterns := opts.ExcludePatterns
	if patterns == nil {
		patterns = DefaultExcludePatterns
	}
	filter := NewFilter(patterns, opts.MaxFileSize)

	var files []domain.FileDescriptor
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("Skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if path == root {
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if d.IsDir() {
			if !opts.Recursive || filter.Excluded(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		ext, ok := matchExtension(d.Name(), exts)
		if !ok || filter.Excluded(relPath) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			logger.Warn("Skipping file without stat", "path", path, "error", err)
			return nil
		}
		if filter.TooLarge(fi.Size()) {
			logger.Debug("Skipping oversized file", "path", path, "size", fi.Size())
			return nil
		}

		files = append(files, domain.FileDescriptor{
			Path:      path,
			Name:      d.Name(),
			Extension: ext,
			Size:      fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk scan folder: %w", err)
	}

	slices.SortFunc(files, func(a, b domain.FileDescriptor) int {
		return strings.Compare(a.Path, b.Path)
	})
	return files, nil
}

// matchExtension returns the configured extension the file name ends with.
func matchExtension(name string, exts []string) (string, bool) {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) && len(lower) > len(ext) {
			return ext, true
		}
	}
	return "", false
}
