package discovery

import (
	"path/filepath"
	"strings"
)

// DefaultExcludePatterns skips dependency, VCS and cache directories.
var DefaultExcludePatterns = []string{
	".git/**", ".svn/**", ".hg/**",
	"node_modules/**", "vendor/**", "venv/**", ".venv/**",
	"__pycache__/**", ".pytest_cache/**", ".cache/**",
}

// Filter decides which candidate files are skipped.
type Filter struct {
	patterns    []string
	maxFileSize int64
}

// NewFilter creates a filter. A maxFileSize of 0 disables the size limit.
func NewFilter(patterns []string, maxFileSize int64) *Filter {
	return &Filter{
		patterns:    patterns,
		maxFileSize: maxFileSize,
	}
}

// Excluded reports whether the path, relative to the scan root, matches an exclude pattern.
func (f *Filter) Excluded(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range f.patterns {
		if matchPattern(pattern, relPath) {
			return true
		}
	}
	return false
}

// TooLarge reports whether a file of the given size exceeds the limit.
func (f *Filter) TooLarge(size int64) bool {
	return f.maxFileSize > 0 && size > f.maxFileSize
}

// matchPattern matches a slash separated path against a glob.
// "dir/**" matches dir at any depth; "**/x" matches x under any prefix.
func matchPattern(pattern, path string) bool {
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		parts := strings.Split(path, "/")
		for i := range parts {
			if matchSimplePattern(rest, strings.Join(parts[i:], "/")) {
				return true
			}
		}
		return false
	}

	if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
		parts := strings.Split(path, "/")
		for i, part := range parts {
			if part == dir && i < len(parts)-1 {
				return true
			}
		}
		return path == dir
	}

	return matchSimplePattern(pattern, path)
}

// matchSimplePattern matches a single-star glob against the path or its base name.
func matchSimplePattern(pattern, name string) bool {
	if pattern == name {
		return true
	}
	if ext, ok := strings.CutPrefix(pattern, "*."); ok {
		return strings.HasSuffix(strings.ToLower(name), "."+strings.ToLower(ext))
	}
	if matched, _ := filepath.Match(pattern, name); matched {
		return true
	}
	matched, _ := filepath.Match(pattern, filepath.Base(name))
	return matched
}
