package extract

import (
	"context"
	"os"
	"strings"

	"github.com/sha1n/docscan/internal/domain"
)

// TextExtractor reads plain text files. A form feed starts a new page; a trailing
// form feed does not produce an empty last page.
type TextExtractor struct{}

// Pages implements Extractor.
func (TextExtractor) Pages(_ context.Context, file domain.FileDescriptor) ([]domain.Page, error) {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, err
	}
	return splitPages(strings.ToValidUTF8(string(data), "\uFFFD")), nil
}

func splitPages(text string) []domain.Page {
	parts := strings.Split(text, "\f")
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	pages := make([]domain.Page, len(parts))
	for i, part := range parts {
		pages[i] = domain.Page{Number: i + 1, Text: part}
	}
	return pages
}
