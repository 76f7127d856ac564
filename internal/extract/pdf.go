package extract

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/sha1n/docscan/internal/domain"
)

// PDFExtractor yields one page per PDF page. Pages without a content object
// yield empty text so page numbers stay aligned with the document.
type PDFExtractor struct{}

// Pages implements Extractor.
func (PDFExtractor) Pages(ctx context.Context, file domain.FileDescriptor) ([]domain.Page, error) {
	f, reader, err := pdf.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]domain.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, domain.Page{Number: i})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &ExtractionError{Path: file.Path, Page: i, Err: err}
		}
		pages = append(pages, domain.Page{Number: i, Text: text})
	}
	return pages, nil
}
