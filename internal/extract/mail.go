package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-mbox"
	"github.com/jhillyerd/enmime"

	"github.com/sha1n/docscan/internal/domain"
)

// EMLExtractor reads a MIME message as one page: the subject line, a blank line,
// then the text body. HTML-only messages are down-converted to text.
type EMLExtractor struct{}

// Pages implements Extractor.
func (EMLExtractor) Pages(_ context.Context, file domain.FileDescriptor) ([]domain.Page, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	text, err := messageText(f)
	if err != nil {
		return nil, err
	}
	return []domain.Page{{Number: 1, Text: text}}, nil
}

// MBOXExtractor reads an mbox mailbox with one page per message.
type MBOXExtractor struct{}

// Pages implements Extractor.
func (MBOXExtractor) Pages(ctx context.Context, file domain.FileDescriptor) ([]domain.Page, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := mbox.NewReader(f)
	var pages []domain.Page
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msg, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ExtractionError{Path: file.Path, Page: n, Err: err}
		}

		text, err := messageText(msg)
		if err != nil {
			return nil, &ExtractionError{Path: file.Path, Page: n, Err: err}
		}
		pages = append(pages, domain.Page{Number: n, Text: text})
	}
	return pages, nil
}

func messageText(r io.Reader) (string, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse message: %w", err)
	}

	var b strings.Builder
	if subject := env.GetHeader("Subject"); subject != "" {
		b.WriteString("Subject: ")
		b.WriteString(subject)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(env.Text))
	return b.String(), nil
}
