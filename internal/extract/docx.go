package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sha1n/docscan/internal/domain"
)

const docxBody = "word/document.xml"

// DOCXExtractor reads the main document part of an Office Open XML file as one
// page. Paragraphs and breaks become newlines, tabs become tab characters.
type DOCXExtractor struct{}

// Pages implements Extractor.
func (DOCXExtractor) Pages(_ context.Context, file domain.FileDescriptor) ([]domain.Page, error) {
	zr, err := zip.OpenReader(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", docxBody, err)
		}
		defer rc.Close()

		text, err := docxText(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", docxBody, err)
		}
		return []domain.Page{{Number: 1, Text: text}}, nil
	}
	return nil, fmt.Errorf("archive has no %s", docxBody)
}

func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
