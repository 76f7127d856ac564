package extract

import (
	"bytes"
	"context"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/sha1n/docscan/internal/domain"
)

// MarkdownExtractor renders a Markdown document to its visible text as one page.
// Markup is dropped; code blocks keep their lines; raw HTML is skipped.
type MarkdownExtractor struct {
	markdown goldmark.Markdown
}

// NewMarkdownExtractor creates a Markdown extractor.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{markdown: goldmark.New()}
}

// Pages implements Extractor.
func (e *MarkdownExtractor) Pages(_ context.Context, file domain.FileDescriptor) ([]domain.Page, error) {
	source, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, err
	}
	return []domain.Page{{Number: 1, Text: e.render(source)}}, nil
}

func (e *MarkdownExtractor) render(source []byte) string {
	doc := e.markdown.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument && n.NextSibling() != nil {
				endLine(&buf)
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(source))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(source))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

func endLine(buf *bytes.Buffer) {
	if buf.Len() > 0 && buf.Bytes()[buf.Len()-1] != '\n' {
		buf.WriteByte('\n')
	}
}
