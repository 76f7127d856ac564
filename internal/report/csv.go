package report

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/sha1n/docscan/internal/domain"
)

// CSVHeader lists the match columns, in file order.
var CSVHeader = []string{
	"file_name",
	"file_path",
	"page_number",
	"term_name",
	"matched_text",
	"context_before",
	"context_after",
	"position",
}

// WriteCSV writes results_<stamp>.csv with one row per match.
// A job without matches writes no file and returns an empty path.
func (w *Writer) WriteCSV(rs domain.ResultSet) (string, error) {
	if len(rs.Matches) == 0 {
		return "", nil
	}

	path := w.Path("results", ".csv")
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(CSVHeader)
	for _, m := range rs.Matches {
		_ = cw.Write([]string{
			m.FileName,
			m.FilePath,
			strconv.Itoa(m.PageNumber),
			m.TermName,
			m.MatchedText,
			m.ContextBefore,
			m.ContextAfter,
			strconv.Itoa(m.Position),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", &OutputError{Path: path, Err: err}
	}

	if err := w.write(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}
