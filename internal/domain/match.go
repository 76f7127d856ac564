package domain

import "time"

// FileDescriptor identifies a discovered document file.
type FileDescriptor struct {
	// Path is the file path as discovered (rooted at the scan folder).
	Path string `json:"path"`

	// Name is the base name of the file.
	Name string `json:"name"`

	// Extension is the lower-cased extension including the leading dot.
	// Example: ".pdf"
	Extension string `json:"extension"`

	// Size is the file size in bytes at discovery time.
	Size int64 `json:"size"`
}

// Page is one unit of extracted text. Numbers are 1-based and increase within a file.
type Page struct {
	Number int
	Text   string
}

// MatchRecord is a single term hit with its surrounding context.
// Position is the 0-based character offset of the match start within the page text.
type MatchRecord struct {
	FileName      string `json:"file_name"`
	FilePath      string `json:"file_path"`
	PageNumber    int    `json:"page_number"`
	TermName      string `json:"term_name"`
	MatchedText   string `json:"matched_text"`
	ContextBefore string `json:"context_before"`
	ContextAfter  string `json:"context_after"`
	Position      int    `json:"position"`
}

// ResultMetadata describes a finalized ResultSet.
type ResultMetadata struct {
	TotalMatches     int       `json:"total_matches"`
	FilesWithMatches int       `json:"files_with_matches"`
	ContextBefore    int       `json:"context_before"`
	ContextAfter     int       `json:"context_after"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// ResultSet is the ordered collection of all matches of a job.
type ResultSet struct {
	Metadata ResultMetadata `json:"metadata"`
	Matches  []MatchRecord  `json:"matches"`
}

// ByFile groups matches by file path, keeping match order within each group.
// Files with the same name in different folders stay separate.
func (r *ResultSet) ByFile() map[string][]MatchRecord {
	groups := make(map[string][]MatchRecord)
	for _, m := range r.Matches {
		groups[m.FilePath] = append(groups[m.FilePath], m)
	}
	return groups
}

// ByTerm groups matches by term name, keeping match order within each group.
func (r *ResultSet) ByTerm() map[string][]MatchRecord {
	groups := make(map[string][]MatchRecord)
	for _, m := range r.Matches {
		groups[m.TermName] = append(groups[m.TermName], m)
	}
	return groups
}
