package domain

// MatchDocument represents an indexed match record.
// It is the primary data structure stored in the Bleve match index.
type MatchDocument struct {
	// ID is a unique identifier combining the job ID and the match sequence number.
	// Format: "<job-id>/<seq>"
	ID string `json:"id"`

	// JobID identifies the job that produced the match.
	JobID string `json:"job_id"`

	// FilePath is the path of the document the match was found in.
	FilePath string `json:"file_path"`

	// FileName is the base name of the document.
	FileName string `json:"file_name"`

	// Term is the name of the term that matched.
	Term string `json:"term"`

	// PageNumber is the 1-based page the match was found on.
	PageNumber int `json:"page_number"`

	// Position is the character offset of the match within the page.
	Position int `json:"position"`

	// MatchedText is the exact matched substring.
	MatchedText string `json:"matched_text"`

	// Context is the before context, matched text and after context joined together.
	// Used for full-text search and snippets.
	Context string `json:"context"`
}

// NewMatchDocument builds the index document for a match record.
func NewMatchDocument(id, jobID string, m MatchRecord) MatchDocument {
	return MatchDocument{
		ID:          id,
		JobID:       jobID,
		FilePath:    m.FilePath,
		FileName:    m.FileName,
		Term:        m.TermName,
		PageNumber:  m.PageNumber,
		Position:    m.Position,
		MatchedText: m.MatchedText,
		Context:     m.ContextBefore + m.MatchedText + m.ContextAfter,
	}
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	MatchFieldID          = "id"
	MatchFieldJobID       = "job_id"
	MatchFieldFilePath    = "file_path"
	MatchFieldFileName    = "file_name"
	MatchFieldTerm        = "term"
	MatchFieldPageNumber  = "page_number"
	MatchFieldPosition    = "position"
	MatchFieldMatchedText = "matched_text"
	MatchFieldContext     = "context"
)
