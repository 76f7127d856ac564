package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TermCount is the number of matches recorded for one term.
type TermCount struct {
	Term  string
	Count int
}

// TermCounts is an ordered term->count mapping. It serializes as a JSON object
// whose keys keep the term definition order.
type TermCounts []TermCount

// Get returns the count for the given term, or 0 if the term is unknown.
func (c TermCounts) Get(term string) int {
	for _, tc := range c {
		if tc.Term == term {
			return tc.Count
		}
	}
	return 0
}

// Total returns the sum of all counts.
func (c TermCounts) Total() int {
	total := 0
	for _, tc := range c {
		total += tc.Count
	}
	return total
}

// MarshalJSON writes the counts as an object in slice order.
func (c TermCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tc := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tc.Term)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", tc.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of counts, preserving key order.
func (c *TermCounts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("term counts must be a JSON object")
	}

	var counts TermCounts
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var n int
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("count for %q: %w", key, err)
		}
		counts = append(counts, TermCount{Term: key, Count: n})
	}
	*c = counts
	return nil
}

// JobSummary holds the statistics of one job.
type JobSummary struct {
	StartTime         time.Time
	EndTime           time.Time
	ElapsedSeconds    float64
	ElapsedFormatted  string
	FilesScanned      int
	PagesProcessed    int
	FilesWithMatches  int
	TotalMatches      int
	Terms             []string
	ContextBefore     int
	ContextAfter      int
	MatchCountsByTerm TermCounts
}

// TermCount returns the number of configured terms.
func (s *JobSummary) TermCount() int {
	return len(s.Terms)
}

type jobSection struct {
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	ElapsedSeconds   float64   `json:"elapsed_time_seconds"`
	ElapsedFormatted string    `json:"elapsed_time_formatted"`
	FilesScanned     int       `json:"files_scanned"`
	PagesProcessed   int       `json:"pages_processed"`
	FilesWithMatches int       `json:"files_with_matches"`
	TotalMatches     int       `json:"total_matches"`
}

type searchParameters struct {
	TermCount     int      `json:"term_count"`
	Terms         []string `json:"terms"`
	ContextBefore int      `json:"context_before"`
	ContextAfter  int      `json:"context_after"`
}

type summaryDocument struct {
	JobSummary        jobSection       `json:"job_summary"`
	SearchParameters  searchParameters `json:"search_parameters"`
	MatchCountsByTerm TermCounts       `json:"match_counts_by_term"`
}

// MarshalJSON writes the summary in its report layout:
// job_summary, search_parameters and match_counts_by_term.
func (s JobSummary) MarshalJSON() ([]byte, error) {
	terms := s.Terms
	if terms == nil {
		terms = []string{}
	}
	counts := s.MatchCountsByTerm
	if counts == nil {
		counts = TermCounts{}
	}
	return json.Marshal(summaryDocument{
		JobSummary: jobSection{
			StartTime:        s.StartTime,
			EndTime:          s.EndTime,
			ElapsedSeconds:   s.ElapsedSeconds,
			ElapsedFormatted: s.ElapsedFormatted,
			FilesScanned:     s.FilesScanned,
			PagesProcessed:   s.PagesProcessed,
			FilesWithMatches: s.FilesWithMatches,
			TotalMatches:     s.TotalMatches,
		},
		SearchParameters: searchParameters{
			TermCount:     len(terms),
			Terms:         terms,
			ContextBefore: s.ContextBefore,
			ContextAfter:  s.ContextAfter,
		},
		MatchCountsByTerm: counts,
	})
}

// UnmarshalJSON reads a summary written by MarshalJSON.
func (s *JobSummary) UnmarshalJSON(data []byte) error {
	var doc summaryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*s = JobSummary{
		StartTime:         doc.JobSummary.StartTime,
		EndTime:           doc.JobSummary.EndTime,
		ElapsedSeconds:    doc.JobSummary.ElapsedSeconds,
		ElapsedFormatted:  doc.JobSummary.ElapsedFormatted,
		FilesScanned:      doc.JobSummary.FilesScanned,
		PagesProcessed:    doc.JobSummary.PagesProcessed,
		FilesWithMatches:  doc.JobSummary.FilesWithMatches,
		TotalMatches:      doc.JobSummary.TotalMatches,
		Terms:             doc.SearchParameters.Terms,
		ContextBefore:     doc.SearchParameters.ContextBefore,
		ContextAfter:      doc.SearchParameters.ContextAfter,
		MatchCountsByTerm: doc.MatchCountsByTerm,
	}
	return nil
}
