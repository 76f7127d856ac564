package index

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/sha1n/docscan/internal/domain"
)

// DefaultLimit is the number of hits returned when a query sets no limit.
const DefaultLimit = 20

// Query selects indexed matches. Text is matched against the matched text and
// its context; the other fields are exact filters. An empty Text with no
// filters returns every match.
type Query struct {
	Text  string
	Term  string
	File  string
	JobID string
	Limit int
}

// Hit is one indexed match returned by a search.
type Hit struct {
	ID          string   `json:"id"`
	JobID       string   `json:"job_id"`
	FilePath    string   `json:"file_path"`
	FileName    string   `json:"file_name"`
	Term        string   `json:"term"`
	PageNumber  int      `json:"page_number"`
	Position    int      `json:"position"`
	MatchedText string   `json:"matched_text"`
	Context     string   `json:"context"`
	Score       float64  `json:"score"`
	Fragments   []string `json:"fragments,omitempty"`
}

// Results is the outcome of a search.
type Results struct {
	Total uint64 `json:"total"`
	Hits  []Hit  `json:"hits"`
}

// Search runs q against the index.
func (i *Indexer) Search(q Query) (res *Results, err error) {
	idx, err := i.openForRead()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := idx.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	req := bleve.NewSearchRequest(buildQuery(q))
	req.Size = q.Limit
	if req.Size <= 0 {
		req.Size = DefaultLimit
	}
	req.Fields = []string{
		domain.MatchFieldJobID,
		domain.MatchFieldFilePath,
		domain.MatchFieldFileName,
		domain.MatchFieldTerm,
		domain.MatchFieldPageNumber,
		domain.MatchFieldPosition,
		domain.MatchFieldMatchedText,
		domain.MatchFieldContext,
	}
	if strings.TrimSpace(q.Text) == "" {
		// No relevance to rank by, keep document order
		req.SortBy([]string{domain.MatchFieldFilePath, domain.MatchFieldPageNumber, domain.MatchFieldPosition, "_id"})
	} else {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField(domain.MatchFieldContext)
	}

	sr, err := idx.Search(req)
	if err != nil {
		return nil, err
	}

	res = &Results{Total: sr.Total, Hits: make([]Hit, 0, len(sr.Hits))}
	for _, h := range sr.Hits {
		res.Hits = append(res.Hits, toHit(h))
	}
	return res, nil
}

// buildQuery constructs a Bleve query from q.
func buildQuery(q Query) query.Query {
	var must []query.Query

	if text := strings.TrimSpace(q.Text); text != "" {
		contextQuery := bleve.NewMatchQuery(text)
		contextQuery.SetField(domain.MatchFieldContext)

		// Hits on the matched text itself rank first
		matchedQuery := bleve.NewMatchQuery(text)
		matchedQuery.SetField(domain.MatchFieldMatchedText)
		matchedQuery.SetBoost(5.0)

		must = append(must, bleve.NewDisjunctionQuery(contextQuery, matchedQuery))
	}

	if q.Term != "" {
		termQuery := bleve.NewTermQuery(q.Term)
		termQuery.SetField(domain.MatchFieldTerm)
		must = append(must, termQuery)
	}

	if q.File != "" {
		// A bare name filters on the file name, anything with a separator on the path
		fileQuery := bleve.NewTermQuery(q.File)
		if strings.ContainsAny(q.File, `/\`) {
			fileQuery.SetField(domain.MatchFieldFilePath)
		} else {
			fileQuery.SetField(domain.MatchFieldFileName)
		}
		must = append(must, fileQuery)
	}

	if q.JobID != "" {
		jobQuery := bleve.NewTermQuery(q.JobID)
		jobQuery.SetField(domain.MatchFieldJobID)
		must = append(must, jobQuery)
	}

	switch len(must) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return must[0]
	default:
		return bleve.NewConjunctionQuery(must...)
	}
}

func toHit(h *search.DocumentMatch) Hit {
	hit := Hit{
		ID:          h.ID,
		JobID:       stringField(h, domain.MatchFieldJobID),
		FilePath:    stringField(h, domain.MatchFieldFilePath),
		FileName:    stringField(h, domain.MatchFieldFileName),
		Term:        stringField(h, domain.MatchFieldTerm),
		PageNumber:  intField(h, domain.MatchFieldPageNumber),
		Position:    intField(h, domain.MatchFieldPosition),
		MatchedText: stringField(h, domain.MatchFieldMatchedText),
		Context:     stringField(h, domain.MatchFieldContext),
		Score:       h.Score,
	}
	if fragments, ok := h.Fragments[domain.MatchFieldContext]; ok {
		hit.Fragments = fragments
	}
	return hit
}

func stringField(h *search.DocumentMatch, name string) string {
	if val, ok := h.Fields[name].(string); ok {
		return val
	}
	return ""
}

// intField reads a stored numeric field. Bleve returns numbers as float64.
func intField(h *search.DocumentMatch, name string) int {
	if val, ok := h.Fields[name].(float64); ok {
		return int(val)
	}
	return 0
}
