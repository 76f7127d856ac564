// Package scan finds term matches in page text and cuts context windows around them.
package scan

import (
	"unicode/utf8"

	"github.com/sha1n/docscan/internal/terms"
)

// RawMatch is a term hit located by byte offsets into the page text.
type RawMatch struct {
	Term  string
	Start int
	End   int
}

// Options tunes page scanning.
type Options struct {
	// Dedupe drops a match whose exact span was already reported by an earlier
	// term on the same page. Off by default: terms are independent classifications.
	Dedupe bool
}

// Window is the number of characters captured before and after a match.
type Window struct {
	Before int
	After  int
}

// Excerpt is a match with its context. Position counts characters, not bytes.
type Excerpt struct {
	MatchedText   string
	ContextBefore string
	ContextAfter  string
	Position      int
}

// Hit is an excerpt attributed to the term that produced it.
type Hit struct {
	Term string
	Excerpt
}

// Scan applies every term to the page text. Matches are returned term by term in
// set order, and by position within a term. Matches of one term never overlap;
// matches of different terms may.
func Scan(text string, set *terms.Set, opts Options) []RawMatch {
	var matches []RawMatch
	var seen map[[2]int]bool
	if opts.Dedupe {
		seen = make(map[[2]int]bool)
	}

	for i := 0; i < set.Len(); i++ {
		term := set.At(i)
		for _, loc := range term.Regexp().FindAllStringIndex(text, -1) {
			if seen != nil {
				span := [2]int{loc[0], loc[1]}
				if seen[span] {
					continue
				}
				seen[span] = true
			}
			matches = append(matches, RawMatch{Term: term.Name, Start: loc[0], End: loc[1]})
		}
	}
	return matches
}

// Extract cuts the matched text and its context out of the page text.
// Context windows clamp at the page bounds and never split a character.
func Extract(text string, m RawMatch, w Window) Excerpt {
	return extract(text, m, w, utf8.RuneCountInString(text[:m.Start]))
}

// Page scans one page and returns every hit with its context attached.
func Page(text string, set *terms.Set, w Window, opts Options) []Hit {
	raw := Scan(text, set, opts)
	if len(raw) == 0 {
		return nil
	}

	index := newRuneIndex(text)
	hits := make([]Hit, len(raw))
	for i, m := range raw {
		hits[i] = Hit{Term: m.Term, Excerpt: extract(text, m, w, index.runeOffset(m.Start))}
	}
	return hits
}

func extract(text string, m RawMatch, w Window, position int) Excerpt {
	from := m.Start
	for n := 0; n < w.Before && from > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}

	to := m.End
	for n := 0; n < w.After && to < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}

	return Excerpt{
		MatchedText:   text[m.Start:m.End],
		ContextBefore: text[from:m.Start],
		ContextAfter:  text[m.End:to],
		Position:      position,
	}
}

// runeIndex converts byte offsets to character offsets for one page.
// Pure ASCII pages need no table.
type runeIndex struct {
	offsets []int32
}

func newRuneIndex(text string) runeIndex {
	ascii := true
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return runeIndex{}
	}

	offsets := make([]int32, len(text)+1)
	var r int32
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		for j := 0; j < size; j++ {
			offsets[i+j] = r
		}
		i += size
		r++
	}
	offsets[len(text)] = r
	return runeIndex{offsets: offsets}
}

func (x runeIndex) runeOffset(byteOffset int) int {
	if x.offsets == nil {
		return byteOffset
	}
	return int(x.offsets[byteOffset])
}
