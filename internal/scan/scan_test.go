package scan

import (
	"reflect"
	"strings"
	"testing"

	"github.com/sha1n/docscan/internal/terms"
)

func TestPage_DigitScenario(t *testing.T) {
	set := terms.MustNew(terms.Definition{Name: "digit", Pattern: `\d+`})

	hits := Page("abc123def456", set, Window{Before: 2, After: 2}, Options{})

	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}

	want := []Hit{
		{Term: "digit", Excerpt: Excerpt{MatchedText: "123", ContextBefore: "bc", ContextAfter: "de", Position: 3}},
		{Term: "digit", Excerpt: Excerpt{MatchedText: "456", ContextBefore: "ef", ContextAfter: "", Position: 9}},
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Errorf("hit %d = %+v, want %+v", i, hits[i], want[i])
		}
	}
}

func TestScan_TermOrderThenPosition(t *testing.T) {
	set := terms.MustNew(
		terms.Definition{Name: "word", Pattern: `[a-z]+`},
		terms.Definition{Name: "num", Pattern: `\d+`},
	)

	raw := Scan("1 ab 22 cd", set, Options{})

	want := []RawMatch{
		{Term: "word", Start: 2, End: 4},
		{Term: "word", Start: 8, End: 10},
		{Term: "num", Start: 0, End: 1},
		{Term: "num", Start: 5, End: 7},
	}
	if len(raw) != len(want) {
		t.Fatalf("Expected %d matches, got %d: %+v", len(want), len(raw), raw)
	}
	for i := range want {
		if raw[i] != want[i] {
			t.Errorf("match %d = %+v, want %+v", i, raw[i], want[i])
		}
	}
}

func TestScan_OverlappingTermsReportedIndependently(t *testing.T) {
	set := terms.MustNew(
		terms.Definition{Name: "phone", Pattern: `\d{3}-\d{4}`},
		terms.Definition{Name: "number", Pattern: `\d{3}-\d{4}`},
	)

	raw := Scan("call 555-1234 now", set, Options{})
	if len(raw) != 2 {
		t.Fatalf("Expected 2 independent matches, got %d", len(raw))
	}
	if raw[0].Term != "phone" || raw[1].Term != "number" {
		t.Errorf("Unexpected term order: %+v", raw)
	}
	if raw[0].Start != raw[1].Start || raw[0].End != raw[1].End {
		t.Errorf("Expected identical spans: %+v", raw)
	}
}

func TestScan_DedupeDropsIdenticalSpans(t *testing.T) {
	set := terms.MustNew(
		terms.Definition{Name: "phone", Pattern: `\d{3}-\d{4}`},
		terms.Definition{Name: "number", Pattern: `\d{3}-\d{4}`},
		terms.Definition{Name: "digits", Pattern: `\d+`},
	)

	raw := Scan("call 555-1234 now", set, Options{Dedupe: true})

	// digits matches 555 and 1234, neither identical to the phone span
	if len(raw) != 3 {
		t.Fatalf("Expected 3 matches after dedupe, got %d: %+v", len(raw), raw)
	}
	if raw[0].Term != "phone" || raw[1].Term != "digits" {
		t.Errorf("Unexpected matches: %+v", raw)
	}
}

func TestScan_NonOverlappingWithinTerm(t *testing.T) {
	set := terms.MustNew(terms.Definition{Name: "aa", Pattern: `aa`})

	raw := Scan("aaaaa", set, Options{})
	if len(raw) != 2 {
		t.Fatalf("Expected 2 non-overlapping matches, got %d", len(raw))
	}
	if raw[1].Start != 2 {
		t.Errorf("Second match should start at 2, got %d", raw[1].Start)
	}
}

func TestScan_EmptyMatches(t *testing.T) {
	tests := []struct {
		text string
		want [][2]int
	}{
		{text: "a1", want: [][2]int{{0, 0}, {1, 2}}},
		{text: "12", want: [][2]int{{0, 2}}},
		{text: "ab", want: [][2]int{{0, 0}, {1, 1}, {2, 2}}},
		{text: "", want: [][2]int{{0, 0}}},
	}

	set := terms.MustNew(terms.Definition{Name: "digits", Pattern: `\d*`})
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var got [][2]int
			for _, m := range Scan(tt.text, set, Options{}) {
				got = append(got, [2]int{m.Start, m.End})
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Scan(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestScan_NoMatches(t *testing.T) {
	set := terms.MustNew(terms.Definition{Name: "x", Pattern: `xyz`})
	if raw := Scan("nothing here", set, Options{}); len(raw) != 0 {
		t.Errorf("Expected no matches, got %+v", raw)
	}
	if hits := Page("nothing here", set, Window{}, Options{}); hits != nil {
		t.Errorf("Expected nil hits, got %+v", hits)
	}
}

func TestExtract_Clamping(t *testing.T) {
	text := "SSN 123-45-6789"

	tests := []struct {
		name       string
		match      RawMatch
		window     Window
		wantBefore string
		wantAfter  string
	}{
		{"at page start", RawMatch{Start: 0, End: 3}, Window{Before: 10, After: 2}, "", " 1"},
		{"at page end", RawMatch{Start: 4, End: 15}, Window{Before: 2, After: 10}, "N ", ""},
		{"zero window", RawMatch{Start: 4, End: 7}, Window{}, "", ""},
		{"exact window", RawMatch{Start: 4, End: 7}, Window{Before: 4, After: 1}, "SSN ", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := Extract(text, tt.match, tt.window)
			if ex.ContextBefore != tt.wantBefore {
				t.Errorf("ContextBefore = %q, want %q", ex.ContextBefore, tt.wantBefore)
			}
			if ex.ContextAfter != tt.wantAfter {
				t.Errorf("ContextAfter = %q, want %q", ex.ContextAfter, tt.wantAfter)
			}
			if ex.MatchedText != text[tt.match.Start:tt.match.End] {
				t.Errorf("MatchedText = %q", ex.MatchedText)
			}
		})
	}
}

func TestExtract_MultiByteText(t *testing.T) {
	text := "Größe: 42 €"
	start := strings.Index(text, "42")

	ex := Extract(text, RawMatch{Start: start, End: start + 2}, Window{Before: 3, After: 2})

	if ex.MatchedText != "42" {
		t.Errorf("MatchedText = %q", ex.MatchedText)
	}
	if ex.ContextBefore != "e: " {
		t.Errorf("ContextBefore = %q, want %q", ex.ContextBefore, "e: ")
	}
	if ex.ContextAfter != " €" {
		t.Errorf("ContextAfter = %q, want %q", ex.ContextAfter, " €")
	}
	if ex.Position != 7 {
		t.Errorf("Position = %d, want 7 characters", ex.Position)
	}
}

func TestPage_PositionIsCharacterOffset(t *testing.T) {
	set := terms.MustNew(
		terms.Definition{Name: "amount", Pattern: `\d+ €`},
		terms.Definition{Name: "word", Pattern: `größe`},
	)
	text := "Überblick: Größe 12 €, Größe 7 €"

	hits := Page(text, set, Window{Before: 5, After: 5}, Options{})
	if len(hits) != 4 {
		t.Fatalf("Expected 4 hits, got %d", len(hits))
	}

	runes := []rune(text)
	for _, h := range hits {
		n := len([]rune(h.MatchedText))
		if got := string(runes[h.Position : h.Position+n]); got != h.MatchedText {
			t.Errorf("text at position %d = %q, want %q", h.Position, got, h.MatchedText)
		}
		if len([]rune(h.ContextBefore)) > 5 || len([]rune(h.ContextAfter)) > 5 {
			t.Errorf("context exceeds window: %+v", h)
		}
	}
}

func TestPage_MatchedTextAlwaysAtPosition(t *testing.T) {
	set := terms.MustNew(
		terms.Definition{Name: "email", Pattern: `[\w.]+@[\w.]+`},
		terms.Definition{Name: "digits", Pattern: `\d+`},
		terms.Definition{Name: "anchor", Pattern: `^\w+`},
	)
	pages := []string{
		"contact: a.b@example.com or 555 0100",
		"line one\nline two 2\nthree",
		"",
		"日本語 テキスト 123 メール x@y.jp",
	}

	for _, text := range pages {
		runes := []rune(text)
		for _, h := range Page(text, set, Window{Before: 3, After: 3}, Options{}) {
			n := len([]rune(h.MatchedText))
			if h.Position+n > len(runes) {
				t.Fatalf("position %d out of range for %q", h.Position, text)
			}
			if got := string(runes[h.Position : h.Position+n]); got != h.MatchedText {
				t.Errorf("%q: text at %d = %q, want %q", text, h.Position, got, h.MatchedText)
			}
		}
	}
}
