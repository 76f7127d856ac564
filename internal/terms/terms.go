// Package terms loads and compiles the named regular expressions a job searches for.
package terms

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptyTermSet is returned when a term source defines no terms.
var ErrEmptyTermSet error = EmptyTermSetError{}

// ErrEmptyName is returned when a term definition has no name.
var ErrEmptyName = errors.New("term name cannot be empty")

// InvalidPatternError reports a pattern that does not compile.
type InvalidPatternError struct {
	Name    string
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern for term %q (%s): %v", e.Name, e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}

// DuplicateTermError reports a term name defined more than once in one source.
type DuplicateTermError struct {
	Name string
}

func (e *DuplicateTermError) Error() string {
	return fmt.Sprintf("duplicate term name: %q", e.Name)
}

// EmptyTermSetError reports a term source without any terms.
type EmptyTermSetError struct{}

func (EmptyTermSetError) Error() string {
	return "term list defines no search terms"
}

// Definition is an uncompiled (name, pattern) pair as read from a term source.
type Definition struct {
	Name    string `json:"name" yaml:"name"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// Options controls pattern compilation.
type Options struct {
	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool
}

// Term is a named, compiled pattern.
type Term struct {
	Name    string
	Pattern string
	re      *regexp.Regexp
}

// Regexp returns the compiled pattern.
func (t Term) Regexp() *regexp.Regexp {
	return t.re
}

// Set is an ordered, immutable collection of compiled terms.
type Set struct {
	terms []Term
	index map[string]int
}

// New compiles the definitions into a Set, keeping their order.
// The whole list is rejected if any pattern fails to compile, a name repeats,
// or the list is empty.
func New(defs []Definition, opts Options) (*Set, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyTermSet
	}

	flags := "(?im)"
	if opts.CaseSensitive {
		flags = "(?m)"
	}

	set := &Set{
		terms: make([]Term, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for i, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, fmt.Errorf("term %d: %w", i+1, ErrEmptyName)
		}
		if _, exists := set.index[name]; exists {
			return nil, &DuplicateTermError{Name: name}
		}

		re, err := regexp.Compile(flags + def.Pattern)
		if err != nil {
			return nil, &InvalidPatternError{Name: name, Pattern: def.Pattern, Err: err}
		}

		set.index[name] = len(set.terms)
		set.terms = append(set.terms, Term{Name: name, Pattern: def.Pattern, re: re})
	}

	return set, nil
}

// MustNew is like New but panics on error. Intended for tests and static term lists.
func MustNew(defs ...Definition) *Set {
	set, err := New(defs, Options{})
	if err != nil {
		panic(err)
	}
	return set
}

// Len returns the number of terms.
func (s *Set) Len() int {
	return len(s.terms)
}

// At returns the i-th term in definition order.
func (s *Set) At(i int) Term {
	return s.terms[i]
}

// Terms returns a copy of the terms in definition order.
func (s *Set) Terms() []Term {
	out := make([]Term, len(s.terms))
	copy(out, s.terms)
	return out
}

// Names returns the term names in definition order.
func (s *Set) Names() []string {
	names := make([]string, len(s.terms))
	for i, t := range s.terms {
		names[i] = t.Name
	}
	return names
}

// Lookup returns the term with the given name.
func (s *Set) Lookup(name string) (Term, bool) {
	i, ok := s.index[name]
	if !ok {
		return Term{}, false
	}
	return s.terms[i], true
}
