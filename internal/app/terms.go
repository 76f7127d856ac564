package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/sha1n/docscan/internal/terms"
)

// RunValidateTerms loads and compiles a term list without scanning anything,
// then prints the terms in match order.
func RunValidateTerms(flags *pflag.FlagSet, out io.Writer) error {
	path, _ := flags.GetString("term-list")
	if path == "" {
		return errors.New("term-list is required")
	}
	caseSensitive, _ := flags.GetBool("case-sensitive")

	set, err := terms.LoadFile(path, terms.Options{CaseSensitive: caseSensitive})
	if err != nil {
		return fmt.Errorf("invalid term list: %w", err)
	}

	_, _ = fmt.Fprintf(out, "%s: %d terms OK\n", path, set.Len())
	for i, t := range set.Terms() {
		_, _ = fmt.Fprintf(out, "%3d. %s  %s\n", i+1, t.Name, t.Pattern)
	}
	return nil
}
