package terms

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTermFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"terms.json", FormatJSON, false},
		{"TERMS.JSON", FormatJSON, false},
		{"terms.csv", FormatCSV, false},
		{"terms.yaml", FormatYAML, false},
		{"terms.yml", FormatYAML, false},
		{"terms.txt", "", true},
		{"terms", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_JSONObjectKeepsOrder(t *testing.T) {
	defs, err := Parse(strings.NewReader(`{"zip": "\\d{5}", "email": "\\S+@\\S+", "amount": "\\$\\d+"}`), FormatJSON)
	require.NoError(t, err)

	require.Len(t, defs, 3)
	assert.Equal(t, Definition{Name: "zip", Pattern: `\d{5}`}, defs[0])
	assert.Equal(t, "email", defs[1].Name)
	assert.Equal(t, "amount", defs[2].Name)
}

func TestParse_JSONObjectRepeatedKeyIsDuplicate(t *testing.T) {
	defs, err := Parse(strings.NewReader(`{"a": "x", "a": "y"}`), FormatJSON)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	_, err = New(defs, Options{})
	var dupErr *DuplicateTermError
	assert.True(t, errors.As(err, &dupErr))
}

func TestParse_JSONObjectNonStringPattern(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"a": 5}`), FormatJSON)
	assert.Error(t, err)
}

func TestParse_JSONArrayRecords(t *testing.T) {
	input := `[
		{"name": "email", "pattern": "\\S+@\\S+"},
		{"term": "phone", "regex": "\\d{3}-\\d{4}"},
		{"label": "ssn", "expr": "\\d{3}-\\d{2}-\\d{4}"}
	]`

	defs, err := Parse(strings.NewReader(input), FormatJSON)
	require.NoError(t, err)

	require.Len(t, defs, 3)
	assert.Equal(t, Definition{Name: "email", Pattern: `\S+@\S+`}, defs[0])
	assert.Equal(t, Definition{Name: "phone", Pattern: `\d{3}-\d{4}`}, defs[1])
	assert.Equal(t, Definition{Name: "ssn", Pattern: `\d{3}-\d{2}-\d{4}`}, defs[2])
}

func TestParse_JSONArrayNonObjectItem(t *testing.T) {
	_, err := Parse(strings.NewReader(`["email"]`), FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")
}

func TestParse_JSONArrayIncompleteRecord(t *testing.T) {
	_, err := Parse(strings.NewReader(`[{"name": "only"}]`), FormatJSON)
	assert.Error(t, err)
}

func TestParse_JSONScalarRejected(t *testing.T) {
	_, err := Parse(strings.NewReader(`"nope"`), FormatJSON)
	assert.Error(t, err)
}

func TestParse_JSONMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"a": `), FormatJSON)
	assert.Error(t, err)
}

func TestParse_CSVWithHeader(t *testing.T) {
	input := "term_name,pattern\nemail,\\S+@\\S+\nzip, \\d{5}\n"

	defs, err := Parse(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)

	require.Len(t, defs, 2)
	assert.Equal(t, Definition{Name: "email", Pattern: `\S+@\S+`}, defs[0])
	assert.Equal(t, Definition{Name: "zip", Pattern: `\d{5}`}, defs[1])
}

func TestParse_CSVWithoutHeader(t *testing.T) {
	defs, err := Parse(strings.NewReader("email,@\nzip,\\d{5}\n"), FormatCSV)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "email", defs[0].Name)
}

func TestParse_CSVSkipsShortAndEmptyRows(t *testing.T) {
	input := "name,regex\nlonely\n,\\d+\nempty,\nok,x\n"

	defs, err := Parse(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, []Definition{{Name: "ok", Pattern: "x"}}, defs)
}

func TestParse_CSVQuotedPatternWithComma(t *testing.T) {
	defs, err := Parse(strings.NewReader("amount,\"\\d{1,3}(,\\d{3})*\"\n"), FormatCSV)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, `\d{1,3}(,\d{3})*`, defs[0].Pattern)
}

func TestParse_CSVByteOrderMark(t *testing.T) {
	defs, err := Parse(strings.NewReader("\ufeffterm_name,pattern\na,b\n"), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, []Definition{{Name: "a", Pattern: "b"}}, defs)
}

func TestParse_YAMLMapping(t *testing.T) {
	input := "zip: '\\d{5}'\nemail: '\\S+@\\S+'\n"

	defs, err := Parse(strings.NewReader(input), FormatYAML)
	require.NoError(t, err)

	require.Len(t, defs, 2)
	assert.Equal(t, Definition{Name: "zip", Pattern: `\d{5}`}, defs[0])
	assert.Equal(t, "email", defs[1].Name)
}

func TestParse_YAMLSequence(t *testing.T) {
	input := "- name: email\n  pattern: '\\S+@\\S+'\n- term: zip\n  regex: '\\d{5}'\n"

	defs, err := Parse(strings.NewReader(input), FormatYAML)
	require.NoError(t, err)

	require.Len(t, defs, 2)
	assert.Equal(t, Definition{Name: "email", Pattern: `\S+@\S+`}, defs[0])
	assert.Equal(t, Definition{Name: "zip", Pattern: `\d{5}`}, defs[1])
}

func TestParse_YAMLNullPatternRejected(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty mapping value", input: "ssn:\nemail: '@'\n"},
		{name: "tilde mapping value", input: "ssn: ~\n"},
		{name: "flow record", input: "- {name: ssn, pattern: ~}\n"},
		{name: "block record", input: "- name: ssn\n  pattern: null\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs, err := Parse(strings.NewReader(tt.input), FormatYAML)
			assert.Error(t, err)
			assert.Empty(t, defs)
		})
	}
}

func TestParse_YAMLQuotedNullIsString(t *testing.T) {
	defs, err := Parse(strings.NewReader("tilde: '~'\nword: 'null'\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []Definition{{Name: "tilde", Pattern: "~"}, {Name: "word", Pattern: "null"}}, defs)
}

func TestParse_YAMLEmpty(t *testing.T) {
	defs, err := Parse(strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestParse_YAMLScalarRejected(t *testing.T) {
	_, err := Parse(strings.NewReader("just text\n"), FormatYAML)
	assert.Error(t, err)
}

func TestParse_UnknownFormat(t *testing.T) {
	_, err := Parse(strings.NewReader("{}"), Format("xml"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeTermFile(t, "terms.json", `{"digit": "\\d+"}`)

	set, err := LoadFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"digit"}, set.Names())
}

func TestLoadFile_DuplicateInJSONArray(t *testing.T) {
	path := writeTermFile(t, "terms.json", `[
		{"name": "email", "pattern": "@"},
		{"name": "email", "pattern": "mail"}
	]`)

	_, err := LoadFile(path, Options{})
	var dupErr *DuplicateTermError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "email", dupErr.Name)
}

func TestLoadFile_EmptyObject(t *testing.T) {
	path := writeTermFile(t, "terms.json", `{}`)

	_, err := LoadFile(path, Options{})
	assert.True(t, errors.Is(err, ErrEmptyTermSet))
}

func TestLoadFile_CSVHeaderOnly(t *testing.T) {
	path := writeTermFile(t, "terms.csv", "term_name,pattern\n")

	_, err := LoadFile(path, Options{})
	assert.True(t, errors.Is(err, ErrEmptyTermSet))
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := writeTermFile(t, "terms.txt", "a,b")

	_, err := LoadFile(path, Options{})
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoadFile_InvalidPattern(t *testing.T) {
	path := writeTermFile(t, "terms.yaml", "good: 'x'\nbad: '[z-a]'\n")

	_, err := LoadFile(path, Options{})
	var patternErr *InvalidPatternError
	require.True(t, errors.As(err, &patternErr))
	assert.Equal(t, "bad", patternErr.Name)
}
