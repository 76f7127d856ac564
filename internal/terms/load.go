package terms

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the structural format of a term source.
type Format string

// Supported term source formats
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat is returned for term files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported term list format")

// Header names recognized in the first row of a CSV term list.
var (
	csvNameHeaders    = []string{"term_name", "name", "term"}
	csvPatternHeaders = []string{"pattern", "regex", "regex_pattern"}
)

// FormatFromPath infers the term source format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (use .json, .csv or .yaml)", ErrUnsupportedFormat, ext)
	}
}

// LoadFile reads, parses and compiles a term list file.
func LoadFile(path string, opts Options) (*Set, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open term list: %w", err)
	}
	defer func() { _ = f.Close() }()

	defs, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse term list %s: %w", path, err)
	}

	return New(defs, opts)
}

// Parse reads the ordered term definitions from r.
func Parse(r io.Reader, format Format) ([]Definition, error) {
	switch format {
	case FormatJSON:
		return parseJSON(r)
	case FormatCSV:
		return parseCSV(r)
	case FormatYAML:
		return parseYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// keyValue is one member of a JSON or YAML object, in document order.
type keyValue struct {
	key   string
	value any
}

// parseJSON accepts an object of name->pattern or an array of records.
// Objects are read token by token so member order and repeated keys survive.
func parseJSON(r io.Reader) ([]Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, errors.New("JSON term list must contain an object or array")
	}

	switch delim {
	case '{':
		members, err := readJSONMembers(dec)
		if err != nil {
			return nil, err
		}
		defs := make([]Definition, 0, len(members))
		for _, m := range members {
			pattern, ok := m.value.(string)
			if !ok {
				return nil, fmt.Errorf("pattern for term %q must be a string", m.key)
			}
			defs = append(defs, Definition{Name: m.key, Pattern: pattern})
		}
		return defs, nil

	case '[':
		var defs []Definition
		for i := 0; dec.More(); i++ {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("invalid JSON: %w", err)
			}
			itemDec := json.NewDecoder(bytes.NewReader(raw))
			if tok, err := itemDec.Token(); err != nil || tok != json.Delim('{') {
				return nil, fmt.Errorf("term list item %d must be an object", i+1)
			}
			members, err := readJSONMembers(itemDec)
			if err != nil {
				return nil, err
			}
			def, err := recordDefinition(members)
			if err != nil {
				return nil, fmt.Errorf("term list item %d: %w", i+1, err)
			}
			defs = append(defs, def)
		}
		return defs, nil

	default:
		return nil, errors.New("JSON term list must contain an object or array")
	}
}

// readJSONMembers reads object members after the opening brace has been consumed.
func readJSONMembers(dec *json.Decoder) ([]keyValue, error) {
	var members []keyValue
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, _ := tok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid JSON value for %q: %w", key, err)
		}
		members = append(members, keyValue{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return members, nil
}

// recordDefinition maps one array record to a definition. It understands
// {name, pattern} and {term, regex}, and otherwise uses the first two members.
func recordDefinition(members []keyValue) (Definition, error) {
	lookup := func(key string) (string, bool) {
		for _, m := range members {
			if m.key == key {
				s, ok := m.value.(string)
				return s, ok
			}
		}
		return "", false
	}

	if name, ok := lookup("name"); ok {
		if pattern, ok := lookup("pattern"); ok {
			return Definition{Name: name, Pattern: pattern}, nil
		}
	}
	if name, ok := lookup("term"); ok {
		if pattern, ok := lookup("regex"); ok {
			return Definition{Name: name, Pattern: pattern}, nil
		}
	}

	if len(members) < 2 {
		return Definition{}, errors.New("record needs a name and a pattern")
	}
	name, nameOK := members[0].value.(string)
	pattern, patternOK := members[1].value.(string)
	if !nameOK || !patternOK {
		return Definition{}, errors.New("record name and pattern must be strings")
	}
	return Definition{Name: name, Pattern: pattern}, nil
}

// parseCSV reads term_name,pattern rows. A recognized header row is skipped,
// as are rows with fewer than two columns or an empty cell.
func parseCSV(r io.Reader) ([]Definition, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var defs []Definition
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid CSV: %w", err)
		}
		if len(record) < 2 {
			continue
		}

		name := strings.TrimSpace(record[0])
		pattern := strings.TrimSpace(record[1])
		if row == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
			if isCSVHeader(name, pattern) {
				continue
			}
		}
		if name == "" || pattern == "" {
			continue
		}
		defs = append(defs, Definition{Name: name, Pattern: pattern})
	}
	return defs, nil
}

func isCSVHeader(name, pattern string) bool {
	return containsFold(csvNameHeaders, name) && containsFold(csvPatternHeaders, pattern)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// parseYAML accepts a mapping of name->pattern or a sequence of records.
// The node tree is walked directly so mapping order and repeated keys survive.
func parseYAML(r io.Reader) ([]Definition, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		members, err := yamlMembers(root)
		if err != nil {
			return nil, err
		}
		defs := make([]Definition, 0, len(members))
		for _, m := range members {
			pattern, ok := m.value.(string)
			if !ok {
				return nil, fmt.Errorf("pattern for term %q must be a string", m.key)
			}
			defs = append(defs, Definition{Name: m.key, Pattern: pattern})
		}
		return defs, nil

	case yaml.SequenceNode:
		defs := make([]Definition, 0, len(root.Content))
		for i, item := range root.Content {
			if item.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("term list item %d must be a mapping", i+1)
			}
			members, err := yamlMembers(item)
			if err != nil {
				return nil, err
			}
			def, err := recordDefinition(members)
			if err != nil {
				return nil, fmt.Errorf("term list item %d: %w", i+1, err)
			}
			defs = append(defs, def)
		}
		return defs, nil

	default:
		return nil, errors.New("YAML term list must contain a mapping or sequence")
	}
}

func yamlMembers(node *yaml.Node) ([]keyValue, error) {
	members := make([]keyValue, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		var value any
		if valueNode.Kind == yaml.ScalarNode {
			// Null stays nil so it fails like a JSON null instead of loading as ""
			if valueNode.ShortTag() != "!!null" {
				value = valueNode.Value
			}
		} else if err := valueNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid YAML value for %q: %w", keyNode.Value, err)
		}
		members = append(members, keyValue{key: keyNode.Value, value: value})
	}
	return members, nil
}
