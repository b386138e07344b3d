// Package frontmatter splits markdown files into their YAML front matter
// and body, and edits single front-matter fields in place.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrNoFrontmatter is returned by SetField for content without a front
// matter block.
var ErrNoFrontmatter = errors.New("no front matter block")

// Document is a parsed markdown file. Scalar values are kept as written;
// sequences become []string or []interface{} and mappings nest.
type Document struct {
	Fields         map[string]interface{}
	Body           string
	HasFrontmatter bool
}

// Get returns a field rendered as a string, or "" when absent.
func (d Document) Get(key string) string {
	v, ok := d.Fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Parse reads a whole document from r.
func Parse(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	return ParseString(string(data)), nil
}

// ParseString splits content into front matter and body. Front matter that
// is not valid YAML is read line by line as "key: value" pairs so loosely
// written planning files still yield their metadata.
func ParseString(content string) Document {
	doc := Document{Fields: map[string]interface{}{}, Body: strings.TrimSpace(content)}
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return doc
	}
	end := closingLine(lines)
	if end < 0 {
		return doc
	}

	raw := strings.Join(lines[1:end], "\n")
	doc.HasFrontmatter = true
	doc.Body = strings.TrimSpace(strings.Join(lines[end+1:], "\n"))

	if fields, err := decodeYAML(raw); err == nil {
		doc.Fields = fields
	} else {
		doc.Fields = decodeLines(raw)
	}
	return doc
}

// SetField replaces the value of a top-level key in the front matter,
// appending the key when it is missing. The rest of the file is untouched.
func SetField(content, key, value string) (string, error) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return "", ErrNoFrontmatter
	}
	end := closingLine(lines)
	if end < 0 {
		return "", ErrNoFrontmatter
	}

	prefix := key + ":"
	for i := 1; i < end; i++ {
		if strings.HasPrefix(lines[i], prefix) {
			lines[i] = prefix + " " + value
			return strings.Join(lines, "\n"), nil
		}
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:end]...)
	out = append(out, prefix+" "+value)
	out = append(out, lines[end:]...)
	return strings.Join(out, "\n"), nil
}

func closingLine(lines []string) int {
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t\r") == delimiter {
			return i
		}
	}
	return -1
}

func decodeYAML(raw string) (map[string]interface{}, error) {
	var root yaml.Node
	dec := yaml.NewDecoder(bytes.NewBufferString(raw))
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return map[string]interface{}{}, nil
		}
		return nil, err
	}
	if len(root.Content) == 0 {
		return map[string]interface{}{}, nil
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("front matter is not a mapping")
	}
	return nodeMap(mapping), nil
}

func nodeMap(n *yaml.Node) map[string]interface{} {
	out := make(map[string]interface{}, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[n.Content[i].Value] = nodeValue(n.Content[i+1])
	}
	return out
}

func nodeValue(n *yaml.Node) interface{} {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil
		}
		return n.Value
	case yaml.SequenceNode:
		scalars := make([]string, 0, len(n.Content))
		mixed := make([]interface{}, 0, len(n.Content))
		allScalar := true
		for _, c := range n.Content {
			v := nodeValue(c)
			mixed = append(mixed, v)
			if s, ok := v.(string); ok {
				scalars = append(scalars, s)
			} else {
				allScalar = false
			}
		}
		if allScalar {
			return scalars
		}
		return mixed
	case yaml.MappingNode:
		return nodeMap(n)
	case yaml.AliasNode:
		if n.Alias != nil {
			return nodeValue(n.Alias)
		}
	}
	return nil
}

func decodeLines(raw string) map[string]interface{} {
	out := map[string]interface{}{}
	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}
