// Package parser splits YAML frontmatter from Markdown content and derives a
// document title.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is one top-level frontmatter entry, in document order.
type Field struct {
	Key   string
	Value string
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Fields      []Field
	Body        string
	Title       string
}

// Parse extracts frontmatter, body and title from raw Markdown bytes.
func Parse(data []byte) *Result {
	fm, fields, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Fields:      fields,
		Body:        body,
		Title:       deriveTitle(fm, body),
	}
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no valid frontmatter is found the entire content
// is body.
func splitFrontmatter(data []byte) (map[string]any, []Field, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim+"\n")) && !bytes.HasPrefix(trimmed, []byte(delim+"\r\n")) {
		return nil, nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var doc yaml.Node
	if err := yaml.Unmarshal(yamlBlock, &doc); err != nil {
		return nil, nil, string(data)
	}
	var fm map[string]any
	if err := doc.Decode(&fm); err != nil {
		return nil, nil, string(data)
	}
	return fm, orderedFields(&doc, fm), body
}

func orderedFields(doc *yaml.Node, fm map[string]any) []Field {
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil
	}
	m := doc.Content[0]
	out := make([]Field, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		key := m.Content[i].Value
		out = append(out, Field{Key: key, Value: formatValue(fm[key])})
	}
	return out
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading outside code fences, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if t, ok := fm["title"].(string); ok && t != "" {
		return t
	}
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
