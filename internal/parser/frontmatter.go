// Package parser handles parsing skill manifests (frontmatter + markdown body).
package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is a single top-level `key: value` line from a frontmatter block.
type Field struct {
	Key string
	// Raw is the value text exactly as written, trimmed of surrounding whitespace.
	Raw string
	// Value is Raw with one layer of matching quotes removed.
	Value string
	// Line is the 1-indexed line number in the file.
	Line int
}

// Frontmatter represents a `---` delimited block at the top of a manifest.
type Frontmatter struct {
	// Raw is the text between the delimiters.
	Raw string

	// Fields are the top-level scalar lines in order of appearance.
	Fields []Field

	// Closed reports whether a closing delimiter was found.
	Closed bool

	// EndLine is the 1-indexed line of the closing delimiter (0 when unclosed).
	EndLine int
}

// Get returns the unquoted value of the first field named key.
func (fm *Frontmatter) Get(key string) (string, bool) {
	if fm == nil {
		return "", false
	}
	for _, f := range fm.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Decode unmarshals the block with yaml.v3.
func (fm *Frontmatter) Decode(out interface{}) error {
	if fm == nil {
		return nil
	}
	if err := yaml.Unmarshal([]byte(fm.Raw), out); err != nil {
		return fmt.Errorf("failed to parse frontmatter as YAML: %w", err)
	}
	return nil
}

// Document is a manifest split into frontmatter and body.
type Document struct {
	Frontmatter *Frontmatter // nil when the file has no frontmatter

	Body string

	// BodyStartLine is the 1-indexed file line where Body begins.
	BodyStartLine int
}

// FrontmatterBounds returns the opening and closing frontmatter line indices.
// It only detects frontmatter when the first line is '---'.
// If frontmatter is present but unclosed, endLine is -1.
func FrontmatterBounds(lines []string) (startLine int, endLine int, ok bool) {
	if len(lines) == 0 || strings.TrimSpace(strings.TrimPrefix(lines[0], "\ufeff")) != "---" {
		return 0, -1, false
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return 0, i, true
		}
	}

	return 0, -1, true
}

// ParseDocument splits manifest content into frontmatter and body.
//
// It never fails: an unclosed block is reported with Closed=false and the whole
// file is treated as body. Field extraction is line based so that manifests
// that are not valid YAML still expose their keys.
func ParseDocument(content string) *Document {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	_, endLine, ok := FrontmatterBounds(lines)
	if !ok {
		return &Document{Body: content, BodyStartLine: 1}
	}
	if endLine == -1 {
		fm := &Frontmatter{Raw: strings.Join(lines[1:], "\n")}
		return &Document{Frontmatter: fm, Body: content, BodyStartLine: 1}
	}

	fm := &Frontmatter{
		Raw:     strings.Join(lines[1:endLine], "\n"),
		Closed:  true,
		EndLine: endLine + 1,
	}
	for i := 1; i < endLine; i++ {
		if f, ok := parseFieldLine(lines[i], i+1); ok {
			fm.Fields = append(fm.Fields, f)
		}
	}

	return &Document{
		Frontmatter:   fm,
		Body:          strings.Join(lines[endLine+1:], "\n"),
		BodyStartLine: endLine + 2,
	}
}

func parseFieldLine(line string, lineNo int) (Field, bool) {
	if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' || line[0] == '-' {
		return Field{}, false
	}
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return Field{}, false
	}
	key := strings.TrimSpace(line[:idx])
	if key == "" || strings.ContainsAny(key, " \t") {
		return Field{}, false
	}
	raw := strings.TrimSpace(line[idx+1:])
	return Field{Key: key, Raw: raw, Value: unquote(raw), Line: lineNo}, true
}

func unquote(raw string) string {
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			var s string
			if err := yaml.Unmarshal([]byte(raw), &s); err == nil {
				return s
			}
			return raw[1 : len(raw)-1]
		}
	}
	if i := strings.Index(raw, " #"); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	return raw
}

// SetField sets a top-level scalar in the manifest's frontmatter, preserving
// every other line. A minimal frontmatter block is created when none exists.
func SetField(content, key, value string) (string, error) {
	encoded, err := encodeScalar(value)
	if err != nil {
		return "", err
	}
	newLine := key + ": " + encoded

	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")
	_, endLine, ok := FrontmatterBounds(lines)
	if !ok || endLine == -1 {
		body := strings.TrimLeft(normalized, "\n")
		if ok && endLine == -1 {
			// An unclosed block is kept as body text rather than guessed at.
			body = normalized
		}
		return "---\n" + newLine + "\n---\n\n" + body, nil
	}

	for i := 1; i < endLine; i++ {
		if f, ok := parseFieldLine(lines[i], i+1); ok && f.Key == key {
			lines[i] = newLine
			return strings.Join(lines, "\n"), nil
		}
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[0], newLine)
	out = append(out, lines[1:]...)
	return strings.Join(out, "\n"), nil
}

func encodeScalar(value string) (string, error) {
	data, err := yaml.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode frontmatter value: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
