package check

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/skillsync/internal/parser"
	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/slugs"
)

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// validateCodex checks that codex can load rec from its target path.
func (v *Validator) validateCodex(result *Result, rec *skills.Record) {
	target := v.layout.CodexTargetPath(rec)

	if !declaresTarget(rec, target) {
		result.add(Issue{
			Code:    CodeCodexNotDeclared,
			Message: "skill has no codex target path",
			Details: target,
		})
		return
	}

	info, err := os.Lstat(target)
	if err != nil {
		result.add(Issue{
			Code:    CodeCodexMissingOnDisk,
			Message: "codex target path does not exist",
			Details: target,
		})
		return
	}
	if info.Mode()&os.ModeSymlink != 0 {
		if _, err := os.Stat(target); err != nil {
			result.add(Issue{
				Code:    CodeCodexBrokenSymlink,
				Message: "codex target is a broken symlink",
				Details: fmt.Sprintf("%s -> %s", target, linkTarget(target)),
			})
			return
		}
	}

	manifest := skills.ManifestPath(target, rec.PackageType)
	mInfo, err := os.Stat(manifest)
	if err != nil || mInfo.IsDir() {
		result.add(Issue{
			Code:       CodeCodexMissingManifest,
			Message:    "codex target has no SKILL.md",
			SourceFile: manifest,
		})
		return
	}
	data, err := os.ReadFile(manifest)
	if err != nil {
		result.add(Issue{
			Code:       CodeCodexMissingManifest,
			Message:    "codex target SKILL.md cannot be read",
			SourceFile: manifest,
			Details:    err.Error(),
		})
		return
	}

	doc := parser.ParseDocument(string(data))
	if line, problem, bad := StrictYAMLProblem(doc); bad {
		result.add(Issue{
			Code:       CodeCodexInvalidYAML,
			Message:    "frontmatter is not valid YAML for codex",
			SourceFile: manifest,
			Line:       line,
			Details:    problem,
		})
		return
	}

	name, hasName := doc.Frontmatter.Get("name")
	name = strings.TrimSpace(name)
	if !hasName || name == "" {
		result.add(Issue{
			Code:       CodeMissingFrontmatterName,
			Message:    "frontmatter has no name",
			SourceFile: manifest,
			Line:       1,
		})
	}
	if desc, ok := doc.Frontmatter.Get("description"); !ok || strings.TrimSpace(desc) == "" {
		result.add(Issue{
			Code:       CodeMissingFrontmatterDesc,
			Message:    "frontmatter has no description",
			SourceFile: manifest,
			Line:       1,
		})
	}
	if name != "" {
		if key := slugs.SkillKey(name); key != rec.SkillKey {
			result.add(Issue{
				Code:       CodeNameMismatchSkillKey,
				Message:    fmt.Sprintf("frontmatter name %q does not match skill key %q", name, rec.SkillKey),
				SourceFile: manifest,
				Line:       fieldLine(doc, "name"),
				Details:    key,
			})
		}
	}
}

func declaresTarget(rec *skills.Record, target string) bool {
	if rec.IsArchived() {
		return false
	}
	if rec.CanonicalSourcePath == target {
		return true
	}
	for _, p := range rec.TargetPaths {
		if p == target {
			return true
		}
	}
	return false
}

func fieldLine(doc *parser.Document, key string) int {
	if doc.Frontmatter != nil {
		for _, f := range doc.Frontmatter.Fields {
			if f.Key == key {
				return f.Line
			}
		}
	}
	return 1
}

// StrictYAMLProblem reports the first frontmatter line that a strict YAML
// loader would reject. Documents without frontmatter have no problem.
func StrictYAMLProblem(doc *parser.Document) (line int, problem string, bad bool) {
	fm := doc.Frontmatter
	if fm == nil {
		return 0, "", false
	}
	if !fm.Closed {
		return 1, "frontmatter block is not closed", true
	}

	for _, f := range fm.Fields {
		if problem := scalarProblem(f.Raw); problem != "" {
			return f.Line, problem, true
		}
	}

	var out map[string]interface{}
	if err := yaml.Unmarshal([]byte(fm.Raw), &out); err != nil {
		line := 1
		if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
			if n, convErr := strconv.Atoi(m[1]); convErr == nil {
				// Raw starts on the line after the opening delimiter.
				line = n + 1
			}
		}
		return line, err.Error(), true
	}
	return 0, "", false
}

// scalarProblem inspects one top-level value as written.
func scalarProblem(raw string) string {
	if raw == "" {
		return ""
	}
	switch raw[0] {
	case '|', '>':
		return ""
	case '[', '{':
		end := flowEnd(raw)
		if end < 0 {
			return "unterminated flow collection"
		}
		if rest := strings.TrimSpace(raw[end+1:]); rest != "" && !strings.HasPrefix(rest, "#") {
			return "unquoted text after flow collection; quote the whole value"
		}
		return ""
	case '"', '\'':
		end := quoteEnd(raw)
		if end < 0 {
			return "unterminated quoted string"
		}
		if rest := strings.TrimSpace(raw[end+1:]); rest != "" && !strings.HasPrefix(rest, "#") {
			return "unquoted text after quoted string; quote the whole value"
		}
		return ""
	case '@', '`':
		return fmt.Sprintf("value starts with reserved character %q", raw[0])
	case '-':
		if raw == "-" || strings.HasPrefix(raw, "- ") {
			return "sequence entry on the same line as its key"
		}
	}
	value := raw
	if i := strings.Index(value, " #"); i >= 0 {
		value = value[:i]
	}
	if strings.Contains(value, ": ") || strings.HasSuffix(value, ":") {
		return "unquoted colon in value; quote the whole value"
	}
	return ""
}

// flowEnd returns the index of the bracket closing the flow collection that
// opens raw, or -1.
func flowEnd(raw string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if quote != 0 {
			switch {
			case quote == '"' && c == '\\':
				i++
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// quoteEnd returns the index of the quote closing the scalar that opens raw,
// or -1.
func quoteEnd(raw string) int {
	q := raw[0]
	for i := 1; i < len(raw); i++ {
		c := raw[i]
		if q == '"' && c == '\\' {
			i++
			continue
		}
		if c != q {
			continue
		}
		if q == '\'' && i+1 < len(raw) && raw[i+1] == '\'' {
			i++
			continue
		}
		return i
	}
	return -1
}
