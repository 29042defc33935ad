package check

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aidanlsb/skillsync/internal/atomicfile"
	"github.com/aidanlsb/skillsync/internal/parser"
	"github.com/aidanlsb/skillsync/internal/skills"
)

// Fix repairs the auto-fixable issues in the manifest codex reads for rec and
// returns the codes it addressed. Symlinked targets are fixed at their source.
// Invalid YAML hides the field checks, so fixing runs until nothing fixable
// remains.
func (v *Validator) Fix(rec *skills.Record) ([]Code, error) {
	var fixed []Code
	for round := 0; round < maxFixRounds; round++ {
		var pending []Code
		for _, issue := range v.Validate(rec).Issues {
			if issue.AutoFixable {
				pending = append(pending, issue.Code)
			}
		}
		if len(pending) == 0 {
			break
		}
		if err := v.applyFixes(rec, pending); err != nil {
			return fixed, err
		}
		fixed = append(fixed, pending...)
	}
	return fixed, nil
}

const maxFixRounds = 3

func (v *Validator) applyFixes(rec *skills.Record, pending []Code) error {
	manifest := skills.ManifestPath(v.layout.CodexTargetPath(rec), rec.PackageType)
	real, err := filepath.EvalSymlinks(manifest)
	if err != nil {
		return fmt.Errorf("resolve manifest: %w", err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return fmt.Errorf("stat manifest: %w", err)
	}
	data, err := os.ReadFile(real)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	content := string(data)
	for _, code := range pending {
		switch code {
		case CodeCodexInvalidYAML:
			content, err = quoteProblemValues(content)
		case CodeMissingFrontmatterName, CodeNameMismatchSkillKey:
			content, err = parser.SetField(content, "name", rec.SkillKey)
		case CodeMissingFrontmatterDesc:
			desc := rec.Name
			if desc == "" {
				desc = rec.SkillKey
			}
			content, err = parser.SetField(content, "description", desc)
		}
		if err != nil {
			return fmt.Errorf("fix %s: %w", code, err)
		}
	}

	if err := atomicfile.WriteFile(real, []byte(content), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// quoteProblemValues rewrites every top-level value the strict scan rejects
// as a quoted string holding the text exactly as written.
func quoteProblemValues(content string) (string, error) {
	doc := parser.ParseDocument(content)
	if doc.Frontmatter == nil || !doc.Frontmatter.Closed {
		return "", fmt.Errorf("frontmatter block is not closed")
	}
	for _, f := range doc.Frontmatter.Fields {
		if scalarProblem(f.Raw) == "" {
			continue
		}
		var err error
		if content, err = parser.SetField(content, f.Key, f.Raw); err != nil {
			return "", err
		}
	}
	if line, problem, bad := StrictYAMLProblem(parser.ParseDocument(content)); bad {
		return "", fmt.Errorf("line %d: %s", line, problem)
	}
	return content, nil
}
