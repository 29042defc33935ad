package check

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/skillsync/internal/skills"
)

// RepairPrompt composes a plain-language instruction asking an external tool
// to fix the given issues in rec. It returns "" when there is nothing to fix.
func RepairPrompt(rec *skills.Record, issues []Issue) string {
	if len(issues) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Fix the skill %q (key %q, %s scope", rec.Name, rec.SkillKey, rec.Scope)
	if ws := rec.WorkspacePath(); ws != "" {
		fmt.Fprintf(&b, ", workspace %s", ws)
	}
	fmt.Fprintf(&b, ").\nThe package lives at %s", rec.CanonicalSourcePath)
	if rec.PackageType == skills.KindDirectory {
		fmt.Fprintf(&b, " and its manifest is %s", skills.ManifestPath(rec.CanonicalSourcePath, rec.PackageType))
	}
	b.WriteString(".\n\nProblems found:\n")

	for i, issue := range issues {
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, issue.Code, issue.Message)
		if issue.SourceFile != "" {
			fmt.Fprintf(&b, " (%s", issue.SourceFile)
			if issue.Line > 0 {
				fmt.Fprintf(&b, ":%d", issue.Line)
			}
			b.WriteString(")")
		}
		if issue.Details != "" {
			fmt.Fprintf(&b, ": %s", issue.Details)
		}
		b.WriteString("\n")
		if hint := repairHint(issue.Code, rec); hint != "" {
			fmt.Fprintf(&b, "   %s\n", hint)
		}
	}

	b.WriteString("\nKeep the existing content and frontmatter fields unless a fix requires changing them. Do not rename or move the package.\n")
	return b.String()
}

func repairHint(code Code, rec *skills.Record) string {
	switch code {
	case CodeBrokenManifestSymlink:
		return "Replace the broken SKILL.md symlink with the real manifest."
	case CodeMissingManifest:
		return "Create SKILL.md with frontmatter (name, description) and a short body."
	case CodeMissingMainFile:
		return "Recreate the main markdown file."
	case CodeUnreadableMainFile:
		return "Re-save the manifest as UTF-8 text."
	case CodeEmptyMainFile:
		return "Write the skill instructions into the manifest."
	case CodeMissingTitle:
		return "Add a frontmatter title or a top-level # heading."
	case CodeBrokenReference:
		return "Create the referenced file or correct the path relative to the package root."
	case CodeCodexInvalidYAML:
		return "Quote the offending frontmatter value so it parses as a single YAML string."
	case CodeMissingFrontmatterName, CodeNameMismatchSkillKey:
		return fmt.Sprintf("Set frontmatter name to %q.", rec.SkillKey)
	case CodeMissingFrontmatterDesc:
		return "Add a one-sentence frontmatter description of when to use the skill."
	case CodeArchivedNotVisibleCodex:
		return "Restore the skill from the archive if codex should see it."
	}
	return ""
}
