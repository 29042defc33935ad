// Package check inspects a single skill package for manifest, reference
// and codex visibility problems.
package check

// Code is a stable machine identifier for an issue.
type Code string

const (
	CodeBrokenManifestSymlink Code = "broken_skill_md_symlink"
	CodeManifestIsSymlink     Code = "skill_md_is_symlink"
	CodeMissingManifest       Code = "missing_skill_md"
	CodeMissingMainFile       Code = "missing_main_file"
	CodeUnreadableMainFile    Code = "unreadable_utf8_main_file"
	CodeEmptyMainFile         Code = "empty_main_file"
	CodeMissingTitle          Code = "missing_title"
	CodeBrokenReference       Code = "broken_reference"

	CodeCodexNotDeclared        Code = "codex_target_not_declared"
	CodeCodexMissingOnDisk      Code = "codex_target_missing_on_disk"
	CodeCodexBrokenSymlink      Code = "codex_target_broken_symlink"
	CodeCodexMissingManifest    Code = "codex_target_missing_skill_md"
	CodeCodexInvalidYAML        Code = "codex_frontmatter_invalid_yaml"
	CodeMissingFrontmatterName  Code = "missing_frontmatter_name"
	CodeMissingFrontmatterDesc  Code = "missing_frontmatter_description"
	CodeNameMismatchSkillKey    Code = "frontmatter_name_mismatch_skill_key"
	CodeArchivedNotVisibleCodex Code = "archived_skill_not_visible_in_codex"
)

var autoFixable = map[Code]bool{
	CodeCodexInvalidYAML:       true,
	CodeMissingFrontmatterName: true,
	CodeMissingFrontmatterDesc: true,
	CodeNameMismatchSkillKey:   true,
}

// AutoFixable reports whether Fix can repair issues with code c.
func (c Code) AutoFixable() bool {
	return autoFixable[c]
}

// Issue is one validation finding.
type Issue struct {
	Code        Code   `json:"code"`
	Message     string `json:"message"`
	SourceFile  string `json:"source_file,omitempty"`
	Line        int    `json:"line,omitempty"`
	Details     string `json:"details,omitempty"`
	AutoFixable bool   `json:"auto_fixable"`
}

// Result is the ordered list of issues for one skill.
type Result struct {
	Issues []Issue `json:"issues"`
}

// HasWarnings reports whether any issue was found.
func (r *Result) HasWarnings() bool {
	return len(r.Issues) > 0
}

// Codes returns the issue codes in order.
func (r *Result) Codes() []Code {
	codes := make([]Code, 0, len(r.Issues))
	for _, issue := range r.Issues {
		codes = append(codes, issue.Code)
	}
	return codes
}

func (r *Result) add(issue Issue) {
	issue.AutoFixable = issue.Code.AutoFixable()
	r.Issues = append(r.Issues, issue)
}
