package check

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/aidanlsb/skillsync/internal/parser"
	"github.com/aidanlsb/skillsync/internal/skills"
)

// Validator checks skill packages. It never mutates the filesystem and never
// returns an error: I/O problems become issues.
type Validator struct {
	layout skills.Layout
}

// NewValidator creates a validator for the given directory layout.
func NewValidator(layout skills.Layout) *Validator {
	return &Validator{layout: layout}
}

// Validate runs the manifest pipeline and the codex visibility check for rec.
func (v *Validator) Validate(rec *skills.Record) *Result {
	result := &Result{Issues: []Issue{}}

	v.validateManifest(result, rec)
	v.validateCodex(result, rec)

	if rec.IsArchived() {
		result.add(Issue{
			Code:    CodeArchivedNotVisibleCodex,
			Message: "skill is archived and not visible to codex",
			Details: rec.ArchivedBundlePath,
		})
	}

	return result
}

func (v *Validator) validateManifest(result *Result, rec *skills.Record) {
	manifest := skills.ManifestPath(rec.CanonicalSourcePath, rec.PackageType)
	contentPath := manifest

	if rec.PackageType == skills.KindDirectory && isBrokenLink(rec.CanonicalSourcePath) {
		result.add(Issue{
			Code:       CodeBrokenManifestSymlink,
			Message:    "skill directory is a broken symlink",
			SourceFile: rec.CanonicalSourcePath,
			Details:    linkTarget(rec.CanonicalSourcePath),
		})
		return
	}

	if info, err := os.Lstat(manifest); err == nil && info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(manifest)
		if err != nil {
			result.add(Issue{
				Code:       CodeBrokenManifestSymlink,
				Message:    "manifest is a broken symlink",
				SourceFile: manifest,
				Details:    linkTarget(manifest),
			})
			return
		}
		result.add(Issue{
			Code:       CodeManifestIsSymlink,
			Message:    "manifest is a symlink",
			SourceFile: manifest,
			Details:    resolved,
		})
		contentPath = resolved
	}

	info, err := os.Stat(contentPath)
	if err != nil || info.IsDir() {
		code, msg := CodeMissingManifest, "SKILL.md is missing"
		if rec.PackageType == skills.KindFile {
			code, msg = CodeMissingMainFile, "main file is missing"
		}
		result.add(Issue{Code: code, Message: msg, SourceFile: manifest})
		return
	}

	data, err := os.ReadFile(contentPath)
	if err != nil || !utf8.Valid(data) {
		details := "content is not valid UTF-8"
		if err != nil {
			details = err.Error()
		}
		result.add(Issue{
			Code:       CodeUnreadableMainFile,
			Message:    "manifest cannot be read as UTF-8 text",
			SourceFile: manifest,
			Details:    details,
		})
		return
	}

	content := string(data)
	if strings.TrimSpace(strings.TrimPrefix(content, "\ufeff")) == "" {
		result.add(Issue{Code: CodeEmptyMainFile, Message: "manifest is empty", SourceFile: manifest})
		return
	}

	doc := parser.ParseDocument(content)
	md := parser.ScanMarkdown(doc.Body, doc.BodyStartLine)

	if !hasTitle(doc, md) {
		result.add(Issue{
			Code:       CodeMissingTitle,
			Message:    "no frontmatter title or name and no top-level heading",
			SourceFile: manifest,
			Line:       1,
		})
	}

	root := rec.CanonicalSourcePath
	if rec.PackageType == skills.KindFile {
		root = filepath.Dir(rec.CanonicalSourcePath)
	}
	for _, ref := range collectRefs(md) {
		if _, err := os.Stat(filepath.Join(root, ref.Path)); err == nil {
			continue
		}
		result.add(Issue{
			Code:       CodeBrokenReference,
			Message:    fmt.Sprintf("referenced file %q does not exist", ref.Path),
			SourceFile: manifest,
			Line:       ref.Line,
			Details:    ref.Path,
		})
	}
}

func hasTitle(doc *parser.Document, md *parser.Markdown) bool {
	for _, key := range []string{"title", "name"} {
		if v, ok := doc.Frontmatter.Get(key); ok && strings.TrimSpace(v) != "" {
			return true
		}
	}
	return md.Title() != ""
}

func isBrokenLink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return false
	}
	_, err = os.Stat(path)
	return err != nil
}

func linkTarget(path string) string {
	target, err := os.Readlink(path)
	if err != nil {
		return ""
	}
	return target
}
