package check

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/skillsync/internal/parser"
	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/testutil"
)

const pdfManifest = `---
title: PDF Tools
name: pdf-tools
description: Work with PDF files.
---

# PDF Tools

See [the guide](references/guide.md) for details.
`

func globalRecord(h *testutil.TestHome, key string, kind skills.PackageKind) *skills.Record {
	layout := h.Layout()
	canonical := skills.EntryPath(layout.GlobalDir(skills.EcosystemAgents), key, kind)
	return &skills.Record{
		ID:                  skills.RecordID(skills.ScopeGlobal, "", key),
		Name:                key,
		Scope:               skills.ScopeGlobal,
		CanonicalSourcePath: canonical,
		TargetPaths:         layout.TargetPaths(skills.ScopeGlobal, "", key, kind, canonical),
		Exists:              true,
		PackageType:         kind,
		SkillKey:            key,
		Status:              skills.StatusActive,
	}
}

func pdfHome(t *testing.T, manifest string) *testutil.TestHome {
	return testutil.NewTestHome(t).
		WithSkill(".agents/skills", "pdf-tools", manifest).
		WithFile(".agents/skills/pdf-tools/references/guide.md", "# Guide\n").
		WithSymlink(".codex/skills/pdf-tools", ".agents/skills/pdf-tools").
		Build()
}

func TestValidateCleanPackage(t *testing.T) {
	h := pdfHome(t, pdfManifest)
	result := NewValidator(h.Layout()).Validate(globalRecord(h, "pdf-tools", skills.KindDirectory))

	assert.Empty(t, result.Issues)
	assert.False(t, result.HasWarnings())
}

func TestValidateBrokenReference(t *testing.T) {
	h := pdfHome(t, pdfManifest)
	require.NoError(t, os.Remove(h.Abs(".agents/skills/pdf-tools/references/guide.md")))

	result := NewValidator(h.Layout()).Validate(globalRecord(h, "pdf-tools", skills.KindDirectory))

	require.Len(t, result.Issues, 1)
	issue := result.Issues[0]
	assert.Equal(t, CodeBrokenReference, issue.Code)
	assert.Equal(t, 9, issue.Line)
	assert.Equal(t, "references/guide.md", issue.Details)
	assert.Equal(t, h.Abs(".agents/skills/pdf-tools/SKILL.md"), issue.SourceFile)
	assert.False(t, issue.AutoFixable)
	assert.True(t, result.HasWarnings())
}

func TestValidateNameMismatch(t *testing.T) {
	h := pdfHome(t, pdfManifest)
	corrupted := `---
title: PDF Tools
name: Other Skill
description: Work with PDF files.
---

# PDF Tools

See [the guide](references/guide.md) for details.
`
	require.NoError(t, os.WriteFile(h.Abs(".codex/skills/pdf-tools/SKILL.md"), []byte(corrupted), 0o644))

	result := NewValidator(h.Layout()).Validate(globalRecord(h, "pdf-tools", skills.KindDirectory))

	assert.Equal(t, []Code{CodeNameMismatchSkillKey}, result.Codes())
	assert.Equal(t, 3, result.Issues[0].Line)
	assert.Equal(t, "other-skill", result.Issues[0].Details)
	assert.True(t, result.Issues[0].AutoFixable)
}

func TestValidateReferenceSources(t *testing.T) {
	manifest := "---\n" +
		"title: Refs\n" +
		"name: refs\n" +
		"description: Reference scanning.\n" +
		"---\n" +
		"\n" +
		"Run `scripts/build.sh --fast` first.\n" +
		"You can open the door in prose without a reference.\n" +
		"\n" +
		"```sh\n" +
		"open assets/logo.png\n" +
		"open https://example.com\n" +
		"```\n" +
		"\n" +
		"[again](scripts/build.sh) and [web](https://example.com) and [top](#refs)\n" +
		"[abs](/etc/hosts) and [encoded](references/my%20notes.md?raw=1#intro)\n" +
		"Also `open docs/readme.md` inline.\n"

	h := testutil.NewTestHome(t).
		WithSkill(".agents/skills", "refs", manifest).
		WithSymlink(".codex/skills/refs", ".agents/skills/refs").
		Build()

	result := NewValidator(h.Layout()).Validate(globalRecord(h, "refs", skills.KindDirectory))

	type found struct {
		path string
		line int
	}
	var got []found
	for _, issue := range result.Issues {
		require.Equal(t, CodeBrokenReference, issue.Code)
		got = append(got, found{issue.Details, issue.Line})
	}
	assert.Equal(t, []found{
		{"scripts/build.sh", 7},
		{"assets/logo.png", 11},
		{"references/my notes.md", 16},
		{"docs/readme.md", 17},
	}, got)
}

func TestValidateProseOpenIsIgnored(t *testing.T) {
	manifest := testutil.Manifest("prose", "Prose only.") + "\nPlease open settings.json before starting.\n"
	h := testutil.NewTestHome(t).
		WithSkill(".agents/skills", "prose", manifest).
		WithSymlink(".codex/skills/prose", ".agents/skills/prose").
		Build()

	result := NewValidator(h.Layout()).Validate(globalRecord(h, "prose", skills.KindDirectory))
	assert.Empty(t, result.Issues)
}

func TestValidateManifestPipeline(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *testutil.TestHome) *testutil.TestHome
		kind  skills.PackageKind
		key   string
		want  []Code
	}{
		{
			name: "broken manifest symlink",
			setup: func(h *testutil.TestHome) *testutil.TestHome {
				return h.WithSymlink(".agents/skills/demo/SKILL.md", "shared/missing.md").
					WithSymlink(".codex/skills/demo", ".agents/skills/demo")
			},
			kind: skills.KindDirectory,
			key:  "demo",
			want: []Code{CodeBrokenManifestSymlink, CodeCodexMissingManifest},
		},
		{
			name: "healthy manifest symlink",
			setup: func(h *testutil.TestHome) *testutil.TestHome {
				return h.WithFile("shared/demo.md", testutil.Manifest("demo", "Shared manifest.")).
					WithSymlink(".agents/skills/demo/SKILL.md", "shared/demo.md").
					WithSymlink(".codex/skills/demo", ".agents/skills/demo")
			},
			kind: skills.KindDirectory,
			key:  "demo",
			want: []Code{CodeManifestIsSymlink},
		},
		{
			name: "missing SKILL.md",
			setup: func(h *testutil.TestHome) *testutil.TestHome {
				return h.WithDir(".agents/skills/demo").
					WithSymlink(".codex/skills/demo", ".agents/skills/demo")
			},
			kind: skills.KindDirectory,
			key:  "demo",
			want: []Code{CodeMissingManifest, CodeCodexMissingManifest},
		},
		{
			name: "missing main file",
			setup: func(h *testutil.TestHome) *testutil.TestHome {
				return h.WithDir(".agents/skills")
			},
			kind: skills.KindFile,
			key:  "notes",
			want: []Code{CodeMissingMainFile, CodeCodexMissingOnDisk},
		},
		{
			name: "empty main file",
			setup: func(h *testutil.TestHome) *testutil.TestHome {
				return h.WithFile(".agents/skills/notes.md", "  \n\n").
					WithSymlink(".codex/skills/notes.md", ".agents/skills/notes.md")
			},
			kind: skills.KindFile,
			key:  "notes",
			want: []Code{CodeEmptyMainFile, CodeMissingFrontmatterName, CodeMissingFrontmatterDesc},
		},
		{
			name: "invalid utf-8",
			setup: func(h *testutil.TestHome) *testutil.TestHome {
				return h.WithFile(".agents/skills/notes.md", "\xff\xfe\xfd").
					WithSymlink(".codex/skills/notes.md", ".agents/skills/notes.md")
			},
			kind: skills.KindFile,
			key:  "notes",
			want: []Code{CodeUnreadableMainFile, CodeMissingFrontmatterName, CodeMissingFrontmatterDesc},
		},
		{
			name: "missing title",
			setup: func(h *testutil.TestHome) *testutil.TestHome {
				return h.WithFile(".agents/skills/notes.md", "---\ndescription: Notes.\n---\n\nJust some text.\n").
					WithSymlink(".codex/skills/notes.md", ".agents/skills/notes.md")
			},
			kind: skills.KindFile,
			key:  "notes",
			want: []Code{CodeMissingTitle, CodeMissingFrontmatterName},
		},
		{
			name: "heading counts as title",
			setup: func(h *testutil.TestHome) *testutil.TestHome {
				return h.WithFile(".agents/skills/notes.md", "---\nname: notes\ndescription: Notes.\n---\n\n# Notes\n").
					WithSymlink(".codex/skills/notes.md", ".agents/skills/notes.md")
			},
			kind: skills.KindFile,
			key:  "notes",
			want: []Code{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.setup(testutil.NewTestHome(t)).Build()
			result := NewValidator(h.Layout()).Validate(globalRecord(h, tt.key, tt.kind))
			assert.Equal(t, tt.want, result.Codes())
		})
	}
}

func TestValidateCodexVisibility(t *testing.T) {
	t.Run("not declared", func(t *testing.T) {
		h := testutil.NewTestHome(t).
			WithSkill("work/app/.agents/skills", "demo", testutil.Manifest("demo", "Project skill.")).
			Build()
		layout := h.Layout()
		ws := h.Abs("work/app")
		canonical := h.Abs("work/app/.agents/skills/demo")
		rec := &skills.Record{
			Name:                "demo",
			Scope:               skills.ScopeProject,
			Workspace:           skills.StringPtr(ws),
			CanonicalSourcePath: canonical,
			TargetPaths:         layout.TargetPaths(skills.ScopeProject, ws, "demo", skills.KindDirectory, canonical),
			Exists:              true,
			PackageType:         skills.KindDirectory,
			SkillKey:            "demo",
		}

		result := NewValidator(layout).Validate(rec)
		require.Equal(t, []Code{CodeCodexNotDeclared}, result.Codes())
		assert.Equal(t, h.Abs("work/app/.codex/skills/demo"), result.Issues[0].Details)
	})

	t.Run("declared but missing", func(t *testing.T) {
		h := testutil.NewTestHome(t).
			WithSkill(".agents/skills", "demo", testutil.Manifest("demo", "Global skill.")).
			Build()
		result := NewValidator(h.Layout()).Validate(globalRecord(h, "demo", skills.KindDirectory))
		assert.Equal(t, []Code{CodeCodexMissingOnDisk}, result.Codes())
	})

	t.Run("broken symlink", func(t *testing.T) {
		h := testutil.NewTestHome(t).
			WithSkill(".agents/skills", "demo", testutil.Manifest("demo", "Global skill.")).
			WithSymlink(".codex/skills/demo", "gone/demo").
			Build()
		result := NewValidator(h.Layout()).Validate(globalRecord(h, "demo", skills.KindDirectory))
		assert.Equal(t, []Code{CodeCodexBrokenSymlink}, result.Codes())
	})

	t.Run("missing name and description", func(t *testing.T) {
		h := testutil.NewTestHome(t).
			WithSkill(".agents/skills", "demo", "---\ntitle: Demo\n---\n\nBody.\n").
			WithSymlink(".codex/skills/demo", ".agents/skills/demo").
			Build()
		result := NewValidator(h.Layout()).Validate(globalRecord(h, "demo", skills.KindDirectory))
		assert.Equal(t, []Code{CodeMissingFrontmatterName, CodeMissingFrontmatterDesc}, result.Codes())
		for _, issue := range result.Issues {
			assert.True(t, issue.AutoFixable)
		}
	})

	t.Run("invalid yaml is terminal", func(t *testing.T) {
		manifest := "---\ntitle: Demo\nname: wrong\ndescription: [draft] [v2] notes\n---\n\n# Demo\n"
		h := testutil.NewTestHome(t).
			WithSkill(".agents/skills", "demo", manifest).
			WithSymlink(".codex/skills/demo", ".agents/skills/demo").
			Build()
		result := NewValidator(h.Layout()).Validate(globalRecord(h, "demo", skills.KindDirectory))
		require.Equal(t, []Code{CodeCodexInvalidYAML}, result.Codes())
		assert.Equal(t, 4, result.Issues[0].Line)
		assert.True(t, result.Issues[0].AutoFixable)
	})
}

func TestValidateArchivedRecord(t *testing.T) {
	h := testutil.NewTestHome(t).
		WithSkill("archive/demo-1/payload", "demo", "---\ntitle: Demo\n---\n\n# Demo\n").
		Build()
	archivedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &skills.Record{
		Name:                "Demo",
		Scope:               skills.ScopeGlobal,
		CanonicalSourcePath: h.Abs("archive/demo-1/payload/demo"),
		TargetPaths:         []string{},
		Exists:              true,
		PackageType:         skills.KindDirectory,
		SkillKey:            "demo",
		Status:              skills.StatusArchived,
		ArchivedAt:          &archivedAt,
		ArchivedBundlePath:  h.Abs("archive/demo-1"),
	}

	result := NewValidator(h.Layout()).Validate(rec)
	assert.Equal(t, []Code{CodeCodexNotDeclared, CodeArchivedNotVisibleCodex}, result.Codes())
}

func TestScalarProblem(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"plain words", false},
		{"", false},
		{"|", false},
		{">-", false},
		{"[a, b]", false},
		{"[a] [b]", true},
		{"{a: 1} trailing", true},
		{"[unterminated", true},
		{`"quoted: value"`, false},
		{`"quoted" extra`, true},
		{`'it''s fine'`, false},
		{`"unterminated`, true},
		{"@mention", true},
		{"`code`", true},
		{"- item", true},
		{"Use when: needed", true},
		{"ends with colon:", true},
		{"see https://example.com", false},
		{"value # comment: here", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, scalarProblem(tt.raw) != "", scalarProblem(tt.raw))
		})
	}
}

func TestStrictYAMLProblemUsesYAMLParser(t *testing.T) {
	doc := parser.ParseDocument("---\nname: demo\n  bad indent: here\n---\n")
	line, problem, bad := StrictYAMLProblem(doc)
	require.True(t, bad)
	assert.Equal(t, 3, line)
	assert.NotEmpty(t, problem)

	_, _, bad = StrictYAMLProblem(parser.ParseDocument("no frontmatter\n"))
	assert.False(t, bad)

	line, _, bad = StrictYAMLProblem(parser.ParseDocument("---\nname: demo\n"))
	assert.True(t, bad)
	assert.Equal(t, 1, line)
}

func TestValidateBrokenPackageDirSymlink(t *testing.T) {
	h := testutil.NewTestHome(t).
		WithSymlink(".agents/skills/demo", "gone/demo").
		Build()

	result := NewValidator(h.Layout()).Validate(globalRecord(h, "demo", skills.KindDirectory))

	require.NotEmpty(t, result.Issues)
	first := result.Issues[0]
	assert.Equal(t, CodeBrokenManifestSymlink, first.Code)
	assert.Equal(t, h.Abs(".agents/skills/demo"), first.SourceFile)
	assert.Equal(t, h.Abs("gone/demo"), first.Details)
	for _, issue := range result.Issues {
		assert.NotEqual(t, CodeMissingManifest, issue.Code)
	}
}
