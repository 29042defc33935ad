package mutate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/store"
	"github.com/aidanlsb/skillsync/internal/syncer"
	"github.com/aidanlsb/skillsync/internal/testutil"
	"github.com/aidanlsb/skillsync/internal/trash"
)

type fixture struct {
	home *testutil.TestHome
	op   *Operator
	doc  *store.Document
}

func newFixture(t *testing.T, home *testutil.TestHome, workspaces ...string) *fixture {
	t.Helper()
	var abs []string
	for _, ws := range workspaces {
		abs = append(abs, home.Abs(ws))
	}
	engine := syncer.New(syncer.Options{
		Layout:     home.Layout(),
		StatePath:  home.Abs("state/state.json"),
		ArchiveDir: home.Abs("archive"),
		Workspaces: abs,
	})
	doc, err := engine.Run(context.Background())
	require.NoError(t, err)
	return &fixture{
		home: home,
		op:   New(engine, trash.New(home.Abs("Trash"), true)),
		doc:  doc,
	}
}

func (f *fixture) record(t *testing.T, key string) *skills.Record {
	t.Helper()
	rec, ok := f.doc.Find(key)
	require.True(t, ok, "record %s not found", key)
	return rec
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	home := testutil.NewTestHome(t).WithSkill(".agents/skills", "alpha", "# Alpha\n").Build()
	f := newFixture(t, home)

	_, err := f.op.Delete(context.Background(), f.record(t, "alpha"), false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	home.AssertRealDir(".agents/skills/alpha")
}

func TestDeleteMovesToTrashAndRemovesLinks(t *testing.T) {
	home := testutil.NewTestHome(t).WithSkill(".agents/skills", "alpha", "# Alpha\n").Build()
	f := newFixture(t, home)
	home.AssertSymlinkTo(".claude/skills/alpha", ".agents/skills/alpha")

	res, err := f.op.Delete(context.Background(), f.record(t, "alpha"), true)
	require.NoError(t, err)
	assert.Equal(t, home.Abs("Trash/files/alpha"), res.To)
	home.AssertNotExists(".agents/skills/alpha")
	home.AssertNotExists(".claude/skills/alpha")
	home.AssertNotExists(".codex/skills/alpha")
	assert.True(t, home.Exists("Trash/info/alpha.trashinfo"))

	require.NotNil(t, res.Document)
	assert.Empty(t, res.Document.Skills)
	assert.Empty(t, res.SyncError)
}

func TestMutationsRejectUnsafePaths(t *testing.T) {
	home := testutil.NewTestHome(t).
		WithSkill(".agents/skills", "alpha", "# Alpha\n").
		WithSkill(".agents/skills/.system", "tool", "# Tool\n").
		WithSkill("elsewhere", "stray", "# Stray\n").
		Build()
	f := newFixture(t, home)
	ctx := context.Background()

	outside := &skills.Record{Scope: skills.ScopeGlobal, SkillKey: "stray", PackageType: skills.KindDirectory,
		CanonicalSourcePath: home.Abs("elsewhere/stray")}
	_, err := f.op.Delete(ctx, outside, true)
	assert.ErrorIs(t, err, ErrOutsideRoots)
	home.AssertRealDir("elsewhere/stray")

	traversal := &skills.Record{Scope: skills.ScopeGlobal, SkillKey: "stray", PackageType: skills.KindDirectory,
		CanonicalSourcePath: home.Abs(".agents/skills/../../elsewhere/stray")}
	_, err = f.op.Archive(ctx, traversal, true)
	assert.ErrorIs(t, err, ErrOutsideRoots)

	protected := &skills.Record{Scope: skills.ScopeGlobal, SkillKey: "tool", PackageType: skills.KindDirectory,
		CanonicalSourcePath: home.Abs(".agents/skills/.system/tool")}
	_, err = f.op.Rename(ctx, protected, "New Tool")
	assert.ErrorIs(t, err, ErrProtectedPath)
	home.AssertRealDir(".agents/skills/.system/tool")
}

func TestDeleteLegacyIsReadOnly(t *testing.T) {
	home := testutil.NewTestHome(t).WithFile(".config/agents/skills/old.md", "# Old\n").Build()
	f := newFixture(t, home)

	legacy := &skills.Record{Scope: skills.ScopeGlobal, SkillKey: "old", PackageType: skills.KindFile,
		CanonicalSourcePath: home.Abs(".config/agents/skills/old.md")}
	_, err := f.op.Delete(context.Background(), legacy, true)
	assert.ErrorIs(t, err, ErrLegacyReadOnly)
	assert.True(t, home.Exists(".config/agents/skills/old.md"))
}

func TestArchiveAndRestore(t *testing.T) {
	home := testutil.NewTestHome(t).
		WithSkill("ws/a/.claude/skills", "alpha", "---\ntitle: Alpha\n---\n").
		WithDir("ws/a/.codex/skills").
		Build()
	f := newFixture(t, home, "ws/a")
	ctx := context.Background()
	home.AssertSymlinkTo("ws/a/.codex/skills/alpha", "ws/a/.claude/skills/alpha")

	_, err := f.op.Archive(ctx, f.record(t, "alpha"), false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	res, err := f.op.Archive(ctx, f.record(t, "alpha"), true)
	require.NoError(t, err)
	home.AssertNotExists("ws/a/.claude/skills/alpha")
	home.AssertNotExists("ws/a/.codex/skills/alpha")

	doc := res.Document
	require.Len(t, doc.Skills, 1)
	archived := doc.Skills[0]
	assert.True(t, archived.IsArchived())
	assert.Equal(t, skills.ScopeProject, archived.ArchivedOriginalScope)
	assert.Equal(t, home.Abs("ws/a"), *archived.ArchivedOriginalWorkspace)
	assert.Equal(t, 1, doc.Summary.ArchivedCount)
	assert.Equal(t, 0, doc.Summary.ProjectCount)

	_, err = f.op.Archive(ctx, &archived, true)
	assert.ErrorIs(t, err, ErrAlreadyArchived)

	restored, err := f.op.Restore(ctx, &archived)
	require.NoError(t, err)
	assert.Equal(t, home.Abs(".agents/skills/alpha"), restored.To)
	home.AssertRealDir(".agents/skills/alpha")
	home.AssertSymlinkTo(".claude/skills/alpha", ".agents/skills/alpha")

	require.Len(t, restored.Document.Skills, 1)
	rec := restored.Document.Skills[0]
	assert.False(t, rec.IsArchived())
	assert.Equal(t, skills.ScopeGlobal, rec.Scope)
	assert.Nil(t, rec.ArchivedAt)

	_, err = f.op.Restore(ctx, &rec)
	assert.ErrorIs(t, err, ErrNotArchived)
}

func TestRestoreRefusesOccupiedDestination(t *testing.T) {
	home := testutil.NewTestHome(t).WithSkill(".claude/skills", "alpha", "# Alpha\n").Build()
	f := newFixture(t, home)
	ctx := context.Background()

	res, err := f.op.Archive(ctx, f.record(t, "alpha"), true)
	require.NoError(t, err)
	archived := res.Document.Skills[0]

	// A new skill with the same key appears while the old one is archived.
	fresh := home.Abs(".cursor/skills/alpha")
	require.NoError(t, os.MkdirAll(fresh, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(fresh, skills.ManifestFile), []byte("# New alpha\n"), 0o644))

	_, err = f.op.Restore(ctx, &archived)
	assert.ErrorIs(t, err, ErrDestinationExists)
	assert.DirExists(t, archived.ArchivedBundlePath)
}

func TestRename(t *testing.T) {
	home := testutil.NewTestHome(t).
		WithSkill(".agents/skills", "alpha", "---\nname: alpha\ntitle: Alpha\ndescription: keep me\n---\n\nBody\n").
		WithFile(".agents/skills/beta.md", "# Beta\n").
		Build()
	f := newFixture(t, home)
	ctx := context.Background()

	_, err := f.op.Rename(ctx, f.record(t, "alpha"), "!!!")
	assert.ErrorIs(t, err, ErrEmptySlug)

	_, err = f.op.Rename(ctx, f.record(t, "alpha"), "Beta")
	assert.ErrorIs(t, err, ErrDestinationExists)
	home.AssertRealDir(".agents/skills/alpha")

	same, err := f.op.Rename(ctx, f.record(t, "alpha"), "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, same.From, same.To)
	home.AssertFileContains(".agents/skills/alpha/SKILL.md", "title: ALPHA")

	res, err := f.op.Rename(ctx, f.record(t, "alpha"), "Gamma Ray")
	require.NoError(t, err)
	assert.Equal(t, home.Abs(".agents/skills/gamma-ray"), res.To)
	home.AssertNotExists(".agents/skills/alpha")
	home.AssertNotExists(".claude/skills/alpha")
	assert.Equal(t, "---\nname: alpha\ntitle: Gamma Ray\ndescription: keep me\n---\n\nBody\n",
		home.ReadFile(".agents/skills/gamma-ray/SKILL.md"))
	home.AssertSymlinkTo(".claude/skills/gamma-ray", ".agents/skills/gamma-ray")

	renamed, ok := res.Document.Find("gamma-ray")
	require.True(t, ok)
	assert.Equal(t, "Gamma Ray", renamed.Name)
}

func TestRenameFilePackageCreatesFrontmatter(t *testing.T) {
	home := testutil.NewTestHome(t).WithFile(".claude/skills/notes.md", "Plain body\n").Build()
	f := newFixture(t, home)

	res, err := f.op.Rename(context.Background(), f.record(t, "notes"), "Field Notes")
	require.NoError(t, err)
	assert.Equal(t, home.Abs(".claude/skills/field-notes.md"), res.To)
	assert.Equal(t, "---\ntitle: Field Notes\n---\n\nPlain body\n", home.ReadFile(".claude/skills/field-notes.md"))
}

func TestPromote(t *testing.T) {
	home := testutil.NewTestHome(t).
		WithSkill("ws/a/.claude/skills", "alpha", "# Alpha\n").
		WithSkill("ws/a/.claude/skills", "beta", "# Beta\n").
		WithSkill(".claude/skills", "beta", "# Global beta\n").
		Build()
	f := newFixture(t, home, "ws/a")
	ctx := context.Background()

	var alpha, beta *skills.Record
	for i := range f.doc.Skills {
		rec := &f.doc.Skills[i]
		if rec.Scope != skills.ScopeProject {
			continue
		}
		switch rec.SkillKey {
		case "alpha":
			alpha = rec
		case "beta":
			beta = rec
		}
	}
	require.NotNil(t, alpha)
	require.NotNil(t, beta)

	_, err := f.op.Promote(ctx, alpha, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	_, err = f.op.Promote(ctx, beta, true)
	assert.ErrorIs(t, err, ErrDestinationExists)
	home.AssertRealDir("ws/a/.claude/skills/beta")

	globalBeta, ok := f.doc.Find(skills.RecordID(skills.ScopeGlobal, "", "beta"))
	require.True(t, ok)
	_, err = f.op.Promote(ctx, globalBeta, true)
	assert.ErrorIs(t, err, ErrNotProject)

	res, err := f.op.Promote(ctx, alpha, true)
	require.NoError(t, err)
	assert.Equal(t, home.Abs(".agents/skills/alpha"), res.To)
	home.AssertRealDir(".agents/skills/alpha")
	home.AssertNotExists("ws/a/.claude/skills/alpha")

	promoted, ok := res.Document.Find(skills.RecordID(skills.ScopeGlobal, "", "alpha"))
	require.True(t, ok)
	assert.Equal(t, skills.ScopeGlobal, promoted.Scope)
}

func TestBatchCollectsPerItemResults(t *testing.T) {
	home := testutil.NewTestHome(t).
		WithSkill(".agents/skills", "alpha", "# Alpha\n").
		WithSkill(".agents/skills", "beta", "# Beta\n").
		Build()
	f := newFixture(t, home)

	bogus := &skills.Record{ID: "bogus", SkillKey: "bogus", Scope: skills.ScopeGlobal, PackageType: skills.KindDirectory,
		CanonicalSourcePath: "/definitely/not/managed"}
	recs := []*skills.Record{f.record(t, "alpha"), bogus, f.record(t, "beta")}

	out, err := f.op.Batch(context.Background(), BatchDelete, recs, true)
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 1)
	assert.ErrorIs(t, err, ErrOutsideRoots)

	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Items, 3)
	assert.True(t, out.Items[0].OK)
	assert.False(t, out.Items[1].OK)
	assert.True(t, out.Items[2].OK)

	require.NotNil(t, out.Document)
	assert.Empty(t, out.Document.Skills)
	home.AssertNotExists(".agents/skills/alpha")
	home.AssertNotExists(".agents/skills/beta")
}
