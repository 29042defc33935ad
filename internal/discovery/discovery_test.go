package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/testutil"
)

func byPath(res *Result) map[string]*Occurrence {
	out := make(map[string]*Occurrence, len(res.Occurrences))
	for _, occ := range res.Occurrences {
		out[occ.Path] = occ
	}
	return out
}

func TestDiscoverGlobalAndLegacy(t *testing.T) {
	home := testutil.NewTestHome(t).
		WithSkill(".agents/skills", "alpha", "---\ntitle: Alpha Skill\n---\n").
		WithSymlink(".claude/skills/alpha", ".agents/skills/alpha").
		WithFile(".cursor/skills/Beta Notes.md", "# Beta\n").
		WithSymlink(".codex/skills/gone", ".agents/skills/missing").
		WithSkill(".agents/skills", ".system", "# hidden\n").
		WithDir(".agents/skills/no-manifest").
		WithFile(".agents/skills/README.txt", "not a skill").
		WithFile(".config/agents/skills/old.md", "# Old\n").
		WithSkill(".config/agents/skills", "dir-in-legacy", "# ignored\n").
		Build()

	d := New(home.Layout())
	res := d.Discover(context.Background())
	occs := byPath(res)
	require.Len(t, occs, 5)

	alpha := occs[home.Abs(".agents/skills/alpha")]
	require.NotNil(t, alpha)
	assert.Equal(t, skills.ScopeGlobal, alpha.Scope)
	assert.Equal(t, skills.EcosystemAgents, alpha.Ecosystem)
	assert.Equal(t, "alpha", alpha.Key)
	assert.Equal(t, "Alpha Skill", alpha.Name)
	assert.Equal(t, skills.KindDirectory, alpha.Kind)
	assert.True(t, alpha.IsHealthyReal())

	link := occs[home.Abs(".claude/skills/alpha")]
	require.NotNil(t, link)
	require.True(t, link.IsSymlink())
	assert.Equal(t, home.Abs(".agents/skills/alpha"), link.EntryLink.Resolved)
	assert.False(t, link.EntryLink.Broken)

	beta := occs[home.Abs(".cursor/skills/Beta Notes.md")]
	require.NotNil(t, beta)
	assert.Equal(t, "beta-notes", beta.Key)
	assert.Equal(t, skills.KindFile, beta.Kind)
	assert.Equal(t, "Beta", beta.Name)

	gone := occs[home.Abs(".codex/skills/gone")]
	require.NotNil(t, gone)
	assert.True(t, gone.EntryLink.Broken)
	assert.Equal(t, skills.KindDirectory, gone.Kind)
	assert.Equal(t, "gone", gone.Name)

	legacy := occs[home.Abs(".config/agents/skills/old.md")]
	require.NotNil(t, legacy)
	assert.True(t, legacy.Legacy)
	assert.Equal(t, skills.Ecosystem(""), legacy.Ecosystem)
	assert.Greater(t, legacy.Rank(), alpha.Rank())
}

func TestDiscoverManifestSymlink(t *testing.T) {
	home := testutil.NewTestHome(t).
		WithFile("shared/ok.md", "---\nname: ok\n---\n").
		WithDir(".claude/skills/ok").
		WithSymlink(".claude/skills/ok/SKILL.md", "shared/ok.md").
		WithDir(".claude/skills/bad").
		WithSymlink(".claude/skills/bad/SKILL.md", "shared/missing.md").
		Build()

	occs := byPath(New(home.Layout()).Discover(context.Background()))

	ok := occs[home.Abs(".claude/skills/ok")]
	require.NotNil(t, ok)
	require.NotNil(t, ok.ManifestLink)
	assert.False(t, ok.ManifestLink.Broken)
	assert.True(t, ok.IsHealthyReal())
	assert.Equal(t, "ok", ok.Name)

	bad := occs[home.Abs(".claude/skills/bad")]
	require.NotNil(t, bad)
	assert.True(t, bad.IsBrokenReal())
	assert.False(t, bad.IsHealthyReal())
}

func TestWorkspaces(t *testing.T) {
	home := testutil.NewTestHome(t).
		WithSkill(".claude/skills", "global", "# g\n").
		WithDir("Development/app/.claude/skills").
		WithDir("Development/plain").
		WithDir("Development/.hidden/.claude/skills").
		WithDir("Development/nested/deep/.agents/skills").
		WithDir("code/one/.codex/skills").
		WithDir("code/one/sub/.claude/skills").
		WithDir("code/a/b/two/.cursor/skills").
		WithDir("code/a/b/c/too-deep/.cursor/skills").
		WithDir("code/node_modules/pkg/.claude/skills").
		WithDir("code/.cache/x/.claude/skills").
		WithDir("explicit").
		Build()

	d := New(home.Layout(),
		WithDevRoot(home.Abs("Development")),
		WithDiscoveryRoots(home.Abs("code"), home.Path),
		WithWorkspaces(home.Abs("explicit"), home.Abs("does-not-exist")),
	)

	got := d.Workspaces(context.Background())
	assert.Equal(t, []string{
		home.Abs("Development/app"),
		home.Abs("Development/nested/deep"),
		home.Abs("code/a/b/two"),
		home.Abs("code/one"),
		home.Abs("explicit"),
	}, got)
}

func TestDiscoverProjectScope(t *testing.T) {
	home := testutil.NewTestHome(t).
		WithSkill("ws/a/.claude/skills", "alpha", "A").
		Build()

	res := New(home.Layout(), WithWorkspaces(home.Abs("ws/a"))).Discover(context.Background())
	require.Len(t, res.Occurrences, 1)

	occ := res.Occurrences[0]
	assert.Equal(t, skills.ScopeProject, occ.Scope)
	assert.Equal(t, home.Abs("ws/a"), occ.Workspace)
	assert.Equal(t, skills.EcosystemClaude, occ.Ecosystem)
	assert.Equal(t, GroupKey{Scope: skills.ScopeProject, Workspace: home.Abs("ws/a"), Key: "alpha"}, occ.Group())
	assert.Equal(t, []string{home.Abs("ws/a/.claude/skills")}, New(home.Layout()).SkillsDirs(res.Workspaces))
}

func TestDiscoverSymlinkedSkillsDir(t *testing.T) {
	home := testutil.NewTestHome(t).
		WithSkill(".agents/skills", "alpha", "# Alpha\n").
		WithSymlink(".claude/skills", ".agents/skills").
		WithSkill("ws/a/.agents/skills", "beta", "# Beta\n").
		WithSymlink("ws/a/.claude", "ws/a/.agents").
		Build()

	res := New(home.Layout(), WithWorkspaces(home.Abs("ws/a"))).Discover(context.Background())
	occs := byPath(res)
	require.Len(t, occs, 4)

	direct := occs[home.Abs(".agents/skills/alpha")]
	alias := occs[home.Abs(".claude/skills/alpha")]
	require.NotNil(t, direct)
	require.NotNil(t, alias)
	assert.False(t, direct.ViaLink)
	assert.True(t, alias.ViaLink)
	assert.True(t, alias.IsHealthyReal())
	assert.Equal(t, home.Abs(".agents/skills/alpha"), direct.Identity)
	assert.Equal(t, direct.Identity, alias.Identity)

	projReal := occs[home.Abs("ws/a/.agents/skills/beta")]
	projAlias := occs[home.Abs("ws/a/.claude/skills/beta")]
	require.NotNil(t, projReal)
	require.NotNil(t, projAlias)
	assert.False(t, projReal.ViaLink)
	assert.True(t, projAlias.ViaLink)
	assert.Equal(t, projReal.Identity, projAlias.Identity)
}

func TestDiscoverSkipsSymlinkedDirWithoutManifest(t *testing.T) {
	home := testutil.NewTestHome(t).
		WithDir("shared/empty").
		WithSkill("shared", "full", "# Full\n").
		WithSymlink(".claude/skills/empty", "shared/empty").
		WithSymlink(".claude/skills/full", "shared/full").
		Build()

	occs := byPath(New(home.Layout()).Discover(context.Background()))
	require.Len(t, occs, 1)
	assert.NotNil(t, occs[home.Abs(".claude/skills/full")])
}

func TestWorkspacesCollapseSymlinkedWorkspace(t *testing.T) {
	home := testutil.NewTestHome(t).
		WithDir("Development/app/.claude/skills").
		WithSymlink("Development/zz-link", "Development/app").
		Build()

	d := New(home.Layout(), WithDevRoot(home.Abs("Development")))
	assert.Equal(t, []string{home.Abs("Development/app")}, d.Workspaces(context.Background()))
}
