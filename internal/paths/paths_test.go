package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWithin(t *testing.T) {
	tests := []struct {
		root, path string
		want       bool
	}{
		{"/home/u/.agents/skills", "/home/u/.agents/skills/alpha", true},
		{"/home/u/.agents/skills", "/home/u/.agents/skills/a/b", true},
		{"/home/u/.agents/skills", "/home/u/.agents/skills", false},
		{"/home/u/.agents/skills", "/home/u/.agents/skillsx", false},
		{"/home/u/.agents/skills", "/home/u/.agents", false},
		{"/home/u/.agents/skills", "/home/u/.agents/skills/..evil", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsWithin(tt.root, tt.path), "%s in %s", tt.path, tt.root)
	}
}

func TestGuardCheck(t *testing.T) {
	g := NewGuard([]string{"/home/u/.agents/skills", "/ws/a/.claude/skills"}, ".system")

	got, err := g.Check("/home/u/.agents/skills/alpha/")
	require.NoError(t, err)
	assert.Equal(t, "/home/u/.agents/skills/alpha", got)

	_, err = g.Check("/ws/a/.claude/skills/alpha")
	assert.NoError(t, err)

	_, err = g.Check("/home/u/.agents/skills/../../etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideRoots)

	_, err = g.Check("/home/u/.agents/skills")
	assert.ErrorIs(t, err, ErrOutsideRoots)

	_, err = g.Check("/home/u/.agents/skills/.system/tool")
	assert.ErrorIs(t, err, ErrProtectedPath)

	_, err = g.Check("/home/u/.agents/skills/.system")
	assert.ErrorIs(t, err, ErrProtectedPath)

	_, err = g.Check("")
	assert.Error(t, err)
}

func TestNormalizeExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got, err := Normalize("~/Development")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Development"), got)
}
