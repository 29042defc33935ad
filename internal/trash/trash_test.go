package trash

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutFreedesktop(t *testing.T) {
	dir := t.TempDir()
	bin := New(filepath.Join(dir, "Trash"), true)
	bin.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local) }

	skill := filepath.Join(dir, "skills", "my skill")
	require.NoError(t, os.MkdirAll(skill, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skill, "SKILL.md"), []byte("# A"), 0o644))

	dest, err := bin.Put(skill)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Trash", "files", "my skill"), dest)
	assert.NoDirExists(t, skill)
	assert.FileExists(t, filepath.Join(dest, "SKILL.md"))

	info, err := os.ReadFile(filepath.Join(dir, "Trash", "info", "my skill.trashinfo"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "[Trash Info]\n")
	assert.Contains(t, string(info), "Path="+filepath.ToSlash(filepath.Join(dir, "skills"))+"/my%20skill\n")
	assert.Contains(t, string(info), "DeletionDate=2026-01-02T03:04:05\n")
}

func TestPutSuffixesCollisions(t *testing.T) {
	dir := t.TempDir()
	bin := New(filepath.Join(dir, "Trash"), false)

	for i := 0; i < 2; i++ {
		path := filepath.Join(dir, "alpha.md")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		_, err := bin.Put(path)
		require.NoError(t, err)
	}

	assert.FileExists(t, filepath.Join(dir, "Trash", "alpha.md"))
	assert.FileExists(t, filepath.Join(dir, "Trash", "alpha-2.md"))
	assert.NoDirExists(t, filepath.Join(dir, "Trash", "info"))
}
