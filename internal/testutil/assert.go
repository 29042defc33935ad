package testutil

import (
	"os"
	"path/filepath"
	"strings"
)

// AssertFileContains fails the test if the file does not contain the substring.
func (h *TestHome) AssertFileContains(relPath, substr string) {
	h.t.Helper()
	content := h.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		h.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertNotExists fails the test if anything (including a dangling symlink)
// exists at the path.
func (h *TestHome) AssertNotExists(relPath string) {
	h.t.Helper()
	if h.Exists(relPath) {
		h.t.Errorf("expected %s to not exist", relPath)
	}
}

// AssertRealDir fails the test unless the path is a directory and not a
// symlink.
func (h *TestHome) AssertRealDir(relPath string) {
	h.t.Helper()
	info, err := os.Lstat(h.Abs(relPath))
	if err != nil {
		h.t.Errorf("expected directory to exist: %s", relPath)
		return
	}
	if info.Mode()&os.ModeSymlink != 0 {
		h.t.Errorf("expected %s to be a real directory, but it's a symlink", relPath)
		return
	}
	if !info.IsDir() {
		h.t.Errorf("expected %s to be a directory, but it's a file", relPath)
	}
}

// AssertSymlinkTo fails the test unless the path is a symlink whose target is
// the given home-relative path.
func (h *TestHome) AssertSymlinkTo(relPath, targetRelPath string) {
	h.t.Helper()
	target, err := os.Readlink(h.Abs(relPath))
	if err != nil {
		h.t.Errorf("expected %s to be a symlink: %v", relPath, err)
		return
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(h.Abs(relPath)), target)
	}
	if filepath.Clean(target) != h.Abs(targetRelPath) {
		h.t.Errorf("expected %s to point at %s, got %s", relPath, targetRelPath, target)
	}
}
