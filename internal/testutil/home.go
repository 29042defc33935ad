// Package testutil provides fixture builders for tests that need a fake home
// directory with skills trees and project workspaces.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/aidanlsb/skillsync/internal/skills"
)

// TestHome represents a temporary home directory for testing.
type TestHome struct {
	Path  string
	t     *testing.T
	files map[string]string
	dirs  []string
	links map[string]string
}

// NewTestHome creates a new home builder.
// Call Build() to create the actual directory.
func NewTestHome(t *testing.T) *TestHome {
	t.Helper()
	return &TestHome{
		t:     t,
		files: make(map[string]string),
		links: make(map[string]string),
	}
}

// WithFile adds a file. The path is relative to the home root.
func (h *TestHome) WithFile(path, content string) *TestHome {
	h.files[path] = content
	return h
}

// WithDir adds an empty directory.
func (h *TestHome) WithDir(path string) *TestHome {
	h.dirs = append(h.dirs, path)
	return h
}

// WithSkill adds a directory package `<dir>/<name>/SKILL.md`.
func (h *TestHome) WithSkill(dir, name, manifest string) *TestHome {
	return h.WithFile(filepath.Join(dir, name, skills.ManifestFile), manifest)
}

// WithSymlink adds a symlink at path. A relative target is resolved against
// the home root; an absolute target is used as is.
func (h *TestHome) WithSymlink(path, target string) *TestHome {
	h.links[path] = target
	return h
}

// Build creates the directory tree.
func (h *TestHome) Build() *TestHome {
	h.t.Helper()

	root, err := filepath.EvalSymlinks(h.t.TempDir())
	if err != nil {
		h.t.Fatalf("failed to resolve temp dir: %v", err)
	}
	h.Path = root

	for _, dir := range h.dirs {
		h.mkdir(h.Abs(dir))
	}
	for path, content := range h.files {
		h.writeFile(path, content)
	}

	linkPaths := make([]string, 0, len(h.links))
	for path := range h.links {
		linkPaths = append(linkPaths, path)
	}
	sort.Strings(linkPaths)
	for _, path := range linkPaths {
		target := h.links[path]
		if !filepath.IsAbs(target) {
			target = h.Abs(target)
		}
		full := h.Abs(path)
		h.mkdir(filepath.Dir(full))
		if err := os.Symlink(target, full); err != nil {
			h.t.Fatalf("failed to create symlink %s: %v", full, err)
		}
	}

	return h
}

// Layout returns a skills layout rooted at the test home.
func (h *TestHome) Layout() skills.Layout {
	return skills.NewLayout(h.Path, "")
}

// Abs returns the absolute path of a home-relative path.
func (h *TestHome) Abs(relPath string) string {
	return filepath.Join(h.Path, relPath)
}

func (h *TestHome) mkdir(dir string) {
	h.t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		h.t.Fatalf("failed to create directory %s: %v", dir, err)
	}
}

func (h *TestHome) writeFile(relPath, content string) {
	h.t.Helper()
	fullPath := h.Abs(relPath)
	h.mkdir(filepath.Dir(fullPath))
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		h.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// ReadFile reads a home-relative file.
func (h *TestHome) ReadFile(relPath string) string {
	h.t.Helper()
	content, err := os.ReadFile(h.Abs(relPath))
	if err != nil {
		h.t.Fatalf("failed to read file %s: %v", relPath, err)
	}
	return string(content)
}

// Exists reports whether a home-relative path exists without following a
// final symlink.
func (h *TestHome) Exists(relPath string) bool {
	_, err := os.Lstat(h.Abs(relPath))
	return err == nil
}

// Manifest returns a minimal manifest with the given name and description.
func Manifest(name, description string) string {
	return "---\nname: " + name + "\ndescription: " + description + "\n---\n\n# " + name + "\n"
}
