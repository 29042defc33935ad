package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aidanlsb/skillsync/internal/parser"
)

// ManifestFile is the manifest name inside a directory package.
const ManifestFile = "SKILL.md"

// KindOf reports the package kind for an entry by name and type. Symlinked
// entries are classified by their name: a `.md` entry is a file package.
func KindOf(path string, isDir bool) (PackageKind, bool) {
	if isDir {
		return KindDirectory, true
	}
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return KindFile, true
	}
	return "", false
}

// Inspect determines the package kind of path, following symlinks.
func Inspect(path string) (PackageKind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	kind, ok := KindOf(path, info.IsDir())
	if !ok {
		return "", fmt.Errorf("%s is not a skill package", path)
	}
	return kind, nil
}

// ManifestPath returns the manifest location for a package.
func ManifestPath(path string, kind PackageKind) string {
	if kind == KindFile {
		return path
	}
	return filepath.Join(path, ManifestFile)
}

// ReadManifest reads and parses a package manifest.
func ReadManifest(path string, kind PackageKind) (*parser.Document, error) {
	data, err := os.ReadFile(ManifestPath(path, kind))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return parser.ParseDocument(string(data)), nil
}

// DisplayName picks a human name for a package: frontmatter title, then name,
// then the first level-1 heading, then fallback.
func DisplayName(doc *parser.Document, fallback string) string {
	if doc == nil {
		return fallback
	}
	for _, key := range []string{"title", "name"} {
		if v, ok := doc.Frontmatter.Get(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if title := parser.ScanMarkdown(doc.Body, doc.BodyStartLine).Title(); title != "" {
		return title
	}
	return fallback
}

// PackageName reads the display name of a package, falling back to its entry
// name when the manifest cannot be read.
func PackageName(path string, kind PackageKind) string {
	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if kind == KindDirectory {
		fallback = filepath.Base(path)
	}
	doc, err := ReadManifest(path, kind)
	if err != nil {
		return fallback
	}
	return DisplayName(doc, fallback)
}
