package skills

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aidanlsb/skillsync/internal/slugs"
)

// Ecosystem identifies an agent runtime skill layout.
type Ecosystem string

const (
	EcosystemAgents Ecosystem = "agents"
	EcosystemClaude Ecosystem = "claude"
	EcosystemCodex  Ecosystem = "codex"
	EcosystemCursor Ecosystem = "cursor"
)

// Ecosystems lists every supported ecosystem in preference order. The first
// entry is the preferred canonical root.
var Ecosystems = []Ecosystem{EcosystemAgents, EcosystemClaude, EcosystemCodex, EcosystemCursor}

// PreferredEcosystem is where auto-migration moves canonical content.
const PreferredEcosystem = EcosystemAgents

// ProtectedComponent is the reserved namespace inside a skills dir.
const ProtectedComponent = ".system"

// Rank returns the preference index of e (lower is preferred).
func Rank(e Ecosystem) int {
	for i, candidate := range Ecosystems {
		if candidate == e {
			return i
		}
	}
	return len(Ecosystems)
}

// Layout resolves skills directories for a home directory.
type Layout struct {
	Home string
	// CodexHome overrides ~/.codex (CODEX_HOME).
	CodexHome string
	// LegacyDir is the read-only single-file store.
	LegacyDir string
}

// DefaultLayout builds a layout from the process environment.
func DefaultLayout() (Layout, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, err
	}
	return NewLayout(home, strings.TrimSpace(os.Getenv("CODEX_HOME"))), nil
}

// NewLayout builds a layout rooted at home.
func NewLayout(home, codexHome string) Layout {
	return Layout{
		Home:      filepath.Clean(home),
		CodexHome: codexHome,
		LegacyDir: filepath.Join(home, ".config", "agents", "skills"),
	}
}

// GlobalDir returns the user-wide skills dir for e.
func (l Layout) GlobalDir(e Ecosystem) string {
	if e == EcosystemCodex && l.CodexHome != "" {
		return filepath.Join(l.CodexHome, "skills")
	}
	return filepath.Join(l.Home, "."+string(e), "skills")
}

// ProjectDir returns the workspace-local skills dir for e.
func (l Layout) ProjectDir(workspace string, e Ecosystem) string {
	return filepath.Join(workspace, "."+string(e), "skills")
}

// Dir returns the skills dir for e at the given scope.
func (l Layout) Dir(scope Scope, workspace string, e Ecosystem) string {
	if scope == ScopeProject {
		return l.ProjectDir(workspace, e)
	}
	return l.GlobalDir(e)
}

// EntryPath returns the package path for key inside dir.
func EntryPath(dir, key string, kind PackageKind) string {
	if kind == KindFile {
		return filepath.Join(dir, key+".md")
	}
	return filepath.Join(dir, key)
}

// EcosystemOf reports which skills dir (at scope/workspace) contains path as a
// direct entry.
func (l Layout) EcosystemOf(scope Scope, workspace, path string) (Ecosystem, bool) {
	parent := filepath.Dir(filepath.Clean(path))
	for _, e := range Ecosystems {
		if l.Dir(scope, workspace, e) == parent {
			return e, true
		}
	}
	return "", false
}

// IsLegacyPath reports whether path lives in the legacy store.
func (l Layout) IsLegacyPath(path string) bool {
	return filepath.Dir(filepath.Clean(path)) == filepath.Clean(l.LegacyDir)
}

// TargetPaths returns every non-canonical path where an ecosystem expects the
// package. Project records only target ecosystems whose skills dir exists.
func (l Layout) TargetPaths(scope Scope, workspace, key string, kind PackageKind, canonical string) []string {
	canonical = filepath.Clean(canonical)
	targets := make([]string, 0, len(Ecosystems))
	for _, e := range Ecosystems {
		dir := l.Dir(scope, workspace, e)
		if scope == ScopeProject {
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				continue
			}
		}
		path := EntryPath(dir, key, kind)
		if path == canonical {
			continue
		}
		targets = append(targets, path)
	}
	return targets
}

// CodexTargetPath returns the path the codex ecosystem reads for rec.
func (l Layout) CodexTargetPath(rec *Record) string {
	key := rec.SkillKey
	if key == "" {
		key = slugs.EntryKey(filepath.Base(rec.CanonicalSourcePath))
	}
	return EntryPath(l.Dir(rec.Scope, rec.WorkspacePath(), EcosystemCodex), key, rec.PackageType)
}
