package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aidanlsb/skillsync/internal/atomicfile"
)

// PreferencesVersion is the current preferences document version.
const PreferencesVersion = 2

// Preferences is the user preference document. Window and UI sub-objects
// belong to the desktop shell and are carried through untouched.
type Preferences struct {
	Version                 int             `json:"version"`
	AutoMigrateToCanonical  bool            `json:"auto_migrate_to_canonical_source"`
	WorkspaceDiscoveryRoots []string        `json:"workspace_discovery_roots"`
	PinnedSkills            []string        `json:"pinned_skills,omitempty"`
	Window                  json.RawMessage `json:"window,omitempty"`
	UI                      json.RawMessage `json:"ui,omitempty"`
}

// LoadPreferences reads the preferences document. A missing file yields
// defaults; a version 1 document without discovery roots loads with none.
func LoadPreferences(path string) (*Preferences, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Preferences{Version: PreferencesVersion, WorkspaceDiscoveryRoots: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences %s: %w", path, err)
	}

	var prefs Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("failed to parse preferences %s: %w", path, err)
	}
	if prefs.Version == 0 {
		prefs.Version = 1
	}
	prefs.WorkspaceDiscoveryRoots = normalizeRoots(prefs.WorkspaceDiscoveryRoots)
	return &prefs, nil
}

// SavePreferences writes the document atomically, upgrading it to the current
// version.
func SavePreferences(path string, prefs *Preferences) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("preferences path is required")
	}
	out := *prefs
	out.Version = PreferencesVersion
	out.WorkspaceDiscoveryRoots = normalizeRoots(out.WorkspaceDiscoveryRoots)
	if err := atomicfile.WriteJSON(path, out); err != nil {
		return fmt.Errorf("failed to write preferences %s: %w", path, err)
	}
	return nil
}

// AddRoot adds an absolute discovery root. It reports whether the list changed.
func (p *Preferences) AddRoot(root string) (bool, error) {
	root = strings.TrimSpace(root)
	if !filepath.IsAbs(root) {
		return false, fmt.Errorf("discovery root must be an absolute path: %q", root)
	}
	root = filepath.Clean(root)
	for _, existing := range p.WorkspaceDiscoveryRoots {
		if existing == root {
			return false, nil
		}
	}
	p.WorkspaceDiscoveryRoots = append(p.WorkspaceDiscoveryRoots, root)
	return true, nil
}

// RemoveRoot removes a discovery root. It reports whether the list changed.
func (p *Preferences) RemoveRoot(root string) bool {
	root = filepath.Clean(strings.TrimSpace(root))
	kept := p.WorkspaceDiscoveryRoots[:0]
	removed := false
	for _, existing := range p.WorkspaceDiscoveryRoots {
		if existing == root {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	p.WorkspaceDiscoveryRoots = kept
	return removed
}

func normalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	seen := make(map[string]struct{}, len(roots))
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		out = append(out, root)
	}
	return out
}
