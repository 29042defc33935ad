// Package discovery enumerates every skill package occurrence across the
// global skills dirs, project workspaces and the legacy store.
package discovery

import (
	"github.com/aidanlsb/skillsync/internal/skills"
)

// Link describes a symlink found during the scan.
type Link struct {
	// Target is the link text as stored on disk.
	Target string
	// Resolved is Target made absolute relative to the link's directory.
	Resolved string
	// Broken reports whether the target does not exist.
	Broken bool
}

// Occurrence is one package entry found in one skills dir.
type Occurrence struct {
	Scope     skills.Scope
	Workspace string
	// Ecosystem is empty for legacy entries.
	Ecosystem skills.Ecosystem
	Legacy    bool

	Path  string
	Entry string
	Key   string
	Name  string
	Kind  skills.PackageKind

	// Identity is the entry's fully resolved path. Occurrences that share it
	// are one package reached through different paths.
	Identity string
	// ViaLink reports that the skills dir, or the ecosystem dir holding it,
	// is a symlink.
	ViaLink bool

	// EntryLink is set when the entry itself is a symlink.
	EntryLink *Link
	// ManifestLink is set when a real package directory holds a symlinked
	// manifest.
	ManifestLink *Link
}

// IsSymlink reports whether the entry itself is a symlink.
func (o *Occurrence) IsSymlink() bool {
	return o.EntryLink != nil
}

// IsHealthyReal reports whether the entry is real content with a readable
// manifest.
func (o *Occurrence) IsHealthyReal() bool {
	return o.EntryLink == nil && (o.ManifestLink == nil || !o.ManifestLink.Broken)
}

// IsBrokenReal reports whether the entry is a real directory whose manifest is
// a dangling symlink.
func (o *Occurrence) IsBrokenReal() bool {
	return o.EntryLink == nil && o.ManifestLink != nil && o.ManifestLink.Broken
}

// Rank orders occurrences by ecosystem preference. Legacy sorts last.
func (o *Occurrence) Rank() int {
	if o.Legacy {
		return len(skills.Ecosystems) + 1
	}
	return skills.Rank(o.Ecosystem)
}

// GroupKey identifies the (scope, workspace, key) triple an occurrence
// belongs to.
type GroupKey struct {
	Scope     skills.Scope
	Workspace string
	Key       string
}

// Group returns the occurrence's group key.
func (o *Occurrence) Group() GroupKey {
	return GroupKey{Scope: o.Scope, Workspace: o.Workspace, Key: o.Key}
}
