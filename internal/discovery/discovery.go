package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aidanlsb/skillsync/internal/logger"
	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/slugs"
)

// MaxRootDepth is how deep configured discovery roots are searched for
// workspaces. The root itself is depth 0.
const MaxRootDepth = 3

// Discoverer scans skills dirs.
type Discoverer struct {
	layout     skills.Layout
	devRoot    string
	roots      []string
	workspaces []string
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithDevRoot sets the directory whose immediate children are candidate
// workspaces.
func WithDevRoot(dir string) Option {
	return func(d *Discoverer) {
		d.devRoot = dir
	}
}

// WithDiscoveryRoots adds roots searched up to MaxRootDepth for workspaces.
func WithDiscoveryRoots(roots ...string) Option {
	return func(d *Discoverer) {
		d.roots = append(d.roots, roots...)
	}
}

// WithWorkspaces adds explicitly active workspaces.
func WithWorkspaces(dirs ...string) Option {
	return func(d *Discoverer) {
		d.workspaces = append(d.workspaces, dirs...)
	}
}

// New creates a Discoverer for layout.
func New(layout skills.Layout, opts ...Option) *Discoverer {
	d := &Discoverer{layout: layout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Layout returns the layout the discoverer scans.
func (d *Discoverer) Layout() skills.Layout {
	return d.layout
}

// Result is the output of a scan.
type Result struct {
	Occurrences []*Occurrence
	// Workspaces are the project workspaces that were scanned, sorted.
	Workspaces []string
}

// Discover enumerates every occurrence. Unreadable directories are skipped.
func (d *Discoverer) Discover(ctx context.Context) *Result {
	res := &Result{Workspaces: d.Workspaces(ctx)}

	for _, eco := range skills.Ecosystems {
		res.Occurrences = append(res.Occurrences,
			d.scanSkillsDir(ctx, d.layout.GlobalDir(eco), skills.ScopeGlobal, "", eco, false)...)
	}
	for _, ws := range res.Workspaces {
		for _, eco := range skills.Ecosystems {
			res.Occurrences = append(res.Occurrences,
				d.scanSkillsDir(ctx, d.layout.ProjectDir(ws, eco), skills.ScopeProject, ws, eco, false)...)
		}
	}
	res.Occurrences = append(res.Occurrences,
		d.scanSkillsDir(ctx, d.layout.LegacyDir, skills.ScopeGlobal, "", "", true)...)

	return res
}

// Workspaces returns every project workspace: explicit ones, immediate
// children of the dev root, and workspaces found under discovery roots.
func (d *Discoverer) Workspaces(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if dir == d.layout.Home {
			return
		}
		// A symlinked workspace is the same project as its target.
		id := dir
		if real, err := filepath.EvalSymlinks(dir); err == nil {
			id = real
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, dir)
	}

	for _, ws := range d.workspaces {
		if info, err := os.Stat(ws); err == nil && info.IsDir() {
			add(ws)
		}
	}

	if d.devRoot != "" {
		entries, err := os.ReadDir(d.devRoot)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("dir", d.devRoot).Debug("skipping dev root")
		}
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			dir := filepath.Join(d.devRoot, entry.Name())
			if isDir(dir) && d.IsWorkspace(dir) {
				add(dir)
			}
		}
	}

	for _, root := range d.roots {
		d.walkRoot(ctx, filepath.Clean(root), 0, add)
	}

	sort.Strings(out)
	return out
}

func (d *Discoverer) walkRoot(ctx context.Context, dir string, depth int, add func(string)) {
	if d.IsWorkspace(dir) {
		add(dir)
		return
	}
	if depth >= MaxRootDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.G(ctx).WithError(err).WithField("dir", dir).Debug("skipping unreadable discovery dir")
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || name == "node_modules" {
			continue
		}
		d.walkRoot(ctx, filepath.Join(dir, name), depth+1, add)
	}
}

// IsWorkspace reports whether dir holds at least one ecosystem skills dir.
// The home directory is never a workspace.
func (d *Discoverer) IsWorkspace(dir string) bool {
	if filepath.Clean(dir) == d.layout.Home {
		return false
	}
	for _, eco := range skills.Ecosystems {
		if isDir(d.layout.ProjectDir(dir, eco)) {
			return true
		}
	}
	return false
}

// SkillsDirs returns every existing skills dir for the given workspaces,
// global ones first.
func (d *Discoverer) SkillsDirs(workspaces []string) []string {
	var dirs []string
	for _, eco := range skills.Ecosystems {
		if dir := d.layout.GlobalDir(eco); isDir(dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, ws := range workspaces {
		for _, eco := range skills.Ecosystems {
			if dir := d.layout.ProjectDir(ws, eco); isDir(dir) {
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs
}

func (d *Discoverer) scanSkillsDir(ctx context.Context, dir string, scope skills.Scope, workspace string, eco skills.Ecosystem, legacy bool) []*Occurrence {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.G(ctx).WithError(err).WithField("dir", dir).Warn("skipping unreadable skills dir")
		}
		return nil
	}

	viaLink := isLink(dir) || isLink(filepath.Dir(dir))
	var out []*Occurrence
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		occ := inspectEntry(filepath.Join(dir, name), legacy)
		if occ == nil {
			continue
		}
		occ.Scope = scope
		occ.Workspace = workspace
		occ.Ecosystem = eco
		occ.Legacy = legacy
		occ.ViaLink = viaLink
		if occ.Key == "" {
			logger.G(ctx).WithField("path", occ.Path).Debug("skipping entry with empty skill key")
			continue
		}
		out = append(out, occ)
	}
	return out
}

// inspectEntry classifies one skills dir entry. It returns nil for entries
// that are not skill packages.
func inspectEntry(path string, legacy bool) *Occurrence {
	info, err := os.Lstat(path)
	if err != nil {
		return nil
	}
	name := filepath.Base(path)
	occ := &Occurrence{Path: path, Entry: name, Key: slugs.EntryKey(name)}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		occ.Identity = real
	}

	if info.Mode()&os.ModeSymlink != 0 {
		link := readLink(path)
		occ.EntryLink = link
		if link.Broken {
			kind, _ := skills.KindOf(name, !strings.EqualFold(filepath.Ext(name), ".md"))
			occ.Kind = kind
		} else {
			target, err := os.Stat(path)
			if err != nil {
				return nil
			}
			kind, ok := skills.KindOf(name, target.IsDir())
			if !ok {
				return nil
			}
			if kind == skills.KindDirectory && !hasManifest(path) {
				return nil
			}
			occ.Kind = kind
		}
		if legacy && occ.Kind != skills.KindFile {
			return nil
		}
		occ.Name = packageName(occ)
		return occ
	}

	kind, ok := skills.KindOf(name, info.IsDir())
	if !ok || (legacy && kind != skills.KindFile) {
		return nil
	}
	occ.Kind = kind

	if kind == skills.KindDirectory {
		if !hasManifest(path) {
			return nil
		}
		manifest := filepath.Join(path, skills.ManifestFile)
		if isLink(manifest) {
			occ.ManifestLink = readLink(manifest)
		}
	}
	occ.Name = packageName(occ)
	return occ
}

func packageName(occ *Occurrence) string {
	fallback := strings.TrimSuffix(occ.Entry, filepath.Ext(occ.Entry))
	if occ.Kind == skills.KindDirectory {
		fallback = occ.Entry
	}
	if (occ.EntryLink != nil && occ.EntryLink.Broken) || (occ.ManifestLink != nil && occ.ManifestLink.Broken) {
		return fallback
	}
	return skills.PackageName(occ.Path, occ.Kind)
}

func readLink(path string) *Link {
	target, err := os.Readlink(path)
	if err != nil {
		return &Link{Broken: true}
	}
	resolved := target
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(path), resolved)
	}
	link := &Link{Target: target, Resolved: filepath.Clean(resolved)}
	if _, err := os.Stat(path); err != nil {
		link.Broken = true
	}
	return link
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isLink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// hasManifest reports whether dir holds a SKILL.md entry, even a dangling one.
func hasManifest(dir string) bool {
	_, err := os.Lstat(filepath.Join(dir, skills.ManifestFile))
	return err == nil
}
