// Package mutate implements the user-initiated skill operations: delete,
// archive, restore, rename and promote. Every operation validates its target
// against the managed skills directories before touching the filesystem and
// resyncs afterwards.
package mutate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aidanlsb/skillsync/internal/archive"
	"github.com/aidanlsb/skillsync/internal/atomicfile"
	"github.com/aidanlsb/skillsync/internal/fsops"
	"github.com/aidanlsb/skillsync/internal/logger"
	"github.com/aidanlsb/skillsync/internal/parser"
	"github.com/aidanlsb/skillsync/internal/paths"
	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/slugs"
	"github.com/aidanlsb/skillsync/internal/store"
	"github.com/aidanlsb/skillsync/internal/syncer"
	"github.com/aidanlsb/skillsync/internal/trash"
)

// Result describes one completed operation.
type Result struct {
	Op   string `json:"op"`
	ID   string `json:"id"`
	Key  string `json:"skill_key"`
	From string `json:"from"`
	To   string `json:"to,omitempty"`

	// Document is the state after the resync, when one ran.
	Document *store.Document `json:"-"`
	// SyncError is set when the mutation succeeded but the resync failed.
	SyncError string `json:"sync_error,omitempty"`
}

// Operator performs mutations against the skills managed by an engine.
type Operator struct {
	engine  *syncer.Engine
	trash   *trash.Bin
	archive *archive.Store
}

// New creates an operator. Deleted skills go to bin.
func New(engine *syncer.Engine, bin *trash.Bin) *Operator {
	return &Operator{
		engine:  engine,
		trash:   bin,
		archive: archive.New(engine.Options().ArchiveDir),
	}
}

func (o *Operator) layout() skills.Layout {
	return o.engine.Options().Layout
}

// Guard returns the allow-list guard: every global skills dir plus every
// skills dir of every known workspace.
func (o *Operator) Guard(ctx context.Context) *paths.Guard {
	layout := o.layout()
	var roots []string
	for _, eco := range skills.Ecosystems {
		roots = append(roots, layout.GlobalDir(eco))
	}
	for _, ws := range o.engine.Discoverer().Workspaces(ctx) {
		for _, eco := range skills.Ecosystems {
			roots = append(roots, layout.ProjectDir(ws, eco))
		}
	}
	return paths.NewGuard(roots, skills.ProtectedComponent)
}

// Delete moves a skill to the trash. Archived skills have their bundle
// trashed.
func (o *Operator) Delete(ctx context.Context, rec *skills.Record, confirm bool) (*Result, error) {
	res, err := o.delete(ctx, rec, confirm)
	return o.finish(ctx, res, err)
}

// Archive moves a skill into archive storage.
func (o *Operator) Archive(ctx context.Context, rec *skills.Record, confirm bool) (*Result, error) {
	res, err := o.archiveOne(ctx, rec, confirm)
	return o.finish(ctx, res, err)
}

// Restore moves an archived skill back into the global preferred root.
func (o *Operator) Restore(ctx context.Context, rec *skills.Record) (*Result, error) {
	res, err := o.restore(ctx, rec)
	return o.finish(ctx, res, err)
}

// Rename moves a skill to the key derived from title and rewrites its
// manifest title.
func (o *Operator) Rename(ctx context.Context, rec *skills.Record, title string) (*Result, error) {
	res, err := o.rename(ctx, rec, title)
	return o.finish(ctx, res, err)
}

// Promote moves a project skill into the global preferred root.
func (o *Operator) Promote(ctx context.Context, rec *skills.Record, confirm bool) (*Result, error) {
	res, err := o.promote(ctx, rec, confirm)
	return o.finish(ctx, res, err)
}

func (o *Operator) finish(ctx context.Context, res *Result, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	o.resync(ctx, res)
	return res, nil
}

func (o *Operator) resync(ctx context.Context, res *Result) {
	doc, err := o.engine.Run(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("resync after mutation failed")
		if res != nil {
			res.SyncError = err.Error()
		}
	}
	if res != nil {
		res.Document = doc
	}
}

func (o *Operator) delete(ctx context.Context, rec *skills.Record, confirm bool) (*Result, error) {
	if !confirm {
		return nil, ErrConfirmationRequired
	}
	res := &Result{Op: "delete", ID: rec.ID, Key: rec.SkillKey}

	if rec.IsArchived() {
		bundle, err := o.checkBundle(rec)
		if err != nil {
			return nil, err
		}
		dest, err := o.trash.Put(bundle)
		if err != nil {
			return nil, err
		}
		res.From, res.To = bundle, dest
		return res, nil
	}

	if o.layout().IsLegacyPath(rec.CanonicalSourcePath) {
		return nil, ErrLegacyReadOnly
	}
	path, err := o.checkSource(ctx, rec)
	if err != nil {
		return nil, err
	}
	o.unlinkPointers(ctx, rec, path)
	dest, err := o.trash.Put(path)
	if err != nil {
		return nil, err
	}
	res.From, res.To = path, dest
	logger.G(ctx).WithField("key", rec.SkillKey).WithField("trash", dest).Info("deleted skill")
	return res, nil
}

func (o *Operator) archiveOne(ctx context.Context, rec *skills.Record, confirm bool) (*Result, error) {
	if !confirm {
		return nil, ErrConfirmationRequired
	}
	if rec.IsArchived() {
		return nil, ErrAlreadyArchived
	}
	if o.layout().IsLegacyPath(rec.CanonicalSourcePath) {
		return nil, ErrLegacyReadOnly
	}
	path, err := o.checkSource(ctx, rec)
	if err != nil {
		return nil, err
	}
	o.unlinkPointers(ctx, rec, path)
	bundle, err := o.archive.Put(path, rec)
	if err != nil {
		return nil, err
	}
	logger.G(ctx).WithField("key", rec.SkillKey).WithField("bundle", bundle).Info("archived skill")
	return &Result{Op: "archive", ID: rec.ID, Key: rec.SkillKey, From: path, To: bundle}, nil
}

func (o *Operator) restore(ctx context.Context, rec *skills.Record) (*Result, error) {
	if !rec.IsArchived() {
		return nil, ErrNotArchived
	}
	bundle, err := o.checkBundle(rec)
	if err != nil {
		return nil, err
	}
	meta, err := o.archive.Load(bundle)
	if err != nil {
		return nil, err
	}

	key := meta.Key
	if key == "" {
		key = slugs.EntryKey(meta.Entry)
	}
	dest, err := o.globalSlot(key, meta.PackageType)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	if err := o.archive.Take(bundle, dest); err != nil {
		return nil, err
	}
	logger.G(ctx).WithField("key", key).WithField("path", dest).Info("restored skill")
	return &Result{Op: "restore", ID: rec.ID, Key: key, From: bundle, To: dest}, nil
}

func (o *Operator) rename(ctx context.Context, rec *skills.Record, title string) (*Result, error) {
	if rec.IsArchived() {
		return nil, ErrAlreadyArchived
	}
	slug := slugs.SkillKey(title)
	if slug == "" {
		return nil, ErrEmptySlug
	}
	if o.layout().IsLegacyPath(rec.CanonicalSourcePath) {
		return nil, ErrLegacyReadOnly
	}
	path, err := o.checkSource(ctx, rec)
	if err != nil {
		return nil, err
	}
	res := &Result{Op: "rename", ID: rec.ID, Key: slug, From: path, To: path}

	if slug == rec.SkillKey {
		if err := rewriteTitle(path, rec.PackageType, title); err != nil {
			return nil, err
		}
		return res, nil
	}

	layout := o.layout()
	for _, eco := range skills.Ecosystems {
		dir := layout.Dir(rec.Scope, rec.WorkspacePath(), eco)
		for _, kind := range []skills.PackageKind{skills.KindDirectory, skills.KindFile} {
			if fsops.Exists(skills.EntryPath(dir, slug, kind)) {
				return nil, fmt.Errorf("%s: %w", skills.EntryPath(dir, slug, kind), ErrDestinationExists)
			}
		}
	}

	dest := skills.EntryPath(filepath.Dir(path), slug, rec.PackageType)
	o.unlinkPointers(ctx, rec, path)
	if err := os.Rename(path, dest); err != nil {
		return nil, fmt.Errorf("rename %s: %w", path, err)
	}
	if err := rewriteTitle(dest, rec.PackageType, title); err != nil {
		if rbErr := os.Rename(dest, path); rbErr != nil {
			return nil, fmt.Errorf("%v; rollback failed: %v", err, rbErr)
		}
		return nil, err
	}
	res.To = dest
	logger.G(ctx).WithField("from", path).WithField("to", dest).Info("renamed skill")
	return res, nil
}

func (o *Operator) promote(ctx context.Context, rec *skills.Record, confirm bool) (*Result, error) {
	if !confirm {
		return nil, ErrConfirmationRequired
	}
	if rec.IsArchived() {
		return nil, ErrAlreadyArchived
	}
	if rec.Scope != skills.ScopeProject {
		return nil, ErrNotProject
	}
	path, err := o.checkSource(ctx, rec)
	if err != nil {
		return nil, err
	}
	dest, err := o.globalSlot(rec.SkillKey, rec.PackageType)
	if err != nil {
		return nil, err
	}

	o.unlinkPointers(ctx, rec, path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	if err := fsops.Move(path, dest); err != nil {
		return nil, fmt.Errorf("move %s to %s: %w", path, dest, err)
	}
	logger.G(ctx).WithField("from", path).WithField("to", dest).Info("promoted skill")
	return &Result{Op: "promote", ID: rec.ID, Key: rec.SkillKey, From: path, To: dest}, nil
}

// checkSource validates the canonical path against the guard and requires it
// to exist.
func (o *Operator) checkSource(ctx context.Context, rec *skills.Record) (string, error) {
	path, err := o.Guard(ctx).Check(rec.CanonicalSourcePath)
	if err != nil {
		return "", err
	}
	if !fsops.Exists(path) {
		return "", fmt.Errorf("%s: %w", path, ErrMissingSource)
	}
	return path, nil
}

func (o *Operator) checkBundle(rec *skills.Record) (string, error) {
	guard := paths.NewGuard([]string{o.archive.Dir})
	bundle, err := guard.Check(rec.ArchivedBundlePath)
	if err != nil {
		return "", err
	}
	if !fsops.Exists(bundle) {
		return "", fmt.Errorf("%s: %w", bundle, ErrMissingSource)
	}
	return bundle, nil
}

// globalSlot returns the preferred global destination for key. It fails when
// the slot is taken or another global root holds real content for the key.
func (o *Operator) globalSlot(key string, kind skills.PackageKind) (string, error) {
	layout := o.layout()
	dest := skills.EntryPath(layout.GlobalDir(skills.PreferredEcosystem), key, kind)
	if fsops.Exists(dest) {
		return "", fmt.Errorf("%s: %w", dest, ErrDestinationExists)
	}
	for _, eco := range skills.Ecosystems {
		for _, k := range []skills.PackageKind{skills.KindDirectory, skills.KindFile} {
			slot := skills.EntryPath(layout.GlobalDir(eco), key, k)
			if fsops.Exists(slot) && !fsops.IsSymlink(slot) {
				return "", fmt.Errorf("%s: %w", slot, ErrDestinationExists)
			}
		}
	}
	return dest, nil
}

// unlinkPointers removes symlinks in the record's scope that point at path so
// the move does not leave them dangling.
func (o *Operator) unlinkPointers(ctx context.Context, rec *skills.Record, path string) {
	layout := o.layout()
	candidates := append([]string{}, rec.TargetPaths...)
	for _, eco := range skills.Ecosystems {
		candidates = append(candidates, skills.EntryPath(layout.Dir(rec.Scope, rec.WorkspacePath(), eco), rec.SkillKey, rec.PackageType))
	}

	seen := make(map[string]bool)
	for _, candidate := range candidates {
		if seen[candidate] || candidate == path {
			continue
		}
		seen[candidate] = true
		if !fsops.IsSymlink(candidate) || !syncer.PointsAt(candidate, path) {
			continue
		}
		if err := os.Remove(candidate); err != nil {
			logger.G(ctx).WithError(err).WithField("link", candidate).Warn("could not remove symlink")
		}
	}
}

func rewriteTitle(path string, kind skills.PackageKind, title string) error {
	manifest := skills.ManifestPath(path, kind)
	if resolved, err := filepath.EvalSymlinks(manifest); err == nil {
		manifest = resolved
	}
	data, err := os.ReadFile(manifest)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	updated, err := parser.SetField(string(data), "title", title)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteFile(manifest, []byte(updated), 0); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
