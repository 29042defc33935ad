package syncer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aidanlsb/skillsync/internal/atomicfile"
	"github.com/aidanlsb/skillsync/internal/logger"
	"github.com/aidanlsb/skillsync/internal/skills"
)

// Action is what the reconciler did with one target path.
type Action string

const (
	ActionCreate  Action = "create"
	ActionKeep    Action = "keep"
	ActionReplace Action = "replace"
	ActionSkip    Action = "skip"
)

// Outcome is the reconciler's result for one target path.
type Outcome struct {
	Path   string
	Action Action
	Err    error
}

// Reconcile converges every target path of rec onto a symlink to its
// canonical source. Real files at a target are never replaced. Records without
// real canonical content are left alone.
func Reconcile(ctx context.Context, rec *skills.Record) []Outcome {
	if rec.IsArchived() || !rec.Exists || rec.IsSymlinkCanonical {
		return nil
	}
	canonical := filepath.Clean(rec.CanonicalSourcePath)
	log := logger.G(ctx).WithField("key", rec.SkillKey)

	outcomes := make([]Outcome, 0, len(rec.TargetPaths))
	for _, target := range rec.TargetPaths {
		out := reconcileTarget(canonical, target)
		if out.Err != nil {
			log.WithError(out.Err).WithField("target", target).Warn("reconcile failed")
		} else if out.Action != ActionKeep {
			log.WithField("target", target).WithField("action", out.Action).Info("reconciled target")
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func reconcileTarget(canonical, target string) Outcome {
	info, err := os.Lstat(target)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return Outcome{Path: target, Action: ActionCreate, Err: fmt.Errorf("create %s: %w", filepath.Dir(target), err)}
		}
		if err := atomicfile.Symlink(canonical, target); err != nil {
			return Outcome{Path: target, Action: ActionCreate, Err: err}
		}
		return Outcome{Path: target, Action: ActionCreate}

	case err != nil:
		return Outcome{Path: target, Action: ActionSkip, Err: err}

	case info.Mode()&os.ModeSymlink == 0:
		if sameFile(target, canonical) {
			return Outcome{Path: target, Action: ActionKeep}
		}
		return Outcome{Path: target, Action: ActionSkip}
	}

	if PointsAt(target, canonical) {
		return Outcome{Path: target, Action: ActionKeep}
	}
	if err := atomicfile.Symlink(canonical, target); err != nil {
		return Outcome{Path: target, Action: ActionReplace, Err: err}
	}
	return Outcome{Path: target, Action: ActionReplace}
}

// sameFile reports whether a and b are the same file or directory, as when a
// skills dir is itself a symlink to another.
func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// PointsAt reports whether the symlink at link resolves to canonical, either
// literally or after resolving every symlink on both sides.
func PointsAt(link, canonical string) bool {
	dest, err := os.Readlink(link)
	if err != nil {
		return false
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(link), dest)
	}
	if filepath.Clean(dest) == canonical {
		return true
	}
	resolvedLink, err := filepath.EvalSymlinks(link)
	if err != nil {
		return false
	}
	resolvedCanonical, err := filepath.EvalSymlinks(canonical)
	if err != nil {
		return false
	}
	return resolvedLink == resolvedCanonical
}
