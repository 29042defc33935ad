package syncer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aidanlsb/skillsync/internal/atomicfile"
	"github.com/aidanlsb/skillsync/internal/fsops"
	"github.com/aidanlsb/skillsync/internal/logger"
)

// ApplyMigration moves canonical content into the preferred slot and leaves a
// symlink at the vacated path. A failed back-link rolls the move back.
func ApplyMigration(ctx context.Context, m Migration) error {
	fail := func(err error) error {
		return &MigrationError{Key: m.Key, From: m.From, To: m.To, Err: err}
	}

	if info, err := os.Lstat(m.To); err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			return fail(fmt.Errorf("destination is occupied"))
		}
		if err := os.Remove(m.To); err != nil {
			return fail(fmt.Errorf("remove placeholder symlink: %w", err))
		}
	}
	if err := os.MkdirAll(filepath.Dir(m.To), 0o755); err != nil {
		return fail(err)
	}
	if err := fsops.Move(m.From, m.To); err != nil {
		return fail(err)
	}
	if err := atomicfile.Symlink(m.To, m.From); err != nil {
		if rbErr := fsops.Move(m.To, m.From); rbErr != nil {
			return fail(fmt.Errorf("%v; rollback failed: %v", err, rbErr))
		}
		return fail(err)
	}

	logger.G(ctx).WithField("key", m.Key).WithField("from", m.From).WithField("to", m.To).Info("migrated canonical source")
	return nil
}

// ApplyRepair swaps healthy content into a slot whose manifest link is broken.
// The broken slot is kept as a hidden sibling backup.
func ApplyRepair(ctx context.Context, r Repair) error {
	fail := func(err error) error {
		return &MigrationError{Key: r.Key, From: r.Healthy, To: r.Slot, Err: err}
	}

	backup := fsops.UniquePath(filepath.Dir(r.Slot), "."+filepath.Base(r.Slot)+".broken")
	if err := os.Rename(r.Slot, backup); err != nil {
		return fail(fmt.Errorf("back up broken slot: %w", err))
	}
	if err := fsops.Move(r.Healthy, r.Slot); err != nil {
		if rbErr := os.Rename(backup, r.Slot); rbErr != nil {
			return fail(fmt.Errorf("%v; restoring backup failed: %v", err, rbErr))
		}
		return fail(err)
	}
	if err := atomicfile.Symlink(r.Slot, r.Healthy); err != nil {
		rbErr := fsops.Move(r.Slot, r.Healthy)
		if rbErr == nil {
			rbErr = os.Rename(backup, r.Slot)
		}
		if rbErr != nil {
			return fail(fmt.Errorf("%v; rollback failed: %v", err, rbErr))
		}
		return fail(err)
	}

	logger.G(ctx).WithField("key", r.Key).WithField("slot", r.Slot).WithField("backup", backup).Info("repaired broken canonical slot")
	return nil
}
