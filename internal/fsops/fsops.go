// Package fsops moves and copies skill packages, including across devices.
package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// Replaced in tests to simulate cross-device moves and removal failures.
var (
	rename    = os.Rename
	removeAll = os.RemoveAll
)

// Move renames src to dst. When they are on different devices the tree is
// copied, then the source is renamed to a hidden sibling and deleted. A
// returned error means src is still intact and nothing is left at dst. If only
// the final delete fails, Move succeeds and the hidden sibling remains.
func Move(src, dst string) error {
	err := rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := CopyTree(src, dst); err != nil {
		_ = removeAll(dst)
		return fmt.Errorf("copy %s across devices: %w", src, err)
	}
	aside := UniquePath(filepath.Dir(src), "."+filepath.Base(src)+".moved")
	if err := rename(src, aside); err != nil {
		_ = removeAll(dst)
		return fmt.Errorf("release %s after copy: %w", src, err)
	}
	_ = removeAll(aside)
	return nil
}

// CopyTree copies a file, directory or symlink. Symlinks are recreated, not
// followed.
func CopyTree(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(target, dst)
	case info.IsDir():
		if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
			return err
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := CopyTree(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
				return err
			}
		}
		return nil
	default:
		return copyFile(src, dst, info.Mode().Perm())
	}
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Exists reports whether anything, including a dangling symlink, is at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsSymlink reports whether path is a symlink.
func IsSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// UniquePath returns dir/name, or the first free Suffixed variant.
func UniquePath(dir, name string) string {
	candidate := filepath.Join(dir, name)
	for i := 2; Exists(candidate); i++ {
		candidate = filepath.Join(dir, Suffixed(name, i))
	}
	return candidate
}

// Suffixed inserts "-n" before the extension of name.
func Suffixed(name string, n int) string {
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	if stem == "" {
		stem, ext = name, ""
	}
	return fmt.Sprintf("%s-%d%s", stem, n, ext)
}
