// Package trash moves deleted skills to the platform trash.
package trash

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/aidanlsb/skillsync/internal/atomicfile"
	"github.com/aidanlsb/skillsync/internal/fsops"
)

// Bin is a trash directory. When InfoDir is set a freedesktop .trashinfo
// record is written for every item.
type Bin struct {
	FilesDir string
	InfoDir  string
	now      func() time.Time
}

// Default returns the trash for the current platform: ~/.Trash on macOS and
// the freedesktop home trash elsewhere.
func Default() (*Bin, error) {
	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		return New(filepath.Join(home, ".Trash"), false), nil
	}
	return New(filepath.Join(xdg.DataHome, "Trash"), true), nil
}

// New returns a bin rooted at dir. With freedesktop layout items land in
// dir/files and records in dir/info; otherwise items land in dir directly.
func New(dir string, freedesktop bool) *Bin {
	if !freedesktop {
		return &Bin{FilesDir: dir, now: time.Now}
	}
	return &Bin{
		FilesDir: filepath.Join(dir, "files"),
		InfoDir:  filepath.Join(dir, "info"),
		now:      time.Now,
	}
}

// Put moves path into the trash and returns where it landed. Name collisions
// get a numeric suffix.
func (b *Bin) Put(path string) (string, error) {
	if err := os.MkdirAll(b.FilesDir, 0o700); err != nil {
		return "", fmt.Errorf("create trash directory: %w", err)
	}

	name := filepath.Base(path)
	dest := filepath.Join(b.FilesDir, name)
	for i := 2; fsops.Exists(dest) || fsops.Exists(b.infoPath(dest)); i++ {
		dest = filepath.Join(b.FilesDir, fsops.Suffixed(name, i))
	}

	infoPath := b.infoPath(dest)
	if infoPath != "" {
		if err := os.MkdirAll(b.InfoDir, 0o700); err != nil {
			return "", fmt.Errorf("create trash info directory: %w", err)
		}
		if err := atomicfile.WriteFile(infoPath, []byte(trashInfo(path, b.now())), 0o600); err != nil {
			return "", fmt.Errorf("write trash info: %w", err)
		}
	}

	if err := fsops.Move(path, dest); err != nil {
		if infoPath != "" {
			_ = os.Remove(infoPath)
		}
		return "", fmt.Errorf("move %s to trash: %w", path, err)
	}
	return dest, nil
}

func (b *Bin) infoPath(dest string) string {
	if b.InfoDir == "" {
		return ""
	}
	return filepath.Join(b.InfoDir, filepath.Base(dest)+".trashinfo")
}

func trashInfo(original string, at time.Time) string {
	escaped := (&url.URL{Path: original}).EscapedPath()
	var b strings.Builder
	b.WriteString("[Trash Info]\n")
	b.WriteString("Path=" + escaped + "\n")
	b.WriteString("DeletionDate=" + at.Format("2006-01-02T15:04:05") + "\n")
	return b.String()
}
