// Package paths normalizes filesystem paths and guards mutations so they stay
// inside the skills directories the engine manages.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrOutsideRoots means a path is not under any allow-listed root.
	ErrOutsideRoots = errors.New("path is outside the managed skills directories")
	// ErrProtectedPath means a path falls under a reserved namespace.
	ErrProtectedPath = errors.New("path is under a protected directory")
)

// Normalize makes p absolute and lexically clean. A leading "~/" expands to
// the user's home directory.
func Normalize(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("path is empty")
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("normalize %s: %w", p, err)
	}
	return filepath.Clean(abs), nil
}

// IsWithin reports whether p is strictly below root. Both must be clean.
func IsWithin(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Guard validates mutation targets against allow-listed roots and protected
// path components.
type Guard struct {
	roots     []string
	protected []string
}

// NewGuard builds a guard. Roots are normalized; unresolvable ones are dropped.
func NewGuard(roots []string, protected ...string) *Guard {
	g := &Guard{protected: protected}
	for _, root := range roots {
		if n, err := Normalize(root); err == nil {
			g.roots = append(g.roots, n)
		}
	}
	return g
}

// Roots returns the normalized allow-list.
func (g *Guard) Roots() []string {
	return append([]string(nil), g.roots...)
}

// Check normalizes p and verifies it is strictly under an allowed root and
// contains no protected component below that root. It returns the normalized
// path.
func (g *Guard) Check(p string) (string, error) {
	n, err := Normalize(p)
	if err != nil {
		return "", err
	}
	for _, root := range g.roots {
		if !IsWithin(root, n) {
			continue
		}
		rel, _ := filepath.Rel(root, n)
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			for _, protected := range g.protected {
				if part == protected {
					return "", fmt.Errorf("%s: %w", n, ErrProtectedPath)
				}
			}
		}
		return n, nil
	}
	return "", fmt.Errorf("%s: %w", n, ErrOutsideRoots)
}
