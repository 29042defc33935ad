// Package slugs provides the slugification helpers used across skillsync.
//
// There are two slugging strategies:
//   - Skill keys: the identity of a skill package on disk. These are derived with a
//     strict ASCII transformation so that every agent ecosystem resolves the same
//     directory name for a given title.
//   - Bundle names: names of archive bundles, built on gosimple/slug.
package slugs

import (
	"strings"
	"time"

	goslug "github.com/gosimple/slug"
)

// bundleTimeLayout keeps bundle names sortable and free of separators.
const bundleTimeLayout = "20060102t150405z"

// SkillKey converts a title or entry name into a skill key.
//
// The key is lowercase, made of ASCII letter/digit runs joined by single dashes,
// with no leading or trailing dash. Everything else (punctuation, whitespace,
// non-ASCII letters) acts as a separator.
func SkillKey(text string) string {
	var result strings.Builder
	pendingDash := false

	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && result.Len() > 0 {
				result.WriteByte('-')
			}
			pendingDash = false
			result.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	return result.String()
}

// EntryKey derives a skill key from a package entry name, dropping a trailing
// ".md" so single-file packages and directories share a key space.
func EntryKey(entryName string) string {
	if strings.HasSuffix(strings.ToLower(entryName), ".md") {
		entryName = entryName[:len(entryName)-len(".md")]
	}
	return SkillKey(entryName)
}

// BundleName builds the archive bundle directory name for a skill key.
func BundleName(key string, at time.Time) string {
	name := goslug.Make(key + "-" + at.UTC().Format(bundleTimeLayout))
	if name == "" {
		name = at.UTC().Format(bundleTimeLayout)
	}
	return name
}
