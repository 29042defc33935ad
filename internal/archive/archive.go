// Package archive stores archived skill packages as self-describing bundles.
//
// A bundle is a directory holding bundle.json and payload/<entry>, where
// entry is the package's original directory or file name.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aidanlsb/skillsync/internal/atomicfile"
	"github.com/aidanlsb/skillsync/internal/fsops"
	"github.com/aidanlsb/skillsync/internal/logger"
	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/slugs"
)

const (
	metadataFile = "bundle.json"
	payloadDir   = "payload"
)

// Bundle is the metadata stored with an archived package.
type Bundle struct {
	Key               string             `json:"key"`
	Name              string             `json:"name"`
	PackageType       skills.PackageKind `json:"package_type"`
	Entry             string             `json:"entry"`
	ArchivedAt        time.Time          `json:"archived_at"`
	OriginalScope     skills.Scope       `json:"original_scope"`
	OriginalWorkspace *string            `json:"original_workspace"`
}

// Store manages bundles under Dir.
type Store struct {
	Dir string
	now func() time.Time
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir, now: time.Now}
}

// Put moves the package at src into a new bundle and returns the bundle path.
func (s *Store) Put(src string, rec *skills.Record) (string, error) {
	at := s.now().UTC()
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}
	bundlePath := fsops.UniquePath(s.Dir, slugs.BundleName(rec.SkillKey, at))
	if err := os.MkdirAll(filepath.Join(bundlePath, payloadDir), 0o755); err != nil {
		return "", fmt.Errorf("create bundle: %w", err)
	}

	meta := Bundle{
		Key:               rec.SkillKey,
		Name:              rec.Name,
		PackageType:       rec.PackageType,
		Entry:             filepath.Base(src),
		ArchivedAt:        at,
		OriginalScope:     rec.Scope,
		OriginalWorkspace: rec.Workspace,
	}
	if err := atomicfile.WriteJSON(filepath.Join(bundlePath, metadataFile), meta); err != nil {
		_ = os.RemoveAll(bundlePath)
		return "", fmt.Errorf("write bundle metadata: %w", err)
	}
	if err := fsops.Move(src, filepath.Join(bundlePath, payloadDir, meta.Entry)); err != nil {
		_ = os.RemoveAll(bundlePath)
		return "", fmt.Errorf("move %s into archive: %w", src, err)
	}
	return bundlePath, nil
}

// Load reads a bundle's metadata.
func (s *Store) Load(bundlePath string) (*Bundle, error) {
	data, err := os.ReadFile(filepath.Join(bundlePath, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("read bundle metadata: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle metadata %s: %w", bundlePath, err)
	}
	if b.Entry == "" {
		return nil, fmt.Errorf("bundle %s has no entry", bundlePath)
	}
	return &b, nil
}

// PayloadPath returns where the bundle's package content lives.
func PayloadPath(bundlePath string, b *Bundle) string {
	return filepath.Join(bundlePath, payloadDir, b.Entry)
}

// Take moves the payload to dst and removes the bundle.
func (s *Store) Take(bundlePath, dst string) error {
	b, err := s.Load(bundlePath)
	if err != nil {
		return err
	}
	if err := fsops.Move(PayloadPath(bundlePath, b), dst); err != nil {
		return fmt.Errorf("move archived payload to %s: %w", dst, err)
	}
	if err := os.RemoveAll(bundlePath); err != nil {
		return fmt.Errorf("remove bundle %s: %w", bundlePath, err)
	}
	return nil
}

// Record builds the archived skill record for a bundle.
func (b *Bundle) Record(bundlePath string) skills.Record {
	archivedAt := b.ArchivedAt
	payload := PayloadPath(bundlePath, b)
	return skills.Record{
		ID:                        skills.ArchivedRecordID(bundlePath),
		Name:                      b.Name,
		Scope:                     b.OriginalScope,
		Workspace:                 b.OriginalWorkspace,
		CanonicalSourcePath:       payload,
		TargetPaths:               []string{},
		Exists:                    fsops.Exists(payload),
		PackageType:               b.PackageType,
		SkillKey:                  b.Key,
		Status:                    skills.StatusArchived,
		ArchivedAt:                &archivedAt,
		ArchivedBundlePath:        bundlePath,
		ArchivedOriginalScope:     b.OriginalScope,
		ArchivedOriginalWorkspace: b.OriginalWorkspace,
	}
}

// Records lists every readable bundle as an archived record, newest first.
func (s *Store) Records(ctx context.Context) []skills.Record {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.G(ctx).WithError(err).WithField("dir", s.Dir).Warn("skipping unreadable archive")
		}
		return nil
	}

	var out []skills.Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		bundlePath := filepath.Join(s.Dir, entry.Name())
		b, err := s.Load(bundlePath)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("bundle", bundlePath).Debug("skipping bundle")
			continue
		}
		out = append(out, b.Record(bundlePath))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ArchivedAt.After(*out[j].ArchivedAt)
	})
	return out
}
