// Package skills defines skill records, the on-disk layout of every supported
// agent ecosystem, and the primitives for reading a skill package.
package skills

import (
	"time"

	"github.com/google/uuid"
)

// Scope controls where a skill is visible.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
)

// PackageKind distinguishes directory packages from single-file packages.
type PackageKind string

const (
	KindDirectory PackageKind = "directory"
	KindFile      PackageKind = "file"
)

// Status is the lifecycle state of a record.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// recordNamespace seeds record ids so they stay stable across runs.
var recordNamespace = uuid.MustParse("5f0c7f2e-9a7c-4a43-9d8e-6b1f1c0d2a71")

// RecordID derives the stable identifier for a (scope, workspace, key) triple.
func RecordID(scope Scope, workspace, key string) string {
	return uuid.NewSHA1(recordNamespace, []byte(string(scope)+"|"+workspace+"|"+key)).String()
}

// ArchivedRecordID derives the identifier for an archive bundle.
func ArchivedRecordID(bundlePath string) string {
	return uuid.NewSHA1(recordNamespace, []byte("archived|"+bundlePath)).String()
}

// Record is one skill as persisted in the state document.
type Record struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Scope               Scope       `json:"scope"`
	Workspace           *string     `json:"workspace"`
	CanonicalSourcePath string      `json:"canonical_source_path"`
	TargetPaths         []string    `json:"target_paths"`
	Exists              bool        `json:"exists"`
	IsSymlinkCanonical  bool        `json:"is_symlink_canonical"`
	PackageType         PackageKind `json:"package_type"`
	SkillKey            string      `json:"skill_key"`
	SymlinkTarget       *string     `json:"symlink_target"`

	Status                    Status     `json:"status,omitempty"`
	ArchivedAt                *time.Time `json:"archived_at,omitempty"`
	ArchivedBundlePath        string     `json:"archived_bundle_path,omitempty"`
	ArchivedOriginalScope     Scope      `json:"archived_original_scope,omitempty"`
	ArchivedOriginalWorkspace *string    `json:"archived_original_workspace,omitempty"`
}

// IsArchived reports whether the record lives in archive storage. Records
// written before lifecycle tracking have no status and count as active.
func (r *Record) IsArchived() bool {
	return r.Status == StatusArchived
}

// WorkspacePath returns the workspace or "" for global records.
func (r *Record) WorkspacePath() string {
	if r.Workspace == nil {
		return ""
	}
	return *r.Workspace
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
